// Package openid serves the OpenID Connect entry and callback URL.
//
// Both legs of a login share the root path: GET /?openid-connect=<url>
// redirects the browser to the provider, and the provider sends the user
// back to the same URL with code and state attached. The echoed provider
// URL is what routes the callback to the right credentials; nothing else
// is stored between the two requests except the state token.
package openid
