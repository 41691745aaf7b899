// Package oidc implements the relying-party wire protocol against a single
// OpenID Connect provider: discovery, dynamic client registration,
// authorization-code exchange with ID-token verification, and claim
// resolution via ID token or userinfo endpoint.
//
// All outbound calls go through one HTTP client with a bounded timeout and
// an optional forward proxy. Nothing in this package touches storage; the
// caller persists registration results and decides which providers are
// approved.
package oidc
