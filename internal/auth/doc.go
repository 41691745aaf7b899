// Package auth orchestrates login: provider onboarding and
// reconciliation, the two-leg authorization-code flow, mapping a verified
// remote identity to a local account, and local password authentication.
//
// The package owns no HTTP surface. The web layer calls Initiate and
// Complete from its handlers and establishes the session itself; the
// package hands back a local user, never a cookie.
package auth
