// Package main provides the entry point for the Go OIDC Login service.
// It runs a web server using the Fiber framework that authenticates end
// users against administrator-approved OpenID Connect identity providers,
// maps each verified remote identity to a local account, and establishes
// a local browser session. Approved provider credentials and local user
// accounts are persisted with gorm.
package main
