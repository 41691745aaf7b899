// Package auth contains the session middleware guarding the web routes.
package auth
