package config

import (
	"fmt"
	"time"

	"github.com/go-oidc-login/go-oidc-login/internal/logger"
)

// Session settings.
type Session struct {
	ExpiryTime time.Duration
}

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	OIDC      OIDC
	Title     string
	Webserver Webserver
}

// OIDC implements the OpenID Connect relying-party settings.
type OIDC struct {
	// ClientName is the human-readable client name sent during dynamic
	// client registration. It is combined with the site title.
	ClientName string

	// ProxyURL routes all outbound provider calls through a forward
	// proxy when set (e.g. "http://proxy.internal:3128").
	ProxyURL string

	// RequestTimeout bounds every outbound provider call. Zero selects
	// the built-in default.
	RequestTimeout time.Duration
}

// ListenAddr is the address the webserver listens on.
func (w Webserver) ListenAddr() string {
	return fmt.Sprintf(":%d", w.Port)
}

// Webserver implement webserver settings.
type Webserver struct {
	CleanPath           bool    // use clean path middleware to allow multi slash requests
	DisableRecover      bool    // disable recover middleware
	Domain              string  // domain name for the webserver
	Port                int     // listening port for the webserver
	ShutDownTime        int     // wait time for shutdown
	URL                 string  // base url for the webserver
	CookieEncryptionKey string  // encryption key for cookies
	Session             Session // session settings
}
