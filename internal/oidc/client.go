package oidc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// DefaultTimeout bounds every outbound provider call unless overridden.
const DefaultTimeout = 15 * time.Second

// Scopes are the OAuth2 scopes requested on every authorization.
var Scopes = []string{gooidc.ScopeOpenID, "email", "profile"}

// Endpoints holds the provider metadata the flow needs beyond what the
// go-oidc provider type exposes directly.
type Endpoints struct {
	// AuthorizationEndpoint receives the browser redirect.
	AuthorizationEndpoint string
	// TokenEndpoint performs the code exchange.
	TokenEndpoint string
	// UserinfoEndpoint serves claims for an access token.
	UserinfoEndpoint string
	// RegistrationEndpoint accepts dynamic client registrations; empty if unsupported.
	RegistrationEndpoint string
	// EndSessionEndpoint ends the provider session; empty if unsupported.
	EndSessionEndpoint string
}

// Client implements the OIDC wire protocol for any one provider interaction.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a protocol client with the given request timeout.
// A zero timeout selects DefaultTimeout.
func NewClient(timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SetHTTPProxy routes all outbound calls through the given forward proxy.
// Must be called before the first network call.
func (c *Client) SetHTTPProxy(rawURL string) error {
	proxyURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid proxy url: %w", err)
	}

	c.httpClient.Transport = &http.Transport{
		Proxy: http.ProxyURL(proxyURL),
	}

	return nil
}

// Discover fetches the provider metadata for the given issuer URL.
func (c *Client) Discover(ctx context.Context, providerURL string) (*gooidc.Provider, *Endpoints, error) {
	provider, err := gooidc.NewProvider(c.clientContext(ctx), providerURL)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrDiscovery, classifyTimeout(err))
	}

	// go-oidc only surfaces the OAuth2 endpoints; the registration and
	// end-session endpoints come from the raw metadata claims.
	var extra struct {
		UserinfoEndpoint     string `json:"userinfo_endpoint"`
		RegistrationEndpoint string `json:"registration_endpoint"`
		EndSessionEndpoint   string `json:"end_session_endpoint"`
	}

	if err := provider.Claims(&extra); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrDiscovery, err)
	}

	endpoints := &Endpoints{
		AuthorizationEndpoint: provider.Endpoint().AuthURL,
		TokenEndpoint:         provider.Endpoint().TokenURL,
		UserinfoEndpoint:      extra.UserinfoEndpoint,
		RegistrationEndpoint:  extra.RegistrationEndpoint,
		EndSessionEndpoint:    extra.EndSessionEndpoint,
	}

	return provider, endpoints, nil
}

// AuthCodeURL builds the authorization redirect target for the given
// provider with the required scopes and the state token.
func (c *Client) AuthCodeURL(ctx context.Context, providerURL, clientID, redirectURL, state string) (string, error) {
	provider, _, err := c.Discover(ctx, providerURL)
	if err != nil {
		return "", err
	}

	oauthCfg := oauth2.Config{
		ClientID:    clientID,
		RedirectURL: redirectURL,
		Endpoint:    provider.Endpoint(),
		Scopes:      Scopes,
	}

	return oauthCfg.AuthCodeURL(state), nil
}

// Exchange trades the authorization code for tokens, verifies the returned
// ID token against the provider keys, and returns the resulting token set.
func (c *Client) Exchange(
	ctx context.Context,
	providerURL, clientID, clientSecret, redirectURL, code string,
) (*TokenSet, error) {
	provider, endpoints, err := c.Discover(ctx, providerURL)
	if err != nil {
		return nil, err
	}

	oauthCfg := oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     provider.Endpoint(),
		Scopes:       Scopes,
	}

	oauthToken, err := oauthCfg.Exchange(c.clientContext(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenExchange, classifyTimeout(err))
	}

	if oauthToken.AccessToken == "" {
		return nil, fmt.Errorf("%w: no access_token in token response", ErrTokenExchange)
	}

	rawIDToken, ok := oauthToken.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, fmt.Errorf("%w: %w", ErrTokenExchange, ErrNoIDToken)
	}

	verifier := provider.Verifier(&gooidc.Config{ClientID: clientID})

	idToken, err := verifier.Verify(c.clientContext(ctx), rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("%w: id token verification: %w", ErrTokenExchange, err)
	}

	idClaims := make(map[string]any)
	if err := idToken.Claims(&idClaims); err != nil {
		return nil, fmt.Errorf("%w: id token claims: %w", ErrTokenExchange, err)
	}

	return &TokenSet{
		AccessToken: oauthToken.AccessToken,
		RawIDToken:  rawIDToken,
		Endpoints:   *endpoints,
		client:      c,
		provider:    provider,
		idClaims:    idClaims,
	}, nil
}

// clientContext injects the package HTTP client, so proxy and timeout
// settings apply to every go-oidc and oauth2 call.
func (c *Client) clientContext(ctx context.Context) context.Context {
	return gooidc.ClientContext(ctx, c.httpClient)
}

// classifyTimeout wraps timeout failures with ErrProviderTimeout, leaving
// other errors untouched.
func classifyTimeout(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrProviderTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %w", ErrProviderTimeout, err)
	}

	return err
}
