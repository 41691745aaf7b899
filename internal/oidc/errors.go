package oidc

import "errors"

var (
	// ErrDiscovery is returned when provider metadata can not be fetched or parsed.
	ErrDiscovery = errors.New("provider discovery failed")

	// ErrRegistration is returned when dynamic client registration fails or
	// the provider response carries no usable credentials.
	ErrRegistration = errors.New("dynamic client registration failed")

	// ErrNoRegistrationEndpoint is returned when the provider metadata does not
	// advertise a registration endpoint.
	ErrNoRegistrationEndpoint = errors.New("provider does not support dynamic client registration")

	// ErrTokenExchange is returned when the authorization code exchange fails
	// or the token response misses id_token or access_token.
	ErrTokenExchange = errors.New("token exchange failed")

	// ErrNoIDToken is returned when the token response doesn't contain an ID token.
	// This typically indicates a misconfigured provider or an incomplete flow.
	ErrNoIDToken = errors.New("no id_token in token response")

	// ErrClaimFetch is returned when the userinfo endpoint call fails outright.
	// A merely missing claim is not an error.
	ErrClaimFetch = errors.New("userinfo claim fetch failed")

	// ErrProviderTimeout is returned when an outbound provider call exceeded
	// the request timeout. It is wrapped inside the operation error so a
	// stalled provider is distinguishable from a protocol failure.
	ErrProviderTimeout = errors.New("provider request timed out")
)
