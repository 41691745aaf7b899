package oidc

import (
	"context"
	"fmt"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// TokenSet is the outcome of one successful code exchange: the access
// token, the verified ID token, and the claims resolved so far.
type TokenSet struct {
	// AccessToken authorizes userinfo calls.
	AccessToken string
	// RawIDToken is the compact-serialized, verified ID token.
	RawIDToken string
	// Endpoints is the provider metadata the exchange ran against.
	Endpoints Endpoints

	client   *Client
	provider *gooidc.Provider

	idClaims        map[string]any
	userinfoClaims  map[string]any
	userinfoFetched bool
}

// Claim resolves a claim by name: first from the verified ID token, then
// from the userinfo endpoint. The userinfo response is fetched at most
// once per token set. A missing claim returns ok=false without error; only
// a failing userinfo call is an error.
func (t *TokenSet) Claim(ctx context.Context, name string) (any, bool, error) {
	if v, ok := t.idClaims[name]; ok {
		return v, true, nil
	}

	if !t.userinfoFetched {
		if err := t.fetchUserinfo(ctx); err != nil {
			return nil, false, err
		}
	}

	v, ok := t.userinfoClaims[name]

	return v, ok, nil
}

// StringClaim resolves a claim and asserts it to string.
// A claim of a different type counts as absent.
func (t *TokenSet) StringClaim(ctx context.Context, name string) (string, bool, error) {
	v, ok, err := t.Claim(ctx, name)
	if err != nil || !ok {
		return "", false, err
	}

	s, ok := v.(string)

	return s, ok, nil
}

// BoolClaim resolves a claim and asserts it to bool.
// A claim of a different type counts as absent.
func (t *TokenSet) BoolClaim(ctx context.Context, name string) (bool, bool, error) {
	v, ok, err := t.Claim(ctx, name)
	if err != nil || !ok {
		return false, false, err
	}

	b, ok := v.(bool)

	return b, ok, nil
}

// fetchUserinfo loads and caches the userinfo claims for the access token.
func (t *TokenSet) fetchUserinfo(ctx context.Context) error {
	userInfo, err := t.provider.UserInfo(
		t.client.clientContext(ctx),
		oauth2.StaticTokenSource(&oauth2.Token{AccessToken: t.AccessToken}),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrClaimFetch, classifyTimeout(err))
	}

	claims := make(map[string]any)
	if err := userInfo.Claims(&claims); err != nil {
		return fmt.Errorf("%w: %w", ErrClaimFetch, err)
	}

	t.userinfoClaims = claims
	t.userinfoFetched = true

	return nil
}
