package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-oidc-login/go-oidc-login/internal/db/controller/provider"
	"github.com/go-oidc-login/go-oidc-login/internal/oidc"
)

// Identity is the verified claim set handed from the flow to the linker
// after a successful code exchange.
type Identity struct {
	// ProviderURL is the issuer that asserted this identity.
	ProviderURL string
	// Subject is the provider-unique user identifier. Never empty.
	Subject string
	// Email is the asserted address; trust it only when EmailVerified.
	Email             string
	EmailVerified     bool
	GivenName         string
	FamilyName        string
	PreferredUsername string
}

// Flow drives the two-leg authorization-code login. It keeps no state
// between the legs; the redirect URL carries the provider and the state
// store guards against forged callbacks.
type Flow struct {
	store    *provider.Store
	protocol Protocol
	siteURL  string
}

// NewFlow creates a flow controller on the given store and wire client.
func NewFlow(store *provider.Store, client *oidc.Client, siteURL string) *Flow {
	return &Flow{
		store:    store,
		protocol: clientProtocol{client},
		siteURL:  siteURL,
	}
}

// Initiate starts a login against the given provider and returns the
// authorization URL to redirect the browser to. A provider outside the
// approved set fails with ErrUnknownProvider.
func (f *Flow) Initiate(ctx context.Context, providerURL, state string) (string, error) {
	rec, err := f.lookup(providerURL)
	if err != nil {
		return "", err
	}

	return f.protocol.AuthCodeURL(
		ctx, providerURL, rec.ClientID, RedirectURL(f.siteURL, providerURL), state)
}

// Complete handles the provider callback: it re-checks that the provider
// is still approved (an admin may revoke between legs), exchanges the
// code, and collects the identity claims. Any exchange or claim failure
// aborts the login; a login never proceeds on partial data.
func (f *Flow) Complete(ctx context.Context, providerURL, code string) (*Identity, error) {
	rec, err := f.lookup(providerURL)
	if err != nil {
		return nil, err
	}

	tokens, err := f.protocol.Exchange(
		ctx, providerURL, rec.ClientID, rec.ClientSecret, RedirectURL(f.siteURL, providerURL), code)
	if err != nil {
		return nil, err
	}

	identity := &Identity{ProviderURL: providerURL}

	identity.Subject, _, err = tokens.StringClaim(ctx, "sub")
	if err != nil {
		return nil, err
	}

	if identity.Subject == "" {
		return nil, fmt.Errorf("%w: provider asserted no subject", ErrIdentityLink)
	}

	identity.Email, _, err = tokens.StringClaim(ctx, "email")
	if err != nil {
		return nil, err
	}

	identity.EmailVerified, _, err = tokens.BoolClaim(ctx, "email_verified")
	if err != nil {
		return nil, err
	}

	identity.GivenName, _, err = tokens.StringClaim(ctx, "given_name")
	if err != nil {
		return nil, err
	}

	identity.FamilyName, _, err = tokens.StringClaim(ctx, "family_name")
	if err != nil {
		return nil, err
	}

	identity.PreferredUsername, _, err = tokens.StringClaim(ctx, "preferred_username")
	if err != nil {
		return nil, err
	}

	return identity, nil
}

func (f *Flow) lookup(providerURL string) (*provider.Record, error) {
	rec, err := f.store.Get(providerURL)
	if err != nil {
		if errors.Is(err, provider.ErrProviderNotFound) {
			return nil, ErrUnknownProvider
		}

		return nil, err
	}

	return rec, nil
}
