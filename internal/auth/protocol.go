package auth

import (
	"context"
	"net/url"
	"strings"

	"github.com/go-oidc-login/go-oidc-login/internal/oidc"
)

// ClaimSource resolves identity claims after a successful code exchange.
// Satisfied by *oidc.TokenSet.
type ClaimSource interface {
	StringClaim(ctx context.Context, name string) (string, bool, error)
	BoolClaim(ctx context.Context, name string) (bool, bool, error)
}

// Protocol is the slice of the OIDC wire client the flow and registrar
// need. Keeping the wire mechanics behind it lets both be tested without
// a network.
type Protocol interface {
	Register(ctx context.Context, providerURL, redirectURL, clientName string) (clientID, clientSecret string, err error)
	AuthCodeURL(ctx context.Context, providerURL, clientID, redirectURL, state string) (string, error)
	Exchange(ctx context.Context, providerURL, clientID, clientSecret, redirectURL, code string) (ClaimSource, error)
}

// clientProtocol adapts *oidc.Client to Protocol.
type clientProtocol struct {
	*oidc.Client
}

func (p clientProtocol) Exchange(
	ctx context.Context,
	providerURL, clientID, clientSecret, redirectURL, code string,
) (ClaimSource, error) {
	tokens, err := p.Client.Exchange(ctx, providerURL, clientID, clientSecret, redirectURL, code)
	if err != nil {
		return nil, err
	}

	return tokens, nil
}

// RedirectURL builds the callback URL registered with and passed to a
// provider. The provider URL is echoed in the query so the callback leg
// can reverse the lookup without trusting client input; this redirect is
// the only state carried between the two HTTP legs of a login.
func RedirectURL(siteURL, providerURL string) string {
	return strings.TrimRight(siteURL, "/") + "/?openid-connect=" + url.QueryEscape(providerURL)
}
