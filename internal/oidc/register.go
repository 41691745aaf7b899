package oidc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// registrationRequest is the RFC 7591 dynamic client registration payload.
type registrationRequest struct {
	RedirectURIs            []string `json:"redirect_uris"`
	ClientName              string   `json:"client_name"`
	TokenEndpointAuthMethod string   `json:"token_endpoint_auth_method"`
}

// registrationResponse carries the credentials minted by the provider.
type registrationResponse struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// Register performs OIDC dynamic client registration against the provider
// and returns the minted client credentials. The caller persists them; this
// call has no side effect beyond the network request.
func (c *Client) Register(
	ctx context.Context,
	providerURL, redirectURL, clientName string,
) (clientID, clientSecret string, err error) {
	_, endpoints, err := c.Discover(ctx, providerURL)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrRegistration, err)
	}

	if endpoints.RegistrationEndpoint == "" {
		return "", "", fmt.Errorf("%w: %w", ErrRegistration, ErrNoRegistrationEndpoint)
	}

	payload, err := json.Marshal(registrationRequest{
		RedirectURIs:            []string{redirectURL},
		ClientName:              clientName,
		TokenEndpointAuthMethod: "client_secret_post",
	})
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrRegistration, err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		endpoints.RegistrationEndpoint,
		bytes.NewReader(payload),
	)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrRegistration, err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrRegistration, classifyTimeout(err))
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) //nolint:mnd // 1 MiB response cap
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrRegistration, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", "", fmt.Errorf("%w: registration endpoint returned %s", ErrRegistration, resp.Status)
	}

	var reg registrationResponse
	if err := json.Unmarshal(body, &reg); err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrRegistration, err)
	}

	if reg.ClientID == "" || reg.ClientSecret == "" {
		return "", "", fmt.Errorf("%w: response carries no client credentials", ErrRegistration)
	}

	return reg.ClientID, reg.ClientSecret, nil
}
