package auth

import (
	"context"
	"net/url"

	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/go-oidc-login/go-oidc-login/internal/db/controller/provider"
	"github.com/go-oidc-login/go-oidc-login/internal/db/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	require.NoError(t,
		db.AutoMigrate(&models.Setting{}, &models.User{}, &models.ExternalIdentity{}),
		"failed to migrate test database")

	return db
}

// fakeProtocol stands in for the OIDC wire client so flow and registrar
// behavior is testable without a network.
type fakeProtocol struct {
	registerCalls int
	failRegister  map[string]error
	onRegister    func(providerURL string)

	exchangeCalls int
	exchangeErr   error
	claims        mapClaims
}

func (p *fakeProtocol) Register(
	_ context.Context, providerURL, _, _ string,
) (string, string, error) {
	p.registerCalls++

	if p.onRegister != nil {
		p.onRegister(providerURL)
	}

	if err, ok := p.failRegister[providerURL]; ok {
		return "", "", err
	}

	return "id-for-" + providerURL, "secret-for-" + providerURL, nil
}

func (p *fakeProtocol) AuthCodeURL(
	_ context.Context, providerURL, clientID, redirectURL, state string,
) (string, error) {
	return providerURL + "/authorize?client_id=" + url.QueryEscape(clientID) +
		"&redirect_uri=" + url.QueryEscape(redirectURL) +
		"&state=" + url.QueryEscape(state), nil
}

func (p *fakeProtocol) Exchange(
	_ context.Context, _, _, _, _, _ string,
) (ClaimSource, error) {
	p.exchangeCalls++

	if p.exchangeErr != nil {
		return nil, p.exchangeErr
	}

	return p.claims, nil
}

// mapClaims is a ClaimSource over a plain map.
type mapClaims map[string]any

func (m mapClaims) StringClaim(_ context.Context, name string) (string, bool, error) {
	v, ok := m[name]
	if !ok {
		return "", false, nil
	}

	s, ok := v.(string)

	return s, ok, nil
}

func (m mapClaims) BoolClaim(_ context.Context, name string) (bool, bool, error) {
	v, ok := m[name]
	if !ok {
		return false, false, nil
	}

	b, ok := v.(bool)

	return b, ok, nil
}

func newTestRegistrar(t *testing.T, protocol Protocol) (*Registrar, *provider.Store) {
	t.Helper()

	store := provider.NewStore(setupTestDB(t))

	return &Registrar{
		store:      store,
		protocol:   protocol,
		siteURL:    "https://login.example.com",
		clientName: "(Go OIDC Login) Example",
		validate:   validator.New(),
	}, store
}

func newTestFlow(store *provider.Store, protocol Protocol) *Flow {
	return &Flow{
		store:    store,
		protocol: protocol,
		siteURL:  "https://login.example.com",
	}
}
