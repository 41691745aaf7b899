package provider

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/go-oidc-login/go-oidc-login/internal/config"
	controller "github.com/go-oidc-login/go-oidc-login/internal/db/controller/provider"
	"github.com/go-oidc-login/go-oidc-login/internal/db/models"
)

// noOpViews is a minimal Fiber Views engine used for tests.
type noOpViews struct{}

func (noOpViews) Load() error { return nil }

func (noOpViews) Render(w io.Writer, name string, _ interface{}, _ ...string) error {
	_, _ = io.WriteString(w, name)

	return nil
}

// fakeRegistrar records the candidate list it was asked to reconcile.
type fakeRegistrar struct {
	candidates []string
	recs       []controller.Record
	err        error
}

func (f *fakeRegistrar) SyncProviderList(_ context.Context, candidateURLs []string) ([]controller.Record, error) {
	f.candidates = candidateURLs

	if f.err != nil {
		return nil, f.err
	}

	return f.recs, nil
}

func newTestService(t *testing.T) (*Service, *fiber.App, *fakeRegistrar) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite in-memory db: %v", err)
	}

	if err := db.AutoMigrate(&models.Setting{}); err != nil {
		t.Fatalf("failed to migrate models: %v", err)
	}

	cfg := &config.Config{
		Title: "Go OIDC Login",
		Webserver: config.Webserver{
			URL:     "https://login.example.com",
			Port:    3000,
			Session: config.Session{ExpiryTime: time.Minute},
		},
	}

	app := fiber.New(fiber.Config{Views: noOpViews{}})

	var s Service
	if err := s.Init(app, cfg, db); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	fake := &fakeRegistrar{}
	s.registrar = fake

	return &s, app, fake
}

func TestGet_RendersSettingsPage(t *testing.T) {
	_, app, _ := newTestService(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, Path, nil), -1)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), TemplateName) {
		t.Fatalf("expected settings template rendered, got %q", string(body))
	}
}

func TestPost_SyncsProviderList(t *testing.T) {
	_, app, fake := newTestService(t)
	fake.recs = []controller.Record{
		{ProviderURL: "https://idp-a.example", ClientID: "a", ClientSecret: "sa"},
		{ProviderURL: "https://idp-b.example", ClientID: "b", ClientSecret: "sb"},
	}

	form := url.Values{
		"providers": {"https://idp-a.example\r\nhttps://idp-b.example\r\n"},
	}

	req := httptest.NewRequest(http.MethodPost, Path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", resp.StatusCode)
	}

	var got []string

	for _, candidate := range fake.candidates {
		if c := strings.TrimSpace(candidate); c != "" {
			got = append(got, c)
		}
	}

	want := []string{"https://idp-a.example", "https://idp-b.example"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("expected candidates %v, got %v", want, got)
	}
}

func TestPost_SyncFailure_Returns500(t *testing.T) {
	_, app, fake := newTestService(t)
	fake.err = errors.New("store unavailable")

	form := url.Values{"providers": {"https://idp-a.example"}}

	req := httptest.NewRequest(http.MethodPost, Path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
}

func TestProviderList(t *testing.T) {
	recs := []controller.Record{
		{ProviderURL: "https://idp-a.example"},
		{ProviderURL: "https://idp-b.example"},
	}

	if got := providerList(recs); got != "https://idp-a.example\nhttps://idp-b.example" {
		t.Fatalf("unexpected provider list %q", got)
	}

	if got := providerList(nil); got != "" {
		t.Fatalf("expected empty list, got %q", got)
	}
}
