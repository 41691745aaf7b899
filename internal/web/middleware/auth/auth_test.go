package auth

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage"

	"github.com/go-oidc-login/go-oidc-login/internal/db/models"
	"github.com/go-oidc-login/go-oidc-login/internal/web/handler/login"
	websess "github.com/go-oidc-login/go-oidc-login/internal/web/session"
)

// testStorage is a minimal in-memory implementation of storage.Storage for tests.
type testStorage struct {
	mu   sync.RWMutex
	data map[string][]byte
}

var _ storage.Storage = (*testStorage)(nil)

func (s *testStorage) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v := s.data[key]
	out := make([]byte, len(v))
	copy(out, v)

	return out, nil
}

func (s *testStorage) Set(key string, val []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := make([]byte, len(val))
	copy(buf, val)
	s.data[key] = buf

	return nil
}

func (s *testStorage) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)

	return nil
}

func (s *testStorage) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[string][]byte)

	return nil
}

func (s *testStorage) Close() error { return nil }

func newTestApp() *fiber.App {
	websess.Init(&testStorage{data: make(map[string][]byte)})

	app := fiber.New()
	app.Use(Middleware)

	ok := func(c *fiber.Ctx) error { return c.SendString("ok") }

	app.Get("/", ok)
	app.Get("/dashboard", ok)
	app.Get("/admin/settings/providers", ok)
	app.Get(login.Path, ok)

	return app
}

func loginAs(t *testing.T, user models.User) string {
	t.Helper()

	sessionID, err := websess.GenerateSessionID()
	if err != nil {
		t.Fatalf("failed to generate session ID: %v", err)
	}

	data := &websess.Data{User: user}
	if err := data.Write(sessionID, time.Minute); err != nil {
		t.Fatalf("failed to write session: %v", err)
	}

	return sessionID
}

func performGet(t *testing.T, app *fiber.App, target, sessionID string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: "session", Value: sessionID})
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}

	t.Cleanup(func() { _ = resp.Body.Close() })

	return resp
}

func TestMiddleware_RedirectsAnonymousToLogin(t *testing.T) {
	app := newTestApp()

	resp := performGet(t, app, "/dashboard", "")

	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302 Found, got %d", resp.StatusCode)
	}

	if loc := resp.Header.Get("Location"); loc != login.Path {
		t.Fatalf("expected redirect to %s, got %s", login.Path, loc)
	}
}

func TestMiddleware_AllowsLoginPage(t *testing.T) {
	app := newTestApp()

	resp := performGet(t, app, login.Path, "")

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", resp.StatusCode)
	}
}

func TestMiddleware_AllowsOpenIDConnectLegs(t *testing.T) {
	app := newTestApp()

	// both login legs arrive on the root path without a session
	resp := performGet(t, app, "/?openid-connect=https%3A%2F%2Fidp-a.example", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 OK for initiate leg, got %d", resp.StatusCode)
	}

	resp = performGet(t, app,
		"/?openid-connect=https%3A%2F%2Fidp-a.example&code=c&state=s", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 OK for callback leg, got %d", resp.StatusCode)
	}

	// the bare root path stays guarded
	resp = performGet(t, app, "/", "")
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302 Found for bare root, got %d", resp.StatusCode)
	}
}

func TestMiddleware_AllowsAuthenticatedUser(t *testing.T) {
	app := newTestApp()

	sessionID := loginAs(t, models.User{ID: 1, Active: true, Username: "jo"})

	resp := performGet(t, app, "/dashboard", sessionID)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", resp.StatusCode)
	}
}

func TestMiddleware_RedirectsLoggedInUserOffLoginPage(t *testing.T) {
	app := newTestApp()

	sessionID := loginAs(t, models.User{ID: 1, Active: true, Username: "jo"})

	resp := performGet(t, app, login.Path, sessionID)
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302 Found, got %d", resp.StatusCode)
	}

	if loc := resp.Header.Get("Location"); loc != "/dashboard" {
		t.Fatalf("expected redirect to /dashboard, got %s", loc)
	}
}

func TestMiddleware_AdminGate(t *testing.T) {
	app := newTestApp()

	userSession := loginAs(t, models.User{ID: 2, Active: true, Username: "jo"})

	resp := performGet(t, app, "/admin/settings/providers", userSession)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 Forbidden for non-admin, got %d", resp.StatusCode)
	}

	adminSession := loginAs(t, models.User{ID: 3, Active: true, Username: "root", Admin: true})

	resp = performGet(t, app, "/admin/settings/providers", adminSession)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 OK for admin, got %d", resp.StatusCode)
	}
}
