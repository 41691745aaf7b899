package fiber

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/go-oidc-login/go-oidc-login/internal/logger"
)

func newApp(mw fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Use(mw)

	app.Get("/ok", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/fail", func(_ *fiber.Ctx) error {
		return errors.New("boom")
	})

	return app
}

func TestMiddlewarePassesThrough(t *testing.T) {
	app := newApp(New(Config{Config: logger.Log{}}))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ok", nil), -1)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	if resp.Header.Get("X-Performance") == "" {
		t.Fatal("expected X-Performance header")
	}
}

func TestMiddlewareChainError(t *testing.T) {
	app := newApp(New(Config{Config: logger.Log{}}))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/fail", nil), -1)
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

func TestMiddlewareNextSkips(t *testing.T) {
	skipAll := Config{
		Config: logger.Log{},
		Next:   func(_ *fiber.Ctx) bool { return true },
	}

	app := newApp(New(skipAll))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ok", nil), -1)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.Header.Get("X-Performance") != "" {
		t.Fatal("did not expect X-Performance header when middleware is skipped")
	}
}
