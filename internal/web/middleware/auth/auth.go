package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/go-oidc-login/go-oidc-login/internal/web/handler"
	"github.com/go-oidc-login/go-oidc-login/internal/web/handler/login"
	"github.com/go-oidc-login/go-oidc-login/internal/web/session"
)

// CurrentUserKey is the fiber.Locals key holding the logged-in user.
const CurrentUserKey = "CurrentUser"

// Middleware is a Fiber middleware that checks for user authentication.
// The login and logout pages, static assets and the OpenID Connect
// entry/callback URL stay reachable without a session; everything else
// redirects to the login page. Paths under /admin additionally require
// the admin flag.
func Middleware(c *fiber.Ctx) error {
	var (
		isLoginPage   = IsLoginPage(c)
		sessDataValid bool
	)

	originalURL := strings.ToLower(c.OriginalURL())
	if strings.HasPrefix(originalURL, "/static") {
		return c.Next()
	}

	if IsLogoutPage(c) {
		return c.Next()
	}

	// the two legs of an OIDC login arrive without a session
	if IsOpenIDConnect(c) {
		return c.Next()
	}

	sessionID := c.Cookies(handler.SessionCookieName)
	if sessionID == "" && !isLoginPage {
		return c.Redirect(login.Path)
	}

	sessData := new(session.Data)
	if err := sessData.Read(sessionID); err != nil {
		// already on the login page: don't redirect, that would loop
		if isLoginPage {
			return c.Next()
		}

		return c.Redirect(login.Path)
	}

	if sessData.User.ID > 0 {
		sessDataValid = true

		c.Locals(CurrentUserKey, sessData.User)
	}

	if sessDataValid && isLoginPage {
		return c.Redirect("/dashboard")
	}

	if strings.HasPrefix(originalURL, "/admin") && !sessData.User.Admin {
		return c.Status(fiber.StatusForbidden).SendString("Forbidden")
	}

	return c.Next()
}

// IsLoginPage checks if the current request is for the login page.
func IsLoginPage(c *fiber.Ctx) bool {
	return strings.HasPrefix(strings.ToLower(c.OriginalURL()), login.Path)
}

// IsLogoutPage checks if the current request is for the logout page.
func IsLogoutPage(c *fiber.Ctx) bool {
	return strings.HasPrefix(strings.ToLower(c.OriginalURL()), "/logout")
}

// IsOpenIDConnect checks if the current request is an OIDC initiate or
// callback leg on the root path.
func IsOpenIDConnect(c *fiber.Ctx) bool {
	return c.Path() == "/" && c.Query("openid-connect") != ""
}
