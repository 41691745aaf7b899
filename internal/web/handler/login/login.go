// Package login serves the login page: local password login plus one
// button per approved OpenID Connect provider.
package login

import (
	"errors"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/go-oidc-login/go-oidc-login/internal/auth"
	"github.com/go-oidc-login/go-oidc-login/internal/config"
	"github.com/go-oidc-login/go-oidc-login/internal/db/controller/provider"
	"github.com/go-oidc-login/go-oidc-login/internal/web/handler"
	"github.com/go-oidc-login/go-oidc-login/internal/web/session"
)

const (
	// Path is the path to the login page.
	Path = "/login"

	// TemplateName is the name of the login template.
	TemplateName = "login"
)

// ProviderButton is one provider login button on the page.
type ProviderButton struct {
	ProviderURL string
	LoginURL    string
}

// Service is the login handler service.
type Service struct {
	handler.Service
	cfg   *config.Config
	db    *gorm.DB
	store *provider.Store
}

// Handler is the login handler.
var Handler = Service{}

// Init initializes the login handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.db = db
	s.cfg = cfg
	s.store = provider.NewStore(db)

	// register routes
	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RootPath, s.Get)
		router.Post(handler.RootPath, s.Post)
	})

	return nil
}

// Get handles the login page rendering.
func (s *Service) Get(c *fiber.Ctx) error {
	return s.render(c, "")
}

// Post handles the local login form submission.
func (s *Service) Post(c *fiber.Ctx) error {
	form := struct {
		Username string `form:"username"`
		Password string `form:"password"`
	}{}

	if err := c.BodyParser(&form); err != nil {
		return s.render(c, ErrInvalidFormData.Error())
	}

	user, err := auth.AuthenticateLocal(s.db, form.Username, form.Password)
	if err != nil {
		if errors.Is(err, auth.ErrUserAccountDisabled) {
			return s.render(c, ErrAccountDisabled.Error())
		}

		return s.render(c, ErrInvalidCredentials.Error())
	}

	sessionID, err := session.GenerateSessionID()
	if err != nil {
		log.Error().Err(err).Msg("failed to generate session ID")

		return s.render(c, "Internal server error")
	}

	userSession := &session.Data{User: *user}
	if err = userSession.Write(sessionID, s.cfg.Webserver.Session.ExpiryTime); err != nil {
		log.Error().Err(err).Msg("failed to write session")

		return s.render(c, "Internal server error")
	}

	cookieSettings := &fiber.Cookie{
		Name:     handler.SessionCookieName,
		Value:    sessionID,
		MaxAge:   int(s.cfg.Webserver.Session.ExpiryTime.Seconds()),
		Secure:   true,
		HTTPOnly: true,
		SameSite: "Lax",
	}

	if s.cfg.DevMode {
		cookieSettings.Secure = false
	}

	c.Cookie(cookieSettings)

	log.Info().Str("username", user.Username).Msg("user logged in with local password")

	return c.Redirect("/dashboard")
}

// render draws the login page with the current provider buttons and an
// optional error message.
func (s *Service) render(c *fiber.Ctx, errorMessage string) error {
	buttons := s.providerButtons()

	data := fiber.Map{
		"Title":     s.cfg.Title,
		"Providers": buttons,
	}

	if errorMessage != "" {
		data["error"] = errorMessage
	}

	return c.Render(TemplateName, data)
}

func (s *Service) providerButtons() []ProviderButton {
	recs, err := s.store.List()
	if err != nil {
		log.Error().Err(err).Msg("failed to list providers for login page")

		return nil
	}

	buttons := make([]ProviderButton, 0, len(recs))
	for _, rec := range recs {
		buttons = append(buttons, ProviderButton{
			ProviderURL: rec.ProviderURL,
			LoginURL:    "/?openid-connect=" + url.QueryEscape(rec.ProviderURL),
		})
	}

	return buttons
}
