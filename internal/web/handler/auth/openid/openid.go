package openid

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/go-oidc-login/go-oidc-login/internal/auth"
	"github.com/go-oidc-login/go-oidc-login/internal/config"
	"github.com/go-oidc-login/go-oidc-login/internal/db/controller/provider"
	"github.com/go-oidc-login/go-oidc-login/internal/db/models"
	"github.com/go-oidc-login/go-oidc-login/internal/oidc"
	"github.com/go-oidc-login/go-oidc-login/internal/web/handler"
	"github.com/go-oidc-login/go-oidc-login/internal/web/session"
)

const (
	// QueryParam carries the url-encoded provider URL on both login legs.
	QueryParam = "openid-connect"

	// genericDenial is the only message shown for a refused login. One
	// message for unknown providers and protocol failures alike, so the
	// approved provider list cannot be enumerated.
	genericDenial = "Authentication failed"
)

// flowController drives the two login legs. Satisfied by *auth.Flow.
type flowController interface {
	Initiate(ctx context.Context, providerURL, state string) (string, error)
	Complete(ctx context.Context, providerURL, code string) (*auth.Identity, error)
}

// identityLinker resolves an identity to a local user. Satisfied by *auth.Linker.
type identityLinker interface {
	ResolveAndLogin(identity *auth.Identity) (*models.User, error)
}

// Service is the OpenID Connect login handler service.
type Service struct {
	handler.Service
	cfg    *config.Config
	db     *gorm.DB
	flow   flowController
	linker identityLinker
	states *auth.StateStore
}

// Handler is the OpenID Connect login handler.
var Handler = Service{}

// Init initializes the OpenID Connect login handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.db = db

	client := oidc.NewClient(cfg.OIDC.RequestTimeout)

	if cfg.OIDC.ProxyURL != "" {
		if err := client.SetHTTPProxy(cfg.OIDC.ProxyURL); err != nil {
			return err
		}

		log.Info().Str("proxy", cfg.OIDC.ProxyURL).Msg("provider calls routed through forward proxy")
	}

	store := provider.NewStore(db)

	s.flow = auth.NewFlow(store, client, cfg.Webserver.URL)
	s.linker = auth.NewLinker(auth.NewDBDirectory(db))
	s.states = auth.NewStateStore(0)

	app.Get(handler.RootPath, s.Root)

	return nil
}

// Root serves the root path. Without the openid-connect parameter it is
// a plain redirect to the dashboard; with it, it is one of the two login
// legs, told apart by the presence of the authorization code.
func (s *Service) Root(c *fiber.Ctx) error {
	providerURL := c.Query(QueryParam)
	if providerURL == "" {
		return c.Redirect("/dashboard")
	}

	code := c.Query("code")
	if code == "" {
		return s.initiate(c, providerURL)
	}

	return s.complete(c, providerURL, code)
}

// initiate mints a state token and redirects the browser to the
// provider's authorization endpoint.
func (s *Service) initiate(c *fiber.Ctx, providerURL string) error {
	state := s.states.Issue()

	authURL, err := s.flow.Initiate(context.Background(), providerURL, state)
	if err != nil {
		// discard the token so refused requests cannot grow the state store
		s.states.Consume(state)

		if errors.Is(err, auth.ErrUnknownProvider) {
			log.Warn().Str("provider", providerURL).Msg("login attempt for unapproved provider")
		} else {
			log.Error().Err(err).Str("provider", providerURL).Msg("failed to initiate login")
		}

		return c.Status(fiber.StatusUnauthorized).SendString(genericDenial)
	}

	return c.Redirect(authURL)
}

// complete consumes the state token, exchanges the code and logs the
// resolved local user in.
func (s *Service) complete(c *fiber.Ctx, providerURL, code string) error {
	state := c.Query("state")
	if state == "" || !s.states.Consume(state) {
		log.Warn().Str("provider", providerURL).Msg("callback with missing or invalid state token")

		return c.Status(fiber.StatusBadRequest).SendString("Invalid state token")
	}

	identity, err := s.flow.Complete(context.Background(), providerURL, code)
	if err != nil {
		if errors.Is(err, auth.ErrUnknownProvider) {
			log.Warn().Str("provider", providerURL).Msg("callback for unapproved provider")
		} else {
			log.Error().Err(err).Str("provider", providerURL).Msg("login callback failed")
		}

		return c.Status(fiber.StatusUnauthorized).SendString(genericDenial)
	}

	user, err := s.linker.ResolveAndLogin(identity)
	if err != nil {
		log.Error().Err(err).Str("provider", providerURL).Msg("failed to link identity to a local account")

		return c.Status(fiber.StatusUnauthorized).SendString(genericDenial)
	}

	sessionID, err := session.GenerateSessionID()
	if err != nil {
		log.Error().Err(err).Msg("failed to generate session ID")

		return c.Status(fiber.StatusInternalServerError).SendString("Internal server error")
	}

	userSession := &session.Data{User: *user}
	if err = userSession.Write(sessionID, s.cfg.Webserver.Session.ExpiryTime); err != nil {
		log.Error().Err(err).Msg("failed to write session")

		return c.Status(fiber.StatusInternalServerError).SendString("Internal server error")
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

	log.Info().
		Str("username", user.Username).
		Str("provider", providerURL).
		Msg("user logged in via OpenID Connect")

	return c.Redirect("/dashboard")
}
