// Package provider serves the administration page for the approved
// OpenID Connect provider list.
package provider

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/go-oidc-login/go-oidc-login/internal/auth"
	"github.com/go-oidc-login/go-oidc-login/internal/config"
	controller "github.com/go-oidc-login/go-oidc-login/internal/db/controller/provider"
	"github.com/go-oidc-login/go-oidc-login/internal/oidc"
	"github.com/go-oidc-login/go-oidc-login/internal/web/handler"
	"github.com/go-oidc-login/go-oidc-login/internal/web/navigation"
)

const (
	// Path is the path to the provider settings page.
	Path = handler.RootPath + "admin/settings/providers"

	// TemplateName is the name of the provider settings template.
	TemplateName = "admin/settings/providers"
)

// registrar reconciles the approved provider set. Satisfied by *auth.Registrar.
type registrar interface {
	SyncProviderList(ctx context.Context, candidateURLs []string) ([]controller.Record, error)
}

// Service is the provider settings handler service.
type Service struct {
	handler.Service
	cfg       *config.Config
	db        *gorm.DB
	store     *controller.Store
	registrar registrar
	validator *validator.Validate
}

// Handler is the provider settings handler.
var Handler = Service{}

// Init initializes the provider settings handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.db = db
	s.cfg = cfg
	s.validator = validator.New()
	s.store = controller.NewStore(db)

	client := oidc.NewClient(cfg.OIDC.RequestTimeout)

	if cfg.OIDC.ProxyURL != "" {
		if err := client.SetHTTPProxy(cfg.OIDC.ProxyURL); err != nil {
			return err
		}
	}

	s.registrar = auth.NewRegistrar(
		s.store, client, cfg.Webserver.URL, clientName(cfg))

	// register routes; the auth middleware gates /admin to admins
	app.Get(Path, s.Get)
	app.Post(Path, s.Post)

	return nil
}

// clientName is the relying-party name shown to providers during
// dynamic client registration.
func clientName(cfg *config.Config) string {
	name := cfg.OIDC.ClientName
	if name == "" {
		name = cfg.Title
	}

	return name
}

// Get handles the provider settings page rendering.
func (s *Service) Get(c *fiber.Ctx) error {
	recs, err := s.store.List()
	if err != nil {
		log.Error().Err(err).Msg("failed to load provider settings")

		return c.Status(fiber.StatusInternalServerError).SendString("Failed to load settings")
	}

	return c.Render(TemplateName, fiber.Map{
		"Navigation":   s.nav(),
		"ProviderList": providerList(recs),
		"Providers":    recs,
	}, handler.BaseLayout)
}

// Post handles the provider settings form submission: the textarea holds
// the full desired provider list, one URL per line.
func (s *Service) Post(c *fiber.Ctx) error {
	form := struct {
		Providers string `form:"providers"`
	}{}

	if err := c.BodyParser(&form); err != nil {
		log.Error().Err(err).Msg("failed to parse provider settings form")

		return c.Status(fiber.StatusBadRequest).Render(TemplateName, fiber.Map{
			"Navigation": s.nav(),
			"Error":      "Invalid form data",
		}, handler.BaseLayout)
	}

	candidates := strings.Split(strings.ReplaceAll(form.Providers, "\r\n", "\n"), "\n")

	var skipped []string

	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}

		if err := s.validator.Var(candidate, "url"); err != nil {
			skipped = append(skipped, candidate)
		}
	}

	recs, err := s.registrar.SyncProviderList(context.Background(), candidates)
	if err != nil {
		log.Error().Err(err).Msg("failed to sync provider list")

		return c.Status(fiber.StatusInternalServerError).Render(TemplateName, fiber.Map{
			"Navigation":   s.nav(),
			"ProviderList": form.Providers,
			"Error":        "Failed to save settings",
		}, handler.BaseLayout)
	}

	// registration failures are also skips: desired minus final set
	final := make(map[string]bool, len(recs))
	for _, rec := range recs {
		final[rec.ProviderURL] = true
	}

	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate != "" && !final[candidate] && !contains(skipped, candidate) {
			skipped = append(skipped, candidate)
		}
	}

	log.Info().
		Int("approved", len(recs)).
		Int("skipped", len(skipped)).
		Msg("provider list saved")

	return c.Render(TemplateName, fiber.Map{
		"Navigation":   s.nav(),
		"ProviderList": providerList(recs),
		"Providers":    recs,
		"Skipped":      skipped,
		"Success":      "Settings saved",
	}, handler.BaseLayout)
}

func (s *Service) nav() *navigation.Context {
	return navigation.NewContext("OpenID Connect Providers", "settings", "providers").
		AddBreadcrumb("Home", "/dashboard", false).
		AddBreadcrumb("Settings", "#", false).
		AddBreadcrumb("Providers", Path, true)
}

// providerList renders the approved set back into textarea form.
func providerList(recs []controller.Record) string {
	urls := make([]string, 0, len(recs))
	for _, rec := range recs {
		urls = append(urls, rec.ProviderURL)
	}

	return strings.Join(urls, "\n")
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}

	return false
}
