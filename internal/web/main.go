// Package web wires the fiber application: templates, static assets,
// middleware and the handler services.
package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/template/html/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/go-oidc-login/go-oidc-login/internal/config"
	fiberlogger "github.com/go-oidc-login/go-oidc-login/internal/logger/adapter/fiber"
	providersettings "github.com/go-oidc-login/go-oidc-login/internal/web/handler/admin/settings/provider"
	"github.com/go-oidc-login/go-oidc-login/internal/web/handler/auth/openid"
	"github.com/go-oidc-login/go-oidc-login/internal/web/handler/dashboard"
	"github.com/go-oidc-login/go-oidc-login/internal/web/handler/login"
	"github.com/go-oidc-login/go-oidc-login/internal/web/handler/logout"
	"github.com/go-oidc-login/go-oidc-login/internal/web/middleware/auth"
)

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
	db           *gorm.DB
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown waits for graceful shutdown of the web service.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: stop reporting alive first so
	// the LB removes this instance before connections are dropped.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: waiting %d seconds before closing the listener",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		err := s.App.Shutdown()
		if err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

// New creates a new web service with the given configuration.
func New(cfg *config.Config, db *gorm.DB) *Service {
	if cfg == nil {
		panic("config cannot be nil")
	}

	if db == nil {
		panic("db cannot be nil")
	}

	httpFS := http.FS(templateEmbedFS{embeddedTemplates})
	templateEngine := html.NewFileSystem(httpFS, ".gohtml")

	// in dev mode, use local filesystem for templates
	if cfg.DevMode {
		templateEngine = html.New("./internal/web/templates", ".gohtml")
		templateEngine.ShouldReload = true

		log.Warn().Msg("dev mode enabled: using local filesystem for templates")
	}

	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        cfg.Title,
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
			Views:          templateEngine,
		},
	)

	// access logging
	app.Use(fiberlogger.New(fiberlogger.Config{Config: cfg.Log}))

	// serve embedded static files
	app.Use("/static",
		filesystem.New(
			filesystem.Config{
				Root:       http.FS(embeddedStaticFiles),
				PathPrefix: "static",
			},
		),
	)

	// session auth middleware
	app.Use(auth.Middleware)

	service := &Service{
		cfg: cfg,
		App: app,
		db:  db,
	}

	// init handlers (they register their own routes)
	initHandlers(app, cfg, db)

	return service
}

func initHandlers(app *fiber.App, cfg *config.Config, db *gorm.DB) {
	if err := login.Handler.Init(app, cfg, db); err != nil {
		log.Fatal().Err(err).Msg("failed to init login handler")
	}

	if err := logout.Handler.Init(app, cfg); err != nil {
		log.Fatal().Err(err).Msg("failed to init logout handler")
	}

	if err := dashboard.Handler.Init(app, cfg, db); err != nil {
		log.Fatal().Err(err).Msg("failed to init dashboard handler")
	}

	if err := providersettings.Handler.Init(app, cfg, db); err != nil {
		log.Fatal().Err(err).Msg("failed to init provider settings handler")
	}

	// the openid handler owns the root path: OIDC entry/callback legs,
	// plain requests redirect to the dashboard
	if err := openid.Handler.Init(app, cfg, db); err != nil {
		log.Fatal().Err(err).Msg("failed to init openid handler")
	}
}
