// Package daemon boots the service: database, migrations, seed data,
// session storage and the web service.
package daemon

import (
	"github.com/gofiber/storage"
	sessionmysql "github.com/gofiber/storage/mysql/v2"
	sessionpostgres "github.com/gofiber/storage/postgres/v3"
	"github.com/rs/zerolog/log"
	gormmysql "gorm.io/driver/mysql"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/go-oidc-login/go-oidc-login/internal/config"
	"github.com/go-oidc-login/go-oidc-login/internal/db/dsn"
	"github.com/go-oidc-login/go-oidc-login/internal/db/models"
	"github.com/go-oidc-login/go-oidc-login/internal/web"
	"github.com/go-oidc-login/go-oidc-login/internal/web/session"
)

const sessionTable = "sessions"

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	webService *web.Service
}

// Start starts the Daemon's web service and blocks until shutdown.
func (d *Daemon) Start() error {
	go d.webService.WaitShutdown()

	return d.webService.Start(d.cfg.Webserver.ListenAddr())
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) *Daemon {
	if cfg == nil {
		log.Fatal().Msg("config is nil")
		return nil
	}

	db, err := gorm.Open(openDialector(cfg), &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
		return nil
	}

	if err = db.AutoMigrate(
		&models.User{},
		&models.Setting{},
		&models.ExternalIdentity{},
	); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
		return nil
	}

	seed(cfg, db)

	session.Init(sessionStorage(cfg))

	return &Daemon{
		cfg:        cfg,
		webService: web.New(cfg, db),
	}
}

// openDialector picks the gorm driver for the configured engine.
func openDialector(cfg *config.Config) gorm.Dialector {
	if cfg.DB.GormEngine == config.GormEnginePostgres {
		return gormpostgres.Open(dsn.CreatePostgres(cfg))
	}

	return gormmysql.Open(dsn.Create(cfg))
}

// sessionStorage picks the fiber storage backend for the configured engine.
// Sessions live next to the application data, so one database backup
// covers both.
func sessionStorage(cfg *config.Config) storage.Storage {
	if cfg.DB.GormEngine == config.GormEnginePostgres {
		return sessionpostgres.New(sessionpostgres.Config{
			ConnectionURI: dsn.CreatePostgresURI(cfg),
			Table:         sessionTable,
		})
	}

	return sessionmysql.New(sessionmysql.Config{
		ConnectionURI: dsn.Create(cfg),
		Table:         sessionTable,
	})
}
