package daemon

import (
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/go-oidc-login/go-oidc-login/internal/config"
	"github.com/go-oidc-login/go-oidc-login/internal/db/models"
)

// seed creates the initial admin account on an empty user table, so the
// instance can be administered before any provider is approved.
func seed(_ *config.Config, db *gorm.DB) {
	var count int64

	db.Model(&models.User{}).Count(&count)

	if count == 0 {
		db.Create(
			&models.User{
				Username:   "admin",
				Password:   models.HashPassword("changeme"),
				Active:     true,
				Admin:      true,
				AuthSource: models.AuthSourceLocal,
			},
		)

		log.Warn().Msg("seeded default admin user with password 'changeme', change it after first login")
	}
}
