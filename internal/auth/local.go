package auth

import (
	"errors"

	"gorm.io/gorm"

	"github.com/go-oidc-login/go-oidc-login/internal/db/models"
)

// AuthenticateLocal verifies a username/password pair against the local
// user table. OIDC-provisioned accounts hold a random password, so they
// can never pass this check.
func AuthenticateLocal(db *gorm.DB, username, password string) (*models.User, error) {
	var user models.User

	err := db.Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}

		return nil, err
	}

	if !user.VerifyPassword(password) {
		return nil, ErrInvalidPassword
	}

	if !user.Active {
		return nil, ErrUserAccountDisabled
	}

	return &user, nil
}
