package auth

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/go-oidc-login/go-oidc-login/internal/db/models"
)

// Directory is the host user directory the linker resolves accounts
// against. Absent lookups return (nil, nil), not an error.
type Directory interface {
	FindByEmail(email string) (*models.User, error)
	FindByExternalMarker(marker string) (*models.User, error)
	CreateAccount(username, email, givenName, familyName string) (*models.User, error)
	AttachExternalMarker(userID uint64, marker string) error
}

// DBDirectory backs Directory with the users and external_identities tables.
type DBDirectory struct {
	db *gorm.DB
}

// NewDBDirectory creates a directory on the given database.
func NewDBDirectory(db *gorm.DB) *DBDirectory {
	return &DBDirectory{db: db}
}

// FindByEmail returns the account holding the given email address.
func (d *DBDirectory) FindByEmail(email string) (*models.User, error) {
	var user models.User

	err := d.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		return nil, fmt.Errorf("looking up user by email: %w", err)
	}

	return &user, nil
}

// FindByExternalMarker returns the account the given external identity
// marker is attached to.
func (d *DBDirectory) FindByExternalMarker(marker string) (*models.User, error) {
	var ident models.ExternalIdentity

	err := d.db.Preload("User").Where("marker = ?", marker).First(&ident).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		return nil, fmt.Errorf("looking up external identity: %w", err)
	}

	return &ident.User, nil
}

// CreateAccount provisions a local account for a remote identity. The
// account gets a random local password so it can never be entered through
// the password form.
func (d *DBDirectory) CreateAccount(username, email, givenName, familyName string) (*models.User, error) {
	user := models.User{
		Active:     true,
		Username:   username,
		Email:      email,
		Password:   models.HashPassword(randomPassword()),
		FirstName:  givenName,
		LastName:   familyName,
		AuthSource: models.AuthSourceOIDC,
	}

	if err := d.db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("creating account: %w", err)
	}

	return &user, nil
}

// AttachExternalMarker records the marker against the account. Attaching
// an already-recorded marker is a no-op, so an external identity is bound
// to at most one account.
func (d *DBDirectory) AttachExternalMarker(userID uint64, marker string) error {
	ident := models.ExternalIdentity{Marker: marker, UserID: userID}

	err := d.db.Where(models.ExternalIdentity{Marker: marker}).FirstOrCreate(&ident).Error
	if err != nil {
		return fmt.Errorf("attaching external identity: %w", err)
	}

	return nil
}
