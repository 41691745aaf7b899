package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-oidc-login/go-oidc-login/internal/db/models"
)

func TestAuthenticateLocal(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, db.Create(&models.User{
		Active:   true,
		Username: "admin",
		Password: models.HashPassword("changeme"),
		Admin:    true,
	}).Error)

	require.NoError(t, db.Create(&models.User{
		Active:   false,
		Username: "retired",
		Password: models.HashPassword("changeme"),
	}).Error)

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{name: "valid credentials", username: "admin", password: "changeme"},
		{name: "wrong password", username: "admin", password: "nope", wantErr: ErrInvalidPassword},
		{name: "unknown user", username: "ghost", password: "changeme", wantErr: ErrUserNotFound},
		{name: "disabled account", username: "retired", password: "changeme", wantErr: ErrUserAccountDisabled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := AuthenticateLocal(db, tt.username, tt.password)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.username, user.Username)
		})
	}
}
