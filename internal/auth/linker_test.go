package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/go-oidc-login/go-oidc-login/internal/db/models"
)

func countUsers(t *testing.T, db *gorm.DB) int64 {
	t.Helper()

	var n int64
	require.NoError(t, db.Model(&models.User{}).Count(&n).Error)

	return n
}

func countMarkers(t *testing.T, db *gorm.DB) int64 {
	t.Helper()

	var n int64
	require.NoError(t, db.Model(&models.ExternalIdentity{}).Count(&n).Error)

	return n
}

func TestResolveAndLoginVerifiedEmailMatch(t *testing.T) {
	db := setupTestDB(t)
	linker := NewLinker(NewDBDirectory(db))

	existing := models.User{
		Active:   true,
		Username: "jo",
		Email:    "jo@example.com",
		Password: models.HashPassword("irrelevant"),
	}
	require.NoError(t, db.Create(&existing).Error)

	user, err := linker.ResolveAndLogin(&Identity{
		ProviderURL:   "https://idp-a.example",
		Subject:       "user-1",
		Email:         "jo@example.com",
		EmailVerified: true,
	})
	require.NoError(t, err)

	assert.Equal(t, existing.ID, user.ID)
	assert.EqualValues(t, 1, countUsers(t, db), "no account created for an email match")
}

func TestResolveAndLoginCreatesAccountOnce(t *testing.T) {
	db := setupTestDB(t)
	linker := NewLinker(NewDBDirectory(db))

	identity := &Identity{
		ProviderURL:   "https://idp-a.example",
		Subject:       "user-1",
		Email:         "jo@example.com",
		EmailVerified: false,
		GivenName:     "Jo",
		FamilyName:    "Doe",
	}

	first, err := linker.ResolveAndLogin(identity)
	require.NoError(t, err)

	assert.EqualValues(t, 1, countUsers(t, db))
	assert.EqualValues(t, 1, countMarkers(t, db))
	assert.Equal(t, models.AuthSourceOIDC, first.AuthSource)
	assert.Empty(t, first.Email, "an unverified email must never be attached")
	assert.Equal(t, "Jo", first.FirstName)
	assert.Equal(t, "Doe", first.LastName)

	second, err := linker.ResolveAndLogin(identity)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.EqualValues(t, 1, countUsers(t, db), "repeat login must not create a second account")
	assert.EqualValues(t, 1, countMarkers(t, db))
}

func TestResolveAndLoginKeepsVerifiedEmail(t *testing.T) {
	db := setupTestDB(t)
	linker := NewLinker(NewDBDirectory(db))

	user, err := linker.ResolveAndLogin(&Identity{
		ProviderURL:   "https://idp-a.example",
		Subject:       "user-2",
		Email:         "new@example.com",
		EmailVerified: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "new@example.com", user.Email)
}

func TestResolveAndLoginAttachesMarkerToEmailMatch(t *testing.T) {
	db := setupTestDB(t)
	linker := NewLinker(NewDBDirectory(db))

	existing := models.User{Active: true, Username: "jo", Email: "jo@example.com"}
	require.NoError(t, db.Create(&existing).Error)

	_, err := linker.ResolveAndLogin(&Identity{
		ProviderURL:   "https://idp-a.example",
		Subject:       "user-1",
		Email:         "jo@example.com",
		EmailVerified: true,
	})
	require.NoError(t, err)

	// later logins must resolve even if the provider stops asserting the email
	user, err := linker.ResolveAndLogin(&Identity{
		ProviderURL: "https://idp-a.example",
		Subject:     "user-1",
	})
	require.NoError(t, err)

	assert.Equal(t, existing.ID, user.ID)
	assert.EqualValues(t, 1, countMarkers(t, db))
}

func TestResolveAndLoginMissingSubject(t *testing.T) {
	linker := NewLinker(NewDBDirectory(setupTestDB(t)))

	_, err := linker.ResolveAndLogin(&Identity{ProviderURL: "https://idp-a.example"})
	require.ErrorIs(t, err, ErrIdentityLink)
}

func TestResolveAndLoginDisabledAccount(t *testing.T) {
	db := setupTestDB(t)
	linker := NewLinker(NewDBDirectory(db))

	disabled := models.User{Active: false, Username: "gone", Email: "gone@example.com"}
	require.NoError(t, db.Create(&disabled).Error)

	_, err := linker.ResolveAndLogin(&Identity{
		ProviderURL:   "https://idp-a.example",
		Subject:       "user-9",
		Email:         "gone@example.com",
		EmailVerified: true,
	})
	require.ErrorIs(t, err, ErrIdentityLink)
	require.ErrorIs(t, err, ErrUserAccountDisabled)
}

func TestUsernameFromMarker(t *testing.T) {
	tests := []struct {
		name   string
		marker string
		want   string
	}{
		{
			name:   "lowercased and sanitized",
			marker: "User-1@https://idp-a.example",
			want:   "user-1-https---idp-a.example",
		},
		{
			name:   "truncated to sixty",
			marker: "subject-with-a-very-long-identifier@https://identity.some-enterprise.example.com/realms/main",
			want:   "subject-with-a-very-long-identifier-https---identity.some-en",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := usernameFromMarker(tt.marker)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len(got), maxUsernameLen)
		})
	}
}
