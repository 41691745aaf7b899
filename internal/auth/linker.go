package auth

import (
	"fmt"
	"strings"

	"github.com/go-oidc-login/go-oidc-login/internal/db/models"
	"github.com/go-oidc-login/go-oidc-login/internal/uniuri"
)

const (
	// maxUsernameLen bounds usernames derived from external markers.
	maxUsernameLen = 60

	randomPasswordLen = 48
)

// Linker maps a verified remote identity to a local account, creating one
// on first login.
type Linker struct {
	directory Directory
}

// NewLinker creates a linker on the given user directory.
func NewLinker(directory Directory) *Linker {
	return &Linker{directory: directory}
}

// Marker is the stored external-identity key for a subject at a provider.
// The subject is unique per issuer, so the pair is unique across all
// approved providers.
func Marker(subject, providerURL string) string {
	return subject + "@" + providerURL
}

// ResolveAndLogin maps the identity to a local account: by verified email
// first, then by stored external marker, else by creating a new account.
// An unverified email is discarded and never attached to a new account;
// creation with an empty email is allowed. The external marker is attached
// to the resolved account either way, so later logins succeed even if the
// provider stops asserting a verified email.
//
// Session establishment is the caller's job; this returns the local user.
func (l *Linker) ResolveAndLogin(identity *Identity) (*models.User, error) {
	if identity == nil || identity.Subject == "" {
		return nil, fmt.Errorf("%w: no subject", ErrIdentityLink)
	}

	marker := Marker(identity.Subject, identity.ProviderURL)

	var (
		user *models.User
		err  error
	)

	if identity.EmailVerified && identity.Email != "" {
		user, err = l.directory.FindByEmail(identity.Email)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrIdentityLink, err)
		}
	}

	if user == nil {
		user, err = l.directory.FindByExternalMarker(marker)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrIdentityLink, err)
		}
	}

	if user == nil {
		email := ""
		if identity.EmailVerified {
			email = identity.Email
		}

		user, err = l.directory.CreateAccount(
			usernameFromMarker(marker), email, identity.GivenName, identity.FamilyName)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrIdentityLink, err)
		}
	}

	if !user.Active {
		return nil, fmt.Errorf("%w: %w", ErrIdentityLink, ErrUserAccountDisabled)
	}

	if err := l.directory.AttachExternalMarker(user.ID, marker); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIdentityLink, err)
	}

	return user, nil
}

// usernameFromMarker derives a local username from an external marker:
// lowercased, restricted to [a-z0-9._-] and truncated to maxUsernameLen.
func usernameFromMarker(marker string) string {
	var b strings.Builder

	for _, r := range strings.ToLower(marker) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') ||
			r == '.' || r == '_' || r == '-' {
			b.WriteRune(r)
		} else {
			b.WriteRune('-')
		}

		if b.Len() >= maxUsernameLen {
			break
		}
	}

	return b.String()
}

func randomPassword() string {
	return uniuri.NewLen(randomPasswordLen)
}
