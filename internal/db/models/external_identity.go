package models

import "time"

// ExternalIdentity links a remote OIDC identity to a local user account.
// The marker is "<sub>@<provider_url>"; the subject is unique per issuer,
// so the marker is unique across all approved providers. It is the lookup
// key for users whose provider does not assert a verified email.
type ExternalIdentity struct {
	ID uint64 `gorm:"primaryKey"`
	// Marker is the "<sub>@<provider_url>" identity key.
	Marker string `gorm:"unique;size:512;not null"`
	// UserID is the local account the identity is attached to.
	UserID uint64 `gorm:"index;not null"`
	// User is the associated account.
	User User `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE"`
	// CreatedAt is the timestamp of the first login with this identity.
	CreatedAt time.Time
}
