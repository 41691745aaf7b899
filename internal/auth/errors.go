package auth

import "errors"

var (
	// ErrValidation is returned for malformed input, e.g. a candidate
	// provider URL that is not a valid absolute URL.
	ErrValidation = errors.New("validation failed")

	// ErrUnknownProvider is returned when a login names a provider that is
	// not (or no longer) in the approved set. The user-facing message must
	// stay generic so the approved list cannot be enumerated.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrIdentityLink is returned when verified claims cannot be mapped to
	// a usable local account.
	ErrIdentityLink = errors.New("identity could not be linked to a local account")

	// ErrUserNotFound is returned when no local account matches the username.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidPassword is returned when the password does not match.
	ErrInvalidPassword = errors.New("invalid password")

	// ErrUserAccountDisabled is returned when the account exists but is inactive.
	ErrUserAccountDisabled = errors.New("user account is disabled")
)
