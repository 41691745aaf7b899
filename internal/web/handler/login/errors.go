package login

import "errors"

var (
	// ErrInvalidFormData is shown when the login form cannot be parsed.
	ErrInvalidFormData = errors.New("invalid form data")

	// ErrInvalidCredentials is shown for a wrong username or password.
	// One message for both, so usernames cannot be probed.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrAccountDisabled is shown when the account exists but is inactive.
	ErrAccountDisabled = errors.New("account is disabled")
)
