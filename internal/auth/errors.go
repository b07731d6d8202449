package auth

import "errors"

// Messages are shown to end users as-is.
var (
	ErrInvalidEmail    = errors.New("Please enter a valid email address.")
	ErrWeakPassword    = errors.New("Password should be at least 6 characters long.")
	ErrNameRequired    = errors.New("Please enter your name.")
	ErrEmailTaken      = errors.New("An account with this email already exists. Please use the login page.")
	ErrInvalidRole     = errors.New("Unknown role.")
	ErrRoleMismatch    = errors.New("role mismatch")
	ErrUnauthenticated = errors.New("authentication required")

	// ErrInvalidCredentials does not say which of email or password was wrong.
	ErrInvalidCredentials = errors.New("Incorrect email address or password.")
)
