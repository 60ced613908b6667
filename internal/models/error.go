package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Anonymous tracking errors
	ErrPasscodeRequired = errors.New("passcode required")
	ErrInvalidPasscode  = errors.New("invalid passcode")

	// Account state errors
	ErrAccountDisabled = errors.New("account is disabled")
	ErrMFARequired     = errors.New("mfa code required")
	ErrInvalidMFACode  = errors.New("invalid mfa code")
)
