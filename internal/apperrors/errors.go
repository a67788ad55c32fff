package apperrors

import "errors"

// Sentinel errors for the failure kinds surfaced by the identity core.
// Handlers map these onto HTTP statuses; workflows normalize lower-level
// causes into one of them before returning.
var (
	// ErrInvalidInput indicates missing or blank required fields.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthorized indicates bad credentials or an invalid, mismatched,
	// or expired token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound indicates no matching user, channel, or record.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a duplicate username or email.
	ErrConflict = errors.New("conflict")
	// ErrUploadFailed indicates external media storage I/O failed.
	ErrUploadFailed = errors.New("upload failed")
	// ErrInternal indicates an unexpected failure in persistence or read-back.
	ErrInternal = errors.New("internal error")
)
