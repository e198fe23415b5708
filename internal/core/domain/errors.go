package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrAdminExists        = errors.New("admin already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrAlreadyVerified    = errors.New("email already verified")
	ErrPasswordExpired    = errors.New("password expired")
	ErrPasswordReused     = errors.New("password was used before")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrRateLimited        = errors.New("too many requests")
	ErrMailDelivery       = errors.New("mail delivery failed")
)

// ValidationError carries a field-level message safe to show to the caller.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Validationf builds a *ValidationError from a format string.
func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// LockedError signals that the account is inside its lockout window. It
// carries the machine-readable fields clients use to render a countdown.
type LockedError struct {
	LockUntil time.Time
	Attempts  int
}

func (e *LockedError) Error() string {
	return "too many failed login attempts"
}

// FailedLoginError signals a wrong password on an unlocked account. Attempts
// is the post-increment counter value.
type FailedLoginError struct {
	Attempts int
}

func (e *FailedLoginError) Error() string { return ErrInvalidCredentials.Error() }

// Unwrap lets callers treat a failed login as ErrInvalidCredentials.
func (e *FailedLoginError) Unwrap() error { return ErrInvalidCredentials }
