package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/gadgetghar/account-service/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors. Lockout
// and password-expiry failures carry extra machine-readable fields so clients
// can render countdowns and retry guidance.
type errorResponse struct {
	Success         bool       `json:"success"`
	Message         string     `json:"message"`
	LockUntil       *time.Time `json:"lockUntil,omitempty"`
	LoginAttempts   *int       `json:"loginAttempts,omitempty"`
	PasswordExpired bool       `json:"passwordExpired,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"success":false,"message":"..."}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, resp := resolveError(err, log, c)
		_ = c.JSON(code, resp)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Message: fmt.Sprintf("%v", he.Message)}
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, errorResponse{Message: ve.Message}
	}

	var le *domain.LockedError
	if errors.As(err, &le) {
		attempts := le.Attempts
		until := le.LockUntil
		return http.StatusTooManyRequests, errorResponse{
			Message:       "Too many failed login attempts. Please try again after 15 minutes.",
			LockUntil:     &until,
			LoginAttempts: &attempts,
		}
	}

	var fle *domain.FailedLoginError
	if errors.As(err, &fle) {
		attempts := fle.Attempts
		return http.StatusUnauthorized, errorResponse{
			Message:       "Invalid credentials",
			LoginAttempts: &attempts,
		}
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorResponse{Message: "Invalid credentials"}
	case errors.Is(err, domain.ErrEmailNotVerified):
		return http.StatusForbidden, errorResponse{Message: "Please verify your email before logging in."}
	case errors.Is(err, domain.ErrPasswordExpired):
		return http.StatusForbidden, errorResponse{
			Message:         "Password expired. Please update your password.",
			PasswordExpired: true,
		}
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusBadRequest, errorResponse{Message: "User already exists"}
	case errors.Is(err, domain.ErrAdminExists):
		return http.StatusBadRequest, errorResponse{Message: "Admin already exists"}
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, errorResponse{Message: "User not found"}
	case errors.Is(err, domain.ErrAlreadyVerified):
		return http.StatusBadRequest, errorResponse{Message: "Email already verified"}
	case errors.Is(err, domain.ErrInvalidToken):
		return http.StatusBadRequest, errorResponse{Message: "Invalid or expired token"}
	case errors.Is(err, domain.ErrPasswordReused):
		return http.StatusBadRequest, errorResponse{Message: "You cannot reuse a previous password."}
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, errorResponse{Message: "Too many requests. Please try again later."}
	case errors.Is(err, domain.ErrMailDelivery):
		// Logged with cause; the client only learns that delivery failed.
		log.Error().Err(err).Str("path", c.Path()).Msg("outbound mail failed")
		return http.StatusInternalServerError, errorResponse{Message: "Error in sending reset email"}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Message: "Internal server error"}
}
