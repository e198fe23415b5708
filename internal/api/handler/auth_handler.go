package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gadgetghar/account-service/internal/core/domain"
	"github.com/gadgetghar/account-service/internal/core/ports"
)

// AuthHandler exposes the account lifecycle endpoints. All domain failures
// are returned as-is and rendered by the central error handler.
type AuthHandler struct {
	service       ports.AuthService
	secureCookies bool
}

func NewAuthHandler(service ports.AuthService, secureCookies bool) *AuthHandler {
	return &AuthHandler{service: service, secureCookies: secureCookies}
}

// Signup registers a new customer account and queues the verification email.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return domain.Validationf("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	err := h.service.Signup(c.Request().Context(), ports.SignupInput{
		FullName:        req.FullName,
		Email:           req.Email,
		Password:        req.Password,
		Phone:           req.Phone,
		ProfileImageURL: req.ProfileImageURL,
		ClientIP:        c.RealIP(),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, messageResponse{
		Success: true,
		Message: "Registration successful. Please check your email to verify your account.",
	})
}

// VerifyEmail consumes the emailed verification token.
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	tok := c.QueryParam("token")
	if tok == "" {
		return domain.Validationf("token is required")
	}
	if err := h.service.VerifyEmail(c.Request().Context(), tok); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Success: true, Message: "Email verified successfully"})
}

// ResendVerification re-sends the verification email for a pending account.
func (h *AuthHandler) ResendVerification(c echo.Context) error {
	var req emailRequest
	if err := c.Bind(&req); err != nil {
		return domain.Validationf("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if err := h.service.ResendVerification(c.Request().Context(), req.Email); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Success: true, Message: "Verification email resent"})
}

// Login authenticates a customer and sets the session cookie.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return domain.Validationf("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	session, err := h.service.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	setSessionCookie(c, session.Token, session.TTL, http.SameSiteLaxMode, h.secureCookies)
	return c.JSON(http.StatusOK, loginResponse{
		Success: true,
		Token:   session.Token,
		User: loginUser{
			ID:    session.Principal.ID,
			Email: session.Principal.Email,
			Role:  session.Principal.Role,
		},
	})
}

// Logout invalidates the client-side session.
func (h *AuthHandler) Logout(c echo.Context) error {
	h.service.Logout(c.Request().Context(), ExtractToken(c))
	clearSessionCookie(c, h.secureCookies)
	return c.JSON(http.StatusOK, messageResponse{Success: true, Message: "Logged out"})
}

// ForgotPassword emails a password-reset link to a known account.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req emailRequest
	if err := c.Bind(&req); err != nil {
		return domain.Validationf("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if err := h.service.RequestPasswordReset(c.Request().Context(), req.Email, c.RealIP()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Success: true, Message: "Password reset email sent"})
}

// ResetPassword consumes a reset token and rotates the password.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return domain.Validationf("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if err := h.service.ResetPassword(c.Request().Context(), req.Token, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Success: true, Message: "Password reset successfully"})
}

// Me returns the identity behind the current session token.
func (h *AuthHandler) Me(c echo.Context) error {
	tok := ExtractToken(c)
	if tok == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	}

	identity, err := h.service.Introspect(c.Request().Context(), tok)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidToken) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
		}
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"user":    identity,
	})
}

// AdminLogin authenticates a back-office identity, checking the standalone
// admin store first and falling back to admin-role customer accounts.
func (h *AuthHandler) AdminLogin(c echo.Context) error {
	var req adminLoginRequest
	if err := c.Bind(&req); err != nil {
		return domain.Validationf("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	session, err := h.service.AdminLogin(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}

	setSessionCookie(c, session.Token, session.TTL, http.SameSiteStrictMode, h.secureCookies)

	username := session.Principal.Username
	if username == "" {
		username = session.Principal.Email
	}
	return c.JSON(http.StatusOK, adminLoginResponse{
		Success: true,
		Message: "Login successful",
		Data: adminLoginData{
			ID:       session.Principal.ID,
			Username: username,
			Role:     session.Principal.Role,
			Token:    session.Token,
		},
	})
}

// AdminSignup creates a standalone admin identity. The route is restricted to
// callers already holding an admin session.
func (h *AuthHandler) AdminSignup(c echo.Context) error {
	var req adminSignupRequest
	if err := c.Bind(&req); err != nil {
		return domain.Validationf("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	identity, err := h.service.AdminSignup(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, adminLoginResponse{
		Success: true,
		Message: "Admin account created",
		Data: adminLoginData{
			ID:       identity.ID,
			Username: identity.Username,
			Role:     identity.Role,
		},
	})
}
