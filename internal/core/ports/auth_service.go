package ports

import (
	"context"
	"time"
)

// SignupInput is the validated payload for account registration.
type SignupInput struct {
	FullName        string
	Email           string
	Password        string
	Phone           string
	ProfileImageURL string
	// ClientIP feeds the abuse limiter; empty disables the IP key.
	ClientIP string
}

// Identity is the decrypted principal summary returned to authenticated
// callers. Kind distinguishes the two admin identity paths.
type Identity struct {
	ID              string `json:"id"`
	Email           string `json:"email,omitempty"`
	Username        string `json:"username,omitempty"`
	FullName        string `json:"full_name,omitempty"`
	Role            string `json:"role"`
	Status          string `json:"status,omitempty"`
	Kind            string `json:"-"`
	ProfileImageURL string `json:"profile_image_url,omitempty"`
}

// Session is an issued bearer credential plus the identity it proves.
type Session struct {
	Token     string
	TTL       time.Duration
	Principal Identity
}

// AuthService is the orchestrator verb set exposed to the HTTP layer.
type AuthService interface {
	Signup(ctx context.Context, in SignupInput) error
	VerifyEmail(ctx context.Context, token string) error
	ResendVerification(ctx context.Context, email string) error
	Login(ctx context.Context, email, password string) (*Session, error)
	AdminLogin(ctx context.Context, username, password string) (*Session, error)
	AdminSignup(ctx context.Context, username, password string) (*Identity, error)
	RequestPasswordReset(ctx context.Context, email, clientIP string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	Introspect(ctx context.Context, token string) (*Identity, error)
	Logout(ctx context.Context, token string)
}
