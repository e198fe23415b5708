package domain

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

const (
	StatusPending  = "pending"
	StatusVerified = "verified"
)

// Principal kinds for the admin login chain.
const (
	KindUser            = "user"
	KindStandaloneAdmin = "standalone-admin"
)

// SecurityEvent is one entry of a principal's append-only audit log.
type SecurityEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Event     string    `json:"event"`
}

// User models a customer account. FullName and Phone are stored encrypted at
// rest; repositories decrypt them before handing the record to callers, so
// everything above the store sees plaintext.
type User struct {
	ID           string `json:"id"`
	FullName     string `json:"full_name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Phone        string `json:"phone,omitempty"`

	LoginAttempts int        `json:"login_attempts"`
	LockUntil     *time.Time `json:"lock_until,omitempty"`

	PasswordCreatedAt      time.Time `json:"password_created_at"`
	PasswordExpiresAt      time.Time `json:"password_expires_at"`
	PreviousPasswordHashes []string  `json:"-"`

	Role   string `json:"role"`
	Status string `json:"status"`

	ProfileImageURL string          `json:"profile_image_url,omitempty"`
	SecurityLog     []SecurityEvent `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Verified reports whether the account completed email verification.
func (u *User) Verified() bool {
	return u.Status == StatusVerified
}

// Admin models a standalone administrator identity, a separate identity space
// from User keyed by lowercase username. Role is always "admin".
type Admin struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Audit log event names. Kept stable: they are persisted on the user document.
const (
	EventRegistered          = "User registered (pending verification)"
	EventEmailVerified       = "Email verified"
	EventVerificationResent  = "Verification email resent"
	EventLoggedIn            = "User logged in"
	EventLoggedOut           = "User logged out"
	EventFailedLogin         = "Failed login attempt"
	EventAccountLocked       = "Account locked due to brute force"
	EventPasswordExpired     = "Password expired"
	EventPasswordResetReq    = "Password reset requested"
	EventPasswordReset       = "Password reset"
	EventAdminLogin          = "Admin login successful"
	EventAdminLoginViaEmail  = "Admin login successful (via email)"
	EventAdminAccountCreated = "Admin account created"
)
