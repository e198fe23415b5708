package ports

import (
	"context"
	"time"

	"github.com/gadgetghar/account-service/internal/core/domain"
)

// UserRepository is the credential store contract for customer accounts.
// Implementations own the PII cipher transform: FullName and Phone are
// plaintext on both sides of this interface and ciphertext at rest.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// FindAdminByEmail resolves a User carrying role=admin, the fallback
	// identity path for admin login.
	FindAdminByEmail(ctx context.Context, email string) (*domain.User, error)

	UpdateStatus(ctx context.Context, id, status string) error

	// RegisterFailedLogin applies the lockout failure transition atomically
	// at the store layer (no read-modify-write) and returns the resulting
	// counter state.
	RegisterFailedLogin(ctx context.Context, id string) (attempts int, lockUntil *time.Time, err error)
	// ResetLoginCounters applies the success transition: attempts back to
	// zero, lock cleared.
	ResetLoginCounters(ctx context.Context, id string) error

	// RotatePassword replaces the password hash, refreshes the lifecycle
	// fields and stores the recomputed reuse history in one write.
	RotatePassword(ctx context.Context, id, passwordHash string, history []string, createdAt, expiresAt time.Time) error

	// AppendSecurityEvent records an audit log entry. Informational only;
	// failures must not abort the surrounding flow.
	AppendSecurityEvent(ctx context.Context, id, event string) error
}

// AdminRepository is the credential store contract for standalone admins.
type AdminRepository interface {
	Create(ctx context.Context, admin *domain.Admin) (*domain.Admin, error)
	FindByUsername(ctx context.Context, username string) (*domain.Admin, error)
}
