package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gadgetghar/account-service/internal/api/metrics"
	"github.com/gadgetghar/account-service/internal/core/domain"
	"github.com/gadgetghar/account-service/internal/core/ports"
	"github.com/gadgetghar/account-service/internal/pkg/crypto"
	"github.com/gadgetghar/account-service/internal/pkg/token"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
)

// Options carries the orchestrator's collaborators and tunables, constructed
// once at startup from the explicit configuration struct.
type Options struct {
	Hasher   *crypto.PasswordHasher
	Sessions *token.Issuer // session tokens (login, admin login)
	Actions  *token.Issuer // email-action tokens (verification, reset)

	Gateway    ports.MailGateway
	Dispatcher ports.MailDispatcher
	Limiter    ports.AttemptLimiter // optional

	Lockout   domain.LockoutPolicy
	Passwords domain.PasswordPolicy

	ClientURL string

	SessionTTL      time.Duration
	AdminSessionTTL time.Duration
	VerificationTTL time.Duration
	ResetTTL        time.Duration

	FailedLoginDelay time.Duration
	ResetMailTimeout time.Duration

	Logger zerolog.Logger
}

// AuthService composes the hasher, token issuers, lockout and lifecycle
// policies, credential store and mail gateway into the
// signup/login/verify/reset/logout state machine.
type AuthService struct {
	users  ports.UserRepository
	admins ports.AdminRepository
	opts   Options
}

func NewAuthService(users ports.UserRepository, admins ports.AdminRepository, opts Options) *AuthService {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}
	if opts.AdminSessionTTL <= 0 {
		opts.AdminSessionTTL = 7 * 24 * time.Hour
	}
	if opts.VerificationTTL <= 0 {
		opts.VerificationTTL = 24 * time.Hour
	}
	if opts.ResetTTL <= 0 {
		opts.ResetTTL = time.Hour
	}
	if opts.Lockout.Threshold == 0 {
		opts.Lockout = domain.DefaultLockoutPolicy()
	}
	if opts.Passwords.MaxAge == 0 {
		opts.Passwords = domain.DefaultPasswordPolicy()
	}
	return &AuthService{users: users, admins: admins, opts: opts}
}

// Signup validates the registration payload, creates the pending principal
// and queues the verification email. Mail delivery is best-effort: a provider
// outage never fails the signup, and the response does not reveal whether the
// send succeeded.
func (s *AuthService) Signup(ctx context.Context, in ports.SignupInput) error {
	if in.FullName == "" || in.Email == "" || in.Password == "" || in.Phone == "" {
		return domain.Validationf("All fields are required")
	}
	email := normalizeEmail(in.Email)
	if !emailPattern.MatchString(email) {
		return domain.Validationf("Invalid email format.")
	}
	if err := domain.ValidatePasswordComplexity(in.Password); err != nil {
		return err
	}
	if !phonePattern.MatchString(in.Phone) {
		return domain.Validationf("Invalid phone number.")
	}
	if err := s.allow(ctx, "signup", in.ClientIP); err != nil {
		return err
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return err
	}

	hash, err := s.opts.Hasher.Hash(in.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		FullName:          in.FullName,
		Email:             email,
		PasswordHash:      hash,
		Phone:             in.Phone,
		Role:              domain.RoleUser,
		Status:            domain.StatusPending,
		PasswordCreatedAt: now,
		PasswordExpiresAt: s.opts.Passwords.ExpiresAt(now),
		ProfileImageURL:   in.ProfileImageURL,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	created, err := s.users.Create(ctx, user)
	if err != nil {
		return err
	}

	verification, err := s.opts.Actions.Issue(created.ID, "", "", s.opts.VerificationTTL)
	if err != nil {
		return fmt.Errorf("issue verification token: %w", err)
	}
	s.opts.Dispatcher.EnqueueVerification(email, s.verifyLink(verification))

	s.audit(ctx, created.ID, domain.EventRegistered)
	metrics.SignupsTotal.Inc()
	return nil
}

// VerifyEmail redeems a verification token. Redeeming an already-verified
// account succeeds idempotently.
func (s *AuthService) VerifyEmail(ctx context.Context, tokenStr string) error {
	if tokenStr == "" {
		return domain.Validationf("Verification token missing")
	}
	claims, err := s.opts.Actions.Verify(tokenStr)
	if err != nil {
		return domain.ErrInvalidToken
	}
	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return err
	}
	if user.Verified() {
		return nil
	}
	if err := s.users.UpdateStatus(ctx, user.ID, domain.StatusVerified); err != nil {
		return err
	}
	s.audit(ctx, user.ID, domain.EventEmailVerified)
	return nil
}

// ResendVerification issues a fresh verification token for a pending account.
// Unlike signup this send is synchronous and its failure surfaces.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	if email == "" {
		return domain.Validationf("Email is required")
	}
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}
	if user.Verified() {
		return domain.ErrAlreadyVerified
	}
	verification, err := s.opts.Actions.Issue(user.ID, "", "", s.opts.VerificationTTL)
	if err != nil {
		return fmt.Errorf("issue verification token: %w", err)
	}
	if err := s.opts.Gateway.SendVerification(ctx, user.Email, s.verifyLink(verification)); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMailDelivery, err)
	}
	s.audit(ctx, user.ID, domain.EventVerificationResent)
	return nil
}

// Login authenticates a verified user and issues a session token. Failure
// classes are ordered: unknown user, unverified, locked, expired password,
// wrong password. Wrong-password responses are delayed by a fixed interval to
// blunt timing and enumeration probes.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.Session, error) {
	if email == "" || password == "" {
		return nil, domain.Validationf("All fields are required")
	}
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// Same client-facing answer as a wrong password, so the
			// response cannot confirm whether the email exists.
			s.opts.Logger.Warn().Str("email", email).Msg("login for unknown email")
			metrics.LoginsTotal.WithLabelValues("unknown_user").Inc()
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.Verified() {
		metrics.LoginsTotal.WithLabelValues("not_verified").Inc()
		return nil, domain.ErrEmailNotVerified
	}

	now := time.Now().UTC()
	if s.opts.Lockout.IsLocked(user.LockUntil, now) {
		s.audit(ctx, user.ID, domain.EventAccountLocked)
		metrics.LoginsTotal.WithLabelValues("locked").Inc()
		return nil, &domain.LockedError{LockUntil: *user.LockUntil, Attempts: user.LoginAttempts}
	}
	if s.opts.Passwords.IsExpired(user, now) {
		s.audit(ctx, user.ID, domain.EventPasswordExpired)
		metrics.LoginsTotal.WithLabelValues("expired_password").Inc()
		return nil, domain.ErrPasswordExpired
	}

	if !s.opts.Hasher.Verify(password, user.PasswordHash) {
		attempts, lockUntil, err := s.users.RegisterFailedLogin(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		s.audit(ctx, user.ID, domain.EventFailedLogin)
		s.delay(ctx)
		if s.opts.Lockout.IsLocked(lockUntil, time.Now().UTC()) {
			metrics.LockoutsTotal.Inc()
			metrics.LoginsTotal.WithLabelValues("locked").Inc()
			return nil, &domain.LockedError{LockUntil: *lockUntil, Attempts: attempts}
		}
		metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, &domain.FailedLoginError{Attempts: attempts}
	}

	if err := s.users.ResetLoginCounters(ctx, user.ID); err != nil {
		return nil, err
	}
	signed, err := s.opts.Sessions.Issue(user.ID, user.Role, "", s.opts.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("issue session token: %w", err)
	}
	s.audit(ctx, user.ID, domain.EventLoggedIn)
	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return &ports.Session{
		Token: signed,
		TTL:   s.opts.SessionTTL,
		Principal: ports.Identity{
			ID:    user.ID,
			Email: user.Email,
			Role:  user.Role,
			Kind:  domain.KindUser,
		},
	}, nil
}

// AdminLogin resolves the identifier through the two admin identity paths:
// the standalone Admin store first, then a User carrying role=admin matched
// by email. Admin accounts are deliberately outside the lockout and password
// lifecycle policies. Both misses answer with the same generic failure.
func (s *AuthService) AdminLogin(ctx context.Context, username, password string) (*ports.Session, error) {
	if username == "" || password == "" {
		return nil, domain.Validationf("Username and password are required")
	}
	identifier := normalizeEmail(username)

	admin, err := s.admins.FindByUsername(ctx, identifier)
	switch {
	case err == nil:
		if !s.opts.Hasher.Verify(password, admin.PasswordHash) {
			metrics.AdminLoginsTotal.WithLabelValues("admin_store", "failure").Inc()
			return nil, domain.ErrInvalidCredentials
		}
		signed, err := s.opts.Sessions.Issue(admin.ID, admin.Role, admin.Username, s.opts.AdminSessionTTL)
		if err != nil {
			return nil, fmt.Errorf("issue session token: %w", err)
		}
		s.opts.Logger.Info().Str("admin_id", admin.ID).Str("event", domain.EventAdminLogin).Msg("security event")
		metrics.AdminLoginsTotal.WithLabelValues("admin_store", "success").Inc()
		return &ports.Session{
			Token: signed,
			TTL:   s.opts.AdminSessionTTL,
			Principal: ports.Identity{
				ID:       admin.ID,
				Username: admin.Username,
				Role:     admin.Role,
				Kind:     domain.KindStandaloneAdmin,
			},
		}, nil
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, err
	}

	user, err := s.users.FindAdminByEmail(ctx, identifier)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			metrics.AdminLoginsTotal.WithLabelValues("user_fallback", "failure").Inc()
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.opts.Hasher.Verify(password, user.PasswordHash) {
		metrics.AdminLoginsTotal.WithLabelValues("user_fallback", "failure").Inc()
		return nil, domain.ErrInvalidCredentials
	}
	signed, err := s.opts.Sessions.Issue(user.ID, user.Role, user.Email, s.opts.AdminSessionTTL)
	if err != nil {
		return nil, fmt.Errorf("issue session token: %w", err)
	}
	s.audit(ctx, user.ID, domain.EventAdminLoginViaEmail)
	metrics.AdminLoginsTotal.WithLabelValues("user_fallback", "success").Inc()
	return &ports.Session{
		Token: signed,
		TTL:   s.opts.AdminSessionTTL,
		Principal: ports.Identity{
			ID:       user.ID,
			Email:    user.Email,
			Username: user.Email,
			Role:     user.Role,
			Kind:     domain.KindUser,
		},
	}, nil
}

// AdminSignup creates a standalone admin identity.
func (s *AuthService) AdminSignup(ctx context.Context, username, password string) (*ports.Identity, error) {
	if username == "" || password == "" {
		return nil, domain.Validationf("Username and password are required")
	}
	hash, err := s.opts.Hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC()
	admin, err := s.admins.Create(ctx, &domain.Admin{
		Username:     normalizeEmail(username),
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}
	s.opts.Logger.Info().Str("admin_id", admin.ID).Str("event", domain.EventAdminAccountCreated).Msg("security event")
	return &ports.Identity{
		ID:       admin.ID,
		Username: admin.Username,
		Role:     admin.Role,
		Kind:     domain.KindStandaloneAdmin,
	}, nil
}

// RequestPasswordReset emails a one-hour reset token. This send is not
// best-effort: a delivery failure surfaces to the caller, bounded by the
// reset mail timeout so the request can never hang on the provider.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email, clientIP string) error {
	if email == "" {
		return domain.Validationf("Email is required")
	}
	if err := s.allow(ctx, "pwreset", clientIP); err != nil {
		return err
	}
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}
	reset, err := s.opts.Actions.Issue(user.ID, "", "", s.opts.ResetTTL)
	if err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}

	sendCtx := ctx
	if s.opts.ResetMailTimeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, s.opts.ResetMailTimeout)
		defer cancel()
	}
	if err := s.opts.Gateway.SendPasswordReset(sendCtx, user.Email, s.resetLink(reset)); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMailDelivery, err)
	}
	s.audit(ctx, user.ID, domain.EventPasswordResetReq)
	return nil
}

// ResetPassword redeems a reset token and rotates the password: reuse check
// against the bounded history, then a single store write that swaps the hash,
// refreshes the lifecycle fields and records the pre-rotation hash.
func (s *AuthService) ResetPassword(ctx context.Context, tokenStr, newPassword string) error {
	if tokenStr == "" || newPassword == "" {
		return domain.Validationf("Token and new password required")
	}
	claims, err := s.opts.Actions.Verify(tokenStr)
	if err != nil {
		return domain.ErrInvalidToken
	}
	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return err
	}
	if err := domain.ValidatePasswordComplexity(newPassword); err != nil {
		return err
	}
	for _, prev := range user.PreviousPasswordHashes {
		if s.opts.Hasher.Verify(newPassword, prev) {
			return domain.ErrPasswordReused
		}
	}

	hash, err := s.opts.Hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	// The hash being replaced goes into the history exactly once.
	history := s.opts.Passwords.PushHistory(user.PreviousPasswordHashes, user.PasswordHash)
	now := time.Now().UTC()
	if err := s.users.RotatePassword(ctx, user.ID, hash, history, now, s.opts.Passwords.ExpiresAt(now)); err != nil {
		return err
	}
	s.audit(ctx, user.ID, domain.EventPasswordReset)
	metrics.PasswordResetsTotal.Inc()
	return nil
}

// Introspect verifies a session token and returns the decrypted identity
// summary of its principal.
func (s *AuthService) Introspect(ctx context.Context, tokenStr string) (*ports.Identity, error) {
	claims, err := s.opts.Sessions.Verify(tokenStr)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}
	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	return &ports.Identity{
		ID:              user.ID,
		Email:           user.Email,
		FullName:        user.FullName,
		Role:            user.Role,
		Status:          user.Status,
		Kind:            domain.KindUser,
		ProfileImageURL: user.ProfileImageURL,
	}, nil
}

// Logout records the audit event when a principal context is present. The
// flow itself is stateless: tokens are self-contained and short-lived, so the
// only server-side effect is the audit trail; the handler clears the cookie.
func (s *AuthService) Logout(ctx context.Context, tokenStr string) {
	if tokenStr == "" {
		return
	}
	claims, err := s.opts.Sessions.Verify(tokenStr)
	if err != nil {
		return
	}
	s.audit(ctx, claims.UserID, domain.EventLoggedOut)
}

func (s *AuthService) allow(ctx context.Context, op, clientIP string) error {
	if s.opts.Limiter == nil || clientIP == "" {
		return nil
	}
	return s.opts.Limiter.Allow(ctx, op+":"+clientIP)
}

// delay imposes the fixed artificial pause after a failed password check. It
// parks only this request's goroutine and respects cancellation.
func (s *AuthService) delay(ctx context.Context) {
	if s.opts.FailedLoginDelay <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(s.opts.FailedLoginDelay):
	}
}

func (s *AuthService) audit(ctx context.Context, userID, event string) {
	if err := s.users.AppendSecurityEvent(ctx, userID, event); err != nil {
		s.opts.Logger.Warn().Err(err).Str("user_id", userID).Str("event", event).Msg("audit log write failed")
	}
	s.opts.Logger.Info().Str("user_id", userID).Str("event", event).Msg("security event")
}

func (s *AuthService) verifyLink(tokenStr string) string {
	return s.opts.ClientURL + "/verify-email?token=" + tokenStr
}

func (s *AuthService) resetLink(tokenStr string) string {
	return s.opts.ClientURL + "/reset-password?token=" + tokenStr
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
