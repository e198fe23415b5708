package domain

import (
	"time"
	"unicode"
	"unicode/utf8"
)

const (
	DefaultPasswordMaxAge   = 90 * 24 * time.Hour
	DefaultPasswordHistory  = 5
	minimumPasswordLength   = 8
	passwordSpecialRuneList = `!@#$%^&*()_+-=[]{};':"\|,.<>/?`
)

// PasswordPolicy is the pure decision logic for the password lifecycle:
// expiry computation and the bounded reuse history.
type PasswordPolicy struct {
	MaxAge       time.Duration
	HistoryLimit int
}

// DefaultPasswordPolicy returns the 90-day / 5-entry policy.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{MaxAge: DefaultPasswordMaxAge, HistoryLimit: DefaultPasswordHistory}
}

// ExpiresAt computes the expiry deadline for a password set at the given time.
func (p PasswordPolicy) ExpiresAt(setAt time.Time) time.Time {
	return setAt.Add(p.MaxAge)
}

// IsExpired reports whether the user's password is past its expiry at now.
// Legacy records without an explicit expiry derive it from PasswordCreatedAt.
func (p PasswordPolicy) IsExpired(u *User, now time.Time) bool {
	expiry := u.PasswordExpiresAt
	if expiry.IsZero() {
		expiry = p.ExpiresAt(u.PasswordCreatedAt)
	}
	return now.After(expiry)
}

// PushHistory appends hash to the reuse history, evicting the oldest entry
// first so the result never exceeds HistoryLimit.
func (p PasswordPolicy) PushHistory(history []string, hash string) []string {
	out := append([]string(nil), history...)
	if limit := p.HistoryLimit; limit > 0 && len(out) >= limit {
		out = out[len(out)-limit+1:]
	}
	return append(out, hash)
}

// ValidatePasswordComplexity enforces the signup/reset complexity rule:
// at least 8 characters, 1 uppercase, 1 digit, 1 special character.
func ValidatePasswordComplexity(password string) error {
	var upper, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		default:
			for _, s := range passwordSpecialRuneList {
				if r == s {
					special = true
					break
				}
			}
		}
	}
	if utf8.RuneCountInString(password) < minimumPasswordLength || !upper || !digit || !special {
		return Validationf("Password must be at least 8 characters, include 1 uppercase, 1 number, 1 special character.")
	}
	return nil
}
