package crypto

import "golang.org/x/crypto/bcrypt"

// MinHashCost is the lowest accepted bcrypt work factor for login secrets.
const MinHashCost = 12

// PasswordHasher wraps bcrypt for login secrets. It is never used for
// reversible PII; see FieldCipher for that.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher builds a hasher with the given cost, floored at
// MinHashCost.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < MinHashCost {
		cost = MinHashCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash derives a salted adaptive-cost hash. Two calls on the same plaintext
// yield different output.
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	out, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Verify reports whether plaintext matches hash. bcrypt's comparison is
// constant-time over the derived key.
func (h *PasswordHasher) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
