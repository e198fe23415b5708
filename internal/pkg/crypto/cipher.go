package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
)

// DefaultInsecureKey is the degraded fallback used when no PII cipher key is
// configured. Startup warns loudly about it and refuses it in production.
const DefaultInsecureKey = "default_secret"

var ErrCiphertextInvalid = errors.New("ciphertext invalid")

// FieldCipher is the reversible AES-256-GCM cipher for PII fields (full name,
// phone) that must be recoverable, as opposed to the one-way PasswordHasher.
// Ciphertext is base64(nonce || sealed).
type FieldCipher struct {
	aead cipher.AEAD
}

// NewFieldCipher derives a 256-bit key from the configured passphrase and
// returns a ready cipher.
func NewFieldCipher(passphrase string) (*FieldCipher, error) {
	key := sha256.Sum256([]byte(passphrase))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &FieldCipher{aead: aead}, nil
}

// Encrypt seals plaintext under a fresh random nonce.
func (c *FieldCipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Tampered or truncated input yields
// ErrCiphertextInvalid.
func (c *FieldCipher) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", ErrCiphertextInvalid
	}
	if len(raw) < c.aead.NonceSize() {
		return "", ErrCiphertextInvalid
	}
	nonce, sealed := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	plain, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrCiphertextInvalid
	}
	return string(plain), nil
}
