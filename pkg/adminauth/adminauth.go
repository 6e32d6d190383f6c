// Package adminauth guards the admin-only HTTP routes (flush, stats)
// with a single shared secret: no per-user store, no sessions,
// just a PBKDF2-derived key compared in constant time.
package adminauth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltLength     = 16
	iterationCount = 4096
	keyLength      = 32
)

// ErrInvalidCredentials is returned when the presented secret does not
// match the configured one.
var ErrInvalidCredentials = errors.New("adminauth: invalid credentials")

// Guard holds the salted, derived form of the admin secret. The plaintext
// secret is never retained past construction.
type Guard struct {
	salt      []byte
	storedKey []byte
}

// NewGuard derives a Guard from secret, generating a fresh random salt.
func NewGuard(secret string) (*Guard, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("adminauth: generate salt: %w", err)
	}
	return &Guard{
		salt:      salt,
		storedKey: derive(secret, salt),
	}, nil
}

func derive(secret string, salt []byte) []byte {
	return pbkdf2.Key([]byte(secret), salt, iterationCount, keyLength, sha256.New)
}

// Check reports whether candidate matches the configured secret.
func (g *Guard) Check(candidate string) bool {
	return hmac.Equal(derive(candidate, g.salt), g.storedKey)
}

// ParseBearer extracts the token from an "Authorization: Bearer <token>"
// header value.
func ParseBearer(header string) (string, error) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errors.New("adminauth: invalid authorization header")
	}
	return parts[1], nil
}
