package utils

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Secret storage modes.
const (
	SecretModePlain  = "plain"
	SecretModeBcrypt = "bcrypt"
)

// HashSecret returns the stored form of secret for the given mode.
func HashSecret(mode string, secret string) (string, error) {
	switch mode {
	case "", SecretModePlain:
		return secret, nil
	case SecretModeBcrypt:
		hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
		if err != nil {
			return "", fmt.Errorf("failed to hash secret: %w", err)
		}
		return string(hash), nil
	default:
		return "", fmt.Errorf("unknown secret mode %q", mode)
	}
}

// CheckSecret compares a plaintext secret with its stored form. Bcrypt hashes are
// recognised by prefix, so accounts created under either mode keep working.
func CheckSecret(secret, stored string) bool {
	if isBcryptHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(secret)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(secret), []byte(stored)) == 1
}

func isBcryptHash(s string) bool {
	return len(s) == 60 && (strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$"))
}
