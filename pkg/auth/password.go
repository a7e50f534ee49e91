package auth

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// CredentialLength is the exact byte length of both the salt and the
	// derived hash. Stored records violating it are corrupt.
	CredentialLength = sha512.Size

	// Iterations is the fixed PBKDF2 iteration count. Changing it without a
	// credential migration breaks verification of existing records.
	Iterations = 100_000
)

// Derive generates a fresh random salt and computes the PBKDF2-HMAC-SHA512
// hash of password. It fails only when the entropy source does, which is an
// internal error, not a user-facing one.
func Derive(password string) (salt, hash []byte, err error) {
	salt = make([]byte, CredentialLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	hash = pbkdf2.Key([]byte(password), salt, Iterations, CredentialLength, sha512.New)
	return salt, hash, nil
}

// Verify recomputes the hash of password under salt and compares it against
// expected in constant time. A wrong password is a false return, never an
// error.
func Verify(password string, salt, expected []byte) bool {
	computed := pbkdf2.Key([]byte(password), salt, Iterations, CredentialLength, sha512.New)
	return subtle.ConstantTimeCompare(computed, expected) == 1
}
