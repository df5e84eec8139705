// Package token provides random identifiers for EPP commands: client
// transaction IDs and object authorization passwords.
package token

import (
	"crypto/rand"

	"github.com/google/uuid"
)

// PasswordLength is the length of generated authInfo passwords.
const PasswordLength = 16

var charset = []byte("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")

// GeneratePassword returns n random alphanumeric characters.
func GeneratePassword(n int) (string, error) {
	b := make([]byte, n)
	randomBytes := make([]byte, n)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = charset[int(randomBytes[i])%len(charset)]
	}
	return string(b), nil
}

// NewTransactionID returns a fresh clTRID.
func NewTransactionID() string {
	return uuid.NewString()
}
