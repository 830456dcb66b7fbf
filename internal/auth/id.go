// Package auth implements password hashing, opaque identifiers, and the
// cookie-session lifecycle.
package auth

import (
	"crypto/rand"
	"encoding/base32"
	"strings"
)

var idEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// GenerateID returns a lowercase base32 identifier carrying size bytes of
// CSPRNG entropy. 10 bytes yields a 16-character ID.
func GenerateID(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return strings.ToLower(idEncoding.EncodeToString(b)), nil
}

// NewUserID returns an opaque user identifier (16 chars, 80 bits of entropy).
func NewUserID() (string, error) {
	return GenerateID(10)
}

// NewPostID returns an opaque post identifier.
func NewPostID() (string, error) {
	return GenerateID(10)
}

// NewSessionToken returns an opaque session token (40 chars, 200 bits of
// entropy). The token doubles as the session's primary key.
func NewSessionToken() (string, error) {
	return GenerateID(25)
}
