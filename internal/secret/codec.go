// Package secret normalizes and validates Base32 TOTP secret keys.
//
// Secrets arrive from QR codes and manual entry with spaces, dashes, and
// lowercase letters. Clean strips those artifacts exactly once at the
// boundary so the stored form and the form used at generation time are
// byte-identical.
package secret

import (
	"crypto/rand"
	"encoding/base32"
	"errors"
	"regexp"
	"strings"
)

const (
	// MinLength is the minimum accepted length of a cleaned secret
	MinLength = 8

	// KeyBytes is the number of random bytes in a generated secret
	// (160 bits, the RFC 4226 recommendation)
	KeyBytes = 20
)

var (
	// ErrTooShort indicates the cleaned secret is shorter than MinLength
	ErrTooShort = errors.New("secret too short (minimum 8 characters)")

	// ErrInvalidCharacters indicates the cleaned secret contains characters
	// outside the Base32 alphabet
	ErrInvalidCharacters = errors.New("secret contains invalid characters")

	// ErrNotBase32 indicates the cleaned secret is not decodable Base32
	ErrNotBase32 = errors.New("secret is not valid base32 key material")

	// ErrGenerateFailed indicates the random source failed
	ErrGenerateFailed = errors.New("failed to generate secret key")
)

var (
	stripRegex = regexp.MustCompile(`[^A-Z2-7]`)
	validRegex = regexp.MustCompile(`^[A-Z2-7]+$`)
)

// encoding is unpadded Base32; authenticator secrets are conventionally
// written without trailing '=' padding.
var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// Clean uppercases the secret and strips every character outside the
// Base32 alphabet [A-Z2-7]. It is total and idempotent.
func Clean(secret string) string {
	return stripRegex.ReplaceAllString(strings.ToUpper(secret), "")
}

// Validate cleans the secret and reports whether the result is usable as
// TOTP key material. A nil return means valid; otherwise the error carries
// the human-readable reason.
func Validate(secret string) error {
	cleaned := Clean(secret)

	if len(cleaned) < MinLength {
		return ErrTooShort
	}
	if !validRegex.MatchString(cleaned) {
		return ErrInvalidCharacters
	}
	if _, err := encoding.DecodeString(cleaned); err != nil {
		return errors.Join(ErrNotBase32, err)
	}
	return nil
}

// Decode cleans the secret and decodes it into raw HMAC key material.
func Decode(secret string) ([]byte, error) {
	cleaned := Clean(secret)
	if len(cleaned) == 0 {
		return nil, ErrNotBase32
	}

	key, err := encoding.DecodeString(cleaned)
	if err != nil {
		return nil, errors.Join(ErrNotBase32, err)
	}
	return key, nil
}

// GenerateKey creates a new random Base32-encoded secret key.
func GenerateKey() (string, error) {
	buf := make([]byte, KeyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Join(ErrGenerateFailed, err)
	}
	return encoding.EncodeToString(buf), nil
}
