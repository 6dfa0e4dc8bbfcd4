// Package crypto provides authenticated encryption of TOTP secrets under a
// single master key persisted on disk. Losing the key file makes every
// stored secret permanently unrecoverable; there is no escrow and no
// rotation.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// KeySize is the size of the master key in bytes (AES-256)
	KeySize = 32

	// SaltSize is the size of the per-envelope salt in bytes
	SaltSize = 16

	// NonceSize is the size of the AES-GCM nonce in bytes
	NonceSize = 12

	// PBKDF2Iterations is the iteration count for per-envelope key derivation
	PBKDF2Iterations = 100000
)

var (
	// ErrInvalidKeySize indicates a key that is not KeySize bytes
	ErrInvalidKeySize = errors.New("invalid master key size")

	// ErrInvalidEnvelope indicates an envelope that failed authentication,
	// was produced under a different key, or is structurally malformed
	ErrInvalidEnvelope = errors.New("invalid envelope: authentication failed or wrong key")
)

// MasterKey is the symmetric key protecting all stored secrets.
type MasterKey []byte

// Generate creates a cryptographically secure random master key.
func Generate() (MasterKey, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate master key: %w", err)
	}
	return MasterKey(key), nil
}

// EncryptSecret encrypts a plaintext TOTP secret into a self-contained
// envelope: base64(salt + nonce + ciphertext). The AES-256-GCM key is
// derived per envelope from the master key and a random salt, so two
// encryptions of the same secret never produce the same envelope.
func (mk MasterKey) EncryptSecret(plaintext string) (string, error) {
	if len(mk) != KeySize {
		return "", fmt.Errorf("%w: expected %d, got %d", ErrInvalidKeySize, KeySize, len(mk))
	}

	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	gcm, err := mk.envelopeCipher(salt)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, nonce, []byte(plaintext), nil)

	combined := make([]byte, 0, SaltSize+NonceSize+len(ciphertext))
	combined = append(combined, salt...)
	combined = append(combined, nonce...)
	combined = append(combined, ciphertext...)

	return base64.StdEncoding.EncodeToString(combined), nil
}

// DecryptSecret reverses EncryptSecret. Tampered or foreign envelopes fail
// with ErrInvalidEnvelope rather than yielding garbage plaintext, so one
// corrupted row never masquerades as a real secret.
func (mk MasterKey) DecryptSecret(envelope string) (string, error) {
	if len(mk) != KeySize {
		return "", fmt.Errorf("%w: expected %d, got %d", ErrInvalidKeySize, KeySize, len(mk))
	}

	combined, err := base64.StdEncoding.DecodeString(envelope)
	if err != nil {
		return "", errors.Join(ErrInvalidEnvelope, err)
	}

	// GCM appends a 16-byte tag, so even an empty plaintext has one.
	if len(combined) < SaltSize+NonceSize+16 {
		return "", fmt.Errorf("%w: envelope too short (%d bytes)", ErrInvalidEnvelope, len(combined))
	}

	salt := combined[:SaltSize]
	nonce := combined[SaltSize : SaltSize+NonceSize]
	ciphertext := combined[SaltSize+NonceSize:]

	gcm, err := mk.envelopeCipher(salt)
	if err != nil {
		return "", err
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", errors.Join(ErrInvalidEnvelope, err)
	}

	return string(plaintext), nil
}

// envelopeCipher derives the per-envelope AES-GCM cipher from the master
// key and salt.
func (mk MasterKey) envelopeCipher(salt []byte) (cipher.AEAD, error) {
	derived := pbkdf2.Key(mk, salt, PBKDF2Iterations, KeySize, sha256.New)

	block, err := aes.NewCipher(derived)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// String returns a safe representation that never exposes key bytes.
func (mk MasterKey) String() string {
	return fmt.Sprintf("MasterKey[%d bytes]", len(mk))
}

// Encode encodes the master key as base64 for the key file or keyring.
func (mk MasterKey) Encode() string {
	return base64.StdEncoding.EncodeToString(mk)
}

// Decode decodes a base64-encoded master key.
func Decode(encoded string) (MasterKey, error) {
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode master key: %w", err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrInvalidKeySize, KeySize, len(key))
	}
	return MasterKey(key), nil
}

// Zeroize clears the key material from memory.
func (mk MasterKey) Zeroize() {
	for i := range mk {
		mk[i] = 0
	}
}
