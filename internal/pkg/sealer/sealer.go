// Package sealer encrypts small secrets at rest with AES-256-GCM. Each
// ciphertext is bound to a Scope through the AEAD additional data, so a
// secret sealed for one user or purpose cannot be opened for another.
//
// Layout: version (2 bytes, big endian) | nonce (12 bytes) | sealed data.
package sealer

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
)

const (
	version   uint16 = 1
	nonceSize        = 12
	keySize          = 32
	headerLen        = 2 + nonceSize
)

var (
	ErrInvalidKey         = errors.New("sealer: key must be 32 bytes")
	ErrEmptyPlaintext     = errors.New("sealer: plaintext is empty")
	ErrCiphertextTooShort = errors.New("sealer: ciphertext too short")
	ErrUnsupportedVersion = errors.New("sealer: unsupported ciphertext version")
	ErrOpenFailed         = errors.New("sealer: open failed")
)

// Purpose names what a sealed value is for.
type Purpose string

// PurposeResetOTP seals the TOTP secret behind a password reset code.
const PurposeResetOTP Purpose = "reset_otp"

// Scope binds a ciphertext to its owner.
type Scope struct {
	UserID  int64
	Purpose Purpose
}

func (s Scope) aad() []byte {
	b := []byte("uid=")
	b = strconv.AppendInt(b, s.UserID, 10)
	b = append(b, "\npurpose="...)
	b = append(b, s.Purpose...)
	b = append(b, '\n')
	sum := sha256.Sum256(b)
	return sum[:]
}

// Sealer is the contract consumed by use cases.
type Sealer interface {
	Seal(plaintext []byte, scope Scope) ([]byte, error)
	Open(ciphertext []byte, scope Scope) ([]byte, error)
}

// AESGCM implements Sealer with one static key.
type AESGCM struct {
	aead cipher.AEAD
}

// NewAESGCM builds the cipher once; key must be 32 bytes.
func NewAESGCM(key []byte) (*AESGCM, error) {
	if len(key) != keySize {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidKey, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("sealer: aes: %w", err)
	}
	aead, err := cipher.NewGCMWithNonceSize(block, nonceSize)
	if err != nil {
		return nil, fmt.Errorf("sealer: gcm: %w", err)
	}
	return &AESGCM{aead: aead}, nil
}

func (a *AESGCM) Seal(plaintext []byte, scope Scope) ([]byte, error) {
	if len(plaintext) == 0 {
		return nil, ErrEmptyPlaintext
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("sealer: nonce: %w", err)
	}

	out := make([]byte, 2, headerLen+len(plaintext)+a.aead.Overhead())
	binary.BigEndian.PutUint16(out, version)
	out = append(out, nonce...)
	return a.aead.Seal(out, nonce, plaintext, scope.aad()), nil
}

func (a *AESGCM) Open(ciphertext []byte, scope Scope) ([]byte, error) {
	if len(ciphertext) <= headerLen {
		return nil, ErrCiphertextTooShort
	}
	if v := binary.BigEndian.Uint16(ciphertext); v != version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}

	plain, err := a.aead.Open(nil, ciphertext[2:headerLen], ciphertext[headerLen:], scope.aad())
	if err != nil {
		return nil, ErrOpenFailed
	}
	return plain, nil
}
