package sealer

import (
	"bytes"
	"errors"
	"testing"
)

func newSealer(t *testing.T) *AESGCM {
	t.Helper()
	s, err := NewAESGCM(bytes.Repeat([]byte{7}, 32))
	if err != nil {
		t.Fatalf("NewAESGCM() error = %v", err)
	}
	return s
}

func TestAESGCM_RoundTrip(t *testing.T) {
	// Arrange
	s := newSealer(t)
	scope := Scope{UserID: 42, Purpose: PurposeResetOTP}

	// Act
	ct, err := s.Seal([]byte("JBSWY3DPEHPK3PXP"), scope)
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}
	pt, err := s.Open(ct, scope)

	// Assert
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if string(pt) != "JBSWY3DPEHPK3PXP" {
		t.Fatalf("Open() = %q", pt)
	}
}

func TestAESGCM_ScopeBound(t *testing.T) {
	s := newSealer(t)
	ct, _ := s.Seal([]byte("secret"), Scope{UserID: 1, Purpose: PurposeResetOTP})

	_, err := s.Open(ct, Scope{UserID: 2, Purpose: PurposeResetOTP})

	if !errors.Is(err, ErrOpenFailed) {
		t.Fatalf("Open() with other user error = %v, want ErrOpenFailed", err)
	}
}

func TestAESGCM_Errors(t *testing.T) {
	s := newSealer(t)

	if _, err := NewAESGCM([]byte("short")); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("NewAESGCM(short) error = %v", err)
	}
	if _, err := s.Seal(nil, Scope{}); !errors.Is(err, ErrEmptyPlaintext) {
		t.Fatalf("Seal(nil) error = %v", err)
	}
	if _, err := s.Open([]byte{0, 1}, Scope{}); !errors.Is(err, ErrCiphertextTooShort) {
		t.Fatalf("Open(short) error = %v", err)
	}

	ct, _ := s.Seal([]byte("x"), Scope{})
	ct[1] = 9
	if _, err := s.Open(ct, Scope{}); !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("Open(bad version) error = %v", err)
	}
}
