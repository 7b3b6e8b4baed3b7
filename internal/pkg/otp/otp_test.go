package otp

import (
	"testing"
	"time"

	"github.com/pquerna/otp"
)

func TestTOTP_RoundTrip(t *testing.T) {
	// Arrange
	o := NewTOTP("dinebook", 120, 0, otp.DigitsSix)
	secret, err := o.Generate("user@dinebook.test")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	// Act
	code, err := o.GenerateCode(secret, at)

	// Assert
	if err != nil {
		t.Fatalf("GenerateCode() error = %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("code = %q, want 6 digits", code)
	}
	if !o.Validate(code, secret, at.Add(119*time.Second)) {
		t.Fatalf("code rejected inside its window")
	}
	if o.Validate(code, secret, at.Add(10*time.Minute)) {
		t.Fatalf("code accepted long after its window")
	}
}

func TestNewTOTP_Defaults(t *testing.T) {
	o := NewTOTP("x", 0, 0, otp.Digits(7))
	if o.opts.Period != 30 || o.opts.Digits != otp.DigitsSix {
		t.Fatalf("defaults not applied: %+v", o.opts)
	}
}
