// Package otp issues and checks time-based one-time codes (RFC 6238).
package otp

import (
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// OTP is the contract used by the identity use cases.
type OTP interface {
	Generate(accountName string) (secret string, err error)
	GenerateCode(secret string, at time.Time) (string, error)
	Validate(code, secret string, at time.Time) bool
}

// TOTP is an OTP backed by pquerna/otp with SHA1 and a fixed period.
type TOTP struct {
	issuer string
	opts   totp.ValidateOpts
}

// NewTOTP builds a TOTP. A zero period defaults to 30 seconds; digits other
// than six or eight fall back to six. skew is the number of adjacent periods
// accepted on validation.
func NewTOTP(issuer string, period, skew uint, digits otp.Digits) *TOTP {
	if digits != otp.DigitsSix && digits != otp.DigitsEight {
		digits = otp.DigitsSix
	}
	if period == 0 {
		period = 30
	}
	return &TOTP{
		issuer: issuer,
		opts: totp.ValidateOpts{
			Period:    period,
			Skew:      skew,
			Digits:    digits,
			Algorithm: otp.AlgorithmSHA1,
		},
	}
}

// Generate returns a fresh base32 secret for accountName.
func (t *TOTP) Generate(accountName string) (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      t.issuer,
		AccountName: accountName,
		Period:      t.opts.Period,
		SecretSize:  20,
		Digits:      t.opts.Digits,
		Algorithm:   t.opts.Algorithm,
	})
	if err != nil {
		return "", err
	}
	return key.Secret(), nil
}

func (t *TOTP) GenerateCode(secret string, at time.Time) (string, error) {
	return totp.GenerateCodeCustom(secret, at, t.opts)
}

func (t *TOTP) Validate(code, secret string, at time.Time) bool {
	ok, err := totp.ValidateCustom(code, secret, at, t.opts)
	return ok && err == nil
}
