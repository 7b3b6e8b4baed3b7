package entity

import (
	"errors"
	"time"
)

// ErrResetOTPExhausted means every allowed guess against a reset OTP is used.
var ErrResetOTPExhausted = errors.New("reset otp attempts exhausted")

type UserStatus int16

const (
	UserStatusUnknown    UserStatus = 0
	UserStatusUnverified UserStatus = 1
	UserStatusActive     UserStatus = 2
	UserStatusBanned     UserStatus = 3
	UserStatusInactive   UserStatus = 4
)

var userStatusNames = map[UserStatus]string{
	UserStatusUnverified: "Unverified",
	UserStatusActive:     "Active",
	UserStatusBanned:     "Banned",
	UserStatusInactive:   "Inactive",
}

func (us UserStatus) String() string {
	if name, ok := userStatusNames[us]; ok {
		return name
	}
	return "Unknown"
}

// Ensure collapses values outside the enum to UserStatusUnknown.
func (us UserStatus) Ensure() UserStatus {
	if _, ok := userStatusNames[us]; ok {
		return us
	}
	return UserStatusUnknown
}

type User struct {
	ID       int64
	Email    string
	FullName string
	Status   UserStatus
}

// ResetOTP is the pending password reset of one email. Secret is the sealed
// TOTP secret; the code is checked against the period that contains IssuedAt.
type ResetOTP struct {
	UserID   int64
	Secret   []byte
	IssuedAt time.Time
	Attempts int
}
