package goerror

import (
	"errors"
	"net/http"
	"testing"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "server", err: NewServer(errors.New("db down")), want: http.StatusInternalServerError},
		{name: "unauthorized", err: NewBusiness("Invalid OTP", CodeUnauthorized), want: http.StatusUnauthorized},
		{name: "too many", err: NewBusiness("slow down", CodeTooManyRequest), want: http.StatusTooManyRequests},
		{name: "conflict", err: NewBusiness("busy", CodeConflict), want: http.StatusConflict},
		{name: "invalid format", err: NewInvalidFormat(), want: http.StatusBadRequest},
		{name: "invalid input", err: NewInvalidInput(nil, "email", "required"), want: http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gerr, ok := As(tt.err)
			if !ok {
				t.Fatalf("As() = false for %v", tt.err)
			}
			if got := gerr.StatusCode(); got != tt.want {
				t.Fatalf("StatusCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNewServer_HidesCause(t *testing.T) {
	// Arrange
	cause := errors.New("connection refused")

	// Act
	err := NewServer(cause)

	// Assert
	gerr, _ := As(err)
	if gerr.Msg() != "Internal server error" {
		t.Fatalf("Msg() = %q", gerr.Msg())
	}
	if !errors.Is(err, cause) {
		t.Fatalf("cause not reachable through Unwrap")
	}
}

func TestNewInvalidInput_Pairs(t *testing.T) {
	err := NewInvalidInput(nil, "otp", "must be 6 digits", "email", "required")

	gerr, _ := As(err)
	if got := gerr.Fields()["otp"]; got != "must be 6 digits" {
		t.Fatalf("fields[otp] = %q", got)
	}
	if len(gerr.Fields()) != 2 {
		t.Fatalf("fields = %v", gerr.Fields())
	}
}

func TestNewInvalidInput_OddPairs(t *testing.T) {
	gerr, _ := As(NewInvalidInput(nil, "otp"))
	if gerr.Code() != CodeInvalidFormat {
		t.Fatalf("Code() = %s, want %s", gerr.Code(), CodeInvalidFormat)
	}
}
