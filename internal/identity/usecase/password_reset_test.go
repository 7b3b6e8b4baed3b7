package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/shandysiswandi/dinebook/internal/pkg/goerror"
	"github.com/shandysiswandi/dinebook/internal/pkg/idempotency"
)

const newPassword = "n3w-password"

func issue(t *testing.T, h *harness) string {
	t.Helper()
	if err := h.uc.PasswordForgot(context.Background(), PasswordForgotInput{Email: "jane@example.com"}); err != nil {
		t.Fatalf("PasswordForgot() error = %v", err)
	}
	return h.mq.events[len(h.mq.events)-1].OTP
}

func wrongCode(code string) string {
	if code == "000000" {
		return "111111"
	}
	return "000000"
}

func TestPasswordReset(t *testing.T) {
	// Arrange
	h := newHarness(t, nil)
	code := issue(t, h)

	// Act
	err := h.uc.PasswordReset(context.Background(), PasswordResetInput{
		Email:       "Jane@example.com",
		OTP:         code,
		NewPassword: newPassword,
	})

	// Assert
	if err != nil {
		t.Fatalf("PasswordReset() error = %v", err)
	}
	stored, ok := h.db.passwords[1]
	if !ok {
		t.Fatalf("credential not updated")
	}
	if !h.uc.password.Verify(stored, newPassword) {
		t.Fatalf("stored hash does not verify")
	}
	if len(h.cache.records) != 0 {
		t.Fatalf("reset record not deleted")
	}
}

func TestPasswordReset_Expired(t *testing.T) {
	h := newHarness(t, nil)

	err := h.uc.PasswordReset(context.Background(), PasswordResetInput{
		Email:       "jane@example.com",
		OTP:         "123456",
		NewPassword: newPassword,
	})

	wantBusiness(t, err, goerror.CodeUnauthorized, "OTP has expired, please request a new one")
}

func TestPasswordReset_InvalidThenLocked(t *testing.T) {
	h := newHarness(t, nil)
	code := issue(t, h)
	ctx := context.Background()
	in := PasswordResetInput{Email: "jane@example.com", OTP: wrongCode(code), NewPassword: newPassword}

	for range 3 {
		wantBusiness(t, h.uc.PasswordReset(ctx, in), goerror.CodeUnauthorized, "Invalid OTP")
	}

	wantBusiness(t, h.uc.PasswordReset(ctx, in), goerror.CodeTooManyRequest, "Too many invalid attempts, please request a new OTP")

	in.OTP = code
	wantBusiness(t, h.uc.PasswordReset(ctx, in), goerror.CodeUnauthorized, "OTP has expired, please request a new one")
	if len(h.db.passwords) != 0 {
		t.Fatalf("password changed after lockout")
	}
}

func TestPasswordReset_LastAllowedAttempt(t *testing.T) {
	h := newHarness(t, nil)
	code := issue(t, h)
	ctx := context.Background()
	in := PasswordResetInput{Email: "jane@example.com", OTP: wrongCode(code), NewPassword: newPassword}

	for range 2 {
		wantBusiness(t, h.uc.PasswordReset(ctx, in), goerror.CodeUnauthorized, "Invalid OTP")
	}

	in.OTP = code
	if err := h.uc.PasswordReset(ctx, in); err != nil {
		t.Fatalf("PasswordReset() on last attempt error = %v", err)
	}
}

func TestPasswordReset_ConcurrentGuessesRespectLimit(t *testing.T) {
	// Arrange
	h := newHarness(t, nil)
	code := issue(t, h)
	ctx := context.Background()
	wrong := PasswordResetInput{Email: "jane@example.com", OTP: wrongCode(code), NewPassword: newPassword}
	for range 2 {
		wantBusiness(t, h.uc.PasswordReset(ctx, wrong), goerror.CodeUnauthorized, "Invalid OTP")
	}

	guesses := make([]string, 0, 20)
	for i := 0; len(guesses) < 19; i++ {
		if g := fmt.Sprintf("%06d", i); g != code {
			guesses = append(guesses, g)
		}
	}
	guesses = append(guesses, code)

	// Every request reads the record before any of them checks its code.
	var barrier sync.WaitGroup
	barrier.Add(len(guesses))
	h.cache.afterGet = func() {
		barrier.Done()
		barrier.Wait()
	}

	// Act
	errs := make([]error, len(guesses))
	var wg sync.WaitGroup
	for i, g := range guesses {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = h.uc.PasswordReset(ctx, PasswordResetInput{Email: "jane@example.com", OTP: g, NewPassword: newPassword})
		}()
	}
	wg.Wait()

	// Assert
	checked := 0
	for _, err := range errs {
		if err == nil {
			checked++
			continue
		}
		gerr, ok := goerror.As(err)
		if !ok {
			t.Fatalf("error = %v, want goerror", err)
		}
		switch gerr.Code() {
		case goerror.CodeTooManyRequest, goerror.CodeUnauthorized:
			if gerr.Msg() == "Invalid OTP" {
				checked++
			}
		default:
			t.Fatalf("unexpected error = %v", err)
		}
	}
	if checked != 1 {
		t.Fatalf("codes checked = %d, want 1 (one attempt left)", checked)
	}
	if _, changed := h.db.passwords[1]; changed && errs[len(errs)-1] != nil {
		t.Fatalf("password changed without the correct code succeeding")
	}
}

func TestPasswordReset_IdempotencyStates(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode goerror.Code
		wantMsg  string
	}{
		{
			name:     "in progress",
			err:      idempotency.ErrAlreadyInProgress,
			wantCode: goerror.CodeConflict,
			wantMsg:  "Password reset already in progress",
		},
		{
			name:     "completed",
			err:      idempotency.ErrAlreadyCompleted,
			wantCode: goerror.CodeUnauthorized,
			wantMsg:  "OTP has expired, please request a new one",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, fakeIdempotency{err: tt.err})

			err := h.uc.PasswordReset(context.Background(), PasswordResetInput{
				Email:       "jane@example.com",
				OTP:         "123456",
				NewPassword: newPassword,
			})

			wantBusiness(t, err, tt.wantCode, tt.wantMsg)
		})
	}
}

func TestPasswordReset_Validation(t *testing.T) {
	tests := []struct {
		name string
		in   PasswordResetInput
	}{
		{name: "short otp", in: PasswordResetInput{Email: "jane@example.com", OTP: "123", NewPassword: newPassword}},
		{name: "letters in otp", in: PasswordResetInput{Email: "jane@example.com", OTP: "12a456", NewPassword: newPassword}},
		{name: "short password", in: PasswordResetInput{Email: "jane@example.com", OTP: "123456", NewPassword: "short"}},
		{name: "missing email", in: PasswordResetInput{OTP: "123456", NewPassword: newPassword}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)

			err := h.uc.PasswordReset(context.Background(), tt.in)

			gerr, ok := goerror.As(err)
			if !ok || gerr.Code() != goerror.CodeInvalidInput {
				t.Fatalf("error = %v, want invalid input", err)
			}
		})
	}
}

func TestPasswordReset_BannedAfterIssue(t *testing.T) {
	h := newHarness(t, nil)
	code := issue(t, h)
	h.db.users["jane@example.com"].Status = 3

	err := h.uc.PasswordReset(context.Background(), PasswordResetInput{
		Email:       "jane@example.com",
		OTP:         code,
		NewPassword: newPassword,
	})

	wantBusiness(t, err, goerror.CodeForbidden, "account is banned")
}
