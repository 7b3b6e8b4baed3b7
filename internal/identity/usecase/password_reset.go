package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/dinebook/internal/identity/entity"
	"github.com/shandysiswandi/dinebook/internal/pkg/goerror"
	"github.com/shandysiswandi/dinebook/internal/pkg/idempotency"
	"github.com/shandysiswandi/dinebook/internal/pkg/sealer"
)

type PasswordResetInput struct {
	Email       string `validate:"required,email"`
	OTP         string `validate:"required,otp"`
	NewPassword string `validate:"required,password"`
}

// PasswordReset checks the emailed code and replaces the password. Each
// guess counts against the record; past the limit the record is dropped and
// a new OTP must be requested.
func (s *Usecase) PasswordReset(ctx context.Context, in PasswordResetInput) error {
	ctx, span := s.startSpan(ctx, "PasswordReset")
	defer span.End()

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.OTP = strings.TrimSpace(in.OTP)

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	key, err := s.emailKey(in.Email)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash email", "error", err)
		return goerror.NewServer(err)
	}
	lockKey, err := s.emailKey(in.Email + ":" + in.OTP)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash reset lock key", "error", err)
		return goerror.NewServer(err)
	}

	err = s.idemp.Exec(ctx, "identity:password_reset:"+lockKey, func(ctx context.Context) error {
		return s.resetPassword(ctx, key, in)
	}, idempotency.WithLockDuration(30*time.Second), idempotency.WithReleaseOnError())

	switch {
	case errors.Is(err, idempotency.ErrAlreadyInProgress):
		return goerror.NewBusiness("Password reset already in progress", goerror.CodeConflict)
	case errors.Is(err, idempotency.ErrAlreadyCompleted), errors.Is(err, idempotency.ErrAlreadyFailed):
		return errExpired
	default:
		return err
	}
}

var errExpired = goerror.NewBusiness("OTP has expired, please request a new one", goerror.CodeUnauthorized)

func (s *Usecase) resetPassword(ctx context.Context, key string, in PasswordResetInput) error {
	rec, err := s.repoCache.GetResetOTP(ctx, key)
	if errors.Is(err, goerror.ErrNotFound) {
		return errExpired
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get reset otp", "error", err)
		return goerror.NewServer(err)
	}

	// Reserve the guess before checking the code.
	attempts, err := s.repoCache.ReserveResetOTPAttempt(ctx, key, s.maxAttempts())
	if errors.Is(err, goerror.ErrNotFound) {
		return errExpired
	}
	if errors.Is(err, entity.ErrResetOTPExhausted) {
		if err := s.repoCache.DeleteResetOTP(ctx, key); err != nil {
			slog.ErrorContext(ctx, "failed to repo delete reset otp", "user_id", rec.UserID, "error", err)
		}
		return goerror.NewBusiness("Too many invalid attempts, please request a new OTP", goerror.CodeTooManyRequest)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo reserve otp attempt", "user_id", rec.UserID, "error", err)
		return goerror.NewServer(err)
	}

	secret, err := s.sealer.Open(rec.Secret, sealer.Scope{UserID: rec.UserID, Purpose: sealer.PurposeResetOTP})
	if err != nil {
		slog.ErrorContext(ctx, "failed to open otp secret", "user_id", rec.UserID, "error", err)
		return goerror.NewServer(err)
	}

	if !s.totp.Validate(in.OTP, string(secret), rec.IssuedAt) {
		slog.WarnContext(ctx, "invalid reset otp", "user_id", rec.UserID, "attempts", attempts)
		return goerror.NewBusiness("Invalid OTP", goerror.CodeUnauthorized)
	}

	user, err := s.repoDB.GetUserByEmail(ctx, in.Email)
	if errors.Is(err, goerror.ErrNotFound) || (err == nil && user.ID != rec.UserID) {
		slog.WarnContext(ctx, "reset otp does not match an account", "user_id", rec.UserID)
		return goerror.NewBusiness("account status is unrecognized", goerror.CodeForbidden)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by email", "user_id", rec.UserID, "error", err)
		return goerror.NewServer(err)
	}

	if err := s.ensureUserStatusAllowed(ctx, user.ID, user.Status); err != nil {
		return err
	}

	newHash, err := s.password.Hash(in.NewPassword)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash new password", "user_id", user.ID, "error", err)
		return goerror.NewServer(err)
	}

	if err := s.repoDB.UpdateUserCredential(ctx, user.ID, string(newHash)); err != nil {
		slog.ErrorContext(ctx, "failed to repo update user credential", "user_id", user.ID, "error", err)
		return goerror.NewServer(err)
	}

	if err := s.repoCache.DeleteResetOTP(ctx, key); err != nil {
		slog.ErrorContext(ctx, "failed to repo delete reset otp", "user_id", user.ID, "error", err)
	}

	slog.InfoContext(ctx, "password reset completed", "user_id", user.ID)
	return nil
}
