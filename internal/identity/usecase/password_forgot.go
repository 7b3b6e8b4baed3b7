package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/shandysiswandi/dinebook/internal/identity/entity"
	"github.com/shandysiswandi/dinebook/internal/pkg/goerror"
	"github.com/shandysiswandi/dinebook/internal/pkg/sealer"
)

type PasswordForgotInput struct {
	Email string `validate:"required,email"`
}

// PasswordForgot issues a reset OTP and publishes it for delivery. Unknown
// and ineligible accounts get the same nil result and nothing is sent.
func (s *Usecase) PasswordForgot(ctx context.Context, in PasswordForgotInput) error {
	ctx, span := s.startSpan(ctx, "PasswordForgot")
	defer span.End()

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	key, err := s.emailKey(in.Email)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash email", "error", err)
		return goerror.NewServer(err)
	}

	acquired, err := s.repoCache.AcquireResendCooldown(ctx, key, s.resendCooldown())
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo acquire resend cooldown", "error", err)
		return goerror.NewServer(err)
	}
	if !acquired {
		return goerror.NewBusiness("Please wait before requesting another OTP", goerror.CodeTooManyRequest)
	}

	user, err := s.repoDB.GetUserByEmail(ctx, in.Email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "password reset requested for unavailable user", "email", in.Email)
		return nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by email", "email", in.Email, "error", err)
		return goerror.NewServer(err)
	}

	if err := s.ensureUserStatusAllowed(ctx, user.ID, user.Status); err != nil {
		slog.WarnContext(ctx, "password reset requested for ineligible user", "user_id", user.ID, "status", user.Status.String())
		return nil
	}

	secret, err := s.totp.Generate(strconv.FormatInt(user.ID, 10))
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate otp secret", "user_id", user.ID, "error", err)
		return goerror.NewServer(err)
	}

	now := s.clock.Now()
	code, err := s.totp.GenerateCode(secret, now)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate otp code", "user_id", user.ID, "error", err)
		return goerror.NewServer(err)
	}

	sealed, err := s.sealer.Seal([]byte(secret), sealer.Scope{UserID: user.ID, Purpose: sealer.PurposeResetOTP})
	if err != nil {
		slog.ErrorContext(ctx, "failed to seal otp secret", "user_id", user.ID, "error", err)
		return goerror.NewServer(err)
	}

	ttl := s.otpTTL()
	if err := s.repoCache.SaveResetOTP(ctx, key, entity.ResetOTP{
		UserID:   user.ID,
		Secret:   sealed,
		IssuedAt: now,
	}, ttl); err != nil {
		slog.ErrorContext(ctx, "failed to repo save reset otp", "user_id", user.ID, "error", err)
		return goerror.NewServer(err)
	}

	if err := s.repoMessaging.PublishUserForgotPassword(ctx, UserForgotPasswordEvent{
		EventID:          s.uid.Generate(),
		UserID:           user.ID,
		Email:            user.Email,
		OTP:              code,
		ExpiresInSeconds: int(ttl.Seconds()),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish user forgot password", "user_id", user.ID, "error", err)
	}

	return nil
}
