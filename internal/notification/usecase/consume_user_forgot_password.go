package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/dinebook/internal/notification/entity"
)

type ConsumeUserForgotPasswordInput struct {
	EventID          int64  `validate:"required,gt=0"`
	UserID           int64  `validate:"required,gt=0"`
	Email            string `validate:"required,email"`
	OTP              string `validate:"required,otp"`
	ExpiresInSeconds int    `validate:"required,gt=0"`
}

// ConsumeUserForgotPassword emails the reset code. Invalid events are dropped
// since redelivering them cannot succeed.
func (s *Usecase) ConsumeUserForgotPassword(ctx context.Context, in ConsumeUserForgotPasswordInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeUserForgotPassword")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "error", err)
		return nil
	}

	data := s.baseEmailTemplateData()
	data["otp"] = in.OTP
	data["expires_minutes"] = max(1, (in.ExpiresInSeconds+59)/60)

	s.sendEmailNotification(ctx, emailNotificationInput{
		EventID:      in.EventID,
		UserID:       in.UserID,
		Email:        in.Email,
		Subject:      "Your password reset code",
		TriggerKey:   entity.TriggerKeyPasswordReset,
		TemplateData: data,
	})

	return nil
}
