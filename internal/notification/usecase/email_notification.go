package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sethvargo/go-retry"

	"github.com/shandysiswandi/dinebook/internal/notification/entity"
	"github.com/shandysiswandi/dinebook/internal/pkg/goerror"
	"github.com/shandysiswandi/dinebook/internal/pkg/mail"
	"github.com/shandysiswandi/dinebook/internal/pkg/valueobject"
)

type emailNotificationInput struct {
	EventID      int64
	UserID       int64
	Email        string
	Subject      string
	TriggerKey   entity.TriggerKey
	TemplateData map[string]any
}

// sendEmailNotification logs the delivery as queued, sends with exponential
// backoff and records the outcome. A delivery already logged for the event
// is skipped so broker redeliveries do not email twice.
func (s *Usecase) sendEmailNotification(ctx context.Context, in emailNotificationInput) {
	body, err := s.renderTemplate(in.TriggerKey.String()+".html", in.TemplateData)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render email body", "user_id", in.UserID, "trigger_key", in.TriggerKey.String(), "error", err)
		return
	}

	logID := s.uid.Generate()
	err = s.repoDB.CreateDeliveryLog(ctx, entity.CreateDeliveryLog{
		ID:        logID,
		EventID:   in.EventID,
		UserID:    in.UserID,
		Channel:   entity.ChannelEmail,
		Template:  in.TriggerKey,
		Recipient: in.Email,
		Status:    entity.DeliveryStatusQueued,
	})
	if errors.Is(err, goerror.ErrConflict) {
		slog.WarnContext(ctx, "email notification already delivered for event", "event_id", in.EventID)
		return
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo create delivery log", "user_id", in.UserID, "trigger_key", in.TriggerKey.String(), "error", err)
		return
	}

	var (
		attempts   int
		providerID string
	)
	backoff := retry.WithMaxRetries(s.sendAttempts()-1, retry.NewExponential(s.sendBackoff()))
	mailErr := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		id, err := s.repoMail.Send(ctx, mail.Message{
			To:       []string{in.Email},
			Subject:  in.Subject,
			HTMLBody: body,
		})
		if err != nil {
			slog.WarnContext(ctx, "email send attempt failed", "log_id", logID, "attempt", attempts, "error", err)
			return retry.RetryableError(err)
		}
		providerID = id
		return nil
	})

	up := entity.UpdateDeliveryLog{
		ID:         logID,
		Status:     entity.DeliveryStatusSent,
		ProviderID: providerID,
		Attempts:   attempts,
		Metadata:   valueobject.JSONMap{},
	}
	if mailErr != nil {
		up.Status = entity.DeliveryStatusFailed
		up.Metadata = valueobject.JSONMap{"error": mailErr.Error()}
		slog.ErrorContext(ctx, "failed to send email notification", "log_id", logID, "attempts", attempts, "error", mailErr)
	}

	if err := s.repoDB.UpdateDeliveryLog(ctx, up); err != nil {
		slog.ErrorContext(ctx, "failed to repo update delivery log status", "log_id", logID, "status", up.Status.String(), "error", err)
	}
}
