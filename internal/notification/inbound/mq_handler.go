package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shandysiswandi/dinebook/internal/notification/usecase"
	"github.com/shandysiswandi/dinebook/internal/pkg/instrument"
	"github.com/shandysiswandi/dinebook/internal/pkg/messaging"
	"github.com/shandysiswandi/dinebook/internal/pkg/uid"
	"github.com/shandysiswandi/dinebook/internal/shared/event"
)

const keyOfCorrelationID string = "cID"

type MQHandler struct {
	uc   uc
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, msg messaging.Message) context.Context {
	if cID := msg.Header(keyOfCorrelationID); cID != "" {
		return instrument.SetCorrelationID(ctx, cID)
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

func (h *MQHandler) UserForgotPasswordNotification(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg)

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "UserForgotPasswordNotification")
	defer span.End()

	body := msg.Body()
	slog.InfoContext(ctx, "consume: user forgot password notification", "message_id", msg.ID())

	var payload event.UserForgotPasswordMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of user forgot password notification", "message_id", msg.ID(), "error", err)
		return nil
	}

	if err := h.uc.ConsumeUserForgotPassword(ctx, usecase.ConsumeUserForgotPasswordInput{
		EventID:          payload.EventID,
		UserID:           payload.UserID,
		Email:            payload.Email,
		OTP:              payload.OTP,
		ExpiresInSeconds: payload.ExpiresInSeconds,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume user forgot password", "message_id", msg.ID(), "error", err)
		return err
	}

	return nil
}
