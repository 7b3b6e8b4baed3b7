package mq

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel/codes"

	"github.com/shandysiswandi/dinebook/internal/identity/usecase"
	"github.com/shandysiswandi/dinebook/internal/pkg/instrument"
	"github.com/shandysiswandi/dinebook/internal/pkg/messaging"
	"github.com/shandysiswandi/dinebook/internal/shared/event"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client messaging.Publisher
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Publisher, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishUserForgotPassword(ctx context.Context, msg usecase.UserForgotPasswordEvent) error {
	ctx, span := m.ins.Tracer("identity.outbound.mq").Start(ctx, "PublishUserForgotPassword")
	defer span.End()

	body, err := json.Marshal(event.UserForgotPasswordMessage{
		EventID:          msg.EventID,
		UserID:           msg.UserID,
		Email:            msg.Email,
		OTP:              msg.OTP,
		ExpiresInSeconds: msg.ExpiresInSeconds,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if _, err := m.client.Publish(ctx, event.UserForgotPasswordDestination, messaging.OutgoingMessage{
		Body:    body,
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
