package inbound

import (
	"context"
	"log/slog"

	"github.com/samber/lo"

	"github.com/shandysiswandi/dinebook/internal/pkg/config"
	"github.com/shandysiswandi/dinebook/internal/pkg/goroutine"
	"github.com/shandysiswandi/dinebook/internal/pkg/instrument"
	"github.com/shandysiswandi/dinebook/internal/pkg/messaging"
	"github.com/shandysiswandi/dinebook/internal/pkg/uid"
	"github.com/shandysiswandi/dinebook/internal/shared/event"
)

func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	messenger messaging.Consumer,
	uuid uid.StringID,
	uc uc,
	ins instrument.Instrumentation,
) {
	mqHandler := &MQHandler{uc: uc, uuid: uuid, ins: ins}

	enableConsumerNames := cfg.GetArray("modules.notification.consumer_names")

	var consumers = []struct {
		name    string
		topic   string // destination where publisher sent message
		handler messaging.Handler
	}{
		{
			name:    event.UserForgotPasswordConsumerNotification,
			topic:   event.UserForgotPasswordDestination,
			handler: mqHandler.UserForgotPasswordNotification,
		},
	}

	for _, consumer := range consumers {
		if !lo.Contains(enableConsumerNames, consumer.name) {
			slog.InfoContext(ctx, "consumer disabled by config", "consumer", consumer.name)
			continue
		}

		routine.Go(ctx, func(pCtx context.Context) error {
			slog.InfoContext(ctx, "Running job for handling consumer", "consumer", consumer.name)
			// each broker reads the option it understands
			return messenger.Consume(pCtx,
				consumer.topic,
				consumer.handler,
				messaging.WithChannel(consumer.name),
				messaging.WithQueueGroup(consumer.name),
				messaging.WithGroup(consumer.name),
				messaging.WithSubscription(consumer.name),
				messaging.WithAutoAck(true),
				messaging.WithConcurrency(10),
				messaging.WithMaxInFlight(10),
			)
		})
	}
}
