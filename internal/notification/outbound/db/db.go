package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/shandysiswandi/dinebook/internal/notification/entity"
	"github.com/shandysiswandi/dinebook/internal/pkg/goerror"
	"github.com/shandysiswandi/dinebook/internal/pkg/instrument"
)

type DB struct {
	conn *pgxpool.Pool
	ins  instrument.Instrumentation
}

func NewDB(conn *pgxpool.Pool, ins instrument.Instrumentation) *DB {
	return &DB{conn: conn, ins: ins}
}

func (s *DB) mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return goerror.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return goerror.ErrConflict
	}

	return err
}

func (s *DB) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("notification.outbound.db").Start(ctx, name)
}

func (s *DB) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, goerror.ErrConflict) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

const createDeliveryLog = `
INSERT INTO notification_deliveries (id, event_id, user_id, channel, template, recipient, status)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`

// CreateDeliveryLog returns goerror.ErrConflict when the event was already
// logged on the channel.
func (s *DB) CreateDeliveryLog(ctx context.Context, dl entity.CreateDeliveryLog) (err error) {
	ctx, span := s.startSpan(ctx, "CreateDeliveryLog")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, createDeliveryLog,
		dl.ID, dl.EventID, dl.UserID, dl.Channel.String(), dl.Template.String(), dl.Recipient, dl.Status.String())
	err = s.mapError(err)
	return err
}

const updateDeliveryLog = `
UPDATE notification_deliveries
SET status = $2, provider_id = $3, attempts = $4, metadata = $5, updated_at = NOW()
WHERE id = $1
`

func (s *DB) UpdateDeliveryLog(ctx context.Context, u entity.UpdateDeliveryLog) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateDeliveryLog")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, updateDeliveryLog, u.ID, u.Status.String(), u.ProviderID, u.Attempts, u.Metadata)
	if err != nil {
		err = s.mapError(err)
		return err
	}
	if tag.RowsAffected() == 0 {
		err = goerror.ErrNotFound
		return err
	}

	return nil
}
