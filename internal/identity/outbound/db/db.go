package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/shandysiswandi/dinebook/internal/identity/entity"
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

// - 23505 unique violation → goerror.ErrConflict
// - no rows → goerror.ErrNotFound
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
	return s.ins.Tracer("identity.outbound.db").Start(ctx, name)
}

func (s *DB) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, goerror.ErrConflict) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

const getUserByEmail = `
SELECT id, email, full_name, status
FROM identity_users
WHERE email = $1 AND deleted_at IS NULL
`

func (s *DB) GetUserByEmail(ctx context.Context, email string) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByEmail")
	defer func() { s.endSpan(span, err) }()

	var user entity.User
	var status int16
	if err = s.conn.QueryRow(ctx, getUserByEmail, email).Scan(&user.ID, &user.Email, &user.FullName, &status); err != nil {
		err = s.mapError(err)
		return nil, err
	}
	user.Status = entity.UserStatus(status)

	return &user, nil
}

const updateUserCredential = `
UPDATE identity_user_credentials
SET password = $2, updated_at = NOW()
WHERE user_id = $1
`

const touchUser = `
UPDATE identity_users
SET updated_at = NOW(), updated_by = $2
WHERE id = $1
`

// UpdateUserCredential swaps the password hash and stamps the user row in one transaction.
func (s *DB) UpdateUserCredential(ctx context.Context, userID int64, hash string) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateUserCredential")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rolback", "error", rErr)
		}
	}()

	tag, err := tx.Exec(ctx, updateUserCredential, userID, hash)
	if err != nil {
		err = s.mapError(err)
		return err
	}
	if tag.RowsAffected() == 0 {
		err = goerror.ErrNotFound
		return err
	}

	if _, err = tx.Exec(ctx, touchUser, userID, "password_reset"); err != nil {
		err = s.mapError(err)
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		err = s.mapError(err)
		return err
	}

	return nil
}
