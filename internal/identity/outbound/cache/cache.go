package cache

import (
	"context"
	"encoding/base64"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/shandysiswandi/dinebook/internal/identity/entity"
	"github.com/shandysiswandi/dinebook/internal/pkg/goerror"
	"github.com/shandysiswandi/dinebook/internal/pkg/instrument"
)

const (
	prefixResetOTP         = "identity:reset_otp:"
	prefixResetOTPCooldown = "identity:reset_otp_cooldown:"

	fieldUserID   = "user_id"
	fieldSecret   = "secret"
	fieldIssuedAt = "issued_at"
	fieldAttempts = "attempts"
)

// reserveAttempt takes one guess against a live record. It returns -1 when
// the record is gone and -2 when the limit in ARGV[2] is already reached.
var reserveAttempt = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return -1
end
local n = tonumber(redis.call("HGET", KEYS[1], ARGV[1]) or "0")
if n >= tonumber(ARGV[2]) then
	return -2
end
return redis.call("HINCRBY", KEYS[1], ARGV[1], 1)
`)

type Cache struct {
	client redis.UniversalClient
	ins    instrument.Instrumentation
}

func NewCache(client redis.UniversalClient, ins instrument.Instrumentation) *Cache {
	return &Cache{client: client, ins: ins}
}

func (c *Cache) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return c.ins.Tracer("identity.outbound.cache").Start(ctx, name)
}

func (c *Cache) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, entity.ErrResetOTPExhausted) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// AcquireResendCooldown reports false while an earlier request still holds the key.
func (c *Cache) AcquireResendCooldown(ctx context.Context, key string, ttl time.Duration) (_ bool, err error) {
	ctx, span := c.startSpan(ctx, "AcquireResendCooldown")
	defer func() { c.endSpan(span, err) }()

	ok, err := c.client.SetNX(ctx, prefixResetOTPCooldown+key, 1, ttl).Result()
	return ok, err
}

func (c *Cache) SaveResetOTP(ctx context.Context, key string, rec entity.ResetOTP, ttl time.Duration) (err error) {
	ctx, span := c.startSpan(ctx, "SaveResetOTP")
	defer func() { c.endSpan(span, err) }()

	k := prefixResetOTP + key
	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, k)
		pipe.HSet(ctx, k,
			fieldUserID, rec.UserID,
			fieldSecret, base64.StdEncoding.EncodeToString(rec.Secret),
			fieldIssuedAt, rec.IssuedAt.Unix(),
			fieldAttempts, rec.Attempts,
		)
		pipe.Expire(ctx, k, ttl)
		return nil
	})
	return err
}

func (c *Cache) GetResetOTP(ctx context.Context, key string) (_ *entity.ResetOTP, err error) {
	ctx, span := c.startSpan(ctx, "GetResetOTP")
	defer func() { c.endSpan(span, err) }()

	vals, err := c.client.HGetAll(ctx, prefixResetOTP+key).Result()
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 {
		err = goerror.ErrNotFound
		return nil, err
	}

	rec, err := decodeResetOTP(vals)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func decodeResetOTP(vals map[string]string) (*entity.ResetOTP, error) {
	userID, err := strconv.ParseInt(vals[fieldUserID], 10, 64)
	if err != nil {
		return nil, err
	}
	secret, err := base64.StdEncoding.DecodeString(vals[fieldSecret])
	if err != nil {
		return nil, err
	}
	issuedAt, err := strconv.ParseInt(vals[fieldIssuedAt], 10, 64)
	if err != nil {
		return nil, err
	}
	attempts, err := strconv.Atoi(vals[fieldAttempts])
	if err != nil {
		return nil, err
	}

	return &entity.ResetOTP{
		UserID:   userID,
		Secret:   secret,
		IssuedAt: time.Unix(issuedAt, 0),
		Attempts: attempts,
	}, nil
}

// ReserveResetOTPAttempt counts one guess and returns the new total. It fails
// with goerror.ErrNotFound when the record expired and with
// entity.ErrResetOTPExhausted once limit guesses were taken.
func (c *Cache) ReserveResetOTPAttempt(ctx context.Context, key string, limit int) (_ int, err error) {
	ctx, span := c.startSpan(ctx, "ReserveResetOTPAttempt")
	defer func() { c.endSpan(span, err) }()

	n, err := reserveAttempt.Run(ctx, c.client, []string{prefixResetOTP + key}, fieldAttempts, limit).Int()
	if err != nil {
		return 0, err
	}
	switch n {
	case -1:
		err = goerror.ErrNotFound
		return 0, err
	case -2:
		return 0, entity.ErrResetOTPExhausted
	}
	return n, nil
}

func (c *Cache) DeleteResetOTP(ctx context.Context, key string) (err error) {
	ctx, span := c.startSpan(ctx, "DeleteResetOTP")
	defer func() { c.endSpan(span, err) }()

	err = c.client.Del(ctx, prefixResetOTP+key).Err()
	return err
}
