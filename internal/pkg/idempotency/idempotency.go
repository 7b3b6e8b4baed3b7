// Package idempotency guards an operation key with a Redis state machine:
// absent -> in_progress -> completed | failed. A second caller holding the
// same key learns which state the first one reached.
package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrAlreadyInProgress = errors.New("operation already in progress")
	ErrAlreadyCompleted  = errors.New("operation already completed")
	ErrAlreadyFailed     = errors.New("operation already failed")
	ErrInvalidState      = errors.New("invalid idempotency state")
)

// State is the value stored under a key.
type State string

const (
	StateNone       State = "none"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

var stateErrs = map[State]error{
	StateInProgress: ErrAlreadyInProgress,
	StateCompleted:  ErrAlreadyCompleted,
	StateFailed:     ErrAlreadyFailed,
}

// Idempotency is what use cases depend on.
type Idempotency interface {
	Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error
}

// StateTracker implements Idempotency with a single Redis string per key.
type StateTracker struct {
	client redis.UniversalClient
	prefix string
}

func New(client redis.UniversalClient) *StateTracker {
	return &StateTracker{client: client, prefix: "idempotency:"}
}

type execOptions struct {
	lock time.Duration
	ttl  time.Duration
	// release deletes the key when fn fails instead of recording failed.
	release bool
}

type Option func(*execOptions)

// WithLockDuration bounds how long an in_progress marker survives a crash.
func WithLockDuration(d time.Duration) Option {
	return func(o *execOptions) {
		if d > 0 {
			o.lock = d
		}
	}
}

// WithStateTTL sets how long completed/failed markers are kept.
func WithStateTTL(d time.Duration) Option {
	return func(o *execOptions) {
		if d > 0 {
			o.ttl = d
		}
	}
}

// WithReleaseOnError frees the key when fn returns an error so the caller can retry.
func WithReleaseOnError() Option {
	return func(o *execOptions) { o.release = true }
}

// Acquire claims key. It returns StateNone when the caller now owns it.
func (s *StateTracker) Acquire(ctx context.Context, key string, lock time.Duration) (State, error) {
	k := s.prefix + key

	// The second SetNX covers a marker that expired between SetNX and Get.
	for range 2 {
		ok, err := s.client.SetNX(ctx, k, string(StateInProgress), lock).Result()
		if err != nil {
			return "", err
		}
		if ok {
			return StateNone, nil
		}

		val, err := s.client.Get(ctx, k).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return "", err
		}

		st := State(val)
		if _, known := stateErrs[st]; !known {
			return "", ErrInvalidState
		}
		return st, nil
	}

	return "", ErrInvalidState
}

func (s *StateTracker) MarkCompleted(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+key, string(StateCompleted), ttl).Err()
}

func (s *StateTracker) MarkFailed(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+key, string(StateFailed), ttl).Err()
}

// Release removes the marker.
func (s *StateTracker) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}

// Exec runs fn at most once per key while markers live.
func (s *StateTracker) Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error {
	o := execOptions{lock: time.Minute, ttl: time.Minute}
	for _, opt := range opts {
		opt(&o)
	}

	st, err := s.Acquire(ctx, key, o.lock)
	if err != nil {
		return err
	}
	if st != StateNone {
		return stateErrs[st]
	}

	if err := fn(ctx); err != nil {
		mark := func() error { return s.MarkFailed(ctx, key, o.ttl) }
		if o.release {
			mark = func() error { return s.Release(ctx, key) }
		}
		return errors.Join(err, mark())
	}

	return s.MarkCompleted(ctx, key, o.ttl)
}
