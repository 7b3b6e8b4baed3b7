package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	libOTP "github.com/pquerna/otp"

	"github.com/shandysiswandi/dinebook/internal/identity/entity"
	"github.com/shandysiswandi/dinebook/internal/pkg/clock"
	"github.com/shandysiswandi/dinebook/internal/pkg/config"
	"github.com/shandysiswandi/dinebook/internal/pkg/goerror"
	"github.com/shandysiswandi/dinebook/internal/pkg/hash"
	"github.com/shandysiswandi/dinebook/internal/pkg/idempotency"
	"github.com/shandysiswandi/dinebook/internal/pkg/instrument"
	"github.com/shandysiswandi/dinebook/internal/pkg/otp"
	"github.com/shandysiswandi/dinebook/internal/pkg/sealer"
	"github.com/shandysiswandi/dinebook/internal/pkg/validator"
)

type fakeDB struct {
	users     map[string]*entity.User
	passwords map[int64]string
}

func (f *fakeDB) GetUserByEmail(_ context.Context, email string) (*entity.User, error) {
	u, ok := f.users[email]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return u, nil
}

func (f *fakeDB) UpdateUserCredential(_ context.Context, userID int64, hash string) error {
	f.passwords[userID] = hash
	return nil
}

type fakeCache struct {
	mu        sync.Mutex
	cooldowns map[string]bool
	records   map[string]entity.ResetOTP
	// afterGet runs once a record has been read, outside the lock.
	afterGet func()
}

func (f *fakeCache) AcquireResendCooldown(_ context.Context, key string, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cooldowns[key] {
		return false, nil
	}
	f.cooldowns[key] = true
	return true, nil
}

func (f *fakeCache) SaveResetOTP(_ context.Context, key string, rec entity.ResetOTP, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[key] = rec
	return nil
}

func (f *fakeCache) GetResetOTP(_ context.Context, key string) (*entity.ResetOTP, error) {
	f.mu.Lock()
	rec, ok := f.records[key]
	f.mu.Unlock()
	if !ok {
		return nil, goerror.ErrNotFound
	}
	if f.afterGet != nil {
		f.afterGet()
	}
	return &rec, nil
}

func (f *fakeCache) ReserveResetOTPAttempt(_ context.Context, key string, limit int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[key]
	if !ok {
		return 0, goerror.ErrNotFound
	}
	if rec.Attempts >= limit {
		return 0, entity.ErrResetOTPExhausted
	}
	rec.Attempts++
	f.records[key] = rec
	return rec.Attempts, nil
}

func (f *fakeCache) DeleteResetOTP(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.records, key)
	return nil
}

type fakeMessaging struct {
	events []UserForgotPasswordEvent
	err    error
}

func (f *fakeMessaging) PublishUserForgotPassword(_ context.Context, msg UserForgotPasswordEvent) error {
	f.events = append(f.events, msg)
	return f.err
}

// fakeIdempotency runs fn directly unless a canned error is set.
type fakeIdempotency struct {
	err error
}

func (f fakeIdempotency) Exec(ctx context.Context, _ string, fn func(context.Context) error, _ ...idempotency.Option) error {
	if f.err != nil {
		return f.err
	}
	return fn(ctx)
}

type fixedID int64

func (f fixedID) Generate() int64 { return int64(f) }

type harness struct {
	uc    *Usecase
	db    *fakeDB
	cache *fakeCache
	mq    *fakeMessaging
	hmac  hash.Hash
	now   time.Time
}

func newHarness(t *testing.T, idemp idempotency.Idempotency) *harness {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(`
modules:
  identity:
    otp:
      ttl_seconds: 120
      resend_cooldown_seconds: 30
      max_attempts: 3
`))
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}

	seal, err := sealer.NewAESGCM(make([]byte, 32))
	if err != nil {
		t.Fatalf("sealer: %v", err)
	}

	if idemp == nil {
		idemp = fakeIdempotency{}
	}

	h := &harness{
		db: &fakeDB{
			users: map[string]*entity.User{
				"jane@example.com":   {ID: 1, Email: "jane@example.com", FullName: "Jane", Status: entity.UserStatusActive},
				"banned@example.com": {ID: 2, Email: "banned@example.com", FullName: "Ban", Status: entity.UserStatusBanned},
			},
			passwords: map[int64]string{},
		},
		cache: &fakeCache{cooldowns: map[string]bool{}, records: map[string]entity.ResetOTP{}},
		mq:    &fakeMessaging{},
		hmac:  hash.NewHMACSHA256("test-secret"),
		now:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	h.uc = New(Dependency{
		RepoDB:        h.db,
		RepoCache:     h.cache,
		RepoMessaging: h.mq,
		Idempotency:   idemp,
		Validator:     v,
		Config:        cfg,
		HMAC:          h.hmac,
		Password:      hash.NewBcrypt(4, "pepper"),
		Sealer:        seal,
		UID:           fixedID(99),
		Totp:          otp.NewTOTP("dinebook", 120, 0, libOTP.DigitsSix),
		Clock:         clock.Fixed(h.now),
		Instrument:    instrument.NewNoop(),
	})
	return h
}

func (h *harness) key(t *testing.T, email string) string {
	t.Helper()
	k, err := h.hmac.Hash(email)
	if err != nil {
		t.Fatalf("hmac: %v", err)
	}
	return string(k)
}

func wantBusiness(t *testing.T, err error, code goerror.Code, msg string) {
	t.Helper()
	gerr, ok := goerror.As(err)
	if !ok {
		t.Fatalf("error = %v, want goerror", err)
	}
	if gerr.Code() != code || gerr.Msg() != msg {
		t.Fatalf("error = (%s, %q), want (%s, %q)", gerr.Code(), gerr.Msg(), code, msg)
	}
}
