package usecase

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/shandysiswandi/dinebook/internal/identity/entity"
	"github.com/shandysiswandi/dinebook/internal/pkg/clock"
	"github.com/shandysiswandi/dinebook/internal/pkg/config"
	"github.com/shandysiswandi/dinebook/internal/pkg/goerror"
	"github.com/shandysiswandi/dinebook/internal/pkg/hash"
	"github.com/shandysiswandi/dinebook/internal/pkg/idempotency"
	"github.com/shandysiswandi/dinebook/internal/pkg/instrument"
	"github.com/shandysiswandi/dinebook/internal/pkg/otp"
	"github.com/shandysiswandi/dinebook/internal/pkg/sealer"
	"github.com/shandysiswandi/dinebook/internal/pkg/uid"
	"github.com/shandysiswandi/dinebook/internal/pkg/validator"
)

const (
	defaultOTPTTL         = 120 * time.Second
	defaultResendCooldown = 30 * time.Second
	defaultMaxAttempts    = 5
)

type UserForgotPasswordEvent struct {
	EventID          int64
	UserID           int64
	Email            string
	OTP              string
	ExpiresInSeconds int
}

type repoMessaging interface {
	PublishUserForgotPassword(ctx context.Context, msg UserForgotPasswordEvent) error
}

type repoDB interface {
	GetUserByEmail(ctx context.Context, email string) (*entity.User, error)
	UpdateUserCredential(ctx context.Context, userID int64, hash string) error
}

type repoCache interface {
	AcquireResendCooldown(ctx context.Context, key string, ttl time.Duration) (bool, error)
	SaveResetOTP(ctx context.Context, key string, rec entity.ResetOTP, ttl time.Duration) error
	GetResetOTP(ctx context.Context, key string) (*entity.ResetOTP, error)
	ReserveResetOTPAttempt(ctx context.Context, key string, limit int) (int, error)
	DeleteResetOTP(ctx context.Context, key string) error
}

type Usecase struct {
	repoDB        repoDB
	repoCache     repoCache
	repoMessaging repoMessaging
	idemp         idempotency.Idempotency
	validator     validator.Validator
	cfg           config.Config
	hmac          hash.Hash
	password      hash.Hash
	sealer        sealer.Sealer
	uid           uid.NumberID
	totp          otp.OTP
	clock         clock.Clocker
	ins           instrument.Instrumentation
}

type Dependency struct {
	RepoDB        repoDB
	RepoCache     repoCache
	RepoMessaging repoMessaging
	Idempotency   idempotency.Idempotency
	Validator     validator.Validator
	Config        config.Config
	HMAC          hash.Hash
	Password      hash.Hash
	Sealer        sealer.Sealer
	UID           uid.NumberID
	Totp          otp.OTP
	Clock         clock.Clocker
	Instrument    instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:        dep.RepoDB,
		repoCache:     dep.RepoCache,
		repoMessaging: dep.RepoMessaging,
		idemp:         dep.Idempotency,
		validator:     dep.Validator,
		cfg:           dep.Config,
		hmac:          dep.HMAC,
		password:      dep.Password,
		sealer:        dep.Sealer,
		uid:           dep.UID,
		totp:          dep.Totp,
		clock:         dep.Clock,
		ins:           dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("identity.usecase").Start(ctx, name)
}

func (s *Usecase) otpTTL() time.Duration {
	if d := s.cfg.GetSecond("modules.identity.otp.ttl_seconds"); d > 0 {
		return d
	}
	return defaultOTPTTL
}

func (s *Usecase) resendCooldown() time.Duration {
	if d := s.cfg.GetSecond("modules.identity.otp.resend_cooldown_seconds"); d > 0 {
		return d
	}
	return defaultResendCooldown
}

func (s *Usecase) maxAttempts() int {
	if n := s.cfg.GetInt("modules.identity.otp.max_attempts"); n > 0 {
		return n
	}
	return defaultMaxAttempts
}

// emailKey keys Redis records by a keyed digest so addresses stay out of key names.
func (s *Usecase) emailKey(email string) (string, error) {
	digest, err := s.hmac.Hash(email)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

func (s *Usecase) ensureUserStatusAllowed(ctx context.Context, userID int64, status entity.UserStatus) error {
	switch status.Ensure() {
	case entity.UserStatusUnknown:
		slog.WarnContext(ctx, "user account status is unrecognized", "user_id", userID)
		return goerror.NewBusiness("account status is unrecognized", goerror.CodeForbidden)

	case entity.UserStatusBanned:
		slog.WarnContext(ctx, "user account is banned", "user_id", userID)
		return goerror.NewBusiness("account is banned", goerror.CodeForbidden)

	case entity.UserStatusInactive:
		slog.WarnContext(ctx, "user account is inactive", "user_id", userID)
		return goerror.NewBusiness("account is inactive", goerror.CodeForbidden)

	default:
		return nil
	}
}
