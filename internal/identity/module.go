package identity

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/shandysiswandi/dinebook/internal/identity/inbound"
	"github.com/shandysiswandi/dinebook/internal/identity/outbound/cache"
	"github.com/shandysiswandi/dinebook/internal/identity/outbound/db"
	"github.com/shandysiswandi/dinebook/internal/identity/outbound/mq"
	"github.com/shandysiswandi/dinebook/internal/identity/usecase"
	"github.com/shandysiswandi/dinebook/internal/pkg/clock"
	"github.com/shandysiswandi/dinebook/internal/pkg/config"
	"github.com/shandysiswandi/dinebook/internal/pkg/hash"
	"github.com/shandysiswandi/dinebook/internal/pkg/idempotency"
	"github.com/shandysiswandi/dinebook/internal/pkg/instrument"
	"github.com/shandysiswandi/dinebook/internal/pkg/messaging"
	"github.com/shandysiswandi/dinebook/internal/pkg/otp"
	"github.com/shandysiswandi/dinebook/internal/pkg/router"
	"github.com/shandysiswandi/dinebook/internal/pkg/sealer"
	"github.com/shandysiswandi/dinebook/internal/pkg/uid"
	"github.com/shandysiswandi/dinebook/internal/pkg/validator"
)

type Dependency struct {
	DBConn      *pgxpool.Pool              `validate:"required"`
	CacheConn   redis.UniversalClient      `validate:"required"`
	Router      *router.Router             `validate:"required"`
	Idempotency idempotency.Idempotency    `validate:"required"`
	Messaging   messaging.Messaging        `validate:"required"`
	Config      config.Config              `validate:"required"`
	Instrument  instrument.Instrumentation `validate:"required"`
	UID         uid.NumberID               `validate:"required"`
	HMAC        hash.Hash                  `validate:"required"`
	Password    hash.Hash                  `validate:"required"`
	Sealer      sealer.Sealer              `validate:"required"`
	Clock       clock.Clocker              `validate:"required"`
	Totp        otp.OTP                    `validate:"required"`
	Validator   validator.Validator        `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	uc := usecase.New(usecase.Dependency{
		RepoDB:        db.NewDB(dep.DBConn, dep.Instrument),
		RepoCache:     cache.NewCache(dep.CacheConn, dep.Instrument),
		RepoMessaging: mq.NewMessaging(dep.Messaging, dep.Instrument),
		Idempotency:   dep.Idempotency,
		Validator:     dep.Validator,
		Config:        dep.Config,
		HMAC:          dep.HMAC,
		Password:      dep.Password,
		Sealer:        dep.Sealer,
		UID:           dep.UID,
		Totp:          dep.Totp,
		Clock:         dep.Clock,
		Instrument:    dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}
