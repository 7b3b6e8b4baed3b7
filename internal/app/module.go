package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/dinebook/internal/identity"
	"github.com/shandysiswandi/dinebook/internal/notification"
	"github.com/shandysiswandi/dinebook/internal/pkg/router"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.identity.enabled") {
		if err := identity.New(identity.Dependency{
			DBConn:      a.dbConn,
			CacheConn:   a.cacheConn,
			Router:      a.router,
			Idempotency: a.idemp,
			Messaging:   a.messaging,
			Config:      a.config,
			Instrument:  a.ins,
			UID:         a.uid,
			HMAC:        a.hmac,
			Password:    a.password,
			Sealer:      a.sealer,
			Clock:       a.clock,
			Totp:        a.totp,
			Validator:   a.validator,
		}); err != nil {
			slog.Error("failed to init module identity", "error", err)
			os.Exit(1)
		}
	}

	if a.config.GetBool("modules.notification.enabled") {
		if err := notification.New(notification.Dependency{
			Ctx:        a.ctx,
			DBConn:     a.dbConn,
			Messaging:  a.messaging,
			Config:     a.config,
			Instrument: a.ins,
			UID:        a.uid,
			UUID:       a.uuid,
			Clock:      a.clock,
			Goroutine:  a.goroutine,
			Validator:  a.validator,
			Mail:       a.mail,
		}); err != nil {
			slog.Error("failed to init module notification", "error", err)
			os.Exit(1)
		}
	}
}

type healthResponse struct{}

func (healthResponse) Message() string { return "ok" }

func (a *App) health(*router.Request) (any, error) {
	return healthResponse{}, nil
}
