package inbound

import (
	"context"

	"github.com/shandysiswandi/dinebook/internal/identity/usecase"
	"github.com/shandysiswandi/dinebook/internal/pkg/router"
)

type uc interface {
	PasswordForgot(ctx context.Context, in usecase.PasswordForgotInput) error
	PasswordReset(ctx context.Context, in usecase.PasswordResetInput) error
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// Password Management
	r.POST("/api/users/forgot-password", end.PasswordForgot)
	r.POST("/api/users/reset-password", end.PasswordReset)
}
