package inbound

import (
	"context"

	"github.com/shandysiswandi/dinebook/internal/notification/usecase"
)

type uc interface {
	ConsumeUserForgotPassword(ctx context.Context, in usecase.ConsumeUserForgotPasswordInput) error
}
