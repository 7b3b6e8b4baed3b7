package inbound

import (
	"github.com/shandysiswandi/dinebook/internal/identity/usecase"
	"github.com/shandysiswandi/dinebook/internal/pkg/router"
)

type HTTPEndpoint struct {
	uc uc
}

// PasswordForgot emails a reset OTP. The reply is the same whether or not
// the address belongs to an account.
func (h *HTTPEndpoint) PasswordForgot(r *router.Request) (any, error) {
	var req PasswordForgotRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.PasswordForgot(r.Context(), usecase.PasswordForgotInput{Email: req.Email}); err != nil {
		return nil, err
	}

	return &PasswordForgotResponse{}, nil
}

// PasswordReset sets a new password using the emailed OTP.
func (h *HTTPEndpoint) PasswordReset(r *router.Request) (any, error) {
	var req PasswordResetRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.PasswordReset(r.Context(), usecase.PasswordResetInput{
		Email:       req.Email,
		OTP:         req.OTP,
		NewPassword: req.NewPassword,
	}); err != nil {
		return nil, err
	}

	return &PasswordResetResponse{}, nil
}
