package resetflow

import (
	"context"
	"log/slog"
	"strings"
)

// Requester drives the forgot-password screen.
type Requester struct {
	gw     Gateway
	notify Notifier
	nav    Navigator
}

func NewRequester(gw Gateway, notify Notifier, nav Navigator) *Requester {
	return &Requester{gw: gw, notify: notify, nav: nav}
}

// RequestOTP asks the server to send a code to email. On success the user is
// sent to the reset screen; nothing is retried automatically.
func (r *Requester) RequestOTP(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		r.notify.Failure(MsgEmailRequired)
		return newError(KindValidation, MsgEmailRequired, nil)
	}

	reply, err := r.gw.ForgotPassword(ctx, email)
	if err != nil {
		slog.ErrorContext(ctx, "forgot password request failed", "email", email, "error", err)
		r.notify.Failure(MsgTransportFailure)
		return newError(KindTransportFailure, MsgTransportFailure, err)
	}

	if reply.Message != MsgOTPSent {
		slog.WarnContext(ctx, "forgot password rejected", "email", email, "status", reply.StatusCode, "message", reply.Message)
		r.notify.Failure(reply.Message)
		return newError(KindServerRejection, reply.Message, nil)
	}

	r.notify.Success(reply.Message)
	r.nav.Navigate(ScreenResetPassword)
	return nil
}
