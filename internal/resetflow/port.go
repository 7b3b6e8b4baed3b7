package resetflow

import "context"

// Server success sentinels. The message field is the contract with the
// backend; anything else is a rejection.
const (
	MsgOTPSent       = "OTP sent successfully"
	MsgResetComplete = "Password reset successfully"
)

// Screen names a place the flow can send the user.
type Screen string

const (
	ScreenRequestOTP    Screen = "request-otp"
	ScreenResetPassword Screen = "reset-password"
	ScreenLogin         Screen = "login"
)

// Reply is a decoded server response.
type Reply struct {
	Message    string
	StatusCode int
}

type ResetRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

// Gateway performs the two REST calls. A returned error means the exchange
// itself failed (network, timeout, undecodable body).
type Gateway interface {
	ForgotPassword(ctx context.Context, email string) (Reply, error)
	ResetPassword(ctx context.Context, req ResetRequest) (Reply, error)
}

type Notifier interface {
	Success(msg string)
	Failure(msg string)
}

type Navigator interface {
	Navigate(to Screen)
}
