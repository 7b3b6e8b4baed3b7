package inbound

type PasswordForgotRequest struct {
	Email string `json:"email"`
}

type PasswordForgotResponse struct{}

func (PasswordForgotResponse) Message() string {
	return "OTP sent successfully"
}

type PasswordResetRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

type PasswordResetResponse struct{}

func (PasswordResetResponse) Message() string {
	return "Password reset successfully"
}
