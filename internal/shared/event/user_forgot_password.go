package event

const UserForgotPasswordDestination string = "user_forgot_password"
const UserForgotPasswordConsumerNotification string = "user_forgot_password_notification"

type UserForgotPasswordMessage struct {
	EventID          int64  `json:"event_id"`
	UserID           int64  `json:"user_id"`
	Email            string `json:"email"`
	OTP              string `json:"otp"`
	ExpiresInSeconds int    `json:"expires_in_seconds"`
}
