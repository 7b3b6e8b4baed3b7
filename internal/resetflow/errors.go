package resetflow

import "fmt"

// ErrorKind classifies why a flow operation failed.
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindOtpExpired
	KindServerRejection
	KindTransportFailure
	KindSubmitInFlight
	KindClosed
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindOtpExpired:
		return "OtpExpired"
	case KindServerRejection:
		return "ServerRejection"
	case KindTransportFailure:
		return "TransportFailure"
	case KindSubmitInFlight:
		return "SubmitInFlight"
	case KindClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// Error is returned by every flow operation. Message is what the user sees.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrOtpExpired)
// holds regardless of the message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrValidation       = &Error{Kind: KindValidation, Message: "invalid input"}
	ErrOtpExpired       = &Error{Kind: KindOtpExpired, Message: MsgOtpExpired}
	ErrServerRejection  = &Error{Kind: KindServerRejection, Message: "request rejected"}
	ErrTransportFailure = &Error{Kind: KindTransportFailure, Message: MsgTransportFailure}
	ErrSubmitInFlight   = &Error{Kind: KindSubmitInFlight, Message: MsgSubmitInFlight}
	ErrClosed           = &Error{Kind: KindClosed, Message: "reset session is closed"}
)

// User-facing notification texts.
const (
	MsgOtpExpired       = "OTP expired"
	MsgRequestNewOTP    = "OTP has expired, please request a new one"
	MsgTransportFailure = "Something went wrong, please try again"
	MsgSubmitInFlight   = "A reset request is already being processed"
	MsgEmailRequired    = "Email is required"
)

func newError(kind ErrorKind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}
