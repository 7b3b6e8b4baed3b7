package resetflow

import "time"

// State is the reset screen's position in the flow.
type State int

const (
	StateCollectingInput State = iota
	StateDone
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateDone:
		return "Done"
	case StateExpired:
		return "Expired"
	default:
		return "CollectingInput"
	}
}

// session is the state of one visit to the reset screen. Only the flow's
// event loop touches it.
type session struct {
	email    string
	code     Code
	password string
	timer    *Timer
	state    State
}

func newSession(email string, seconds int) *session {
	return &session{email: email, timer: NewTimer(seconds)}
}

// Status is a point-in-time copy of the session for display.
type Status struct {
	State     State
	Timer     TimerState
	Remaining int
	Slots     [CodeLength]string
	Focus     int
	Email     string
	InFlight  bool
}

func (s *session) status() Status {
	return Status{
		State:     s.state,
		Timer:     s.timer.State(),
		Remaining: s.timer.Remaining(),
		Slots:     s.code.Slots(),
		Focus:     s.code.Focus(),
		Email:     s.email,
	}
}

// Ticker is the periodic tick source of a flow.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFunc creates a Ticker firing every d.
type TickerFunc func(d time.Duration) Ticker

type systemTicker struct {
	t *time.Ticker
}

func (s systemTicker) C() <-chan time.Time { return s.t.C }

func (s systemTicker) Stop() { s.t.Stop() }

// NewSystemTicker is the wall-clock TickerFunc.
func NewSystemTicker(d time.Duration) Ticker {
	return systemTicker{t: time.NewTicker(d)}
}
