package resetflow

// DefaultOTPSeconds is the lifetime of a code on the reset screen.
const DefaultOTPSeconds = 120

type TimerState int

const (
	TimerRunning TimerState = iota
	TimerExpired
)

func (s TimerState) String() string {
	if s == TimerExpired {
		return "Expired"
	}
	return "Running"
}

// Timer counts down whole seconds and reports expiry exactly once.
// It holds no goroutine; the flow's event loop drives Tick.
type Timer struct {
	remaining int
	state     TimerState
	notified  bool
}

// NewTimer starts Running. Non-positive seconds fall back to DefaultOTPSeconds.
func NewTimer(seconds int) *Timer {
	if seconds <= 0 {
		seconds = DefaultOTPSeconds
	}
	return &Timer{remaining: seconds}
}

// Tick advances one second. It returns true only on the tick that moves the
// timer to Expired.
func (t *Timer) Tick() bool {
	if t.state != TimerRunning {
		return false
	}
	if t.remaining > 0 {
		t.remaining--
	}
	if t.remaining == 0 && !t.notified {
		t.state = TimerExpired
		t.notified = true
		return true
	}
	return false
}

func (t *Timer) Remaining() int { return t.remaining }

func (t *Timer) State() TimerState { return t.state }

// Active reports whether a submission may still be attempted.
func (t *Timer) Active() bool { return t.state == TimerRunning && t.remaining > 0 }
