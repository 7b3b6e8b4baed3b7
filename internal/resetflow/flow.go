// Package resetflow is the client side of password reset by OTP: a request
// step that asks the server for a code, and a reset screen with a countdown,
// six code cells, paste support and a single submission at a time.
package resetflow

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.uber.org/atomic"
)

var errAlreadyRunning = errors.New("resetflow: flow is already running")

type Config struct {
	Email      string
	OTPSeconds int
	Gateway    Gateway
	Notifier   Notifier
	Navigator  Navigator
	// NewTicker defaults to NewSystemTicker.
	NewTicker TickerFunc
}

type submitResult struct {
	reply Reply
	err   error
	done  chan<- error
}

// Flow owns one reset screen session. Run is its event loop: the one-second
// tick, user commands and submission results are all applied there, one at
// a time. The other methods are safe to call from any goroutine while Run
// is active.
type Flow struct {
	s *session

	gw        Gateway
	notify    Notifier
	nav       Navigator
	newTicker TickerFunc

	cmds    chan func()
	results chan submitResult
	closed  chan struct{}

	started  *atomic.Bool
	inFlight *atomic.Bool
}

func NewFlow(cfg Config) *Flow {
	nt := cfg.NewTicker
	if nt == nil {
		nt = NewSystemTicker
	}

	return &Flow{
		s:         newSession(strings.TrimSpace(cfg.Email), cfg.OTPSeconds),
		gw:        cfg.Gateway,
		notify:    cfg.Notifier,
		nav:       cfg.Navigator,
		newTicker: nt,
		cmds:      make(chan func()),
		results:   make(chan submitResult),
		closed:    make(chan struct{}),
		started:   atomic.NewBool(false),
		inFlight:  atomic.NewBool(false),
	}
}

// Run processes events until ctx is canceled or the reset succeeds. The tick
// source is stopped on return and as soon as the timer expires.
func (f *Flow) Run(ctx context.Context) error {
	if !f.started.CompareAndSwap(false, true) {
		return errAlreadyRunning
	}
	defer close(f.closed)

	ticker := f.newTicker(time.Second)
	defer ticker.Stop()
	tick := ticker.C()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-tick:
			if f.s.timer.Tick() {
				f.expire(ctx)
				ticker.Stop()
				tick = nil
			}

		case cmd := <-f.cmds:
			cmd()

		case res := <-f.results:
			f.finishSubmit(ctx, res)
		}

		if f.s.state == StateDone {
			return nil
		}
	}
}

// Done is closed when Run has returned.
func (f *Flow) Done() <-chan struct{} { return f.closed }

func (f *Flow) expire(ctx context.Context) {
	f.s.state = StateExpired
	f.s.code.Clear()
	slog.InfoContext(ctx, "otp expired", "email", f.s.email)
	f.notify.Failure(MsgOtpExpired)
}

// enqueue hands fn to the event loop. The returned channel yields fn's result.
func (f *Flow) enqueue(ctx context.Context, fn func() error) (<-chan error, error) {
	reply := make(chan error, 1)
	select {
	case f.cmds <- func() { reply <- fn() }:
		return reply, nil
	case <-f.closed:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *Flow) wait(ctx context.Context, reply <-chan error) error {
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *Flow) do(ctx context.Context, fn func() error) error {
	reply, err := f.enqueue(ctx, fn)
	if err != nil {
		return err
	}
	return f.wait(ctx, reply)
}

func (f *Flow) editable() error {
	if f.s.state == StateExpired {
		return ErrOtpExpired
	}
	return nil
}

// SetDigit writes ch into cell i (0-based) and returns the focused cell.
func (f *Flow) SetDigit(ctx context.Context, i int, ch string) (int, error) {
	var focus int
	err := f.do(ctx, func() error {
		if err := f.editable(); err != nil {
			return err
		}
		var err error
		focus, err = f.s.code.Set(i, ch)
		return err
	})
	return focus, err
}

// Paste fills the cells from clipboard text and returns the focused cell.
func (f *Flow) Paste(ctx context.Context, text string) (int, error) {
	var focus int
	err := f.do(ctx, func() error {
		if err := f.editable(); err != nil {
			return err
		}
		focus = f.s.code.Paste(text)
		return nil
	})
	return focus, err
}

func (f *Flow) SetEmail(ctx context.Context, email string) error {
	return f.do(ctx, func() error {
		f.s.email = strings.TrimSpace(email)
		return nil
	})
}

func (f *Flow) SetPassword(ctx context.Context, password string) error {
	return f.do(ctx, func() error {
		f.s.password = password
		return nil
	})
}

func (f *Flow) Status(ctx context.Context) (Status, error) {
	var st Status
	err := f.do(ctx, func() error {
		st = f.s.status()
		st.InFlight = f.inFlight.Load()
		return nil
	})
	return st, err
}

// Submit sends the reset request and waits for its outcome. An expired
// timer fails with OtpExpired without touching the network, even while an
// earlier request is outstanding. Otherwise a second call during a request
// fails with SubmitInFlight.
func (f *Flow) Submit(ctx context.Context) error {
	done := make(chan error, 1)
	started, err := f.enqueue(ctx, func() error {
		if !f.s.timer.Active() || f.s.state != StateCollectingInput {
			slog.WarnContext(ctx, "reset submitted after otp expiry", "email", f.s.email)
			f.notify.Failure(MsgRequestNewOTP)
			f.nav.Navigate(ScreenRequestOTP)
			return newError(KindOtpExpired, MsgRequestNewOTP, nil)
		}
		if !f.inFlight.CompareAndSwap(false, true) {
			f.notify.Failure(MsgSubmitInFlight)
			return newError(KindSubmitInFlight, MsgSubmitInFlight, nil)
		}

		req := ResetRequest{Email: f.s.email, OTP: f.s.code.String(), NewPassword: f.s.password}
		go f.send(ctx, req, done)
		return nil
	})
	if err != nil {
		return err
	}
	if err := f.wait(ctx, started); err != nil {
		return err
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *Flow) send(ctx context.Context, req ResetRequest, done chan<- error) {
	reply, err := f.gw.ResetPassword(ctx, req)
	select {
	case f.results <- submitResult{reply: reply, err: err, done: done}:
	case <-f.closed:
		f.inFlight.Store(false)
		done <- ErrClosed
	}
}

func (f *Flow) finishSubmit(ctx context.Context, res submitResult) {
	defer f.inFlight.Store(false)

	switch {
	case res.err != nil:
		slog.ErrorContext(ctx, "reset password request failed", "email", f.s.email, "error", res.err)
		f.notify.Failure(MsgTransportFailure)
		res.done <- newError(KindTransportFailure, MsgTransportFailure, res.err)

	case res.reply.Message == MsgResetComplete:
		slog.InfoContext(ctx, "password reset completed", "email", f.s.email)
		f.s.state = StateDone
		f.notify.Success(res.reply.Message)
		f.nav.Navigate(ScreenLogin)
		res.done <- nil

	default:
		slog.WarnContext(ctx, "reset password rejected", "email", f.s.email, "status", res.reply.StatusCode, "message", res.reply.Message)
		f.notify.Failure(res.reply.Message)
		res.done <- newError(KindServerRejection, res.reply.Message, nil)
	}
}
