// Package terminal is a line-oriented front end for the reset flow.
package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/shandysiswandi/dinebook/internal/resetflow"
)

const help = `commands:
  email <addr>        set the account email
  request             send an OTP to the email
  digit <1-6> <char>  fill one OTP cell
  paste <text>        paste a code into the cells
  password <value>    set the new password
  submit              reset the password
  status              show the timer and cells
  help                show this text
  quit                leave`

type Config struct {
	In         io.Reader
	Out        io.Writer
	Gateway    resetflow.Gateway
	OTPSeconds int
	// NewTicker is passed to every reset flow; nil uses the wall clock.
	NewTicker resetflow.TickerFunc
}

// Terminal reads commands line by line and prints notifications. It is the
// Notifier and Navigator of the flows it starts.
type Terminal struct {
	cfg Config

	mu     sync.Mutex
	out    io.Writer
	screen resetflow.Screen
	next   resetflow.Screen

	email     string
	requester *resetflow.Requester
	flow      *resetflow.Flow
	stopFlow  context.CancelFunc
}

func New(cfg Config) *Terminal {
	t := &Terminal{cfg: cfg, out: cfg.Out, screen: resetflow.ScreenRequestOTP}
	t.requester = resetflow.NewRequester(cfg.Gateway, t, t)
	return t
}

func (t *Terminal) printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, format, args...)
}

func (t *Terminal) Success(msg string) { t.printf("[ok] %s\n", msg) }

func (t *Terminal) Failure(msg string) { t.printf("[error] %s\n", msg) }

// Navigate records the destination; the command loop switches screens after
// the current command returns.
func (t *Terminal) Navigate(to resetflow.Screen) {
	t.mu.Lock()
	t.next = to
	t.mu.Unlock()
}

// Run blocks until quit, end of input, ctx cancellation or the login screen.
func (t *Terminal) Run(ctx context.Context) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(t.cfg.In)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	defer t.closeFlow()

	t.printf("%s\n", help)
	for {
		t.printf("%s> ", t.screen)

		var line string
		var ok bool
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok = <-lines:
			if !ok {
				return nil
			}
		}

		quit, err := t.exec(ctx, line)
		if err != nil {
			t.Failure(message(err))
		}
		if quit {
			return nil
		}
		if t.switchScreen(ctx) == resetflow.ScreenLogin {
			t.printf("password changed, continue on the login screen\n")
			return nil
		}
	}
}

// shown drops errors the flow already reported through Failure.
func shown(err error) error {
	var ferr *resetflow.Error
	if errors.As(err, &ferr) && ferr.Kind != resetflow.KindClosed {
		return nil
	}
	return err
}

func message(err error) string {
	var ferr *resetflow.Error
	if errors.As(err, &ferr) {
		return ferr.Message
	}
	return err.Error()
}

func (t *Terminal) exec(ctx context.Context, line string) (bool, error) {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(cmd) {
	case "":
		return false, nil
	case "help":
		t.printf("%s\n", help)
	case "quit", "exit":
		return true, nil
	case "email":
		t.email = arg
		if t.flow != nil {
			return false, t.flow.SetEmail(ctx, arg)
		}
	case "request":
		return false, shown(t.requester.RequestOTP(ctx, t.email))
	case "digit":
		return false, t.digit(ctx, arg)
	case "paste":
		if t.flow == nil {
			return false, errNoCode
		}
		focus, err := t.flow.Paste(ctx, arg)
		if err == nil {
			t.printf("focus on cell %d\n", focus+1)
		}
		return false, err
	case "password":
		if t.flow == nil {
			return false, errNoCode
		}
		return false, t.flow.SetPassword(ctx, arg)
	case "submit":
		if t.flow == nil {
			return false, errNoCode
		}
		return false, shown(t.flow.Submit(ctx))
	case "status":
		return false, t.status(ctx)
	default:
		t.printf("unknown command %q, type help\n", cmd)
	}
	return false, nil
}

var (
	errNoCode     = errors.New("request an OTP first")
	errDigitUsage = errors.New("usage: digit <1-6> <char>")
)

func (t *Terminal) digit(ctx context.Context, arg string) error {
	if t.flow == nil {
		return errNoCode
	}
	pos, ch, _ := strings.Cut(arg, " ")
	cell, err := strconv.Atoi(pos)
	if err != nil || cell < 1 || cell > resetflow.CodeLength {
		return errDigitUsage
	}

	focus, err := t.flow.SetDigit(ctx, cell-1, strings.TrimSpace(ch))
	if err != nil {
		return err
	}
	t.printf("focus on cell %d\n", focus+1)
	return nil
}

func (t *Terminal) status(ctx context.Context) error {
	if t.flow == nil {
		t.printf("screen %s, email %q\n", t.screen, t.email)
		return nil
	}
	st, err := t.flow.Status(ctx)
	if err != nil {
		return err
	}

	cells := make([]string, len(st.Slots))
	for i, s := range st.Slots {
		cells[i] = "_"
		if s != "" {
			cells[i] = s
		}
	}
	t.printf("state %s, %ds left, code [%s], email %q\n", st.State, st.Remaining, strings.Join(cells, " "), st.Email)
	return nil
}

func (t *Terminal) switchScreen(ctx context.Context) resetflow.Screen {
	t.mu.Lock()
	next := t.next
	t.next = ""
	t.mu.Unlock()

	// A new code on the reset screen restarts the session.
	if next == "" || (next == t.screen && next != resetflow.ScreenResetPassword) {
		return t.screen
	}

	t.closeFlow()
	t.screen = next
	if next == resetflow.ScreenResetPassword {
		t.startFlow(ctx)
	}
	return next
}

func (t *Terminal) startFlow(ctx context.Context) {
	flowCtx, cancel := context.WithCancel(ctx)
	flow := resetflow.NewFlow(resetflow.Config{
		Email:      t.email,
		OTPSeconds: t.cfg.OTPSeconds,
		Gateway:    t.cfg.Gateway,
		Notifier:   t,
		Navigator:  t,
		NewTicker:  t.cfg.NewTicker,
	})
	t.flow, t.stopFlow = flow, cancel
	go func() { _ = flow.Run(flowCtx) }()
}

func (t *Terminal) closeFlow() {
	if t.stopFlow != nil {
		t.stopFlow()
		<-t.flow.Done()
	}
	t.flow, t.stopFlow = nil, nil
}
