package terminal

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/dinebook/internal/resetflow"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type stubGateway struct {
	forgot resetflow.Reply
	reset  resetflow.Reply
	resets []resetflow.ResetRequest
}

func (g *stubGateway) ForgotPassword(context.Context, string) (resetflow.Reply, error) {
	return g.forgot, nil
}

func (g *stubGateway) ResetPassword(_ context.Context, req resetflow.ResetRequest) (resetflow.Reply, error) {
	g.resets = append(g.resets, req)
	return g.reset, nil
}

type manualTicker struct{ c chan time.Time }

func (m manualTicker) C() <-chan time.Time { return m.c }

func (manualTicker) Stop() {}

func TestTerminal_HappyPath(t *testing.T) {
	// Arrange
	gw := &stubGateway{
		forgot: resetflow.Reply{Message: resetflow.MsgOTPSent},
		reset:  resetflow.Reply{Message: resetflow.MsgResetComplete},
	}
	out := &syncBuffer{}
	in := strings.NewReader(strings.Join([]string{
		"email diner@example.com",
		"request",
		"digit 1 9",
		"paste 123456",
		"password s3cret-pass",
		"status",
		"submit",
		"status",
	}, "\n"))
	ticker := manualTicker{c: make(chan time.Time)}
	term := New(Config{In: in, Out: out, Gateway: gw, OTPSeconds: 120, NewTicker: func(time.Duration) resetflow.Ticker { return ticker }})

	// Act
	err := term.Run(context.Background())

	// Assert
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	text := out.String()
	for _, want := range []string{
		"[ok] OTP sent successfully",
		"code [1 2 3 4 5 6]",
		"[ok] Password reset successfully",
		"continue on the login screen",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("output missing %q:\n%s", want, text)
		}
	}
	if len(gw.resets) != 1 || gw.resets[0].OTP != "123456" || gw.resets[0].Email != "diner@example.com" {
		t.Fatalf("resets = %+v", gw.resets)
	}
}

func TestTerminal_ExpiredCodeSendsBack(t *testing.T) {
	// Arrange
	gw := &stubGateway{forgot: resetflow.Reply{Message: resetflow.MsgOTPSent}}
	out := &syncBuffer{}
	pr, pw := io.Pipe()
	ticker := manualTicker{c: make(chan time.Time)}
	term := New(Config{In: pr, Out: out, Gateway: gw, OTPSeconds: 1, NewTicker: func(time.Duration) resetflow.Ticker { return ticker }})

	done := make(chan error, 1)
	go func() { done <- term.Run(context.Background()) }()

	// Act
	io.WriteString(pw, "email diner@example.com\nrequest\n")
	ticker.c <- time.Now()
	io.WriteString(pw, "paste 123456\nsubmit\nstatus\n")
	pw.Close()

	// Assert
	if err := <-done; err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	text := out.String()
	for _, want := range []string{
		"[error] OTP expired",
		"[error] OTP has expired, please request a new one",
		"screen request-otp",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("output missing %q:\n%s", want, text)
		}
	}
	if len(gw.resets) != 0 {
		t.Fatalf("reset called after expiry: %+v", gw.resets)
	}
}

func TestTerminal_NewCodeRestartsSession(t *testing.T) {
	// Arrange
	gw := &stubGateway{forgot: resetflow.Reply{Message: resetflow.MsgOTPSent}}
	out := &syncBuffer{}
	in := strings.NewReader(strings.Join([]string{
		"email diner@example.com",
		"request",
		"paste 123456",
		"request",
		"status",
		"quit",
	}, "\n"))
	ticker := manualTicker{c: make(chan time.Time)}
	term := New(Config{In: in, Out: out, Gateway: gw, OTPSeconds: 120, NewTicker: func(time.Duration) resetflow.Ticker { return ticker }})

	// Act
	err := term.Run(context.Background())

	// Assert
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if text := out.String(); !strings.Contains(text, "120s left, code [_ _ _ _ _ _]") {
		t.Fatalf("second request did not start a fresh session:\n%s", text)
	}
	if term.flow != nil {
		t.Fatalf("flow still open after Run returned")
	}
}

func TestTerminal_CommandsBeforeRequest(t *testing.T) {
	out := &syncBuffer{}
	term := New(Config{In: strings.NewReader("submit\ndigit 9 1\nrequest\nbogus\nquit\nstatus\n"), Out: out, Gateway: &stubGateway{}})

	if err := term.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	text := out.String()
	for _, want := range []string{"[error] request an OTP first", "[error] Email is required", `unknown command "bogus"`} {
		if !strings.Contains(text, want) {
			t.Fatalf("output missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "screen request-otp, email") {
		t.Fatalf("commands after quit were executed:\n%s", text)
	}
}
