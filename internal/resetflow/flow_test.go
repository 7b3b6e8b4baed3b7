package resetflow

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"
)

type harness struct {
	flow   *Flow
	ticker *fakeTicker
	rec    *recorder
	gw     *fakeGateway
	runErr chan error
	cancel context.CancelFunc
}

func startFlow(t *testing.T, gw *fakeGateway, seconds int) *harness {
	t.Helper()

	h := &harness{ticker: newFakeTicker(), rec: &recorder{}, gw: gw, runErr: make(chan error, 1)}
	h.flow = NewFlow(Config{
		Email:      "diner@example.com",
		OTPSeconds: seconds,
		Gateway:    gw,
		Notifier:   h.rec,
		Navigator:  h.rec,
		NewTicker:  h.ticker.fn,
	})

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	t.Cleanup(cancel)
	go func() { h.runErr <- h.flow.Run(ctx) }()
	return h
}

func (h *harness) tick() { h.ticker.c <- time.Now() }

func (h *harness) status(t *testing.T) Status {
	t.Helper()
	st, err := h.flow.Status(context.Background())
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	return st
}

func TestFlow_SubmitSuccess(t *testing.T) {
	// Arrange
	gw := &fakeGateway{reply: Reply{Message: MsgResetComplete, StatusCode: 200}}
	h := startFlow(t, gw, DefaultOTPSeconds)
	ctx := context.Background()

	if _, err := h.flow.Paste(ctx, "123456"); err != nil {
		t.Fatalf("Paste() error = %v", err)
	}
	if err := h.flow.SetPassword(ctx, "n3w-Passw0rd"); err != nil {
		t.Fatalf("SetPassword() error = %v", err)
	}

	// Act
	err := h.flow.Submit(ctx)

	// Assert
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	want := ResetRequest{Email: "diner@example.com", OTP: "123456", NewPassword: "n3w-Passw0rd"}
	if len(gw.resets) != 1 || gw.resets[0] != want {
		t.Fatalf("requests = %+v, want [%+v]", gw.resets, want)
	}
	if got := h.rec.navigations(); !slices.Equal(got, []Screen{ScreenLogin}) {
		t.Fatalf("navigations = %v", got)
	}
	select {
	case err := <-h.runErr:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("Run() did not return after Done")
	}
	if !h.ticker.stopped.Load() {
		t.Fatalf("ticker not stopped")
	}
}

func TestFlow_SubmitRejected(t *testing.T) {
	gw := &fakeGateway{reply: Reply{Message: "Invalid OTP", StatusCode: 401}}
	h := startFlow(t, gw, DefaultOTPSeconds)
	ctx := context.Background()
	h.flow.Paste(ctx, "000000")

	err := h.flow.Submit(ctx)

	if !errors.Is(err, ErrServerRejection) {
		t.Fatalf("Submit() error = %v, want ServerRejection", err)
	}
	var ferr *Error
	if !errors.As(err, &ferr) || ferr.Message != "Invalid OTP" {
		t.Fatalf("error message = %v", err)
	}
	if got := h.rec.failures(); !slices.Equal(got, []string{"Invalid OTP"}) {
		t.Fatalf("failures = %v", got)
	}

	h.tick()
	st := h.status(t)
	if st.State != StateCollectingInput || st.Remaining != DefaultOTPSeconds-1 {
		t.Fatalf("status = %+v", st)
	}
	if st.Slots != [CodeLength]string{"0", "0", "0", "0", "0", "0"} {
		t.Fatalf("slots cleared after rejection: %q", st.Slots)
	}
}

func TestFlow_SubmitTransportFailure(t *testing.T) {
	gw := &fakeGateway{err: errors.New("dial tcp: connection refused")}
	h := startFlow(t, gw, DefaultOTPSeconds)

	err := h.flow.Submit(context.Background())

	if !errors.Is(err, ErrTransportFailure) {
		t.Fatalf("Submit() error = %v, want TransportFailure", err)
	}
	if errors.Is(err, ErrServerRejection) {
		t.Fatalf("transport failure reported as rejection")
	}
	if got := h.rec.failures(); !slices.Equal(got, []string{MsgTransportFailure}) {
		t.Fatalf("failures = %v", got)
	}
}

func TestFlow_Expiry(t *testing.T) {
	// Arrange
	gw := &fakeGateway{reply: Reply{Message: MsgResetComplete}}
	h := startFlow(t, gw, 1)
	ctx := context.Background()
	h.flow.Paste(ctx, "123456")

	// Act
	h.tick()

	// Assert
	st := h.status(t)
	if st.State != StateExpired || st.Remaining != 0 {
		t.Fatalf("status = %+v", st)
	}
	if st.Slots != [CodeLength]string{} {
		t.Fatalf("slots not cleared: %q", st.Slots)
	}
	if !h.ticker.stopped.Load() {
		t.Fatalf("ticker not stopped on expiry")
	}

	if _, err := h.flow.SetDigit(ctx, 0, "1"); !errors.Is(err, ErrOtpExpired) {
		t.Fatalf("SetDigit() error = %v, want OtpExpired", err)
	}
	if _, err := h.flow.Paste(ctx, "123456"); !errors.Is(err, ErrOtpExpired) {
		t.Fatalf("Paste() error = %v, want OtpExpired", err)
	}

	if err := h.flow.Submit(ctx); !errors.Is(err, ErrOtpExpired) {
		t.Fatalf("Submit() error = %v, want OtpExpired", err)
	}
	if gw.calls() != 0 {
		t.Fatalf("network called %d times after expiry", gw.calls())
	}
	if got := h.rec.navigations(); !slices.Equal(got, []Screen{ScreenRequestOTP}) {
		t.Fatalf("navigations = %v", got)
	}

	expiryNotices := 0
	for _, msg := range h.rec.failures() {
		if msg == MsgOtpExpired {
			expiryNotices++
		}
	}
	if expiryNotices != 1 {
		t.Fatalf("expiry notified %d times", expiryNotices)
	}
}

func TestFlow_SubmitInFlight(t *testing.T) {
	// Arrange
	gw := &fakeGateway{reply: Reply{Message: MsgResetComplete}, release: make(chan struct{})}
	h := startFlow(t, gw, DefaultOTPSeconds)
	ctx := context.Background()

	first := make(chan error, 1)
	go func() { first <- h.flow.Submit(ctx) }()
	waitFor(t, func() bool { return gw.calls() == 1 })

	// Act
	second := h.flow.Submit(ctx)

	// Assert
	if !errors.Is(second, ErrSubmitInFlight) {
		t.Fatalf("second Submit() error = %v, want SubmitInFlight", second)
	}
	if gw.calls() != 1 {
		t.Fatalf("network called %d times", gw.calls())
	}

	h.tick()
	if st := h.status(t); st.Remaining != DefaultOTPSeconds-1 || !st.InFlight {
		t.Fatalf("status while in flight = %+v", st)
	}

	close(gw.release)
	if err := <-first; err != nil {
		t.Fatalf("first Submit() error = %v", err)
	}
}

func TestFlow_SubmitAfterExpiryWhileInFlight(t *testing.T) {
	// Arrange
	gw := &fakeGateway{reply: Reply{Message: "Invalid OTP"}, release: make(chan struct{})}
	h := startFlow(t, gw, 1)
	ctx := context.Background()

	first := make(chan error, 1)
	go func() { first <- h.flow.Submit(ctx) }()
	waitFor(t, func() bool { return gw.calls() == 1 })
	h.tick()
	if st := h.status(t); st.State != StateExpired || !st.InFlight {
		t.Fatalf("status = %+v", st)
	}

	// Act
	second := h.flow.Submit(ctx)

	// Assert
	if !errors.Is(second, ErrOtpExpired) {
		t.Fatalf("second Submit() error = %v, want OtpExpired", second)
	}
	if errors.Is(second, ErrSubmitInFlight) {
		t.Fatalf("second Submit() reported SubmitInFlight")
	}
	if gw.calls() != 1 {
		t.Fatalf("network called %d times", gw.calls())
	}
	if got := h.rec.navigations(); !slices.Equal(got, []Screen{ScreenRequestOTP}) {
		t.Fatalf("navigations = %v", got)
	}

	close(gw.release)
	if err := <-first; !errors.Is(err, ErrServerRejection) {
		t.Fatalf("first Submit() error = %v, want ServerRejection", err)
	}
	if st := h.status(t); st.State != StateExpired {
		t.Fatalf("state after late rejection = %v, want Expired", st.State)
	}
}

func TestFlow_CancelStopsTicker(t *testing.T) {
	h := startFlow(t, &fakeGateway{}, DefaultOTPSeconds)
	h.status(t)

	h.cancel()

	if err := <-h.runErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v", err)
	}
	if !h.ticker.stopped.Load() {
		t.Fatalf("ticker not stopped on teardown")
	}
	if _, err := h.flow.SetDigit(context.Background(), 0, "1"); !errors.Is(err, ErrClosed) {
		t.Fatalf("SetDigit() after teardown error = %v", err)
	}
}

func TestFlow_RunTwice(t *testing.T) {
	h := startFlow(t, &fakeGateway{}, DefaultOTPSeconds)
	h.status(t)

	if err := h.flow.Run(context.Background()); !errors.Is(err, errAlreadyRunning) {
		t.Fatalf("second Run() error = %v", err)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
