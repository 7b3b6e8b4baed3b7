package resetflow

import (
	"context"
	"sync"
	"time"

	"go.uber.org/atomic"
)

type fakeTicker struct {
	c       chan time.Time
	stopped *atomic.Bool
}

func newFakeTicker() *fakeTicker {
	return &fakeTicker{c: make(chan time.Time), stopped: atomic.NewBool(false)}
}

func (f *fakeTicker) C() <-chan time.Time { return f.c }

func (f *fakeTicker) Stop() { f.stopped.Store(true) }

func (f *fakeTicker) fn(time.Duration) Ticker { return f }

type recorder struct {
	mu      sync.Mutex
	success []string
	failure []string
	screens []Screen
}

func (r *recorder) Success(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.success = append(r.success, msg)
}

func (r *recorder) Failure(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failure = append(r.failure, msg)
}

func (r *recorder) Navigate(to Screen) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.screens = append(r.screens, to)
}

func (r *recorder) failures() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.failure...)
}

func (r *recorder) navigations() []Screen {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Screen(nil), r.screens...)
}

type fakeGateway struct {
	mu      sync.Mutex
	resets  []ResetRequest
	forgots []string
	reply   Reply
	err     error

	// release, when set, blocks ResetPassword until it is closed.
	release chan struct{}
}

func (g *fakeGateway) ForgotPassword(_ context.Context, email string) (Reply, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.forgots = append(g.forgots, email)
	return g.reply, g.err
}

func (g *fakeGateway) ResetPassword(ctx context.Context, req ResetRequest) (Reply, error) {
	g.mu.Lock()
	g.resets = append(g.resets, req)
	release := g.release
	g.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return Reply{}, ctx.Err()
		}
	}
	return g.reply, g.err
}

func (g *fakeGateway) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.resets)
}
