// Package goroutine runs background work under a bounded semaphore with
// panic recovery. Consumers, email retries and event fan-out all go through it.
package goroutine

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"

	"go.uber.org/atomic"

	"github.com/shandysiswandi/dinebook/internal/pkg/stacktrace"
)

// DefaultMaxGoroutine is multiplied by NumCPU when no limit is given.
const DefaultMaxGoroutine int = 100

// ErrPanic is recorded in Wait's result when a task panicked.
var ErrPanic = errors.New("goroutine panicked")

// Manager bounds concurrency and collects task errors.
type Manager struct {
	wg     sync.WaitGroup
	sema   chan struct{}
	closed *atomic.Bool
	// gate makes Go and Wait mutually exclusive around closed.
	gate sync.RWMutex

	mu   sync.Mutex
	errs []error
}

// NewManager returns a Manager that runs at most limit tasks at once.
func NewManager(limit int) *Manager {
	if limit < 1 {
		limit = runtime.NumCPU() * DefaultMaxGoroutine
	}
	return &Manager{
		sema:   make(chan struct{}, limit),
		closed: atomic.NewBool(false),
	}
}

// Go runs f in the background. It returns false without running f when the
// manager is closed or full.
func (m *Manager) Go(ctx context.Context, f func(ctx context.Context) error) bool {
	if m == nil {
		return false
	}

	m.gate.RLock()
	defer m.gate.RUnlock()

	if m.closed.Load() {
		slog.WarnContext(ctx, "goroutine manager closed, task dropped")
		return false
	}

	select {
	case m.sema <- struct{}{}:
	default:
		slog.WarnContext(ctx, "goroutine limit reached, task dropped", "limit", cap(m.sema))
		return false
	}

	m.wg.Go(func() {
		defer func() { <-m.sema }()
		defer m.recover(ctx)

		if err := ctx.Err(); err != nil {
			slog.WarnContext(ctx, "goroutine canceled before start", "because", err)
			return
		}
		if err := f(ctx); err != nil {
			m.record(err)
		}
	})
	return true
}

func (m *Manager) recover(ctx context.Context) {
	rvr := recover()
	if rvr == nil {
		return
	}

	stack := debug.Stack()
	if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
		slog.ErrorContext(ctx, "panic occurred in goroutine", "panic", rvr, "stack", paths)
	} else {
		slog.ErrorContext(ctx, "panic occurred in goroutine", "panic", rvr, "stack", string(stack))
	}
	m.record(ErrPanic)
}

func (m *Manager) record(err error) {
	m.mu.Lock()
	m.errs = append(m.errs, err)
	m.mu.Unlock()
}

// Wait closes the manager, blocks until running tasks return and joins their errors.
func (m *Manager) Wait() error {
	if m == nil {
		return nil
	}

	m.gate.Lock()
	m.closed.Store(true)
	m.gate.Unlock()

	m.wg.Wait()

	m.mu.Lock()
	defer m.mu.Unlock()
	return errors.Join(m.errs...)
}
