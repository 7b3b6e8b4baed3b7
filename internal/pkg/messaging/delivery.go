package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"go.uber.org/atomic"

	"github.com/shandysiswandi/dinebook/internal/pkg/stacktrace"
)

// delivery adapts a driver's native message to Message. ack and nack run
// at most once between them.
type delivery struct {
	body      []byte
	key       []byte
	headers   []Header
	id        string
	topic     string
	timestamp time.Time

	ack  func(ctx context.Context) error
	nack func(ctx context.Context) error

	settled *atomic.Bool
}

func newDelivery(topic string, body []byte) *delivery {
	return &delivery{topic: topic, body: body, timestamp: time.Now(), settled: atomic.NewBool(false)}
}

func (d *delivery) Body() []byte         { return d.body }
func (d *delivery) Key() []byte          { return d.key }
func (d *delivery) Headers() []Header    { return d.headers }
func (d *delivery) ID() string           { return d.id }
func (d *delivery) Topic() string        { return d.topic }
func (d *delivery) Timestamp() time.Time { return d.timestamp }

func (d *delivery) Header(key string) string {
	for _, h := range d.headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (d *delivery) settle(ctx context.Context, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.settled.Swap(true) || fn == nil {
		return nil
	}
	return fn(ctx)
}

func (d *delivery) Ack(ctx context.Context) error  { return d.settle(ctx, d.ack) }
func (d *delivery) Nack(ctx context.Context) error { return d.settle(ctx, d.nack) }

// dispatch runs handler with panic recovery and, when autoAck is set,
// settles the delivery the handler left unsettled.
func dispatch(ctx context.Context, driver string, handler Handler, d *delivery, autoAck bool) (err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			stack := debug.Stack()
			if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
				slog.ErrorContext(ctx, "panic in messaging handler", "driver", driver, "topic", d.topic, "panic", rvr, "stack", paths)
			} else {
				slog.ErrorContext(ctx, "panic in messaging handler", "driver", driver, "topic", d.topic, "panic", rvr, "stack", string(stack))
			}
			err = fmt.Errorf("messaging: panic in %s handler: %v", driver, rvr)
		}

		if !autoAck || d.settled.Load() {
			return
		}
		var serr error
		if err == nil {
			serr = d.Ack(ctx)
		} else {
			serr = d.Nack(ctx)
		}
		if serr != nil {
			slog.WarnContext(ctx, "failed to settle message", "driver", driver, "topic", d.topic, "error", serr)
		}
	}()

	return handler(ctx, d)
}
