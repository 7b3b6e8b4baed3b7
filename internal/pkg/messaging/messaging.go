// Package messaging publishes and consumes events over a broker chosen at
// start-up: NSQ, NATS, Kafka, Google Pub/Sub, or an in-process memory bus.
//
// Handlers receive a Message and return an error. With auto-ack enabled a nil
// error acknowledges the delivery and a non-nil error asks the broker to
// redeliver it (where the broker supports that).
package messaging

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrUnsupported is returned for features a driver cannot provide (e.g. delayed publish on NATS).
	ErrUnsupported       = errors.New("messaging: unsupported operation")
	ErrTopicRequired     = errors.New("messaging: topic is required")
	ErrHandlerRequired   = errors.New("messaging: handler is required")
	ErrGroupRequired     = errors.New("messaging: consumer group is required")
	ErrChannelRequired   = errors.New("messaging: channel is required")
	ErrBrokerUnavailable = errors.New("messaging: broker address is required")
)

// Messaging is a broker connection.
type Messaging interface {
	io.Closer
	Publisher
	Consumer
}

type Publisher interface {
	Publish(ctx context.Context, topic string, msg OutgoingMessage) (PublishResult, error)
}

// Consumer blocks in Consume until ctx is canceled or the subscription fails.
type Consumer interface {
	Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error
}

type Handler func(ctx context.Context, msg Message) error

// OutgoingMessage is what publishers send.
type OutgoingMessage struct {
	Body    []byte
	Key     []byte
	Headers []Header
	// OrderingKey is honored by Pub/Sub only.
	OrderingKey string
	// Delay is honored by NSQ and the memory bus.
	Delay time.Duration
}

type Header struct {
	Key   string
	Value []byte
}

type PublishResult struct {
	MessageID string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
}

// Message is one delivery handed to a Handler.
type Message interface {
	Body() []byte
	Key() []byte
	Headers() []Header
	// Header returns the first value for key or "".
	Header(key string) string
	ID() string
	Topic() string
	Timestamp() time.Time
	Ack(ctx context.Context) error
	Nack(ctx context.Context) error
}
