package messaging

import (
	"context"
	"errors"
	"io"
	"strconv"
	"sync"
	"time"

	"go.uber.org/atomic"
)

// ErrQueueFull is returned by the memory bus when a group's buffer is full.
var ErrQueueFull = errors.New("messaging: memory queue full")

const defaultMemoryGroup = "default"

// Memory is an in-process bus. Every consumer group of a topic receives each
// message once; consumers sharing a group compete. Messages published to a
// topic without consumers are dropped, as with core NATS.
type Memory struct {
	mu     sync.Mutex
	queues map[string]map[string]chan *delivery
	closed bool

	buffer int
	seq    *atomic.Int64
}

func NewMemory(buffer int) *Memory {
	if buffer <= 0 {
		buffer = 256
	}
	return &Memory{
		queues: map[string]map[string]chan *delivery{},
		buffer: buffer,
		seq:    atomic.NewInt64(0),
	}
}

func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

func (m *Memory) Publish(ctx context.Context, topic string, msg OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	if topic == "" {
		return PublishResult{}, ErrTopicRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return PublishResult{}, io.ErrClosedPipe
	}

	id := strconv.FormatInt(m.seq.Inc(), 10)
	now := time.Now()
	for _, q := range m.queues[topic] {
		d := newDelivery(topic, msg.Body)
		d.key, d.headers, d.id, d.timestamp = msg.Key, msg.Headers, id, now
		m.requeueOnNack(d, q)

		if msg.Delay > 0 {
			time.AfterFunc(msg.Delay, func() { q <- d })
			continue
		}
		select {
		case q <- d:
		default:
			return PublishResult{}, ErrQueueFull
		}
	}

	return PublishResult{MessageID: id, Topic: topic, Timestamp: now}, nil
}

func (m *Memory) requeueOnNack(d *delivery, q chan *delivery) {
	d.nack = func(context.Context) error {
		again := newDelivery(d.topic, d.body)
		again.key, again.headers, again.id = d.key, d.headers, d.id
		m.requeueOnNack(again, q)
		select {
		case q <- again:
			return nil
		default:
			return ErrQueueFull
		}
	}
}

func (m *Memory) queue(topic, group string) (chan *delivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, io.ErrClosedPipe
	}

	groups, ok := m.queues[topic]
	if !ok {
		groups = map[string]chan *delivery{}
		m.queues[topic] = groups
	}
	q, ok := groups[group]
	if !ok {
		q = make(chan *delivery, m.buffer)
		groups[group] = q
	}
	return q, nil
}

func (m *Memory) Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error {
	if topic == "" {
		return ErrTopicRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}

	co := newConsumeOptions(opts...)
	group := co.group
	if group == "" {
		group = defaultMemoryGroup
	}

	q, err := m.queue(topic, group)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for {
				select {
				case <-ctx.Done():
					return
				case d := <-q:
					_ = dispatch(ctx, "memory", handler, d, co.autoAck)
				}
			}
		})
	}
	wg.Wait()
	return ctx.Err()
}
