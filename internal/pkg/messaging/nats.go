package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
)

type NATSConfig struct {
	URL     string
	Options []nats.Option
}

// NATS uses core NATS queue subscriptions.
type NATS struct {
	conn *nats.Conn
}

func NewNATS(cfg NATSConfig) (*NATS, error) {
	if cfg.URL == "" {
		return nil, ErrBrokerUnavailable
	}
	conn, err := nats.Connect(cfg.URL, cfg.Options...)
	if err != nil {
		return nil, fmt.Errorf("messaging: nats connect: %w", err)
	}
	return &NATS{conn: conn}, nil
}

// Close drains subscriptions then closes the connection.
func (n *NATS) Close() error {
	if n.conn.IsClosed() {
		return nil
	}
	return n.conn.Drain()
}

func (n *NATS) Publish(ctx context.Context, topic string, msg OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	if topic == "" {
		return PublishResult{}, ErrTopicRequired
	}
	if msg.Delay > 0 {
		return PublishResult{}, ErrUnsupported
	}

	nm := nats.NewMsg(topic)
	nm.Data = msg.Body
	for _, h := range msg.Headers {
		nm.Header.Add(h.Key, string(h.Value))
	}

	if err := n.conn.PublishMsg(nm); err != nil {
		return PublishResult{}, fmt.Errorf("messaging: nats publish: %w", err)
	}
	if err := n.conn.FlushWithContext(ctx); err != nil {
		return PublishResult{}, fmt.Errorf("messaging: nats flush: %w", err)
	}
	return PublishResult{Topic: topic}, nil
}

func (n *NATS) Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error {
	if topic == "" {
		return ErrTopicRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}
	co := newConsumeOptions(opts...)

	msgs := make(chan *nats.Msg, co.concurrency)
	sub, err := n.conn.ChanQueueSubscribe(topic, co.queueGroup, msgs)
	if err != nil {
		return fmt.Errorf("messaging: nats subscribe: %w", err)
	}

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for {
				select {
				case <-ctx.Done():
					return
				case m := <-msgs:
					_ = dispatch(ctx, "nats", handler, natsDelivery(m), co.autoAck)
				}
			}
		})
	}

	<-ctx.Done()
	uerr := sub.Unsubscribe()
	wg.Wait()
	return errors.Join(ctx.Err(), uerr)
}

func natsDelivery(m *nats.Msg) *delivery {
	d := newDelivery(m.Subject, m.Data)
	for k, values := range m.Header {
		for _, v := range values {
			d.headers = append(d.headers, Header{Key: k, Value: []byte(v)})
		}
	}
	d.ack = func(context.Context) error { return ignoreNoReply(m.Ack()) }
	d.nack = func(context.Context) error { return ignoreNoReply(m.Nak()) }
	return d
}

// ignoreNoReply treats ack on a core (non-JetStream) message as a no-op.
func ignoreNoReply(err error) error {
	if errors.Is(err, nats.ErrMsgNoReply) || errors.Is(err, nats.ErrMsgNotBound) {
		return nil
	}
	return err
}
