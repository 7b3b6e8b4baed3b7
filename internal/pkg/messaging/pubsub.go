package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"cloud.google.com/go/pubsub/v2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

const pubsubScope = "https://www.googleapis.com/auth/pubsub"

var ErrProjectIDRequired = errors.New("messaging: pubsub project id is required")

type PubSubConfig struct {
	ProjectID string
	// CredentialsJSON is a service account key; empty uses ADC.
	CredentialsJSON []byte
	ClientOptions   []option.ClientOption
}

// PubSub publishes to topics and receives from subscriptions. Consume's
// topic argument is used as the subscription id unless WithSubscription is set.
type PubSub struct {
	client *pubsub.Client

	mu         sync.Mutex
	publishers map[string]*pubsub.Publisher
}

func NewPubSub(ctx context.Context, cfg PubSubConfig) (*PubSub, error) {
	if cfg.ProjectID == "" {
		return nil, ErrProjectIDRequired
	}
	opts := cfg.ClientOptions
	if len(cfg.CredentialsJSON) > 0 {
		creds, err := google.CredentialsFromJSON(ctx, cfg.CredentialsJSON, pubsubScope)
		if err != nil {
			return nil, fmt.Errorf("messaging: pubsub credentials: %w", err)
		}
		opts = append(opts, option.WithCredentials(creds))
	}

	c, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("messaging: pubsub client: %w", err)
	}
	return &PubSub{client: c, publishers: map[string]*pubsub.Publisher{}}, nil
}

func (p *PubSub) Close() error {
	p.mu.Lock()
	for id, pub := range p.publishers {
		pub.Stop()
		delete(p.publishers, id)
	}
	p.mu.Unlock()
	return p.client.Close()
}

func (p *PubSub) publisher(topic string) *pubsub.Publisher {
	p.mu.Lock()
	defer p.mu.Unlock()

	pub, ok := p.publishers[topic]
	if !ok {
		pub = p.client.Publisher(topic)
		p.publishers[topic] = pub
	}
	return pub
}

func (p *PubSub) Publish(ctx context.Context, topic string, msg OutgoingMessage) (PublishResult, error) {
	if topic == "" {
		return PublishResult{}, ErrTopicRequired
	}
	if msg.Delay > 0 {
		return PublishResult{}, ErrUnsupported
	}

	attrs := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		attrs[h.Key] = string(h.Value)
	}

	res := p.publisher(topic).Publish(ctx, &pubsub.Message{
		Data:        msg.Body,
		Attributes:  attrs,
		OrderingKey: msg.OrderingKey,
	})
	id, err := res.Get(ctx)
	if err != nil {
		return PublishResult{}, fmt.Errorf("messaging: pubsub publish: %w", err)
	}
	return PublishResult{MessageID: id, Topic: topic}, nil
}

func (p *PubSub) Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error {
	if topic == "" {
		return ErrTopicRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}
	co := newConsumeOptions(opts...)

	subID := topic
	if co.subscription != "" {
		subID = co.subscription
	}

	sub := p.client.Subscriber(subID)
	sub.ReceiveSettings.NumGoroutines = co.concurrency
	if co.maxInFlight > 0 {
		sub.ReceiveSettings.MaxOutstandingMessages = co.maxInFlight
	}

	return sub.Receive(ctx, func(ctx context.Context, m *pubsub.Message) {
		_ = dispatch(ctx, "pubsub", handler, pubsubDelivery(topic, m), co.autoAck)
	})
}

func pubsubDelivery(topic string, m *pubsub.Message) *delivery {
	d := newDelivery(topic, m.Data)
	d.id, d.timestamp = m.ID, m.PublishTime
	d.key = []byte(m.OrderingKey)
	for k, v := range m.Attributes {
		d.headers = append(d.headers, Header{Key: k, Value: []byte(v)})
	}
	d.ack = func(context.Context) error { m.Ack(); return nil }
	d.nack = func(context.Context) error { m.Nack(); return nil }
	return d
}
