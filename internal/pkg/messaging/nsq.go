package messaging

import (
	"context"
	"fmt"
	"time"

	nsq "github.com/nsqio/go-nsq"
)

type NSQConfig struct {
	ProducerAddr   string
	NSQDAddrs      []string
	LookupdAddrs   []string
	ProducerConfig *nsq.Config
	ConsumerConfig *nsq.Config
}

// NSQ publishes through one producer and opens a consumer per Consume call.
// NSQ has no message headers; Headers are dropped on publish.
type NSQ struct {
	cfg      NSQConfig
	producer *nsq.Producer
}

func NewNSQ(cfg NSQConfig) (*NSQ, error) {
	if cfg.ProducerConfig == nil {
		cfg.ProducerConfig = nsq.NewConfig()
	}
	if cfg.ConsumerConfig == nil {
		cfg.ConsumerConfig = nsq.NewConfig()
	}

	n := &NSQ{cfg: cfg}
	if cfg.ProducerAddr != "" {
		p, err := nsq.NewProducer(cfg.ProducerAddr, cfg.ProducerConfig)
		if err != nil {
			return nil, fmt.Errorf("messaging: nsq producer: %w", err)
		}
		p.SetLoggerLevel(nsq.LogLevelError)
		n.producer = p
	}
	return n, nil
}

func (n *NSQ) Close() error {
	if n.producer != nil {
		n.producer.Stop()
	}
	return nil
}

func (n *NSQ) Publish(ctx context.Context, topic string, msg OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	if topic == "" {
		return PublishResult{}, ErrTopicRequired
	}
	if n.producer == nil {
		return PublishResult{}, ErrBrokerUnavailable
	}

	var err error
	if msg.Delay > 0 {
		err = n.producer.DeferredPublish(topic, msg.Delay, msg.Body)
	} else {
		err = n.producer.Publish(topic, msg.Body)
	}
	if err != nil {
		return PublishResult{}, fmt.Errorf("messaging: nsq publish: %w", err)
	}
	return PublishResult{Topic: topic, Timestamp: time.Now()}, nil
}

func (n *NSQ) Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error {
	if topic == "" {
		return ErrTopicRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}
	if len(n.cfg.NSQDAddrs) == 0 && len(n.cfg.LookupdAddrs) == 0 {
		return ErrBrokerUnavailable
	}
	co := newConsumeOptions(opts...)
	if co.channel == "" {
		return ErrChannelRequired
	}

	ccfg := *n.cfg.ConsumerConfig
	ccfg.MaxInFlight = max(co.maxInFlight, co.concurrency, ccfg.MaxInFlight)

	consumer, err := nsq.NewConsumer(topic, co.channel, &ccfg)
	if err != nil {
		return fmt.Errorf("messaging: nsq consumer: %w", err)
	}
	consumer.SetLoggerLevel(nsq.LogLevelError)
	consumer.AddConcurrentHandlers(nsq.HandlerFunc(func(m *nsq.Message) error {
		m.DisableAutoResponse()
		return dispatch(ctx, "nsq", handler, nsqDelivery(topic, m), co.autoAck)
	}), co.concurrency)

	if len(n.cfg.LookupdAddrs) > 0 {
		err = consumer.ConnectToNSQLookupds(n.cfg.LookupdAddrs)
	} else {
		err = consumer.ConnectToNSQDs(n.cfg.NSQDAddrs)
	}
	if err != nil {
		consumer.Stop()
		<-consumer.StopChan
		return fmt.Errorf("messaging: nsq connect: %w", err)
	}

	select {
	case <-ctx.Done():
		consumer.Stop()
		<-consumer.StopChan
		return ctx.Err()
	case <-consumer.StopChan:
		return nil
	}
}

func nsqDelivery(topic string, m *nsq.Message) *delivery {
	d := newDelivery(topic, m.Body)
	d.id = string(m.ID[:])
	d.timestamp = time.Unix(0, m.Timestamp)
	d.ack = func(context.Context) error { m.Finish(); return nil }
	d.nack = func(context.Context) error { m.Requeue(-1); return nil }
	return d
}
