package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

type KafkaConfig struct {
	Brokers []string
	Dialer  *kafka.Dialer
}

// Kafka keeps one writer per topic. Readers join a consumer group and
// commit offsets on ack; a nack leaves the offset uncommitted.
type Kafka struct {
	cfg KafkaConfig

	mu      sync.Mutex
	writers map[string]*kafka.Writer
}

func NewKafka(cfg KafkaConfig) (*Kafka, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrBrokerUnavailable
	}
	return &Kafka{cfg: cfg, writers: map[string]*kafka.Writer{}}, nil
}

func (k *Kafka) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	var errs []error
	for topic, w := range k.writers {
		errs = append(errs, w.Close())
		delete(k.writers, topic)
	}
	return errors.Join(errs...)
}

func (k *Kafka) writer(topic string) *kafka.Writer {
	k.mu.Lock()
	defer k.mu.Unlock()

	if w, ok := k.writers[topic]; ok {
		return w
	}
	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  k.cfg.Brokers,
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
		Dialer:   k.cfg.Dialer,
	})
	k.writers[topic] = w
	return w
}

func (k *Kafka) Publish(ctx context.Context, topic string, msg OutgoingMessage) (PublishResult, error) {
	if topic == "" {
		return PublishResult{}, ErrTopicRequired
	}
	if msg.Delay > 0 {
		return PublishResult{}, ErrUnsupported
	}

	km := kafka.Message{Key: msg.Key, Value: msg.Body, Time: time.Now()}
	for _, h := range msg.Headers {
		km.Headers = append(km.Headers, kafka.Header{Key: h.Key, Value: h.Value})
	}

	if err := k.writer(topic).WriteMessages(ctx, km); err != nil {
		return PublishResult{}, fmt.Errorf("messaging: kafka publish: %w", err)
	}
	return PublishResult{Topic: topic, Timestamp: km.Time}, nil
}

func (k *Kafka) Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error {
	if topic == "" {
		return ErrTopicRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}
	co := newConsumeOptions(opts...)
	if co.group == "" {
		return ErrGroupRequired
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  k.cfg.Brokers,
		GroupID:  co.group,
		Topic:    topic,
		MaxBytes: 10e6,
		Dialer:   k.cfg.Dialer,
	})

	msgs := make(chan kafka.Message)
	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for m := range msgs {
				_ = dispatch(ctx, "kafka", handler, kafkaDelivery(reader, m), co.autoAck)
			}
		})
	}

	var fetchErr error
	for {
		m, err := reader.FetchMessage(ctx)
		if err != nil {
			fetchErr = err
			break
		}
		msgs <- m
	}
	close(msgs)
	wg.Wait()

	if errors.Is(fetchErr, context.Canceled) || errors.Is(fetchErr, context.DeadlineExceeded) {
		return errors.Join(fetchErr, reader.Close())
	}
	return errors.Join(fmt.Errorf("messaging: kafka fetch: %w", fetchErr), reader.Close())
}

func kafkaDelivery(r *kafka.Reader, m kafka.Message) *delivery {
	d := newDelivery(m.Topic, m.Value)
	d.key, d.timestamp = m.Key, m.Time
	d.id = fmt.Sprintf("%d-%d", m.Partition, m.Offset)
	for _, h := range m.Headers {
		d.headers = append(d.headers, Header{Key: h.Key, Value: h.Value})
	}
	d.ack = func(ctx context.Context) error { return r.CommitMessages(ctx, m) }
	return d
}
