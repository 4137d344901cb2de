package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
)

var ErrNoBrokers = errors.New("events: no brokers configured")

// ProducerClient is the part of *kgo.Client the publisher uses.
type ProducerClient interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

type Kafka struct {
	cl    ProducerClient
	topic string
}

// NewKafka connects to the seed brokers and pings them. Records go to topic
// with all in-sync replica acks.
func NewKafka(ctx context.Context, brokers []string, topic string) (*Kafka, error) {
	const op = "events.NewKafka"

	if len(brokers) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrNoBrokers)
	}
	cl, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := cl.Ping(ctx); err != nil {
		cl.Close()
		return nil, fmt.Errorf("%s: ping: %w", op, err)
	}
	return &Kafka{cl: cl, topic: topic}, nil
}

// NewKafkaWithClient wraps an existing client.
func NewKafkaWithClient(cl ProducerClient, topic string) *Kafka {
	return &Kafka{cl: cl, topic: topic}
}

func (k *Kafka) Publish(ctx context.Context, e Event) error {
	const op = "Kafka.Publish"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("%s: encode: %w", op, err)
	}
	rec := &kgo.Record{
		Topic: k.topic,
		Key:   []byte(e.OrderID),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "type", Value: []byte(e.Type)},
		},
	}
	if err := k.cl.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (k *Kafka) Close() {
	log := slog.With("op", "Kafka.Close")
	log.Info("closing producer...")
	k.cl.Close()
	log.Info("producer is closed")
}
