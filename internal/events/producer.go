package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// Topics the storefront publishes to.
const (
	TopicUserEvents    = "user_events"
	TopicCartEvents    = "cart_events"
	TopicOrderEvents   = "order_events"
	TopicProductEvents = "product_events"
)

// Publisher is the fire-and-forget event sink handlers depend on. Publish
// failures are logged by callers and never fail the triggering request.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, event any) error
}

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return &Producer{writer: w}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("kafka: json.Marshal failed: %w", err)
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: write failed: %w", err)
	}
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

// Event is one published event as seen by the Recorder.
type Event struct {
	Topic string
	Key   string
	Body  any
}

// Recorder is a Publisher that keeps events in memory. Used in tests and as
// a stand-in when no broker is configured.
type Recorder struct {
	Events []Event
}

func (r *Recorder) Publish(_ context.Context, topic, key string, event any) error {
	r.Events = append(r.Events, Event{Topic: topic, Key: key, Body: event})
	return nil
}
