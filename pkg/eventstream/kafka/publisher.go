// Package kafka publishes arenatapes events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/arenatapes/pkg/eventstream"
)

// HeaderEventType carries the event type on every message.
const HeaderEventType = "event_type"

// Config configures a Kafka publisher.
type Config struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
}

// Publisher writes events to Kafka keyed by match or draft id so that all
// events for one id land on the same partition.
type Publisher struct {
	writer *kafkago.Writer
	topic  string
}

// NewPublisher creates a Kafka publisher. No connection is made until the
// first Publish.
func NewPublisher(cfg Config) (*Publisher, error) {
	brokers := make([]string, 0, len(cfg.Brokers))
	for _, b := range cfg.Brokers {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, errors.New("kafka topic is required")
	}

	timeout := cfg.WriteTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Publisher{
		writer: &kafkago.Writer{
			Addr:                   kafkago.TCP(brokers...),
			Balancer:               &kafkago.Hash{},
			RequiredAcks:           kafkago.RequireAll,
			AllowAutoTopicCreation: true,
			WriteTimeout:           timeout,
		},
		topic: cfg.Topic,
	}, nil
}

// Publish writes event as a single JSON message.
func (p *Publisher) Publish(ctx context.Context, event *eventstream.Event) error {
	msg, err := Message(p.topic, event)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("writing kafka message: %w", err)
	}
	return nil
}

// Close flushes pending writes and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// Message encodes event as a Kafka message on topic.
func Message(topic string, event *eventstream.Event) (kafkago.Message, error) {
	if event == nil {
		return kafkago.Message{}, eventstream.ErrNilEvent
	}

	value, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("marshaling event: %w", err)
	}

	return kafkago.Message{
		Topic: topic,
		Key:   []byte(event.Key),
		Value: value,
		Time:  event.EmittedAt,
		Headers: []kafkago.Header{
			{Key: HeaderEventType, Value: []byte(event.EventType)},
		},
	}, nil
}
