// Package nats publishes arenatapes events to a NATS JetStream stream.
package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	natsgo "github.com/nats-io/nats.go"

	"github.com/papercomputeco/arenatapes/pkg/eventstream"
)

const (
	DefaultSubjectPrefix = "arenatapes"
	DefaultStreamName    = "ARENATAPES"
)

// Config configures a NATS publisher.
type Config struct {
	URL           string
	SubjectPrefix string
	StreamName    string
}

// Publisher publishes events on "<prefix>.match" and "<prefix>.draft"
// subjects captured by one JetStream stream.
type Publisher struct {
	nc     *natsgo.Conn
	js     natsgo.JetStreamContext
	prefix string
}

// NewPublisher connects to cfg.URL and creates the stream if it does not exist.
func NewPublisher(cfg Config) (*Publisher, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("nats url is required")
	}
	prefix := cfg.SubjectPrefix
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	streamName := cfg.StreamName
	if streamName == "" {
		streamName = DefaultStreamName
	}

	nc, err := natsgo.Connect(cfg.URL, natsgo.Name("arenatapes"))
	if err != nil {
		return nil, fmt.Errorf("connecting to nats: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("creating jetstream context: %w", err)
	}

	if _, err := js.StreamInfo(streamName); err != nil {
		_, err = js.AddStream(&natsgo.StreamConfig{
			Name:     streamName,
			Subjects: []string{prefix + ".>"},
			Storage:  natsgo.FileStorage,
		})
		if err != nil {
			nc.Close()
			return nil, fmt.Errorf("creating stream %s: %w", streamName, err)
		}
	}

	return &Publisher{nc: nc, js: js, prefix: prefix}, nil
}

// Subject is the subject event is published on.
func (p *Publisher) Subject(event *eventstream.Event) string {
	return Subject(p.prefix, event)
}

// Publish publishes event and waits for the JetStream ack. The event id is
// used as the message id so redeliveries are deduplicated by the server.
func (p *Publisher) Publish(ctx context.Context, event *eventstream.Event) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	subject := p.Subject(event)
	if _, err := p.js.Publish(subject, data, natsgo.MsgId(event.EventID), natsgo.Context(ctx)); err != nil {
		return fmt.Errorf("publishing to %s: %w", subject, err)
	}
	return nil
}

// Close drains the connection.
func (p *Publisher) Close() error {
	return p.nc.Drain()
}

// Subject maps an event to "<prefix>.match" or "<prefix>.draft".
func Subject(prefix string, event *eventstream.Event) string {
	if event.EventType == eventstream.EventTypeDraftCompleted {
		return prefix + ".draft"
	}
	return prefix + ".match"
}
