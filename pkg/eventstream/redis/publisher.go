// Package redis publishes arenatapes events to a Redis stream.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/papercomputeco/arenatapes/pkg/eventstream"
)

// DefaultMaxLen caps the stream length with approximate trimming.
const DefaultMaxLen = 10000

// Publisher appends events to a Redis stream with XADD.
type Publisher struct {
	client *goredis.Client
	stream string
	maxLen int64
	owned  bool
}

// NewPublisher parses url, connects, and verifies the server with PING.
func NewPublisher(ctx context.Context, url, stream string) (*Publisher, error) {
	if strings.TrimSpace(stream) == "" {
		return nil, errors.New("redis stream name is required")
	}

	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	p := NewPublisherFromClient(client, stream)
	p.owned = true
	return p, nil
}

// NewPublisherFromClient publishes with an existing client. Close does not
// close a client it did not create.
func NewPublisherFromClient(client *goredis.Client, stream string) *Publisher {
	return &Publisher{client: client, stream: stream, maxLen: DefaultMaxLen}
}

// Publish appends event to the stream.
func (p *Publisher) Publish(ctx context.Context, event *eventstream.Event) error {
	values, err := Values(event)
	if err != nil {
		return err
	}

	err = p.client.XAdd(ctx, &goredis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: values,
	}).Err()
	if err != nil {
		return fmt.Errorf("appending to stream %s: %w", p.stream, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	if !p.owned {
		return nil
	}
	return p.client.Close()
}

// Values flattens event into stream entry fields.
func Values(event *eventstream.Event) (map[string]any, error) {
	if event == nil {
		return nil, eventstream.ErrNilEvent
	}

	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshaling event: %w", err)
	}

	return map[string]any{
		"event_id":   event.EventID,
		"event_type": event.EventType,
		"key":        event.Key,
		"data":       string(data),
		"timestamp":  event.EmittedAt.UnixMilli(),
	}, nil
}
