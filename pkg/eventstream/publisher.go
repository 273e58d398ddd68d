// Package eventstream publishes completed replays and drafts as events to a
// streaming backend.
package eventstream

import "context"

// Publisher publishes events to an event stream backend.
type Publisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}
