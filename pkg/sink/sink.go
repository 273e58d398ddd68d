// Package sink defines where completed match replays and drafts are delivered.
//
// A sink accepts one finished object and reports success or failure. Retry
// policy belongs to the sink; the pipeline delivers each object at most once.
package sink

import (
	"context"
	"errors"

	"github.com/papercomputeco/arenatapes/pkg/arena"
)

// ErrNotConfigured is returned when a sink is requested that has no backing
// configuration.
var ErrNotConfigured = errors.New("sink not configured")

// ReplaySink receives completed match replays.
type ReplaySink interface {
	WriteReplay(ctx context.Context, replay *arena.MatchReplay) error
}

// DraftSink receives completed drafts.
type DraftSink interface {
	WriteDraft(ctx context.Context, draft *arena.MTGADraft) error
}

// Store is a sink that can read back what it was given.
type Store interface {
	ReplaySink
	DraftSink

	// GetReplay returns the replay for matchID or a NotFoundError.
	GetReplay(ctx context.Context, matchID string) (*arena.MatchReplay, error)

	// ListReplays returns every stored replay, most recently completed first.
	ListReplays(ctx context.Context) ([]*arena.MatchReplay, error)

	// GetDraft returns the draft for draftID or a NotFoundError.
	GetDraft(ctx context.Context, draftID string) (*arena.MTGADraft, error)

	// ListDrafts returns every stored draft, most recently completed first.
	ListDrafts(ctx context.Context) ([]*arena.MTGADraft, error)

	// Close releases any resources held by the store.
	Close() error
}

// NotFoundError is returned when a stored object doesn't exist.
type NotFoundError struct {
	ID string
}

func (e NotFoundError) Error() string {
	if e.ID == "" {
		return "not found"
	}
	return "not found: " + e.ID
}

// IsNotFound reports whether err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf NotFoundError
	return errors.As(err, &nf)
}
