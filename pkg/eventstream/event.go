package eventstream

import (
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/arenatapes/pkg/arena"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeMatchCompleted is emitted after a match replay is built.
	EventTypeMatchCompleted = "arenatapes.match.completed"

	// EventTypeDraftCompleted is emitted after a draft is built.
	EventTypeDraftCompleted = "arenatapes.draft.completed"
)

// Event is a transport-neutral envelope for a completed replay or draft.
// Exactly one of Replay and Draft is set, matching EventType.
type Event struct {
	SchemaVersion int                `json:"schema_version"`
	EventType     string             `json:"event_type"`
	EventID       string             `json:"event_id"`
	EmittedAt     time.Time          `json:"emitted_at"`
	Key           string             `json:"key"`
	Replay        *arena.MatchReplay `json:"replay,omitempty"`
	Draft         *arena.MTGADraft   `json:"draft,omitempty"`
}

// NewReplayEvent wraps replay in an event keyed by its match id.
func NewReplayEvent(replay *arena.MatchReplay, now time.Time) *Event {
	return &Event{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeMatchCompleted,
		EventID:       uuid.NewString(),
		EmittedAt:     now.UTC(),
		Key:           replay.MatchID,
		Replay:        replay,
	}
}

// NewDraftEvent wraps draft in an event keyed by its draft id.
func NewDraftEvent(draft *arena.MTGADraft, now time.Time) *Event {
	return &Event{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeDraftCompleted,
		EventID:       uuid.NewString(),
		EmittedAt:     now.UTC(),
		Key:           draft.DraftID,
		Draft:         draft,
	}
}
