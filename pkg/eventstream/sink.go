package eventstream

import (
	"context"
	"fmt"
	"time"

	"github.com/papercomputeco/arenatapes/pkg/arena"
)

// Sink adapts a Publisher to the replay and draft sink contracts.
type Sink struct {
	publisher Publisher
	now       func() time.Time
}

// NewSink wraps publisher. Closing the Sink closes the publisher.
func NewSink(publisher Publisher) *Sink {
	return &Sink{publisher: publisher, now: time.Now}
}

func (s *Sink) WriteReplay(ctx context.Context, replay *arena.MatchReplay) error {
	if replay == nil {
		return arena.ErrNilReplay
	}
	if err := s.publisher.Publish(ctx, NewReplayEvent(replay, s.now())); err != nil {
		return fmt.Errorf("publishing replay %s: %w", replay.MatchID, err)
	}
	return nil
}

func (s *Sink) WriteDraft(ctx context.Context, draft *arena.MTGADraft) error {
	if draft == nil {
		return arena.ErrNilDraft
	}
	if err := s.publisher.Publish(ctx, NewDraftEvent(draft, s.now())); err != nil {
		return fmt.Errorf("publishing draft %s: %w", draft.DraftID, err)
	}
	return nil
}

func (s *Sink) Close() error {
	return s.publisher.Close()
}
