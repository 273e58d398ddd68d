// Package inmemory provides a map-backed sink that keeps every replay and
// draft it receives for the lifetime of the process.
package inmemory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/papercomputeco/arenatapes/pkg/arena"
	"github.com/papercomputeco/arenatapes/pkg/sink"
)

// Store implements sink.Store using in-memory maps.
type Store struct {
	// mu guards both maps
	mu sync.RWMutex

	// replays is keyed by match id
	replays map[string]*arena.MatchReplay

	// drafts is keyed by draft id
	drafts map[string]*arena.MTGADraft
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		replays: make(map[string]*arena.MatchReplay),
		drafts:  make(map[string]*arena.MTGADraft),
	}
}

// WriteReplay stores replay, replacing any earlier replay for the same match.
func (s *Store) WriteReplay(_ context.Context, replay *arena.MatchReplay) error {
	if replay == nil {
		return arena.ErrNilReplay
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.replays[replay.MatchID] = replay.Clone()
	return nil
}

// WriteDraft stores draft, replacing any earlier draft with the same id.
func (s *Store) WriteDraft(_ context.Context, draft *arena.MTGADraft) error {
	if draft == nil {
		return arena.ErrNilDraft
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[draft.DraftID] = draft.Clone()
	return nil
}

func (s *Store) GetReplay(_ context.Context, matchID string) (*arena.MatchReplay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	replay, ok := s.replays[matchID]
	if !ok {
		return nil, sink.NotFoundError{ID: matchID}
	}
	return replay.Clone(), nil
}

func (s *Store) ListReplays(_ context.Context) ([]*arena.MatchReplay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*arena.MatchReplay, 0, len(s.replays))
	for _, replay := range s.replays {
		out = append(out, replay.Clone())
	}
	slices.SortFunc(out, func(a, b *arena.MatchReplay) int {
		if c := b.CompletedAt.Compare(a.CompletedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.MatchID, b.MatchID)
	})
	return out, nil
}

func (s *Store) GetDraft(_ context.Context, draftID string) (*arena.MTGADraft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	draft, ok := s.drafts[draftID]
	if !ok {
		return nil, sink.NotFoundError{ID: draftID}
	}
	return draft.Clone(), nil
}

func (s *Store) ListDrafts(_ context.Context) ([]*arena.MTGADraft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*arena.MTGADraft, 0, len(s.drafts))
	for _, draft := range s.drafts {
		out = append(out, draft.Clone())
	}
	slices.SortFunc(out, func(a, b *arena.MTGADraft) int {
		if c := b.CompletedAt.Compare(a.CompletedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.DraftID, b.DraftID)
	})
	return out, nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}
