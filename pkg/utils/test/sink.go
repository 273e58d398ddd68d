package testutils

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/papercomputeco/arenatapes/pkg/arena"
)

// ErrMockSink is returned by a MockSink configured to fail.
var ErrMockSink = errors.New("mock sink failure")

// MockSink records every replay and draft it is given.
type MockSink struct {
	mu sync.Mutex

	Replays []*arena.MatchReplay
	Drafts  []*arena.MTGADraft

	// FailReplays causes WriteReplay to return ErrMockSink.
	FailReplays bool

	// FailDrafts causes WriteDraft to return ErrMockSink.
	FailDrafts bool

	// Block, when set, is received from before every write returns.
	Block chan struct{}

	Closed bool
}

// NewMockSink creates an empty MockSink.
func NewMockSink() *MockSink {
	return &MockSink{}
}

func (m *MockSink) WriteReplay(_ context.Context, replay *arena.MatchReplay) error {
	if m.Block != nil {
		<-m.Block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailReplays {
		return ErrMockSink
	}
	m.Replays = append(m.Replays, replay)
	return nil
}

func (m *MockSink) WriteDraft(_ context.Context, draft *arena.MTGADraft) error {
	if m.Block != nil {
		<-m.Block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailDrafts {
		return ErrMockSink
	}
	m.Drafts = append(m.Drafts, draft)
	return nil
}

// ReplayCount returns how many replays were recorded.
func (m *MockSink) ReplayCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Replays)
}

// DraftCount returns how many drafts were recorded.
func (m *MockSink) DraftCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Drafts)
}

// ReplayIDs returns the match ids of recorded replays in order.
func (m *MockSink) ReplayIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.Replays))
	for _, r := range m.Replays {
		out = append(out, r.MatchID)
	}
	return out
}

func (m *MockSink) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// ReplayOnlySink is a sink that only accepts replays.
type ReplayOnlySink struct {
	Count int
}

func (r *ReplayOnlySink) WriteReplay(context.Context, *arena.MatchReplay) error {
	r.Count++
	return nil
}

// SampleReplay returns a small, fully populated replay.
func SampleReplay(matchID string) *arena.MatchReplay {
	return &arena.MatchReplay{
		MatchID:  matchID,
		EventID:  "Traditional_Ladder",
		Player:   arena.PlayerIdentity{Name: "Alice", UserID: "U-ALICE", SeatID: 1, TeamID: 1},
		Opponent: arena.PlayerIdentity{Name: "Bob", UserID: "U-BOB", SeatID: 2, TeamID: 2},
		Decklists: []arena.DecklistSnapshot{
			{GameNumber: 1, MainDeck: []int{10, 11, 12}, Sideboard: []int{90}},
		},
		Mulligans: []arena.MulliganRecord{
			{GameNumber: 1, Hand: []int{10, 11, 12, 13, 14, 15, 16}, KeepCount: 7, OnPlay: true, OpponentHint: "Bob", Decision: arena.DecisionAccept},
		},
		Results: []arena.GameResult{
			{Scope: arena.ScopeGame, GameNumber: 1, WinningTeamID: 1, Won: true, Result: "ResultType_WinLoss"},
			{Scope: arena.ScopeMatch, GameNumber: 0, WinningTeamID: 1, Won: true, Result: "ResultType_WinLoss"},
		},
		OpponentCards: []int{500, 501},
		StartedAt:     time.Date(2024, 2, 6, 15, 30, 0, 0, time.UTC),
		CompletedAt:   time.Date(2024, 2, 6, 16, 0, 0, 0, time.UTC),
	}
}

// SampleDraft returns a short draft with two picks.
func SampleDraft(draftID string) *arena.MTGADraft {
	return &arena.MTGADraft{
		DraftID: draftID,
		EventID: "PremierDraft_MKM_20240206",
		Format:  arena.PremierDraft,
		SetCode: "MKM",
		Picks: []arena.DraftPick{
			{PackNumber: 1, PickNumber: 1, PackContents: []int{1, 2, 3}, PickedCard: 2, TimeRemaining: 40},
			{PackNumber: 1, PickNumber: 2, PackContents: []int{4, 5}, PickedCard: 5, TimeRemaining: 35.5},
		},
		CompletedAt: time.Date(2024, 2, 7, 20, 0, 0, 0, time.UTC),
	}
}
