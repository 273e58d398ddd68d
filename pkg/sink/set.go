package sink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/papercomputeco/arenatapes/pkg/arena"
	"github.com/papercomputeco/arenatapes/pkg/diagnostics"
)

type namedReplaySink struct {
	name string
	sink ReplaySink
}

type namedDraftSink struct {
	name string
	sink DraftSink
}

// Set fans completed objects out to every registered sink in registration
// order. Registration is not safe for concurrent use; delivery may run from
// one goroutine at a time.
type Set struct {
	replays []namedReplaySink
	drafts  []namedDraftSink
	closers []io.Closer
	names   []string

	logger *slog.Logger
	stats  *diagnostics.Stats
}

// NewSet returns an empty Set. A nil logger discards output and nil stats
// disables counting.
func NewSet(logger *slog.Logger, stats *diagnostics.Stats) *Set {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Set{
		logger: logger.With("component", "sinks"),
		stats:  stats,
	}
}

// Add registers s under name as a replay sink, a draft sink, or both,
// depending on which interfaces it implements. If s is an io.Closer it is
// closed by Close.
func (s *Set) Add(name string, snk any) error {
	replay, isReplay := snk.(ReplaySink)
	draft, isDraft := snk.(DraftSink)
	if !isReplay && !isDraft {
		return fmt.Errorf("sink %q accepts neither replays nor drafts", name)
	}
	if slices.Contains(s.names, name) {
		return fmt.Errorf("sink %q already registered", name)
	}

	if isReplay {
		s.replays = append(s.replays, namedReplaySink{name: name, sink: replay})
	}
	if isDraft {
		s.drafts = append(s.drafts, namedDraftSink{name: name, sink: draft})
	}
	if closer, ok := snk.(io.Closer); ok {
		s.closers = append(s.closers, closer)
	}
	s.names = append(s.names, name)
	return nil
}

// Names lists the registered sinks in registration order.
func (s *Set) Names() []string {
	return slices.Clone(s.names)
}

// Len is the number of registered sinks.
func (s *Set) Len() int {
	return len(s.names)
}

// DeliverReplay hands an independent copy of replay to every replay sink.
// A failing sink is logged and counted and does not stop delivery to the
// rest; the returned error joins every failure.
func (s *Set) DeliverReplay(ctx context.Context, replay *arena.MatchReplay) error {
	if replay == nil {
		return arena.ErrNilReplay
	}

	var errs []error
	for _, rs := range s.replays {
		if err := rs.sink.WriteReplay(ctx, replay.Clone()); err != nil {
			s.logger.Error("replay sink failed",
				"sink", rs.name,
				"match_id", replay.MatchID,
				"error", err,
			)
			s.countError()
			errs = append(errs, fmt.Errorf("%s: %w", rs.name, err))
			continue
		}
		s.logger.Debug("replay delivered", "sink", rs.name, "match_id", replay.MatchID)
	}
	return errors.Join(errs...)
}

// DeliverDraft hands an independent copy of draft to every draft sink with
// the same failure semantics as DeliverReplay.
func (s *Set) DeliverDraft(ctx context.Context, draft *arena.MTGADraft) error {
	if draft == nil {
		return arena.ErrNilDraft
	}

	var errs []error
	for _, ds := range s.drafts {
		if err := ds.sink.WriteDraft(ctx, draft.Clone()); err != nil {
			s.logger.Error("draft sink failed",
				"sink", ds.name,
				"draft_id", draft.DraftID,
				"error", err,
			)
			s.countError()
			errs = append(errs, fmt.Errorf("%s: %w", ds.name, err))
			continue
		}
		s.logger.Debug("draft delivered", "sink", ds.name, "draft_id", draft.DraftID)
	}
	return errors.Join(errs...)
}

func (s *Set) countError() {
	if s.stats != nil {
		s.stats.IncSinkErrors()
	}
}

// Close closes every sink that holds resources, in reverse registration order.
func (s *Set) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
