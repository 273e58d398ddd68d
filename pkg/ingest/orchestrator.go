// Package ingest drives the pipeline from the client log to the sinks: it
// reads new bytes on a fixed interval, cuts them into JSON objects, classifies
// them, feeds the match and draft builders, and dispatches whatever completes.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/papercomputeco/arenatapes/pkg/arena"
	"github.com/papercomputeco/arenatapes/pkg/diagnostics"
	"github.com/papercomputeco/arenatapes/pkg/draft"
	"github.com/papercomputeco/arenatapes/pkg/logreader"
	"github.com/papercomputeco/arenatapes/pkg/protocol"
	"github.com/papercomputeco/arenatapes/pkg/replay"
	"github.com/papercomputeco/arenatapes/pkg/tokenizer"
)

// DefaultInterval is the pause between two ticks.
const DefaultInterval = time.Second

// Dispatcher receives completed objects. Implementations must not block.
type Dispatcher interface {
	DispatchReplay(replay *arena.MatchReplay) bool
	DispatchDraft(draft *arena.MTGADraft) bool
}

// Config configures an Orchestrator.
type Config struct {
	// Path is the client log file.
	Path string

	// Interval between ticks, DefaultInterval when zero.
	Interval time.Duration

	// Tail starts reading at the end of the file instead of the beginning.
	Tail bool

	// MaxObjectBytes caps a single buffered object. Zero keeps the tokenizer default.
	MaxObjectBytes int

	// Rotations signals that the log file was replaced. Optional.
	Rotations <-chan struct{}

	Dispatcher Dispatcher

	// Collector receives parse failures. Optional.
	Collector *diagnostics.Collector

	// Stats is optional.
	Stats *diagnostics.Stats

	Logger *slog.Logger

	// Now stamps completion times that the log did not provide.
	Now func() time.Time
}

// Orchestrator owns the reader, tokenizer, and builders of one pipeline. All
// of its methods must be called from a single goroutine.
type Orchestrator struct {
	cfg    Config
	logger *slog.Logger

	reader    *logreader.Reader
	tokenizer *tokenizer.Tokenizer
	matches   *replay.Builder
	drafts    *draft.Builder

	seenAbandoned  int
	seenMismatched int
	seenDropped    int
	unavailable    bool
}

// New validates cfg and returns an Orchestrator. No file is opened until the
// first tick.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Path == "" {
		return nil, errors.New("log path is required")
	}
	if cfg.Dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	o := &Orchestrator{
		cfg:     cfg,
		logger:  logger.With("component", "ingest", "path", cfg.Path),
		matches: replay.New(),
		drafts:  draft.New(),
	}
	o.resetSource()
	return o, nil
}

// Run ticks until ctx is cancelled. In-flight builder state is discarded on
// return.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.logger.Info("ingestion started", "interval", o.cfg.Interval, "tail", o.cfg.Tail)

	ticker := time.NewTicker(o.cfg.Interval)
	defer ticker.Stop()
	defer o.close()

	for {
		o.Tick()

		select {
		case <-ctx.Done():
			o.logger.Info("ingestion stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Tick handles a pending rotation signal and processes everything appended
// since the previous tick. Errors are logged and retried on the next tick.
func (o *Orchestrator) Tick() {
	if o.drainRotations() {
		o.logger.Info("log rotated, restarting from the new file")
		o.countRotation()
		o.resetSource()
	}

	err := o.Flush()
	switch {
	case err == nil:
	case errors.Is(err, logreader.ErrSourceUnavailable):
		if !o.unavailable {
			o.logger.Debug("log not available yet", "error", err)
		}
		o.unavailable = true
		if o.cfg.Stats != nil {
			o.cfg.Stats.IncSourceUnavailable()
		}
	default:
		o.logger.Warn("tick failed", "error", err)
	}
}

// Flush reads whatever is available right now and runs it through the
// pipeline. A truncated file restarts the reader and tokenizer and is read
// again from its start.
func (o *Orchestrator) Flush() error {
	text, err := o.reader.ReadAvailable()
	if errors.Is(err, logreader.ErrTruncated) {
		o.logger.Info("log truncated, restarting from the beginning")
		o.countRotation()
		o.resetSource()
		text, err = o.reader.ReadAvailable()
	}
	if text != "" {
		o.unavailable = false
		o.process(text)
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", o.cfg.Path, err)
	}
	return nil
}

// Offset is the number of log bytes consumed from the current file.
func (o *Orchestrator) Offset() int64 {
	return o.reader.Offset()
}

func (o *Orchestrator) process(text string) {
	o.tokenizer.Feed(text)

	for raw := range o.tokenizer.All() {
		if o.cfg.Stats != nil {
			o.cfg.Stats.IncObjects()
		}

		ev, err := protocol.Classify(raw)
		if err != nil {
			o.recordFailure(raw, err)
			continue
		}
		if ev.Kind == protocol.KindNotAnEvent {
			continue
		}
		if o.cfg.Stats != nil {
			o.cfg.Stats.IncEvent(ev.Kind.String())
		}

		o.route(ev)
	}

	if dropped := o.tokenizer.Dropped(); dropped > o.seenDropped {
		o.logger.Warn("oversized object dropped", "count", dropped-o.seenDropped)
		if o.cfg.Stats != nil {
			o.cfg.Stats.AddDroppedObjects(dropped - o.seenDropped)
		}
		o.seenDropped = dropped
	}
}

func (o *Orchestrator) route(ev protocol.Event) {
	if o.matches.Ingest(ev) {
		o.emitReplay()
	}
	if n := o.matches.Abandoned(); n > o.seenAbandoned {
		o.logger.Warn("incomplete match abandoned for a new one", "abandoned_total", n)
		o.seenAbandoned = n
	}

	complete := o.drafts.Ingest(ev)
	if n := o.drafts.Mismatched(); n > o.seenMismatched {
		o.logger.Warn("draft pack from another draft id recorded", "draft_id", o.drafts.DraftID())
		o.seenMismatched = n
	}
	if complete {
		o.emitDraft()
	}
}

func (o *Orchestrator) emitReplay() {
	r, err := o.matches.Build()
	if err != nil {
		o.logger.Warn("match completed without enough data", "error", err)
		o.countBuildFailure()
		return
	}
	if r.CompletedAt.IsZero() {
		r.CompletedAt = o.cfg.Now().UTC()
	}

	won, _ := r.MatchWon()
	o.logger.Info("match completed",
		"match_id", r.MatchID,
		"event_id", r.EventID,
		"opponent", r.Opponent.Name,
		"games_won", r.GamesWon(),
		"won", won,
	)
	if o.cfg.Stats != nil {
		o.cfg.Stats.IncReplaysEmitted()
	}
	o.cfg.Dispatcher.DispatchReplay(r)
}

func (o *Orchestrator) emitDraft() {
	o.seenMismatched = 0
	d, err := o.drafts.Build()
	if err != nil {
		o.logger.Warn("draft completed without enough data", "error", err)
		o.countBuildFailure()
		return
	}
	if d.CompletedAt.IsZero() {
		d.CompletedAt = o.cfg.Now().UTC()
	}

	o.logger.Info("draft completed",
		"draft_id", d.DraftID,
		"format", d.Format,
		"set", d.SetCode,
		"picks", len(d.Picks),
	)
	if o.cfg.Stats != nil {
		o.cfg.Stats.IncDraftsEmitted()
	}
	o.cfg.Dispatcher.DispatchDraft(d)
}

func (o *Orchestrator) recordFailure(raw string, err error) {
	failure := arena.NewParseFailure(raw, err)
	o.logger.Debug("object failed to decode", "error", err)
	if o.cfg.Collector != nil {
		o.cfg.Collector.Add(*failure)
	}
	if o.cfg.Stats != nil {
		o.cfg.Stats.IncParseFailures()
	}
}

// drainRotations consumes every pending signal and reports whether there was one.
func (o *Orchestrator) drainRotations() bool {
	if o.cfg.Rotations == nil {
		return false
	}
	rotated := false
	for {
		select {
		case <-o.cfg.Rotations:
			rotated = true
		default:
			return rotated
		}
	}
}

// resetSource replaces the reader and tokenizer. A partially buffered object
// is lost; builder state is kept.
func (o *Orchestrator) resetSource() {
	o.close()

	var opts []tokenizer.Option
	if o.cfg.MaxObjectBytes > 0 {
		opts = append(opts, tokenizer.WithMaxObjectBytes(o.cfg.MaxObjectBytes))
	}
	o.tokenizer = tokenizer.New(opts...)
	o.seenDropped = 0

	// Only the first open honours Tail; a replaced file is read from its start.
	tail := o.cfg.Tail && o.reader == nil
	o.reader = logreader.New(o.cfg.Path, logreader.WithTail(tail))
}

func (o *Orchestrator) close() {
	if o.reader == nil {
		return
	}
	if err := o.reader.Close(); err != nil {
		o.logger.Debug("closing log file", "error", err)
	}
}

func (o *Orchestrator) countRotation() {
	if o.cfg.Stats != nil {
		o.cfg.Stats.IncRotations()
	}
}

func (o *Orchestrator) countBuildFailure() {
	if o.cfg.Stats != nil {
		o.cfg.Stats.IncBuildFailures()
	}
}
