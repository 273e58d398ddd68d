package diagnostics

import (
	"expvar"
	"maps"
	"sync"
)

// Stats counts pipeline activity. It is safe for concurrent use.
type Stats struct {
	mu sync.Mutex
	s  Snapshot
}

// Snapshot is a point-in-time copy of Stats.
type Snapshot struct {
	Objects           int64            `json:"objects"`
	Events            map[string]int64 `json:"events"`
	ParseFailures     int64            `json:"parse_failures"`
	ReplaysEmitted    int64            `json:"replays_emitted"`
	DraftsEmitted     int64            `json:"drafts_emitted"`
	BuildFailures     int64            `json:"build_failures"`
	SinkErrors        int64            `json:"sink_errors"`
	Rotations         int64            `json:"rotations"`
	DispatchDropped   int64            `json:"dispatch_dropped"`
	SourceUnavailable int64            `json:"source_unavailable"`
	DroppedObjects    int64            `json:"dropped_objects"`
}

// NewStats returns zeroed counters.
func NewStats() *Stats {
	return &Stats{s: Snapshot{Events: map[string]int64{}}}
}

func (s *Stats) update(fn func(*Snapshot)) {
	s.mu.Lock()
	fn(&s.s)
	s.mu.Unlock()
}

func (s *Stats) IncObjects() { s.update(func(v *Snapshot) { v.Objects++ }) }

// IncEvent counts one classified event under kind.
func (s *Stats) IncEvent(kind string) {
	s.update(func(v *Snapshot) {
		if v.Events == nil {
			v.Events = map[string]int64{}
		}
		v.Events[kind]++
	})
}

func (s *Stats) IncParseFailures()     { s.update(func(v *Snapshot) { v.ParseFailures++ }) }
func (s *Stats) IncReplaysEmitted()    { s.update(func(v *Snapshot) { v.ReplaysEmitted++ }) }
func (s *Stats) IncDraftsEmitted()     { s.update(func(v *Snapshot) { v.DraftsEmitted++ }) }
func (s *Stats) IncBuildFailures()     { s.update(func(v *Snapshot) { v.BuildFailures++ }) }
func (s *Stats) IncSinkErrors()        { s.update(func(v *Snapshot) { v.SinkErrors++ }) }
func (s *Stats) IncRotations()         { s.update(func(v *Snapshot) { v.Rotations++ }) }
func (s *Stats) IncDispatchDropped()   { s.update(func(v *Snapshot) { v.DispatchDropped++ }) }
func (s *Stats) IncSourceUnavailable() { s.update(func(v *Snapshot) { v.SourceUnavailable++ }) }

// AddDroppedObjects records objects the tokenizer discarded for exceeding its size cap.
func (s *Stats) AddDroppedObjects(n int) {
	if n <= 0 {
		return
	}
	s.update(func(v *Snapshot) { v.DroppedObjects += int64(n) })
}

// Snapshot returns a copy of the current counters.
func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.s
	out.Events = maps.Clone(s.s.Events)
	if out.Events == nil {
		out.Events = map[string]int64{}
	}
	return out
}

// publishMu serializes the expvar lookup and registration in Publish.
var publishMu sync.Mutex

// Publish exposes the counters under name in expvar. Publishing a name that
// is already registered is a no-op. It is safe to call concurrently.
func (s *Stats) Publish(name string) {
	publishMu.Lock()
	defer publishMu.Unlock()

	if expvar.Get(name) != nil {
		return
	}
	expvar.Publish(name, expvar.Func(func() any {
		return s.Snapshot()
	}))
}
