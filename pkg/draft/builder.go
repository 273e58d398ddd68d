// Package draft folds draft pack business events into MTGADraft records.
package draft

import (
	"fmt"
	"slices"

	"github.com/papercomputeco/arenatapes/pkg/arena"
	"github.com/papercomputeco/arenatapes/pkg/protocol"
)

// Position is a pack/pick coordinate.
type Position struct {
	Pack int
	Pick int
}

func (p Position) compare(o Position) int {
	if p.Pack != o.Pack {
		return p.Pack - o.Pack
	}
	return p.Pick - o.Pick
}

// IsComplete reports whether picks finish a draft of format. Pick-two drafts
// end with exactly two records at pack 3 pick 7; all other formats end with at
// least one record at pack 3 pick 13.
func IsComplete(format arena.DraftFormat, picks map[Position][]protocol.DraftPackEvent) bool {
	n := len(picks[Position{Pack: 3, Pick: format.FinalPick()}])
	if format.PicksPerPosition() == 2 {
		return n == 2
	}
	return n >= 1
}

// Builder accumulates the single in-flight draft. The zero value is ready to
// use. A Builder is owned by one goroutine.
type Builder struct {
	draftID string
	eventID string
	picks   map[Position][]protocol.DraftPackEvent

	mismatched int
}

// New returns an empty Builder.
func New() *Builder {
	return &Builder{}
}

// Ingest records a draft pack event and reports whether the draft is complete.
// Every other event is ignored.
func (b *Builder) Ingest(ev protocol.Event) bool {
	if ev.Kind != protocol.KindBusiness || ev.Business == nil || ev.Business.Kind != protocol.BusinessDraftPack {
		return false
	}
	pack := ev.Business.DraftPack

	if b.draftID == "" {
		b.draftID = pack.DraftID
	} else if pack.DraftID != "" && pack.DraftID != b.draftID {
		b.mismatched++
	}
	if b.eventID == "" {
		b.eventID = pack.EventID
	}

	if b.picks == nil {
		b.picks = map[Position][]protocol.DraftPackEvent{}
	}
	pos := Position{Pack: pack.PackNumber, Pick: pack.PickNumber}
	record := *pack
	record.CardsInPack = slices.Clone(pack.CardsInPack)
	b.picks[pos] = append(b.picks[pos], record)

	return IsComplete(b.Format(), b.picks)
}

// Format derives the draft format from the first observed event id.
func (b *Builder) Format() arena.DraftFormat {
	format, _ := arena.ParseEventID(b.eventID)
	return format
}

// DraftID is the id of the in-flight draft.
func (b *Builder) DraftID() string {
	return b.draftID
}

// Mismatched counts records whose draft id differed from the in-flight one.
func (b *Builder) Mismatched() int {
	return b.mismatched
}

// InFlight reports whether any pick has been recorded.
func (b *Builder) InFlight() bool {
	return len(b.picks) > 0
}

// Reset discards all in-flight state.
func (b *Builder) Reset() {
	*b = Builder{}
}

// Build flattens the recorded picks in ascending pack/pick order, numbering
// repeated records at one position from zero, and resets the builder.
func (b *Builder) Build() (*arena.MTGADraft, error) {
	defer b.Reset()

	if b.draftID == "" || len(b.picks) == 0 {
		return nil, fmt.Errorf("%w: no draft picks observed", arena.ErrInsufficientData)
	}

	positions := make([]Position, 0, len(b.picks))
	for pos := range b.picks {
		positions = append(positions, pos)
	}
	slices.SortFunc(positions, Position.compare)

	format, setCode := arena.ParseEventID(b.eventID)
	out := &arena.MTGADraft{
		DraftID: b.draftID,
		EventID: b.eventID,
		Format:  format,
		SetCode: setCode,
		Picks:   []arena.DraftPick{},
	}
	for _, pos := range positions {
		for i, rec := range b.picks[pos] {
			out.Picks = append(out.Picks, arena.DraftPick{
				PackNumber:      pos.Pack,
				PickNumber:      pos.Pick,
				SelectionNumber: i,
				PackContents:    rec.CardsInPack,
				PickedCard:      rec.PickGrpID,
				TimeRemaining:   rec.TimeRemainingOnPick,
				AutoPick:        rec.AutoPick,
			})
		}
	}
	return out, nil
}
