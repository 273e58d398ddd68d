package arena

import (
	"slices"
	"strings"
	"time"
)

// DraftFormat is the draft style derived from an event identifier.
type DraftFormat string

const (
	PremierDraft     DraftFormat = "PremierDraft"
	QuickDraft       DraftFormat = "QuickDraft"
	TraditionalDraft DraftFormat = "TradDraft"
	PickTwoDraft     DraftFormat = "PickTwoDraft"
	CubeDraft        DraftFormat = "CubeDraft"
)

// formatTokens maps the first token of an event identifier to its format.
var formatTokens = map[string]DraftFormat{
	"PremierDraft":     PremierDraft,
	"QuickDraft":       QuickDraft,
	"BotDraft":         QuickDraft,
	"TradDraft":        TraditionalDraft,
	"TraditionalDraft": TraditionalDraft,
	"PickTwoDraft":     PickTwoDraft,
	"PickTwoTradDraft": PickTwoDraft,
	"CubeDraft":        CubeDraft,
	"ArenaCubeDraft":   CubeDraft,
}

// ParseEventID splits an event identifier such as "PremierDraft_MKM_20240206"
// into its format and set code. Anything that does not split into exactly three
// "_" separated parts yields TraditionalDraft and an empty set code. A three part
// identifier with an unknown first token keeps its set code and falls back to
// TraditionalDraft.
func ParseEventID(eventID string) (DraftFormat, string) {
	parts := strings.Split(eventID, "_")
	if len(parts) != 3 {
		return TraditionalDraft, ""
	}

	format, ok := formatTokens[parts[0]]
	if !ok {
		format = TraditionalDraft
	}
	return format, parts[1]
}

// PicksPerPosition is how many cards are taken at each pack/pick position.
func (f DraftFormat) PicksPerPosition() int {
	if f == PickTwoDraft {
		return 2
	}
	return 1
}

// FinalPick is the pick number of the last position in pack 3.
func (f DraftFormat) FinalPick() int {
	if f == PickTwoDraft {
		return 7
	}
	return 13
}

// DraftPick is one selection made during a draft.
type DraftPick struct {
	PackNumber      int     `json:"pack_number"`
	PickNumber      int     `json:"pick_number"`
	SelectionNumber int     `json:"selection_number"`
	PackContents    []int   `json:"pack_contents"`
	PickedCard      int     `json:"picked_card"`
	TimeRemaining   float64 `json:"time_remaining"`
	AutoPick        bool    `json:"auto_pick,omitempty"`
}

// MTGADraft is a completed draft reconstructed in pack/pick order.
type MTGADraft struct {
	DraftID     string      `json:"draft_id"`
	EventID     string      `json:"event_id"`
	Format      DraftFormat `json:"format"`
	SetCode     string      `json:"set_code"`
	Picks       []DraftPick `json:"picks"`
	CompletedAt time.Time   `json:"completed_at"`
}

// PickedCards returns the picked card of every selection in order.
func (d *MTGADraft) PickedCards() []int {
	out := make([]int, 0, len(d.Picks))
	for _, p := range d.Picks {
		out = append(out, p.PickedCard)
	}
	return out
}

// Clone returns a deep copy so that every sink receives an independent value.
func (d *MTGADraft) Clone() *MTGADraft {
	if d == nil {
		return nil
	}

	out := *d
	out.Picks = make([]DraftPick, len(d.Picks))
	for i, p := range d.Picks {
		p.PackContents = slices.Clone(p.PackContents)
		out.Picks[i] = p
	}
	return &out
}
