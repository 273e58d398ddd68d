package protocol

import (
	"encoding/json"
)

// BusinessKind discriminates the inner record of a business event.
type BusinessKind int

const (
	BusinessGame BusinessKind = iota + 1
	BusinessDraftPack
	BusinessDraftPick
)

func (k BusinessKind) String() string {
	switch k {
	case BusinessGame:
		return "game"
	case BusinessDraftPack:
		return "draft_pack"
	case BusinessDraftPick:
		return "draft_pick"
	default:
		return "unknown"
	}
}

// BusinessMessage is the generic {"id", "request"} telemetry envelope, with the
// JSON string in "request" decoded into one of the known inner records.
type BusinessMessage struct {
	ID        string
	Kind      BusinessKind
	Game      *GameEvent
	DraftPack *DraftPackEvent
	DraftPick *DraftPickEvent
}

// GameEvent summarizes one finished game.
type GameEvent struct {
	EventID         string `json:"EventId"`
	MatchID         string `json:"MatchId"`
	GameNumber      int    `json:"GameNumber"`
	SeatID          int    `json:"SeatId"`
	TeamID          int    `json:"TeamId"`
	WinningTeamID   int    `json:"WinningTeamId"`
	WinningReason   string `json:"WinningReason"`
	TurnCount       int    `json:"TurnCount"`
	SecondsCount    int    `json:"SecondsCount"`
	OpponentCardIDs []int  `json:"OpponentCardIds"`
}

// DraftPackEvent is a pack presented to the player together with the pick made from it.
type DraftPackEvent struct {
	DraftID             string  `json:"DraftId"`
	EventID             string  `json:"EventId"`
	PackNumber          int     `json:"PackNumber"`
	PickNumber          int     `json:"PickNumber"`
	PickGrpID           int     `json:"PickGrpId"`
	CardsInPack         []int   `json:"CardsInPack"`
	TimeRemainingOnPick float64 `json:"TimeRemainingOnPick"`
	AutoPick            bool    `json:"AutoPick"`
}

// DraftPickEvent is a bare pick confirmation without pack contents.
type DraftPickEvent struct {
	DraftID    string `json:"DraftId"`
	EventID    string `json:"EventId"`
	PackNumber int    `json:"PackNumber"`
	PickNumber int    `json:"PickNumber"`
	PickGrpID  int    `json:"PickGrpId"`
}

type businessEnvelope struct {
	ID      *string `json:"id"`
	Request *string `json:"request"`
}

// decodeBusiness is the unmarked fallback. Every failure yields NotAnEvent
// since most objects reaching it are unrelated log noise.
func decodeBusiness(raw []byte) Event {
	var env businessEnvelope
	if err := json.Unmarshal(raw, &env); err != nil || env.ID == nil || env.Request == nil {
		return NotAnEvent
	}

	inner := []byte(*env.Request)
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(inner, &fields); err != nil {
		return NotAnEvent
	}

	msg := &BusinessMessage{ID: *env.ID}
	switch {
	case hasFields(fields, "MatchId", "GameNumber"):
		ev := &GameEvent{}
		if json.Unmarshal(inner, ev) != nil {
			return NotAnEvent
		}
		msg.Kind, msg.Game = BusinessGame, ev

	case hasFields(fields, "DraftId", "PackNumber", "PickNumber", "CardsInPack"):
		ev := &DraftPackEvent{}
		if json.Unmarshal(inner, ev) != nil {
			return NotAnEvent
		}
		msg.Kind, msg.DraftPack = BusinessDraftPack, ev

	case hasFields(fields, "DraftId", "PickGrpId"):
		ev := &DraftPickEvent{}
		if json.Unmarshal(inner, ev) != nil {
			return NotAnEvent
		}
		msg.Kind, msg.DraftPick = BusinessDraftPick, ev

	default:
		return NotAnEvent
	}

	return Event{Kind: KindBusiness, Business: msg}
}

func hasFields(fields map[string]json.RawMessage, names ...string) bool {
	for _, name := range names {
		if _, ok := fields[name]; !ok {
			return false
		}
	}
	return true
}
