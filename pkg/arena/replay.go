package arena

import (
	"slices"
	"time"
)

// ResultScope distinguishes a single game result from the overall match result.
type ResultScope string

const (
	ScopeGame  ResultScope = "game"
	ScopeMatch ResultScope = "match"
)

// MulliganDecision is the choice the player made when offered a hand.
type MulliganDecision string

const (
	DecisionUndecided MulliganDecision = ""
	DecisionAccept    MulliganDecision = "accept"
	DecisionMulligan  MulliganDecision = "mulligan"
)

// PlayerIdentity describes one participant of a match.
type PlayerIdentity struct {
	Name   string `json:"name"`
	UserID string `json:"user_id,omitempty"`
	SeatID int    `json:"seat_id"`
	TeamID int    `json:"team_id,omitempty"`
}

// DecklistSnapshot is the deck the player submitted before a game. A best of
// three match usually carries one snapshot per game because of sideboarding.
type DecklistSnapshot struct {
	GameNumber  int       `json:"game_number"`
	MainDeck    []int     `json:"main_deck"`
	Sideboard   []int     `json:"sideboard,omitempty"`
	CommandZone []int     `json:"command_zone,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// MulliganRecord is one opening hand the player was offered.
type MulliganRecord struct {
	GameNumber   int              `json:"game_number"`
	Hand         []int            `json:"hand"`
	KeepCount    int              `json:"keep_count"`
	OnPlay       bool             `json:"on_play"`
	OpponentHint string           `json:"opponent_hint,omitempty"`
	Decision     MulliganDecision `json:"decision"`
}

// GameResult is one entry of the final match result list. Game scoped entries are
// numbered from 1 in result list order, match scoped entries carry game number 0.
type GameResult struct {
	Scope         ResultScope `json:"scope"`
	GameNumber    int         `json:"game_number"`
	WinningTeamID int         `json:"winning_team_id"`
	Won           bool        `json:"won"`
	Result        string      `json:"result,omitempty"`
	Reason        string      `json:"reason,omitempty"`
}

// MatchReplay is the completed record of one match.
type MatchReplay struct {
	MatchID       string             `json:"match_id"`
	EventID       string             `json:"event_id,omitempty"`
	Player        PlayerIdentity     `json:"player"`
	Opponent      PlayerIdentity     `json:"opponent"`
	Decklists     []DecklistSnapshot `json:"decklists"`
	Mulligans     []MulliganRecord   `json:"mulligans"`
	Results       []GameResult       `json:"results"`
	OpponentCards []int              `json:"opponent_cards"`
	StartedAt     time.Time          `json:"started_at"`
	CompletedAt   time.Time          `json:"completed_at"`
}

// GamesWon counts the game scoped results won by the player.
func (r *MatchReplay) GamesWon() int {
	won := 0
	for _, res := range r.Results {
		if res.Scope == ScopeGame && res.Won {
			won++
		}
	}
	return won
}

// MatchWon reports the match scoped result, if one was recorded.
func (r *MatchReplay) MatchWon() (won bool, ok bool) {
	for _, res := range r.Results {
		if res.Scope == ScopeMatch {
			return res.Won, true
		}
	}
	return false, false
}

// Clone returns a deep copy so that every sink receives an independent value.
func (r *MatchReplay) Clone() *MatchReplay {
	if r == nil {
		return nil
	}

	out := *r
	out.Decklists = make([]DecklistSnapshot, len(r.Decklists))
	for i, d := range r.Decklists {
		d.MainDeck = slices.Clone(d.MainDeck)
		d.Sideboard = slices.Clone(d.Sideboard)
		d.CommandZone = slices.Clone(d.CommandZone)
		out.Decklists[i] = d
	}

	out.Mulligans = make([]MulliganRecord, len(r.Mulligans))
	for i, m := range r.Mulligans {
		m.Hand = slices.Clone(m.Hand)
		out.Mulligans[i] = m
	}

	out.Results = slices.Clone(r.Results)
	out.OpponentCards = slices.Clone(r.OpponentCards)
	return &out
}
