package protocol

import "encoding/json"

// MarkerRoomState identifies game room state change events.
const MarkerRoomState = `"matchGameRoomStateChangedEvent"`

const (
	StateTypePlaying        = "MatchGameRoomStateType_Playing"
	StateTypeMatchCompleted = "MatchGameRoomStateType_MatchCompleted"

	ResultScopeGame  = "MatchScope_Game"
	ResultScopeMatch = "MatchScope_Match"
)

// RoomStateMessage reports match lifecycle transitions, including final results.
type RoomStateMessage struct {
	TransactionID string                `json:"transactionId"`
	Timestamp     Timestamp             `json:"timestamp"`
	Event         RoomStateChangedEvent `json:"matchGameRoomStateChangedEvent"`
}

type RoomStateChangedEvent struct {
	GameRoomInfo GameRoomInfo `json:"gameRoomInfo"`
}

type GameRoomInfo struct {
	GameRoomConfig   GameRoomConfig    `json:"gameRoomConfig"`
	StateType        string            `json:"stateType"`
	FinalMatchResult *FinalMatchResult `json:"finalMatchResult,omitempty"`
}

type GameRoomConfig struct {
	MatchID         string           `json:"matchId"`
	ReservedPlayers []ReservedPlayer `json:"reservedPlayers"`
}

// ReservedPlayer is one seat of the game room.
type ReservedPlayer struct {
	UserID       string `json:"userId"`
	PlayerName   string `json:"playerName"`
	SystemSeatID int    `json:"systemSeatId"`
	TeamID       int    `json:"teamId"`
	EventID      string `json:"eventId"`
}

type FinalMatchResult struct {
	MatchID              string        `json:"matchId"`
	MatchCompletedReason string        `json:"matchCompletedReason"`
	ResultList           []ResultEntry `json:"resultList"`
}

type ResultEntry struct {
	Scope         string `json:"scope"`
	Result        string `json:"result"`
	WinningTeamID int    `json:"winningTeamId"`
	Reason        string `json:"reason"`
}

// Info is shorthand for the embedded room info.
func (m *RoomStateMessage) Info() *GameRoomInfo {
	return &m.Event.GameRoomInfo
}

// IsPlaying reports a "playing" state that carries player metadata.
func (m *RoomStateMessage) IsPlaying() bool {
	info := m.Info()
	return info.StateType == StateTypePlaying && len(info.GameRoomConfig.ReservedPlayers) > 0
}

// FinalResult returns the final match result when present.
func (m *RoomStateMessage) FinalResult() (*FinalMatchResult, bool) {
	res := m.Info().FinalMatchResult
	return res, res != nil
}

// MatchID prefers the id of the final result and falls back to the room config.
func (m *RoomStateMessage) MatchID() string {
	if res, ok := m.FinalResult(); ok && res.MatchID != "" {
		return res.MatchID
	}
	return m.Info().GameRoomConfig.MatchID
}

func decodeRoomState(raw []byte) (Event, error) {
	msg := &RoomStateMessage{}
	if err := json.Unmarshal(raw, msg); err != nil {
		return NotAnEvent, err
	}
	return Event{Kind: KindRoomState, RoomState: msg}, nil
}
