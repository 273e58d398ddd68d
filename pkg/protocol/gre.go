package protocol

import (
	"encoding/json"
	"slices"
)

// MarkerGre identifies game-engine-to-client envelopes.
const MarkerGre = `"greToClientEvent"`

const (
	GREMessageTypeGameState   = "GREMessageType_GameStateMessage"
	GREMessageTypeMulliganReq = "GREMessageType_MulliganReq"

	ZoneTypeHand     = "ZoneType_Hand"
	VisibilityPublic = "Visibility_Public"
)

// GreMessage carries game-logic originated messages to the client.
type GreMessage struct {
	TransactionID string           `json:"transactionId"`
	Timestamp     Timestamp        `json:"timestamp"`
	Event         GreToClientEvent `json:"greToClientEvent"`
}

type GreToClientEvent struct {
	Messages []GreToClientMessage `json:"greToClientMessages"`
}

type GreToClientMessage struct {
	Type             string            `json:"type"`
	SystemSeatIDs    []int             `json:"systemSeatIds"`
	MsgID            int               `json:"msgId"`
	GameStateID      int               `json:"gameStateId"`
	GameStateMessage *GameStateMessage `json:"gameStateMessage,omitempty"`
	MulliganReq      *MulliganReq      `json:"mulliganReq,omitempty"`
}

type GameStateMessage struct {
	Type        string       `json:"type"`
	GameInfo    *GameInfo    `json:"gameInfo,omitempty"`
	Players     []GamePlayer `json:"players,omitempty"`
	TurnInfo    *TurnInfo    `json:"turnInfo,omitempty"`
	Zones       []Zone       `json:"zones,omitempty"`
	GameObjects []GameObject `json:"gameObjects,omitempty"`
}

type GameInfo struct {
	MatchID    string `json:"matchID"`
	GameNumber int    `json:"gameNumber"`
	Stage      string `json:"stage"`
}

type GamePlayer struct {
	SystemSeatNumber int `json:"systemSeatNumber"`
	TeamID           int `json:"teamId"`
	MulliganCount    int `json:"mulliganCount"`
}

type TurnInfo struct {
	TurnNumber     int `json:"turnNumber"`
	ActivePlayer   int `json:"activePlayer"`
	DecisionPlayer int `json:"decisionPlayer"`
}

type Zone struct {
	ZoneID            int    `json:"zoneId"`
	Type              string `json:"type"`
	OwnerSeatID       int    `json:"ownerSeatId"`
	ObjectInstanceIDs []int  `json:"objectInstanceIds"`
}

type GameObject struct {
	InstanceID  int    `json:"instanceId"`
	GrpID       int    `json:"grpId"`
	OwnerSeatID int    `json:"ownerSeatId"`
	ZoneID      int    `json:"zoneId"`
	Visibility  string `json:"visibility"`
}

type MulliganReq struct {
	MulliganType string `json:"mulliganType"`
}

// IsMulliganPromptFor reports a mulligan request addressed to seat.
func (m *GreToClientMessage) IsMulliganPromptFor(seat int) bool {
	return m.Type == GREMessageTypeMulliganReq && slices.Contains(m.SystemSeatIDs, seat)
}

func decodeGre(raw []byte) (Event, error) {
	msg := &GreMessage{}
	if err := json.Unmarshal(raw, msg); err != nil {
		return NotAnEvent, err
	}
	return Event{Kind: KindGre, Gre: msg}, nil
}
