package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MarkerClient identifies client-to-match-service envelopes.
const MarkerClient = `"clientToMatchServiceMessageType"`

const (
	ClientMessageTypeSubmitDeckResp = "ClientMessageType_SubmitDeckResp"
	ClientMessageTypeMulliganResp   = "ClientMessageType_MulliganResp"

	MulliganOptionAcceptHand = "MulliganOption_AcceptHand"
	MulliganOptionMulligan   = "MulliganOption_Mulligan"
)

// ClientMessage is a player-client originated message relayed to the match service.
type ClientMessage struct {
	TransactionID string    `json:"transactionId"`
	RequestID     int       `json:"requestId"`
	Timestamp     Timestamp `json:"timestamp"`
	MessageType   string    `json:"clientToMatchServiceMessageType"`

	// RawPayload is either an object or a JSON encoded string holding one.
	RawPayload json.RawMessage `json:"payload,omitempty"`

	// Payload is the decoded RawPayload, nil when the envelope carried none.
	Payload *ClientPayload `json:"-"`
}

// ClientPayload is the client-to-game-engine message inside the envelope.
type ClientPayload struct {
	Type           string          `json:"type"`
	SystemSeatID   int             `json:"systemSeatId"`
	GameStateID    int             `json:"gameStateId"`
	RespID         int             `json:"respId"`
	SubmitDeckResp *SubmitDeckResp `json:"submitDeckResp,omitempty"`
	MulliganResp   *MulliganResp   `json:"mulliganResp,omitempty"`
}

type SubmitDeckResp struct {
	Deck Deck `json:"deck"`
}

type Deck struct {
	DeckCards         []int `json:"deckCards"`
	SideboardCards    []int `json:"sideboardCards"`
	CommandZoneGRPIDs []int `json:"commandZoneGRPIds"`
}

type MulliganResp struct {
	Decision string `json:"decision"`
}

// DeckSubmission returns the submitted deck when the message is a deck submission.
func (m *ClientMessage) DeckSubmission() (*Deck, bool) {
	if m.Payload == nil || m.Payload.Type != ClientMessageTypeSubmitDeckResp || m.Payload.SubmitDeckResp == nil {
		return nil, false
	}
	return &m.Payload.SubmitDeckResp.Deck, true
}

// MulliganDecision returns the raw decision when the message answers a mulligan prompt.
func (m *ClientMessage) MulliganDecision() (string, bool) {
	if m.Payload == nil || m.Payload.Type != ClientMessageTypeMulliganResp || m.Payload.MulliganResp == nil {
		return "", false
	}
	return m.Payload.MulliganResp.Decision, true
}

func decodeClient(raw []byte) (Event, error) {
	msg := &ClientMessage{}
	if err := json.Unmarshal(raw, msg); err != nil {
		return NotAnEvent, err
	}

	payload, err := decodeClientPayload(msg.RawPayload)
	if err != nil {
		return NotAnEvent, fmt.Errorf("decoding payload: %w", err)
	}
	msg.Payload = payload

	return Event{Kind: KindClient, Client: msg}, nil
}

func decodeClientPayload(raw json.RawMessage) (*ClientPayload, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	// Some client builds encode the payload as a string holding JSON.
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, err
		}
		if inner == "" {
			return nil, nil
		}
		raw = json.RawMessage(inner)
	}

	payload := &ClientPayload{}
	if err := json.Unmarshal(raw, payload); err != nil {
		return nil, err
	}
	return payload, nil
}
