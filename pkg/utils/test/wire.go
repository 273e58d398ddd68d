// Package testutils builds client log fixtures for tests. Fixtures are
// assembled from literal key names rather than the decoder's struct tags so
// that a tag typo shows up as a failing test.
package testutils

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Seat describes one reserved player of a game room.
type Seat struct {
	Name    string
	UserID  string
	SeatID  int
	TeamID  int
	EventID string
}

// Result is one entry of a final match result.
type Result struct {
	Scope         string
	WinningTeamID int
	Result        string
	Reason        string
}

// GameResult is a game-scoped win for team.
func GameResult(team int) Result {
	return Result{Scope: "MatchScope_Game", WinningTeamID: team, Result: "ResultType_WinLoss", Reason: "ResultReason_Game"}
}

// MatchResult is a match-scoped win for team.
func MatchResult(team int) Result {
	return Result{Scope: "MatchScope_Match", WinningTeamID: team, Result: "ResultType_WinLoss", Reason: "ResultReason_Game"}
}

// Player is a game state player entry.
type Player struct {
	Seat          int
	Team          int
	MulliganCount int
}

// Object is a game object; Public marks it publicly visible.
type Object struct {
	InstanceID int
	GrpID      int
	Owner      int
	ZoneID     int
	Public     bool
}

// GameState describes a game state message addressed to Seat.
type GameState struct {
	Seat         int
	MatchID      string
	GameNumber   int
	ActivePlayer int
	Players      []Player

	// Hand is placed in a hand zone owned by HandOwner, which defaults to Seat.
	HandOwner int
	Hand      []int

	Objects []Object
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("fixture marshal: %v", err))
	}
	return string(b)
}

func ints(in []int) []int {
	if in == nil {
		return []int{}
	}
	return in
}

func clientEnvelope(payload any) string {
	return mustJSON(map[string]any{
		"transactionId":                   "c1b0f1d2-0000-4000-8000-000000000001",
		"requestId":                       7,
		"timestamp":                       "638444812345678901",
		"clientToMatchServiceMessageType": "ClientToMatchServiceMessageType_ClientToGREMessage",
		"payload":                         payload,
	})
}

func submitDeckPayload(seat int, main, side []int) map[string]any {
	return map[string]any{
		"type":         "ClientMessageType_SubmitDeckResp",
		"systemSeatId": seat,
		"submitDeckResp": map[string]any{
			"deck": map[string]any{
				"deckCards":      ints(main),
				"sideboardCards": ints(side),
			},
		},
	}
}

// SubmitDeck is a deck submission from seat with an object payload.
func SubmitDeck(seat int, main, side []int) string {
	return clientEnvelope(submitDeckPayload(seat, main, side))
}

// SubmitDeckStringPayload is a deck submission whose payload is a JSON string.
func SubmitDeckStringPayload(seat int, main, side []int) string {
	return clientEnvelope(mustJSON(submitDeckPayload(seat, main, side)))
}

// MulliganResp answers a mulligan prompt from seat.
func MulliganResp(seat int, keep bool) string {
	decision := "MulliganOption_Mulligan"
	if keep {
		decision = "MulliganOption_AcceptHand"
	}
	return clientEnvelope(map[string]any{
		"type":         "ClientMessageType_MulliganResp",
		"systemSeatId": seat,
		"mulliganResp": map[string]any{"decision": decision},
	})
}

func roomState(matchID, state string, seats []Seat, final map[string]any) string {
	players := make([]map[string]any, 0, len(seats))
	for _, s := range seats {
		players = append(players, map[string]any{
			"userId":       s.UserID,
			"playerName":   s.Name,
			"systemSeatId": s.SeatID,
			"teamId":       s.TeamID,
			"eventId":      s.EventID,
		})
	}
	info := map[string]any{
		"gameRoomConfig": map[string]any{
			"reservedPlayers": players,
			"matchId":         matchID,
		},
		"stateType": state,
	}
	if final != nil {
		info["finalMatchResult"] = final
	}
	return mustJSON(map[string]any{
		"transactionId": "b6c4e2a0-0000-4000-8000-000000000002",
		"timestamp":     "1707235200000",
		"matchGameRoomStateChangedEvent": map[string]any{
			"gameRoomInfo": info,
		},
	})
}

// RoomStatePlaying announces the seated players of a match.
func RoomStatePlaying(matchID string, seats ...Seat) string {
	return roomState(matchID, "MatchGameRoomStateType_Playing", seats, nil)
}

// MatchCompleted carries the final results of a match.
func MatchCompleted(matchID string, results ...Result) string {
	list := make([]map[string]any, 0, len(results))
	for _, r := range results {
		list = append(list, map[string]any{
			"scope":         r.Scope,
			"result":        r.Result,
			"winningTeamId": r.WinningTeamID,
			"reason":        r.Reason,
		})
	}
	return roomState(matchID, "MatchGameRoomStateType_MatchCompleted", nil, map[string]any{
		"matchId":              matchID,
		"matchCompletedReason": "MatchCompletedReasonType_Success",
		"resultList":           list,
	})
}

func greEnvelope(messages ...map[string]any) string {
	return mustJSON(map[string]any{
		"transactionId": "a7d9c3b1-0000-4000-8000-000000000003",
		"timestamp":     "638444812345678999",
		"greToClientEvent": map[string]any{
			"greToClientMessages": messages,
		},
	})
}

// String renders the game state as a wire message.
func (g GameState) String() string {
	players := make([]map[string]any, 0, len(g.Players))
	for _, p := range g.Players {
		players = append(players, map[string]any{
			"systemSeatNumber": p.Seat,
			"teamId":           p.Team,
			"mulliganCount":    p.MulliganCount,
		})
	}

	handOwner := g.HandOwner
	if handOwner == 0 {
		handOwner = g.Seat
	}

	zones := []map[string]any{}
	objects := []map[string]any{}
	if len(g.Hand) > 0 {
		ids := make([]int, 0, len(g.Hand))
		for i, grp := range g.Hand {
			id := 100 + i
			ids = append(ids, id)
			objects = append(objects, map[string]any{
				"instanceId":  id,
				"grpId":       grp,
				"ownerSeatId": handOwner,
				"zoneId":      31,
				"visibility":  "Visibility_Private",
			})
		}
		zones = append(zones, map[string]any{
			"zoneId":            31,
			"type":              "ZoneType_Hand",
			"ownerSeatId":       handOwner,
			"objectInstanceIds": ids,
		})
	}
	for _, o := range g.Objects {
		visibility := "Visibility_Private"
		if o.Public {
			visibility = "Visibility_Public"
		}
		objects = append(objects, map[string]any{
			"instanceId":  o.InstanceID,
			"grpId":       o.GrpID,
			"ownerSeatId": o.Owner,
			"zoneId":      o.ZoneID,
			"visibility":  visibility,
		})
	}

	state := map[string]any{
		"type": "GameStateType_Full",
		"gameInfo": map[string]any{
			"matchID":    g.MatchID,
			"gameNumber": g.GameNumber,
			"stage":      "GameStage_Start",
		},
		"players":     players,
		"zones":       zones,
		"gameObjects": objects,
	}
	if g.ActivePlayer != 0 {
		state["turnInfo"] = map[string]any{
			"turnNumber":     1,
			"activePlayer":   g.ActivePlayer,
			"decisionPlayer": g.ActivePlayer,
		}
	}

	return greEnvelope(map[string]any{
		"type":             "GREMessageType_GameStateMessage",
		"systemSeatIds":    []int{g.Seat},
		"msgId":            1,
		"gameStateId":      1,
		"gameStateMessage": state,
	})
}

// MulliganReq prompts seat to keep or mulligan.
func MulliganReq(seat int) string {
	return greEnvelope(map[string]any{
		"type":          "GREMessageType_MulliganReq",
		"systemSeatIds": []int{seat},
		"msgId":         2,
		"gameStateId":   2,
		"mulliganReq":   map[string]any{"mulliganType": "MulliganType_London"},
	})
}

func business(request map[string]any) string {
	return mustJSON(map[string]any{
		"id":      "0f7e4a3c-0000-4000-8000-000000000004",
		"request": mustJSON(request),
	})
}

// BusinessGame is a game summary telemetry event.
func BusinessGame(matchID string, gameNumber int, opponentCards []int) string {
	return business(map[string]any{
		"EventId":         "PremierDraft_MKM_20240206",
		"MatchId":         matchID,
		"GameNumber":      gameNumber,
		"SeatId":          1,
		"TeamId":          1,
		"WinningTeamId":   1,
		"WinningReason":   "ResultReason_Game",
		"TurnCount":       9,
		"SecondsCount":    612,
		"OpponentCardIds": ints(opponentCards),
	})
}

// DraftPack presents a pack and the pick made from it.
func DraftPack(draftID, eventID string, pack, pick int, cards []int, picked int) string {
	return business(map[string]any{
		"DraftId":             draftID,
		"EventId":             eventID,
		"PackNumber":          pack,
		"PickNumber":          pick,
		"PickGrpId":           picked,
		"CardsInPack":         ints(cards),
		"TimeRemainingOnPick": 41.5,
		"AutoPick":            false,
	})
}

// DraftPick is a bare pick confirmation.
func DraftPick(draftID string, pack, pick, picked int) string {
	return business(map[string]any{
		"DraftId":    draftID,
		"PackNumber": pack,
		"PickNumber": pick,
		"PickGrpId":  picked,
	})
}

// Log interleaves objects with the header lines and noise the client writes.
func Log(objects ...string) string {
	var b strings.Builder
	for i, obj := range objects {
		fmt.Fprintf(&b, "[UnityCrossThreadLogger]2/6/2024 7:%02d:00 PM\n", i%60)
		b.WriteString(obj)
		b.WriteString("\n")
	}
	return b.String()
}

// Pretty re-indents a compact fixture the way the client sometimes writes it.
func Pretty(obj string) string {
	var v any
	if err := json.Unmarshal([]byte(obj), &v); err != nil {
		panic(fmt.Sprintf("fixture unmarshal: %v", err))
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		panic(fmt.Sprintf("fixture marshal: %v", err))
	}
	return string(b)
}
