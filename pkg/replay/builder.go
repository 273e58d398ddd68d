// Package replay folds classified client log events into MatchReplay records.
package replay

import (
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/papercomputeco/arenatapes/pkg/arena"
	"github.com/papercomputeco/arenatapes/pkg/protocol"
)

// openingHandSize is the hand size a keep count is measured against.
const openingHandSize = 7

// cardKey identifies one revealed card by owning seat.
type cardKey struct {
	owner int
	grpID int
}

// Builder accumulates the single in-flight match. The zero value is ready to
// use. A Builder is owned by one goroutine.
type Builder struct {
	seat    int
	matchID string
	eventID string

	players map[int]protocol.ReservedPlayer
	teams   map[int]int

	decklists []arena.DecklistSnapshot
	mulligans []arena.MulliganRecord
	results   []arena.GameResult

	revealed     []cardKey
	revealedSeen map[cardKey]struct{}
	reported     []int
	reportedSeen map[int]struct{}

	game *gameState

	startedAt   time.Time
	completedAt time.Time

	abandoned int
}

// gameState is the per-game view rebuilt from game state messages.
type gameState struct {
	number         int
	startingPlayer int
	mulliganCounts map[int]int
	handZones      map[int][]int
	objects        map[int]protocol.GameObject
}

func newGameState(number int) *gameState {
	return &gameState{
		number:         number,
		mulliganCounts: map[int]int{},
		handZones:      map[int][]int{},
		objects:        map[int]protocol.GameObject{},
	}
}

// New returns an empty Builder.
func New() *Builder {
	return &Builder{}
}

// IsTerminal reports whether ev completes a match: a room state change that
// carries the final match result.
func IsTerminal(ev protocol.Event) bool {
	if ev.Kind != protocol.KindRoomState || ev.RoomState == nil {
		return false
	}
	_, ok := ev.RoomState.FinalResult()
	return ok
}

// Ingest folds ev into the in-flight match and reports whether a replay is
// ready. Build must be called before ingesting events of the next match.
func (b *Builder) Ingest(ev protocol.Event) bool {
	switch ev.Kind {
	case protocol.KindClient:
		b.ingestClient(ev.Client)
	case protocol.KindRoomState:
		b.ingestRoomState(ev.RoomState)
	case protocol.KindGre:
		b.ingestGre(ev.Gre)
	case protocol.KindBusiness:
		b.ingestBusiness(ev.Business)
	}
	return IsTerminal(ev)
}

// InFlight reports whether any match state has been accumulated.
func (b *Builder) InFlight() bool {
	return b.seat != 0 || b.matchID != "" || len(b.players) > 0 || len(b.decklists) > 0 || len(b.mulligans) > 0
}

// Abandoned counts matches discarded because a different match started
// before the previous one completed.
func (b *Builder) Abandoned() int {
	return b.abandoned
}

// Seat returns the controller seat, or 0 before a decklist was observed.
func (b *Builder) Seat() int {
	return b.seat
}

// Reset discards all in-flight state. The abandoned counter survives.
func (b *Builder) Reset() {
	abandoned := b.abandoned
	*b = Builder{}
	b.abandoned = abandoned
}

// Build snapshots the accumulated match and resets the builder, whether or
// not the snapshot succeeds.
func (b *Builder) Build() (*arena.MatchReplay, error) {
	defer b.Reset()

	if b.seat == 0 {
		return nil, fmt.Errorf("%w: no controller seat observed", arena.ErrInsufficientData)
	}
	player, ok := b.players[b.seat]
	if !ok || player.PlayerName == "" {
		return nil, fmt.Errorf("%w: no player identity for seat %d", arena.ErrInsufficientData, b.seat)
	}
	if b.matchID == "" {
		return nil, fmt.Errorf("%w: no match id observed", arena.ErrInsufficientData)
	}

	replay := &arena.MatchReplay{
		MatchID:       b.matchID,
		EventID:       b.eventID,
		Player:        b.identity(player),
		Decklists:     slices.Clone(b.decklists),
		Mulligans:     slices.Clone(b.mulligans),
		Results:       slices.Clone(b.results),
		OpponentCards: b.opponentCards(),
		StartedAt:     b.startedAt,
		CompletedAt:   b.completedAt,
	}
	if opp, ok := b.opponentOf(b.seat); ok {
		replay.Opponent = b.identity(opp)
	}
	if replay.Decklists == nil {
		replay.Decklists = []arena.DecklistSnapshot{}
	}
	if replay.Mulligans == nil {
		replay.Mulligans = []arena.MulliganRecord{}
	}
	if replay.Results == nil {
		replay.Results = []arena.GameResult{}
	}

	return replay, nil
}

func (b *Builder) identity(p protocol.ReservedPlayer) arena.PlayerIdentity {
	return arena.PlayerIdentity{
		Name:   p.PlayerName,
		UserID: p.UserID,
		SeatID: p.SystemSeatID,
		TeamID: b.teamOf(p.SystemSeatID),
	}
}

// opponentOf returns the player in the lowest seat other than seat.
func (b *Builder) opponentOf(seat int) (protocol.ReservedPlayer, bool) {
	seats := make([]int, 0, len(b.players))
	for s := range b.players {
		if s != seat {
			seats = append(seats, s)
		}
	}
	if len(seats) == 0 {
		return protocol.ReservedPlayer{}, false
	}
	sort.Ints(seats)
	return b.players[seats[0]], true
}

// teamOf resolves the team of seat from room state, then game state, and
// finally assumes the common one-seat-per-team layout.
func (b *Builder) teamOf(seat int) int {
	if p, ok := b.players[seat]; ok && p.TeamID != 0 {
		return p.TeamID
	}
	if team, ok := b.teams[seat]; ok && team != 0 {
		return team
	}
	return seat
}

func (b *Builder) opponentCards() []int {
	out := []int{}
	seen := map[int]struct{}{}
	for _, card := range b.revealed {
		if card.owner == b.seat {
			continue
		}
		if _, ok := seen[card.grpID]; ok {
			continue
		}
		seen[card.grpID] = struct{}{}
		out = append(out, card.grpID)
	}
	for _, grpID := range b.reported {
		if _, ok := seen[grpID]; ok {
			continue
		}
		seen[grpID] = struct{}{}
		out = append(out, grpID)
	}
	slices.Sort(out)
	return out
}

func (b *Builder) touch(at time.Time) {
	if b.startedAt.IsZero() && !at.IsZero() {
		b.startedAt = at
	}
}

func (b *Builder) currentGame() *gameState {
	if b.game == nil {
		b.game = newGameState(1)
	}
	return b.game
}

func (b *Builder) ingestClient(msg *protocol.ClientMessage) {
	if msg == nil {
		return
	}

	if deck, ok := msg.DeckSubmission(); ok {
		b.touch(msg.Timestamp.Time)
		if len(b.decklists) == 0 {
			b.seat = msg.Payload.SystemSeatID
		}
		b.decklists = append(b.decklists, arena.DecklistSnapshot{
			GameNumber:  len(b.decklists) + 1,
			MainDeck:    slices.Clone(deck.DeckCards),
			Sideboard:   slices.Clone(deck.SideboardCards),
			CommandZone: slices.Clone(deck.CommandZoneGRPIDs),
			SubmittedAt: msg.Timestamp.Time,
		})
		return
	}

	if decision, ok := msg.MulliganDecision(); ok {
		if b.seat != 0 && msg.Payload.SystemSeatID != 0 && msg.Payload.SystemSeatID != b.seat {
			return
		}
		for i := len(b.mulligans) - 1; i >= 0; i-- {
			if b.mulligans[i].Decision != arena.DecisionUndecided {
				continue
			}
			switch decision {
			case protocol.MulliganOptionAcceptHand:
				b.mulligans[i].Decision = arena.DecisionAccept
			case protocol.MulliganOptionMulligan:
				b.mulligans[i].Decision = arena.DecisionMulligan
			}
			return
		}
	}
}

func (b *Builder) ingestRoomState(msg *protocol.RoomStateMessage) {
	if msg == nil {
		return
	}
	b.touch(msg.Timestamp.Time)
	info := msg.Info()

	if msg.IsPlaying() {
		if id := info.GameRoomConfig.MatchID; id != "" {
			if b.matchID != "" && b.matchID != id {
				b.abandoned++
				b.Reset()
				b.touch(msg.Timestamp.Time)
			}
			b.matchID = id
		}
		if b.players == nil {
			b.players = map[int]protocol.ReservedPlayer{}
		}
		for _, p := range info.GameRoomConfig.ReservedPlayers {
			b.players[p.SystemSeatID] = p
		}
		b.refreshEventID()
	}

	res, ok := msg.FinalResult()
	if !ok {
		return
	}
	if id := msg.MatchID(); id != "" {
		b.matchID = id
	}
	b.completedAt = msg.Timestamp.Time

	playerTeam := b.teamOf(b.seat)
	game := 0
	for _, entry := range res.ResultList {
		result := arena.GameResult{
			WinningTeamID: entry.WinningTeamID,
			Won:           b.seat != 0 && entry.WinningTeamID == playerTeam,
			Result:        entry.Result,
			Reason:        entry.Reason,
		}
		if entry.Scope == protocol.ResultScopeGame {
			game++
			result.Scope = arena.ScopeGame
			result.GameNumber = game
		} else {
			result.Scope = arena.ScopeMatch
		}
		b.results = append(b.results, result)
	}
}

func (b *Builder) refreshEventID() {
	if p, ok := b.players[b.seat]; ok && p.EventID != "" {
		b.eventID = p.EventID
		return
	}
	if b.eventID != "" {
		return
	}
	for _, p := range b.players {
		if p.EventID != "" {
			b.eventID = p.EventID
			return
		}
	}
}

func (b *Builder) ingestGre(msg *protocol.GreMessage) {
	if msg == nil {
		return
	}
	b.touch(msg.Timestamp.Time)

	for i := range msg.Event.Messages {
		m := &msg.Event.Messages[i]
		if m.GameStateMessage != nil {
			b.applyGameState(m.GameStateMessage)
		}
		if m.Type != protocol.GREMessageTypeMulliganReq {
			continue
		}
		if b.seat != 0 && !m.IsMulliganPromptFor(b.seat) {
			continue
		}
		b.recordMulliganPrompt(m)
	}
}

func (b *Builder) applyGameState(gs *protocol.GameStateMessage) {
	if gs.GameInfo != nil {
		if b.matchID == "" && gs.GameInfo.MatchID != "" {
			b.matchID = gs.GameInfo.MatchID
		}
		if n := gs.GameInfo.GameNumber; n > 0 && (b.game == nil || b.game.number != n) {
			b.game = newGameState(n)
		}
	}
	game := b.currentGame()

	for _, p := range gs.Players {
		game.mulliganCounts[p.SystemSeatNumber] = p.MulliganCount
		if p.TeamID != 0 {
			if b.teams == nil {
				b.teams = map[int]int{}
			}
			b.teams[p.SystemSeatNumber] = p.TeamID
		}
	}

	if gs.TurnInfo != nil && game.startingPlayer == 0 && gs.TurnInfo.ActivePlayer != 0 {
		game.startingPlayer = gs.TurnInfo.ActivePlayer
	}

	for _, zone := range gs.Zones {
		if zone.Type == protocol.ZoneTypeHand {
			game.handZones[zone.OwnerSeatID] = slices.Clone(zone.ObjectInstanceIDs)
		}
	}

	for _, obj := range gs.GameObjects {
		game.objects[obj.InstanceID] = obj
		if obj.Visibility == protocol.VisibilityPublic && obj.GrpID != 0 {
			b.reveal(cardKey{owner: obj.OwnerSeatID, grpID: obj.GrpID})
		}
	}
}

func (b *Builder) reveal(card cardKey) {
	if b.revealedSeen == nil {
		b.revealedSeen = map[cardKey]struct{}{}
	}
	if _, ok := b.revealedSeen[card]; ok {
		return
	}
	b.revealedSeen[card] = struct{}{}
	b.revealed = append(b.revealed, card)
}

func (b *Builder) recordMulliganPrompt(m *protocol.GreToClientMessage) {
	seat := b.seat
	if seat == 0 && len(m.SystemSeatIDs) > 0 {
		seat = m.SystemSeatIDs[0]
	}
	game := b.currentGame()

	hand := []int{}
	for _, id := range game.handZones[seat] {
		if obj, ok := game.objects[id]; ok && obj.GrpID != 0 {
			hand = append(hand, obj.GrpID)
		}
	}

	keep := openingHandSize - game.mulliganCounts[seat]
	if keep < 0 {
		keep = 0
	}

	record := arena.MulliganRecord{
		GameNumber: game.number,
		Hand:       hand,
		KeepCount:  keep,
		OnPlay:     game.startingPlayer != 0 && game.startingPlayer == seat,
		Decision:   arena.DecisionUndecided,
	}
	if opp, ok := b.opponentOf(seat); ok {
		record.OpponentHint = opp.PlayerName
	}
	b.mulligans = append(b.mulligans, record)
}

func (b *Builder) ingestBusiness(msg *protocol.BusinessMessage) {
	if msg == nil || msg.Kind != protocol.BusinessGame || msg.Game == nil {
		return
	}
	if b.reportedSeen == nil {
		b.reportedSeen = map[int]struct{}{}
	}
	for _, grpID := range msg.Game.OpponentCardIDs {
		if _, ok := b.reportedSeen[grpID]; ok {
			continue
		}
		b.reportedSeen[grpID] = struct{}{}
		b.reported = append(b.reported, grpID)
	}
}
