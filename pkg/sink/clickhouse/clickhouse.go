// Package clickhouse flattens replays into per-game result rows and drafts
// into per-pick rows for analytical queries in ClickHouse.
package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/papercomputeco/arenatapes/pkg/arena"
	"github.com/papercomputeco/arenatapes/pkg/sink"
)

var tables = []string{
	`CREATE TABLE IF NOT EXISTS game_results (
		match_id        String,
		event_id        String,
		player_name     String,
		opponent_name   String,
		scope           LowCardinality(String),
		game_number     UInt8,
		won             Bool,
		winning_team_id Int32,
		reason          String,
		completed_at    DateTime64(3, 'UTC')
	) ENGINE = ReplacingMergeTree
	ORDER BY (match_id, scope, game_number)`,

	`CREATE TABLE IF NOT EXISTS draft_picks (
		draft_id         String,
		event_id         String,
		format           LowCardinality(String),
		set_code         LowCardinality(String),
		pack_number      UInt8,
		pick_number      UInt8,
		selection_number UInt8,
		picked_card      Int32,
		pack_contents    Array(Int32),
		time_remaining   Float64,
		auto_pick        Bool,
		completed_at     DateTime64(3, 'UTC')
	) ENGINE = ReplacingMergeTree
	ORDER BY (draft_id, pack_number, pick_number, selection_number)`,
}

// Options configures the ClickHouse connection.
type Options struct {
	Addr     string
	Database string
	Username string
	Password string
}

// Sink writes analytics rows to ClickHouse. It implements sink.ReplaySink
// and sink.DraftSink.
type Sink struct {
	conn driver.Conn
}

// NewSink connects to ClickHouse and creates the analytics tables.
func NewSink(ctx context.Context, opts Options) (*Sink, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("clickhouse sink: %w", sink.ErrNotConfigured)
	}
	if opts.Database == "" {
		opts.Database = "default"
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{opts.Addr},
		Auth: clickhouse.Auth{
			Database: opts.Database,
			Username: opts.Username,
			Password: opts.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	for _, ddl := range tables {
		if err := conn.Exec(ctx, ddl); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to create table: %w", err)
		}
	}

	return &Sink{conn: conn}, nil
}

// GameRow is one row of game_results.
type GameRow struct {
	MatchID       string
	EventID       string
	PlayerName    string
	OpponentName  string
	Scope         string
	GameNumber    uint8
	Won           bool
	WinningTeamID int32
	Reason        string
	CompletedAt   time.Time
}

// PickRow is one row of draft_picks.
type PickRow struct {
	DraftID         string
	EventID         string
	Format          string
	SetCode         string
	PackNumber      uint8
	PickNumber      uint8
	SelectionNumber uint8
	PickedCard      int32
	PackContents    []int32
	TimeRemaining   float64
	AutoPick        bool
	CompletedAt     time.Time
}

// ReplayRows flattens the results of replay into rows.
func ReplayRows(replay *arena.MatchReplay) []GameRow {
	rows := make([]GameRow, 0, len(replay.Results))
	for _, res := range replay.Results {
		rows = append(rows, GameRow{
			MatchID:       replay.MatchID,
			EventID:       replay.EventID,
			PlayerName:    replay.Player.Name,
			OpponentName:  replay.Opponent.Name,
			Scope:         string(res.Scope),
			GameNumber:    uint8(res.GameNumber),
			Won:           res.Won,
			WinningTeamID: int32(res.WinningTeamID),
			Reason:        res.Reason,
			CompletedAt:   replay.CompletedAt.UTC(),
		})
	}
	return rows
}

// DraftRows flattens the picks of draft into rows.
func DraftRows(draft *arena.MTGADraft) []PickRow {
	rows := make([]PickRow, 0, len(draft.Picks))
	for _, p := range draft.Picks {
		contents := make([]int32, 0, len(p.PackContents))
		for _, c := range p.PackContents {
			contents = append(contents, int32(c))
		}
		rows = append(rows, PickRow{
			DraftID:         draft.DraftID,
			EventID:         draft.EventID,
			Format:          string(draft.Format),
			SetCode:         draft.SetCode,
			PackNumber:      uint8(p.PackNumber),
			PickNumber:      uint8(p.PickNumber),
			SelectionNumber: uint8(p.SelectionNumber),
			PickedCard:      int32(p.PickedCard),
			PackContents:    contents,
			TimeRemaining:   p.TimeRemaining,
			AutoPick:        p.AutoPick,
			CompletedAt:     draft.CompletedAt.UTC(),
		})
	}
	return rows
}

func (s *Sink) WriteReplay(ctx context.Context, replay *arena.MatchReplay) error {
	if replay == nil {
		return arena.ErrNilReplay
	}
	rows := ReplayRows(replay)
	if len(rows) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, "INSERT INTO game_results")
	if err != nil {
		return fmt.Errorf("preparing game_results batch: %w", err)
	}
	defer batch.Abort()

	for _, r := range rows {
		if err := batch.Append(
			r.MatchID, r.EventID, r.PlayerName, r.OpponentName, r.Scope,
			r.GameNumber, r.Won, r.WinningTeamID, r.Reason, r.CompletedAt,
		); err != nil {
			return fmt.Errorf("appending game result: %w", err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("sending game_results batch: %w", err)
	}
	return nil
}

func (s *Sink) WriteDraft(ctx context.Context, draft *arena.MTGADraft) error {
	if draft == nil {
		return arena.ErrNilDraft
	}
	rows := DraftRows(draft)
	if len(rows) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, "INSERT INTO draft_picks")
	if err != nil {
		return fmt.Errorf("preparing draft_picks batch: %w", err)
	}
	defer batch.Abort()

	for _, r := range rows {
		if err := batch.Append(
			r.DraftID, r.EventID, r.Format, r.SetCode, r.PackNumber, r.PickNumber,
			r.SelectionNumber, r.PickedCard, r.PackContents, r.TimeRemaining, r.AutoPick, r.CompletedAt,
		); err != nil {
			return fmt.Errorf("appending draft pick: %w", err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("sending draft_picks batch: %w", err)
	}
	return nil
}

// CountGames returns how many game_results rows exist for matchID.
func (s *Sink) CountGames(ctx context.Context, matchID string) (uint64, error) {
	var n uint64
	row := s.conn.QueryRow(ctx, "SELECT count() FROM game_results FINAL WHERE match_id = ?", matchID)
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Close closes the ClickHouse connection.
func (s *Sink) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
