// Package sqlite provides a SQLite-backed sink.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/papercomputeco/arenatapes/pkg/arena"
	"github.com/papercomputeco/arenatapes/pkg/sink"
)

const schema = `
CREATE TABLE IF NOT EXISTS match_replays (
	match_id         TEXT PRIMARY KEY,
	event_id         TEXT NOT NULL DEFAULT '',
	player_name      TEXT NOT NULL DEFAULT '',
	opponent_name    TEXT NOT NULL DEFAULT '',
	games_won        INTEGER NOT NULL DEFAULT 0,
	match_won        INTEGER,
	completed_at_ns  INTEGER NOT NULL DEFAULT 0,
	payload          TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_match_replays_completed ON match_replays (completed_at_ns);

CREATE TABLE IF NOT EXISTS drafts (
	draft_id         TEXT PRIMARY KEY,
	event_id         TEXT NOT NULL DEFAULT '',
	format           TEXT NOT NULL DEFAULT '',
	set_code         TEXT NOT NULL DEFAULT '',
	pick_count       INTEGER NOT NULL DEFAULT 0,
	completed_at_ns  INTEGER NOT NULL DEFAULT 0,
	payload          TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_drafts_completed ON drafts (completed_at_ns);
`

// Store implements sink.Store on a SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if needed) the database at dbPath and applies the
// schema. dbPath can be a file path or ":memory:".
func NewStore(ctx context.Context, dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("sqlite sink: %w", sink.ErrNotConfigured)
	}

	// Open the database using the github.com/mattn/go-sqlite3 driver (registered as "sqlite3")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

func nullableBool(v bool, ok bool) sql.NullBool {
	return sql.NullBool{Bool: v, Valid: ok}
}

func (s *Store) WriteReplay(ctx context.Context, replay *arena.MatchReplay) error {
	if replay == nil {
		return arena.ErrNilReplay
	}

	payload, err := json.Marshal(replay)
	if err != nil {
		return fmt.Errorf("marshaling replay: %w", err)
	}
	won, decided := replay.MatchWon()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO match_replays
			(match_id, event_id, player_name, opponent_name, games_won, match_won, completed_at_ns, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (match_id) DO UPDATE SET
			event_id = excluded.event_id,
			player_name = excluded.player_name,
			opponent_name = excluded.opponent_name,
			games_won = excluded.games_won,
			match_won = excluded.match_won,
			completed_at_ns = excluded.completed_at_ns,
			payload = excluded.payload`,
		replay.MatchID,
		replay.EventID,
		replay.Player.Name,
		replay.Opponent.Name,
		replay.GamesWon(),
		nullableBool(won, decided),
		replay.CompletedAt.UnixNano(),
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("upserting replay %s: %w", replay.MatchID, err)
	}
	return nil
}

func (s *Store) WriteDraft(ctx context.Context, draft *arena.MTGADraft) error {
	if draft == nil {
		return arena.ErrNilDraft
	}

	payload, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("marshaling draft: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO drafts
			(draft_id, event_id, format, set_code, pick_count, completed_at_ns, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (draft_id) DO UPDATE SET
			event_id = excluded.event_id,
			format = excluded.format,
			set_code = excluded.set_code,
			pick_count = excluded.pick_count,
			completed_at_ns = excluded.completed_at_ns,
			payload = excluded.payload`,
		draft.DraftID,
		draft.EventID,
		string(draft.Format),
		draft.SetCode,
		len(draft.Picks),
		draft.CompletedAt.UnixNano(),
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("upserting draft %s: %w", draft.DraftID, err)
	}
	return nil
}

func (s *Store) GetReplay(ctx context.Context, matchID string) (*arena.MatchReplay, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM match_replays WHERE match_id = ?`, matchID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sink.NotFoundError{ID: matchID}
	}
	if err != nil {
		return nil, fmt.Errorf("querying replay %s: %w", matchID, err)
	}

	replay := &arena.MatchReplay{}
	if err := json.Unmarshal([]byte(payload), replay); err != nil {
		return nil, fmt.Errorf("decoding replay %s: %w", matchID, err)
	}
	return replay, nil
}

func (s *Store) ListReplays(ctx context.Context) ([]*arena.MatchReplay, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM match_replays ORDER BY completed_at_ns DESC, match_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing replays: %w", err)
	}
	defer rows.Close()

	var out []*arena.MatchReplay
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scanning replay: %w", err)
		}
		replay := &arena.MatchReplay{}
		if err := json.Unmarshal([]byte(payload), replay); err != nil {
			return nil, fmt.Errorf("decoding replay: %w", err)
		}
		out = append(out, replay)
	}
	return out, rows.Err()
}

func (s *Store) GetDraft(ctx context.Context, draftID string) (*arena.MTGADraft, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM drafts WHERE draft_id = ?`, draftID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sink.NotFoundError{ID: draftID}
	}
	if err != nil {
		return nil, fmt.Errorf("querying draft %s: %w", draftID, err)
	}

	draft := &arena.MTGADraft{}
	if err := json.Unmarshal([]byte(payload), draft); err != nil {
		return nil, fmt.Errorf("decoding draft %s: %w", draftID, err)
	}
	return draft, nil
}

func (s *Store) ListDrafts(ctx context.Context) ([]*arena.MTGADraft, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM drafts ORDER BY completed_at_ns DESC, draft_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing drafts: %w", err)
	}
	defer rows.Close()

	var out []*arena.MTGADraft
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scanning draft: %w", err)
		}
		draft := &arena.MTGADraft{}
		if err := json.Unmarshal([]byte(payload), draft); err != nil {
			return nil, fmt.Errorf("decoding draft: %w", err)
		}
		out = append(out, draft)
	}
	return out, rows.Err()
}

// MatchRecord reports games won and the match outcome from the indexed
// columns, without decoding the payload.
func (s *Store) MatchRecord(ctx context.Context, matchID string) (gamesWon int, matchWon sql.NullBool, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT games_won, match_won FROM match_replays WHERE match_id = ?`, matchID,
	).Scan(&gamesWon, &matchWon)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, sql.NullBool{}, sink.NotFoundError{ID: matchID}
	}
	return gamesWon, matchWon, err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
