// Package jsonfile writes every replay and draft as a pretty printed JSON file
// named after its id.
package jsonfile

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/papercomputeco/arenatapes/pkg/arena"
	"github.com/papercomputeco/arenatapes/pkg/sink"
)

const (
	replaysDir = "replays"
	draftsDir  = "drafts"
)

// Store implements sink.Store on a directory tree:
//
//	<root>/replays/<match_id>.json
//	<root>/drafts/<draft_id>.json
type Store struct {
	root string
}

// NewStore creates the directory layout under root.
func NewStore(root string) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("json sink: %w", sink.ErrNotConfigured)
	}
	for _, sub := range []string{replaysDir, draftsDir} {
		if err := os.MkdirAll(filepath.Join(root, sub), 0o755); err != nil {
			return nil, fmt.Errorf("creating json sink directory: %w", err)
		}
	}
	return &Store{root: root}, nil
}

// Root is the directory the store writes into.
func (s *Store) Root() string {
	return s.root
}

// fileName maps an id onto a file name. Letters, digits, '-' and any '.' but
// a leading one are kept; every other byte, '_' included, becomes "_XX" hex,
// so distinct ids never share a file.
func fileName(id string) string {
	if id == "" {
		return "_.json"
	}
	var b strings.Builder
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-':
			b.WriteByte(c)
		case c == '.' && i > 0:
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "_%02X", c)
		}
	}
	return b.String() + ".json"
}

func (s *Store) replayPath(matchID string) string {
	return filepath.Join(s.root, replaysDir, fileName(matchID))
}

func (s *Store) draftPath(draftID string) string {
	return filepath.Join(s.root, draftsDir, fileName(draftID))
}

// writeAtomic writes v next to path and renames it into place so readers
// never observe a partial file.
func writeAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", filepath.Base(path), err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("renaming into place: %w", err)
	}
	return nil
}

func readJSON(path, id string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return sink.NotFoundError{ID: id}
		}
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

// listJSON returns the .json files of dir, skipping temp files.
func listJSON(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".tmp-") || filepath.Ext(name) != ".json" {
			continue
		}
		paths = append(paths, filepath.Join(dir, name))
	}
	return paths, nil
}

func (s *Store) WriteReplay(_ context.Context, replay *arena.MatchReplay) error {
	if replay == nil {
		return arena.ErrNilReplay
	}
	return writeAtomic(s.replayPath(replay.MatchID), replay)
}

func (s *Store) WriteDraft(_ context.Context, draft *arena.MTGADraft) error {
	if draft == nil {
		return arena.ErrNilDraft
	}
	return writeAtomic(s.draftPath(draft.DraftID), draft)
}

func (s *Store) GetReplay(_ context.Context, matchID string) (*arena.MatchReplay, error) {
	replay := &arena.MatchReplay{}
	if err := readJSON(s.replayPath(matchID), matchID, replay); err != nil {
		return nil, err
	}
	return replay, nil
}

func (s *Store) ListReplays(ctx context.Context) ([]*arena.MatchReplay, error) {
	paths, err := listJSON(filepath.Join(s.root, replaysDir))
	if err != nil {
		return nil, err
	}

	out := make([]*arena.MatchReplay, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		replay := &arena.MatchReplay{}
		if err := readJSON(path, filepath.Base(path), replay); err != nil {
			return nil, err
		}
		out = append(out, replay)
	}
	slices.SortFunc(out, func(a, b *arena.MatchReplay) int {
		if c := b.CompletedAt.Compare(a.CompletedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.MatchID, b.MatchID)
	})
	return out, nil
}

func (s *Store) GetDraft(_ context.Context, draftID string) (*arena.MTGADraft, error) {
	draft := &arena.MTGADraft{}
	if err := readJSON(s.draftPath(draftID), draftID, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

func (s *Store) ListDrafts(ctx context.Context) ([]*arena.MTGADraft, error) {
	paths, err := listJSON(filepath.Join(s.root, draftsDir))
	if err != nil {
		return nil, err
	}

	out := make([]*arena.MTGADraft, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		draft := &arena.MTGADraft{}
		if err := readJSON(path, filepath.Base(path), draft); err != nil {
			return nil, err
		}
		out = append(out, draft)
	}
	slices.SortFunc(out, func(a, b *arena.MTGADraft) int {
		if c := b.CompletedAt.Compare(a.CompletedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.DraftID, b.DraftID)
	})
	return out, nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}
