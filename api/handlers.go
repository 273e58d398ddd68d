package api

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/arenatapes/pkg/arena"
	"github.com/papercomputeco/arenatapes/pkg/diagnostics"
	"github.com/papercomputeco/arenatapes/pkg/sink"
)

const defaultErrorLimit = 50

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatsResponse reports pipeline counters and the error collector size.
type StatsResponse struct {
	diagnostics.Snapshot
	ErrorsHeld  int `json:"errors_held"`
	ErrorsTotal int `json:"errors_total"`
}

// ErrorsResponse lists the most recent parse failures, oldest first.
type ErrorsResponse struct {
	Count  int                  `json:"count"`
	Total  int                  `json:"total"`
	Errors []arena.ParseFailure `json:"errors"`
}

// ReplaySummary is one entry of the replay listing.
type ReplaySummary struct {
	MatchID     string    `json:"match_id"`
	EventID     string    `json:"event_id"`
	Opponent    string    `json:"opponent"`
	GamesWon    int       `json:"games_won"`
	Won         *bool     `json:"won,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
}

// DraftSummary is one entry of the draft listing.
type DraftSummary struct {
	DraftID     string            `json:"draft_id"`
	EventID     string            `json:"event_id"`
	Format      arena.DraftFormat `json:"format"`
	SetCode     string            `json:"set_code"`
	Picks       int               `json:"picks"`
	CompletedAt string            `json:"completed_at"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

func (s *Server) handleStats(c *fiber.Ctx) error {
	resp := StatsResponse{}
	if s.stats != nil {
		resp.Snapshot = s.stats.Snapshot()
	}
	if s.collector != nil {
		resp.ErrorsHeld = s.collector.Len()
		resp.ErrorsTotal = s.collector.Total()
	}
	return c.JSON(resp)
}

// handleErrors returns recent parse failures.
// Query parameters:
//   - limit (optional, default 50): number of failures to return
func (s *Server) handleErrors(c *fiber.Ctx) error {
	limit := defaultErrorLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "limit must be a positive integer"})
		}
		limit = parsed
	}

	resp := ErrorsResponse{Errors: []arena.ParseFailure{}}
	if s.collector != nil {
		if latest := s.collector.Latest(limit); latest != nil {
			resp.Errors = latest
		}
		resp.Total = s.collector.Total()
	}
	resp.Count = len(resp.Errors)
	return c.JSON(resp)
}

func (s *Server) handleListReplays(c *fiber.Ctx) error {
	if s.store == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Error: "no replay store configured"})
	}

	replays, err := s.store.ListReplays(c.Context())
	if err != nil {
		s.logger.Error("listing replays", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to list replays"})
	}

	out := make([]ReplaySummary, 0, len(replays))
	for _, r := range replays {
		summary := ReplaySummary{
			MatchID:     r.MatchID,
			EventID:     r.EventID,
			Opponent:    r.Opponent.Name,
			GamesWon:    r.GamesWon(),
			CompletedAt: r.CompletedAt,
		}
		if won, ok := r.MatchWon(); ok {
			summary.Won = &won
		}
		out = append(out, summary)
	}

	return c.JSON(map[string]any{
		"count":   len(out),
		"replays": out,
	})
}

func (s *Server) handleGetReplay(c *fiber.Ctx) error {
	if s.store == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Error: "no replay store configured"})
	}

	replay, err := s.store.GetReplay(c.Context(), c.Params("id"))
	if err != nil {
		return s.lookupError(c, err)
	}
	return c.JSON(replay)
}

func (s *Server) handleListDrafts(c *fiber.Ctx) error {
	if s.store == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Error: "no draft store configured"})
	}

	drafts, err := s.store.ListDrafts(c.Context())
	if err != nil {
		s.logger.Error("listing drafts", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to list drafts"})
	}

	out := make([]DraftSummary, 0, len(drafts))
	for _, d := range drafts {
		out = append(out, DraftSummary{
			DraftID:     d.DraftID,
			EventID:     d.EventID,
			Format:      d.Format,
			SetCode:     d.SetCode,
			Picks:       len(d.Picks),
			CompletedAt: d.CompletedAt.Format(time.RFC3339Nano),
		})
	}

	return c.JSON(map[string]any{
		"count":  len(out),
		"drafts": out,
	})
}

func (s *Server) handleGetDraft(c *fiber.Ctx) error {
	if s.store == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Error: "no draft store configured"})
	}

	draft, err := s.store.GetDraft(c.Context(), c.Params("id"))
	if err != nil {
		return s.lookupError(c, err)
	}
	return c.JSON(draft)
}

func (s *Server) lookupError(c *fiber.Ctx, err error) error {
	if sink.IsNotFound(err) {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: err.Error()})
	}
	s.logger.Error("store lookup failed", "id", c.Params("id"), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "lookup failed"})
}
