package api

import (
	"expvar"
	"log/slog"
	"net"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/arenatapes/pkg/diagnostics"
	"github.com/papercomputeco/arenatapes/pkg/sink"
)

// Server is the diagnostics API server.
type Server struct {
	config    Config
	store     sink.Store
	collector *diagnostics.Collector
	stats     *diagnostics.Stats
	logger    *slog.Logger
	app       *fiber.App
}

// NewServer creates a new API server. The store is shared with the sink set
// so that what the pipeline delivers is immediately readable here.
func NewServer(config Config, store sink.Store, collector *diagnostics.Collector, stats *diagnostics.Stats, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:    config,
		store:     store,
		collector: collector,
		stats:     stats,
		logger:    logger.With("component", "api"),
		app:       app,
	}

	app.Get("/ping", s.handlePing)
	app.Get("/stats", s.handleStats)
	app.Get("/errors", s.handleErrors)
	app.Get("/replays", s.handleListReplays)
	app.Get("/replays/:id", s.handleGetReplay)
	app.Get("/drafts", s.handleListDrafts)
	app.Get("/drafts/:id", s.handleGetDraft)
	app.Get("/debug/vars", adaptor.HTTPHandler(expvar.Handler()))

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server", "listen", s.config.ListenAddr)
	return s.app.Listen(s.config.ListenAddr)
}

// Serve starts the API server on an existing listener.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("starting API server", "listen", ln.Addr().String())
	return s.app.Listener(ln)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
