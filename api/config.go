// Package api provides an HTTP API server for inspecting a running pipeline:
// its counters, recent parse failures, and the replays and drafts it produced.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., "127.0.0.1:8081")
	ListenAddr string
}
