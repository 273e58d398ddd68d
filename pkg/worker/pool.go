// Package worker provides an asynchronous worker pool for delivering completed
// replays and drafts to sinks.
//
// The pool decouples sink calls from the ingestion tick so that a slow or
// unreachable sink never delays reading the log.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/papercomputeco/arenatapes/pkg/arena"
	"github.com/papercomputeco/arenatapes/pkg/diagnostics"
)

var (
	defaultNumWorkers      uint = 1
	defaultJobQueueSize    uint = 256
	defaultDeliveryTimeout      = 30 * time.Second
)

// Deliverer hands a completed object to every configured sink.
type Deliverer interface {
	DeliverReplay(ctx context.Context, replay *arena.MatchReplay) error
	DeliverDraft(ctx context.Context, draft *arena.MTGADraft) error
}

// Job is a unit of work for the worker pool. Exactly one field is set.
type Job struct {
	Replay *arena.MatchReplay
	Draft  *arena.MTGADraft
}

func (j Job) kind() string {
	if j.Draft != nil {
		return "draft"
	}
	return "replay"
}

func (j Job) id() string {
	if j.Draft != nil {
		return j.Draft.DraftID
	}
	if j.Replay != nil {
		return j.Replay.MatchID
	}
	return ""
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Sinks receives every job.
	Sinks Deliverer

	// NumWorkers is the number of background workers in the pool. The default
	// of one preserves completion order across sinks.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	// Timeout bounds a single delivery across all sinks (defaults to 30s).
	Timeout time.Duration

	Logger *slog.Logger

	// Stats is optional.
	Stats *diagnostics.Stats
}

// Pool processes delivery jobs asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.Sinks == nil {
		return nil, errors.New("worker pool requires sinks")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.Timeout <= 0 {
		c.Timeout = defaultDeliveryTimeout
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	logger := c.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	wp := &Pool{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		logger: logger.With("component", "worker"),
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits a job for processing by the worker pool.
// Returns true if enqueued, false if the queue is full or the pool is
// closed, resulting in the job being dropped.
func (p *Pool) Enqueue(job Job) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.logger.Error("job not queued, pool closed", "kind", job.kind(), "id", job.id())
		p.countDropped()
		return false
	}

	select {
	case p.queue <- job:
		p.logger.Debug("job queued", "kind", job.kind(), "id", job.id())
		return true
	default:
		p.logger.Error("job not queued, queue full, job dropped", "kind", job.kind(), "id", job.id())
		p.countDropped()
		return false
	}
}

// DispatchReplay enqueues replay for delivery.
func (p *Pool) DispatchReplay(replay *arena.MatchReplay) bool {
	return p.Enqueue(Job{Replay: replay})
}

// DispatchDraft enqueues draft for delivery.
func (p *Pool) DispatchDraft(draft *arena.MTGADraft) bool {
	return p.Enqueue(Job{Draft: draft})
}

// Close stops accepting jobs and waits for queued jobs to drain.
// Calling Close more than once is safe.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *Pool) countDropped() {
	if p.config.Stats != nil {
		p.config.Stats.IncDispatchDropped()
	}
}

// worker is the inner worker thread that continuously pulls jobs off the jobs queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", "worker_id", id)

	for job := range p.queue {
		p.processJob(job)
	}

	p.logger.Debug("worker stopped", "worker_id", id)
}

// processJob delivers one job. Sink failures are logged and counted by the
// Deliverer; the pool only records that delivery finished.
func (p *Pool) processJob(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), p.config.Timeout)
	defer cancel()

	var err error
	switch {
	case job.Replay != nil:
		err = p.config.Sinks.DeliverReplay(ctx, job.Replay)
	case job.Draft != nil:
		err = p.config.Sinks.DeliverDraft(ctx, job.Draft)
	default:
		p.logger.Warn("empty job skipped")
		return
	}

	if err != nil {
		p.logger.Warn("delivery finished with errors", "kind", job.kind(), "id", job.id(), "error", err)
		return
	}

	p.logger.Info("delivered", "kind", job.kind(), "id", job.id())
}
