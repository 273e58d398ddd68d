// Package rpc forwards completed replays and drafts to a remote ingest
// service over gRPC, using a JSON codec instead of generated protobuf stubs.
package rpc

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/papercomputeco/arenatapes/pkg/arena"
	"github.com/papercomputeco/arenatapes/pkg/sink"
)

const defaultCallTimeout = 10 * time.Second

// Sink is a gRPC client implementing sink.ReplaySink and sink.DraftSink.
type Sink struct {
	conn    *grpc.ClientConn
	timeout time.Duration
}

// Option configures a Sink.
type Option func(*sinkOptions)

type sinkOptions struct {
	timeout  time.Duration
	dialOpts []grpc.DialOption
}

// WithTimeout bounds every call. Defaults to 10s.
func WithTimeout(d time.Duration) Option {
	return func(o *sinkOptions) {
		o.timeout = d
	}
}

// WithDialOptions appends dial options, e.g. a custom dialer in tests.
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(o *sinkOptions) {
		o.dialOpts = append(o.dialOpts, opts...)
	}
}

// NewSink creates a client for target. The connection is established lazily
// on the first call.
func NewSink(target string, opts ...Option) (*Sink, error) {
	if target == "" {
		return nil, fmt.Errorf("rpc sink: %w", sink.ErrNotConfigured)
	}

	o := &sinkOptions{timeout: defaultCallTimeout}
	for _, opt := range opts {
		opt(o)
	}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(Codec{})),
	}, o.dialOpts...)

	conn, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("dial ingest grpc: %w", err)
	}
	return &Sink{conn: conn, timeout: o.timeout}, nil
}

func (s *Sink) call(ctx context.Context, method string, req any) (*Ack, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ack := &Ack{}
	if err := s.conn.Invoke(ctx, method, req, ack); err != nil {
		return nil, err
	}
	return ack, nil
}

func (s *Sink) WriteReplay(ctx context.Context, replay *arena.MatchReplay) error {
	if replay == nil {
		return arena.ErrNilReplay
	}
	ack, err := s.call(ctx, SubmitReplayMethod, replay)
	if err != nil {
		return fmt.Errorf("submitting replay %s: %w", replay.MatchID, err)
	}
	if !ack.Accepted {
		return fmt.Errorf("replay %s rejected by ingest service", replay.MatchID)
	}
	return nil
}

func (s *Sink) WriteDraft(ctx context.Context, draft *arena.MTGADraft) error {
	if draft == nil {
		return arena.ErrNilDraft
	}
	ack, err := s.call(ctx, SubmitDraftMethod, draft)
	if err != nil {
		return fmt.Errorf("submitting draft %s: %w", draft.DraftID, err)
	}
	if !ack.Accepted {
		return fmt.Errorf("draft %s rejected by ingest service", draft.DraftID)
	}
	return nil
}

// Close closes the client connection.
func (s *Sink) Close() error {
	return s.conn.Close()
}
