package rpc

import (
	"context"

	"google.golang.org/grpc"

	"github.com/papercomputeco/arenatapes/pkg/arena"
	"github.com/papercomputeco/arenatapes/pkg/sink"
)

const (
	ServiceName        = "arenatapes.v1.IngestService"
	SubmitReplayMethod = "/" + ServiceName + "/SubmitReplay"
	SubmitDraftMethod  = "/" + ServiceName + "/SubmitDraft"
)

// Ack is the response to a submission.
type Ack struct {
	Accepted bool   `json:"accepted"`
	ID       string `json:"id"`
}

// IngestServer receives submissions.
type IngestServer interface {
	SubmitReplay(ctx context.Context, replay *arena.MatchReplay) (*Ack, error)
	SubmitDraft(ctx context.Context, draft *arena.MTGADraft) (*Ack, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*IngestServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SubmitReplay", Handler: submitReplayHandler},
		{MethodName: "SubmitDraft", Handler: submitDraftHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "arenatapes/v1/ingest",
}

// RegisterIngestServer registers srv on s. The server must be created with
// grpc.ForceServerCodec(Codec{}).
func RegisterIngestServer(s grpc.ServiceRegistrar, srv IngestServer) {
	s.RegisterService(&serviceDesc, srv)
}

func submitReplayHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(arena.MatchReplay)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(IngestServer).SubmitReplay(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SubmitReplayMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(IngestServer).SubmitReplay(ctx, req.(*arena.MatchReplay))
	}
	return interceptor(ctx, in, info, handler)
}

func submitDraftHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(arena.MTGADraft)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(IngestServer).SubmitDraft(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SubmitDraftMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(IngestServer).SubmitDraft(ctx, req.(*arena.MTGADraft))
	}
	return interceptor(ctx, in, info, handler)
}

// StoreServer serves submissions by writing them to a sink.
type StoreServer struct {
	Replays sink.ReplaySink
	Drafts  sink.DraftSink
}

func (s *StoreServer) SubmitReplay(ctx context.Context, replay *arena.MatchReplay) (*Ack, error) {
	if s.Replays == nil {
		return &Ack{Accepted: false, ID: replay.MatchID}, nil
	}
	if err := s.Replays.WriteReplay(ctx, replay); err != nil {
		return nil, err
	}
	return &Ack{Accepted: true, ID: replay.MatchID}, nil
}

func (s *StoreServer) SubmitDraft(ctx context.Context, draft *arena.MTGADraft) (*Ack, error) {
	if s.Drafts == nil {
		return &Ack{Accepted: false, ID: draft.DraftID}, nil
	}
	if err := s.Drafts.WriteDraft(ctx, draft); err != nil {
		return nil, err
	}
	return &Ack{Accepted: true, ID: draft.DraftID}, nil
}
