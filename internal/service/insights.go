package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/amityadav/trendfinder/internal/dispatch"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Insights is the dispatcher surface the transports need
type Insights interface {
	RunDefaultQueries() error
	RunCustomQuery(text string) (bool, error)
	Snapshot() (dispatch.Snapshot, error)
}

// InsightsServiceServer is the server API for insights.InsightsService
type InsightsServiceServer interface {
	RunDefaultQueries(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	RunCustomQuery(context.Context, *wrapperspb.StringValue) (*wrapperspb.BoolValue, error)
	GetState(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// InsightsService implements InsightsServiceServer on top of the dispatcher
type InsightsService struct {
	insights Insights
}

// NewInsightsService creates a new InsightsService
func NewInsightsService(i Insights) *InsightsService {
	return &InsightsService{insights: i}
}

// RunDefaultQueries implements InsightsServiceServer.RunDefaultQueries
func (s *InsightsService) RunDefaultQueries(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	if err := s.insights.RunDefaultQueries(); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

// RunCustomQuery implements InsightsServiceServer.RunCustomQuery.
// The reply is false when the query was blank and nothing was dispatched.
func (s *InsightsService) RunCustomQuery(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	ok, err := s.insights.RunCustomQuery(req.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.Bool(ok), nil
}

// GetState implements InsightsServiceServer.GetState
func (s *InsightsService) GetState(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	snap, err := s.insights.Snapshot()
	if err != nil {
		return nil, toStatus(err)
	}
	return SnapshotStruct(snap)
}

// SnapshotStruct converts a snapshot into its JSON-shaped protobuf form
func SnapshotStruct(snap dispatch.Snapshot) (*structpb.Struct, error) {
	raw, err := json.Marshal(snap)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode state: %v", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode state: %v", err)
	}
	return out, nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, dispatch.ErrDefaultsPending):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, dispatch.ErrClosed):
		return status.Error(codes.Unavailable, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// RegisterInsightsServiceServer registers srv with s
func RegisterInsightsServiceServer(s grpc.ServiceRegistrar, srv InsightsServiceServer) {
	s.RegisterService(&InsightsServiceDesc, srv)
}

// InsightsServiceDesc describes insights.InsightsService. The messages are
// protobuf well-known types, so no generated code is needed.
var InsightsServiceDesc = grpc.ServiceDesc{
	ServiceName: "insights.InsightsService",
	HandlerType: (*InsightsServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "RunDefaultQueries", Handler: runDefaultQueriesHandler},
		{MethodName: "RunCustomQuery", Handler: runCustomQueryHandler},
		{MethodName: "GetState", Handler: getStateHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "insights/insights.proto",
}

func runDefaultQueriesHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InsightsServiceServer).RunDefaultQueries(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/insights.InsightsService/RunDefaultQueries"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(InsightsServiceServer).RunDefaultQueries(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func runCustomQueryHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InsightsServiceServer).RunCustomQuery(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/insights.InsightsService/RunCustomQuery"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(InsightsServiceServer).RunCustomQuery(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func getStateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InsightsServiceServer).GetState(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/insights.InsightsService/GetState"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(InsightsServiceServer).GetState(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}
