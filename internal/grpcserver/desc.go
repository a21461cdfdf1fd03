package grpcserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "workflow.v1.WorkflowService"

// Full method names.
const (
	MethodListStages          = "/" + ServiceName + "/ListStages"
	MethodListCandidates      = "/" + ServiceName + "/ListCandidates"
	MethodMoveStage           = "/" + ServiceName + "/MoveStage"
	MethodRescheduleInterview = "/" + ServiceName + "/RescheduleInterview"
)

// WorkflowServer is the server API. Messages are well-known types carrying
// the same JSON documents as the REST API.
type WorkflowServer interface {
	ListStages(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	ListCandidates(context.Context, *structpb.Struct) (*structpb.Struct, error)
	MoveStage(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RescheduleInterview(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes WorkflowServer for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*WorkflowServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListStages", Handler: listStagesHandler},
		{MethodName: "ListCandidates", Handler: structHandler(MethodListCandidates, WorkflowServer.ListCandidates)},
		{MethodName: "MoveStage", Handler: structHandler(MethodMoveStage, WorkflowServer.MoveStage)},
		{MethodName: "RescheduleInterview", Handler: structHandler(MethodRescheduleInterview, WorkflowServer.RescheduleInterview)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "workflow/v1/workflow.proto",
}

// RegisterWorkflowServer registers srv on s.
func RegisterWorkflowServer(s grpc.ServiceRegistrar, srv WorkflowServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func listStagesHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(WorkflowServer).ListStages(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodListStages}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(WorkflowServer).ListStages(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func structHandler(method string, call func(WorkflowServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(WorkflowServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(WorkflowServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}
