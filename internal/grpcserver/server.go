// Package grpcserver implements the WorkflowService gRPC server and client.
//
// The server delegates all business logic to workflow.Service and handles
// only the gRPC transport concerns: error mapping and conversion between
// the domain model and the Struct messages.
package grpcserver

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"jobmate/workflow-service/internal/interview"
	"jobmate/workflow-service/internal/model"
	"jobmate/workflow-service/internal/pipeline"
	"jobmate/workflow-service/internal/workflow"
)

// Server implements WorkflowServer.
type Server struct {
	svc *workflow.Service
}

// NewServer constructs a gRPC Server backed by the given workflow.Service.
func NewServer(svc *workflow.Service) *Server {
	return &Server{svc: svc}
}

type candidatesRequest struct {
	Stage  pipeline.Stage `json:"stage"`
	Search string         `json:"search"`
	Page   int            `json:"page"`
	Limit  int            `json:"limit"`
}

type moveRequest struct {
	ApplicationID string `json:"applicationId"`
	model.StageChange
}

type rescheduleRequest struct {
	InterviewID string `json:"interviewId"`
	model.InterviewPayload
}

// ─── RPC implementations ──────────────────────────────────────────────────────

// ListStages returns the ordered stage catalog.
func (s *Server) ListStages(_ context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	out, err := toList(s.svc.Stages())
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// ListCandidates returns one candidate page with analytics.
func (s *Server) ListCandidates(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req candidatesRequest
	if err := fromMessage(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	page, err := s.svc.Candidates(ctx, model.CandidateQuery{
		Stage: req.Stage, Search: req.Search, Page: req.Page, Limit: req.Limit,
	})
	if err != nil {
		return nil, toGRPCError(err)
	}
	return reply(page)
}

// MoveStage applies a stage change.
func (s *Server) MoveStage(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req moveRequest
	if err := fromMessage(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if req.ApplicationID == "" || req.Status == "" {
		return nil, status.Error(codes.InvalidArgument, "applicationId and status are required")
	}

	app, err := s.svc.MoveStage(ctx, req.ApplicationID, req.StageChange)
	if err != nil {
		return nil, toGRPCError(err)
	}
	return reply(app)
}

// RescheduleInterview rewrites an interview in place.
func (s *Server) RescheduleInterview(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req rescheduleRequest
	if err := fromMessage(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if req.InterviewID == "" {
		return nil, status.Error(codes.InvalidArgument, "interviewId is required")
	}

	app, err := s.svc.Reschedule(ctx, req.InterviewID, req.InterviewPayload)
	if err != nil {
		return nil, toGRPCError(err)
	}
	return reply(app)
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func reply(v any) (*structpb.Struct, error) {
	out, err := toStruct(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// toGRPCError maps domain errors to gRPC status errors.
func toGRPCError(err error) error {
	var (
		re *workflow.RequestError
		te *workflow.TransitionError
		ve *interview.ValidationError
	)
	switch {
	case errors.Is(err, workflow.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.As(err, &ve), errors.As(err, &re), errors.Is(err, workflow.ErrMissingInterviewDetails):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.As(err, &te), errors.Is(err, workflow.ErrStageConflict), errors.Is(err, workflow.ErrNoInterview):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		slog.Error("workflow rpc failed", "err", err)
		return status.Error(codes.Internal, "internal server error")
	}
}

// LoggingInterceptor logs every unary call with its code and duration.
func LoggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Debug("rpc", "method", info.FullMethod, "code", status.Code(err).String(), "duration", time.Since(start))
		return resp, err
	}
}
