package grpcserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"jobmate/workflow-service/internal/model"
	"jobmate/workflow-service/internal/pipeline"
)

// RemoteError is a non-OK status from the workflow service. Its Error is
// the server message without the gRPC prefix.
type RemoteError struct {
	Code    codes.Code
	Message string
}

func (e *RemoteError) Error() string { return e.Message }

// Client calls WorkflowService over a gRPC connection. It implements
// engine.Backend.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// ListStages calls ListStages.
func (c *Client) ListStages(ctx context.Context) ([]pipeline.StageInfo, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, MethodListStages, &emptypb.Empty{}, out); err != nil {
		return nil, remote(err)
	}
	var stages []pipeline.StageInfo
	if err := fromMessage(out, &stages); err != nil {
		return nil, err
	}
	return stages, nil
}

// ListCandidates calls ListCandidates.
func (c *Client) ListCandidates(ctx context.Context, q model.CandidateQuery) (model.CandidatePage, error) {
	var page model.CandidatePage
	err := c.call(ctx, MethodListCandidates, candidatesRequest{
		Stage: q.Stage, Search: q.Search, Page: q.Page, Limit: q.Limit,
	}, &page)
	return page, err
}

// MoveStage calls MoveStage.
func (c *Client) MoveStage(ctx context.Context, applicationID string, change model.StageChange) (model.Application, error) {
	var app model.Application
	err := c.call(ctx, MethodMoveStage, moveRequest{ApplicationID: applicationID, StageChange: change}, &app)
	return app, err
}

// RescheduleInterview calls RescheduleInterview.
func (c *Client) RescheduleInterview(ctx context.Context, interviewID string, p model.InterviewPayload) (model.Application, error) {
	var app model.Application
	err := c.call(ctx, MethodRescheduleInterview, rescheduleRequest{InterviewID: interviewID, InterviewPayload: p}, &app)
	return app, err
}

func (c *Client) call(ctx context.Context, method string, in, out any) error {
	req, err := toStruct(in)
	if err != nil {
		return err
	}
	resp := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, req, resp); err != nil {
		return remote(err)
	}
	return fromMessage(resp, out)
}

func remote(err error) error {
	if st, ok := status.FromError(err); ok {
		return &RemoteError{Code: st.Code(), Message: st.Message()}
	}
	return err
}
