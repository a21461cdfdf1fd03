package engine

import (
	"context"

	"jobmate/workflow-service/internal/pipeline"
)

// Prompt describes a transition awaiting user confirmation.
type Prompt struct {
	ApplicationID string
	From          pipeline.Stage
	To            pipeline.Stage
	FromLabel     string
	ToLabel       string
	Destructive   bool
}

// Confirmer asks the user whether to proceed. Returning false cancels the
// transition without error.
type Confirmer interface {
	Confirm(ctx context.Context, p Prompt) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, p Prompt) (bool, error)

// Confirm calls f.
func (f ConfirmFunc) Confirm(ctx context.Context, p Prompt) (bool, error) { return f(ctx, p) }

// AlwaysConfirm approves every prompt. Used for non-interactive callers that
// have already obtained consent.
var AlwaysConfirm Confirmer = ConfirmFunc(func(context.Context, Prompt) (bool, error) { return true, nil })
