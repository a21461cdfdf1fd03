package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"jobmate/workflow-service/internal/engine"
	"jobmate/workflow-service/internal/interview"
	"jobmate/workflow-service/internal/pipeline"
)

func newMoveCommand(ctx *commandContext) *cobra.Command {
	var (
		note string
		ivf  interviewFlags
	)

	cmd := &cobra.Command{
		Use:   "move <application-id> <from> <to>",
		Short: "Move an application to another stage",
		Long: "Move an application from its current stage to a new one. Entering\n" +
			"interview_scheduled needs --date, --time, --location and --interviewer.",
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := pipeline.ParseStage(args[1])
			if err != nil {
				return err
			}
			to, err := pipeline.ParseStage(args[2])
			if err != nil {
				return err
			}
			req := engine.TransitionRequest{ApplicationID: args[0], From: from, To: to, Note: note}
			if ivf.given(cmd) {
				d := interview.NewDraft()
				if err := ivf.apply(cmd, &d); err != nil {
					return err
				}
				req.Interview = &d
			}

			coord, err := ctx.coordinator(cmd)
			if err != nil {
				return err
			}
			res, err := coord.RequestTransition(cmd.Context(), req)
			if err != nil {
				var invalid *engine.InvalidTransitionError
				if errors.As(err, &invalid) {
					return fmt.Errorf("%w (allowed from %s: %s)", err, from, joinOrDash(stageNames(coord.Policy().ValidNextStages(from))))
				}
				return err
			}

			catalog := coord.Catalog(cmd.Context())
			out := cmd.OutOrStdout()
			if res.Cancelled {
				fmt.Fprintf(out, "Cancelled; %s stays in %s\n", req.ApplicationID, catalog.Label(from))
				return nil
			}
			fmt.Fprintf(out, "Moved %s to %s\n", res.Application.ID, catalog.Label(res.Application.Stage))
			if res.Application.Stage != to {
				fmt.Fprintf(out, "Server settled on %s instead of %s\n", res.Application.Stage, to)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&note, "note", "", "Note recorded with the stage change")
	ivf.bind(cmd)
	return cmd
}

func stageNames(stages []pipeline.Stage) []string {
	out := make([]string, 0, len(stages))
	for _, s := range stages {
		out = append(out, string(s))
	}
	return out
}
