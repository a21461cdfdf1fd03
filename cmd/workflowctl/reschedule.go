package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"jobmate/workflow-service/internal/pipeline"
)

func newRescheduleCommand(ctx *commandContext) *cobra.Command {
	var ivf interviewFlags

	cmd := &cobra.Command{
		Use:   "reschedule <application-id>",
		Short: "Change the current interview of an application",
		Long: "Reschedule starts from the current interview values; only the\n" +
			"flags given on the command line are changed.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			coord, err := ctx.coordinator(cmd)
			if err != nil {
				return err
			}
			if _, err := findApplication(cmd.Context(), coord, id,
				pipeline.StageInterviewScheduled, pipeline.StageInterviewRescheduled); err != nil {
				return err
			}

			d, err := coord.PrepareReschedule(id)
			if err != nil {
				return err
			}
			if err := ivf.apply(cmd, &d); err != nil {
				return err
			}
			app, err := coord.Reschedule(cmd.Context(), id, d)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Rescheduled interview for %s\n", app.ID)
			if iv := app.Interview; iv != nil {
				fmt.Fprintf(out, "  %s %s, %d minutes, %s with %s\n", iv.Date, iv.Time, iv.Duration, iv.Location, iv.Interviewer)
			}
			fmt.Fprintf(out, "  stage: %s\n", coord.Catalog(cmd.Context()).Label(app.Stage))
			return nil
		},
	}

	ivf.bind(cmd)
	return cmd
}
