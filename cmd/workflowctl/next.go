package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"jobmate/workflow-service/internal/pipeline"
)

func newNextCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "next <application-id>",
		Short: "Show the stages an application may move to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			coord, err := ctx.coordinator(cmd)
			if err != nil {
				return err
			}
			app, err := findApplication(cmd.Context(), coord, args[0], pipeline.Stages()...)
			if err != nil {
				return err
			}
			next, err := coord.ValidNextStages(app.ID)
			if err != nil {
				return err
			}

			catalog := coord.Catalog(cmd.Context())
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s is in %s\n", app.ID, catalog.Label(app.Stage))
			if len(next) == 0 {
				fmt.Fprintln(out, "No further stages")
				return nil
			}
			for _, s := range next {
				fmt.Fprintf(out, "  %s (%s)\n", s, catalog.Label(s))
			}
			return nil
		},
	}
}
