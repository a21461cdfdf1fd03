package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newStagesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stages",
		Short: "List pipeline stages and their legal next stages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			coord, err := ctx.coordinator(cmd)
			if err != nil {
				return err
			}
			catalog := coord.Catalog(cmd.Context())
			policy := coord.Policy()

			rows := make([][]string, 0, catalog.Len())
			for _, info := range catalog.Stages() {
				next := policy.ValidNextStages(info.ID)
				names := make([]string, 0, len(next))
				for _, s := range next {
					names = append(names, string(s))
				}
				rows = append(rows, []string{string(info.ID), info.Label, joinOrDash(names)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Stage", "Label", "Next"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}
