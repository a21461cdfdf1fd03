package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"jobmate/workflow-service/internal/engine"
	"jobmate/workflow-service/internal/model"
	"jobmate/workflow-service/internal/pipeline"
)

func newCandidatesCommand(ctx *commandContext) *cobra.Command {
	var (
		stage  string
		search string
		page   int
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "candidates",
		Short: "List candidates with per-stage analytics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := model.CandidateQuery{Search: search, Page: page, Limit: limit}
			if stage != "" {
				s, err := pipeline.ParseStage(stage)
				if err != nil {
					return err
				}
				q.Stage = s
			}

			coord, err := ctx.coordinator(cmd)
			if err != nil {
				return err
			}
			view, err := coord.Candidates(cmd.Context(), q)
			if err != nil {
				return err
			}
			catalog := coord.Catalog(cmd.Context())
			out := cmd.OutOrStdout()

			if len(view.Page.Data) == 0 {
				fmt.Fprintln(out, "No candidates found")
			} else {
				rows := make([][]string, 0, len(view.Page.Data))
				for _, app := range view.Page.Data {
					rows = append(rows, []string{
						app.ID,
						app.CandidateID,
						app.JobID,
						catalog.Label(app.Stage),
						interviewCell(app.Interview),
						updatedCell(app),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Candidate", "Job", "Stage", "Interview", "Updated"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				))
			}

			p := view.Page.Pagination
			fmt.Fprintf(out, "Page %d of %d, %d candidates\n\n", p.Page, max(p.TotalPages, 1), p.Total)

			buckets := view.Analytics.Buckets()
			rows := make([][]string, 0, len(buckets))
			for _, b := range buckets {
				rows = append(rows, []string{catalog.Label(b.Stage), strconv.Itoa(b.Count)})
			}
			fmt.Fprintln(out, renderTable([]string{"Stage", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
			fmt.Fprintf(out, "Success rate: %.1f%%\n", view.Analytics.SuccessRate)
			return nil
		},
	}

	cmd.Flags().StringVar(&stage, "stage", "", "Only list candidates in this stage")
	cmd.Flags().StringVar(&search, "search", "", "Filter by candidate or job")
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&limit, "limit", 20, "Page size (max 100)")
	return cmd
}

func interviewCell(iv *model.Interview) string {
	if iv == nil {
		return "-"
	}
	return fmt.Sprintf("%s %s (%dm)", iv.Date, iv.Time, iv.Duration)
}

func updatedCell(app model.Application) string {
	if app.UpdatedAt.IsZero() {
		return "-"
	}
	return app.UpdatedAt.Local().Format("2006-01-02 15:04")
}

// findApplication pages through the given stages until id is on the board.
func findApplication(ctx context.Context, coord *engine.Coordinator, id string, stages ...pipeline.Stage) (model.Application, error) {
	for _, s := range stages {
		for page := 1; ; page++ {
			view, err := coord.Candidates(ctx, model.CandidateQuery{Stage: s, Page: page, Limit: 100})
			if err != nil {
				return model.Application{}, err
			}
			if app, ok := coord.Board().Get(id); ok {
				return app, nil
			}
			if page >= view.Page.Pagination.TotalPages || len(view.Page.Data) == 0 {
				break
			}
		}
	}
	return model.Application{}, fmt.Errorf("%w: %s", engine.ErrUnknownApplication, id)
}
