package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"veracity/internal/api"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List in-flight fact-check jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				jobs, err := client.Jobs(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, api.JobListResponse{Jobs: jobs})
				}
				out := cmd.OutOrStdout()
				if len(jobs) == 0 {
					fmt.Fprintln(out, "No active jobs")
					return nil
				}
				fmt.Fprintln(out, renderJobsTable(jobs))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit machine-readable JSON")
	return cmd
}

func renderJobsTable(jobs []api.Job) string {
	headers := []string{"Article", "Job ID", "State", "Attempt", "Submitted", "Deadline"}
	rows := make([][]string, 0, len(jobs))
	for _, job := range jobs {
		rows = append(rows, []string{
			strconv.FormatInt(job.ArticleID, 10),
			job.JobID,
			job.State,
			strconv.Itoa(job.Attempt),
			job.SubmittedAt,
			job.Deadline,
		})
	}
	return renderTable(headers, rows, []columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft, alignLeft})
}
