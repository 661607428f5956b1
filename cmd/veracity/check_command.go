package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"veracity/internal/api"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var wait bool
	var pollInterval time.Duration
	var sourceURL string

	cmd := &cobra.Command{
		Use:   "check [article-id]",
		Short: "Start a fact-check for an article",
		Long: "Submits the article to the external verification service and returns the job ID. " +
			"A duplicate check joins the in-flight job instead of starting a new one. " +
			"With --url the article is registered first, then checked.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 0) == (sourceURL == "") {
				return errors.New("provide an article id or --url, not both")
			}
			return ctx.withClient(func(client *api.Client) error {
				var articleID int64
				if sourceURL != "" {
					article, err := client.AddArticle(cmd.Context(), sourceURL, "")
					if err != nil {
						return err
					}
					articleID = article.ID
					fmt.Fprintf(cmd.OutOrStdout(), "Registered article %d: %s\n", article.ID, article.URL)
				} else {
					id, err := strconv.ParseInt(args[0], 10, 64)
					if err != nil {
						return fmt.Errorf("invalid article id %q", args[0])
					}
					articleID = id
				}

				jobID, err := client.SubmitCheck(cmd.Context(), articleID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Fact-check started: job %s\n", jobID)
				if !wait {
					return nil
				}
				record, err := waitForRecord(cmd.Context(), client, articleID, pollInterval)
				if err != nil {
					return err
				}
				renderRecord(cmd, record)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&wait, "wait", false, "Block until the fact-check completes")
	cmd.Flags().DurationVar(&pollInterval, "poll-interval", 5*time.Second, "How often to poll while waiting")
	cmd.Flags().StringVar(&sourceURL, "url", "", "Register the article by URL before checking")
	return cmd
}

func waitForRecord(ctx context.Context, client *api.Client, articleID int64, interval time.Duration) (*api.Record, error) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		record, err := client.GetCheck(ctx, articleID)
		switch {
		case err == nil:
			return record, nil
		case errors.Is(err, api.ErrPending):
		case errors.Is(err, api.ErrNoCheck):
			return nil, fmt.Errorf("fact-check for article %d disappeared without a record", articleID)
		default:
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
