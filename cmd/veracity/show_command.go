package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"veracity/internal/api"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <article-id>",
		Short: "Show the fact-check record for an article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			articleID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid article id %q", args[0])
			}
			return ctx.withClient(func(client *api.Client) error {
				record, err := client.GetCheck(cmd.Context(), articleID)
				switch {
				case errors.Is(err, api.ErrPending):
					fmt.Fprintf(cmd.OutOrStdout(), "Fact-check for article %d is still in progress\n", articleID)
					return nil
				case errors.Is(err, api.ErrNoCheck):
					return fmt.Errorf("no fact-check for article %d", articleID)
				case err != nil:
					return err
				}
				if asJSON {
					return writeJSON(cmd, record)
				}
				renderRecord(cmd, record)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit machine-readable JSON")
	return cmd
}

func renderRecord(cmd *cobra.Command, record *api.Record) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	for _, line := range renderSectionHeader(fmt.Sprintf("Article %d", record.ArticleID), colorize) {
		fmt.Fprintln(out, line)
	}

	verdictKind := statusOK
	switch {
	case record.CredibilityScore < 0:
		verdictKind = statusError
	case record.CredibilityScore < 50:
		verdictKind = statusWarn
	}
	scoreText := strconv.Itoa(record.CredibilityScore)
	if record.CredibilityScore < 0 {
		scoreText = "unavailable"
	}
	fmt.Fprintln(out, renderStatusLine("Verdict", verdictKind, record.Verdict, colorize))
	fmt.Fprintln(out, renderStatusLine("Credibility", verdictKind, scoreText, colorize))
	if record.Confidence != nil {
		fmt.Fprintln(out, renderStatusLine("Confidence", statusInfo, fmt.Sprintf("%.2f", *record.Confidence), colorize))
	}
	if record.Summary != "" {
		fmt.Fprintln(out, renderStatusLine("Summary", statusInfo, record.Summary, colorize))
	}
	fmt.Fprintln(out, renderStatusLine("Checked at", statusInfo, record.FactCheckedAt, colorize))

	if record.ClaimsAnalyzed > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderClaimsTable(record))
	}
}

func renderClaimsTable(record *api.Record) string {
	headers := []string{"Analyzed", "Validated", "True", "False", "Misleading", "Unverified", "Misinfo", "Sources"}
	rows := [][]string{{
		strconv.Itoa(record.ClaimsAnalyzed),
		strconv.Itoa(record.ClaimsValidated),
		strconv.Itoa(record.ClaimsTrue),
		strconv.Itoa(record.ClaimsFalse),
		strconv.Itoa(record.ClaimsMisleading),
		strconv.Itoa(record.ClaimsUnverified),
		strconv.Itoa(record.ClaimsMisinformation),
		strconv.Itoa(record.NumSources),
	}}
	aligns := make([]columnAlignment, len(headers))
	for i := range aligns {
		aligns[i] = alignRight
	}
	return renderTable(headers, rows, aligns)
}
