package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"veracity/internal/api"
)

func newArticlesCommand(ctx *commandContext) *cobra.Command {
	articlesCmd := &cobra.Command{
		Use:   "articles",
		Short: "Manage registered articles",
	}

	articlesCmd.AddCommand(newArticlesListCommand(ctx))
	articlesCmd.AddCommand(newArticlesAddCommand(ctx))

	return articlesCmd
}

func newArticlesListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List articles with their cached verdicts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				articles, err := client.Articles(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, api.ArticleListResponse{Articles: articles})
				}
				out := cmd.OutOrStdout()
				if len(articles) == 0 {
					fmt.Fprintln(out, "No articles registered")
					return nil
				}
				fmt.Fprintln(out, renderArticlesTable(articles))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit machine-readable JSON")
	return cmd
}

func newArticlesAddCommand(ctx *commandContext) *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "add <url>",
		Short: "Register an article for fact-checking",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := strings.TrimSpace(args[0])
			if url == "" {
				return fmt.Errorf("article url required")
			}
			return ctx.withClient(func(client *api.Client) error {
				article, err := client.AddArticle(cmd.Context(), url, title)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added article %d: %s\n", article.ID, article.URL)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Optional article title")
	return cmd
}

func renderArticlesTable(articles []api.Article) string {
	headers := []string{"ID", "URL", "Score", "Verdict", "Checked"}
	rows := make([][]string, 0, len(articles))
	for _, article := range articles {
		score := "-"
		if article.FactCheckScore != nil {
			score = strconv.Itoa(*article.FactCheckScore)
		}
		verdict := article.FactCheckVerdict
		if verdict == "" {
			verdict = "-"
		}
		checked := "-"
		if article.FactCheckedAt != nil {
			checked = *article.FactCheckedAt
		}
		rows = append(rows, []string{
			strconv.FormatInt(article.ID, 10),
			article.URL,
			score,
			verdict,
			checked,
		})
	}
	return renderTable(headers, rows, []columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignLeft})
}
