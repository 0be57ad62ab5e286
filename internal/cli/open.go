package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/trustbrowser/internal/graph"
	"github.com/ppiankov/trustbrowser/internal/model"
	"github.com/ppiankov/trustbrowser/internal/navigate"
	"github.com/ppiankov/trustbrowser/internal/pipeline"
)

var (
	openJSON      bool
	openSummarize bool
	openLinks     bool
	openTimeout   time.Duration
)

var openCmd = &cobra.Command{
	Use:   "open <address>",
	Short: "Open a page and check it against the knowledge graph",
	Long: `Open fetches a page the way the browser view would, honoring robots.txt,
and reports its title, description and whether the URL is verified on the
knowledge graph. With --summarize, the configured model condenses the page
into a few bullet points.

Example:
  trustbrowser open en.wikipedia.org/wiki/Penicillin
  trustbrowser open https://origintrail.io --summarize`,
	Args: cobra.ExactArgs(1),
	RunE: runOpen,
}

func init() {
	rootCmd.AddCommand(openCmd)

	openCmd.Flags().BoolVar(&openJSON, "json", false, "print the result as JSON")
	openCmd.Flags().BoolVar(&openSummarize, "summarize", false, "summarize the page with the configured model")
	openCmd.Flags().BoolVar(&openLinks, "links", false, "list outbound links")
	openCmd.Flags().DurationVar(&openTimeout, "timeout", time.Minute, "overall timeout")
}

type openResult struct {
	Page         *navigate.Page     `json:"page"`
	Verification graph.Verification `json:"verification"`
	Summary      string             `json:"summary,omitempty"`
}

func runOpen(cmd *cobra.Command, args []string) error {
	return withServices(openTimeout, func(ctx context.Context, cfg *model.Config, s *pipeline.Services) error {
		nav := navigate.NewNavigator(cfg.HTTP, logger.Named("navigate"))
		page, err := nav.Open(ctx, args[0])
		if err != nil {
			return err
		}

		out := openResult{
			Page:         page,
			Verification: s.Graph.VerifyURL(ctx, page.FinalURL),
		}
		if openSummarize {
			if !s.Assistant.IsEnabled() {
				fmt.Fprintln(os.Stderr, "No AI key provided; skipping summary.")
			} else {
				out.Summary = s.Assistant.Summarize(ctx, page.Text)
			}
		}

		if openJSON {
			return printJSON(os.Stdout, out)
		}

		fmt.Println(rule)
		fmt.Printf("  %s\n", page.Title)
		fmt.Println(rule)
		fmt.Printf("  URL:      %s\n", page.FinalURL)
		fmt.Printf("  Status:   %d\n", page.StatusCode)
		if page.Description != "" {
			fmt.Printf("  About:    %s\n", page.Description)
		}
		if out.Verification.Verified {
			fmt.Printf("  ✓ %s\n", out.Verification.Message)
			fmt.Printf("    %s\n", out.Verification.UAL)
		} else {
			fmt.Printf("  ✗ %s\n", out.Verification.Message)
		}
		if out.Summary != "" {
			fmt.Println()
			fmt.Println(out.Summary)
		}
		if openLinks {
			fmt.Println()
			for _, l := range page.Links {
				marker := " "
				if l.External {
					marker = "↗"
				}
				fmt.Printf("  %s %s  %s\n", marker, l.URL, l.Text)
			}
		}
		return nil
	})
}
