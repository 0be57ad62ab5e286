package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/trustbrowser/internal/model"
	"github.com/ppiankov/trustbrowser/internal/pipeline"
)

var (
	searchJSON    bool
	searchTimeout time.Duration
)

var searchCmd = &cobra.Command{
	Use:   "search <query or address>",
	Short: "Resolve one address-bar input",
	Long: `Search classifies the input. Addresses are normalized into a navigable
URL; everything else is resolved against the knowledge graph and, when the
answer carries a knowledge asset, scored.

Resolution never fails: when every source is unavailable the answer is a
fixed connection-error record.

Example:
  trustbrowser search who discovered penicillin
  trustbrowser search wikipedia.org
  trustbrowser search "origin trail" --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "print the result as JSON")
	searchCmd.Flags().DurationVar(&searchTimeout, "timeout", time.Minute, "overall resolution timeout")
}

func runSearch(cmd *cobra.Command, args []string) error {
	input := strings.Join(args, " ")

	return withServices(searchTimeout, func(ctx context.Context, cfg *model.Config, s *pipeline.Services) error {
		res := s.Pipeline.Run(ctx, input)
		if searchJSON {
			return printJSON(os.Stdout, res)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Resolved %q as %s\n\n", input, res.Kind)
		}
		printResult(os.Stdout, res)
		return nil
	})
}
