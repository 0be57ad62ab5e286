package cli

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/trustbrowser/internal/endpoint"
	"github.com/ppiankov/trustbrowser/internal/model"
	"github.com/ppiankov/trustbrowser/internal/pipeline"
	"github.com/ppiankov/trustbrowser/internal/worker"
)

var (
	concurrency  int
	batchOutput  string
	batchTimeout time.Duration
	batchRPS     float64
)

var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Resolve many inputs from a file in parallel",
	Long: `Batch resolves one input per line (use "-" for stdin). Blank lines,
# comments and duplicates are skipped. Requests are rate limited per backend
host and results keep the order of the input file.

Example:
  trustbrowser batch queries.txt
  trustbrowser batch queries.txt --concurrency 8 --output results.json
  cat queries.txt | trustbrowser batch -`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default: config, then CPU count)")
	batchCmd.Flags().StringVar(&batchOutput, "output", "", "write JSON results to this file instead of stdout")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().Float64Var(&batchRPS, "rps", 0, "requests per second per host (default: config)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	return withServices(batchTimeout, func(ctx context.Context, cfg *model.Config, s *pipeline.Services) error {
		workers := concurrency
		if workers <= 0 {
			workers = cfg.Concurrency.Workers
		}
		if workers <= 0 {
			workers = runtime.NumCPU()
		}
		rps := cfg.RateLimiting.RequestsPerSecond
		if batchRPS > 0 {
			rps = batchRPS
		}

		graphHost := ""
		if cands := s.Resolver.Candidates(endpoint.Legacy); len(cands) > 0 {
			graphHost = cands[0].Prefix()
		}

		fmt.Fprintf(os.Stderr, "\n%s\n  TrustBrowser Batch\n%s\n\n", rule, rule)
		fmt.Fprintf(os.Stderr, "  Input:    %s\n", file)
		fmt.Fprintf(os.Stderr, "  Workers:  %d\n", workers)
		fmt.Fprintf(os.Stderr, "  Rate:     %.1f req/s per host\n", rps)
		fmt.Fprintf(os.Stderr, "  Timeout:  %v\n\n", batchTimeout)

		limiter := worker.NewLimiter(rps, cfg.RateLimiting.BurstSize)
		processor := worker.NewBatchProcessor(s.Pipeline, workers, limiter, graphHost)

		results, err := processor.ProcessFile(ctx, file)
		if err != nil {
			return fmt.Errorf("process file: %w", err)
		}

		resolved, scored, failed := 0, 0, 0
		for _, r := range results {
			switch {
			case r.Error != nil:
				failed++
				fmt.Fprintf(os.Stderr, "✗ %s: %v\n", r.Input, r.Error)
			case r.Result.Answer != nil && r.Result.Answer.SourceKind == model.SourceError:
				failed++
				fmt.Fprintf(os.Stderr, "✗ %s: unresolved\n", r.Input)
			default:
				resolved++
				if r.Result.Truth != nil {
					scored++
					fmt.Fprintf(os.Stderr, "✓ %s (truth: %.0f/100)\n", r.Input, r.Result.Truth.Composite*100)
				} else {
					fmt.Fprintf(os.Stderr, "✓ %s\n", r.Input)
				}
			}
		}

		fmt.Fprintf(os.Stderr, "\n  Total: %d  Resolved: %d  Scored: %d  Failed: %d\n\n", len(results), resolved, scored, failed)

		if batchOutput != "" {
			if err := writeJSONFile(batchOutput, results); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", batchOutput)
			return nil
		}
		return printJSON(os.Stdout, results)
	})
}
