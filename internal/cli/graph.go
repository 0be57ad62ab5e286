package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/trustbrowser/internal/graph"
	"github.com/ppiankov/trustbrowser/internal/model"
	"github.com/ppiankov/trustbrowser/internal/pipeline"
)

var (
	graphJSON    bool
	graphTimeout time.Duration

	publishTitle       string
	publishExplanation string
	publishSignature   string
	publishPublicKey   string
)

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Rank knowledge assets by the postings that reference them",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(graphTimeout, func(ctx context.Context, cfg *model.Config, s *pipeline.Services) error {
			entries := s.Graph.Leaderboard(ctx)
			if graphJSON {
				return printJSON(os.Stdout, entries)
			}
			printLeaderboard(entries)
			return nil
		})
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify <url>",
	Short: "Check whether a URL is verified on the knowledge graph",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(graphTimeout, func(ctx context.Context, cfg *model.Config, s *pipeline.Services) error {
			v := s.Graph.VerifyURL(ctx, args[0])
			if graphJSON {
				return printJSON(os.Stdout, v)
			}
			if v.Verified {
				fmt.Printf("✓ %s\n  %s\n", v.Message, v.UAL)
			} else {
				fmt.Printf("✗ %s\n", v.Message)
			}
			return nil
		})
	},
}

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish a signed knowledge asset",
	Long: `Publish sends a knowledge asset to the current graph API. The asset must
already be signed: pass the detached signature and the signer's public key.

Example:
  trustbrowser publish --title "Penicillin" --explanation "Discovered in 1928" \
    --signature 0x... --public-key 0x...`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if publishTitle == "" || publishSignature == "" || publishPublicKey == "" {
			return errors.New("--title, --signature and --public-key are required")
		}
		return withServices(graphTimeout, func(ctx context.Context, cfg *model.Config, s *pipeline.Services) error {
			res := s.Graph.Publish(ctx, graph.PublishRequest{
				Title:       publishTitle,
				Explanation: publishExplanation,
				Signature:   publishSignature,
				PublicKey:   publishPublicKey,
			})
			if res.UAL == "" {
				return errors.New("publish failed: no backend accepted the asset")
			}
			if graphJSON {
				return printJSON(os.Stdout, res)
			}
			fmt.Printf("✓ Published %s\n", res.UAL)
			if res.ExplorerURL != "" {
				fmt.Printf("  %s\n", res.ExplorerURL)
			}
			return nil
		})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show current graph API statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(graphTimeout, func(ctx context.Context, cfg *model.Config, s *pipeline.Services) error {
			stats := s.Graph.Stats(ctx)
			if graphJSON {
				return printJSON(os.Stdout, stats)
			}
			if len(stats) == 0 {
				fmt.Println("No statistics available.")
				return nil
			}
			keys := make([]string, 0, len(stats))
			for k := range stats {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Printf("  %-24s %v\n", k, stats[k])
			}
			return nil
		})
	},
}

var assetsCmd = &cobra.Command{
	Use:   "assets <wallet>",
	Short: "List the knowledge assets published by a wallet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(graphTimeout, func(ctx context.Context, cfg *model.Config, s *pipeline.Services) error {
			assets := s.Graph.AssetsByPublisher(ctx, args[0])
			if graphJSON {
				if assets == nil {
					assets = []map[string]any{}
				}
				return printJSON(os.Stdout, assets)
			}
			if len(assets) == 0 {
				fmt.Println("No assets found.")
				return nil
			}
			for _, a := range assets {
				fmt.Printf("  %v  %v\n", first(a, "ual", "UAL", "id"), first(a, "name", "title"))
			}
			return nil
		})
	},
}

var whoisCmd = &cobra.Command{
	Use:   "whois <address>",
	Short: "Reverse-resolve a wallet address to its registered name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(graphTimeout, func(ctx context.Context, cfg *model.Config, s *pipeline.Services) error {
			name, ok := s.Graph.ReverseName(ctx, args[0])
			if !ok {
				return fmt.Errorf("no name registered for %s", args[0])
			}
			fmt.Println(name)
			return nil
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{leaderboardCmd, verifyCmd, publishCmd, statsCmd, assetsCmd, whoisCmd} {
		c.Flags().BoolVar(&graphJSON, "json", false, "print JSON")
		c.Flags().DurationVar(&graphTimeout, "timeout", 30*time.Second, "overall timeout")
		rootCmd.AddCommand(c)
	}

	publishCmd.Flags().StringVar(&publishTitle, "title", "", "asset title")
	publishCmd.Flags().StringVar(&publishExplanation, "explanation", "", "asset description")
	publishCmd.Flags().StringVar(&publishSignature, "signature", "", "detached signature over the asset")
	publishCmd.Flags().StringVar(&publishPublicKey, "public-key", "", "signer public key")
}

func printLeaderboard(entries []graph.LeaderboardEntry) {
	if len(entries) == 0 {
		fmt.Println("Leaderboard unavailable.")
		return
	}
	for i, e := range entries {
		fmt.Printf("%3d. %-6d %s\n", i+1, e.Count, e.UAL)
	}
}

func first(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return "-"
}
