package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/trustbrowser/internal/model"
	"github.com/ppiankov/trustbrowser/internal/pipeline"
)

const rule = "═══════════════════════════════════════════════════════════"

// withServices loads the configuration, wires the services and runs fn
// under a timeout
func withServices(timeout time.Duration, fn func(ctx context.Context, cfg *model.Config, s *pipeline.Services) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s := pipeline.NewServices(ctx, cfg, logger)
	defer s.Close()

	return fn(ctx, cfg, s)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func printResult(w io.Writer, res pipeline.Result) {
	if res.Target != nil {
		fmt.Fprintf(w, "→ %s\n", res.Target.URL)
		fmt.Fprintf(w, "  host:    %s\n", res.Target.Host)
		fmt.Fprintf(w, "  favicon: %s\n", res.Target.Favicon)
		return
	}
	if res.Answer != nil {
		printAnswer(w, *res.Answer)
	}
	if res.Truth != nil {
		fmt.Fprintln(w)
		printTruth(w, *res.Truth)
	}
}

func printAnswer(w io.Writer, a model.AnswerRecord) {
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "  %s\n", a.Title)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
	fmt.Fprintln(w, a.Explanation)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Source:      %s\n", a.SourceKind)
	fmt.Fprintf(w, "  Fingerprint: %s\n", a.SourceHash)
	if a.AssetID != "" {
		fmt.Fprintf(w, "  Asset:       %s\n", a.AssetID)
	}
	if a.ExplorerURL != "" {
		fmt.Fprintf(w, "  Explorer:    %s\n", a.ExplorerURL)
	}
}

func printTruth(w io.Writer, t model.TruthScoreResult) {
	fmt.Fprintf(w, "  Truth score: %.0f/100\n", t.Composite*100)

	var badges []string
	if t.Badges.VerifiedFingerprint {
		badges = append(badges, "verified fingerprint")
	}
	if t.Badges.HighAvailability {
		badges = append(badges, "high availability")
	}
	if t.Badges.ParanetCurated {
		badges = append(badges, "paranet curated")
	}
	if len(badges) > 0 {
		fmt.Fprintf(w, "  Badges:      %s\n", strings.Join(badges, ", "))
	}

	if len(t.Breakdown) > 0 {
		fmt.Fprintln(w)
		for _, c := range t.Breakdown {
			fmt.Fprintf(w, "    %-22s %.2f × %.2f = %.3f\n", c.Signal, c.Weight, c.Value, c.Contribution)
		}
	}
}
