package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/SkyDragon00/ProyectoFinalProcesos/internal/config"
	"github.com/SkyDragon00/ProyectoFinalProcesos/internal/recognition"
	"github.com/spf13/cobra"
)

var matchCmd = &cobra.Command{
	Use:   "match <photo>",
	Short: "Match a photo against the enrolled gallery",
	Long: `Run one photo through the embedding model and match it against the
gallery. Prints the outcome without recording an event, so it is safe to use
for tuning the threshold and margin.

Example:
  facegate match capture.jpg
  facegate match --threshold 0.7 --margin 0.1 capture.jpg`,
	Args: cobra.ExactArgs(1),
	RunE: runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)
	matchCmd.Flags().Float64("threshold", 0, "Similarity threshold override")
	matchCmd.Flags().Float64("margin", 0, "Ambiguity margin override")
}

func runMatch(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if t := mustGetFloat64(cmd, "threshold"); t > 0 {
		cfg.Matcher.Threshold = t
	}
	if m := mustGetFloat64(cmd, "margin"); m > 0 {
		cfg.Matcher.Margin = m
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading photo: %w", err)
	}

	ctx := context.Background()
	svc, cleanup, err := buildService(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	embedding, err := svc.Embed(ctx, data)
	if err != nil {
		return err
	}

	result, err := svc.Matcher().Match(embedding)
	if err != nil {
		return err
	}

	switch result.Outcome {
	case recognition.OutcomeMatched:
		fmt.Printf("Matched: %s (score %.4f)\n", result.Best.Name, result.Best.Score)
	case recognition.OutcomeAmbiguous:
		fmt.Printf("Ambiguous between %d candidates:\n", len(result.Candidates))
		for _, c := range result.Candidates {
			fmt.Printf("  %s  %.4f\n", c.Name, c.Score)
		}
	case recognition.OutcomeUnknown:
		fmt.Printf("Unknown person (threshold %.2f)\n", result.Threshold)
	}
	return nil
}
