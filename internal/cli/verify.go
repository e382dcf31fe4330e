package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/aontas/internal/pipeline"
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <url>",
	Short: "Score how trustworthy a source page looks",
	Long: `Verify fetches a URL and prints its heuristic source verification:
HTTPS, canonical and Open Graph tags, date metadata, word and link counts,
and the domain's authority tier.

The score is a heuristic hint, not a fact check.

Example:
  aontas verify https://www.gov.ie/en/press-release/example/`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	p, err := pipeline.NewPipeline(cfg)
	if err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Budget.Total())
	defer cancel()

	verification, err := p.Verify(ctx, args[0])
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(verification, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal verification: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
