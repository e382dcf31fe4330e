package cli

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/ppiankov/aontas/internal/model"
	"github.com/ppiankov/aontas/internal/pipeline"
	"github.com/ppiankov/aontas/internal/validate"
	"github.com/ppiankov/aontas/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Generate worksheets for many inputs in parallel",
	Long: `Batch reads one input per line (a URL or a short text), generates a
worksheet for each with a pool of workers, and writes JSON and Markdown
files to the output directory. Blank lines and lines starting with # are
skipped. Every input gets its own request budget.

Example:
  aontas batch sources.txt
  aontas batch sources.txt --concurrency 8 --output-dir ./worksheets --cefr A2`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	// Concurrency flags
	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default: concurrency.batch_workers)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./aontas-worksheets", "output directory for worksheets")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")

	// Request flags shared with generate
	batchCmd.Flags().StringVar(&genCEFR, "cefr", string(model.DefaultLevel), "target CEFR level (A1-C2)")
	batchCmd.Flags().StringVar(&genExam, "exam", model.DefaultExam, "exam the exercises are styled after")
	batchCmd.Flags().StringVar(&genLocale, "locale", model.DefaultLocale, "locale hint for spelling and context")
	batchCmd.Flags().StringVar(&genTeacher, "teacher", "", "teacher name for the credit line")
	batchCmd.Flags().BoolVar(&genNoInclusive, "no-inclusive", false, "skip inclusive-language guidance")
	batchCmd.Flags().BoolVar(&genIncludeLD, "include-ld", true, "include the learning differences section in Markdown")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	stderr := cmd.ErrOrStderr()

	workers := concurrency
	if workers <= 0 {
		workers = cfg.Concurrency.BatchWorkers
	}

	inclusive := !genNoInclusive
	// The placeholder input is replaced per line by the batch processor
	template, err := validate.NewValidator(cfg.LLM).Validate(model.GenerateBody{
		Input:       "-",
		CEFR:        genCEFR,
		Exam:        genExam,
		Inclusive:   &inclusive,
		Locale:      genLocale,
		TeacherName: genTeacher,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "  Aontas Batch Generation\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(stderr, "  Workers:      %d\n", workers)
	fmt.Fprintf(stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(stderr, "  Level:        %s\n", template.CEFR)
	fmt.Fprintf(stderr, "\n")

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	p, err := pipeline.NewPipeline(cfg)
	if err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}

	processor := worker.NewBatchProcessor(p, workers)
	results, err := processor.ProcessFile(ctx, file, template)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	counts := make(map[model.GenerationPath]int)
	failures := 0

	for _, result := range results {
		label := inputLabel(result.Input)
		if result.Error != nil {
			failures++
			fmt.Fprintf(stderr, "✗ %s: %v\n", label, result.Error)
			continue
		}

		base := filepath.Join(outputDir, fmt.Sprintf("%03d-%s", result.Index+1, sanitizeFilename(label)))
		_, err := writeOutputs(result.Generation.Response, outputPaths{
			JSON:     base + ".json",
			Markdown: base + ".md",
		}, genIncludeLD)
		if err != nil {
			failures++
			fmt.Fprintf(stderr, "✗ %s: %v\n", label, err)
			continue
		}

		counts[result.Generation.Path]++
		fmt.Fprintf(stderr, "✓ %s (%s)\n", label, result.Generation.Path)
	}

	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "  Batch Complete\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "  Total:     %d inputs\n", len(results))
	fmt.Fprintf(stderr, "  Model:     %d\n", counts[model.PathModel])
	fmt.Fprintf(stderr, "  Fallback:  %d\n", counts[model.PathNoCredential]+counts[model.PathDegraded])
	fmt.Fprintf(stderr, "  Failures:  %d\n", failures)
	fmt.Fprintf(stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(stderr, "\n")

	if failures > 0 && failures == len(results) {
		return fmt.Errorf("all %d inputs failed", failures)
	}
	return nil
}

// inputLabel is a short human name for an input: host and path for URLs,
// the first words for text
func inputLabel(input string) string {
	if u, err := url.Parse(input); err == nil && u.Host != "" {
		return strings.TrimSuffix(u.Host+u.Path, "/")
	}
	words := strings.Fields(input)
	if len(words) > 6 {
		words = words[:6]
	}
	return strings.Join(words, " ")
}

// sanitizeFilename reduces s to a safe, bounded file name stem
func sanitizeFilename(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}

	out := strings.TrimSuffix(b.String(), "-")
	if len(out) > 60 {
		out = out[:60]
		for !utf8.ValidString(out) {
			out = out[:len(out)-1]
		}
		out = strings.TrimSuffix(out, "-")
	}
	if out == "" {
		out = "worksheet"
	}
	return out
}
