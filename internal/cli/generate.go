package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/aontas/internal/export"
	"github.com/ppiankov/aontas/internal/model"
	"github.com/ppiankov/aontas/internal/pipeline"
	"github.com/ppiankov/aontas/internal/validate"
)

var (
	genCEFR        string
	genExam        string
	genLocale      string
	genTeacher     string
	genModel       string
	genNoInclusive bool
	genIncludeLD   bool
	outJSON        string
	outMD          string
	outHTML        string
)

// generateCmd represents the generate command
var generateCmd = &cobra.Command{
	Use:   "generate <text|url>",
	Short: "Generate a worksheet from pasted text or a URL",
	Long: `Generate resolves the input (fetching it when it is a URL), levels it to
the requested CEFR band, and writes the worksheet.

Without output flags the worksheet JSON is printed to stdout.

Example:
  aontas generate "Tidy Towns volunteers met on Saturday..." --cefr A2
  aontas generate https://www.gov.ie/en/press-release/example/ --md sheet.md
  aontas generate https://example.com/article --json sheet.json --html sheet.html --include-ld=false`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	// Request flags
	generateCmd.Flags().StringVar(&genCEFR, "cefr", string(model.DefaultLevel), "target CEFR level (A1-C2)")
	generateCmd.Flags().StringVar(&genExam, "exam", model.DefaultExam, "exam the exercises are styled after")
	generateCmd.Flags().StringVar(&genLocale, "locale", model.DefaultLocale, "locale hint for spelling and context")
	generateCmd.Flags().StringVar(&genTeacher, "teacher", "", "teacher name for the credit line")
	generateCmd.Flags().StringVar(&genModel, "model", "", "model override (must be in llm.allowed_models)")
	generateCmd.Flags().BoolVar(&genNoInclusive, "no-inclusive", false, "skip inclusive-language guidance")

	// Output flags
	generateCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path")
	generateCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path")
	generateCmd.Flags().StringVar(&outHTML, "html", "", "output printable HTML path")
	generateCmd.Flags().BoolVar(&genIncludeLD, "include-ld", true, "include the learning differences section in exports")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	inclusive := !genNoInclusive
	req, err := validate.NewValidator(cfg.LLM).Validate(model.GenerateBody{
		Input:       args[0],
		CEFR:        genCEFR,
		Exam:        genExam,
		Inclusive:   &inclusive,
		Locale:      genLocale,
		TeacherName: genTeacher,
		Model:       genModel,
	})
	if err != nil {
		return err
	}

	p, err := pipeline.NewPipeline(cfg)
	if err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}

	// The pipeline keeps to its own budget; this only guards against a hang
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Budget.Total()+5*time.Second)
	defer cancel()

	gen, err := p.Generate(ctx, req)
	if err != nil {
		return fmt.Errorf("generate failed: %w", err)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "✓ Worksheet generated (%s)\n", gen.Path)

	if outJSON == "" && outMD == "" && outHTML == "" {
		data, err := json.MarshalIndent(gen.Response, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal worksheet: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	written, err := writeOutputs(gen.Response, outputPaths{JSON: outJSON, Markdown: outMD, HTML: outHTML}, genIncludeLD)
	for _, path := range written {
		fmt.Fprintf(cmd.ErrOrStderr(), "✓ Wrote %s\n", path)
	}
	return err
}

// outputPaths names the files a worksheet is written to; empty means skip
type outputPaths struct {
	JSON     string
	Markdown string
	HTML     string
}

// writeOutputs writes resp in every requested format and returns the paths
// written before any failure
func writeOutputs(resp model.GenerationResponse, paths outputPaths, includeLD bool) ([]string, error) {
	var written []string

	if paths.JSON != "" {
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return written, fmt.Errorf("marshal worksheet: %w", err)
		}
		if err := os.WriteFile(paths.JSON, append(data, '\n'), 0o644); err != nil {
			return written, fmt.Errorf("write JSON: %w", err)
		}
		written = append(written, paths.JSON)
	}

	if paths.Markdown != "" {
		md := export.Markdown(resp, includeLD)
		if err := os.WriteFile(paths.Markdown, []byte(md), 0o644); err != nil {
			return written, fmt.Errorf("write Markdown: %w", err)
		}
		written = append(written, paths.Markdown)
	}

	if paths.HTML != "" {
		page, err := export.HTML(resp, includeLD)
		if err != nil {
			return written, fmt.Errorf("render HTML: %w", err)
		}
		if err := os.WriteFile(paths.HTML, page, 0o644); err != nil {
			return written, fmt.Errorf("write HTML: %w", err)
		}
		written = append(written, paths.HTML)
	}

	return written, nil
}
