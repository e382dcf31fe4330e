package worker

import (
	"bufio"
	"context"
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/ppiankov/aontas/internal/model"
)

// Generator produces a worksheet for one validated request
type Generator interface {
	Generate(ctx context.Context, req model.GenerationRequest) (*model.Generation, error)
}

// GenerationJob generates the worksheet for one batch input
type GenerationJob struct {
	Index     int
	Request   model.GenerationRequest
	Generator Generator
}

// Execute executes the generation job
func (j *GenerationJob) Execute(ctx context.Context) Result {
	gen, err := j.Generator.Generate(ctx, j.Request)
	return &GenerationResult{
		Index:      j.Index,
		Input:      j.Request.Input,
		Generation: gen,
		Error:      err,
	}
}

// GenerationResult represents the result of a generation job
type GenerationResult struct {
	Index      int
	Input      string
	Generation *model.Generation
	Error      error
}

// GetError returns the error from the generation result
func (r *GenerationResult) GetError() error {
	return r.Error
}

// BatchProcessor generates worksheets for many inputs concurrently. Every job
// runs its own request with its own budget.
type BatchProcessor struct {
	generator   Generator
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(generator Generator, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		generator:   generator,
		concurrency: concurrency,
	}
}

// ProcessInputs generates one worksheet per input. Each request is template
// with Input replaced. Results are returned in input order.
func (b *BatchProcessor) ProcessInputs(ctx context.Context, inputs []string, template model.GenerationRequest) []*GenerationResult {
	if len(inputs) == 0 {
		return []*GenerationResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for i, input := range inputs {
		req := template
		req.Input = input
		pool.Submit(&GenerationJob{
			Index:     i,
			Request:   req,
			Generator: b.generator,
		})
	}

	results := pool.Wait()

	out := make([]*GenerationResult, 0, len(results))
	for _, result := range results {
		out = append(out, result.(*GenerationResult))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })

	return out
}

// ProcessFile reads inputs from a file and processes them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string, template model.GenerationRequest) ([]*GenerationResult, error) {
	inputs, err := ReadInputsFromFile(filePath)
	if err != nil {
		return nil, eris.Wrap(err, "read inputs")
	}

	return b.ProcessInputs(ctx, inputs, template), nil
}

// ReadInputsFromFile reads inputs from a file, one URL or text per line.
// Blank lines and lines starting with # are skipped; duplicates are dropped.
func ReadInputsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, eris.Wrap(err, "open file")
	}
	defer func() { _ = file.Close() }()

	var inputs []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			inputs = append(inputs, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, eris.Wrap(err, "scan file")
	}

	return inputs, nil
}
