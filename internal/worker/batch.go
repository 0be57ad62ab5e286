package worker

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ppiankov/trustbrowser/internal/classify"
	"github.com/ppiankov/trustbrowser/internal/pipeline"
)

// Resolver resolves one address-bar input
type Resolver interface {
	Run(ctx context.Context, input string) pipeline.Result
}

// QueryJob resolves one input once its host is cleared by the limiter
type QueryJob struct {
	Input    string
	Host     string
	Resolver Resolver
	Limiter  *Limiter
}

// Execute executes the job
func (j *QueryJob) Execute(ctx context.Context) Result {
	if j.Limiter != nil {
		if err := j.Limiter.Wait(ctx, j.Host); err != nil {
			return &QueryResult{Input: j.Input, Error: fmt.Errorf("rate limit %s: %w", j.Host, err)}
		}
	}
	res := j.Resolver.Run(ctx, j.Input)
	return &QueryResult{Input: j.Input, Result: &res}
}

// QueryResult is the outcome of one batch entry
type QueryResult struct {
	Input  string           `json:"input"`
	Result *pipeline.Result `json:"result,omitempty"`
	Error  error            `json:"-"`
}

// GetError returns the error from the query result
func (r *QueryResult) GetError() error {
	return r.Error
}

// BatchProcessor resolves many inputs concurrently
type BatchProcessor struct {
	resolver    Resolver
	limiter     *Limiter
	graphHost   string
	concurrency int
}

// NewBatchProcessor creates a batch processor. Queries are rate limited
// against graphHost; addresses against their own host.
func NewBatchProcessor(resolver Resolver, concurrency int, limiter *Limiter, graphHost string) *BatchProcessor {
	return &BatchProcessor{
		resolver:    resolver,
		limiter:     limiter,
		graphHost:   graphHost,
		concurrency: concurrency,
	}
}

// ProcessQueries resolves inputs and returns results in input order
func (b *BatchProcessor) ProcessQueries(ctx context.Context, inputs []string) []*QueryResult {
	if len(inputs) == 0 {
		return []*QueryResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for _, input := range inputs {
		job := &QueryJob{
			Input:    input,
			Host:     b.hostFor(input),
			Resolver: b.resolver,
			Limiter:  b.limiter,
		}
		if !pool.Submit(job) {
			break
		}
	}

	results := pool.Wait()
	out := make([]*QueryResult, len(results))
	for i, r := range results {
		out[i] = r.(*QueryResult)
	}
	return out
}

// ProcessFile reads inputs from path ("-" for stdin) and resolves them
func (b *BatchProcessor) ProcessFile(ctx context.Context, path string) ([]*QueryResult, error) {
	inputs, err := ReadInputsFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("read inputs: %w", err)
	}
	return b.ProcessQueries(ctx, inputs), nil
}

func (b *BatchProcessor) hostFor(input string) string {
	if classify.Classify(input) == classify.Address {
		return classify.Normalize(input).Host
	}
	return b.graphHost
}

// ReadInputsFromFile reads one input per line from path, or stdin for "-"
func ReadInputsFromFile(path string) ([]string, error) {
	if path == "-" {
		return ReadInputs(os.Stdin)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()
	return ReadInputs(file)
}

// ReadInputs reads one input per line, skipping blanks, # comments and
// duplicates
func ReadInputs(r io.Reader) ([]string, error) {
	var inputs []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
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
		return nil, fmt.Errorf("scan: %w", err)
	}
	return inputs, nil
}
