package chunking

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"compass/internal/llm"
	"compass/internal/logging"
	"compass/internal/survey"
)

// Job describes one chunked generation task. The same system prompt is sent
// with every batch; RenderBatch produces the per-batch user prompt and
// RenderConsolidation merges the per-batch outputs when more than one batch
// was needed.
type Job struct {
	System              string
	RenderBatch         func(batch []survey.Question) string
	RenderConsolidation func(outputs []string) string

	// TokenBudget is the provider's usable context in tokens; SafetyMargin
	// reserves a fraction of it for instructions and response headroom.
	TokenBudget  int
	SafetyMargin float64

	MaxTokens   int
	Temperature float64
	Thinking    bool
}

// BatchResult is one batch's completed output, kept in original batch order.
type BatchResult struct {
	Index     int
	Questions []survey.Question
	Output    string
}

// ChunkingError reports a failed batch call together with whatever batch
// outputs completed before the abort.
type ChunkingError struct {
	Partial []BatchResult
	Err     error
}

func (e *ChunkingError) Error() string {
	return fmt.Sprintf("chunked generation failed after %d completed batches: %v", len(e.Partial), e.Err)
}

func (e *ChunkingError) Unwrap() error {
	return e.Err
}

// EngineConfig holds chunking engine configuration.
type EngineConfig struct {
	// FanOut bounds how many batch calls may be in flight at once.
	// 1 (the default) keeps batches strictly sequential.
	FanOut int
}

// Engine guarantees no single model call exceeds the provider's usable
// context by partitioning question lists into budget-sized batches and
// consolidating multi-batch output into one coherent result.
type Engine struct {
	client llm.Client
	config EngineConfig
	logger logging.Logger
}

// NewEngine creates a chunking engine over the given client.
func NewEngine(client llm.Client, config EngineConfig, logger logging.Logger) *Engine {
	if config.FanOut <= 0 {
		config.FanOut = 1
	}
	return &Engine{
		client: client,
		config: config,
		logger: logging.OrNop(logger),
	}
}

// Run executes job over questions. With a single batch the batch output is
// the final result; with several, the consolidation call merges them and its
// output is returned. The returned batch results are always in original
// batch order.
func (e *Engine) Run(ctx context.Context, questions []survey.Question, job Job) (string, []BatchResult, error) {
	maxChars := e.client.Estimator().MaxChars(job.TokenBudget, job.SafetyMargin)
	batches := PartitionQuestions(questions, maxChars)
	if len(batches) == 0 {
		return "", nil, fmt.Errorf("no questions to process")
	}

	e.logger.Debug("partitioned %d questions into %d batches (budget %d chars)",
		len(questions), len(batches), maxChars)

	results, err := e.runBatches(ctx, batches, job)
	if err != nil {
		return "", nil, &ChunkingError{Partial: results, Err: err}
	}

	// A single batch needs no consolidation; its output is the result.
	if len(results) == 1 {
		return results[0].Output, results, nil
	}

	outputs := make([]string, len(results))
	for i, r := range results {
		outputs[i] = r.Output
	}
	resp, err := e.client.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: job.System},
			{Role: llm.RoleUser, Content: job.RenderConsolidation(outputs)},
		},
		MaxTokens:   job.MaxTokens,
		Temperature: job.Temperature,
		Thinking:    job.Thinking,
	})
	if err != nil {
		return "", nil, &ChunkingError{Partial: results, Err: fmt.Errorf("consolidation call: %w", err)}
	}

	return resp.Content, results, nil
}

// runBatches issues every batch call, sequentially or concurrently up to
// FanOut, and returns completed results sorted back into batch order. On
// failure the successfully completed results are still returned.
func (e *Engine) runBatches(ctx context.Context, batches []Batch, job Job) ([]BatchResult, error) {
	var mu sync.Mutex
	var completed []BatchResult

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(e.config.FanOut)

	for _, batch := range batches {
		batch := batch
		group.Go(func() error {
			resp, err := e.client.Complete(groupCtx, llm.Request{
				Messages: []llm.Message{
					{Role: llm.RoleSystem, Content: job.System},
					{Role: llm.RoleUser, Content: job.RenderBatch(batch.Questions)},
				},
				MaxTokens:   job.MaxTokens,
				Temperature: job.Temperature,
				Thinking:    job.Thinking,
			})
			if err != nil {
				return fmt.Errorf("batch %d: %w", batch.Index, err)
			}

			mu.Lock()
			completed = append(completed, BatchResult{
				Index:     batch.Index,
				Questions: batch.Questions,
				Output:    resp.Content,
			})
			mu.Unlock()
			return nil
		})
	}

	err := group.Wait()

	sort.Slice(completed, func(i, j int) bool {
		return completed[i].Index < completed[j].Index
	})
	return completed, err
}
