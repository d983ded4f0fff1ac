package llm

import (
	"context"
	"time"

	"compass/internal/logging"
	"compass/internal/retry"
)

// retryClient wraps a Client with bounded exponential-backoff retries.
//
// The pipeline does not retry by default: a timed-out call surfaces as
// ProviderError(Timeout) and is handled by the workflow's failure semantics.
// Deployments that want resilience against rate limits and transient
// transport faults wrap their client here; the external contract is
// unchanged.
type retryClient struct {
	underlying  Client
	retryConfig retry.Config
	logger      logging.Logger
}

var _ Client = (*retryClient)(nil)

// NewRetryClient wraps client with retry logic for retryable provider errors.
func NewRetryClient(client Client, config retry.Config) Client {
	if config.Retryable == nil {
		config.Retryable = IsRetryable
	}
	return &retryClient{
		underlying:  client,
		retryConfig: config,
		logger:      logging.NewComponentLogger("llm-retry"),
	}
}

func (c *retryClient) Complete(ctx context.Context, req Request) (*Response, error) {
	started := time.Now()

	resp, err := retry.WithResultAndLog(ctx, c.retryConfig, func(ctx context.Context) (*Response, error) {
		return c.underlying.Complete(ctx, req)
	}, c.logger)

	if err != nil {
		c.logger.Warn("completion failed after retries (took %v): %v", time.Since(started), err)
		return nil, err
	}
	return resp, nil
}

func (c *retryClient) Model() string {
	return c.underlying.Model()
}

func (c *retryClient) Estimator() Estimator {
	return c.underlying.Estimator()
}
