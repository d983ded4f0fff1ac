package llm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"compass/internal/logging"
)

// baseClient holds fields and helpers shared by HTTP-based model clients.
type baseClient struct {
	model      string
	provider   string
	config     Config
	httpClient *http.Client
	logger     logging.Logger
}

func newBaseClient(model, provider string, config Config, defaultBaseURL string) baseClient {
	baseURL := strings.TrimRight(strings.TrimSpace(config.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	config.BaseURL = baseURL

	return baseClient{
		model:    model,
		provider: provider,
		config:   config,
		// Per-call deadlines come from context.WithTimeout so the thinking
		// timeout class can differ per request; the transport itself is
		// unbounded.
		httpClient: &http.Client{},
		logger:     logging.NewComponentLogger(provider + "-client"),
	}
}

// Model returns the model name used by this client.
func (c *baseClient) Model() string {
	return c.model
}

// Estimator returns the token estimator tuned for this backend.
func (c *baseClient) Estimator() Estimator {
	return NewEstimator(c.config.CharsPerToken)
}

// withCallTimeout derives the per-call context for a request.
func (c *baseClient) withCallTimeout(ctx context.Context, thinking bool) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, callTimeout(c.config, thinking))
}

// doPost sends a JSON POST and returns the response body on 2xx, or a
// classified ProviderError otherwise. Headers beyond Content-Type are the
// caller's responsibility via setHeaders.
func (c *baseClient) doPost(ctx context.Context, endpoint string, body []byte, setHeaders func(*http.Request)) ([]byte, error) {
	started := time.Now()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, NewProviderError(ErrTransportError, c.provider, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if setHeaders != nil {
		setHeaders(httpReq)
	}
	for k, v := range c.config.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		kind := classifyTransportErr(err)
		if ctx.Err() == context.DeadlineExceeded {
			kind = ErrTimeout
		}
		return nil, NewProviderError(kind, c.provider, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewProviderError(ErrTransportError, c.provider, fmt.Errorf("read response: %w", err))
	}

	c.logger.Debug("POST %s -> %d (%v)", endpoint, resp.StatusCode, time.Since(started))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		perr := &ProviderError{
			Kind:     classifyHTTPStatus(resp.StatusCode),
			Provider: c.provider,
			Status:   resp.StatusCode,
			Err:      fmt.Errorf("%s", strings.TrimSpace(string(respBody))),
		}
		return nil, perr
	}

	return respBody, nil
}
