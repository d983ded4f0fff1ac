package llm

import (
	"context"
	"time"
)

// Message represents a conversation message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Roles used across providers.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Request is a completion request shared by all providers
type Request struct {
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`

	// Thinking requests an extended reasoning budget where the provider
	// supports one. Providers without reasoning support ignore it.
	Thinking bool `json:"thinking,omitempty"`
}

// TokenUsage tracks token consumption
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the provider's completion response
type Response struct {
	Content string     `json:"content"`
	Usage   TokenUsage `json:"usage"`
}

// Client is the uniform contract over heterogeneous model backends.
type Client interface {
	// Complete sends a conversation and returns the model's text.
	Complete(ctx context.Context, req Request) (*Response, error)

	// Model returns the model or deployment name used by this client.
	Model() string

	// Estimator returns the token estimator tuned for this backend.
	Estimator() Estimator
}

// Config holds provider connection settings shared by all client kinds.
type Config struct {
	APIKey  string
	BaseURL string
	Headers map[string]string

	// Deployment is the managed-service deployment name (Azure only).
	Deployment string
	// APIVersion selects the managed-service API revision (Azure only).
	APIVersion string

	// Timeout bounds a single non-thinking call. ThinkingTimeout applies when
	// an extended reasoning budget is requested; it is a separate class
	// because reasoning calls routinely run far longer.
	Timeout         time.Duration
	ThinkingTimeout time.Duration

	// ThinkingBudgetTokens is the reasoning token budget passed to providers
	// that honor one.
	ThinkingBudgetTokens int

	// CharsPerToken tunes the token estimator for this backend.
	CharsPerToken float64
}

// Estimator converts between characters and an approximate token count.
// Chunking depends on it to size batches without calling the provider.
type Estimator struct {
	CharsPerToken float64
}

// NewEstimator returns an estimator with the given ratio, defaulting to 4.0.
func NewEstimator(charsPerToken float64) Estimator {
	if charsPerToken <= 0 {
		charsPerToken = 4.0
	}
	return Estimator{CharsPerToken: charsPerToken}
}

// EstimateTokens returns the approximate token count for text.
func (e Estimator) EstimateTokens(text string) int {
	ratio := e.CharsPerToken
	if ratio <= 0 {
		ratio = 4.0
	}
	return int(float64(len(text))/ratio) + 1
}

// MaxChars returns the character budget for tokenBudget tokens after
// reserving the safety margin (0 < margin < 1, e.g. 0.15 reserves 15%).
func (e Estimator) MaxChars(tokenBudget int, safetyMargin float64) int {
	ratio := e.CharsPerToken
	if ratio <= 0 {
		ratio = 4.0
	}
	if safetyMargin < 0 || safetyMargin >= 1 {
		safetyMargin = 0
	}
	budget := float64(tokenBudget) * (1 - safetyMargin) * ratio
	if budget < 1 {
		return 1
	}
	return int(budget)
}

// callTimeout picks the timeout class for a request.
func callTimeout(cfg Config, thinking bool) time.Duration {
	if thinking && cfg.ThinkingTimeout > 0 {
		return cfg.ThinkingTimeout
	}
	if cfg.Timeout > 0 {
		return cfg.Timeout
	}
	return 120 * time.Second
}
