package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const (
	defaultAnthropicBaseURL   = "https://api.anthropic.com/v1"
	defaultAnthropicVersion   = "2023-06-01"
	anthropicVersionHeaderKey = "anthropic-version"
	anthropicAPIKeyHeaderKey  = "x-api-key"
	anthropicMessagesPath     = "/messages"

	defaultThinkingBudgetTokens = 8192
)

// anthropicClient speaks the Anthropic messages API. When a request asks for
// thinking, an extended reasoning budget is sent and the longer timeout
// class applies.
type anthropicClient struct {
	baseClient
}

var _ Client = (*anthropicClient)(nil)

// NewAnthropicClient creates a client for the Anthropic messages API.
func NewAnthropicClient(model string, config Config) (Client, error) {
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}
	if config.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	return &anthropicClient{
		baseClient: newBaseClient(model, "anthropic", config, defaultAnthropicBaseURL),
	}, nil
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicThinking struct {
	Type         string `json:"type"`
	BudgetTokens int    `json:"budget_tokens"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
	Thinking  *anthropicThinking `json:"thinking,omitempty"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *anthropicClient) Complete(ctx context.Context, req Request) (*Response, error) {
	callCtx, cancel := c.withCallTimeout(ctx, req.Thinking)
	defer cancel()

	// Anthropic takes the system prompt as a top-level field, not a message.
	messages := make([]anthropicMessage, 0, len(req.Messages))
	var system string
	for _, msg := range req.Messages {
		if msg.Role == RoleSystem {
			if system != "" {
				system += "\n\n"
			}
			system += msg.Content
			continue
		}
		messages = append(messages, anthropicMessage{Role: msg.Role, Content: msg.Content})
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	payload := anthropicRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		System:    system,
		Messages:  messages,
	}
	if req.Thinking {
		budget := c.config.ThinkingBudgetTokens
		if budget <= 0 {
			budget = defaultThinkingBudgetTokens
		}
		payload.Thinking = &anthropicThinking{Type: "enabled", BudgetTokens: budget}
		// The API requires max_tokens to exceed the thinking budget.
		if payload.MaxTokens <= budget {
			payload.MaxTokens = budget + 4096
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, NewProviderError(ErrTransportError, c.provider, fmt.Errorf("marshal request: %w", err))
	}

	respBody, err := c.doPost(callCtx, c.config.BaseURL+anthropicMessagesPath, body, func(r *http.Request) {
		r.Header.Set(anthropicAPIKeyHeaderKey, c.config.APIKey)
		r.Header.Set(anthropicVersionHeaderKey, defaultAnthropicVersion)
	})
	if err != nil {
		return nil, err
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, NewProviderError(ErrTransportError, c.provider, fmt.Errorf("decode response: %w", err))
	}
	if parsed.Error != nil {
		return nil, NewProviderError(ErrTransportError, c.provider, fmt.Errorf("%s: %s", parsed.Error.Type, parsed.Error.Message))
	}

	// Thinking blocks precede the final text block; only text is returned.
	var content string
	for _, block := range parsed.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}

	return &Response{
		Content: content,
		Usage: TokenUsage{
			PromptTokens:     parsed.Usage.InputTokens,
			CompletionTokens: parsed.Usage.OutputTokens,
			TotalTokens:      parsed.Usage.InputTokens + parsed.Usage.OutputTokens,
		},
	}, nil
}
