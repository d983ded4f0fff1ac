package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const defaultOpenAIBaseURL = "http://localhost:1234/v1"

// openaiClient speaks the OpenAI chat-completions wire format. With BaseURL
// pointed at a local OpenAI-compatible server (LM Studio, vLLM, llama.cpp)
// no API key is required.
type openaiClient struct {
	baseClient
}

var _ Client = (*openaiClient)(nil)

// NewOpenAIClient creates a client for an OpenAI-compatible endpoint.
func NewOpenAIClient(model string, config Config) (Client, error) {
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}
	return &openaiClient{
		baseClient: newBaseClient(model, "openai", config, defaultOpenAIBaseURL),
	}, nil
}

type openaiChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

type openaiChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (c *openaiClient) Complete(ctx context.Context, req Request) (*Response, error) {
	callCtx, cancel := c.withCallTimeout(ctx, req.Thinking)
	defer cancel()

	payload := openaiChatRequest{
		Model:       c.model,
		Messages:    req.Messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, NewProviderError(ErrTransportError, c.provider, fmt.Errorf("marshal request: %w", err))
	}

	respBody, err := c.doPost(callCtx, c.config.BaseURL+"/chat/completions", body, func(r *http.Request) {
		if c.config.APIKey != "" {
			r.Header.Set("Authorization", "Bearer "+c.config.APIKey)
		}
	})
	if err != nil {
		return nil, err
	}

	var parsed openaiChatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, NewProviderError(ErrTransportError, c.provider, fmt.Errorf("decode response: %w", err))
	}
	if parsed.Error != nil {
		return nil, NewProviderError(ErrTransportError, c.provider, fmt.Errorf("%s: %s", parsed.Error.Type, parsed.Error.Message))
	}
	if len(parsed.Choices) == 0 {
		return nil, NewProviderError(ErrTransportError, c.provider, fmt.Errorf("empty choices in response"))
	}

	return &Response{
		Content: parsed.Choices[0].Message.Content,
		Usage: TokenUsage{
			PromptTokens:     parsed.Usage.PromptTokens,
			CompletionTokens: parsed.Usage.CompletionTokens,
			TotalTokens:      parsed.Usage.TotalTokens,
		},
	}, nil
}
