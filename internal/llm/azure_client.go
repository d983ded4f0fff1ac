package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const defaultAzureAPIVersion = "2024-06-01"

// azureClient speaks the Azure OpenAI wire format: requests address a named
// deployment rather than a model, authenticate with an api-key header, and
// pin an api-version query parameter.
type azureClient struct {
	baseClient
	deployment string
	apiVersion string
}

var _ Client = (*azureClient)(nil)

// NewAzureClient creates a client for an Azure OpenAI deployment.
func NewAzureClient(model string, config Config) (Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("azure endpoint is required")
	}
	if config.APIKey == "" {
		return nil, fmt.Errorf("azure API key is required")
	}
	deployment := config.Deployment
	if deployment == "" {
		deployment = model
	}
	if deployment == "" {
		return nil, fmt.Errorf("azure deployment name is required")
	}
	apiVersion := config.APIVersion
	if apiVersion == "" {
		apiVersion = defaultAzureAPIVersion
	}
	return &azureClient{
		baseClient: newBaseClient(model, "azure", config, ""),
		deployment: deployment,
		apiVersion: apiVersion,
	}, nil
}

func (c *azureClient) Complete(ctx context.Context, req Request) (*Response, error) {
	callCtx, cancel := c.withCallTimeout(ctx, req.Thinking)
	defer cancel()

	// Azure reuses the OpenAI chat envelope; the model is implied by the
	// deployment path.
	payload := openaiChatRequest{
		Messages:    req.Messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, NewProviderError(ErrTransportError, c.provider, fmt.Errorf("marshal request: %w", err))
	}

	endpoint := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		c.config.BaseURL, c.deployment, c.apiVersion)

	respBody, err := c.doPost(callCtx, endpoint, body, func(r *http.Request) {
		r.Header.Set("api-key", c.config.APIKey)
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
