package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compass/internal/retry"
)

func retryTestConfig() retry.Config {
	return retry.Config{
		MaxAttempts: 2,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
	}
}

func TestEstimator_MaxChars(t *testing.T) {
	est := NewEstimator(4.0)

	// 1000 tokens at 4 chars/token with 10% margin = 3600 chars.
	assert.Equal(t, 3600, est.MaxChars(1000, 0.1))
	assert.Equal(t, 4000, est.MaxChars(1000, 0))

	// Zero ratio falls back to the default.
	assert.Equal(t, NewEstimator(0).CharsPerToken, 4.0)
}

func TestEstimator_EstimateTokens(t *testing.T) {
	est := NewEstimator(4.0)
	assert.Equal(t, 26, est.EstimateTokens(string(make([]byte, 100))))
	assert.Equal(t, 1, est.EstimateTokens(""))
}

func TestOpenAIClient_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req openaiChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "local-model", req.Model)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "hello"}, "finish_reason": "stop"},
			},
			"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 2, "total_tokens": 12},
		})
	}))
	defer server.Close()

	client, err := NewOpenAIClient("local-model", Config{BaseURL: server.URL, APIKey: "test-key"})
	require.NoError(t, err)

	resp, err := client.Complete(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Content)
	assert.Equal(t, 12, resp.Usage.TotalTokens)
}

func TestAnthropicClient_ThinkingBudget(t *testing.T) {
	var captured anthropicRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.Header.Get("x-api-key"))
		assert.Equal(t, defaultAnthropicVersion, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]any{
				{"type": "thinking", "text": "working it out"},
				{"type": "text", "text": "answer"},
			},
			"usage": map[string]int{"input_tokens": 5, "output_tokens": 3},
		})
	}))
	defer server.Close()

	client, err := NewAnthropicClient("claude-test", Config{
		BaseURL:              server.URL,
		APIKey:               "key",
		ThinkingBudgetTokens: 2048,
	})
	require.NoError(t, err)

	resp, err := client.Complete(context.Background(), Request{
		Messages: []Message{
			{Role: RoleSystem, Content: "be brief"},
			{Role: RoleUser, Content: "question"},
		},
		Thinking: true,
	})
	require.NoError(t, err)

	// Only text blocks are surfaced; thinking output is dropped.
	assert.Equal(t, "answer", resp.Content)
	assert.Equal(t, 8, resp.Usage.TotalTokens)

	require.NotNil(t, captured.Thinking)
	assert.Equal(t, 2048, captured.Thinking.BudgetTokens)
	assert.Equal(t, "be brief", captured.System)
	assert.Greater(t, captured.MaxTokens, 2048)
	for _, msg := range captured.Messages {
		assert.NotEqual(t, RoleSystem, msg.Role)
	}
}

func TestAzureClient_DeploymentEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/openai/deployments/report-gen/chat/completions", r.URL.Path)
		assert.Equal(t, defaultAzureAPIVersion, r.URL.Query().Get("api-version"))
		assert.Equal(t, "azure-key", r.Header.Get("api-key"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "ok"}},
			},
		})
	}))
	defer server.Close()

	client, err := NewAzureClient("", Config{
		BaseURL:    server.URL,
		APIKey:     "azure-key",
		Deployment: "report-gen",
	})
	require.NoError(t, err)

	resp, err := client.Complete(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
}

func TestClient_ErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		kind   ErrorKind
	}{
		{"unauthorized", http.StatusUnauthorized, ErrAuthFailure},
		{"forbidden", http.StatusForbidden, ErrAuthFailure},
		{"rate limited", http.StatusTooManyRequests, ErrRateLimited},
		{"server error", http.StatusInternalServerError, ErrTransportError},
		{"gateway timeout", http.StatusGatewayTimeout, ErrTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			}))
			defer server.Close()

			client, err := NewOpenAIClient("m", Config{BaseURL: server.URL})
			require.NoError(t, err)

			_, err = client.Complete(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "x"}}})
			require.Error(t, err)

			var pe *ProviderError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.kind, pe.Kind)
			assert.Equal(t, tt.status, pe.Status)
		})
	}
}

func TestClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client, err := NewOpenAIClient("m", Config{BaseURL: server.URL, Timeout: 20 * time.Millisecond})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "x"}}})
	require.Error(t, err)
	assert.Equal(t, ErrTimeout, KindOf(err))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewProviderError(ErrRateLimited, "openai", errors.New("429"))))
	assert.True(t, IsRetryable(NewProviderError(ErrTransportError, "openai", errors.New("boom"))))
	assert.False(t, IsRetryable(NewProviderError(ErrTimeout, "openai", errors.New("slow"))))
	assert.False(t, IsRetryable(NewProviderError(ErrAuthFailure, "openai", errors.New("401"))))
	assert.False(t, IsRetryable(errors.New("plain")))
}

func TestRetryClient_RetriesTransient(t *testing.T) {
	mock := &MockClient{
		Responses: []string{"unused", "recovered"},
		Errors:    []error{NewProviderError(ErrRateLimited, "mock", errors.New("429")), nil},
	}
	client := NewRetryClient(mock, retryTestConfig())

	resp, err := client.Complete(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "recovered", resp.Content)
	assert.Equal(t, 2, mock.CallCount())
}

func TestRetryClient_DoesNotRetryTimeout(t *testing.T) {
	mock := &MockClient{
		Errors: []error{NewProviderError(ErrTimeout, "mock", errors.New("deadline"))},
	}
	client := NewRetryClient(mock, retryTestConfig())

	_, err := client.Complete(context.Background(), Request{})
	require.Error(t, err)
	assert.Equal(t, ErrTimeout, KindOf(err))
	assert.Equal(t, 1, mock.CallCount())
}
