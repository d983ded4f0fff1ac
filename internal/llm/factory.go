package llm

import "fmt"

// ProviderKind identifies one of the supported backends. The set is closed:
// every kind has exactly one client implementation behind the Client
// interface.
type ProviderKind string

const (
	ProviderOpenAI    ProviderKind = "openai"
	ProviderAnthropic ProviderKind = "anthropic"
	ProviderAzure     ProviderKind = "azure"
)

// NewClient constructs the client for the given provider kind.
func NewClient(kind ProviderKind, model string, config Config) (Client, error) {
	switch kind {
	case ProviderOpenAI:
		return NewOpenAIClient(model, config)
	case ProviderAnthropic:
		return NewAnthropicClient(model, config)
	case ProviderAzure:
		return NewAzureClient(model, config)
	default:
		return nil, fmt.Errorf("unknown provider kind: %q", kind)
	}
}
