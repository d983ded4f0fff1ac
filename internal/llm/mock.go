package llm

import (
	"context"
	"sync"
)

// MockClient implements Client for testing. Responses are consumed in
// order; once the script is exhausted the last entry repeats. Handler, when
// set, takes precedence and receives every request.
type MockClient struct {
	ModelName     string
	CharsPerToken float64

	// Responses is the scripted sequence of reply texts.
	Responses []string
	// Errors, when non-nil at the current call index, is returned instead
	// of the scripted response.
	Errors []error
	// Handler computes a reply from the request, overriding the script.
	Handler func(req Request, call int) (string, error)

	mu    sync.Mutex
	calls []Request
}

var _ Client = (*MockClient)(nil)

func (m *MockClient) Complete(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	call := len(m.calls)
	m.calls = append(m.calls, req)
	m.mu.Unlock()

	if m.Handler != nil {
		content, err := m.Handler(req, call)
		if err != nil {
			return nil, err
		}
		return &Response{Content: content}, nil
	}

	if call < len(m.Errors) && m.Errors[call] != nil {
		return nil, m.Errors[call]
	}

	if len(m.Responses) == 0 {
		return &Response{Content: ""}, nil
	}
	idx := call
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	}
	return &Response{Content: m.Responses[idx]}, nil
}

func (m *MockClient) Model() string {
	if m.ModelName == "" {
		return "mock"
	}
	return m.ModelName
}

func (m *MockClient) Estimator() Estimator {
	return NewEstimator(m.CharsPerToken)
}

// Calls returns a copy of every request received so far.
func (m *MockClient) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns the number of completions issued.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
