package knowledge

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// WindowConfig holds document windowing configuration
type WindowConfig struct {
	WindowTokens  int // Tokens per window (default: 512)
	OverlapTokens int // Token overlap between consecutive windows (default: 64)
}

// Window is one fixed-size span of a source document. Ordinals are
// contiguous from 0; Total is the window count for the whole document, so
// provenance can be reconstructed from any single window.
type Window struct {
	Text    string
	Ordinal int
	Total   int
}

// Windower splits reference documents into overlapping token windows.
type Windower struct {
	config   WindowConfig
	encoding *tiktoken.Tiktoken
}

// NewWindower creates a windower with the given configuration.
func NewWindower(config WindowConfig) (*Windower, error) {
	if config.WindowTokens <= 0 {
		config.WindowTokens = 512
	}
	if config.OverlapTokens < 0 {
		config.OverlapTokens = 0
	}
	if config.OverlapTokens >= config.WindowTokens {
		return nil, fmt.Errorf("overlap (%d) must be smaller than window size (%d)",
			config.OverlapTokens, config.WindowTokens)
	}

	// cl100k_base matches the embedding models in use.
	encoding, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("get encoding: %w", err)
	}

	return &Windower{config: config, encoding: encoding}, nil
}

// Split windows a document into overlapping spans. Empty input yields no
// windows.
func (w *Windower) Split(text string) []Window {
	tokens := w.encoding.Encode(text, nil, nil)
	if len(tokens) == 0 {
		return nil
	}

	step := w.config.WindowTokens - w.config.OverlapTokens
	var windows []Window
	for start := 0; start < len(tokens); start += step {
		end := start + w.config.WindowTokens
		if end > len(tokens) {
			end = len(tokens)
		}
		windows = append(windows, Window{
			Text:    w.encoding.Decode(tokens[start:end]),
			Ordinal: len(windows),
		})
		if end == len(tokens) {
			break
		}
	}

	for i := range windows {
		windows[i].Total = len(windows)
	}
	return windows
}

// CountTokens returns the token count for text.
func (w *Windower) CountTokens(text string) int {
	return len(w.encoding.Encode(text, nil, nil))
}
