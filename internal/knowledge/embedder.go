package knowledge

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"
	"unicode"

	lru "github.com/hashicorp/golang-lru/v2"
)

// EmbedderConfig holds embedding configuration
type EmbedderConfig struct {
	Model     string // default: "text-embedding-3-small"
	APIKey    string
	BaseURL   string // Optional, defaults to OpenAI
	CacheSize int    // LRU cache size, default 10000
}

// Embedder generates text embeddings
type Embedder interface {
	// Embed generates embedding for a single text
	Embed(ctx context.Context, text string) ([]float32, error)
}

// openaiEmbedder implements Embedder using the OpenAI embeddings API with an
// LRU cache in front of it.
type openaiEmbedder struct {
	config     EmbedderConfig
	httpClient *http.Client
	cache      *lru.Cache[string, []float32]
}

// NewEmbedder creates a new API-backed embedder
func NewEmbedder(config EmbedderConfig) (Embedder, error) {
	if config.Model == "" {
		config.Model = "text-embedding-3-small"
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://api.openai.com/v1"
	}
	if config.CacheSize == 0 {
		config.CacheSize = 10000
	}

	cache, err := lru.New[string, []float32](config.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}

	return &openaiEmbedder{
		config: config,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		cache: cache,
	}, nil
}

// Embed generates embedding for a single text
func (e *openaiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if cached, ok := e.cache.Get(text); ok {
		return cached, nil
	}

	embedding, err := e.callAPI(ctx, text)
	if err != nil {
		return nil, err
	}

	e.cache.Add(text, embedding)
	return embedding, nil
}

// callAPI calls the embeddings endpoint
func (e *openaiEmbedder) callAPI(ctx context.Context, text string) ([]float32, error) {
	reqBody := map[string]any{
		"model": e.config.Model,
		"input": text,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.config.BaseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.config.APIKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var apiResp struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(apiResp.Data) == 0 {
		return nil, fmt.Errorf("empty embedding response")
	}

	return apiResp.Data[0].Embedding, nil
}

// hashEmbedder is a deterministic local embedder for offline use and tests.
// Vectors are derived from token hashes, so identical text always embeds
// identically and related text shares components.
type hashEmbedder struct {
	dimensions int
}

// NewHashEmbedder creates a deterministic local embedder.
func NewHashEmbedder(dimensions int) Embedder {
	if dimensions <= 0 {
		dimensions = 128
	}
	return &hashEmbedder{dimensions: dimensions}
}

func (e *hashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dimensions)
	for _, word := range tokenizeWords(text) {
		sum := sha256.Sum256([]byte(word))
		idx := int(binary.BigEndian.Uint32(sum[:4])) % e.dimensions
		if idx < 0 {
			idx += e.dimensions
		}
		sign := float32(1)
		if sum[4]%2 == 1 {
			sign = -1
		}
		vec[idx] += sign
	}

	// chromem expects normalized vectors for cosine similarity.
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		vec[0] = 1
		return vec, nil
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec, nil
}

func tokenizeWords(text string) []string {
	var words []string
	var current []rune
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			current = append(current, unicode.ToLower(r))
			continue
		}
		if len(current) > 0 {
			words = append(words, string(current))
			current = current[:0]
		}
	}
	if len(current) > 0 {
		words = append(words, string(current))
	}
	return words
}
