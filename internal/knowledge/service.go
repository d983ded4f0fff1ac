package knowledge

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"compass/internal/logging"
)

// ServiceConfig holds knowledge service configuration.
type ServiceConfig struct {
	// BaseDir contains one folder per topic; folder names must match the
	// dimension names used by assessment exactly (case-sensitive).
	BaseDir     string
	PersistPath string
	Collection  string

	Window WindowConfig

	TopK          int     // default: 5
	MinSimilarity float32 // default: 0 (no filtering)

	// MaturityTopic names the secondary context bucket; MaturityExtras is
	// how many of its entries are appended to every retrieval. Zero
	// disables the secondary block.
	MaturityTopic  string
	MaturityExtras int
}

// RetrievedChunk is one window returned by retrieval, with provenance.
type RetrievedChunk struct {
	Source     string
	Topic      string
	Ordinal    int
	Total      int
	Text       string
	Similarity float32
}

// Context is the retrieval result handed to agents. Unavailable is set when
// the knowledge base is missing or empty; that case is not an error.
type Context struct {
	Text        string
	Unavailable bool
	Chunks      []RetrievedChunk
}

// IngestStats summarizes one ingestion pass.
type IngestStats struct {
	Topics    int
	Documents int
	Windows   int
	Skipped   bool // true when a non-forced ingest found existing content
}

// Service answers semantic-similarity queries over ingested reference
// documents. Construction is cheap; the backing index is built lazily on
// first use behind a single once-guard, so concurrent callers never race on
// initialization. One Service instance is shared read-mostly across
// orchestration runs.
type Service struct {
	config   ServiceConfig
	embedder Embedder
	logger   logging.Logger

	initOnce sync.Once
	initErr  error
	windower *Windower
	store    VectorStore

	ingestMu sync.Mutex
}

// NewService creates a knowledge service. The embedder is injected so tests
// and offline deployments can use the deterministic local embedder.
func NewService(config ServiceConfig, embedder Embedder, logger logging.Logger) *Service {
	if config.TopK <= 0 {
		config.TopK = 5
	}
	if config.MaturityTopic == "" {
		config.MaturityTopic = "maturity-models"
	}
	return &Service{
		config:   config,
		embedder: embedder,
		logger:   logging.OrNop(logger),
	}
}

func (s *Service) init() error {
	s.initOnce.Do(func() {
		windower, err := NewWindower(s.config.Window)
		if err != nil {
			s.initErr = fmt.Errorf("create windower: %w", err)
			return
		}
		store, err := NewVectorStore(StoreConfig{
			PersistPath: s.config.PersistPath,
			Collection:  s.config.Collection,
		}, s.embedder)
		if err != nil {
			s.initErr = fmt.Errorf("create vector store: %w", err)
			return
		}
		s.windower = windower
		s.store = store
	})
	return s.initErr
}

// Ingest loads every topic folder under BaseDir into the index. Without
// force, a store that already has content is left untouched; with force the
// prior content is fully replaced.
func (s *Service) Ingest(ctx context.Context, force bool) (*IngestStats, error) {
	if err := s.init(); err != nil {
		return nil, err
	}

	s.ingestMu.Lock()
	defer s.ingestMu.Unlock()

	if s.store.Count() > 0 {
		if !force {
			s.logger.Info("knowledge store already populated (%d windows), skipping ingest", s.store.Count())
			return &IngestStats{Skipped: true, Windows: s.store.Count()}, nil
		}
		if err := s.store.Reset(ctx); err != nil {
			return nil, fmt.Errorf("reset store: %w", err)
		}
	}

	topics, err := s.listTopics()
	if err != nil {
		return nil, err
	}

	stats := &IngestStats{Topics: len(topics)}
	for _, topic := range topics {
		docs, err := s.listDocuments(topic)
		if err != nil {
			return nil, err
		}
		for _, doc := range docs {
			content, err := os.ReadFile(doc)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", doc, err)
			}
			source := filepath.Base(doc)
			windows := s.windower.Split(string(content))
			if len(windows) == 0 {
				continue
			}

			batch := make([]Document, 0, len(windows))
			for _, win := range windows {
				key := fmt.Sprintf("%s/%s:%d", topic, source, win.Ordinal)
				batch = append(batch, Document{
					ID:      fmt.Sprintf("%x", sha256.Sum256([]byte(key)))[:16],
					Content: win.Text,
					Metadata: map[string]string{
						"topic":   topic,
						"source":  source,
						"ordinal": strconv.Itoa(win.Ordinal),
						"total":   strconv.Itoa(win.Total),
					},
				})
			}
			if err := s.store.Add(ctx, batch); err != nil {
				return nil, fmt.Errorf("store %s: %w", source, err)
			}
			stats.Documents++
			stats.Windows += len(batch)
		}
	}

	s.logger.Info("ingested %d documents (%d windows) across %d topics",
		stats.Documents, stats.Windows, stats.Topics)
	return stats, nil
}

// Retrieve returns the top-k windows for query within topic, optionally
// followed by a labeled block from the maturity-models bucket. A missing or
// empty knowledge base yields an unavailable Context, never an error.
func (s *Service) Retrieve(ctx context.Context, query, topic string, topK int) (Context, error) {
	if strings.TrimSpace(query) == "" {
		return Context{}, fmt.Errorf("empty query")
	}

	if err := s.init(); err != nil {
		s.logger.Warn("knowledge base unavailable: %v", err)
		return Context{Unavailable: true}, nil
	}
	if s.store.Count() == 0 {
		return Context{Unavailable: true}, nil
	}
	if topK <= 0 {
		topK = s.config.TopK
	}

	chunks, err := s.query(ctx, query, topic, topK)
	if err != nil {
		return Context{}, err
	}

	var extras []RetrievedChunk
	if s.config.MaturityExtras > 0 && topic != s.config.MaturityTopic {
		extras, err = s.query(ctx, query, s.config.MaturityTopic, s.config.MaturityExtras)
		if err != nil {
			return Context{}, err
		}
	}

	var sb strings.Builder
	for _, chunk := range chunks {
		fmt.Fprintf(&sb, "[%s · %s %d/%d]\n%s\n\n",
			chunk.Topic, chunk.Source, chunk.Ordinal+1, chunk.Total, strings.TrimSpace(chunk.Text))
	}
	if len(extras) > 0 {
		sb.WriteString("--- Maturity model context ---\n")
		for _, chunk := range extras {
			fmt.Fprintf(&sb, "[%s · %s %d/%d]\n%s\n\n",
				chunk.Topic, chunk.Source, chunk.Ordinal+1, chunk.Total, strings.TrimSpace(chunk.Text))
		}
	}

	return Context{
		Text:   strings.TrimRight(sb.String(), "\n"),
		Chunks: append(chunks, extras...),
	}, nil
}

func (s *Service) query(ctx context.Context, query, topic string, topK int) ([]RetrievedChunk, error) {
	results, err := s.store.Query(ctx, query, topK, map[string]string{"topic": topic})
	if err != nil {
		return nil, fmt.Errorf("query topic %q: %w", topic, err)
	}

	chunks := make([]RetrievedChunk, 0, len(results))
	for _, r := range results {
		if r.Similarity < s.config.MinSimilarity {
			continue
		}
		ordinal, _ := strconv.Atoi(r.Document.Metadata["ordinal"])
		total, _ := strconv.Atoi(r.Document.Metadata["total"])
		chunks = append(chunks, RetrievedChunk{
			Source:     r.Document.Metadata["source"],
			Topic:      r.Document.Metadata["topic"],
			Ordinal:    ordinal,
			Total:      total,
			Text:       r.Document.Content,
			Similarity: r.Similarity,
		})
	}
	return chunks, nil
}

// WindowCount reports how many windows the index currently holds.
func (s *Service) WindowCount() int {
	if err := s.init(); err != nil {
		return 0
	}
	return s.store.Count()
}

func (s *Service) listTopics() ([]string, error) {
	entries, err := os.ReadDir(s.config.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read knowledge base dir: %w", err)
	}
	var topics []string
	for _, entry := range entries {
		if entry.IsDir() {
			topics = append(topics, entry.Name())
		}
	}
	sort.Strings(topics)
	return topics, nil
}

func (s *Service) listDocuments(topic string) ([]string, error) {
	dir := filepath.Join(s.config.BaseDir, topic)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read topic dir %s: %w", topic, err)
	}
	var docs []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".txt", ".md":
			docs = append(docs, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(docs)
	return docs, nil
}
