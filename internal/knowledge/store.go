package knowledge

import (
	"context"
	"fmt"
	"path/filepath"

	chromem "github.com/philippgille/chromem-go"
)

// StoreConfig holds vector store configuration
type StoreConfig struct {
	PersistPath string // Path to persist data; empty keeps the index in memory
	Collection  string // Collection name
}

// Document represents a stored window with its provenance metadata.
type Document struct {
	ID       string
	Content  string
	Metadata map[string]string
}

// SearchResult represents a similarity search hit.
type SearchResult struct {
	Document   Document
	Similarity float32 // 0.0 to 1.0
}

// VectorStore manages embeddings and similarity search.
type VectorStore interface {
	// Add adds documents to the store
	Add(ctx context.Context, docs []Document) error

	// Query performs similarity search restricted by metadata filters.
	Query(ctx context.Context, queryText string, topK int, where map[string]string) ([]SearchResult, error)

	// Count returns total document count
	Count() int

	// Reset removes all stored documents.
	Reset(ctx context.Context) error
}

// chromemStore implements VectorStore using chromem-go
type chromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	config     StoreConfig
	embed      chromem.EmbeddingFunc
}

// NewVectorStore creates a chromem-backed vector store.
func NewVectorStore(config StoreConfig, embedder Embedder) (VectorStore, error) {
	if config.Collection == "" {
		config.Collection = "knowledge"
	}

	var db *chromem.DB
	var err error
	if config.PersistPath != "" {
		persistFile := filepath.Join(config.PersistPath, "knowledge.gob")
		db, err = chromem.NewPersistentDB(persistFile, false)
		if err != nil {
			return nil, fmt.Errorf("create persistent DB: %w", err)
		}
	} else {
		db = chromem.NewDB()
	}

	embeddingFunc := func(ctx context.Context, text string) ([]float32, error) {
		return embedder.Embed(ctx, text)
	}

	collection, err := db.GetOrCreateCollection(config.Collection, nil, embeddingFunc)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	return &chromemStore{
		db:         db,
		collection: collection,
		config:     config,
		embed:      embeddingFunc,
	}, nil
}

// Add adds documents to the store
func (s *chromemStore) Add(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	for _, doc := range docs {
		err := s.collection.AddDocument(ctx, chromem.Document{
			ID:       doc.ID,
			Content:  doc.Content,
			Metadata: doc.Metadata,
		})
		if err != nil {
			return fmt.Errorf("add document %s: %w", doc.ID, err)
		}
	}
	return nil
}

// Query performs similarity search by text, filtered by metadata.
func (s *chromemStore) Query(ctx context.Context, queryText string, topK int, where map[string]string) ([]SearchResult, error) {
	if topK <= 0 {
		topK = 5
	}
	// chromem rejects nResults above the collection size.
	if count := s.collection.Count(); topK > count {
		if count == 0 {
			return nil, nil
		}
		topK = count
	}

	results, err := s.collection.Query(ctx, queryText, topK, where, nil)
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}

	searchResults := make([]SearchResult, 0, len(results))
	for _, r := range results {
		searchResults = append(searchResults, SearchResult{
			Document: Document{
				ID:       r.ID,
				Content:  r.Content,
				Metadata: r.Metadata,
			},
			Similarity: r.Similarity,
		})
	}
	return searchResults, nil
}

// Count returns total document count
func (s *chromemStore) Count() int {
	return s.collection.Count()
}

// Reset removes every document by recreating the collection.
func (s *chromemStore) Reset(_ context.Context) error {
	if err := s.db.DeleteCollection(s.config.Collection); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	collection, err := s.db.GetOrCreateCollection(s.config.Collection, nil, s.embed)
	if err != nil {
		return fmt.Errorf("recreate collection: %w", err)
	}
	s.collection = collection
	return nil
}
