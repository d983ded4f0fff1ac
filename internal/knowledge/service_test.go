package knowledge

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compass/internal/logging"
)

func writeKnowledgeBase(t *testing.T, topics map[string]map[string]string) string {
	t.Helper()
	baseDir := t.TempDir()
	for topic, docs := range topics {
		require.NoError(t, os.MkdirAll(filepath.Join(baseDir, topic), 0o755))
		for name, content := range docs {
			require.NoError(t, os.WriteFile(filepath.Join(baseDir, topic, name), []byte(content), 0o644))
		}
	}
	return baseDir
}

func newTestService(t *testing.T, baseDir string) *Service {
	t.Helper()
	return NewService(ServiceConfig{
		BaseDir:        baseDir,
		Window:         WindowConfig{WindowTokens: 64, OverlapTokens: 8},
		TopK:           3,
		MaturityTopic:  "maturity-models",
		MaturityExtras: 0,
	}, NewHashEmbedder(64), logging.Nop())
}

func TestService_IngestAndRetrieve(t *testing.T) {
	baseDir := writeKnowledgeBase(t, map[string]map[string]string{
		"data-governance": {
			"policies.md": "Data governance requires a policy council, stewardship roles and audit trails for every dataset.",
		},
		"data-quality": {
			"profiling.txt": "Quality profiling measures completeness, accuracy and timeliness of records.",
		},
	})
	svc := newTestService(t, baseDir)

	stats, err := svc.Ingest(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Topics)
	assert.Equal(t, 2, stats.Documents)
	assert.False(t, stats.Skipped)

	result, err := svc.Retrieve(context.Background(), "stewardship and audit policy", "data-governance", 2)
	require.NoError(t, err)
	assert.False(t, result.Unavailable)
	require.NotEmpty(t, result.Chunks)
	for _, chunk := range result.Chunks {
		assert.Equal(t, "data-governance", chunk.Topic)
		assert.Equal(t, "policies.md", chunk.Source)
	}
	assert.Contains(t, result.Text, "policies.md")
}

func TestService_TopicFilterIsCaseSensitive(t *testing.T) {
	baseDir := writeKnowledgeBase(t, map[string]map[string]string{
		"data-governance": {"doc.md": "governance reference content about controls"},
	})
	svc := newTestService(t, baseDir)
	_, err := svc.Ingest(context.Background(), false)
	require.NoError(t, err)

	result, err := svc.Retrieve(context.Background(), "controls", "Data-Governance", 2)
	require.NoError(t, err)
	assert.Empty(t, result.Chunks)
	assert.Empty(t, result.Text)
}

func TestService_EmptyKnowledgeBase(t *testing.T) {
	svc := newTestService(t, filepath.Join(t.TempDir(), "missing"))

	result, err := svc.Retrieve(context.Background(), "anything", "data-governance", 3)
	require.NoError(t, err)
	assert.True(t, result.Unavailable)
	assert.Empty(t, result.Text)
}

func TestService_EmptyQueryFails(t *testing.T) {
	svc := newTestService(t, t.TempDir())
	_, err := svc.Retrieve(context.Background(), "   ", "data-governance", 3)
	require.Error(t, err)
}

func TestService_IngestIdempotence(t *testing.T) {
	baseDir := writeKnowledgeBase(t, map[string]map[string]string{
		"data-governance": {"doc.md": strings.Repeat("governance stewardship policy audit ", 60)},
	})
	svc := newTestService(t, baseDir)

	first, err := svc.Ingest(context.Background(), false)
	require.NoError(t, err)
	require.Greater(t, first.Windows, 1)

	// Without force, re-ingest is a no-op: same window count.
	second, err := svc.Ingest(context.Background(), false)
	require.NoError(t, err)
	assert.True(t, second.Skipped)
	assert.Equal(t, first.Windows, svc.WindowCount())

	// With force, the corpus is rebuilt to the same content.
	third, err := svc.Ingest(context.Background(), true)
	require.NoError(t, err)
	assert.False(t, third.Skipped)
	assert.Equal(t, first.Windows, third.Windows)
}

func TestService_OrdinalsContiguous(t *testing.T) {
	baseDir := writeKnowledgeBase(t, map[string]map[string]string{
		"data-governance": {"doc.md": strings.Repeat("data governance lineage catalog metadata ownership ", 80)},
	})
	svc := newTestService(t, baseDir)
	stats, err := svc.Ingest(context.Background(), false)
	require.NoError(t, err)
	require.Greater(t, stats.Windows, 2)

	result, err := svc.Retrieve(context.Background(), "lineage catalog", "data-governance", stats.Windows)
	require.NoError(t, err)

	ordinals := make([]int, 0, len(result.Chunks))
	for _, chunk := range result.Chunks {
		assert.Equal(t, stats.Windows, chunk.Total)
		ordinals = append(ordinals, chunk.Ordinal)
	}
	sort.Ints(ordinals)
	for i, ord := range ordinals {
		assert.Equal(t, i, ord, "ordinals must be contiguous from 0")
	}
}

func TestService_MaturityExtrasAppended(t *testing.T) {
	baseDir := writeKnowledgeBase(t, map[string]map[string]string{
		"data-governance": {"doc.md": "governance policy content"},
		"maturity-models": {"dmm.md": "level definitions for the data management maturity model"},
	})
	svc := NewService(ServiceConfig{
		BaseDir:        baseDir,
		Window:         WindowConfig{WindowTokens: 64, OverlapTokens: 8},
		TopK:           3,
		MaturityTopic:  "maturity-models",
		MaturityExtras: 1,
	}, NewHashEmbedder(64), logging.Nop())

	_, err := svc.Ingest(context.Background(), false)
	require.NoError(t, err)

	result, err := svc.Retrieve(context.Background(), "policy maturity levels", "data-governance", 2)
	require.NoError(t, err)
	assert.Contains(t, result.Text, "--- Maturity model context ---")

	var maturityChunks int
	for _, chunk := range result.Chunks {
		if chunk.Topic == "maturity-models" {
			maturityChunks++
		}
	}
	assert.Equal(t, 1, maturityChunks)
}

func TestService_ConcurrentRetrieval(t *testing.T) {
	baseDir := writeKnowledgeBase(t, map[string]map[string]string{
		"data-governance": {"doc.md": "shared read-mostly index content"},
	})
	svc := newTestService(t, baseDir)
	_, err := svc.Ingest(context.Background(), false)
	require.NoError(t, err)

	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func(i int) {
			_, err := svc.Retrieve(context.Background(), "index content "+strconv.Itoa(i), "data-governance", 1)
			done <- err
		}(i)
	}
	for i := 0; i < 8; i++ {
		require.NoError(t, <-done)
	}
}
