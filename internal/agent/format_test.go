package agent

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compass/internal/logging"
)

func TestReportFormatter_WritesHTML(t *testing.T) {
	dir := t.TempDir()
	formatter := NewReportFormatter(dir, logging.Nop())

	report := draftReport()
	report.Roadmap = []RoadmapPhase{{Phase: "Stabilize", Timeframe: "0-3 months", Objectives: []string{"name data owners"}}}
	report.Charts = ChartData{FrameworkScores: map[string]float64{"DAMA-DMBOK": 2.4}}

	out := formatter.Execute(report, "data-governance")
	require.NotEmpty(t, out.RenderedPath)
	assert.Empty(t, out.FormatNote)
	assert.True(t, strings.HasPrefix(filepath.Base(out.RenderedPath), "data-governance-maturity-report-"))

	html, err := os.ReadFile(out.RenderedPath)
	require.NoError(t, err)
	assert.Contains(t, string(html), "<h1>Maturity Report: data-governance</h1>")
	assert.Contains(t, string(html), "Stand up a stewardship council")
	assert.Contains(t, string(html), "<table>")
}

func TestReportFormatter_NoOutputDirDegrades(t *testing.T) {
	formatter := NewReportFormatter("", logging.Nop())

	out := formatter.Execute(draftReport(), "data-governance")
	assert.Empty(t, out.RenderedPath)
	assert.Contains(t, out.FormatNote, "no output directory")
}

func TestReportFormatter_WriteFailureDegrades(t *testing.T) {
	// A file where the output directory should be makes MkdirAll fail.
	dir := t.TempDir()
	blocked := filepath.Join(dir, "not-a-dir")
	require.NoError(t, os.WriteFile(blocked, []byte("x"), 0o644))
	formatter := NewReportFormatter(blocked, logging.Nop())

	out := formatter.Execute(draftReport(), "data-governance")
	assert.Empty(t, out.RenderedPath)
	assert.Contains(t, out.FormatNote, "formatting skipped")
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "data-governance", sanitizeFilename("Data Governance"))
	assert.Equal(t, "data-quality-v2", sanitizeFilename("Data/Quality_v2!"))
	assert.Equal(t, "report", sanitizeFilename("???"))
}
