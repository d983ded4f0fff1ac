package agent

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"compass/internal/logging"
)

// ReportFormatter renders an approved report into a distributable HTML
// document. The stage is feature-flagged and best-effort: any rendering or
// filesystem problem degrades to a note on the report, never a failure.
type ReportFormatter struct {
	outputDir string
	markdown  goldmark.Markdown
	logger    logging.Logger
}

// NewReportFormatter creates the format stage writing into outputDir.
func NewReportFormatter(outputDir string, logger logging.Logger) *ReportFormatter {
	return &ReportFormatter{
		outputDir: outputDir,
		markdown:  goldmark.New(goldmark.WithExtensions(extension.GFM, extension.Table)),
		logger:    logging.OrNop(logger),
	}
}

// Name returns the agent name used in execution logs.
func (f *ReportFormatter) Name() string { return ReportFormatterName }

// Execute renders report and returns a new report value with the artifact
// path, or with a format note when rendering could not happen.
func (f *ReportFormatter) Execute(report GeneratedReport, dimension string) GeneratedReport {
	if f.outputDir == "" {
		report.FormatNote = "formatting skipped: no output directory configured"
		return report
	}

	var html bytes.Buffer
	if err := f.markdown.Convert([]byte(f.buildMarkdown(report, dimension)), &html); err != nil {
		f.logger.Warn("markdown rendering failed, returning report unrendered: %v", err)
		report.FormatNote = fmt.Sprintf("formatting skipped: %v", err)
		return report
	}

	if err := os.MkdirAll(f.outputDir, 0o755); err != nil {
		f.logger.Warn("cannot create output directory, returning report unrendered: %v", err)
		report.FormatNote = fmt.Sprintf("formatting skipped: %v", err)
		return report
	}

	name := fmt.Sprintf("%s-maturity-report-%s.html",
		sanitizeFilename(dimension), time.Now().Format("20060102-150405"))
	path := filepath.Join(f.outputDir, name)
	if err := os.WriteFile(path, html.Bytes(), 0o644); err != nil {
		f.logger.Warn("cannot write rendered report, returning report unrendered: %v", err)
		report.FormatNote = fmt.Sprintf("formatting skipped: %v", err)
		return report
	}

	report.RenderedPath = path
	return report
}

// buildMarkdown lays the typed report out as one markdown document.
func (f *ReportFormatter) buildMarkdown(report GeneratedReport, dimension string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Maturity Report: %s\n\n", dimension)
	sb.WriteString("## Executive Summary\n\n")
	sb.WriteString(report.ExecutiveSummary)
	sb.WriteString("\n\n")

	for _, section := range report.Sections {
		fmt.Fprintf(&sb, "## %s\n\n%s\n\n", section.Title, section.Body)
	}

	if len(report.ActionItems) > 0 {
		sb.WriteString("## Action Items\n\n")
		sb.WriteString("| Priority | Action | Owner | Timeline | Expected Outcome |\n")
		sb.WriteString("| --- | --- | --- | --- | --- |\n")
		for _, item := range report.ActionItems {
			fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s |\n",
				item.Priority, item.Title, item.Owner, item.Timeline, item.ExpectedOutcome)
		}
		sb.WriteString("\n")
	}

	if len(report.Roadmap) > 0 {
		sb.WriteString("## Roadmap\n\n")
		for _, phase := range report.Roadmap {
			fmt.Fprintf(&sb, "### %s (%s)\n\n", phase.Phase, phase.Timeframe)
			for _, obj := range phase.Objectives {
				fmt.Fprintf(&sb, "- %s\n", obj)
			}
			sb.WriteString("\n")
		}
	}

	if len(report.Charts.FrameworkScores) > 0 {
		sb.WriteString("## Framework Scores\n\n")
		sb.WriteString("| Framework | Score |\n| --- | --- |\n")
		for fw, score := range report.Charts.FrameworkScores {
			fmt.Fprintf(&sb, "| %s | %.2f |\n", fw, score)
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func sanitizeFilename(name string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		case r == ' ', r == '_', r == '/':
			return '-'
		default:
			return -1
		}
	}, name)
	if mapped == "" {
		return "report"
	}
	return mapped
}
