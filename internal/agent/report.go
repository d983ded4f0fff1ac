package agent

import (
	"context"
	"fmt"

	"compass/internal/chunking"
	"compass/internal/logging"
	"compass/internal/survey"
)

// RevisionContext carries the prior report and the critic's notes into a
// revision re-entry so the new draft measurably addresses the feedback.
type RevisionContext struct {
	Attempt      int
	PriorSummary string
	Notes        string
}

// GeneratorConfig holds report generation settings.
type GeneratorConfig struct {
	TokenBudget  int     // provider usable context, tokens (default: 8192)
	SafetyMargin float64 // fraction reserved for instructions (default: 0.25)
	MaxTokens    int     // response cap per call (default: 4096)
	Thinking     bool    // request extended reasoning where supported
}

// ReportGenerator produces the report through the chunking engine, so any
// question volume fits the provider's context window.
type ReportGenerator struct {
	engine *chunking.Engine
	config GeneratorConfig
	logger logging.Logger
}

// NewReportGenerator creates the generate stage.
func NewReportGenerator(engine *chunking.Engine, config GeneratorConfig, logger logging.Logger) *ReportGenerator {
	if config.TokenBudget <= 0 {
		config.TokenBudget = 8192
	}
	if config.SafetyMargin <= 0 {
		config.SafetyMargin = 0.25
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = 4096
	}
	return &ReportGenerator{engine: engine, config: config, logger: logging.OrNop(logger)}
}

// Name returns the agent name used in execution logs.
func (g *ReportGenerator) Name() string { return ReportGeneratorName }

// Execute generates a report draft. revision is nil on the first attempt.
// Each call returns a fresh report value; drafts are never mutated in place.
func (g *ReportGenerator) Execute(ctx context.Context, questions []survey.Question, digest SurveyDigest, assessment MaturityAssessment, revision *RevisionContext) (GeneratedReport, error) {
	job := chunking.Job{
		System: reportSystemPrompt,
		RenderBatch: func(batch []survey.Question) string {
			return reportBatchPrompt(batch, digest, assessment, revision)
		},
		RenderConsolidation: reportConsolidationPrompt,
		TokenBudget:         g.config.TokenBudget,
		SafetyMargin:        g.config.SafetyMargin,
		MaxTokens:           g.config.MaxTokens,
		Thinking:            g.config.Thinking,
	}

	output, batches, err := g.engine.Run(ctx, questions, job)
	if err != nil {
		return GeneratedReport{}, err
	}
	g.logger.Debug("report generated from %d batches", len(batches))

	var report GeneratedReport
	if !DecodeJSON(output, &report) {
		return GeneratedReport{}, fmt.Errorf("no structured report payload in model output")
	}
	if report.ExecutiveSummary == "" {
		return GeneratedReport{}, fmt.Errorf("report payload missing executive summary")
	}

	// Chart data is computed locally from the typed inputs, not trusted to
	// the model.
	report.Charts = ChartData{
		CategoryScores:  digest.ByCategory,
		FrameworkScores: map[string]float64{},
	}
	for _, fw := range assessment.Frameworks {
		report.Charts.FrameworkScores[fw.Framework] = fw.Score
	}

	return report, nil
}
