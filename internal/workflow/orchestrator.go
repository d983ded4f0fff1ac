package workflow

import (
	"context"
	"time"

	"github.com/google/uuid"

	"compass/internal/agent"
	"compass/internal/logging"
	"compass/internal/survey"
)

// Options control how the orchestrator runs the pipeline.
type Options struct {
	// EnableFormatting runs the formatter over the final report. It is off
	// by default; the typed report is the primary artifact.
	EnableFormatting bool

	// EnableRevision allows the critic to trigger report revisions. When
	// off, the first draft is final regardless of its critique score.
	EnableRevision bool
	// MaxRevisions bounds revision attempts beyond the initial draft
	// (default: 1).
	MaxRevisions int
	// QualityThreshold is the minimum critique mean for approval
	// (default: 8.0).
	QualityThreshold float64
}

// Orchestrator runs the fixed five-stage pipeline: parse, assess, generate,
// critique, format. Stages run sequentially; only generate and critique
// repeat, inside the bounded revision loop.
type Orchestrator struct {
	parser    *agent.SurveyParser
	assessor  *agent.MaturityAssessor
	generator *agent.ReportGenerator
	critic    *agent.SelfCritic
	formatter *agent.ReportFormatter

	options Options
	metrics *Metrics
	logger  logging.Logger
}

// NewOrchestrator wires the pipeline stages together. metrics may be nil.
func NewOrchestrator(
	parser *agent.SurveyParser,
	assessor *agent.MaturityAssessor,
	generator *agent.ReportGenerator,
	critic *agent.SelfCritic,
	formatter *agent.ReportFormatter,
	options Options,
	metrics *Metrics,
	logger logging.Logger,
) *Orchestrator {
	if options.MaxRevisions <= 0 {
		options.MaxRevisions = 1
	}
	if options.QualityThreshold <= 0 {
		options.QualityThreshold = 8.0
	}
	return &Orchestrator{
		parser:    parser,
		assessor:  assessor,
		generator: generator,
		critic:    critic,
		formatter: formatter,
		options:   options,
		metrics:   metrics,
		logger:    logging.OrNop(logger),
	}
}

// Run executes the pipeline for one dimension. The returned Result is never
// nil; on failure it retains every completed stage output and the error
// names the stage that failed.
func (o *Orchestrator) Run(ctx context.Context, dimension string, questions []survey.Question) (*Result, error) {
	start := time.Now()
	result := &Result{
		RunID:     uuid.NewString(),
		Dimension: dimension,
	}
	o.logger.Info("run %s: starting maturity pipeline for %q with %d questions",
		result.RunID, dimension, len(questions))

	err := o.run(ctx, result, questions)
	result.Elapsed = time.Since(start)
	if err != nil {
		result.Err = &AgentExecutionError{Stage: err.Stage, Err: err.Err}
		result.Error = result.Err.Error()
		o.metrics.countRun("failure")
		o.logger.Error("run %s: %v", result.RunID, result.Err)
		return result, result.Err
	}

	result.Success = true
	o.metrics.countRun("success")
	o.logger.Info("run %s: completed in %s, approved=%t after %d attempt(s)",
		result.RunID, result.Elapsed.Round(time.Millisecond), result.Approved, result.Attempts)
	return result, nil
}

func (o *Orchestrator) run(ctx context.Context, result *Result, questions []survey.Question) *AgentExecutionError {
	// Parse never fails: a digest always comes back, so later stages and
	// failed-run envelopes both have the aggregates.
	stageStart := time.Now()
	result.Digest = o.parser.Execute(ctx, result.Dimension, questions)
	result.record(o.parser.Name(), 1, stageStart)
	o.metrics.observeStage(o.parser.Name(), stageStart)

	if err := ctx.Err(); err != nil {
		return &AgentExecutionError{Stage: o.assessor.Name(), Err: err}
	}

	stageStart = time.Now()
	assessment, err := o.assessor.Execute(ctx, result.Digest)
	result.record(o.assessor.Name(), 1, stageStart)
	o.metrics.observeStage(o.assessor.Name(), stageStart)
	if err != nil {
		return &AgentExecutionError{Stage: o.assessor.Name(), Err: err}
	}
	result.Assessment = &assessment

	report, execErr := o.draftAndCritique(ctx, result, questions, assessment)
	if execErr != nil {
		return execErr
	}

	if o.options.EnableFormatting && o.formatter != nil {
		stageStart = time.Now()
		formatted := o.formatter.Execute(*report, result.Dimension)
		report = &formatted
		result.record(o.formatter.Name(), 1, stageStart)
		o.metrics.observeStage(o.formatter.Name(), stageStart)
	}

	result.FinalReport = report
	return nil
}

// draftAndCritique produces the report, re-drafting up to MaxRevisions
// times while the critique mean stays under the quality threshold. Running
// out of revisions is not an error; the last draft stands, unapproved.
func (o *Orchestrator) draftAndCritique(ctx context.Context, result *Result, questions []survey.Question, assessment agent.MaturityAssessment) (*agent.GeneratedReport, *AgentExecutionError) {
	maxAttempts := 1
	if o.options.EnableRevision {
		maxAttempts += o.options.MaxRevisions
	}

	var revision *agent.RevisionContext
	var report agent.GeneratedReport

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, &AgentExecutionError{Stage: o.generator.Name(), Err: err}
		}

		stageStart := time.Now()
		draft, err := o.generator.Execute(ctx, questions, result.Digest, assessment, revision)
		result.record(o.generator.Name(), attempt, stageStart)
		o.metrics.observeStage(o.generator.Name(), stageStart)
		if err != nil {
			return nil, &AgentExecutionError{Stage: o.generator.Name(), Err: err}
		}
		report = draft
		result.Attempts = attempt

		stageStart = time.Now()
		critique, err := o.critic.Execute(ctx, report)
		result.record(o.critic.Name(), attempt, stageStart)
		o.metrics.observeStage(o.critic.Name(), stageStart)
		if err != nil {
			return nil, &AgentExecutionError{Stage: o.critic.Name(), Err: err}
		}
		result.Critiques = append(result.Critiques, critique)
		result.Critique = &result.Critiques[len(result.Critiques)-1]

		if critique.Mean >= o.options.QualityThreshold {
			result.Approved = true
			return &report, nil
		}
		o.logger.Warn("run %s: draft %d scored %.2f, below threshold %.2f",
			result.RunID, attempt, critique.Mean, o.options.QualityThreshold)

		if attempt < maxAttempts {
			o.metrics.countRevision()
			revision = &agent.RevisionContext{
				Attempt:      attempt + 1,
				PriorSummary: report.ExecutiveSummary,
				Notes:        critique.RevisionNotes,
			}
		}
	}

	// Revisions exhausted: deliver the last draft unapproved.
	return &report, nil
}
