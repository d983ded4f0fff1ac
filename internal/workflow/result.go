package workflow

import (
	"fmt"
	"time"

	"compass/internal/agent"
)

// AgentExecutionError identifies which pipeline stage failed and why.
type AgentExecutionError struct {
	Stage string
	Err   error
}

func (e *AgentExecutionError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *AgentExecutionError) Unwrap() error {
	return e.Err
}

// ExecutionEntry records one stage execution for the run log.
type ExecutionEntry struct {
	Stage    string        `json:"stage"`
	Attempt  int           `json:"attempt"`
	Duration time.Duration `json:"duration"`
}

// Result is the outcome envelope for one orchestrated run. On failure the
// stages that did complete keep their outputs, so callers can inspect how
// far the run got; FinalReport is non-nil exactly when Success is true.
type Result struct {
	RunID     string `json:"run_id"`
	Dimension string `json:"dimension"`

	Digest     agent.SurveyDigest        `json:"digest"`
	Assessment *agent.MaturityAssessment `json:"assessment,omitempty"`

	FinalReport *agent.GeneratedReport `json:"final_report,omitempty"`
	Critique    *agent.CritiqueScores  `json:"critique,omitempty"`

	// Critiques holds every critique in attempt order; Critique points at
	// the one for the delivered draft.
	Critiques []agent.CritiqueScores `json:"critiques,omitempty"`

	// Approved reports whether the final draft cleared the quality
	// threshold. An unapproved run that exhausted its revisions is still a
	// successful run.
	Approved bool `json:"approved"`
	// Attempts counts report drafts produced, revisions included.
	Attempts int `json:"attempts"`

	Success bool `json:"success"`
	// Error carries the failing stage and cause as text so the envelope
	// stays self-describing when serialized; Err keeps the typed form.
	Error string               `json:"error,omitempty"`
	Err   *AgentExecutionError `json:"-"`

	AgentsExecuted []string         `json:"agents_executed"`
	ExecutionLog   []ExecutionEntry `json:"execution_log"`
	Elapsed        time.Duration    `json:"elapsed"`
}

// record appends a stage execution to the run log.
func (r *Result) record(stage string, attempt int, start time.Time) {
	r.AgentsExecuted = append(r.AgentsExecuted, stage)
	r.ExecutionLog = append(r.ExecutionLog, ExecutionEntry{
		Stage:    stage,
		Attempt:  attempt,
		Duration: time.Since(start),
	})
}
