package agent

import (
	"context"
	"fmt"

	"compass/internal/llm"
	"compass/internal/logging"
)

// SelfCritic scores a report draft on four quality criteria and supplies
// revision notes when the draft falls short.
type SelfCritic struct {
	client llm.Client
	logger logging.Logger
}

// NewSelfCritic creates the critique stage.
func NewSelfCritic(client llm.Client, logger logging.Logger) *SelfCritic {
	return &SelfCritic{client: client, logger: logging.OrNop(logger)}
}

// Name returns the agent name used in execution logs.
func (c *SelfCritic) Name() string { return SelfCriticName }

// Execute critiques report. Each sub-score is clamped to [1,10] and the
// mean is computed here, never taken from the model.
func (c *SelfCritic) Execute(ctx context.Context, report GeneratedReport) (CritiqueScores, error) {
	resp, err := c.client.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: critiqueSystemPrompt},
			{Role: llm.RoleUser, Content: critiquePrompt(report)},
		},
		MaxTokens: 768,
	})
	if err != nil {
		return CritiqueScores{}, err
	}

	var payload struct {
		Clarity            float64 `json:"clarity"`
		Actionability      float64 `json:"actionability"`
		StandardsAlignment float64 `json:"standards_alignment"`
		Completeness       float64 `json:"completeness"`
		RevisionNotes      string  `json:"revision_notes"`
	}
	if !DecodeJSON(resp.Content, &payload) {
		return CritiqueScores{}, fmt.Errorf("no structured critique payload in model output")
	}

	scores := CritiqueScores{
		Clarity:            clampScore(payload.Clarity, 1, 10),
		Actionability:      clampScore(payload.Actionability, 1, 10),
		StandardsAlignment: clampScore(payload.StandardsAlignment, 1, 10),
		Completeness:       clampScore(payload.Completeness, 1, 10),
		RevisionNotes:      payload.RevisionNotes,
	}
	scores.Mean = (scores.Clarity + scores.Actionability + scores.StandardsAlignment + scores.Completeness) / 4
	return scores, nil
}
