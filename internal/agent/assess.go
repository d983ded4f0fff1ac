package agent

import (
	"context"
	"fmt"

	"compass/internal/knowledge"
	"compass/internal/llm"
	"compass/internal/logging"
)

// Retriever is the knowledge lookup contract the assessor depends on.
// *knowledge.Service satisfies it.
type Retriever interface {
	Retrieve(ctx context.Context, query, topic string, topK int) (knowledge.Context, error)
}

// MaturityAssessor scores a dimension against every applicable framework,
// one retrieval query plus one model call per framework, and computes the
// composite as the arithmetic mean.
type MaturityAssessor struct {
	client     llm.Client
	retriever  Retriever
	frameworks []Framework
	topK       int
	logger     logging.Logger
}

// NewMaturityAssessor creates the assess stage.
func NewMaturityAssessor(client llm.Client, retriever Retriever, frameworks []Framework, topK int, logger logging.Logger) *MaturityAssessor {
	if len(frameworks) == 0 {
		frameworks = DefaultFrameworks()
	}
	return &MaturityAssessor{
		client:     client,
		retriever:  retriever,
		frameworks: frameworks,
		topK:       topK,
		logger:     logging.OrNop(logger),
	}
}

// Name returns the agent name used in execution logs.
func (a *MaturityAssessor) Name() string { return MaturityAssessorName }

// Execute assesses digest's dimension. Model failures are fatal to the run;
// retrieval unavailability is not, the assessment just proceeds without
// grounding context.
func (a *MaturityAssessor) Execute(ctx context.Context, digest SurveyDigest) (MaturityAssessment, error) {
	applicable := ApplicableFrameworks(a.frameworks, digest.Dimension)
	if len(applicable) == 0 {
		return MaturityAssessment{}, fmt.Errorf("no applicable frameworks for dimension %q", digest.Dimension)
	}

	assessment := MaturityAssessment{Dimension: digest.Dimension}
	var scoreSum float64

	for _, fw := range applicable {
		fwScore, err := a.assessFramework(ctx, fw, digest)
		if err != nil {
			return MaturityAssessment{}, fmt.Errorf("framework %s: %w", fw.Name, err)
		}
		assessment.Frameworks = append(assessment.Frameworks, fwScore)
		scoreSum += fwScore.Score
	}

	assessment.Composite = scoreSum / float64(len(assessment.Frameworks))
	return assessment, nil
}

func (a *MaturityAssessor) assessFramework(ctx context.Context, fw Framework, digest SurveyDigest) (FrameworkScore, error) {
	var knowledgeContext string
	if a.retriever != nil {
		query := fmt.Sprintf("%s maturity criteria and practices for %s", fw.Name, digest.Dimension)
		result, err := a.retriever.Retrieve(ctx, query, digest.Dimension, a.topK)
		if err != nil {
			return FrameworkScore{}, fmt.Errorf("retrieve context: %w", err)
		}
		if result.Unavailable {
			a.logger.Warn("knowledge base unavailable, assessing %s without reference context", fw.Name)
		}
		knowledgeContext = result.Text
	}

	resp, err := a.client.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: assessSystemPrompt},
			{Role: llm.RoleUser, Content: assessPrompt(fw, digest, knowledgeContext)},
		},
		MaxTokens: 1024,
	})
	if err != nil {
		return FrameworkScore{}, err
	}

	var payload struct {
		Score        float64 `json:"score"`
		CurrentLevel string  `json:"current_level"`
		Gaps         []Gap   `json:"gaps"`
	}
	if !DecodeJSON(resp.Content, &payload) {
		return FrameworkScore{}, fmt.Errorf("no structured assessment payload in model output")
	}

	return FrameworkScore{
		Framework:    fw.Name,
		Score:        clampScore(payload.Score, 1, 5),
		CurrentLevel: payload.CurrentLevel,
		Gaps:         payload.Gaps,
	}, nil
}
