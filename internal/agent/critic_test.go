package agent

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compass/internal/llm"
	"compass/internal/logging"
)

func critiqueReply(clarity, actionability, alignment, completeness float64, notes string) string {
	return fmt.Sprintf("```json\n{\"clarity\": %.1f, \"actionability\": %.1f, \"standards_alignment\": %.1f, \"completeness\": %.1f, \"revision_notes\": %q}\n```",
		clarity, actionability, alignment, completeness, notes)
}

func draftReport() GeneratedReport {
	return GeneratedReport{
		ExecutiveSummary: "Governance maturity sits at Defined with weak stewardship.",
		Sections: []ReportSection{
			{ID: "findings", Title: "Key Findings", Body: "Stewardship scores lag every other category."},
		},
		ActionItems: []ActionItem{{Priority: "high", Title: "Stand up a stewardship council"}},
	}
}

func TestSelfCritic_MeanOfFourScores(t *testing.T) {
	mock := &llm.MockClient{Responses: []string{critiqueReply(8, 7, 9, 6, "tighten the roadmap")}}
	critic := NewSelfCritic(mock, logging.Nop())

	scores, err := critic.Execute(context.Background(), draftReport())
	require.NoError(t, err)
	assert.InDelta(t, 7.5, scores.Mean, 1e-9)
	assert.Equal(t, "tighten the roadmap", scores.RevisionNotes)
}

func TestSelfCritic_ClampsSubScores(t *testing.T) {
	mock := &llm.MockClient{Responses: []string{critiqueReply(14, 0, 5, 5, "")}}
	critic := NewSelfCritic(mock, logging.Nop())

	scores, err := critic.Execute(context.Background(), draftReport())
	require.NoError(t, err)
	assert.Equal(t, 10.0, scores.Clarity)
	assert.Equal(t, 1.0, scores.Actionability)
	assert.InDelta(t, (10.0+1+5+5)/4, scores.Mean, 1e-9)
	assert.GreaterOrEqual(t, scores.Mean, 1.0)
	assert.LessOrEqual(t, scores.Mean, 10.0)
}

func TestSelfCritic_UnstructuredReplyFails(t *testing.T) {
	mock := &llm.MockClient{Responses: []string{"Looks fine to me."}}
	critic := NewSelfCritic(mock, logging.Nop())

	_, err := critic.Execute(context.Background(), draftReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no structured critique payload")
}
