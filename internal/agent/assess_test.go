package agent

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compass/internal/knowledge"
	"compass/internal/llm"
	"compass/internal/logging"
)

// fakeRetriever returns a canned context and records queries.
type fakeRetriever struct {
	context knowledge.Context
	err     error
	queries []string
	topics  []string
}

func (f *fakeRetriever) Retrieve(_ context.Context, query, topic string, _ int) (knowledge.Context, error) {
	f.queries = append(f.queries, query)
	f.topics = append(f.topics, topic)
	if f.err != nil {
		return knowledge.Context{}, f.err
	}
	return f.context, nil
}

func assessmentReply(score float64) string {
	return fmt.Sprintf("```json\n{\"score\": %.1f, \"current_level\": \"Defined\", \"gaps\": [{\"description\": \"no stewardship council\", \"evidence\": \"average 2.0 on stewardship\"}]}\n```", score)
}

func testDigest() SurveyDigest {
	return SurveyDigest{
		Dimension:     "data-governance",
		QuestionCount: 3,
		AverageScore:  3.0,
		ResponseRate:  0.9,
		ByCategory:    map[string]float64{"stewardship": 3.0},
	}
}

func fourFrameworks(n int) []Framework {
	frameworks := make([]Framework, n)
	for i := range frameworks {
		frameworks[i] = Framework{
			Name:   fmt.Sprintf("FW-%d", i+1),
			Levels: []string{"Initial", "Managed", "Defined", "Measured", "Optimizing"},
		}
	}
	return frameworks
}

func TestMaturityAssessor_CompositeIsMean(t *testing.T) {
	for n := 1; n <= 4; n++ {
		scores := []string{
			assessmentReply(2.0), assessmentReply(3.0), assessmentReply(4.0), assessmentReply(5.0),
		}[:n]
		mock := &llm.MockClient{Responses: scores}
		retriever := &fakeRetriever{context: knowledge.Context{Text: "reference"}}
		assessor := NewMaturityAssessor(mock, retriever, fourFrameworks(n), 3, logging.Nop())

		assessment, err := assessor.Execute(context.Background(), testDigest())
		require.NoError(t, err)
		require.Len(t, assessment.Frameworks, n)

		var sum float64
		for _, fw := range assessment.Frameworks {
			assert.GreaterOrEqual(t, fw.Score, 1.0)
			assert.LessOrEqual(t, fw.Score, 5.0)
			sum += fw.Score
		}
		assert.InDelta(t, sum/float64(n), assessment.Composite, 1e-9)
		assert.GreaterOrEqual(t, assessment.Composite, 1.0)
		assert.LessOrEqual(t, assessment.Composite, 5.0)
	}
}

func TestMaturityAssessor_ClampsOutOfRangeScores(t *testing.T) {
	mock := &llm.MockClient{Responses: []string{assessmentReply(9.0), assessmentReply(0.2)}}
	assessor := NewMaturityAssessor(mock, nil, fourFrameworks(2), 3, logging.Nop())

	assessment, err := assessor.Execute(context.Background(), testDigest())
	require.NoError(t, err)
	assert.Equal(t, 5.0, assessment.Frameworks[0].Score)
	assert.Equal(t, 1.0, assessment.Frameworks[1].Score)
	assert.InDelta(t, 3.0, assessment.Composite, 1e-9)
}

func TestMaturityAssessor_QueriesDimensionTopic(t *testing.T) {
	mock := &llm.MockClient{Responses: []string{assessmentReply(3.0)}}
	retriever := &fakeRetriever{context: knowledge.Context{Text: "ctx"}}
	assessor := NewMaturityAssessor(mock, retriever, fourFrameworks(1), 3, logging.Nop())

	_, err := assessor.Execute(context.Background(), testDigest())
	require.NoError(t, err)
	require.Len(t, retriever.topics, 1)
	// Topic must match the dimension name exactly.
	assert.Equal(t, "data-governance", retriever.topics[0])
}

func TestMaturityAssessor_UnavailableKnowledgeIsNotFatal(t *testing.T) {
	mock := &llm.MockClient{Responses: []string{assessmentReply(3.0)}}
	retriever := &fakeRetriever{context: knowledge.Context{Unavailable: true}}
	assessor := NewMaturityAssessor(mock, retriever, fourFrameworks(1), 3, logging.Nop())

	assessment, err := assessor.Execute(context.Background(), testDigest())
	require.NoError(t, err)
	assert.Len(t, assessment.Frameworks, 1)
}

func TestMaturityAssessor_ModelFailureIsFatal(t *testing.T) {
	providerErr := llm.NewProviderError(llm.ErrTimeout, "mock", errors.New("deadline"))
	mock := &llm.MockClient{Errors: []error{providerErr}}
	assessor := NewMaturityAssessor(mock, nil, fourFrameworks(2), 3, logging.Nop())

	_, err := assessor.Execute(context.Background(), testDigest())
	require.Error(t, err)
	assert.Equal(t, llm.ErrTimeout, llm.KindOf(err))
}

func TestMaturityAssessor_UnparseableReplyIsFatal(t *testing.T) {
	mock := &llm.MockClient{Responses: []string{"I refuse to answer in json."}}
	assessor := NewMaturityAssessor(mock, nil, fourFrameworks(1), 3, logging.Nop())

	_, err := assessor.Execute(context.Background(), testDigest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no structured assessment payload")
}

func TestApplicableFrameworks(t *testing.T) {
	frameworks := DefaultFrameworks()

	governance := ApplicableFrameworks(frameworks, "data-governance")
	assert.Len(t, governance, 3)

	quality := ApplicableFrameworks(frameworks, "data-quality")
	assert.Len(t, quality, 4)

	// Case-sensitive matching: a differently-cased dimension does not pick
	// up the scoped framework.
	cased := ApplicableFrameworks(frameworks, "Data-Quality")
	assert.Len(t, cased, 3)
}
