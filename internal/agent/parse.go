package agent

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"compass/internal/llm"
	"compass/internal/logging"
	"compass/internal/survey"
)

// Agent name constants, used in execution logs and failure reporting.
const (
	SurveyParserName     = "SurveyParserAgent"
	MaturityAssessorName = "MaturityAssessorAgent"
	ReportGeneratorName  = "ReportGeneratorAgent"
	SelfCriticName       = "SelfCriticAgent"
	ReportFormatterName  = "ReportFormatterAgent"
)

// SurveyParser computes the SurveyDigest from raw question records. The
// aggregation itself is pure; the single optional model call extracts
// comment themes and falls back to a keyword-frequency heuristic, so this
// stage never fails the pipeline.
type SurveyParser struct {
	client llm.Client // optional; nil skips the theme call
	logger logging.Logger
}

// NewSurveyParser creates the parse stage. A nil client disables the model
// call for comment themes.
func NewSurveyParser(client llm.Client, logger logging.Logger) *SurveyParser {
	return &SurveyParser{client: client, logger: logging.OrNop(logger)}
}

// Name returns the agent name used in execution logs.
func (p *SurveyParser) Name() string { return SurveyParserName }

// Execute aggregates questions into a digest for dimension.
func (p *SurveyParser) Execute(ctx context.Context, dimension string, questions []survey.Question) SurveyDigest {
	digest := SurveyDigest{
		Dimension:     dimension,
		QuestionCount: len(questions),
		ByCategory:    map[string]float64{},
		ByProcess:     map[string]float64{},
		ByLifecycle:   map[string]float64{},
	}
	if len(questions) == 0 {
		return digest
	}

	var scoreSum float64
	var responseSum, responseMax int
	categoryScores := map[string][]float64{}
	processScores := map[string][]float64{}
	lifecycleScores := map[string][]float64{}
	var comments []string

	for _, q := range questions {
		scoreSum += q.AverageScore
		responseSum += q.ResponseCount
		if q.ResponseCount > responseMax {
			responseMax = q.ResponseCount
		}
		if q.Category != "" {
			categoryScores[q.Category] = append(categoryScores[q.Category], q.AverageScore)
		}
		if q.Process != "" {
			processScores[q.Process] = append(processScores[q.Process], q.AverageScore)
		}
		if q.LifecycleStage != "" {
			lifecycleScores[q.LifecycleStage] = append(lifecycleScores[q.LifecycleStage], q.AverageScore)
		}
		comments = append(comments, q.Comments...)
	}

	digest.AverageScore = scoreSum / float64(len(questions))
	// Response rate is relative to the most-answered question; a uniform
	// survey reads as 1.0.
	if responseMax > 0 {
		digest.ResponseRate = float64(responseSum) / float64(len(questions)) / float64(responseMax)
	}
	digest.ByCategory = meanByKey(categoryScores)
	digest.ByProcess = meanByKey(processScores)
	digest.ByLifecycle = meanByKey(lifecycleScores)
	digest.CommentThemes = p.extractThemes(ctx, comments)

	return digest
}

// extractThemes asks the model for comment themes and degrades to the
// keyword heuristic on any failure.
func (p *SurveyParser) extractThemes(ctx context.Context, comments []string) []string {
	if len(comments) == 0 {
		return nil
	}
	if p.client != nil {
		resp, err := p.client.Complete(ctx, llm.Request{
			Messages: []llm.Message{
				{Role: llm.RoleSystem, Content: themesSystemPrompt},
				{Role: llm.RoleUser, Content: themesPrompt(comments)},
			},
			MaxTokens: 512,
		})
		if err == nil {
			var themes []string
			if DecodeJSON(resp.Content, &themes) && len(themes) > 0 {
				return themes
			}
			p.logger.Warn("theme extraction returned no structured payload, using keyword fallback")
		} else {
			p.logger.Warn("theme extraction call failed, using keyword fallback: %v", err)
		}
	}
	return keywordThemes(comments, 6)
}

func meanByKey(scores map[string][]float64) map[string]float64 {
	out := make(map[string]float64, len(scores))
	for key, values := range scores {
		var sum float64
		for _, v := range values {
			sum += v
		}
		out[key] = sum / float64(len(values))
	}
	return out
}

// keywordThemes is the deterministic fallback: the most frequent non-stopword
// terms across all comments, ties broken alphabetically.
func keywordThemes(comments []string, limit int) []string {
	counts := map[string]int{}
	for _, comment := range comments {
		for _, word := range tokenize(comment) {
			if len(word) < 4 || stopwords[word] {
				continue
			}
			counts[word]++
		}
	}
	if len(counts) == 0 {
		return nil
	}

	words := make([]string, 0, len(counts))
	for word := range counts {
		words = append(words, word)
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})
	if len(words) > limit {
		words = words[:limit]
	}
	return words
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

var stopwords = map[string]bool{
	"about": true, "after": true, "also": true, "been": true, "because": true,
	"could": true, "does": true, "from": true, "have": true, "more": true,
	"much": true, "need": true, "needs": true, "often": true, "should": true,
	"some": true, "that": true, "them": true, "there": true, "they": true,
	"this": true, "very": true, "want": true, "well": true, "what": true,
	"when": true, "where": true, "which": true, "will": true, "with": true,
	"would": true, "your": true,
}
