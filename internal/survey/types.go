// Package survey defines the read-only input records handed to the report
// pipeline by the data layer. The pipeline never writes these back.
package survey

import (
	"fmt"
	"strings"
)

// Question is one aggregated survey question record.
type Question struct {
	ID             string   `json:"id"`
	Text           string   `json:"text"`
	Category       string   `json:"category"`
	Process        string   `json:"process,omitempty"`
	LifecycleStage string   `json:"lifecycle_stage,omitempty"`
	AverageScore   float64  `json:"average_score"`
	ResponseCount  int      `json:"response_count"`
	Comments       []string `json:"comments,omitempty"`
}

// PromptText renders the question the way model prompts consume it. Batch
// sizing measures this same rendering, so the character budget seen by the
// partitioner matches what is actually sent.
func (q Question) PromptText() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Question %s (%s): %s\n", q.ID, q.Category, q.Text)
	fmt.Fprintf(&sb, "  Average score: %.1f from %d responses\n", q.AverageScore, q.ResponseCount)
	if q.Process != "" {
		fmt.Fprintf(&sb, "  Process: %s\n", q.Process)
	}
	if q.LifecycleStage != "" {
		fmt.Fprintf(&sb, "  Lifecycle stage: %s\n", q.LifecycleStage)
	}
	for _, comment := range q.Comments {
		fmt.Fprintf(&sb, "  Comment: %s\n", comment)
	}
	return sb.String()
}
