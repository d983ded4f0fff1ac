package agent

import (
	"fmt"
	"strings"

	"compass/internal/survey"
)

const (
	themesSystemPrompt = "You analyze survey free-text comments. Reply with a fenced json array of short theme strings."

	assessSystemPrompt = "You are a data management maturity assessor. Ground every score and gap " +
		"in the survey evidence and the reference context. Reply with a fenced json object."

	reportSystemPrompt = "You write executive maturity reports for data leadership. Be specific, " +
		"cite survey evidence, and reply with a fenced json object matching the requested schema."

	critiqueSystemPrompt = "You are a strict reviewer of maturity reports. Score each criterion " +
		"from 1 to 10 and reply with a fenced json object."
)

func themesPrompt(comments []string) string {
	var sb strings.Builder
	sb.WriteString("Extract at most 6 recurring themes from these survey comments:\n\n")
	for _, c := range comments {
		fmt.Fprintf(&sb, "- %s\n", c)
	}
	sb.WriteString("\nReply with a fenced json array of theme strings.")
	return sb.String()
}

func assessPrompt(fw Framework, digest SurveyDigest, knowledgeContext string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Assess the %q dimension against the %s framework (%s).\n\n",
		digest.Dimension, fw.Name, fw.Description)
	fmt.Fprintf(&sb, "Maturity levels, lowest to highest: %s.\n\n", strings.Join(fw.Levels, ", "))

	sb.WriteString("Survey digest:\n")
	fmt.Fprintf(&sb, "  Average score: %.2f across %d questions (response rate %.0f%%)\n",
		digest.AverageScore, digest.QuestionCount, digest.ResponseRate*100)
	for category, score := range digest.ByCategory {
		fmt.Fprintf(&sb, "  %s: %.2f\n", category, score)
	}
	if len(digest.CommentThemes) > 0 {
		fmt.Fprintf(&sb, "  Comment themes: %s\n", strings.Join(digest.CommentThemes, "; "))
	}

	if knowledgeContext != "" {
		sb.WriteString("\nReference context:\n")
		sb.WriteString(knowledgeContext)
		sb.WriteString("\n")
	}

	sb.WriteString("\nReply with a fenced json object: " +
		`{"score": <1-5>, "current_level": "<level name>", "gaps": [{"description": "...", "evidence": "..."}]}`)
	return sb.String()
}

func reportBatchPrompt(batch []survey.Question, digest SurveyDigest, assessment MaturityAssessment, revision *RevisionContext) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Draft maturity report content for the %q dimension.\n\n", digest.Dimension)
	fmt.Fprintf(&sb, "Composite maturity score: %.2f of 5.\n", assessment.Composite)
	for _, fw := range assessment.Frameworks {
		fmt.Fprintf(&sb, "  %s: %.2f (%s), %d gaps\n", fw.Framework, fw.Score, fw.CurrentLevel, len(fw.Gaps))
	}

	sb.WriteString("\nSurvey questions in this batch:\n")
	for _, q := range batch {
		sb.WriteString(q.PromptText())
	}

	if revision != nil {
		fmt.Fprintf(&sb, "\nThis is revision attempt %d. The previous draft scored below the quality bar.\n", revision.Attempt)
		sb.WriteString("Reviewer notes to address:\n")
		sb.WriteString(revision.Notes)
		sb.WriteString("\n\nPrevious executive summary for reference:\n")
		sb.WriteString(revision.PriorSummary)
		sb.WriteString("\n")
	}

	sb.WriteString("\nReply with a fenced json object: " + reportSchema)
	return sb.String()
}

func reportConsolidationPrompt(outputs []string) string {
	var sb strings.Builder
	sb.WriteString("Merge these partial report drafts into one coherent report. " +
		"Deduplicate overlapping sections, keep every distinct action item, and " +
		"write a single executive summary.\n\n")
	for i, out := range outputs {
		fmt.Fprintf(&sb, "--- Partial draft %d ---\n%s\n\n", i+1, out)
	}
	sb.WriteString("Reply with a fenced json object: " + reportSchema)
	return sb.String()
}

const reportSchema = `{"executive_summary": "...", ` +
	`"sections": [{"id": "...", "title": "...", "body": "..."}], ` +
	`"action_items": [{"priority": "high|medium|low", "title": "...", "owner": "...", "timeline": "...", "expected_outcome": "..."}], ` +
	`"roadmap": [{"phase": "...", "timeframe": "...", "objectives": ["..."]}]}`

func critiquePrompt(report GeneratedReport) string {
	var sb strings.Builder
	sb.WriteString("Review this maturity report draft.\n\n")
	sb.WriteString("Executive summary:\n")
	sb.WriteString(report.ExecutiveSummary)
	sb.WriteString("\n\nSections:\n")
	for _, s := range report.Sections {
		fmt.Fprintf(&sb, "## %s\n%s\n", s.Title, s.Body)
	}
	fmt.Fprintf(&sb, "\nAction items: %d, roadmap phases: %d.\n", len(report.ActionItems), len(report.Roadmap))
	sb.WriteString("\nScore clarity, actionability, standards_alignment and completeness from 1 to 10, " +
		"and give concrete revision notes if anything scores below 8.\n")
	sb.WriteString("Reply with a fenced json object: " +
		`{"clarity": <1-10>, "actionability": <1-10>, "standards_alignment": <1-10>, "completeness": <1-10>, "revision_notes": "..."}`)
	return sb.String()
}
