package agent

// SurveyDigest is the per-dimension aggregate computed once by the parse
// stage and consumed read-only by every later stage.
type SurveyDigest struct {
	Dimension     string             `json:"dimension"`
	QuestionCount int                `json:"question_count"`
	AverageScore  float64            `json:"average_score"`
	ResponseRate  float64            `json:"response_rate"`
	ByCategory    map[string]float64 `json:"by_category"`
	ByProcess     map[string]float64 `json:"by_process,omitempty"`
	ByLifecycle   map[string]float64 `json:"by_lifecycle,omitempty"`
	CommentThemes []string           `json:"comment_themes,omitempty"`
}

// Gap is one evidence-backed shortfall against a maturity framework.
type Gap struct {
	Description string `json:"description"`
	Evidence    string `json:"evidence,omitempty"`
}

// FrameworkScore is the assessment outcome for a single framework.
type FrameworkScore struct {
	Framework    string  `json:"framework"`
	Score        float64 `json:"score"` // bounded to [1,5]
	CurrentLevel string  `json:"current_level"`
	Gaps         []Gap   `json:"gaps,omitempty"`
}

// MaturityAssessment covers every applicable framework for one dimension.
// Composite is the arithmetic mean of the per-framework scores.
type MaturityAssessment struct {
	Dimension  string           `json:"dimension"`
	Frameworks []FrameworkScore `json:"frameworks"`
	Composite  float64          `json:"composite"`
}

// ReportSection is one named body section of the generated report.
type ReportSection struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// ActionItem is one prioritized recommendation.
type ActionItem struct {
	Priority        string `json:"priority"`
	Title           string `json:"title"`
	Owner           string `json:"owner,omitempty"`
	Timeline        string `json:"timeline,omitempty"`
	ExpectedOutcome string `json:"expected_outcome,omitempty"`
}

// RoadmapPhase is one phase of the improvement roadmap.
type RoadmapPhase struct {
	Phase      string   `json:"phase"`
	Timeframe  string   `json:"timeframe,omitempty"`
	Objectives []string `json:"objectives,omitempty"`
}

// ChartData carries the raw values the presentation layer renders as
// visuals.
type ChartData struct {
	CategoryScores  map[string]float64 `json:"category_scores,omitempty"`
	FrameworkScores map[string]float64 `json:"framework_scores,omitempty"`
}

// GeneratedReport is the report value produced by the generate stage.
// Revisions replace the whole value; a report is never mutated in place.
type GeneratedReport struct {
	ExecutiveSummary string          `json:"executive_summary"`
	Sections         []ReportSection `json:"sections"`
	ActionItems      []ActionItem    `json:"action_items"`
	Roadmap          []RoadmapPhase  `json:"roadmap"`
	Charts           ChartData       `json:"charts,omitempty"`

	// RenderedPath points at the formatted artifact when formatting ran;
	// FormatNote records why it did not.
	RenderedPath string `json:"rendered_path,omitempty"`
	FormatNote   string `json:"format_note,omitempty"`
}

// CritiqueScores holds the four quality sub-scores, each in [1,10], their
// mean, and the critic's revision notes.
type CritiqueScores struct {
	Clarity            float64 `json:"clarity"`
	Actionability      float64 `json:"actionability"`
	StandardsAlignment float64 `json:"standards_alignment"`
	Completeness       float64 `json:"completeness"`
	Mean               float64 `json:"mean"`
	RevisionNotes      string  `json:"revision_notes,omitempty"`
}

// clampScore bounds a model-reported score to [lo, hi].
func clampScore(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
