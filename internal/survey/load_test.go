package survey

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSurvey(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "survey.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeSurvey(t, `{
		"dimension": "data-governance",
		"questions": [
			{"id": "q1", "text": "Is ownership assigned?", "category": "stewardship", "average_score": 2.5, "response_count": 10}
		]
	}`)

	s, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Dimension != "data-governance" {
		t.Errorf("dimension = %q", s.Dimension)
	}
	if len(s.Questions) != 1 || s.Questions[0].ID != "q1" {
		t.Errorf("questions = %+v", s.Questions)
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no dimension", `{"questions": [{"id": "q1"}]}`},
		{"no questions", `{"dimension": "data-governance", "questions": []}`},
		{"question without id", `{"dimension": "data-governance", "questions": [{"text": "x"}]}`},
		{"not json", `dimension: data-governance`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadFile(writeSurvey(t, tt.content)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestPromptText(t *testing.T) {
	q := Question{
		ID: "q1", Text: "Is ownership assigned?", Category: "stewardship",
		Process: "define", LifecycleStage: "plan",
		AverageScore: 2.5, ResponseCount: 10,
		Comments: []string{"nobody owns the catalog"},
	}
	text := q.PromptText()
	for _, want := range []string{"q1", "stewardship", "2.5", "define", "plan", "nobody owns the catalog"} {
		if !strings.Contains(text, want) {
			t.Errorf("prompt text missing %q:\n%s", want, text)
		}
	}
}
