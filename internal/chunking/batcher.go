package chunking

import "compass/internal/survey"

// Batch is one contiguous run of questions sized to fit a single model call.
type Batch struct {
	Index     int
	Questions []survey.Question
	Chars     int
}

// PartitionQuestions splits an ordered question list into contiguous batches
// whose rendered prompt text fits under maxChars. A question is never split
// across batches; one whose rendering alone exceeds the budget still goes
// out whole as its own batch rather than being truncated.
func PartitionQuestions(questions []survey.Question, maxChars int) []Batch {
	if len(questions) == 0 {
		return nil
	}
	if maxChars < 1 {
		maxChars = 1
	}

	var batches []Batch
	current := Batch{Index: 0}
	for _, q := range questions {
		size := len(q.PromptText())
		if len(current.Questions) > 0 && current.Chars+size > maxChars {
			batches = append(batches, current)
			current = Batch{Index: len(batches)}
		}
		current.Questions = append(current.Questions, q)
		current.Chars += size
	}
	batches = append(batches, current)
	return batches
}
