package survey

import (
	"encoding/json"
	"fmt"
	"os"
)

// Survey is one dimension's question set as stored on disk.
type Survey struct {
	Dimension string     `json:"dimension"`
	Questions []Question `json:"questions"`
}

// LoadFile reads a survey export. The file is a JSON object with a dimension
// name and its question records.
func LoadFile(path string) (*Survey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read survey file: %w", err)
	}
	var s Survey
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse survey file %s: %w", path, err)
	}
	if s.Dimension == "" {
		return nil, fmt.Errorf("survey file %s has no dimension", path)
	}
	if len(s.Questions) == 0 {
		return nil, fmt.Errorf("survey file %s has no questions", path)
	}
	for i, q := range s.Questions {
		if q.ID == "" {
			return nil, fmt.Errorf("survey file %s: question %d has no id", path, i)
		}
	}
	return &s, nil
}
