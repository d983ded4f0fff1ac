package agent

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Framework describes one maturity framework a dimension is assessed
// against. An empty Dimensions list means the framework applies to every
// dimension.
type Framework struct {
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	Levels      []string `yaml:"levels" json:"levels"`
	Dimensions  []string `yaml:"dimensions,omitempty" json:"dimensions,omitempty"`
}

// DefaultFrameworks returns the built-in framework set used when no
// frameworks file is configured.
func DefaultFrameworks() []Framework {
	levels := []string{"Initial", "Managed", "Defined", "Quantitatively Managed", "Optimizing"}
	return []Framework{
		{
			Name:        "DAMA-DMBOK",
			Description: "DAMA Data Management Body of Knowledge functional maturity",
			Levels:      levels,
		},
		{
			Name:        "CMMI-DMM",
			Description: "CMMI Data Management Maturity model",
			Levels:      levels,
		},
		{
			Name:        "DCAM",
			Description: "EDM Council Data Management Capability Assessment Model",
			Levels:      levels,
		},
		{
			Name:        "ISO-8000",
			Description: "ISO 8000 data quality management maturity",
			Levels:      levels,
			Dimensions:  []string{"data-quality"},
		},
	}
}

// LoadFrameworks reads a framework definition file. An empty path returns
// the built-in defaults.
func LoadFrameworks(path string) ([]Framework, error) {
	if path == "" {
		return DefaultFrameworks(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read frameworks file: %w", err)
	}
	var doc struct {
		Frameworks []Framework `yaml:"frameworks"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse frameworks file: %w", err)
	}
	if len(doc.Frameworks) == 0 {
		return nil, fmt.Errorf("frameworks file %s defines no frameworks", path)
	}
	return doc.Frameworks, nil
}

// ApplicableFrameworks filters frameworks down to those covering dimension.
func ApplicableFrameworks(frameworks []Framework, dimension string) []Framework {
	var out []Framework
	for _, fw := range frameworks {
		if len(fw.Dimensions) == 0 {
			out = append(out, fw)
			continue
		}
		for _, d := range fw.Dimensions {
			if d == dimension {
				out = append(out, fw)
				break
			}
		}
	}
	return out
}
