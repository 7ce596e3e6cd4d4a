package backtest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ReportConfig records how a backtest was run
type ReportConfig struct {
	Corpus     string  `yaml:"corpus"`
	SampleSize int     `yaml:"samplesize"`
	Tolerance  float64 `yaml:"tolerance"`
	Timestamp  string  `yaml:"timestamp"`
}

// ReportEntry is one movie of the YAML report
type ReportEntry struct {
	MovieID   int64   `yaml:"movieid"`
	Title     string  `yaml:"title"`
	Actual    float64 `yaml:"actual"`
	Predicted float64 `yaml:"predicted"`
	AbsError  float64 `yaml:"abserror"`
	Status    string  `yaml:"status"`
}

// Report is the complete YAML backtest report
type Report struct {
	Config  ReportConfig  `yaml:"config"`
	Summary *Summary      `yaml:"summary"`
	Results []ReportEntry `yaml:"results"`
}

// SaveToYAML writes the summary and its scored results to path
func (s *Summary) SaveToYAML(path, corpusName string, sampleSize int) error {
	report := Report{
		Config: ReportConfig{
			Corpus:     corpusName,
			SampleSize: sampleSize,
			Tolerance:  Tolerance,
			Timestamp:  s.EvaluationDate.Format("2006-01-02_15-04-05"),
		},
		Summary: s,
		Results: make([]ReportEntry, 0, len(s.Results)),
	}

	for _, r := range s.Results {
		if r.Error != "" {
			continue
		}
		report.Results = append(report.Results, ReportEntry{
			MovieID:   r.MovieID,
			Title:     r.Title,
			Actual:    r.Actual,
			Predicted: r.Predicted,
			AbsError:  r.AbsError(),
			Status:    r.Status,
		})
	}

	data, err := yaml.Marshal(&report)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write YAML file: %w", err)
	}

	return nil
}
