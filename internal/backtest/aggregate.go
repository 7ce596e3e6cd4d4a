package backtest

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/moviefestival/forecaster/internal/predict"
)

// Tolerance is the absolute error under which a forecast counts as close
const Tolerance = 0.5

// Summary aggregates backtest results
type Summary struct {
	TotalMovies   int `json:"total_movies" yaml:"total_movies"`
	ScoredCount   int `json:"scored" yaml:"scored"`
	NoSignalCount int `json:"no_signal" yaml:"no_signal"`
	FailureCount  int `json:"failed" yaml:"failed"`

	MeanAbsoluteError float64 `json:"mae" yaml:"mae"`
	RootMeanSquared   float64 `json:"rmse" yaml:"rmse"`
	MeanBias          float64 `json:"mean_bias" yaml:"mean_bias"`
	WithinTolerance   float64 `json:"within_tolerance" yaml:"within_tolerance"`

	AverageDuration time.Duration `json:"average_duration" yaml:"average_duration"`
	TotalDuration   time.Duration `json:"total_duration" yaml:"total_duration"`

	EvaluationDate time.Time `json:"evaluation_date" yaml:"evaluation_date"`
	Results        []Result  `json:"results" yaml:"-"`
}

// Aggregate computes error statistics over the scored results; no-signal and
// failed movies are counted but excluded from the error metrics
func Aggregate(results []Result) *Summary {
	s := &Summary{
		TotalMovies:    len(results),
		EvaluationDate: time.Now(),
		Results:        results,
	}

	var absSum, sqSum, biasSum float64
	var within int
	for _, r := range results {
		s.TotalDuration += r.Duration

		switch r.Status {
		case predict.StatusScored.String():
			s.ScoredCount++
		case predict.StatusNoSignal.String():
			s.NoSignalCount++
			continue
		default:
			s.FailureCount++
			continue
		}

		d := r.Predicted - r.Actual
		absSum += math.Abs(d)
		sqSum += d * d
		biasSum += d
		if math.Abs(d) <= Tolerance {
			within++
		}
	}

	if s.ScoredCount > 0 {
		n := float64(s.ScoredCount)
		s.MeanAbsoluteError = absSum / n
		s.RootMeanSquared = math.Sqrt(sqSum / n)
		s.MeanBias = biasSum / n
		s.WithinTolerance = float64(within) / n
	}
	if s.TotalMovies > 0 {
		s.AverageDuration = s.TotalDuration / time.Duration(s.TotalMovies)
	}

	return s
}

// PrintSummary writes a human-readable summary of the backtest
func (s *Summary) PrintSummary(w io.Writer) {
	fmt.Fprintln(w, "\n"+strings.Repeat("=", 60))
	fmt.Fprintln(w, "FORECAST BACKTEST SUMMARY")
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintf(w, "Evaluation Date:  %s\n", s.EvaluationDate.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Movies:           %d\n", s.TotalMovies)
	fmt.Fprintf(w, "Scored:           %d (%.1f%%)\n", s.ScoredCount, percent(s.ScoredCount, s.TotalMovies))
	fmt.Fprintf(w, "No Signal:        %d (%.1f%%)\n", s.NoSignalCount, percent(s.NoSignalCount, s.TotalMovies))
	fmt.Fprintf(w, "Failed:           %d (%.1f%%)\n", s.FailureCount, percent(s.FailureCount, s.TotalMovies))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "MAE:              %.4f\n", s.MeanAbsoluteError)
	fmt.Fprintf(w, "RMSE:             %.4f\n", s.RootMeanSquared)
	fmt.Fprintf(w, "Mean Bias:        %+.4f\n", s.MeanBias)
	fmt.Fprintf(w, "Within ±%.1f:      %.1f%%\n", Tolerance, s.WithinTolerance*100)
	fmt.Fprintf(w, "Average Duration: %s\n", s.AverageDuration)
	fmt.Fprintln(w, strings.Repeat("=", 60))
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// SaveToJSON saves the summary with every result to a JSON file
func (s *Summary) SaveToJSON(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(s); err != nil {
		return fmt.Errorf("failed to encode results to JSON: %w", err)
	}

	return nil
}
