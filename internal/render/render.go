// Package render writes predictions in the formats supported by the CLI.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
	"github.com/moviefestival/forecaster/internal/predict"
	"gopkg.in/yaml.v3"
)

// Formats lists the accepted --format values
var Formats = []string{"json", "yaml", "text"}

// Prediction writes p to w in the given format. The json format is the
// plain [title, predictedRating] array.
func Prediction(w io.Writer, p predict.Prediction, format string) error {
	switch format {
	case "json", "":
		return writeJSONPair(w, p)
	case "yaml":
		return writeYAML(w, p)
	case "text":
		return writeText(w, p)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func writeJSONPair(w io.Writer, p predict.Prediction) error {
	result := p.Result()
	data, err := json.Marshal([]any{result.Title, result.PredictedRating})
	if err != nil {
		return fmt.Errorf("failed to encode prediction: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

type yamlPrediction struct {
	predict.Prediction `yaml:",inline"`
	Error              string `yaml:"error,omitempty"`
}

func writeYAML(w io.Writer, p predict.Prediction) error {
	out := yamlPrediction{Prediction: p}
	if p.Err != nil {
		out.Error = p.Err.Error()
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(&out); err != nil {
		return fmt.Errorf("failed to encode prediction: %w", err)
	}
	return encoder.Close()
}

func writeText(w io.Writer, p predict.Prediction) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Title:            %s\n", p.Title)
	fmt.Fprintf(&b, "Status:           %s\n", p.Status)
	fmt.Fprintf(&b, "Predicted Rating: %.3f\n", p.Result().PredictedRating)
	if p.Err != nil {
		fmt.Fprintf(&b, "Error:            %v\n", p.Err)
	}

	if bd := p.Breakdown; bd != nil {
		fmt.Fprintf(&b, "Corpus Movies:    %d\n", bd.Movies)
		writeComponent(&b, "Genre Component:  ", bd.Genre)
		writeComponent(&b, "Principal Comp.:  ", bd.Principal)
		if len(bd.Genres) > 0 {
			b.WriteString("\nGenres:\n")
			for _, g := range bd.Genres {
				fmt.Fprintf(&b, "  %-20s %.3f (%d movies)\n", g.Genre, g.Average, g.Movies)
			}
		}
		if len(bd.Principals) > 0 {
			b.WriteString("\nPrincipals:\n")
			for _, pr := range bd.Principals {
				fmt.Fprintf(&b, "  %-20s %-10s %.3f (%d credits, %d in role)\n",
					pr.Name, pr.Role, pr.Average, pr.Credits, pr.Matched)
			}
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeComponent(b *strings.Builder, label string, c predict.Component) {
	if !c.Defined() {
		fmt.Fprintf(b, "%sn/a\n", label)
		return
	}
	fmt.Fprintf(b, "%s%.3f (weight %.3f)\n", label, c.Value(), c.Weight)
}
