package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/moviefestival/forecaster/internal/models"
	"github.com/moviefestival/forecaster/internal/predict"
)

// Predictor forecasts a candidate movie
type Predictor interface {
	Predict(ctx context.Context, q models.CandidateQuery) predict.Prediction
}

type Handler struct {
	predictor Predictor
	timeout   time.Duration
}

// New creates a handler serving predictions from p. Every prediction runs
// under timeout when it is positive.
func New(p Predictor, timeout time.Duration) *Handler {
	return &Handler{
		predictor: p,
		timeout:   timeout,
	}
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, code int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(append(body, '\n')); err != nil {
		slog.Error("Unable to write JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message, "status", code)
	h.writeJSON(w, code, errorResponse{Error: message})
}
