package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/moviefestival/forecaster/internal/predict"
	"github.com/moviefestival/forecaster/internal/request"
)

type predictionResponse struct {
	Title           string             `json:"title"`
	PredictedRating float64            `json:"predictedRating"`
	Status          predict.Status     `json:"status"`
	Breakdown       *predict.Breakdown `json:"breakdown,omitempty"`
}

// maxBodyBytes bounds prediction request bodies
const maxBodyBytes = 1 << 20

func (h *Handler) HandlePredictiveRating(w http.ResponseWriter, r *http.Request) {
	q, err := request.Decode(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var verr *request.ValidationError
		if errors.As(err, &verr) {
			h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Missing or invalid fields", Fields: verr.Fields})
			return
		}
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	prediction := h.predictor.Predict(ctx, q)
	if prediction.Status == predict.StatusAccessFailure {
		h.writeError(w, "Movie corpus unavailable", http.StatusServiceUnavailable)
		return
	}

	resp := predictionResponse{
		Title:           prediction.Title,
		PredictedRating: prediction.Result().PredictedRating,
		Status:          prediction.Status,
	}
	if r.URL.Query().Get("explain") == "true" {
		resp.Breakdown = prediction.Breakdown
	}

	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleHealthcheck(w http.ResponseWriter, r *http.Request) {
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Unable to write healthcheck", "err", err)
	}
}
