// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/danielhkuo/influence-predict/cliparse"
	"github.com/danielhkuo/influence-predict/db"
	"github.com/danielhkuo/influence-predict/middleware"
	"github.com/danielhkuo/influence-predict/models"
)

const topPredictionsLimit = 10

type PredictionHandler struct {
	db  *db.DB
	cfg cliparse.Config
}

func NewPredictionHandler(db *db.DB, cfg cliparse.Config) *PredictionHandler {
	return &PredictionHandler{db: db, cfg: cfg}
}

// TopInfluencers handles GET /api/ml/top-influencers
// Returns the highest scoring stored predictions across all users
func (h *PredictionHandler) TopInfluencers(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.QueryContext(r.Context(), `
		SELECT id, input_data, influence_score, influence_level, predicted_by, created_at
		FROM prediction
		ORDER BY influence_score DESC, created_at DESC
		LIMIT ?
	`, topPredictionsLimit)
	if err != nil {
		slog.Error("failed to query top predictions", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	h.writePredictions(w, rows)
}

// History handles GET /api/ml/predictions-history
// Returns the caller's predictions, newest first
func (h *PredictionHandler) History(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	rows, err := h.db.QueryContext(r.Context(), `
		SELECT id, input_data, influence_score, influence_level, predicted_by, created_at
		FROM prediction
		WHERE predicted_by = ?
		ORDER BY created_at DESC
	`, user.ID)
	if err != nil {
		slog.Error("failed to query prediction history", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	h.writePredictions(w, rows)
}

// Delete handles DELETE /api/ml/predictions/{id}
// Only the owner may delete a prediction
func (h *PredictionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	predictionID := r.PathValue("id")

	result, err := h.db.ExecContext(r.Context(), `
		DELETE FROM prediction WHERE id = ? AND predicted_by = ?
	`, predictionID, user.ID)
	if err != nil {
		slog.Error("failed to delete prediction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if n, _ := result.RowsAffected(); n == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Prediction not found")
		return
	}

	slog.Info("prediction deleted", "prediction_id", predictionID, "user_id", user.ID)
	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Prediction deleted successfully"})
}

func (h *PredictionHandler) writePredictions(w http.ResponseWriter, rows *sql.Rows) {
	defer rows.Close()

	predictions := []models.Prediction{}
	for rows.Next() {
		var p models.Prediction
		var input string
		if err := rows.Scan(&p.ID, &input, &p.InfluenceScore, &p.InfluenceLevel, &p.PredictedBy, &p.CreatedAt); err != nil {
			slog.Error("failed to scan prediction", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		if err := json.Unmarshal([]byte(input), &p.InputData); err != nil {
			slog.Warn("stored prediction has unreadable input", "prediction_id", p.ID, "error", err)
		}
		predictions = append(predictions, p)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to iterate predictions", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, predictions)
}
