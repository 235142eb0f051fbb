// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/goccy/go-json"

	"github.com/danielhkuo/influence-predict/auth"
	"github.com/danielhkuo/influence-predict/cliparse"
	"github.com/danielhkuo/influence-predict/db"
	"github.com/danielhkuo/influence-predict/influence"
	"github.com/danielhkuo/influence-predict/metrics"
	"github.com/danielhkuo/influence-predict/middleware"
	"github.com/danielhkuo/influence-predict/models"
	"github.com/danielhkuo/influence-predict/validation"
)

type ModelHandler struct {
	db        *db.DB
	cfg       cliparse.Config
	predictor *influence.Predictor
}

func NewModelHandler(db *db.DB, cfg cliparse.Config, predictor *influence.Predictor) *ModelHandler {
	return &ModelHandler{db: db, cfg: cfg, predictor: predictor}
}

// Train handles POST /api/ml/train?dataset_id=
// Fits both candidate models on the dataset, replaces the stored metrics
// and installs the best model
func (h *ModelHandler) Train(w http.ResponseWriter, r *http.Request) {
	datasetID := r.URL.Query().Get("dataset_id")
	if datasetID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "dataset_id is required")
		return
	}

	ctx := r.Context()
	dataset, err := datasetByID(ctx, h.db, datasetID)
	if errors.Is(err, db.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Dataset not found")
		return
	}
	if err != nil {
		slog.Error("failed to load dataset", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	release, err := h.predictor.TryStartTraining()
	if err != nil {
		middleware.ErrorResponse(w, http.StatusConflict, "A training run is already in progress")
		return
	}
	defer release()

	table, err := influence.ReadTableFile(dataset.FilePath)
	if errors.Is(err, os.ErrNotExist) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Dataset file is missing")
		return
	}
	if err != nil {
		metrics.RecordTraining("rejected", 0)
		middleware.ErrorResponse(w, http.StatusBadRequest, "Training failed: "+err.Error())
		return
	}

	start := time.Now()
	model, err := influence.Train(ctx, table)
	elapsed := time.Since(start)
	if errors.Is(err, influence.ErrInsufficientData) || errors.Is(err, influence.ErrNoLabelDiversity) {
		metrics.RecordTraining("rejected", elapsed)
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		metrics.RecordTraining("error", elapsed)
		slog.Error("training failed", "error", err, "dataset_id", datasetID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Training failed: "+err.Error())
		return
	}

	stored, err := h.replaceMetrics(ctx, model, datasetID)
	if err != nil {
		metrics.RecordTraining("error", elapsed)
		slog.Error("failed to persist training run", "error", err, "dataset_id", datasetID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save trained model")
		return
	}
	h.predictor.Install(model)

	metrics.RecordTraining("success", elapsed)
	slog.Info("model trained",
		"dataset_id", datasetID,
		"best_model", model.Name,
		"samples", model.SampleCount,
		"f1", model.Best().F1Score,
		"duration_ms", elapsed.Milliseconds(),
	)

	middleware.JSONResponse(w, http.StatusOK, models.TrainResponse{
		Message:   "Model training completed",
		DatasetID: datasetID,
		BestModel: model.Name,
		Metrics:   stored,
	})
}

// replaceMetrics swaps the stored metrics for the new run and writes the
// model artifact. The artifact is written before commit so a failed write
// leaves the previous run intact.
func (h *ModelHandler) replaceMetrics(ctx context.Context, model *influence.Model, datasetID string) ([]models.ModelMetric, error) {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM model_metric`); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	bestFlagged := false
	stored := make([]models.ModelMetric, 0, len(model.Evaluations))
	for _, ev := range model.Evaluations {
		id, err := auth.GenerateID(16)
		if err != nil {
			return nil, err
		}
		isBest := !bestFlagged && ev.ModelName == model.Name
		bestFlagged = bestFlagged || isBest

		_, err = tx.ExecContext(ctx, `
			INSERT INTO model_metric (id, model_name, accuracy, precision_score, recall_score, f1_score, is_best, dataset_id, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, id, ev.ModelName, ev.Accuracy, ev.Precision, ev.Recall, ev.F1Score, isBest, datasetID, now)
		if err != nil {
			return nil, err
		}

		ds := datasetID
		stored = append(stored, models.ModelMetric{
			ID:        id,
			ModelName: ev.ModelName,
			Accuracy:  ev.Accuracy,
			Precision: ev.Precision,
			Recall:    ev.Recall,
			F1Score:   ev.F1Score,
			IsBest:    isBest,
			DatasetID: &ds,
			CreatedAt: now,
		})
	}

	if err := h.predictor.Save(model); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return stored, nil
}

// Metrics handles GET /api/ml/metrics
// Returns the evaluation of each candidate from the latest training run
func (h *ModelHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.QueryContext(r.Context(), `
		SELECT id, model_name, accuracy, precision_score, recall_score, f1_score, is_best, dataset_id, created_at
		FROM model_metric
		ORDER BY created_at, model_name
	`)
	if err != nil {
		slog.Error("failed to query metrics", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	result := []models.ModelMetric{}
	for rows.Next() {
		var m models.ModelMetric
		if err := rows.Scan(&m.ID, &m.ModelName, &m.Accuracy, &m.Precision, &m.Recall, &m.F1Score, &m.IsBest, &m.DatasetID, &m.CreatedAt); err != nil {
			slog.Error("failed to scan metric", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to iterate metrics", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, result)
}

// Predict handles POST /api/ml/predict
// Classifies one account and stores the prediction for the caller
func (h *ModelHandler) Predict(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req models.PredictRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if verr := validation.ValidateStruct(req); verr != nil {
		middleware.ValidationErrorResponse(w, verr)
		return
	}

	pred, err := h.predictor.Predict(influence.Input{
		Followers: float64(req.Followers),
		Likes:     float64(req.Likes),
		Shares:    float64(req.Shares),
		Comments:  float64(req.Comments),
	})
	if err != nil {
		if !errors.Is(err, influence.ErrNotTrained) && !errors.Is(err, influence.ErrInvalidInput) {
			slog.Error("prediction failed", "error", err)
		}
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	input, err := json.Marshal(req)
	if err != nil {
		slog.Error("failed to encode prediction input", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to store prediction")
		return
	}
	predictionID, err := auth.GenerateID(16)
	if err != nil {
		slog.Error("failed to generate prediction ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to store prediction")
		return
	}

	_, err = h.db.ExecContext(r.Context(), `
		INSERT INTO prediction (id, input_data, influence_score, influence_level, predicted_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, predictionID, string(input), pred.Score, string(pred.Level), user.ID, time.Now().UTC())
	if err != nil {
		slog.Error("failed to insert prediction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to store prediction")
		return
	}

	metrics.RecordPrediction(string(pred.Level))
	slog.Info("prediction stored", "prediction_id", predictionID, "level", pred.Level, "score", pred.Score)

	middleware.JSONResponse(w, http.StatusOK, models.PredictResponse{
		InfluenceLevel: string(pred.Level),
		InfluenceScore: pred.Score,
	})
}
