// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"os"
	"strconv"

	"github.com/danielhkuo/influence-predict/cliparse"
	"github.com/danielhkuo/influence-predict/db"
	"github.com/danielhkuo/influence-predict/influence"
	"github.com/danielhkuo/influence-predict/middleware"
	"github.com/danielhkuo/influence-predict/models"
)

const (
	defaultInfluencerLimit = 10
	maxInfluencerLimit     = 100
)

type AnalyticsHandler struct {
	db  *db.DB
	cfg cliparse.Config
}

func NewAnalyticsHandler(db *db.DB, cfg cliparse.Config) *AnalyticsHandler {
	return &AnalyticsHandler{db: db, cfg: cfg}
}

// TopInfluencers handles GET /api/ml/analytics-top-influencers?limit=
// Ranks the accounts of the caller's latest dataset by engagement
func (h *AnalyticsHandler) TopInfluencers(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	limit := defaultInfluencerLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > maxInfluencerLimit {
			middleware.ErrorResponse(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	dataset, err := latestDataset(r.Context(), h.db, user.ID)
	if errors.Is(err, db.ErrNotFound) {
		middleware.JSONResponse(w, http.StatusOK, influence.EmptyReport())
		return
	}
	if err != nil {
		slog.Error("failed to load latest dataset", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	table, err := influence.ReadTableFile(dataset.FilePath)
	if errors.Is(err, os.ErrNotExist) {
		middleware.JSONResponse(w, http.StatusOK, influence.EmptyReport())
		return
	}
	if err != nil {
		slog.Error("failed to read dataset", "error", err, "dataset_id", dataset.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Error analyzing influencers: "+err.Error())
		return
	}

	report := influence.TopInfluencers(table, limit, influence.DetectPlatform(dataset.Filename))
	middleware.JSONResponse(w, http.StatusOK, report)
}

// DashboardStats handles GET /api/ml/dashboard-stats
// Summarizes the caller's latest dataset and the current model accuracy
func (h *AnalyticsHandler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	ctx := r.Context()

	stats := models.DashboardStats{
		Platform:        influence.PlatformSocial,
		EngagementTrend: []influence.TrendPoint{},
	}

	dataset, err := latestDataset(ctx, h.db, user.ID)
	if errors.Is(err, db.ErrNotFound) {
		middleware.JSONResponse(w, http.StatusOK, stats)
		return
	}
	if err != nil {
		slog.Error("failed to load latest dataset", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	stats.Platform = influence.DetectPlatform(dataset.Filename)

	var accuracy float64
	err = h.db.QueryRowContext(ctx, `
		SELECT accuracy FROM model_metric WHERE is_best = ? LIMIT 1
	`, true).Scan(&accuracy)
	switch {
	case err == nil:
		stats.SystemAccuracy = math.Round(accuracy*100*100) / 100
	case !errors.Is(err, sql.ErrNoRows):
		slog.Error("failed to query best model accuracy", "error", err)
	}

	table, err := influence.ReadTableFile(dataset.FilePath)
	if err != nil {
		slog.Warn("failed to read dataset for stats", "error", err, "dataset_id", dataset.ID)
		middleware.JSONResponse(w, http.StatusOK, stats)
		return
	}

	totals := influence.Summarize(table)
	stats.TotalLikes = totals.Likes
	stats.TotalShares = totals.Shares
	stats.TotalComments = totals.Comments
	stats.TotalRecords = totals.Records
	stats.EngagementTrend = influence.EngagementTrend(totals)

	middleware.JSONResponse(w, http.StatusOK, stats)
}
