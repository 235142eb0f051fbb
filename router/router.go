// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"
	"time"

	"github.com/danielhkuo/influence-predict/auth"
	"github.com/danielhkuo/influence-predict/cliparse"
	"github.com/danielhkuo/influence-predict/db"
	"github.com/danielhkuo/influence-predict/handlers"
	"github.com/danielhkuo/influence-predict/influence"
	"github.com/danielhkuo/influence-predict/metrics"
	"github.com/danielhkuo/influence-predict/middleware"
	"github.com/danielhkuo/influence-predict/models"
)

type wrapper = func(http.HandlerFunc) http.HandlerFunc

func NewRouter(conn *db.DB, cfg cliparse.Config, predictor *influence.Predictor, tokens *auth.TokenManager) http.Handler {
	mux := http.NewServeMux()

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(conn, cfg, tokens)
	datasetHandler := handlers.NewDatasetHandler(conn, cfg)
	modelHandler := handlers.NewModelHandler(conn, cfg, predictor)
	predictionHandler := handlers.NewPredictionHandler(conn, cfg)
	analyticsHandler := handlers.NewAnalyticsHandler(conn, cfg)
	adminHandler := handlers.NewAdminHandler(conn, cfg)

	handle := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, middleware.WithLogging(middleware.WithMetrics(h)))
	}

	authed := middleware.RequireAuth(tokens, conn)
	analyst := chain(authed, middleware.RequireRole(auth.RoleAnalyst))
	admin := chain(authed, middleware.RequireRole(auth.RoleAdmin))
	limited := func(h http.HandlerFunc) http.HandlerFunc { return h }
	if cfg.LoginRateLimit > 0 {
		limited = middleware.RateLimitByIP(cfg.LoginRateLimit, time.Minute, cfg.TrustProxy)
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", metrics.Handler())

	// Authentication
	handle("POST /api/auth/register", limited(authHandler.Register))
	handle("POST /api/auth/login", limited(authHandler.Login))
	handle("GET /api/auth/me", authed(authHandler.Me))

	// Datasets
	handle("POST /api/ml/upload", analyst(datasetHandler.Upload))
	handle("GET /api/ml/datasets", authed(datasetHandler.List))

	// Model training and prediction
	handle("POST /api/ml/train", analyst(modelHandler.Train))
	handle("GET /api/ml/metrics", modelHandler.Metrics)
	handle("POST /api/ml/predict", authed(modelHandler.Predict))

	// Stored predictions
	handle("GET /api/ml/top-influencers", predictionHandler.TopInfluencers)
	handle("GET /api/ml/predictions-history", authed(predictionHandler.History))
	handle("DELETE /api/ml/predictions/{id}", authed(predictionHandler.Delete))

	// Dataset analytics
	handle("GET /api/ml/analytics-top-influencers", authed(analyticsHandler.TopInfluencers))
	handle("GET /api/ml/dashboard-stats", authed(analyticsHandler.DashboardStats))

	// User administration
	handle("GET /api/admin/users", admin(adminHandler.ListUsers))
	handle("PATCH /api/admin/users/{id}/role", admin(adminHandler.UpdateRole))
	handle("DELETE /api/admin/users/{id}", admin(adminHandler.DeleteUser))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{
			Message: "Welcome to the Social Network Influence Prediction API",
		})
	})

	return middleware.CORS(cfg.AllowedOrigins)(mux)
}

// chain applies wrappers so the first one runs outermost.
func chain(ws ...wrapper) wrapper {
	return func(h http.HandlerFunc) http.HandlerFunc {
		for i := len(ws) - 1; i >= 0; i-- {
			h = ws[i](h)
		}
		return h
	}
}
