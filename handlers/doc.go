// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the influence prediction API.

# Handler Types

Each handler is a struct holding the database, config and whatever shared
state it needs:

  - AuthHandler: registration, login and the current user
  - DatasetHandler: CSV upload and listing
  - ModelHandler: training, model metrics and prediction
  - PredictionHandler: stored prediction history and ranking
  - AnalyticsHandler: dataset-level influencer ranking and dashboard totals
  - AdminHandler: user administration

Handlers are created via constructor functions:

	modelHandler := handlers.NewModelHandler(conn, cfg, predictor)

Authentication and role checks are applied by the router. Handlers that
need the caller read it with middleware.UserFromContext.

# Training

	POST /api/ml/upload              → Upload (analyst)
	POST /api/ml/train?dataset_id=   → Train (analyst)
	GET  /api/ml/metrics             → Metrics

Train fits both candidate models, replaces the stored metrics in one
transaction and installs the winner in the shared influence.Predictor.
Only one training run may be active; a concurrent request gets 409.

# Prediction

	POST   /api/ml/predict             → Predict
	GET    /api/ml/predictions-history → History
	DELETE /api/ml/predictions/{id}    → Delete (owner only)
	GET    /api/ml/top-influencers     → TopInfluencers

# Analytics

Analytics read the caller's most recently uploaded dataset:

	GET /api/ml/analytics-top-influencers?limit= → TopInfluencers
	GET /api/ml/dashboard-stats                  → DashboardStats
*/
package handlers
