// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the influence prediction API.

# Route Registration

NewRouter wires every endpoint on an http.ServeMux and wraps it in CORS:

	handler := router.NewRouter(conn, cfg, predictor, tokens)

API routes are wrapped with request logging and Prometheus metrics.

# Endpoints

Service:

	GET /health  - Liveness
	GET /metrics - Prometheus metrics
	GET /        - Welcome message

Authentication (register and login are rate limited per IP):

	POST /api/auth/register - Create viewer or analyst account
	POST /api/auth/login    - Exchange credentials for a bearer token
	GET  /api/auth/me       - Current user

Datasets and model (upload and train need the analyst role):

	POST /api/ml/upload  - Upload CSV dataset
	GET  /api/ml/datasets - Caller's datasets
	POST /api/ml/train   - Train on ?dataset_id=
	GET  /api/ml/metrics - Latest evaluation (public)
	POST /api/ml/predict - Predict influence tier

Predictions:

	GET    /api/ml/top-influencers      - Top 10 stored predictions (public)
	GET    /api/ml/predictions-history  - Caller's predictions
	DELETE /api/ml/predictions/{id}     - Delete own prediction

Analytics over the caller's latest dataset:

	GET /api/ml/analytics-top-influencers?limit= - Ranked accounts
	GET /api/ml/dashboard-stats                  - Totals and trend

Administration (admin role):

	GET    /api/admin/users           - List users
	PATCH  /api/admin/users/{id}/role - Change role
	DELETE /api/admin/users/{id}      - Delete user
*/
package router
