// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON, with validate tags checked by the
validation package:

  - RegisterRequest: username, email, password, role
  - LoginRequest: username, password (also accepted as a form)
  - PredictRequest: followers, likes, shares, comments
  - UpdateRoleRequest: role

# Response Types

Types for JSON responses:

  - TokenResponse: access_token, token_type, expires_at
  - UploadResponse: message, dataset_id
  - TrainResponse: message, dataset_id, best_model, metrics
  - PredictResponse: influence_level, influence_score
  - DashboardStats: engagement totals, accuracy, platform, trend
  - MessageResponse: message
  - ErrorResponse: error, message, details

# Domain Types

Rows as stored in the database:

  - User: account and role (password hash never serialized)
  - Dataset: uploaded CSV metadata (file path never serialized)
  - ModelMetric: evaluation of one candidate model from the latest run
  - Prediction: stored prediction with its input features

Analytics reports (top influencers) are returned as influence.Report.
*/
package models
