// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the influence prediction API server.

Authenticated users upload social media engagement datasets (CSV), train a
classifier that buckets accounts into Low, Medium and High influence tiers,
and query predictions and engagement analytics.

# Starting the Server

A JWT secret is the only required setting:

	JWT_SECRET=change-me-to-something-long go run .

Or with flags:

	go run . -p 8000 -t postgres -d "postgres://..." -jwt-secret "..."

Settings may also come from a .env file in the working directory.

# Configuration

Required settings:

  - JWT_SECRET (-jwt-secret): HMAC key for access tokens, at least 16 characters

Optional settings:

  - PORT (-p): Server port (default: 8000)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - DATABASE_URL (-d): Connection string (default: file:influence.db)
  - TOKEN_TTL (-token-ttl): Access token lifetime (default: 168h)
  - DATA_DIR, MODEL_DIR: Where datasets and the trained model are stored
  - MAX_UPLOAD_BYTES, ALLOWED_ORIGINS, LOGIN_RATE_LIMIT
  - ADMIN_USERNAME, ADMIN_PASSWORD, ADMIN_EMAIL: Bootstrap admin account
  - LOG_LEVEL, LOG_FORMAT: slog level and text/json output

# Architecture

The server uses a handler-based architecture with dependency injection:

  - handlers: HTTP request handlers (auth, datasets, model, predictions, analytics, admin)
  - router: Route definitions using Go 1.22+ routing
  - middleware: Auth, CORS, rate limiting, logging, metrics, JSON helpers
  - influence: CSV parsing, training, prediction and analytics
  - models: Request/response types
  - auth: Password hashing, JWT access tokens, roles
  - db: Connections, schema creation, user lookups
  - validation: Request validation
  - metrics: Prometheus collectors
  - logging: slog setup
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
