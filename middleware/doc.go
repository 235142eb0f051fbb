// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging and Metrics

Wrap handlers with request logging and Prometheus instrumentation:

	mux.HandleFunc("GET /health", middleware.WithLogging(middleware.WithMetrics(handler)))

WithLogging logs request start (method, path, remote) and completion
(status, duration_ms). WithMetrics labels requests with the matched
ServeMux pattern so path parameters do not explode cardinality.

# Authentication

RequireAuth validates the bearer token and loads the user into the request
context; RequireRole restricts a handler to some roles (admins always pass):

	protect := middleware.RequireAuth(tokens, conn)
	analyst := middleware.RequireRole(auth.RoleAnalyst)
	mux.HandleFunc("POST /api/ml/train", protect(analyst(h.Train)))

Handlers read the caller with UserFromContext.

# CORS and Rate Limiting

CORS (go-chi/cors) allows credentialed requests from configured origins.
RateLimitByIP (go-chi/httprate) throttles login and registration per
client IP and answers 429 with a JSON body. The key is the peer address;
X-Forwarded-For and X-Real-IP are only honored when trustProxy is set.

# JSON Helpers

Write JSON responses:

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")
	middleware.ValidationErrorResponse(w, verr)

Parse JSON request bodies:

	var req models.PredictRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

# Client IP Extraction

Get the original client IP (handles X-Forwarded-For, X-Real-IP):

	ip := middleware.GetClientIP(r)
*/
package middleware
