/*
Package cliparse handles configuration parsing from CLI flags and environment.

# Usage

	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

# Priority

Configuration sources in order of priority:

 1. CLI flags (highest)
 2. Environment variables
 3. A .env file in the working directory (never overrides real env vars)
 4. Default values (lowest)

# Flags and Environment Variables

	Flag          Env Variable       Default
	-p            PORT               8000
	-d            DATABASE_URL       file:influence.db
	-t            DATABASE_TYPE      sqlite (or postgres)
	-jwt-secret   JWT_SECRET         (required, 16+ chars)
	-token-ttl    TOKEN_TTL          168h
	-data-dir     DATA_DIR           data
	-model-dir    MODEL_DIR          models_storage
	-max-upload   MAX_UPLOAD_BYTES   33554432
	-origins      ALLOWED_ORIGINS    http://localhost:3000,http://127.0.0.1:3000
	-login-rate   LOGIN_RATE_LIMIT   20 (per minute per IP)
	-log-level    LOG_LEVEL          info
	-log-format   LOG_FORMAT         text on a terminal, json otherwise

ADMIN_USERNAME, ADMIN_PASSWORD and ADMIN_EMAIL are env-only and seed an
admin account at startup.

# Security

Prefer environment variables for JWT_SECRET in production.
CLI flags may be visible in process listings.
*/
package cliparse
