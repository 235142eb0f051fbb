package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultPort           = 8000
	DefaultDatabaseURL    = "file:influence.db"
	DefaultDatabaseType   = "sqlite"
	DefaultTokenTTL       = 7 * 24 * time.Hour
	DefaultDataDir        = "data"
	DefaultModelDir       = "models_storage"
	DefaultMaxUploadBytes = 32 << 20
	DefaultLoginRateLimit = 20
	DefaultAllowedOrigins = "http://localhost:3000,http://127.0.0.1:3000"

	minJWTSecretLen = 16
)

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string

	JWTSecret string
	TokenTTL  time.Duration

	DataDir        string
	ModelDir       string
	MaxUploadBytes int64

	AllowedOrigins []string
	LoginRateLimit int
	// TrustProxy keys rate limits on X-Forwarded-For / X-Real-IP instead of
	// the peer address. Only enable behind a proxy that sets those headers.
	TrustProxy bool

	AdminUsername string
	AdminPassword string
	AdminEmail    string

	LogLevel  string
	LogFormat string
}

// ParseFlags reads CLI flags, falling back to environment variables (and a
// .env file in the working directory) for anything not given on the command line.
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	// Real env vars win over .env entries; a missing file is fine.
	_ = godotenv.Load()

	fs := flag.NewFlagSet("influence-predict", flag.ContinueOnError)

	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", "", "JWT signing secret (prefer env)")

	var tokenTTL, origins string
	fs.StringVar(&tokenTTL, "token-ttl", "", "Access token lifetime, e.g. 168h")
	fs.StringVar(&cfg.DataDir, "data-dir", "", "Directory for uploaded datasets")
	fs.StringVar(&cfg.ModelDir, "model-dir", "", "Directory for the trained model")
	fs.Int64Var(&cfg.MaxUploadBytes, "max-upload", 0, "Maximum dataset upload size in bytes")
	fs.StringVar(&origins, "origins", "", "Comma separated list of allowed CORS origins")
	fs.IntVar(&cfg.LoginRateLimit, "login-rate", 0, "Login attempts per minute per IP")
	fs.BoolVar(&cfg.TrustProxy, "trust-proxy", false, "Trust X-Forwarded-For for client IPs")
	fs.StringVar(&cfg.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "log-format", "", "Log format (text, json)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.Port == 0 {
		port, err := envInt("PORT", DefaultPort)
		if err != nil {
			return Config{}, err
		}
		cfg.Port = port
	}

	cfg.DatabaseURL = firstNonEmpty(cfg.DatabaseURL, os.Getenv("DATABASE_URL"), DefaultDatabaseURL)
	cfg.DatabaseType = strings.ToLower(firstNonEmpty(cfg.DatabaseType, os.Getenv("DATABASE_TYPE"), DefaultDatabaseType))
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, fmt.Errorf("unsupported database type %q (use sqlite or postgres)", cfg.DatabaseType)
	}

	// Secrets - MUST be provided
	cfg.JWTSecret = firstNonEmpty(cfg.JWTSecret, os.Getenv("JWT_SECRET"))
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET required")
	}
	if len(cfg.JWTSecret) < minJWTSecretLen {
		return Config{}, fmt.Errorf("JWT_SECRET must be at least %d characters", minJWTSecretLen)
	}

	tokenTTL = firstNonEmpty(tokenTTL, os.Getenv("TOKEN_TTL"))
	cfg.TokenTTL = DefaultTokenTTL
	if tokenTTL != "" {
		d, err := time.ParseDuration(tokenTTL)
		if err != nil || d <= 0 {
			return Config{}, errors.New("invalid TOKEN_TTL")
		}
		cfg.TokenTTL = d
	}

	cfg.DataDir = firstNonEmpty(cfg.DataDir, os.Getenv("DATA_DIR"), DefaultDataDir)
	cfg.ModelDir = firstNonEmpty(cfg.ModelDir, os.Getenv("MODEL_DIR"), DefaultModelDir)

	if cfg.MaxUploadBytes == 0 {
		n, err := envInt("MAX_UPLOAD_BYTES", DefaultMaxUploadBytes)
		if err != nil {
			return Config{}, err
		}
		cfg.MaxUploadBytes = int64(n)
	}
	if cfg.MaxUploadBytes < 0 {
		return Config{}, errors.New("max upload size must be positive")
	}

	if cfg.LoginRateLimit == 0 {
		n, err := envInt("LOGIN_RATE_LIMIT", DefaultLoginRateLimit)
		if err != nil {
			return Config{}, err
		}
		cfg.LoginRateLimit = n
	}

	if !cfg.TrustProxy {
		if v := os.Getenv("TRUST_PROXY"); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return Config{}, fmt.Errorf("invalid TRUST_PROXY %q: %w", v, err)
			}
			cfg.TrustProxy = b
		}
	}

	cfg.AllowedOrigins = splitList(firstNonEmpty(origins, os.Getenv("ALLOWED_ORIGINS"), DefaultAllowedOrigins))

	cfg.AdminUsername = os.Getenv("ADMIN_USERNAME")
	cfg.AdminPassword = os.Getenv("ADMIN_PASSWORD")
	cfg.AdminEmail = os.Getenv("ADMIN_EMAIL")
	if cfg.AdminUsername != "" && cfg.AdminPassword == "" {
		return Config{}, errors.New("ADMIN_PASSWORD required when ADMIN_USERNAME is set")
	}

	cfg.LogLevel = firstNonEmpty(cfg.LogLevel, os.Getenv("LOG_LEVEL"), "info")
	cfg.LogFormat = firstNonEmpty(cfg.LogFormat, os.Getenv("LOG_FORMAT"))

	return cfg, nil
}

func envInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s env variable", key)
	}
	return n, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
