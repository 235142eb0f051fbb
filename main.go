package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/danielhkuo/influence-predict/auth"
	"github.com/danielhkuo/influence-predict/cliparse"
	"github.com/danielhkuo/influence-predict/db"
	"github.com/danielhkuo/influence-predict/handlers"
	"github.com/danielhkuo/influence-predict/influence"
	"github.com/danielhkuo/influence-predict/logging"
	"github.com/danielhkuo/influence-predict/router"
)

func main() {
	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	if err := logging.Setup(cfg.LogLevel, cfg.LogFormat); err != nil {
		slog.Error("invalid logging configuration", "error", err)
		os.Exit(1)
	}

	// Connect to the database
	conn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err, "type", cfg.DatabaseType)
		os.Exit(1)
	}
	defer conn.Close()

	ctx := context.Background()

	// Create schema (tables)
	if err := db.CreateSchema(ctx, conn); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready", "type", cfg.DatabaseType)

	created, err := handlers.EnsureAdmin(ctx, conn, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		slog.Error("admin bootstrap failed", "error", err)
		os.Exit(1)
	}
	if created {
		slog.Info("Admin account created", "username", cfg.AdminUsername)
	}

	predictor := influence.NewPredictor(cfg.ModelDir)
	if err := predictor.Load(); err != nil {
		slog.Warn("failed to load saved model", "error", err)
	} else if m := predictor.Current(); m != nil {
		slog.Info("Model loaded", "model", m.Name, "trained_at", m.TrainedAt)
	}

	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		slog.Error("token manager setup failed", "error", err)
		os.Exit(1)
	}

	// Create server
	server := http.Server{
		Handler:           router.NewRouter(conn, cfg, predictor, tokens),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ctrlc
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("graceful shutdown failed", "error", err)
			server.Close()
		}
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port)
	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed")
	}
}
