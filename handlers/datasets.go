// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/danielhkuo/influence-predict/auth"
	"github.com/danielhkuo/influence-predict/cliparse"
	"github.com/danielhkuo/influence-predict/db"
	"github.com/danielhkuo/influence-predict/influence"
	"github.com/danielhkuo/influence-predict/metrics"
	"github.com/danielhkuo/influence-predict/middleware"
	"github.com/danielhkuo/influence-predict/models"
)

const datasetColumns = `id, filename, file_path, description, size_bytes, uploaded_by, created_at`

type DatasetHandler struct {
	db  *db.DB
	cfg cliparse.Config
}

func NewDatasetHandler(db *db.DB, cfg cliparse.Config) *DatasetHandler {
	return &DatasetHandler{db: db, cfg: cfg}
}

// Upload handles POST /api/ml/upload
// Stores a CSV dataset (multipart field "file", optional "description")
func (h *DatasetHandler) Upload(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.cfg.MaxUploadBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) || strings.Contains(err.Error(), "request body too large") {
			middleware.ErrorResponse(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("File exceeds the %s upload limit", humanize.IBytes(uint64(h.cfg.MaxUploadBytes))))
			return
		}
		middleware.ErrorResponse(w, http.StatusBadRequest, "Expected a multipart form with a file field")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	if !strings.EqualFold(filepath.Ext(filename), ".csv") {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Only CSV files are accepted")
		return
	}

	if err := os.MkdirAll(h.cfg.DataDir, 0o755); err != nil {
		slog.Error("failed to create data directory", "error", err, "dir", h.cfg.DataDir)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to store file")
		return
	}
	path := filepath.Join(h.cfg.DataDir, uuid.NewString()+"_"+filename)

	size, err := saveFile(path, file)
	if err != nil {
		slog.Error("failed to save upload", "error", err, "path", path)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to store file")
		return
	}

	// Reject files the model and analytics could never read.
	if _, err := influence.ReadTableFile(path); err != nil {
		os.Remove(path)
		if errors.Is(err, influence.ErrEmptyDataset) {
			middleware.ErrorResponse(w, http.StatusBadRequest, "CSV file is empty")
			return
		}
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid CSV: "+err.Error())
		return
	}

	datasetID, err := auth.GenerateID(16)
	if err != nil {
		os.Remove(path)
		slog.Error("failed to generate dataset ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to store file")
		return
	}

	_, err = h.db.ExecContext(r.Context(), `
		INSERT INTO dataset (id, filename, file_path, description, size_bytes, uploaded_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, datasetID, filename, path, strings.TrimSpace(r.FormValue("description")), size, user.ID, time.Now().UTC())
	if err != nil {
		os.Remove(path)
		slog.Error("failed to insert dataset", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to store file")
		return
	}

	metrics.RecordUpload(size)
	slog.Info("dataset uploaded",
		"dataset_id", datasetID,
		"filename", filename,
		"size", humanize.Bytes(uint64(size)),
		"user_id", user.ID,
	)

	middleware.JSONResponse(w, http.StatusCreated, models.UploadResponse{
		Message:   "File uploaded successfully",
		DatasetID: datasetID,
	})
}

// List handles GET /api/ml/datasets
// Returns the caller's datasets, newest first
func (h *DatasetHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	rows, err := h.db.QueryContext(r.Context(), `
		SELECT `+datasetColumns+`
		FROM dataset
		WHERE uploaded_by = ?
		ORDER BY created_at DESC
	`, user.ID)
	if err != nil {
		slog.Error("failed to query datasets", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	datasets := []models.Dataset{}
	for rows.Next() {
		var d models.Dataset
		if err := rows.Scan(&d.ID, &d.Filename, &d.FilePath, &d.Description, &d.SizeBytes, &d.UploadedBy, &d.CreatedAt); err != nil {
			slog.Error("failed to scan dataset", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		datasets = append(datasets, d)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to iterate datasets", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, datasets)
}

func saveFile(path string, src io.Reader) (int64, error) {
	dst, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return 0, err
	}
	return n, nil
}

func scanDataset(row *sql.Row) (*models.Dataset, error) {
	var d models.Dataset
	err := row.Scan(&d.ID, &d.Filename, &d.FilePath, &d.Description, &d.SizeBytes, &d.UploadedBy, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func datasetByID(ctx context.Context, conn *db.DB, id string) (*models.Dataset, error) {
	return scanDataset(conn.QueryRowContext(ctx, `SELECT `+datasetColumns+` FROM dataset WHERE id = ?`, id))
}

func latestDataset(ctx context.Context, conn *db.DB, userID string) (*models.Dataset, error) {
	return scanDataset(conn.QueryRowContext(ctx, `
		SELECT `+datasetColumns+`
		FROM dataset
		WHERE uploaded_by = ?
		ORDER BY created_at DESC
		LIMIT 1
	`, userID))
}
