// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/danielhkuo/influence-predict/auth"
	"github.com/danielhkuo/influence-predict/cliparse"
	"github.com/danielhkuo/influence-predict/db"
	"github.com/danielhkuo/influence-predict/middleware"
	"github.com/danielhkuo/influence-predict/models"
	"github.com/danielhkuo/influence-predict/validation"
)

type AdminHandler struct {
	db  *db.DB
	cfg cliparse.Config
}

func NewAdminHandler(db *db.DB, cfg cliparse.Config) *AdminHandler {
	return &AdminHandler{db: db, cfg: cfg}
}

// ListUsers handles GET /api/admin/users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.QueryContext(r.Context(), `
		SELECT id, username, email, role, created_at
		FROM users
		ORDER BY created_at
	`)
	if err != nil {
		slog.Error("failed to query users", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.Role, &u.CreatedAt); err != nil {
			slog.Error("failed to scan user", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to iterate users", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, users)
}

// UpdateRole handles PATCH /api/admin/users/{id}/role
func (h *AdminHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.UserFromContext(r.Context())
	if !ok {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	userID := r.PathValue("id")

	var req models.UpdateRoleRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if verr := validation.ValidateStruct(req); verr != nil {
		middleware.ValidationErrorResponse(w, verr)
		return
	}
	if userID == caller.ID && req.Role != auth.RoleAdmin {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Cannot remove your own admin role")
		return
	}

	result, err := h.db.ExecContext(r.Context(), `UPDATE users SET role = ? WHERE id = ?`, req.Role, userID)
	if err != nil {
		slog.Error("failed to update role", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if n, _ := result.RowsAffected(); n == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "User not found")
		return
	}

	user, err := h.db.UserByID(r.Context(), userID)
	if err != nil {
		slog.Error("failed to reload user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	slog.Info("user role updated", "user_id", userID, "role", req.Role, "by", caller.ID)
	middleware.JSONResponse(w, http.StatusOK, user)
}

// DeleteUser handles DELETE /api/admin/users/{id}
// Removes the account, its datasets and predictions, and the stored files
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.UserFromContext(r.Context())
	if !ok {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	userID := r.PathValue("id")
	if userID == caller.ID {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Cannot delete your own account")
		return
	}

	paths, err := h.datasetPaths(r.Context(), userID)
	if err != nil {
		slog.Error("failed to query user datasets", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	result, err := h.db.ExecContext(r.Context(), `DELETE FROM users WHERE id = ?`, userID)
	if err != nil {
		slog.Error("failed to delete user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if n, _ := result.RowsAffected(); n == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "User not found")
		return
	}

	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("failed to remove dataset file", "error", err, "path", p)
		}
	}

	slog.Info("user deleted", "user_id", userID, "datasets", len(paths), "by", caller.ID)
	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "User deleted successfully"})
}

func (h *AdminHandler) datasetPaths(ctx context.Context, userID string) ([]string, error) {
	rows, err := h.db.QueryContext(ctx, `SELECT file_path FROM dataset WHERE uploaded_by = ?`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// EnsureAdmin creates the bootstrap admin account if no user with that name
// exists yet. It reports whether an account was created.
func EnsureAdmin(ctx context.Context, conn *db.DB, username, email, password string) (bool, error) {
	if username == "" {
		return false, nil
	}

	_, err := conn.UserByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return false, fmt.Errorf("failed to look up admin: %w", err)
	}

	id, err := auth.GenerateID(16)
	if err != nil {
		return false, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return false, err
	}
	if email == "" {
		email = username + "@localhost"
	}

	err = conn.InsertUser(ctx, &models.User{
		ID:             id,
		Username:       username,
		Email:          email,
		HashedPassword: hash,
		Role:           auth.RoleAdmin,
	})
	if err != nil {
		return false, fmt.Errorf("failed to create admin: %w", err)
	}
	return true, nil
}
