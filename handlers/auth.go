// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/danielhkuo/influence-predict/auth"
	"github.com/danielhkuo/influence-predict/cliparse"
	"github.com/danielhkuo/influence-predict/db"
	"github.com/danielhkuo/influence-predict/middleware"
	"github.com/danielhkuo/influence-predict/models"
	"github.com/danielhkuo/influence-predict/validation"
)

type AuthHandler struct {
	db     *db.DB
	cfg    cliparse.Config
	tokens *auth.TokenManager
}

func NewAuthHandler(db *db.DB, cfg cliparse.Config, tokens *auth.TokenManager) *AuthHandler {
	return &AuthHandler{db: db, cfg: cfg, tokens: tokens}
}

// Register handles POST /api/auth/register
// Creates a viewer or analyst account
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	if verr := validation.ValidateStruct(req); verr != nil {
		middleware.ValidationErrorResponse(w, verr)
		return
	}

	role := req.Role
	if role == "" {
		role = auth.RoleViewer
	}

	id, err := auth.GenerateID(16)
	if err != nil {
		slog.Error("failed to generate user ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register user")
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register user")
		return
	}

	user := &models.User{
		ID:             id,
		Username:       req.Username,
		Email:          req.Email,
		HashedPassword: hash,
		Role:           role,
	}
	if err := h.db.InsertUser(r.Context(), user); err != nil {
		if db.IsUniqueViolation(err) {
			middleware.ErrorResponse(w, http.StatusConflict, "Username or email already registered")
			return
		}
		slog.Error("failed to insert user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register user")
		return
	}

	slog.Info("user registered", "user_id", user.ID, "username", user.Username, "role", user.Role)
	middleware.JSONResponse(w, http.StatusCreated, user)
}

// Login handles POST /api/auth/login
// Accepts an OAuth2-style form or a JSON body and returns a bearer token
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseMultipartForm(1 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid form")
			return
		}
		req.Username = r.FormValue("username")
		req.Password = r.FormValue("password")
	default:
		if err := middleware.ParseJSONBody(r, &req); err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
	}

	if verr := validation.ValidateStruct(req); verr != nil {
		middleware.ValidationErrorResponse(w, verr)
		return
	}

	user, err := h.db.UserByUsername(r.Context(), strings.TrimSpace(req.Username))
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		slog.Error("failed to load user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Login failed")
		return
	}
	if user == nil || auth.CheckPassword(user.HashedPassword, req.Password) != nil {
		slog.Warn("failed login", "username", req.Username, "ip", middleware.GetClientIP(r))
		w.Header().Set("WWW-Authenticate", "Bearer")
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Incorrect username or password")
		return
	}

	token, expiresAt, err := h.tokens.Issue(user.ID, user.Username, user.Role)
	if err != nil {
		slog.Error("failed to issue token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Login failed")
		return
	}

	slog.Info("user logged in", "user_id", user.ID)
	middleware.JSONResponse(w, http.StatusOK, models.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt,
	})
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, user)
}
