// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/danielhkuo/influence-predict/auth"
	"github.com/danielhkuo/influence-predict/models"
	"github.com/danielhkuo/influence-predict/testutil"
)

func TestRegister(t *testing.T) {
	env := testutil.NewEnv(t)
	handler := NewAuthHandler(env.DB, env.Cfg, env.Tokens)

	t.Run("creates viewer by default", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/api/auth/register", models.RegisterRequest{
			Username: "  alice ",
			Email:    "Alice@Example.com",
			Password: "secret123",
		}, nil)
		w := httptest.NewRecorder()

		handler.Register(w, req)

		testutil.AssertStatus(t, w, http.StatusCreated)
		if strings.Contains(w.Body.String(), "hashed_password") || strings.Contains(w.Body.String(), "secret123") {
			t.Errorf("Response leaks password material: %s", w.Body.String())
		}
		var user models.User
		testutil.AssertJSON(t, w, &user)
		if user.Username != "alice" {
			t.Errorf("Expected trimmed username 'alice', got %q", user.Username)
		}
		if user.Email != "alice@example.com" {
			t.Errorf("Expected lowercased email, got %q", user.Email)
		}
		if user.Role != auth.RoleViewer {
			t.Errorf("Expected role viewer, got %q", user.Role)
		}
	})

	t.Run("analyst role allowed", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/api/auth/register", models.RegisterRequest{
			Username: "bob", Email: "bob@example.com", Password: "secret123", Role: auth.RoleAnalyst,
		}, nil)
		w := httptest.NewRecorder()

		handler.Register(w, req)

		testutil.AssertStatus(t, w, http.StatusCreated)
		var user models.User
		testutil.AssertJSON(t, w, &user)
		if user.Role != auth.RoleAnalyst {
			t.Errorf("Expected role analyst, got %q", user.Role)
		}
	})

	t.Run("duplicate username", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/api/auth/register", models.RegisterRequest{
			Username: "alice", Email: "other@example.com", Password: "secret123",
		}, nil)
		w := httptest.NewRecorder()

		handler.Register(w, req)

		testutil.AssertStatus(t, w, http.StatusConflict)
	})

	t.Run("duplicate email", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/api/auth/register", models.RegisterRequest{
			Username: "alice2", Email: "ALICE@example.com", Password: "secret123",
		}, nil)
		w := httptest.NewRecorder()

		handler.Register(w, req)

		testutil.AssertStatus(t, w, http.StatusConflict)
	})

	invalid := []struct {
		name string
		req  models.RegisterRequest
	}{
		{"short username", models.RegisterRequest{Username: "ab", Email: "ab@example.com", Password: "secret123"}},
		{"bad email", models.RegisterRequest{Username: "carol", Email: "not-an-email", Password: "secret123"}},
		{"short password", models.RegisterRequest{Username: "carol", Email: "carol@example.com", Password: "abc"}},
		{"admin role", models.RegisterRequest{Username: "carol", Email: "carol@example.com", Password: "secret123", Role: auth.RoleAdmin}},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.Register(w, testutil.MakeRequest("POST", "/api/auth/register", tt.req, nil))

			testutil.AssertStatus(t, w, http.StatusBadRequest)
			var resp models.ErrorResponse
			testutil.AssertJSON(t, w, &resp)
			if resp.Message != "Validation failed" {
				t.Errorf("Expected validation error, got %q", resp.Message)
			}
		})
	}

	t.Run("invalid JSON", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/auth/register", strings.NewReader("{not json"))
		w := httptest.NewRecorder()

		handler.Register(w, req)

		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})
}

func TestLogin(t *testing.T) {
	env := testutil.NewEnv(t)
	handler := NewAuthHandler(env.DB, env.Cfg, env.Tokens)
	user := testutil.CreateTestUser(t, env.DB, "alice", auth.RoleAnalyst)

	checkToken := func(t *testing.T, w *httptest.ResponseRecorder) {
		t.Helper()
		var resp models.TokenResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.TokenType != "bearer" {
			t.Errorf("Expected token_type bearer, got %q", resp.TokenType)
		}
		claims, err := env.Tokens.Verify(resp.AccessToken)
		if err != nil {
			t.Fatalf("Issued token does not verify: %v", err)
		}
		if claims.UserID() != user.ID || claims.Role != auth.RoleAnalyst {
			t.Errorf("Unexpected claims: %+v", claims)
		}
	}

	t.Run("JSON body", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/api/auth/login", models.LoginRequest{
			Username: "alice", Password: testutil.TestPassword,
		}, nil)
		w := httptest.NewRecorder()

		handler.Login(w, req)

		testutil.AssertStatus(t, w, http.StatusOK)
		checkToken(t, w)
	})

	t.Run("form body", func(t *testing.T) {
		form := url.Values{"username": {"alice"}, "password": {testutil.TestPassword}}
		req := httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()

		handler.Login(w, req)

		testutil.AssertStatus(t, w, http.StatusOK)
		checkToken(t, w)
	})

	t.Run("multipart form body", func(t *testing.T) {
		req := testutil.MakeUploadRequest(t, "/api/auth/login", "ignored.txt", nil,
			map[string]string{"username": "alice", "password": testutil.TestPassword}, nil)
		w := httptest.NewRecorder()

		handler.Login(w, req)

		testutil.AssertStatus(t, w, http.StatusOK)
	})

	failures := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "alice", "wrong-password"},
		{"unknown user", "nobody", testutil.TestPassword},
	}
	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("POST", "/api/auth/login", models.LoginRequest{
				Username: tt.username, Password: tt.password,
			}, nil)
			w := httptest.NewRecorder()

			handler.Login(w, req)

			testutil.AssertStatus(t, w, http.StatusUnauthorized)
			if w.Header().Get("WWW-Authenticate") != "Bearer" {
				t.Error("Expected WWW-Authenticate: Bearer")
			}
			var resp models.ErrorResponse
			testutil.AssertJSON(t, w, &resp)
			if resp.Message != "Incorrect username or password" {
				t.Errorf("Unexpected error %q", resp.Message)
			}
		})
	}

	t.Run("missing fields", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/api/auth/login", models.LoginRequest{Username: "alice"}, nil)
		w := httptest.NewRecorder()

		handler.Login(w, req)

		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})
}

func TestMe(t *testing.T) {
	env := testutil.NewEnv(t)
	handler := NewAuthHandler(env.DB, env.Cfg, env.Tokens)
	user := testutil.CreateTestUser(t, env.DB, "alice", auth.RoleViewer)

	t.Run("authenticated", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.Me(w, asUser(httptest.NewRequest("GET", "/api/auth/me", nil), user))

		testutil.AssertStatus(t, w, http.StatusOK)
		var got models.User
		testutil.AssertJSON(t, w, &got)
		if got.ID != user.ID || got.Username != "alice" {
			t.Errorf("Unexpected user %+v", got)
		}
	})

	t.Run("no user in context", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.Me(w, httptest.NewRequest("GET", "/api/auth/me", nil))

		testutil.AssertStatus(t, w, http.StatusUnauthorized)
	})
}
