// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/crypto/bcrypt"

	"github.com/danielhkuo/influence-predict/auth"
	"github.com/danielhkuo/influence-predict/cliparse"
	"github.com/danielhkuo/influence-predict/db"
	"github.com/danielhkuo/influence-predict/models"
)

// TestJWTSecret signs tokens in tests
const TestJWTSecret = "test-secret-at-least-16-chars"

// TestPassword is the password of every user made by CreateTestUser
const TestPassword = "password123"

func init() {
	auth.BcryptCost = bcrypt.MinCost
}

// SetupTestDB opens a private in-memory SQLite database with the full schema.
// It is closed when the test ends.
func SetupTestDB(t *testing.T) *db.DB {
	t.Helper()

	conn, err := db.Open(db.DialectSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(context.Background(), conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return conn
}

// GetTestConfig returns a standard test configuration writing files under
// per-test temp directories
func GetTestConfig(t *testing.T) cliparse.Config {
	t.Helper()
	return cliparse.Config{
		Port:           3318,
		DatabaseURL:    ":memory:",
		DatabaseType:   db.DialectSQLite,
		JWTSecret:      TestJWTSecret,
		TokenTTL:       time.Hour,
		DataDir:        t.TempDir(),
		ModelDir:       t.TempDir(),
		MaxUploadBytes: 1 << 20,
		AllowedOrigins: []string{"http://localhost:3000"},
		LoginRateLimit: 1000,
	}
}

// NewTokenManager returns a token manager using TestJWTSecret
func NewTokenManager(t *testing.T) *auth.TokenManager {
	t.Helper()
	tm, err := auth.NewTokenManager(TestJWTSecret, time.Hour)
	if err != nil {
		t.Fatalf("Failed to create token manager: %v", err)
	}
	return tm
}

// Env bundles the dependencies most handler tests need
type Env struct {
	DB     *db.DB
	Cfg    cliparse.Config
	Tokens *auth.TokenManager
}

// NewEnv sets up a database, config and token manager for one test
func NewEnv(t *testing.T) *Env {
	t.Helper()
	return &Env{DB: SetupTestDB(t), Cfg: GetTestConfig(t), Tokens: NewTokenManager(t)}
}

// CreateTestUser inserts a user with TestPassword and the given role
func CreateTestUser(t *testing.T, conn *db.DB, username, role string) *models.User {
	t.Helper()

	id, err := auth.GenerateID(16)
	if err != nil {
		t.Fatal(err)
	}
	hash, err := auth.HashPassword(TestPassword)
	if err != nil {
		t.Fatal(err)
	}

	u := &models.User{
		ID:             id,
		Username:       username,
		Email:          username + "@example.com",
		HashedPassword: hash,
		Role:           role,
	}
	if err := conn.InsertUser(context.Background(), u); err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return u
}

// AuthHeader returns request headers carrying a bearer token for u
func AuthHeader(t *testing.T, tm *auth.TokenManager, u *models.User) map[string]string {
	t.Helper()
	token, _, err := tm.Issue(u.ID, u.Username, u.Role)
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}
	return map[string]string{"Authorization": "Bearer " + token}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body any, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// MakeUploadRequest creates a multipart request with content as the "file"
// field and any extra form fields
func MakeUploadRequest(t *testing.T, path, filename string, content []byte, fields map[string]string, headers map[string]string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req
}

// WriteCSV writes content to dir/name and returns the path
func WriteCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write csv: %v", err)
	}
	return path
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
