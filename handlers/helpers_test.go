// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/danielhkuo/influence-predict/auth"
	"github.com/danielhkuo/influence-predict/db"
	"github.com/danielhkuo/influence-predict/middleware"
	"github.com/danielhkuo/influence-predict/models"
	"github.com/danielhkuo/influence-predict/testutil"
)

// asUser attaches u to the request the way RequireAuth does
func asUser(r *http.Request, u *models.User) *http.Request {
	return r.WithContext(middleware.WithUser(r.Context(), u))
}

// trainingCSV builds a labeled dataset with n accounts per tier
func trainingCSV(n int) string {
	var b strings.Builder
	b.WriteString("followers,likes,shares,comments,influence_label\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "%d,%d,%d,%d,Low\n", 500+i*10, 20+i, 2, 3)
		fmt.Fprintf(&b, "%d,%d,%d,%d,Medium\n", 50_000+i*100, 2_000+i*10, 200, 300)
		fmt.Fprintf(&b, "%d,%d,%d,%d,High\n", 900_000+i*1000, 80_000+i*100, 9_000, 12_000)
	}
	return b.String()
}

// insertDataset writes content under the config data dir and records it as
// uploaded by owner
func insertDataset(t *testing.T, env *testutil.Env, owner *models.User, filename, content string) *models.Dataset {
	t.Helper()

	id, err := auth.GenerateID(16)
	if err != nil {
		t.Fatal(err)
	}
	path := testutil.WriteCSV(t, env.Cfg.DataDir, id+"_"+filename, content)
	d := &models.Dataset{
		ID:         id,
		Filename:   filename,
		FilePath:   path,
		SizeBytes:  int64(len(content)),
		UploadedBy: owner.ID,
		CreatedAt:  time.Now().UTC(),
	}

	_, err = env.DB.ExecContext(context.Background(), `
		INSERT INTO dataset (id, filename, file_path, description, size_bytes, uploaded_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, d.ID, d.Filename, d.FilePath, "", d.SizeBytes, d.UploadedBy, d.CreatedAt)
	if err != nil {
		t.Fatalf("Failed to insert dataset: %v", err)
	}
	return d
}

// insertPrediction stores a prediction row for owner
func insertPrediction(t *testing.T, conn *db.DB, owner *models.User, score float64, level string, at time.Time) string {
	t.Helper()

	id, err := auth.GenerateID(16)
	if err != nil {
		t.Fatal(err)
	}
	_, err = conn.ExecContext(context.Background(), `
		INSERT INTO prediction (id, input_data, influence_score, influence_level, predicted_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, `{"followers":1000,"likes":10,"shares":1,"comments":2}`, score, level, owner.ID, at.UTC())
	if err != nil {
		t.Fatalf("Failed to insert prediction: %v", err)
	}
	return id
}

func countRows(t *testing.T, conn *db.DB, query string, args ...any) int {
	t.Helper()
	var n int
	if err := conn.QueryRowContext(context.Background(), query, args...).Scan(&n); err != nil {
		t.Fatalf("Failed to count rows: %v", err)
	}
	return n
}
