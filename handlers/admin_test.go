// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/danielhkuo/influence-predict/auth"
	"github.com/danielhkuo/influence-predict/db"
	"github.com/danielhkuo/influence-predict/models"
	"github.com/danielhkuo/influence-predict/testutil"
)

func TestListUsers(t *testing.T) {
	env := testutil.NewEnv(t)
	handler := NewAdminHandler(env.DB, env.Cfg)
	admin := testutil.CreateTestUser(t, env.DB, "root", auth.RoleAdmin)
	testutil.CreateTestUser(t, env.DB, "alice", auth.RoleViewer)

	w := httptest.NewRecorder()
	handler.ListUsers(w, asUser(httptest.NewRequest("GET", "/api/admin/users", nil), admin))

	testutil.AssertStatus(t, w, http.StatusOK)
	var users []models.User
	testutil.AssertJSON(t, w, &users)
	if len(users) != 2 {
		t.Fatalf("Expected 2 users, got %d", len(users))
	}
	if users[0].Username != "root" || users[1].Username != "alice" {
		t.Errorf("Expected creation order, got %s, %s", users[0].Username, users[1].Username)
	}
}

func TestUpdateRole(t *testing.T) {
	env := testutil.NewEnv(t)
	handler := NewAdminHandler(env.DB, env.Cfg)
	admin := testutil.CreateTestUser(t, env.DB, "root", auth.RoleAdmin)
	alice := testutil.CreateTestUser(t, env.DB, "alice", auth.RoleViewer)

	update := func(targetID, role string) *httptest.ResponseRecorder {
		req := testutil.MakeRequest("PATCH", "/api/admin/users/"+targetID+"/role", models.UpdateRoleRequest{Role: role}, nil)
		req.SetPathValue("id", targetID)
		w := httptest.NewRecorder()
		handler.UpdateRole(w, asUser(req, admin))
		return w
	}

	t.Run("promote", func(t *testing.T) {
		w := update(alice.ID, auth.RoleAnalyst)
		testutil.AssertStatus(t, w, http.StatusOK)
		var got models.User
		testutil.AssertJSON(t, w, &got)
		if got.Role != auth.RoleAnalyst {
			t.Errorf("Expected analyst, got %q", got.Role)
		}
		stored, err := env.DB.UserByID(context.Background(), alice.ID)
		if err != nil {
			t.Fatal(err)
		}
		if stored.Role != auth.RoleAnalyst {
			t.Errorf("Role not persisted: %q", stored.Role)
		}
	})

	testCases := []struct {
		name   string
		target string
		role   string
		want   int
	}{
		{"unknown role", alice.ID, "root", http.StatusBadRequest},
		{"empty role", alice.ID, "", http.StatusBadRequest},
		{"demote self", admin.ID, auth.RoleViewer, http.StatusBadRequest},
		{"unknown user", "missing", auth.RoleViewer, http.StatusNotFound},
		{"keep own admin", admin.ID, auth.RoleAdmin, http.StatusOK},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			testutil.AssertStatus(t, update(tc.target, tc.role), tc.want)
		})
	}
}

func TestDeleteUser(t *testing.T) {
	env := testutil.NewEnv(t)
	handler := NewAdminHandler(env.DB, env.Cfg)
	admin := testutil.CreateTestUser(t, env.DB, "root", auth.RoleAdmin)
	alice := testutil.CreateTestUser(t, env.DB, "alice", auth.RoleAnalyst)
	dataset := insertDataset(t, env, alice, "alice.csv", channelsCSV)
	insertPrediction(t, env.DB, alice, 10, "Low", time.Now())

	remove := func(targetID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("DELETE", "/api/admin/users/"+targetID, nil)
		req.SetPathValue("id", targetID)
		w := httptest.NewRecorder()
		handler.DeleteUser(w, asUser(req, admin))
		return w
	}

	t.Run("self", func(t *testing.T) {
		testutil.AssertStatus(t, remove(admin.ID), http.StatusBadRequest)
	})

	t.Run("unknown", func(t *testing.T) {
		testutil.AssertStatus(t, remove("missing"), http.StatusNotFound)
	})

	t.Run("removes user data", func(t *testing.T) {
		testutil.AssertStatus(t, remove(alice.ID), http.StatusOK)

		if _, err := env.DB.UserByID(context.Background(), alice.ID); !errors.Is(err, db.ErrNotFound) {
			t.Errorf("Expected user to be gone, got %v", err)
		}
		if n := countRows(t, env.DB, `SELECT COUNT(*) FROM dataset WHERE uploaded_by = ?`, alice.ID); n != 0 {
			t.Errorf("Datasets not removed: %d", n)
		}
		if n := countRows(t, env.DB, `SELECT COUNT(*) FROM prediction WHERE predicted_by = ?`, alice.ID); n != 0 {
			t.Errorf("Predictions not removed: %d", n)
		}
		if _, err := os.Stat(dataset.FilePath); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("Dataset file not removed: %v", err)
		}
	})
}

func TestEnsureAdmin(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	ctx := context.Background()

	created, err := EnsureAdmin(ctx, conn, "", "", "")
	if err != nil || created {
		t.Fatalf("Empty username should be a no-op, got %v, %v", created, err)
	}

	created, err = EnsureAdmin(ctx, conn, "root", "", "bootstrap-pass")
	if err != nil {
		t.Fatal(err)
	}
	if !created {
		t.Fatal("Expected admin to be created")
	}

	u, err := conn.UserByUsername(ctx, "root")
	if err != nil {
		t.Fatal(err)
	}
	if u.Role != auth.RoleAdmin || u.Email != "root@localhost" {
		t.Errorf("Unexpected admin %+v", u)
	}
	if err := auth.CheckPassword(u.HashedPassword, "bootstrap-pass"); err != nil {
		t.Errorf("Admin password not set: %v", err)
	}

	created, err = EnsureAdmin(ctx, conn, "root", "", "other-pass")
	if err != nil || created {
		t.Errorf("Second call should be a no-op, got %v, %v", created, err)
	}
}
