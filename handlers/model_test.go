// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/danielhkuo/influence-predict/auth"
	"github.com/danielhkuo/influence-predict/influence"
	"github.com/danielhkuo/influence-predict/models"
	"github.com/danielhkuo/influence-predict/testutil"
)

func newModelHandler(t *testing.T) (*ModelHandler, *testutil.Env) {
	t.Helper()
	env := testutil.NewEnv(t)
	return NewModelHandler(env.DB, env.Cfg, influence.NewPredictor(env.Cfg.ModelDir)), env
}

func trainRequest(datasetID string) *http.Request {
	return httptest.NewRequest("POST", "/api/ml/train?dataset_id="+datasetID, nil)
}

func TestTrain(t *testing.T) {
	handler, env := newModelHandler(t)
	user := testutil.CreateTestUser(t, env.DB, "analyst", auth.RoleAnalyst)
	dataset := insertDataset(t, env, user, "accounts.csv", trainingCSV(10))

	w := httptest.NewRecorder()
	handler.Train(w, asUser(trainRequest(dataset.ID), user))

	testutil.AssertStatus(t, w, http.StatusOK)
	var resp models.TrainResponse
	testutil.AssertJSON(t, w, &resp)

	if resp.Message != "Model training completed" || resp.DatasetID != dataset.ID {
		t.Errorf("Unexpected response %+v", resp)
	}
	if resp.BestModel != influence.ModelLogisticRegression && resp.BestModel != influence.ModelRandomForest {
		t.Errorf("Unexpected best model %q", resp.BestModel)
	}
	if len(resp.Metrics) != 2 {
		t.Fatalf("Expected 2 metrics, got %d", len(resp.Metrics))
	}
	best := 0
	for _, m := range resp.Metrics {
		if m.IsBest {
			best++
			if m.ModelName != resp.BestModel {
				t.Errorf("is_best set on %s, best model is %s", m.ModelName, resp.BestModel)
			}
		}
		if m.F1Score < 0 || m.F1Score > 1 || m.Accuracy < 0 || m.Accuracy > 1 {
			t.Errorf("Metric out of range: %+v", m)
		}
	}
	if best != 1 {
		t.Errorf("Expected exactly one best metric, got %d", best)
	}

	if handler.predictor.Current() == nil {
		t.Error("Trained model was not installed")
	}
	if _, err := os.Stat(filepath.Join(env.Cfg.ModelDir, influence.ModelFileName)); err != nil {
		t.Errorf("Model file not written: %v", err)
	}

	t.Run("retraining replaces metrics", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.Train(w, asUser(trainRequest(dataset.ID), user))

		testutil.AssertStatus(t, w, http.StatusOK)
		if n := countRows(t, env.DB, `SELECT COUNT(*) FROM model_metric`); n != 2 {
			t.Errorf("Expected 2 stored metrics after retraining, got %d", n)
		}
	})

	t.Run("metrics endpoint", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.Metrics(w, httptest.NewRequest("GET", "/api/ml/metrics", nil))

		testutil.AssertStatus(t, w, http.StatusOK)
		var got []models.ModelMetric
		testutil.AssertJSON(t, w, &got)
		if len(got) != 2 {
			t.Fatalf("Expected 2 metrics, got %d", len(got))
		}
		if got[0].ModelName != influence.ModelLogisticRegression || got[1].ModelName != influence.ModelRandomForest {
			t.Errorf("Unexpected order: %s, %s", got[0].ModelName, got[1].ModelName)
		}
		if got[0].DatasetID == nil || *got[0].DatasetID != dataset.ID {
			t.Errorf("Metric not linked to dataset")
		}
	})
}

func TestTrainErrors(t *testing.T) {
	handler, env := newModelHandler(t)
	user := testutil.CreateTestUser(t, env.DB, "analyst", auth.RoleAnalyst)

	tooSmall := insertDataset(t, env, user, "small.csv", "followers,likes,shares,comments,influence_label\n10,1,1,1,Low\n20000,5,5,5,High\n")
	oneLabel := insertDataset(t, env, user, "flat.csv", "followers,likes,shares,comments,influence_label\n"+
		"10,1,1,1,Low\n20,1,1,1,Low\n30,1,1,1,Low\n40,1,1,1,Low\n50,1,1,1,Low\n60,1,1,1,Low\n")
	gone := insertDataset(t, env, user, "gone.csv", trainingCSV(3))
	if err := os.Remove(gone.FilePath); err != nil {
		t.Fatal(err)
	}

	testCases := []struct {
		name      string
		datasetID string
		want      int
	}{
		{"missing dataset_id", "", http.StatusBadRequest},
		{"unknown dataset", "does-not-exist", http.StatusNotFound},
		{"file removed", gone.ID, http.StatusNotFound},
		{"too few samples", tooSmall.ID, http.StatusBadRequest},
		{"single label", oneLabel.ID, http.StatusBadRequest},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.Train(w, asUser(trainRequest(tc.datasetID), user))

			testutil.AssertStatus(t, w, tc.want)
		})
	}

	if handler.predictor.Current() != nil {
		t.Error("Failed training runs must not install a model")
	}
	if n := countRows(t, env.DB, `SELECT COUNT(*) FROM model_metric`); n != 0 {
		t.Errorf("Failed training runs stored %d metrics", n)
	}
}

func TestTrainWhileTraining(t *testing.T) {
	handler, env := newModelHandler(t)
	user := testutil.CreateTestUser(t, env.DB, "analyst", auth.RoleAnalyst)
	dataset := insertDataset(t, env, user, "accounts.csv", trainingCSV(5))

	release, err := handler.predictor.TryStartTraining()
	if err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	handler.Train(w, asUser(trainRequest(dataset.ID), user))
	testutil.AssertStatus(t, w, http.StatusConflict)

	release()

	w = httptest.NewRecorder()
	handler.Train(w, asUser(trainRequest(dataset.ID), user))
	testutil.AssertStatus(t, w, http.StatusOK)
}

func TestConcurrentTrainRequests(t *testing.T) {
	handler, env := newModelHandler(t)
	user := testutil.CreateTestUser(t, env.DB, "analyst", auth.RoleAnalyst)
	dataset := insertDataset(t, env, user, "accounts.csv", trainingCSV(5))

	const n = 4
	codes := make([]int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w := httptest.NewRecorder()
			handler.Train(w, asUser(trainRequest(dataset.ID), user))
			codes[i] = w.Code
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, c := range codes {
		switch c {
		case http.StatusOK:
			ok++
		case http.StatusConflict:
		default:
			t.Errorf("Unexpected status %d", c)
		}
	}
	if ok == 0 {
		t.Error("Expected at least one training run to succeed")
	}
	if n := countRows(t, env.DB, `SELECT COUNT(*) FROM model_metric`); n != 2 {
		t.Errorf("Expected 2 stored metrics, got %d", n)
	}
}

func TestPredict(t *testing.T) {
	handler, env := newModelHandler(t)
	user := testutil.CreateTestUser(t, env.DB, "viewer", auth.RoleViewer)
	analyst := testutil.CreateTestUser(t, env.DB, "analyst", auth.RoleAnalyst)

	input := models.PredictRequest{Followers: 999, Likes: 500, Shares: 300, Comments: 200}

	t.Run("before training", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.Predict(w, asUser(testutil.MakeRequest("POST", "/api/ml/predict", input, nil), user))

		testutil.AssertStatus(t, w, http.StatusBadRequest)
		if n := countRows(t, env.DB, `SELECT COUNT(*) FROM prediction`); n != 0 {
			t.Errorf("Failed prediction was stored")
		}
	})

	dataset := insertDataset(t, env, analyst, "accounts.csv", trainingCSV(10))
	w := httptest.NewRecorder()
	handler.Train(w, asUser(trainRequest(dataset.ID), analyst))
	testutil.AssertStatus(t, w, http.StatusOK)

	t.Run("stores prediction", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.Predict(w, asUser(testutil.MakeRequest("POST", "/api/ml/predict", input, nil), user))

		testutil.AssertStatus(t, w, http.StatusOK)
		var resp models.PredictResponse
		testutil.AssertJSON(t, w, &resp)
		if !influence.Level(resp.InfluenceLevel).Valid() {
			t.Errorf("Unexpected level %q", resp.InfluenceLevel)
		}
		// rate = (500+300+200)/(999+1) = 1, log10(1000) = 3
		if resp.InfluenceScore != 30 {
			t.Errorf("Expected score 30, got %v", resp.InfluenceScore)
		}
		if n := countRows(t, env.DB, `SELECT COUNT(*) FROM prediction WHERE predicted_by = ?`, user.ID); n != 1 {
			t.Errorf("Expected 1 stored prediction, got %d", n)
		}
	})

	t.Run("negative input", func(t *testing.T) {
		bad := input
		bad.Likes = -1
		w := httptest.NewRecorder()
		handler.Predict(w, asUser(testutil.MakeRequest("POST", "/api/ml/predict", bad, nil), user))

		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/api/ml/predict", nil, nil)
		w := httptest.NewRecorder()
		handler.Predict(w, asUser(req, user))

		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})
}

func TestModelSurvivesReload(t *testing.T) {
	handler, env := newModelHandler(t)
	user := testutil.CreateTestUser(t, env.DB, "analyst", auth.RoleAnalyst)
	dataset := insertDataset(t, env, user, "accounts.csv", trainingCSV(10))

	w := httptest.NewRecorder()
	handler.Train(w, asUser(trainRequest(dataset.ID), user))
	testutil.AssertStatus(t, w, http.StatusOK)

	reloaded := influence.NewPredictor(env.Cfg.ModelDir)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Failed to load saved model: %v", err)
	}
	in := influence.Input{Followers: 900_000, Likes: 80_000, Shares: 9_000, Comments: 12_000}
	want, err := handler.predictor.Predict(in)
	if err != nil {
		t.Fatal(err)
	}
	got, err := reloaded.Predict(in)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("Reloaded model predicts %+v, original %+v", got, want)
	}
}
