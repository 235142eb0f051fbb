// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package influence

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"time"
)

const (
	ModelLogisticRegression = "Logistic Regression"
	ModelRandomForest       = "Random Forest"

	// MinTrainingSamples is the smallest dataset Train accepts.
	MinTrainingSamples = 5

	testFraction = 0.2
	splitSeed    = 42
)

var (
	ErrInsufficientData = fmt.Errorf("not enough data to train, upload at least %d records", MinTrainingSamples)
	ErrNoLabelDiversity = errors.New("dataset lacks diversity: only one influence level found")
	ErrInvalidInput     = errors.New("followers, likes, shares and comments must not be negative")
)

type classifier interface {
	Fit(ctx context.Context, X [][]float64, y []int, numClasses int) error
	Predict(x []float64) int
}

// Model is a trained influence classifier with the scaler fitted on its
// training split. Exactly one of Logistic and Forest is set, matching Name.
type Model struct {
	Name        string              `json:"name"`
	Classes     []Level             `json:"classes"`
	Scaler      *Scaler             `json:"scaler"`
	Logistic    *LogisticRegression `json:"logistic,omitempty"`
	Forest      *RandomForest       `json:"forest,omitempty"`
	Evaluations []Evaluation        `json:"evaluations"`
	TrainedAt   time.Time           `json:"trained_at"`
	SampleCount int                 `json:"sample_count"`
}

// Input is the raw account statistics a prediction is made from.
type Input struct {
	Followers float64
	Likes     float64
	Shares    float64
	Comments  float64
}

// Prediction is a predicted tier and a 0-100 heuristic score.
type Prediction struct {
	Level Level
	Score float64
}

// Train preprocesses the table, fits every candidate on a stratified 80/20
// split and returns the one with the highest weighted F1. On a tie the
// earlier candidate wins.
func Train(ctx context.Context, t *Table) (*Model, error) {
	samples := Preprocess(t)
	if len(samples) < MinTrainingSamples {
		return nil, ErrInsufficientData
	}

	labels := make([]Level, len(samples))
	for i, s := range samples {
		labels[i] = s.Label
	}
	classes := slices.Clone(labels)
	slices.Sort(classes)
	classes = slices.Compact(classes)
	if len(classes) < 2 {
		return nil, ErrNoLabelDiversity
	}

	X := make([][]float64, len(samples))
	y := make([]int, len(samples))
	for i, s := range samples {
		X[i] = s.Features()
		y[i] = slices.Index(classes, s.Label)
	}

	trainIdx, testIdx := stratifiedSplit(y, len(classes), testFraction, splitSeed)
	Xtrain, ytrain := pick(X, y, trainIdx)
	Xtest, ytest := pick(X, y, testIdx)

	scaler := FitScaler(Xtrain)
	Xtrain = scaler.TransformAll(Xtrain)
	Xtest = scaler.TransformAll(Xtest)

	lr := NewLogisticRegression()
	rf := NewRandomForest(splitSeed)
	candidates := []struct {
		name string
		clf  classifier
	}{
		{ModelLogisticRegression, lr},
		{ModelRandomForest, rf},
	}

	m := &Model{
		Classes:     classes,
		Scaler:      scaler,
		TrainedAt:   time.Now().UTC(),
		SampleCount: len(samples),
	}
	for _, c := range candidates {
		if err := c.clf.Fit(ctx, Xtrain, ytrain, len(classes)); err != nil {
			return nil, fmt.Errorf("failed to fit %s: %w", c.name, err)
		}
		pred := make([]int, len(Xtest))
		for i, x := range Xtest {
			pred[i] = c.clf.Predict(x)
		}
		ev := evaluate(c.name, ytest, pred, len(classes))
		m.Evaluations = append(m.Evaluations, ev)
	}
	m.Name = selectBest(m.Evaluations)

	switch m.Name {
	case ModelLogisticRegression:
		m.Logistic = lr
	case ModelRandomForest:
		m.Forest = rf
	}
	return m, nil
}

// selectBest returns the name of the evaluation with the highest weighted F1.
// A later candidate must score strictly higher to win, so ties keep the
// earlier one.
func selectBest(evals []Evaluation) string {
	var name string
	bestF1 := math.Inf(-1)
	for _, e := range evals {
		if e.F1Score > bestF1 {
			bestF1 = e.F1Score
			name = e.ModelName
		}
	}
	return name
}

// Best returns the evaluation of the selected candidate.
func (m *Model) Best() Evaluation {
	for _, e := range m.Evaluations {
		if e.ModelName == m.Name {
			return e
		}
	}
	return Evaluation{ModelName: m.Name}
}

// Predict classifies in and computes its influence score,
// clamp(log10(followers+1) * rate * 10, 0, 100) rounded to two decimals.
func (m *Model) Predict(in Input) (Prediction, error) {
	if in.Followers < 0 || in.Likes < 0 || in.Shares < 0 || in.Comments < 0 {
		return Prediction{}, ErrInvalidInput
	}
	clf := m.classifier()
	if clf == nil || m.Scaler == nil || len(m.Scaler.Mean) != len(FeatureNames) || len(m.Classes) == 0 {
		return Prediction{}, ErrNotTrained
	}

	rate := EngagementRate(in.Followers, in.Likes, in.Shares, in.Comments)
	x := m.Scaler.Transform([]float64{in.Followers, in.Likes, in.Shares, in.Comments, rate})
	idx := clf.Predict(x)
	if idx < 0 || idx >= len(m.Classes) {
		return Prediction{}, fmt.Errorf("classifier returned unknown class %d", idx)
	}

	score := math.Log10(in.Followers+1) * rate * 10
	score = math.Min(100, math.Max(0, score))
	return Prediction{
		Level: m.Classes[idx],
		Score: math.Round(score*100) / 100,
	}, nil
}

// validate checks that a decoded model can serve predictions: the named
// classifier is fitted and its shape agrees with the feature set, the scaler
// and the class labels.
func (m *Model) validate() error {
	var numClasses, numFeatures int
	switch clf := m.classifier().(type) {
	case *LogisticRegression:
		numClasses, numFeatures = len(clf.Weights[0]), len(clf.Weights)-1
	case *RandomForest:
		numClasses, numFeatures = clf.NumClasses, clf.NumFeatures
	default:
		return fmt.Errorf("no fitted %q classifier", m.Name)
	}
	if numFeatures != len(FeatureNames) {
		return fmt.Errorf("classifier expects %d features, want %d", numFeatures, len(FeatureNames))
	}
	if numClasses != len(m.Classes) {
		return fmt.Errorf("classifier has %d classes but %d labels", numClasses, len(m.Classes))
	}
	if m.Scaler == nil || len(m.Scaler.Mean) != len(FeatureNames) || len(m.Scaler.Scale) != len(FeatureNames) {
		return errors.New("scaler does not match the feature set")
	}
	return nil
}

func (m *Model) classifier() classifier {
	switch {
	case m.Name == ModelLogisticRegression && m.Logistic != nil && m.Logistic.fitted():
		return m.Logistic
	case m.Name == ModelRandomForest && m.Forest != nil && m.Forest.fitted():
		return m.Forest
	}
	return nil
}

func pick(X [][]float64, y []int, idx []int) ([][]float64, []int) {
	xs := make([][]float64, len(idx))
	ys := make([]int, len(idx))
	for i, j := range idx {
		xs[i] = X[j]
		ys[i] = y[j]
	}
	return xs, ys
}
