// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package influence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clusters returns three well-separated groups of 2-D points.
func clusters() ([][]float64, []int) {
	var X [][]float64
	var y []int
	for c, center := range []float64{-1, 0, 1} {
		for i := 0; i < 6; i++ {
			off := float64(i)*0.04 - 0.1
			X = append(X, []float64{center + off, center - off})
			y = append(y, c)
		}
	}
	return X, y
}

func TestLogisticRegression(t *testing.T) {
	X, y := clusters()
	m := NewLogisticRegression()
	require.NoError(t, m.Fit(context.Background(), X, y, 3))
	require.True(t, m.fitted())

	assert.Equal(t, 0, m.Predict([]float64{-1, -1}))
	assert.Equal(t, 1, m.Predict([]float64{0, 0}))
	assert.Equal(t, 2, m.Predict([]float64{1, 1}))

	p := m.Probabilities([]float64{1, 1})
	assert.InDelta(t, 1.0, p[0]+p[1]+p[2], 1e-9)
}

func TestLogisticRegressionRejectsSingleClass(t *testing.T) {
	m := NewLogisticRegression()
	assert.Error(t, m.Fit(context.Background(), [][]float64{{1}}, []int{0}, 1))
}

func TestLogisticRegressionCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	X, y := clusters()
	assert.ErrorIs(t, NewLogisticRegression().Fit(ctx, X, y, 3), context.Canceled)
}

func TestRandomForest(t *testing.T) {
	X, y := clusters()
	f := NewRandomForest(7)
	require.NoError(t, f.Fit(context.Background(), X, y, 3))
	require.Len(t, f.Trees, 100)
	require.True(t, f.fitted())

	assert.Equal(t, 0, f.Predict([]float64{-1, -1}))
	assert.Equal(t, 1, f.Predict([]float64{0, 0}))
	assert.Equal(t, 2, f.Predict([]float64{1, 1}))
}

func TestRandomForestFitted(t *testing.T) {
	leaf := func(c int) *treeNode { return &treeNode{Leaf: true, Class: c} }
	split := func(feature int, left, right *treeNode) *treeNode {
		return &treeNode{Feature: feature, Left: left, Right: right}
	}

	tests := []struct {
		name  string
		trees []*treeNode
		want  bool
	}{
		{"complete", []*treeNode{split(1, leaf(0), leaf(1)), leaf(1)}, true},
		{"no trees", nil, false},
		{"nil tree", []*treeNode{leaf(0), nil}, false},
		{"leaf class out of range", []*treeNode{leaf(2)}, false},
		{"negative leaf class", []*treeNode{leaf(-1)}, false},
		{"missing child", []*treeNode{split(0, leaf(0), nil)}, false},
		{"feature out of range", []*treeNode{split(2, leaf(0), leaf(1))}, false},
		{"nested bad leaf", []*treeNode{split(0, leaf(0), split(1, leaf(1), leaf(7)))}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &RandomForest{NumClasses: 2, NumFeatures: 2, Trees: tt.trees}
			assert.Equal(t, tt.want, f.fitted())
		})
	}
}

func TestLogisticRegressionFitted(t *testing.T) {
	tests := []struct {
		name    string
		weights [][]float64
		want    bool
	}{
		{"rectangular", [][]float64{{1, 2}, {3, 4}}, true},
		{"empty", nil, false},
		{"bias only", [][]float64{{1, 2}}, false},
		{"single class", [][]float64{{1}, {2}}, false},
		{"ragged", [][]float64{{1, 2}, {3}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &LogisticRegression{Weights: tt.weights}
			assert.Equal(t, tt.want, m.fitted())
		})
	}
}

func TestRandomForestDeterministic(t *testing.T) {
	X, y := clusters()
	a, b := NewRandomForest(42), NewRandomForest(42)
	require.NoError(t, a.Fit(context.Background(), X, y, 3))
	require.NoError(t, b.Fit(context.Background(), X, y, 3))

	assert.Equal(t, a.Trees, b.Trees)
}

func TestRandomForestCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	X, y := clusters()
	assert.ErrorIs(t, NewRandomForest(1).Fit(ctx, X, y, 3), context.Canceled)
}

func TestEvaluate(t *testing.T) {
	e := evaluate("m", []int{0, 0, 1, 1}, []int{0, 1, 1, 1}, 2)

	assert.Equal(t, "m", e.ModelName)
	assert.InDelta(t, 0.75, e.Accuracy, 1e-9)
	assert.InDelta(t, (1+2.0/3)/2, e.Precision, 1e-9)
	assert.InDelta(t, 0.75, e.Recall, 1e-9)
	assert.InDelta(t, (2.0/3+0.8)/2, e.F1Score, 1e-9)
}

func TestEvaluateZeroDivision(t *testing.T) {
	e := evaluate("m", []int{0, 0}, []int{1, 1}, 2)
	assert.Equal(t, Evaluation{ModelName: "m"}, e)
}
