// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package influence

import (
	"context"
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

// LogisticRegression is a multinomial (softmax) logistic regression with L2
// regularization, fit by full-batch gradient descent. C is the inverse
// regularization strength.
type LogisticRegression struct {
	C            float64 `json:"c"`
	MaxIter      int     `json:"max_iter"`
	LearningRate float64 `json:"learning_rate"`
	Tol          float64 `json:"tol"`

	// Weights has one row per feature plus a trailing bias row,
	// and one column per class.
	Weights [][]float64 `json:"weights"`
}

func NewLogisticRegression() *LogisticRegression {
	return &LogisticRegression{C: 1, MaxIter: 1000, LearningRate: 0.3, Tol: 1e-6}
}

func (m *LogisticRegression) Fit(ctx context.Context, X [][]float64, y []int, numClasses int) error {
	n := len(X)
	if n == 0 || numClasses < 2 {
		return errors.New("logistic regression needs samples from at least two classes")
	}
	d := len(X[0])

	xb := mat.NewDense(n, d+1, nil)
	onehot := mat.NewDense(n, numClasses, nil)
	for i, row := range X {
		for j, v := range row {
			xb.Set(i, j, v)
		}
		xb.Set(i, d, 1)
		onehot.Set(i, y[i], 1)
	}

	w := mat.NewDense(d+1, numClasses, nil)
	probs := mat.NewDense(n, numClasses, nil)
	grad := mat.NewDense(d+1, numClasses, nil)
	lambda := 1 / (m.C * float64(n))

	for iter := 0; iter < m.MaxIter; iter++ {
		if iter%100 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		probs.Mul(xb, w)
		for i := 0; i < n; i++ {
			softmax(probs.RawRowView(i))
		}
		probs.Sub(probs, onehot)

		grad.Mul(xb.T(), probs)
		grad.Scale(1/float64(n), grad)
		// The bias row is not regularized.
		for j := 0; j < d; j++ {
			for k := 0; k < numClasses; k++ {
				grad.Set(j, k, grad.At(j, k)+lambda*w.At(j, k))
			}
		}

		if mat.Norm(grad, math.Inf(1)) < m.Tol {
			break
		}
		grad.Scale(m.LearningRate, grad)
		w.Sub(w, grad)
	}

	m.Weights = make([][]float64, d+1)
	for j := range m.Weights {
		m.Weights[j] = mat.Row(nil, j, w)
	}
	return nil
}

// Probabilities returns the class probabilities for one standardized row.
func (m *LogisticRegression) Probabilities(x []float64) []float64 {
	d := len(m.Weights) - 1
	k := len(m.Weights[d])
	z := make([]float64, k)
	for c := 0; c < k; c++ {
		z[c] = m.Weights[d][c]
		for j := 0; j < d && j < len(x); j++ {
			z[c] += x[j] * m.Weights[j][c]
		}
	}
	softmax(z)
	return z
}

func (m *LogisticRegression) Predict(x []float64) int {
	return argmax(m.Probabilities(x))
}

// fitted reports whether Weights is a rectangular matrix with at least one
// feature row, the bias row and two classes.
func (m *LogisticRegression) fitted() bool {
	if len(m.Weights) < 2 || len(m.Weights[0]) < 2 {
		return false
	}
	for _, row := range m.Weights[1:] {
		if len(row) != len(m.Weights[0]) {
			return false
		}
	}
	return true
}

// softmax replaces z with its softmax in place.
func softmax(z []float64) {
	hi := z[0]
	for _, v := range z[1:] {
		hi = math.Max(hi, v)
	}
	var sum float64
	for i, v := range z {
		z[i] = math.Exp(v - hi)
		sum += z[i]
	}
	for i := range z {
		z[i] /= sum
	}
}

// argmax returns the index of the largest value, preferring the lowest index on ties.
func argmax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}
