// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package influence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScaler(t *testing.T) {
	s := FitScaler([][]float64{{1, 5}, {3, 5}})

	assert.Equal(t, []float64{2, 5}, s.Mean)
	assert.Equal(t, []float64{1, 1}, s.Scale, "constant column keeps unit scale")
	assert.Equal(t, []float64{1, 0}, s.Transform([]float64{3, 5}))
	assert.Equal(t, [][]float64{{-1, 0}, {1, 0}}, s.TransformAll([][]float64{{1, 5}, {3, 5}}))
}

func TestScalerEmpty(t *testing.T) {
	s := FitScaler(nil)
	assert.Empty(t, s.Mean)
}
