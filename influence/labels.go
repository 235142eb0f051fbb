// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package influence

import (
	"math/rand/v2"
	"strings"
	"unicode"
	"unicode/utf8"

	"gonum.org/v1/gonum/floats"
)

// Level is an influence tier.
type Level string

const (
	LevelLow    Level = "Low"
	LevelMedium Level = "Medium"
	LevelHigh   Level = "High"
)

const (
	highFollowers   = 100_000
	mediumFollowers = 10_000

	lowerQuantile = 0.33
	upperQuantile = 0.66

	jitterSigma = 0.01
	jitterSeed  = 42
)

// Valid reports whether l is one of the three tiers.
func (l Level) Valid() bool {
	return l == LevelLow || l == LevelMedium || l == LevelHigh
}

// NormalizeLabel maps a raw label cell to a tier: trimmed and capitalized,
// "Viral" counts as High and anything unrecognized as Low.
func NormalizeLabel(raw string) Level {
	l := Level(capitalize(strings.TrimSpace(raw)))
	if l == "Viral" {
		return LevelHigh
	}
	if !l.Valid() {
		return LevelLow
	}
	return l
}

// SynthesizeLabels assigns tiers from follower counts when a dataset has no
// label column. Fixed thresholds are tried first; when they put everyone in
// one tier, the 33rd and 66th percentiles are used instead.
func SynthesizeLabels(followers []float64) []Level {
	labels := make([]Level, len(followers))
	for i, f := range followers {
		switch {
		case f > highFollowers:
			labels[i] = LevelHigh
		case f > mediumFollowers:
			labels[i] = LevelMedium
		default:
			labels[i] = LevelLow
		}
	}
	if len(followers) == 0 || distinctLevels(labels) >= 2 {
		return labels
	}

	values := followers
	q33, q66 := quantiles(values)
	if q33 == q66 || q66 == floats.Max(values) {
		// Identical or heavily tied counts: break ties with tiny noise so
		// the percentiles separate. Seeded so retraining is reproducible.
		rng := rand.New(rand.NewPCG(jitterSeed, jitterSeed))
		values = make([]float64, len(followers))
		for i, f := range followers {
			values[i] = f + rng.NormFloat64()*jitterSigma
		}
		q33, q66 = quantiles(values)
	}

	for i, v := range values {
		switch {
		case v >= q66:
			labels[i] = LevelHigh
		case v >= q33:
			labels[i] = LevelMedium
		default:
			labels[i] = LevelLow
		}
	}
	return labels
}

// quantiles returns the 33rd and 66th percentiles, linearly interpolated at
// (n-1)*p like the viral threshold.
func quantiles(values []float64) (lower, upper float64) {
	return linearQuantile(values, lowerQuantile), linearQuantile(values, upperQuantile)
}

func distinctLevels(labels []Level) int {
	seen := make(map[Level]struct{}, 3)
	for _, l := range labels {
		seen[l] = struct{}{}
	}
	return len(seen)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
