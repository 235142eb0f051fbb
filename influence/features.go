// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package influence

// FeatureNames lists the model inputs in the order Sample.Features returns them.
var FeatureNames = []string{"followers", "likes", "shares", "comments", "engagement_rate"}

// Sample is one account row after column mapping and cleaning.
type Sample struct {
	Followers      float64
	Likes          float64
	Shares         float64
	Comments       float64
	EngagementRate float64
	Label          Level
}

// Features returns the model input vector.
func (s Sample) Features() []float64 {
	return []float64{s.Followers, s.Likes, s.Shares, s.Comments, s.EngagementRate}
}

// EngagementRate is (likes+shares+comments)/(followers+1). A non-positive
// denominator, only possible with negative follower counts, yields 0.
func EngagementRate(followers, likes, shares, comments float64) float64 {
	denom := followers + 1
	if denom <= 0 {
		return 0
	}
	return (likes + shares + comments) / denom
}

// Preprocess maps the table's columns, coerces numbers and attaches a label
// to every row, either from the dataset's label column or synthesized from
// follower counts.
func Preprocess(t *Table) []Sample {
	cols := MapTrainingColumns(t.Header)

	samples := make([]Sample, t.Len())
	followers := make([]float64, t.Len())
	for i := range samples {
		s := Sample{
			Followers: t.Number(i, cols, ColFollowers),
			Likes:     t.Number(i, cols, ColLikes),
			Shares:    t.Number(i, cols, ColShares),
			Comments:  t.Number(i, cols, ColComments),
		}
		s.EngagementRate = EngagementRate(s.Followers, s.Likes, s.Shares, s.Comments)
		samples[i] = s
		followers[i] = s.Followers
	}

	if idx, ok := cols[ColLabel]; ok {
		for i := range samples {
			samples[i].Label = NormalizeLabel(t.Cell(i, idx))
		}
		return samples
	}

	for i, l := range SynthesizeLabels(followers) {
		samples[i].Label = l
	}
	return samples
}
