// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package influence

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

// RandomForest is an ensemble of CART trees grown on bootstrap samples,
// each split choosing among a random subset of sqrt(d) features.
// Prediction is by majority vote.
type RandomForest struct {
	NumTrees        int    `json:"num_trees"`
	MaxDepth        int    `json:"max_depth"`
	MinSamplesSplit int    `json:"min_samples_split"`
	Seed            uint64 `json:"seed"`

	NumClasses  int         `json:"num_classes"`
	NumFeatures int         `json:"num_features"`
	Trees       []*treeNode `json:"trees"`
}

// treeNode is either a leaf carrying a class or a split on
// feature <= threshold (left) versus > threshold (right).
type treeNode struct {
	Leaf      bool      `json:"leaf,omitempty"`
	Class     int       `json:"class"`
	Feature   int       `json:"feature,omitempty"`
	Threshold float64   `json:"threshold,omitempty"`
	Left      *treeNode `json:"left,omitempty"`
	Right     *treeNode `json:"right,omitempty"`
}

// maxTreeDepth bounds the depth accepted from a stored model.
const maxTreeDepth = 64

func NewRandomForest(seed uint64) *RandomForest {
	return &RandomForest{NumTrees: 100, MaxDepth: 32, MinSamplesSplit: 2, Seed: seed}
}

func (f *RandomForest) Fit(ctx context.Context, X [][]float64, y []int, numClasses int) error {
	if len(X) == 0 || numClasses < 2 {
		return errors.New("random forest needs samples from at least two classes")
	}
	f.NumClasses = numClasses
	f.NumFeatures = len(X[0])
	f.Trees = make([]*treeNode, f.NumTrees)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for t := 0; t < f.NumTrees; t++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			// One stream per tree keeps the result independent of scheduling.
			rng := rand.New(rand.NewPCG(f.Seed, uint64(t)))
			b := &treeBuilder{X: X, y: y, k: numClasses, rng: rng, maxDepth: f.MaxDepth, minSplit: f.MinSamplesSplit}

			idx := make([]int, len(X))
			for i := range idx {
				idx[i] = rng.IntN(len(X))
			}
			f.Trees[t] = b.grow(idx, 0)
			return nil
		})
	}
	return g.Wait()
}

func (f *RandomForest) Predict(x []float64) int {
	votes := make([]float64, f.NumClasses)
	for _, t := range f.Trees {
		votes[t.predict(x)]++
	}
	return argmax(votes)
}

// fitted reports whether every tree is complete and can be walked without
// leaving the feature vector or the class range.
func (f *RandomForest) fitted() bool {
	if f.NumClasses < 2 || f.NumFeatures < 1 || len(f.Trees) == 0 {
		return false
	}
	for _, t := range f.Trees {
		if !t.valid(f.NumClasses, f.NumFeatures, 0) {
			return false
		}
	}
	return true
}

func (n *treeNode) valid(numClasses, numFeatures, depth int) bool {
	if n == nil || depth > maxTreeDepth {
		return false
	}
	if n.Leaf {
		return n.Class >= 0 && n.Class < numClasses
	}
	if n.Feature < 0 || n.Feature >= numFeatures {
		return false
	}
	return n.Left.valid(numClasses, numFeatures, depth+1) && n.Right.valid(numClasses, numFeatures, depth+1)
}

func (n *treeNode) predict(x []float64) int {
	for !n.Leaf {
		if x[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Class
}

type treeBuilder struct {
	X        [][]float64
	y        []int
	k        int
	rng      *rand.Rand
	maxDepth int
	minSplit int
}

func (b *treeBuilder) grow(idx []int, depth int) *treeNode {
	counts := make([]float64, b.k)
	for _, i := range idx {
		counts[b.y[i]]++
	}
	majority := argmax(counts)

	if len(idx) < b.minSplit || depth >= b.maxDepth || gini(counts, float64(len(idx))) == 0 {
		return &treeNode{Leaf: true, Class: majority}
	}

	feature, threshold, ok := b.bestSplit(idx)
	if !ok {
		return &treeNode{Leaf: true, Class: majority}
	}

	var left, right []int
	for _, i := range idx {
		if b.X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	return &treeNode{
		Class:     majority,
		Feature:   feature,
		Threshold: threshold,
		Left:      b.grow(left, depth+1),
		Right:     b.grow(right, depth+1),
	}
}

// bestSplit searches a random subset of sqrt(d) features for the split with
// the lowest weighted gini impurity. If none of them can separate the rows,
// the remaining features are tried before giving up.
func (b *treeBuilder) bestSplit(idx []int) (feature int, threshold float64, ok bool) {
	d := len(b.X[0])
	mtry := max(1, int(math.Sqrt(float64(d))))
	order := b.rng.Perm(d)

	bestScore := math.Inf(1)
	for tried, f := range order {
		if tried >= mtry && ok {
			break
		}
		if thr, score, found := b.splitFeature(idx, f); found && score < bestScore {
			feature, threshold, bestScore, ok = f, thr, score, true
		}
	}
	return feature, threshold, ok
}

func (b *treeBuilder) splitFeature(idx []int, f int) (threshold, score float64, found bool) {
	sorted := make([]int, len(idx))
	copy(sorted, idx)
	sort.Slice(sorted, func(i, j int) bool { return b.X[sorted[i]][f] < b.X[sorted[j]][f] })

	n := float64(len(sorted))
	left := make([]float64, b.k)
	right := make([]float64, b.k)
	for _, i := range sorted {
		right[b.y[i]]++
	}

	score = math.Inf(1)
	for pos := 0; pos < len(sorted)-1; pos++ {
		c := b.y[sorted[pos]]
		left[c]++
		right[c]--

		v, next := b.X[sorted[pos]][f], b.X[sorted[pos+1]][f]
		if v == next {
			continue
		}
		nl := float64(pos + 1)
		nr := n - nl
		s := (nl*gini(left, nl) + nr*gini(right, nr)) / n
		if s < score {
			score = s
			threshold = v + (next-v)/2
			found = true
		}
	}
	return threshold, score, found
}

func gini(counts []float64, total float64) float64 {
	if total == 0 {
		return 0
	}
	g := 1.0
	for _, c := range counts {
		p := c / total
		g -= p * p
	}
	return g
}
