// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package influence

import (
	"math"
	"math/rand/v2"
	"slices"
	"sort"
)

// stratifiedSplit returns train and test row indexes with each class
// represented in proportion to its size. The test set holds
// ceil(testFraction*n) rows; every class keeps at least one training row.
func stratifiedSplit(y []int, numClasses int, testFraction float64, seed uint64) (train, test []int) {
	rng := rand.New(rand.NewPCG(seed, seed))

	byClass := make([][]int, numClasses)
	for i, c := range y {
		byClass[c] = append(byClass[c], i)
	}

	n := len(y)
	nTest := int(math.Ceil(testFraction * float64(n)))

	// Largest-remainder allocation of test slots across classes.
	alloc := make([]int, numClasses)
	type remainder struct {
		class int
		frac  float64
	}
	var rems []remainder
	assigned := 0
	for c, rows := range byClass {
		exact := testFraction * float64(len(rows))
		alloc[c] = min(int(math.Floor(exact)), max(len(rows)-1, 0))
		assigned += alloc[c]
		rems = append(rems, remainder{class: c, frac: exact - math.Floor(exact)})
	}
	sort.SliceStable(rems, func(i, j int) bool { return rems[i].frac > rems[j].frac })
	for assigned < nTest {
		progressed := false
		for _, r := range rems {
			if assigned >= nTest {
				break
			}
			if alloc[r.class] < len(byClass[r.class])-1 {
				alloc[r.class]++
				assigned++
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}

	for c, rows := range byClass {
		rows = slices.Clone(rows)
		rng.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })
		test = append(test, rows[:alloc[c]]...)
		train = append(train, rows[alloc[c]:]...)
	}
	slices.Sort(train)
	slices.Sort(test)
	return train, test
}
