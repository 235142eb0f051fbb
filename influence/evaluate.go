// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package influence

// Evaluation holds test-split scores for one candidate model. Precision,
// recall and F1 are averaged over classes weighted by support.
type Evaluation struct {
	ModelName string  `json:"model_name"`
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1Score   float64 `json:"f1_score"`
}

// evaluate scores predictions against truth. A class with no predicted or
// no true rows contributes 0 to the metric that would divide by zero.
func evaluate(name string, truth, pred []int, numClasses int) Evaluation {
	e := Evaluation{ModelName: name}
	if len(truth) == 0 {
		return e
	}

	tp := make([]float64, numClasses)
	predicted := make([]float64, numClasses)
	support := make([]float64, numClasses)
	correct := 0.0
	for i := range truth {
		support[truth[i]]++
		predicted[pred[i]]++
		if truth[i] == pred[i] {
			tp[truth[i]]++
			correct++
		}
	}

	n := float64(len(truth))
	e.Accuracy = correct / n
	for c := 0; c < numClasses; c++ {
		if support[c] == 0 {
			continue
		}
		var p, r, f float64
		if predicted[c] > 0 {
			p = tp[c] / predicted[c]
		}
		r = tp[c] / support[c]
		if p+r > 0 {
			f = 2 * p * r / (p + r)
		}
		w := support[c] / n
		e.Precision += w * p
		e.Recall += w * r
		e.F1Score += w * f
	}
	return e
}
