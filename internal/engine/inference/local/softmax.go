package local

import "math"

// softmax converts raw logits into probabilities that sum to 1. The max is
// subtracted first to keep exp from overflowing.
func softmax(logits []float32) []float64 {
	out := make([]float64, len(logits))
	if len(logits) == 0 {
		return out
	}

	hi := float64(logits[0])
	for _, v := range logits[1:] {
		hi = math.Max(hi, float64(v))
	}

	var sum float64
	for i, v := range logits {
		out[i] = math.Exp(float64(v) - hi)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// widen converts model output to float64 without rescaling.
func widen(scores []float32) []float64 {
	out := make([]float64, len(scores))
	for i, v := range scores {
		out[i] = float64(v)
	}
	return out
}
