package shapley

import "math"

// zeroSumEpsilon treats raw totals this close to zero as degenerate. The
// all-zero evaluator produces an exact 0.0; the epsilon only guards against
// cancellation noise from mixed-sign marginals.
const zeroSumEpsilon = 1e-12

// Normalize rescales raw per-touchpoint values so they sum to 1.
//
// When the raw total is zero, meaning every marginal contribution evaluated
// to nothing, dividing would produce NaN, so the fallback is an explicit
// uniform 1/n split. The returned total is always the true raw sum, never
// rounded: a genuinely zero game reports exactly 0, while a mixed-sign total
// inside the epsilon guard keeps its tiny value, so callers can tell the two
// apart even though both take the uniform split.
func Normalize(raw map[string]float64) (map[string]float64, float64) {
	values := make(map[string]float64, len(raw))

	total := 0.0
	for _, v := range raw {
		total += v
	}

	if math.Abs(total) < zeroSumEpsilon {
		uniform := 1.0 / float64(len(raw))
		for id := range raw {
			values[id] = uniform
		}
		return values, total
	}

	for id, v := range raw {
		values[id] = v / total
	}
	return values, total
}
