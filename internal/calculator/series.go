package calculator

import "math"

// IsDefined reports whether an indicator value is past its warm-up.
func IsDefined(v float64) bool { return !math.IsNaN(v) }

// Last returns the final value of a series and whether it is defined.
func Last(series []float64) (float64, bool) {
	if len(series) == 0 {
		return math.NaN(), false
	}
	v := series[len(series)-1]
	return v, IsDefined(v)
}

func undefined(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// smooth is the exponential update shared by the Wilder and EMA recurrences.
func smooth(prev, x, alpha float64) float64 {
	return prev + alpha*(x-prev)
}
