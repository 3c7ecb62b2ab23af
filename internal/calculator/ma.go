package calculator

// SMA computes the trailing simple moving average over window bars.
// The first window-1 entries are NaN.
func SMA(closes []float64, window int) []float64 {
	out := undefined(len(closes))
	if window <= 0 {
		return out
	}
	sum := 0.0
	for i, c := range closes {
		sum += c
		if i >= window {
			sum -= closes[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		}
	}
	return out
}

// EMA computes the exponential moving average with alpha = 2/(span+1),
// seeded by the first value and defined from index 0.
func EMA(series []float64, span int) []float64 {
	out := undefined(len(series))
	if span <= 0 || len(series) == 0 {
		return out
	}
	alpha := 2.0 / float64(span+1)
	out[0] = series[0]
	for i := 1; i < len(series); i++ {
		out[i] = smooth(out[i-1], series[i], alpha)
	}
	return out
}
