package calculator

import "math"

// FlatRSI is reported when a series has neither gains nor losses in its
// smoothing window.
const FlatRSI = 0.0

// RSIWilder computes the Wilder-smoothed RSI for every bar.
// The averages are seeded by the first price change and updated with
// alpha = 1/period; the first period entries stay NaN.
func RSIWilder(closes []float64, period int) []float64 {
	out := undefined(len(closes))
	if period <= 0 {
		return out
	}

	alpha := 1.0 / float64(period)
	var avgGain, avgLoss float64
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain := math.Max(change, 0)
		loss := math.Max(-change, 0)

		if i == 1 {
			avgGain, avgLoss = gain, loss
		} else {
			avgGain = smooth(avgGain, gain, alpha)
			avgLoss = smooth(avgLoss, loss, alpha)
		}

		if i < period {
			continue
		}
		out[i] = rsiFromAverages(avgGain, avgLoss)
	}
	return out
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain > 0 {
			return 100.0
		}
		return FlatRSI
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}
