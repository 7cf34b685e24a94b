package indicators

// CalculateVWAP computes a rolling Volume Weighted Average Price over the
// given window. Entries before the first full window are zero; a window of
// zero volume yields zero.
func CalculateVWAP(highs, lows, closes, volumes []float64, window int) []float64 {
	length := len(closes)
	vwap := make([]float64, length)
	if window <= 0 || length < window {
		return vwap
	}

	for i := window - 1; i < length; i++ {
		sumTPV := 0.0
		sumVol := 0.0
		for j := 0; j < window; j++ {
			k := i - j
			typical := (highs[k] + lows[k] + closes[k]) / 3.0
			sumTPV += typical * volumes[k]
			sumVol += volumes[k]
		}
		if sumVol > 0 {
			vwap[i] = sumTPV / sumVol
		}
	}

	return vwap
}
