package indicators

// CalculateRSI computes the Relative Strength Index with Wilder smoothing.
// Entries before the first full period are zero.
func CalculateRSI(closes []float64, period int) []float64 {
	rsi := make([]float64, len(closes))
	if period <= 0 || len(closes) < period+1 {
		return rsi
	}

	gains := make([]float64, len(closes)-1)
	losses := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i-1] = change
		} else {
			losses[i-1] = -change
		}
	}

	sumGain, sumLoss := 0.0, 0.0
	for i := 0; i < period; i++ {
		sumGain += gains[i]
		sumLoss += losses[i]
	}
	avgGain := sumGain / float64(period)
	avgLoss := sumLoss / float64(period)

	set := func(i int) {
		if avgLoss == 0 {
			rsi[i] = 100
			return
		}
		rs := avgGain / avgLoss
		rsi[i] = 100 - (100 / (1 + rs))
	}
	set(period)

	for i := period + 1; i < len(closes); i++ {
		avgGain = ((avgGain * float64(period-1)) + gains[i-1]) / float64(period)
		avgLoss = ((avgLoss * float64(period-1)) + losses[i-1]) / float64(period)
		set(i)
	}

	return rsi
}
