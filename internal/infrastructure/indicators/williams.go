package indicators

// CalculateWilliamsR computes the Williams %R oscillator, ranging 0 to -100.
// Entries before the first full lookback are zero.
func CalculateWilliamsR(highs, lows, closes []float64, period int) []float64 {
	length := len(closes)
	wr := make([]float64, length)
	if period <= 0 || length < period {
		return wr
	}

	for i := period - 1; i < length; i++ {
		highest := highs[i]
		lowest := lows[i]
		for j := 1; j < period; j++ {
			if highs[i-j] > highest {
				highest = highs[i-j]
			}
			if lows[i-j] < lowest {
				lowest = lows[i-j]
			}
		}
		if highest == lowest {
			continue
		}
		wr[i] = (highest - closes[i]) / (highest - lowest) * -100
	}

	return wr
}
