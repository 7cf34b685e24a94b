package indicators

// CalculateSMA computes the Simple Moving Average. Entries before the first
// full window are zero.
func CalculateSMA(data []float64, period int) []float64 {
	sma := make([]float64, len(data))
	if period <= 0 || len(data) < period {
		return sma
	}

	sum := 0.0
	for i, v := range data {
		sum += v
		if i >= period {
			sum -= data[i-period]
		}
		if i >= period-1 {
			sma[i] = sum / float64(period)
		}
	}
	return sma
}

// CalculateEMA computes the Exponential Moving Average, seeded with an SMA
// over the first period.
func CalculateEMA(data []float64, period int) []float64 {
	ema := make([]float64, len(data))
	if period <= 0 || len(data) < period {
		return ema
	}

	k := 2.0 / (float64(period) + 1.0)

	sum := 0.0
	for i := 0; i < period; i++ {
		sum += data[i]
	}
	ema[period-1] = sum / float64(period)

	for i := period; i < len(data); i++ {
		ema[i] = (data[i] * k) + (ema[i-1] * (1 - k))
	}
	return ema
}
