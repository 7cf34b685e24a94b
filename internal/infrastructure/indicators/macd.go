package indicators

// MACD holds the MACD line, its signal line and the histogram (line - signal).
type MACD struct {
	Line      []float64
	Signal    []float64
	Histogram []float64
}

// CalculateMACD computes MACD from fast and slow EMAs with an EMA signal
// line. Entries before slow+signal full periods are zero.
func CalculateMACD(closes []float64, fast, slow, signal int) MACD {
	length := len(closes)
	out := MACD{
		Line:      make([]float64, length),
		Signal:    make([]float64, length),
		Histogram: make([]float64, length),
	}
	if fast <= 0 || slow <= fast || length < slow {
		return out
	}

	fastEMA := CalculateEMA(closes, fast)
	slowEMA := CalculateEMA(closes, slow)
	for i := slow - 1; i < length; i++ {
		out.Line[i] = fastEMA[i] - slowEMA[i]
	}

	// Signal line is an EMA of the MACD line, seeded once the line exists.
	if signal <= 0 || length < slow-1+signal {
		return out
	}
	seed := 0.0
	for i := slow - 1; i < slow-1+signal; i++ {
		seed += out.Line[i]
	}
	start := slow - 2 + signal
	out.Signal[start] = seed / float64(signal)
	k := 2.0 / (float64(signal) + 1.0)
	for i := start + 1; i < length; i++ {
		out.Signal[i] = (out.Line[i] * k) + (out.Signal[i-1] * (1 - k))
	}
	for i := start; i < length; i++ {
		out.Histogram[i] = out.Line[i] - out.Signal[i]
	}

	return out
}
