package indicators

import "math"

// DirectionalIndex holds ADX with its positive and negative directional lines.
type DirectionalIndex struct {
	ADX     []float64
	PlusDI  []float64
	MinusDI []float64
}

// CalculateADX computes the Average Directional Index using Wilder smoothing.
// ADX values become meaningful from index 2*period onward.
func CalculateADX(highs, lows, closes []float64, period int) DirectionalIndex {
	length := len(closes)
	out := DirectionalIndex{
		ADX:     make([]float64, length),
		PlusDI:  make([]float64, length),
		MinusDI: make([]float64, length),
	}
	if period <= 0 || length < period+1 {
		return out
	}

	plusDM := make([]float64, length)
	minusDM := make([]float64, length)
	trs := make([]float64, length)
	for i := 1; i < length; i++ {
		upMove := highs[i] - highs[i-1]
		downMove := lows[i-1] - lows[i]
		if upMove > downMove && upMove > 0 {
			plusDM[i] = upMove
		}
		if downMove > upMove && downMove > 0 {
			minusDM[i] = downMove
		}

		hl := highs[i] - lows[i]
		hc := math.Abs(highs[i] - closes[i-1])
		lc := math.Abs(lows[i] - closes[i-1])
		trs[i] = math.Max(hl, math.Max(hc, lc))
	}

	var smTR, smPlus, smMinus float64
	for i := 1; i <= period; i++ {
		smTR += trs[i]
		smPlus += plusDM[i]
		smMinus += minusDM[i]
	}

	dx := make([]float64, length)
	setDI := func(i int) {
		if smTR == 0 {
			return
		}
		out.PlusDI[i] = 100 * smPlus / smTR
		out.MinusDI[i] = 100 * smMinus / smTR
		sum := out.PlusDI[i] + out.MinusDI[i]
		if sum > 0 {
			dx[i] = 100 * math.Abs(out.PlusDI[i]-out.MinusDI[i]) / sum
		}
	}
	setDI(period)

	for i := period + 1; i < length; i++ {
		smTR = smTR - smTR/float64(period) + trs[i]
		smPlus = smPlus - smPlus/float64(period) + plusDM[i]
		smMinus = smMinus - smMinus/float64(period) + minusDM[i]
		setDI(i)
	}

	if length < 2*period {
		return out
	}
	sumDX := 0.0
	for i := period; i < 2*period; i++ {
		sumDX += dx[i]
	}
	out.ADX[2*period-1] = sumDX / float64(period)
	for i := 2 * period; i < length; i++ {
		out.ADX[i] = (out.ADX[i-1]*float64(period-1) + dx[i]) / float64(period)
	}

	return out
}
