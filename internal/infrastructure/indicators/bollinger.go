package indicators

import "math"

type BollingerBands struct {
	Upper  []float64
	Middle []float64
	Lower  []float64
}

// CalculateBollingerBands computes Bollinger Bands over a simple moving
// average with the given standard-deviation multiplier.
func CalculateBollingerBands(closes []float64, period int, multiplier float64) BollingerBands {
	length := len(closes)
	bands := BollingerBands{
		Upper:  make([]float64, length),
		Middle: make([]float64, length),
		Lower:  make([]float64, length),
	}
	if period <= 0 || length < period {
		return bands
	}

	for i := period - 1; i < length; i++ {
		sum := 0.0
		for j := 0; j < period; j++ {
			sum += closes[i-j]
		}
		ma := sum / float64(period)
		bands.Middle[i] = ma

		sumSqDiff := 0.0
		for j := 0; j < period; j++ {
			diff := closes[i-j] - ma
			sumSqDiff += diff * diff
		}
		stdDev := math.Sqrt(sumSqDiff / float64(period))

		bands.Upper[i] = ma + (multiplier * stdDev)
		bands.Lower[i] = ma - (multiplier * stdDev)
	}

	return bands
}
