package strategy

import "tradebot-backend/internal/domain"

func init() {
	register("fibonacci",
		func(p domain.StrategyParams) int { return p.FibPeriod },
		analyzeFibonacci)
}

// analyzeFibonacci looks for reversals off the 61.8% retracement of the
// recent swing range, confirmed by the direction of the latest candle.
func analyzeFibonacci(candles []domain.Candle, p domain.StrategyParams) domain.Signal {
	if len(candles) < p.FibPeriod {
		return domain.SignalNone
	}

	recent := candles[len(candles)-p.FibPeriod:]
	swingHigh := recent[0].High
	swingLow := recent[0].Low
	for _, c := range recent[1:] {
		if c.High > swingHigh {
			swingHigh = c.High
		}
		if c.Low < swingLow {
			swingLow = c.Low
		}
	}
	priceRange := swingHigh - swingLow
	if priceRange == 0 {
		return domain.SignalNone
	}

	support := swingHigh - 0.618*priceRange
	resistance := swingLow + 0.618*priceRange

	last := candles[len(candles)-1]
	prev := candles[len(candles)-2]

	// Price dipped through the support level and closed back above it.
	if prev.Low <= support && last.Close > support && last.Bullish() {
		return domain.SignalUp
	}
	// Price poked through the resistance level and closed back below it.
	if prev.High >= resistance && last.Close < resistance && last.Bearish() {
		return domain.SignalDown
	}
	return domain.SignalNone
}
