package strategy

import "tradebot-backend/internal/domain"

func init() {
	register("candle_patterns",
		func(domain.StrategyParams) int { return 2 },
		analyzeEngulfing)
	register("star_reversal",
		func(domain.StrategyParams) int { return 3 },
		analyzeStarReversal)
}

// analyzeEngulfing detects two-candle engulfing patterns.
func analyzeEngulfing(candles []domain.Candle, _ domain.StrategyParams) domain.Signal {
	if len(candles) < 2 {
		return domain.SignalNone
	}

	last := candles[len(candles)-1]
	prev := candles[len(candles)-2]

	bullish := prev.Bearish() && last.Bullish() &&
		last.Close > prev.Open && last.Open < prev.Close
	if bullish {
		return domain.SignalUp
	}

	bearish := prev.Bullish() && last.Bearish() &&
		last.Close < prev.Open && last.Open > prev.Close
	if bearish {
		return domain.SignalDown
	}
	return domain.SignalNone
}

// analyzeStarReversal detects three-candle morning star (bottom, up) and
// evening star (top, down) patterns.
func analyzeStarReversal(candles []domain.Candle, _ domain.StrategyParams) domain.Signal {
	if len(candles) < 3 {
		return domain.SignalNone
	}

	c0 := candles[len(candles)-3]
	c1 := candles[len(candles)-2]
	c2 := candles[len(candles)-1]
	midpoint := (c0.Open + c0.Close) / 2

	morningStar := c0.Bearish() &&
		c1.Body() < c0.Body() && c1.Close < c0.Close &&
		c2.Bullish() && c2.Close > midpoint
	if morningStar {
		return domain.SignalUp
	}

	eveningStar := c0.Bullish() &&
		c1.Body() < c0.Body() && c1.Close > c0.Close &&
		c2.Bearish() && c2.Close < midpoint
	if eveningStar {
		return domain.SignalDown
	}
	return domain.SignalNone
}
