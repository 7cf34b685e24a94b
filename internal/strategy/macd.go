package strategy

import (
	"tradebot-backend/internal/domain"
	"tradebot-backend/internal/infrastructure/indicators"
)

func init() {
	register("macd_histogram",
		func(p domain.StrategyParams) int { return p.MACDSlow },
		analyzeMACDHistogram)
}

// analyzeMACDHistogram signals on histogram zero crossings: up when it turns
// non-negative, down when it turns non-positive.
func analyzeMACDHistogram(candles []domain.Candle, p domain.StrategyParams) domain.Signal {
	if len(candles) < p.MACDSlow+p.MACDSignal {
		return domain.SignalNone
	}

	macd := indicators.CalculateMACD(closes(candles), p.MACDFast, p.MACDSlow, p.MACDSignal)
	last := macd.Histogram[len(candles)-1]
	prev := macd.Histogram[len(candles)-2]

	switch {
	case prev < 0 && last >= 0:
		return domain.SignalUp
	case prev > 0 && last <= 0:
		return domain.SignalDown
	}
	return domain.SignalNone
}
