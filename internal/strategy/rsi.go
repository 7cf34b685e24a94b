package strategy

import (
	"tradebot-backend/internal/domain"
	"tradebot-backend/internal/infrastructure/indicators"
)

func init() {
	register("rsi",
		func(p domain.StrategyParams) int { return p.RSIPeriod },
		analyzeRSI)
}

// analyzeRSI signals on exits from the oversold/overbought zones: up when RSI
// leaves oversold, down when it leaves overbought.
func analyzeRSI(candles []domain.Candle, p domain.StrategyParams) domain.Signal {
	if len(candles) < p.RSIPeriod+2 {
		return domain.SignalNone
	}

	rsi := indicators.CalculateRSI(closes(candles), p.RSIPeriod)
	last := rsi[len(rsi)-1]
	prev := rsi[len(rsi)-2]

	switch {
	case last > p.RSIOversold && prev <= p.RSIOversold:
		return domain.SignalUp
	case last < p.RSIOverbought && prev >= p.RSIOverbought:
		return domain.SignalDown
	}
	return domain.SignalNone
}
