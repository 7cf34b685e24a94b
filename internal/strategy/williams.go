package strategy

import (
	"tradebot-backend/internal/domain"
	"tradebot-backend/internal/infrastructure/indicators"
)

func init() {
	register("williams_r",
		func(p domain.StrategyParams) int { return p.WilliamsPeriod },
		analyzeWilliamsR)
}

// analyzeWilliamsR signals on exits from the %R extreme zones: up when it
// crosses above the oversold level, down when it crosses below overbought.
func analyzeWilliamsR(candles []domain.Candle, p domain.StrategyParams) domain.Signal {
	if len(candles) < p.WilliamsPeriod+1 {
		return domain.SignalNone
	}

	wr := indicators.CalculateWilliamsR(highs(candles), lows(candles), closes(candles), p.WilliamsPeriod)
	last := wr[len(wr)-1]
	prev := wr[len(wr)-2]

	switch {
	case prev <= p.WilliamsOversold && last > p.WilliamsOversold:
		return domain.SignalUp
	case prev >= p.WilliamsOverbought && last < p.WilliamsOverbought:
		return domain.SignalDown
	}
	return domain.SignalNone
}
