package strategy

import (
	"tradebot-backend/internal/domain"
	"tradebot-backend/internal/infrastructure/indicators"
)

func init() {
	register("moving_average",
		func(p domain.StrategyParams) int { return p.MAWindow },
		analyzeMovingAverage)
}

// analyzeMovingAverage signals when the close crosses its simple moving
// average.
func analyzeMovingAverage(candles []domain.Candle, p domain.StrategyParams) domain.Signal {
	if len(candles) < p.MAWindow+1 {
		return domain.SignalNone
	}

	sma := indicators.CalculateSMA(closes(candles), p.MAWindow)
	i := len(candles) - 1
	lastClose, prevClose := candles[i].Close, candles[i-1].Close

	switch {
	case lastClose > sma[i] && prevClose <= sma[i-1]:
		return domain.SignalUp
	case lastClose < sma[i] && prevClose >= sma[i-1]:
		return domain.SignalDown
	}
	return domain.SignalNone
}
