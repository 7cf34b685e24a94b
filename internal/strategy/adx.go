package strategy

import (
	"tradebot-backend/internal/domain"
	"tradebot-backend/internal/infrastructure/indicators"
)

func init() {
	register("adx",
		func(p domain.StrategyParams) int { return p.ADXPeriod },
		analyzeADX)
}

// analyzeADX signals on +DI/-DI crossovers, but only while ADX is above the
// threshold so crossings in a flat market are ignored.
func analyzeADX(candles []domain.Candle, p domain.StrategyParams) domain.Signal {
	if len(candles) < p.ADXPeriod*2 {
		return domain.SignalNone
	}

	di := indicators.CalculateADX(highs(candles), lows(candles), closes(candles), p.ADXPeriod)
	i := len(candles) - 1
	if di.ADX[i] <= p.ADXThreshold {
		return domain.SignalNone
	}

	switch {
	case di.PlusDI[i] > di.MinusDI[i] && di.PlusDI[i-1] <= di.MinusDI[i-1]:
		return domain.SignalUp
	case di.MinusDI[i] > di.PlusDI[i] && di.MinusDI[i-1] <= di.PlusDI[i-1]:
		return domain.SignalDown
	}
	return domain.SignalNone
}
