package strategy

import (
	"tradebot-backend/internal/domain"
	"tradebot-backend/internal/infrastructure/indicators"
)

func init() {
	register("volume",
		func(p domain.StrategyParams) int { return p.VolumePeriods },
		analyzeVolume)
}

// analyzeVolume looks for a volume spike against the rolling average and
// signals in the direction of the spiking candle.
func analyzeVolume(candles []domain.Candle, p domain.StrategyParams) domain.Signal {
	if len(candles) < p.VolumePeriods {
		return domain.SignalNone
	}

	avg := indicators.CalculateSMA(volumes(candles), p.VolumePeriods)
	i := len(candles) - 1
	last := candles[i]
	if last.Volume <= avg[i]*p.VolumeFactor {
		return domain.SignalNone
	}

	switch {
	case last.Bullish():
		return domain.SignalUp
	case last.Bearish():
		return domain.SignalDown
	}
	return domain.SignalNone
}
