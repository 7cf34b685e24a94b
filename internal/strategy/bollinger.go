package strategy

import (
	"tradebot-backend/internal/domain"
	"tradebot-backend/internal/infrastructure/indicators"
)

func init() {
	register("bollinger",
		func(p domain.StrategyParams) int { return p.BollingerPeriod },
		analyzeBollinger)
}

// analyzeBollinger is a mean-reversion signal: up when the close touches the
// lower band, down when it touches the upper band.
func analyzeBollinger(candles []domain.Candle, p domain.StrategyParams) domain.Signal {
	if len(candles) < p.BollingerPeriod {
		return domain.SignalNone
	}

	bands := indicators.CalculateBollingerBands(closes(candles), p.BollingerPeriod, p.BollingerStdDev)
	i := len(candles) - 1
	last := candles[i].Close

	switch {
	case last <= bands.Lower[i]:
		return domain.SignalUp
	case last >= bands.Upper[i]:
		return domain.SignalDown
	}
	return domain.SignalNone
}
