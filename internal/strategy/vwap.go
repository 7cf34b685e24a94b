package strategy

import (
	"tradebot-backend/internal/domain"
	"tradebot-backend/internal/infrastructure/indicators"
)

func init() {
	register("vwap",
		func(p domain.StrategyParams) int { return p.VWAPWindow },
		analyzeVWAP)
}

// analyzeVWAP signals when the close crosses the rolling VWAP.
func analyzeVWAP(candles []domain.Candle, p domain.StrategyParams) domain.Signal {
	if len(candles) < p.VWAPWindow+1 {
		return domain.SignalNone
	}

	vwap := indicators.CalculateVWAP(highs(candles), lows(candles), closes(candles), volumes(candles), p.VWAPWindow)
	i := len(candles) - 1
	if vwap[i] == 0 || vwap[i-1] == 0 {
		return domain.SignalNone
	}
	lastClose, prevClose := candles[i].Close, candles[i-1].Close

	switch {
	case prevClose <= vwap[i-1] && lastClose > vwap[i]:
		return domain.SignalUp
	case prevClose >= vwap[i-1] && lastClose < vwap[i]:
		return domain.SignalDown
	}
	return domain.SignalNone
}
