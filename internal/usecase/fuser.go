package usecase

import (
	"log"

	"tradebot-backend/internal/domain"
	"tradebot-backend/internal/strategy"
)

// safetyMargin is extra candles required beyond the largest strategy
// lookback before any decision is attempted.
const safetyMargin = 5

// Fuser combines the signals of a resolved strategy set into one decision.
// Decide is deterministic for a fixed snapshot, parameter set and logic.
type Fuser struct {
	strategies []strategy.Strategy
	params     domain.StrategyParams
	logic      domain.FusionLogic

	// ACCUMULATOR dynamic stop loss needs an ATR value, which folds its
	// window into the minimum data requirement.
	dynamicSL bool
}

func NewFuser(strategies []strategy.Strategy, cfg *domain.TradingSettings) *Fuser {
	return &Fuser{
		strategies: strategies,
		params:     strategy.ApplyDefaults(cfg.Strategies.Params),
		logic:      cfg.FusionLogic,
		dynamicSL:  cfg.ContractFamily == domain.FamilyAccumulator && cfg.Strategies.Params.UseDynamicSL,
	}
}

// MinCandles is the number of candles required before Decide can emit
// anything other than Hold.
func (f *Fuser) MinCandles() int {
	required := 1
	for _, s := range f.strategies {
		if lb := s.Lookback(f.params); lb > required {
			required = lb
		}
	}
	if f.dynamicSL && f.params.ATRWindow+1 > required {
		required = f.params.ATRWindow + 1
	}
	return required + safetyMargin
}

// Decide runs every enabled strategy against the snapshot and fuses the
// results. Insufficient data is not an error; it simply holds.
func (f *Fuser) Decide(candles []domain.Candle) domain.Decision {
	if len(f.strategies) == 0 || len(candles) < f.MinCandles() {
		return domain.DecisionHold
	}

	var buyCount, sellCount int
	for _, s := range f.strategies {
		sig := f.analyzeIsolated(s, candles)
		switch sig {
		case domain.SignalUp:
			buyCount++
		case domain.SignalDown:
			sellCount++
		}
	}

	emitted := buyCount + sellCount
	if emitted == 0 {
		return domain.DecisionHold
	}

	if f.logic == domain.FusionAND {
		// Unanimity: every enabled strategy must emit, and all the same way.
		if buyCount == len(f.strategies) {
			return domain.DecisionBuy
		}
		if sellCount == len(f.strategies) {
			return domain.DecisionSell
		}
		return domain.DecisionHold
	}

	// Majority vote; a tie holds.
	if buyCount > sellCount {
		return domain.DecisionBuy
	}
	if sellCount > buyCount {
		return domain.DecisionSell
	}
	return domain.DecisionHold
}

// analyzeIsolated runs one strategy, containing any panic so a broken
// indicator cannot take down the rest of the round.
func (f *Fuser) analyzeIsolated(s strategy.Strategy, candles []domain.Candle) (sig domain.Signal) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("strategy %s panicked: %v", s.Name, r)
			sig = domain.SignalNone
		}
	}()
	return s.Analyze(candles, f.params)
}
