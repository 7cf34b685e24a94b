package strategy

import (
	"fmt"
	"sort"

	"tradebot-backend/internal/domain"
)

// Func analyzes a candle series and returns one directional signal. Functions
// are pure: the same series and parameters always produce the same signal,
// and insufficient data yields SignalNone rather than an error.
type Func func(candles []domain.Candle, p domain.StrategyParams) domain.Signal

// Strategy is one named entry in the fixed registry.
type Strategy struct {
	Name     string
	Analyze  Func
	Lookback func(p domain.StrategyParams) int
}

var registry = map[string]Strategy{}

func register(name string, lookback func(domain.StrategyParams) int, fn Func) {
	registry[name] = Strategy{Name: name, Analyze: fn, Lookback: lookback}
}

// Resolve maps configured strategy names to registry entries. Unknown names
// are rejected up front so a typo fails the start request instead of being
// silently ignored on every evaluation.
func Resolve(names []string) ([]Strategy, error) {
	resolved := make([]Strategy, 0, len(names))
	for _, name := range names {
		s, ok := registry[name]
		if !ok {
			return nil, fmt.Errorf("unknown strategy %q", name)
		}
		resolved = append(resolved, s)
	}
	return resolved, nil
}

// Names lists every registered strategy, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyDefaults fills zero-valued parameters with each strategy's standard
// tuning.
func ApplyDefaults(p domain.StrategyParams) domain.StrategyParams {
	if p.RSIPeriod <= 0 {
		p.RSIPeriod = 14
	}
	if p.RSIOverbought == 0 {
		p.RSIOverbought = 70
	}
	if p.RSIOversold == 0 {
		p.RSIOversold = 30
	}
	if p.BollingerPeriod <= 0 {
		p.BollingerPeriod = 20
	}
	if p.BollingerStdDev == 0 {
		p.BollingerStdDev = 2.0
	}
	if p.MACDFast <= 0 {
		p.MACDFast = 12
	}
	if p.MACDSlow <= 0 {
		p.MACDSlow = 26
	}
	if p.MACDSignal <= 0 {
		p.MACDSignal = 9
	}
	if p.ADXPeriod <= 0 {
		p.ADXPeriod = 14
	}
	if p.ADXThreshold == 0 {
		p.ADXThreshold = 25
	}
	if p.MAWindow <= 0 {
		p.MAWindow = 20
	}
	if p.VolumeFactor == 0 {
		p.VolumeFactor = 1.5
	}
	if p.VolumePeriods <= 0 {
		p.VolumePeriods = 20
	}
	if p.FibPeriod <= 0 {
		p.FibPeriod = 50
	}
	if p.VWAPWindow <= 0 {
		p.VWAPWindow = 14
	}
	if p.WilliamsPeriod <= 0 {
		p.WilliamsPeriod = 14
	}
	if p.WilliamsOverbought == 0 {
		p.WilliamsOverbought = -20
	}
	if p.WilliamsOversold == 0 {
		p.WilliamsOversold = -80
	}
	if p.ATRWindow <= 0 {
		p.ATRWindow = 14
	}
	return p
}

func closes(candles []domain.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

func highs(candles []domain.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.High
	}
	return out
}

func lows(candles []domain.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Low
	}
	return out
}

func volumes(candles []domain.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Volume
	}
	return out
}
