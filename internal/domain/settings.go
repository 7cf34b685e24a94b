package domain

import "time"

// FusionLogic selects how strategy signals combine into one decision.
type FusionLogic string

const (
	FusionAND FusionLogic = "AND" // unanimous agreement across all enabled strategies
	FusionOR  FusionLogic = "OR"  // strict majority of emitted signals
)

// ContractFamily selects the brokerage contract type a session trades.
type ContractFamily string

const (
	FamilyCallPut     ContractFamily = "CALLPUT"
	FamilyAccumulator ContractFamily = "ACCUMULATOR"
	FamilyMultiplier  ContractFamily = "MULTIPLIER"
)

// StrategyParams carries the tunable parameters for every strategy, keyed the
// way the UI stores them. Zero values fall back to per-strategy defaults at
// resolution time.
type StrategyParams struct {
	RSIPeriod      int     `json:"rsi_period,omitempty"`
	RSIOverbought  float64 `json:"rsi_overbought,omitempty"`
	RSIOversold    float64 `json:"rsi_oversold,omitempty"`
	BollingerPeriod int     `json:"bollinger_period,omitempty"`
	BollingerStdDev float64 `json:"bollinger_std_dev,omitempty"`
	MACDFast       int     `json:"macd_fast,omitempty"`
	MACDSlow       int     `json:"macd_slow,omitempty"`
	MACDSignal     int     `json:"macd_sign,omitempty"`
	ADXPeriod      int     `json:"adx_period,omitempty"`
	ADXThreshold   float64 `json:"adx_threshold,omitempty"`
	MAWindow       int     `json:"ma_window,omitempty"`
	VolumeFactor   float64 `json:"volume_factor,omitempty"`
	VolumePeriods  int     `json:"volume_history_periods,omitempty"`
	FibPeriod      int     `json:"fib_period,omitempty"`
	VWAPWindow     int     `json:"vwap_window,omitempty"`
	WilliamsPeriod int     `json:"williams_period,omitempty"`
	WilliamsOverbought float64 `json:"williams_overbought,omitempty"`
	WilliamsOversold   float64 `json:"williams_oversold,omitempty"`
	ATRWindow      int     `json:"atr_window,omitempty"`
	UseDynamicSL   bool    `json:"use_dynamic_sl,omitempty"`
}

// StrategyConfig is the enabled strategy set plus its parameter overrides.
type StrategyConfig struct {
	Enabled []string       `json:"strategies_enabled"`
	Params  StrategyParams `json:"params"`
}

// TradingSettings is the per-user trading configuration supplied at session
// start or reset. It is immutable for the session's current run.
type TradingSettings struct {
	UserID     string `json:"userId"`
	DerivToken string `json:"derivToken,omitempty"`

	Stake             float64        `json:"stake"`
	Duration          int            `json:"duration"`          // seconds, CALLPUT only
	CandleGranularity int            `json:"candleGranularity"` // seconds
	Symbol            string         `json:"symbol"`
	FusionLogic       FusionLogic    `json:"fusionLogic"`
	ContractFamily    ContractFamily `json:"contractFamily"`

	// CALLPUT thresholds, expressed in win/loss counts.
	TakeProfit int `json:"takeProfit"`
	StopLoss   int `json:"stopLoss"`

	// ACCUMULATOR parameters. TP/SL are stored for the UI but never sent in
	// proposals; the brokerage rejects them for this family.
	AccumulatorGrowthRate float64 `json:"accumulatorGrowthRate"`
	TakeProfitAccumulator float64 `json:"takeProfitAccumulator"`
	StopLossAccumulator   float64 `json:"stopLossAccumulator"`

	// MULTIPLIER parameters, monetary TP/SL enforced by the brokerage.
	MultiplierValue      int     `json:"multiplierValue"`
	TakeProfitMultiplier float64 `json:"takeProfitMultiplier"`
	StopLossMultiplier   float64 `json:"stopLossMultiplier"`

	Strategies StrategyConfig `json:"strategies"`

	// Delay before trading re-arms after a contract closes.
	TradeCooldown time.Duration `json:"tradeCooldown"`
}

// Normalize fills defaults for fields the caller left unset.
func (s *TradingSettings) Normalize() {
	if s.Symbol == "" {
		s.Symbol = "R_100"
	}
	if s.CandleGranularity <= 0 {
		s.CandleGranularity = 60
	}
	if s.Duration <= 0 {
		s.Duration = 60
	}
	if s.Stake <= 0 {
		s.Stake = 1.0
	}
	if s.FusionLogic != FusionAND {
		s.FusionLogic = FusionOR
	}
	if s.ContractFamily == "" {
		s.ContractFamily = FamilyCallPut
	}
	if s.AccumulatorGrowthRate <= 0 {
		s.AccumulatorGrowthRate = 0.02
	}
	if s.MultiplierValue <= 0 {
		s.MultiplierValue = 100
	}
	if s.TradeCooldown <= 0 {
		s.TradeCooldown = 100 * time.Millisecond
	}
}
