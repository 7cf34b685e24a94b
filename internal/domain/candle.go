package domain

// Candle is one OHLCV aggregation bucket for a fixed time granularity.
type Candle struct {
	Epoch  int64   `json:"epoch"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// Bullish reports whether the candle closed above its open.
func (c Candle) Bullish() bool { return c.Close > c.Open }

// Bearish reports whether the candle closed below its open.
func (c Candle) Bearish() bool { return c.Close < c.Open }

// Body returns the absolute size of the candle body.
func (c Candle) Body() float64 {
	if c.Close > c.Open {
		return c.Close - c.Open
	}
	return c.Open - c.Close
}

// Signal is the directional opinion of a single strategy for one evaluation.
type Signal int

const (
	SignalNone Signal = iota
	SignalUp
	SignalDown
)

func (s Signal) String() string {
	switch s {
	case SignalUp:
		return "UP"
	case SignalDown:
		return "DOWN"
	default:
		return "NONE"
	}
}

// Decision is the fused output driving trade action.
type Decision int

const (
	DecisionHold Decision = iota
	DecisionBuy
	DecisionSell
)

func (d Decision) String() string {
	switch d {
	case DecisionBuy:
		return "BUY"
	case DecisionSell:
		return "SELL"
	default:
		return "HOLD"
	}
}
