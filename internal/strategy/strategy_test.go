package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradebot-backend/internal/domain"
)

func flatCandles(n int, price float64) []domain.Candle {
	candles := make([]domain.Candle, n)
	for i := range candles {
		candles[i] = domain.Candle{
			Epoch: int64(60 * (i + 1)),
			Open:  price, High: price, Low: price, Close: price,
			Volume: 10,
		}
	}
	return candles
}

func TestResolveKnownStrategies(t *testing.T) {
	resolved, err := Resolve([]string{"rsi", "moving_average", "candle_patterns"})
	require.NoError(t, err)
	require.Len(t, resolved, 3)
	assert.Equal(t, "rsi", resolved[0].Name)
	assert.NotNil(t, resolved[0].Analyze)
	assert.NotNil(t, resolved[0].Lookback)
}

func TestResolveUnknownStrategy(t *testing.T) {
	_, err := Resolve([]string{"rsi", "definitely_not_registered"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "definitely_not_registered")
}

func TestNamesListsEveryRegisteredStrategy(t *testing.T) {
	names := Names()
	for _, want := range []string{
		"rsi", "bollinger", "macd_histogram", "adx", "moving_average",
		"vwap", "williams_r", "volume", "fibonacci", "candle_patterns", "star_reversal",
	} {
		assert.Contains(t, names, want)
	}
}

func TestApplyDefaultsFillsZeroValues(t *testing.T) {
	p := ApplyDefaults(domain.StrategyParams{})

	assert.Equal(t, 14, p.RSIPeriod)
	assert.Equal(t, 70.0, p.RSIOverbought)
	assert.Equal(t, 30.0, p.RSIOversold)
	assert.Equal(t, 20, p.BollingerPeriod)
	assert.Equal(t, 2.0, p.BollingerStdDev)
	assert.Equal(t, 12, p.MACDFast)
	assert.Equal(t, 26, p.MACDSlow)
	assert.Equal(t, 9, p.MACDSignal)
	assert.Equal(t, -20.0, p.WilliamsOverbought)
	assert.Equal(t, -80.0, p.WilliamsOversold)
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	p := ApplyDefaults(domain.StrategyParams{RSIPeriod: 7, MAWindow: 50})

	assert.Equal(t, 7, p.RSIPeriod)
	assert.Equal(t, 50, p.MAWindow)
	assert.Equal(t, 20, p.BollingerPeriod, "untouched fields still default")
}

func TestStrategiesHoldOnInsufficientData(t *testing.T) {
	p := ApplyDefaults(domain.StrategyParams{})
	for _, name := range Names() {
		s := registry[name]
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, domain.SignalNone, s.Analyze(nil, p))
			assert.Equal(t, domain.SignalNone, s.Analyze(flatCandles(1, 100), p))
		})
	}
}

func TestMovingAverageCross(t *testing.T) {
	p := ApplyDefaults(domain.StrategyParams{})

	up := flatCandles(30, 100)
	up[29].Close = 110
	assert.Equal(t, domain.SignalUp, analyzeMovingAverage(up, p))

	down := flatCandles(30, 100)
	down[29].Close = 90
	assert.Equal(t, domain.SignalDown, analyzeMovingAverage(down, p))

	assert.Equal(t, domain.SignalNone, analyzeMovingAverage(flatCandles(30, 100), p))
}

func TestBollingerBandTouch(t *testing.T) {
	p := ApplyDefaults(domain.StrategyParams{})

	// Alternate closes around 100 to give the bands width, then break out.
	candles := flatCandles(30, 100)
	for i := range candles {
		if i%2 == 0 {
			candles[i].Close = 101
		} else {
			candles[i].Close = 99
		}
	}

	up := append(append([]domain.Candle(nil), candles...), domain.Candle{Epoch: 9999, Open: 100, High: 100, Low: 80, Close: 80})
	assert.Equal(t, domain.SignalUp, analyzeBollinger(up, p))

	down := append(append([]domain.Candle(nil), candles...), domain.Candle{Epoch: 9999, Open: 100, High: 120, Low: 100, Close: 120})
	assert.Equal(t, domain.SignalDown, analyzeBollinger(down, p))
}

func TestVolumeSpike(t *testing.T) {
	p := ApplyDefaults(domain.StrategyParams{})

	candles := flatCandles(30, 100)
	last := &candles[29]
	last.Volume = 100 // well above the 1.5x average gate
	last.Open = 100
	last.Close = 105
	assert.Equal(t, domain.SignalUp, analyzeVolume(candles, p))

	last.Close = 95
	assert.Equal(t, domain.SignalDown, analyzeVolume(candles, p))

	last.Volume = 10
	assert.Equal(t, domain.SignalNone, analyzeVolume(candles, p), "no spike, no signal")
}

func TestEngulfingPatterns(t *testing.T) {
	base := flatCandles(5, 100)

	bullish := append([]domain.Candle(nil), base...)
	bullish[3] = domain.Candle{Epoch: 240, Open: 102, High: 102, Low: 98, Close: 99}
	bullish[4] = domain.Candle{Epoch: 300, Open: 98, High: 104, Low: 98, Close: 103}
	assert.Equal(t, domain.SignalUp, analyzeEngulfing(bullish, domain.StrategyParams{}))

	bearish := append([]domain.Candle(nil), base...)
	bearish[3] = domain.Candle{Epoch: 240, Open: 99, High: 102, Low: 98, Close: 102}
	bearish[4] = domain.Candle{Epoch: 300, Open: 103, High: 103, Low: 97, Close: 98}
	assert.Equal(t, domain.SignalDown, analyzeEngulfing(bearish, domain.StrategyParams{}))

	assert.Equal(t, domain.SignalNone, analyzeEngulfing(base, domain.StrategyParams{}))
}

func TestStarReversalPatterns(t *testing.T) {
	morning := []domain.Candle{
		{Epoch: 60, Open: 110, High: 110, Low: 99, Close: 100},  // strong down
		{Epoch: 120, Open: 99, High: 100, Low: 98, Close: 98.5}, // small body below
		{Epoch: 180, Open: 99, High: 109, Low: 99, Close: 108},  // close above midpoint
	}
	assert.Equal(t, domain.SignalUp, analyzeStarReversal(morning, domain.StrategyParams{}))

	evening := []domain.Candle{
		{Epoch: 60, Open: 100, High: 111, Low: 100, Close: 110},
		{Epoch: 120, Open: 111, High: 112, Low: 110, Close: 111.5},
		{Epoch: 180, Open: 111, High: 111, Low: 101, Close: 102},
	}
	assert.Equal(t, domain.SignalDown, analyzeStarReversal(evening, domain.StrategyParams{}))
}
