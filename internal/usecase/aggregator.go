package usecase

import (
	"encoding/json"
	"fmt"
	"sort"

	"tradebot-backend/internal/domain"
	"tradebot-backend/internal/infrastructure/deriv"
)

// maxCandles bounds the series to what the initial ticks_history request
// returns; older candles are evicted.
const maxCandles = 750

// CandleBuffer keeps a bounded, epoch-ordered series of candles. It is owned
// exclusively by one session's protocol loop and is not safe for concurrent
// use; strategy evaluation works on Snapshot copies.
type CandleBuffer struct {
	candles []domain.Candle
	limit   int
}

func NewCandleBuffer() *CandleBuffer {
	return &CandleBuffer{limit: maxCandles}
}

// Ingest parses one raw ohlc payload and upserts it into the series.
// Malformed payloads are rejected with an error; ingestion failures are
// non-fatal to the session.
func (b *CandleBuffer) Ingest(raw json.RawMessage) error {
	var ohlc deriv.OHLC
	if err := json.Unmarshal(raw, &ohlc); err != nil {
		return fmt.Errorf("malformed ohlc frame: %w", err)
	}
	if ohlc.Epoch == 0 {
		return fmt.Errorf("ohlc frame missing epoch")
	}

	b.Upsert(domain.Candle{
		Epoch:  int64(ohlc.Epoch),
		Open:   ohlc.Open.Float64(),
		High:   ohlc.High.Float64(),
		Low:    ohlc.Low.Float64(),
		Close:  ohlc.Close.Float64(),
		Volume: ohlc.Volume.Float64(),
	})
	return nil
}

// Upsert inserts a candle in epoch order. A duplicate epoch replaces the
// prior value; overflow evicts the oldest entry.
func (b *CandleBuffer) Upsert(c domain.Candle) {
	i := sort.Search(len(b.candles), func(i int) bool {
		return b.candles[i].Epoch >= c.Epoch
	})
	if i < len(b.candles) && b.candles[i].Epoch == c.Epoch {
		b.candles[i] = c
		return
	}

	b.candles = append(b.candles, domain.Candle{})
	copy(b.candles[i+1:], b.candles[i:])
	b.candles[i] = c

	if len(b.candles) > b.limit {
		b.candles = append(b.candles[:0], b.candles[len(b.candles)-b.limit:]...)
	}
}

// Snapshot returns a copy of the series for strategy evaluation.
func (b *CandleBuffer) Snapshot() []domain.Candle {
	out := make([]domain.Candle, len(b.candles))
	copy(out, b.candles)
	return out
}

// Len reports the current number of candles.
func (b *CandleBuffer) Len() int { return len(b.candles) }
