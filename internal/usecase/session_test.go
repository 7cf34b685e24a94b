package usecase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradebot-backend/internal/domain"
	"tradebot-backend/internal/infrastructure/deriv"
)

// fakeDeriv is an in-process brokerage endpoint. Tests read the requests the
// session sends and script the responses.
type fakeDeriv struct {
	srv      *httptest.Server
	requests chan map[string]any

	mu   sync.Mutex
	conn *websocket.Conn
}

func newFakeDeriv(t *testing.T) *fakeDeriv {
	t.Helper()
	f := &fakeDeriv{requests: make(chan map[string]any, 64)}
	upgrader := websocket.Upgrader{}

	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		f.mu.Lock()
		f.conn = conn
		f.mu.Unlock()

		for {
			var req map[string]any
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			f.requests <- req
		}
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeDeriv) url() string {
	return "ws" + strings.TrimPrefix(f.srv.URL, "http")
}

func (f *fakeDeriv) next(t *testing.T) map[string]any {
	t.Helper()
	select {
	case req := <-f.requests:
		return req
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for a request")
		return nil
	}
}

func (f *fakeDeriv) expectNoRequest(t *testing.T, wait time.Duration) {
	t.Helper()
	select {
	case req := <-f.requests:
		t.Fatalf("unexpected request: %v", req)
	case <-time.After(wait):
	}
}

func (f *fakeDeriv) send(t *testing.T, v any) {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NoError(t, f.conn.WriteJSON(v))
}

func (f *fakeDeriv) dropConnection() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conn != nil {
		f.conn.Close()
	}
}

func (f *fakeDeriv) sendCandle(t *testing.T, epoch int64, open, close float64) {
	f.send(t, map[string]any{
		"msg_type": "ohlc",
		"ohlc": map[string]any{
			"epoch": epoch,
			"open":  open,
			"high":  maxF(open, close),
			"low":   minF(open, close),
			"close": close,
		},
	})
}

// completeHandshake answers the authorize request and consumes both
// subscription requests.
func (f *fakeDeriv) completeHandshake(t *testing.T, token string) {
	t.Helper()
	req := f.next(t)
	require.Equal(t, token, req["authorize"])
	f.send(t, map[string]any{
		"msg_type":  "authorize",
		"authorize": map[string]any{"loginid": "CR123", "balance": 1000.0, "currency": "USD"},
	})

	req = f.next(t)
	require.Contains(t, req, "ticks_history")
	assert.Equal(t, "candles", req["style"])
	assert.EqualValues(t, 1, req["subscribe"])

	req = f.next(t)
	require.Contains(t, req, "transaction")
}

// seedFlatMarket pushes enough identical candles for the moving average
// strategy to have data but no crossing.
func (f *fakeDeriv) seedFlatMarket(t *testing.T, n int) int64 {
	t.Helper()
	var epoch int64
	for i := 0; i < n; i++ {
		epoch = int64(60 * (i + 1))
		f.sendCandle(t, epoch, 100, 100)
	}
	return epoch
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

type recordingNotifier struct {
	mu      sync.Mutex
	logs    []string
	status  []bool
	trades  []domain.TradeUpdate
	account []json.RawMessage

	statusCh chan bool
	tradeCh  chan domain.TradeUpdate
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{
		statusCh: make(chan bool, 16),
		tradeCh:  make(chan domain.TradeUpdate, 16),
	}
}

func (n *recordingNotifier) Log(_, _, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.logs = append(n.logs, message)
}

func (n *recordingNotifier) StatusChanged(_ string, running bool) {
	n.mu.Lock()
	n.status = append(n.status, running)
	n.mu.Unlock()
	n.statusCh <- running
}

func (n *recordingNotifier) AccountInfo(_ string, payload json.RawMessage) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.account = append(n.account, payload)
}

func (n *recordingNotifier) TradeUpdate(_ string, update domain.TradeUpdate) {
	n.mu.Lock()
	n.trades = append(n.trades, update)
	n.mu.Unlock()
	n.tradeCh <- update
}

func (n *recordingNotifier) waitStatus(t *testing.T, want bool) {
	t.Helper()
	for {
		select {
		case got := <-n.statusCh:
			if got == want {
				return
			}
		case <-time.After(3 * time.Second):
			t.Fatalf("timed out waiting for status %v", want)
		}
	}
}

func (n *recordingNotifier) waitTrade(t *testing.T) domain.TradeUpdate {
	t.Helper()
	select {
	case update := <-n.tradeCh:
		return update
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for a trade update")
		return domain.TradeUpdate{}
	}
}

func (n *recordingNotifier) tradeCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.trades)
}

func (n *recordingNotifier) statusHistory() []bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]bool(nil), n.status...)
}

func maTestSettings() domain.TradingSettings {
	cfg := domain.TradingSettings{
		UserID:        "u1",
		DerivToken:    "tok",
		Strategies:    domain.StrategyConfig{Enabled: []string{"moving_average"}},
		TradeCooldown: time.Millisecond,
	}
	cfg.Normalize()
	return cfg
}

func startTestSession(t *testing.T, cfg domain.TradingSettings) (*Session, *fakeDeriv, *recordingNotifier) {
	t.Helper()
	fake := newFakeDeriv(t)
	notif := newRecordingNotifier()

	dial := func(ctx context.Context) (*deriv.Client, error) {
		return deriv.Dial(ctx, fake.url())
	}
	s := newSession(cfg.UserID, cfg, dial, notif, newNopHistory(), clock.New())
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(s.Stop)

	return s, fake, notif
}

// nopHistory discards trade records in tests that do not inspect them.
type nopHistory struct{}

func newNopHistory() domain.TradeHistoryStore { return nopHistory{} }

func (nopHistory) RecordTrade(*domain.TradeRecord) error { return nil }
func (nopHistory) GetHistory(string, time.Time) ([]*domain.TradeRecord, error) {
	return nil, nil
}

func TestSessionAuthorizeAndSubscribe(t *testing.T) {
	s, fake, notif := startTestSession(t, maTestSettings())

	notif.waitStatus(t, true)
	fake.completeHandshake(t, "tok")

	assert.True(t, s.Running())
}

func TestSessionAuthFailureStops(t *testing.T) {
	s, fake, notif := startTestSession(t, maTestSettings())

	req := fake.next(t)
	require.Contains(t, req, "authorize")
	fake.send(t, map[string]any{
		"msg_type": "authorize",
		"error":    map[string]any{"code": "InvalidToken", "message": "The token is invalid."},
	})

	notif.waitStatus(t, false)
	assert.False(t, s.Running())
}

func TestSessionConnectionLossStops(t *testing.T) {
	s, fake, notif := startTestSession(t, maTestSettings())
	fake.completeHandshake(t, "tok")

	fake.dropConnection()

	notif.waitStatus(t, false)
	assert.False(t, s.Running())
}

func TestSessionTradeLifecycle(t *testing.T) {
	s, fake, notif := startTestSession(t, maTestSettings())
	fake.completeHandshake(t, "tok")

	epoch := fake.seedFlatMarket(t, 25)
	// Close above a flat moving average forces an upward crossing.
	fake.sendCandle(t, epoch+60, 100, 110)

	req := fake.next(t)
	require.Contains(t, req, "proposal")
	assert.Equal(t, "CALL", req["contract_type"])
	assert.EqualValues(t, 60, req["duration"])
	assert.Equal(t, "s", req["duration_unit"])
	assert.Equal(t, "stake", req["basis"])
	assert.Equal(t, "R_100", req["symbol"])

	fake.send(t, map[string]any{
		"msg_type": "proposal",
		"proposal": map[string]any{"id": "prop-1", "ask_price": "1.23"},
	})

	req = fake.next(t)
	assert.Equal(t, "prop-1", req["buy"])
	assert.EqualValues(t, 1.23, req["price"])

	fake.send(t, map[string]any{
		"msg_type": "buy",
		"buy":      map[string]any{"contract_id": 42, "buy_price": 1.23},
	})

	req = fake.next(t)
	require.Contains(t, req, "proposal_open_contract")
	assert.EqualValues(t, 42, req["contract_id"])
	assert.Equal(t, 1, s.Stats().TradeCount)

	// While a contract is open, further crossings must not propose again.
	fake.sendCandle(t, epoch+120, 110, 100)
	fake.sendCandle(t, epoch+180, 100, 120)

	fake.send(t, map[string]any{
		"msg_type": "proposal_open_contract",
		"proposal_open_contract": map[string]any{
			"contract_id": 42, "is_sold": 1, "profit": 0.8, "balance_after": 1000.8,
		},
	})

	update := notif.waitTrade(t)
	assert.Equal(t, 1, update.WinCount)
	assert.Equal(t, 0, update.LossCount)
	assert.InDelta(t, 0.8, update.TotalProfitLoss, 1e-9)
	assert.InDelta(t, 1000.8, update.BalanceAfter, 1e-9)

	stats := s.Stats()
	assert.Equal(t, 1, stats.TradeCount)
	assert.Equal(t, 1, stats.WinCount)
	assert.InDelta(t, 0.8, stats.TotalProfitLoss, 1e-9)
}

func TestSessionClosureDeduplicated(t *testing.T) {
	s, fake, notif := startTestSession(t, maTestSettings())
	fake.completeHandshake(t, "tok")

	epoch := fake.seedFlatMarket(t, 25)
	fake.sendCandle(t, epoch+60, 100, 110)

	require.Contains(t, fake.next(t), "proposal")
	fake.send(t, map[string]any{"msg_type": "proposal", "proposal": map[string]any{"id": "prop-1", "ask_price": 1.0}})
	require.Contains(t, fake.next(t), "buy")
	fake.send(t, map[string]any{"msg_type": "buy", "buy": map[string]any{"contract_id": 7, "buy_price": 1.0}})
	require.Contains(t, fake.next(t), "proposal_open_contract")

	// The ledger entry lands first, then the direct notification follows.
	fake.send(t, map[string]any{
		"msg_type":    "transaction",
		"transaction": map[string]any{"action": "sell", "contract_id": 7, "amount": 1.9, "balance_after": 1000.9},
	})
	notif.waitTrade(t)

	fake.send(t, map[string]any{
		"msg_type": "proposal_open_contract",
		"proposal_open_contract": map[string]any{
			"contract_id": 7, "is_sold": 1, "profit": 0.9, "balance_after": 1000.9,
		},
	})

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, notif.tradeCount(), "a contract closes exactly once")

	stats := s.Stats()
	assert.Equal(t, 1, stats.WinCount)
	assert.InDelta(t, 0.9, stats.TotalProfitLoss, 1e-9)
}

func TestSessionTakeProfitStopsBot(t *testing.T) {
	cfg := maTestSettings()
	cfg.TakeProfit = 1

	s, fake, notif := startTestSession(t, cfg)
	fake.completeHandshake(t, "tok")

	epoch := fake.seedFlatMarket(t, 25)
	fake.sendCandle(t, epoch+60, 100, 110)

	require.Contains(t, fake.next(t), "proposal")
	fake.send(t, map[string]any{"msg_type": "proposal", "proposal": map[string]any{"id": "prop-1", "ask_price": 1.0}})
	require.Contains(t, fake.next(t), "buy")
	fake.send(t, map[string]any{"msg_type": "buy", "buy": map[string]any{"contract_id": 9, "buy_price": 1.0}})
	require.Contains(t, fake.next(t), "proposal_open_contract")

	fake.send(t, map[string]any{
		"msg_type": "proposal_open_contract",
		"proposal_open_contract": map[string]any{
			"contract_id": 9, "is_sold": 1, "profit": 0.5, "balance_after": 1000.5,
		},
	})

	notif.waitTrade(t)
	notif.waitStatus(t, false)
	assert.False(t, s.Running())
}

func TestSessionStopLossStopsBot(t *testing.T) {
	cfg := maTestSettings()
	cfg.StopLoss = 1

	s, fake, notif := startTestSession(t, cfg)
	fake.completeHandshake(t, "tok")

	epoch := fake.seedFlatMarket(t, 25)
	fake.sendCandle(t, epoch+60, 100, 110)

	require.Contains(t, fake.next(t), "proposal")
	fake.send(t, map[string]any{"msg_type": "proposal", "proposal": map[string]any{"id": "prop-1", "ask_price": 1.0}})
	require.Contains(t, fake.next(t), "buy")
	fake.send(t, map[string]any{"msg_type": "buy", "buy": map[string]any{"contract_id": 9, "buy_price": 1.0}})
	require.Contains(t, fake.next(t), "proposal_open_contract")

	fake.send(t, map[string]any{
		"msg_type": "proposal_open_contract",
		"proposal_open_contract": map[string]any{
			"contract_id": 9, "is_sold": 1, "profit": -1.0, "balance_after": 999.0,
		},
	})

	update := notif.waitTrade(t)
	assert.Equal(t, 1, update.LossCount)
	notif.waitStatus(t, false)
	assert.False(t, s.Running())
}

func TestSessionAccumulatorSellIsNoOp(t *testing.T) {
	cfg := maTestSettings()
	cfg.ContractFamily = domain.FamilyAccumulator

	s, fake, _ := startTestSession(t, cfg)
	fake.completeHandshake(t, "tok")

	epoch := fake.seedFlatMarket(t, 25)
	// Downward crossing produces a SELL decision, unsupported for ACCU.
	fake.sendCandle(t, epoch+60, 100, 90)

	fake.expectNoRequest(t, 200*time.Millisecond)
	assert.True(t, s.Running())

	// Trading stays enabled: an upward crossing afterwards still proposes.
	fake.sendCandle(t, epoch+120, 90, 110)

	req := fake.next(t)
	require.Contains(t, req, "proposal")
	assert.Equal(t, "ACCU", req["contract_type"])
	assert.EqualValues(t, 0.02, req["growth_rate"])
	assert.NotContains(t, req, "duration")
	assert.NotContains(t, req, "take_profit")
	assert.NotContains(t, req, "stop_loss")
}

func TestSessionMultiplierProposal(t *testing.T) {
	cfg := maTestSettings()
	cfg.ContractFamily = domain.FamilyMultiplier
	cfg.TakeProfitMultiplier = 5
	cfg.StopLossMultiplier = 3

	_, fake, _ := startTestSession(t, cfg)
	fake.completeHandshake(t, "tok")

	epoch := fake.seedFlatMarket(t, 25)
	fake.sendCandle(t, epoch+60, 100, 110)

	req := fake.next(t)
	require.Contains(t, req, "proposal")
	assert.Equal(t, "MULTUP", req["contract_type"])
	assert.EqualValues(t, 100, req["multiplier"])
	assert.EqualValues(t, 5, req["take_profit"])
	assert.EqualValues(t, 3, req["stop_loss"])
	assert.NotContains(t, req, "duration")
	assert.NotContains(t, req, "growth_rate")
}

func TestSessionProposalErrorReenablesTrading(t *testing.T) {
	s, fake, _ := startTestSession(t, maTestSettings())
	fake.completeHandshake(t, "tok")

	epoch := fake.seedFlatMarket(t, 25)
	fake.sendCandle(t, epoch+60, 100, 110)

	require.Contains(t, fake.next(t), "proposal")
	fake.send(t, map[string]any{
		"msg_type": "proposal",
		"error":    map[string]any{"code": "ContractBuyValidationError", "message": "Stake too low."},
	})

	// The rejected quote must not wedge the session; the next crossing
	// proposes again.
	fake.sendCandle(t, epoch+120, 110, 100)
	fake.sendCandle(t, epoch+180, 100, 120)

	require.Contains(t, fake.next(t), "proposal")
	assert.True(t, s.Running())
}

func TestSessionPingPong(t *testing.T) {
	_, fake, _ := startTestSession(t, maTestSettings())
	fake.completeHandshake(t, "tok")

	fake.send(t, map[string]any{"msg_type": "ping", "ping": "pong"})

	req := fake.next(t)
	assert.EqualValues(t, 1, req["pong"])
}

func TestSessionStopIsIdempotent(t *testing.T) {
	s, fake, notif := startTestSession(t, maTestSettings())
	fake.completeHandshake(t, "tok")
	notif.waitStatus(t, true)

	s.Stop()
	s.Stop()
	s.Stop()

	notif.waitStatus(t, false)
	assert.False(t, s.Running())

	stopped := 0
	for _, running := range notif.statusHistory() {
		if !running {
			stopped++
		}
	}
	assert.Equal(t, 1, stopped, "stop is announced exactly once")
}

func TestSessionResetWhileRunningRejected(t *testing.T) {
	s, fake, _ := startTestSession(t, maTestSettings())
	fake.completeHandshake(t, "tok")

	err := s.Reset(maTestSettings())
	assert.ErrorIs(t, err, domain.ErrSessionRunning)
}

func TestSessionResetClearsStats(t *testing.T) {
	s, fake, notif := startTestSession(t, maTestSettings())
	fake.completeHandshake(t, "tok")

	epoch := fake.seedFlatMarket(t, 25)
	fake.sendCandle(t, epoch+60, 100, 110)

	require.Contains(t, fake.next(t), "proposal")
	fake.send(t, map[string]any{"msg_type": "proposal", "proposal": map[string]any{"id": "prop-1", "ask_price": 1.0}})
	require.Contains(t, fake.next(t), "buy")
	fake.send(t, map[string]any{"msg_type": "buy", "buy": map[string]any{"contract_id": 3, "buy_price": 1.0}})
	require.Contains(t, fake.next(t), "proposal_open_contract")
	fake.send(t, map[string]any{
		"msg_type": "proposal_open_contract",
		"proposal_open_contract": map[string]any{
			"contract_id": 3, "is_sold": 1, "profit": 0.4, "balance_after": 1000.4,
		},
	})
	notif.waitTrade(t)

	s.Stop()
	notif.waitStatus(t, false)
	require.Equal(t, 1, s.Stats().TradeCount, "stop preserves counters")

	require.NoError(t, s.Reset(maTestSettings()))
	assert.Equal(t, domain.SessionStats{}, s.Stats())
}
