package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"tradebot-backend/internal/domain"
	"tradebot-backend/internal/infrastructure/deriv"
	"tradebot-backend/internal/strategy"
)

// readTimeout bounds each wait for an inbound frame. On expiry the loop
// falls back to a poll-driven decision evaluation for quiet markets.
const readTimeout = 2 * time.Second

// Dialer opens a brokerage connection. Injectable so tests can point the
// session at a local fake server.
type Dialer func(ctx context.Context) (*deriv.Client, error)

// Session owns one brokerage connection, one candle buffer, one in-flight
// contract and the per-user trading configuration, and runs the protocol
// message loop. All trading state is mutated only from that loop; the
// control plane reads flags and requests stop/reset.
type Session struct {
	userID   string
	dial     Dialer
	notifier domain.Notifier
	history  domain.TradeHistoryStore
	clock    clock.Clock

	mu             sync.Mutex
	token          string
	cfg            domain.TradingSettings
	running        bool
	tradingEnabled bool
	contract       domain.Contract
	stats          domain.SessionStats
	client         *deriv.Client
	cancel         context.CancelFunc
	done           chan struct{}

	// Loop-owned; rebuilt on start/reset and never touched by the control
	// plane.
	buffer *CandleBuffer
	fuser  *Fuser
}

func newSession(userID string, cfg domain.TradingSettings, dial Dialer, notifier domain.Notifier, history domain.TradeHistoryStore, clk clock.Clock) *Session {
	cfg.Normalize()
	s := &Session{
		userID:   userID,
		dial:     dial,
		notifier: notifier,
		history:  history,
		clock:    clk,
		token:    cfg.DerivToken,
		cfg:      cfg,
		buffer:   NewCandleBuffer(),
	}
	return s
}

// Running reports whether the protocol loop is active.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Stats returns a copy of the cumulative counters.
func (s *Session) Stats() domain.SessionStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Start resolves the strategy set and launches the protocol loop. The caller
// (registry) serializes Start/Stop/Reset per user.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return domain.ErrAlreadyRunning
	}
	strategies, err := strategy.Resolve(s.cfg.Strategies.Enabled)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.fuser = NewFuser(strategies, &s.cfg)
	s.buffer = NewCandleBuffer()
	s.contract = domain.Contract{}
	s.running = true
	s.tradingEnabled = false

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	done := make(chan struct{})
	s.done = done
	s.mu.Unlock()

	s.notifier.StatusChanged(s.userID, true)
	s.logf("info", "Starting bot...")
	go s.run(runCtx, done)
	return nil
}

// Stop is idempotent: it clears the running flag, cancels the loop, closes
// the connection to unblock the pending read, and waits for the loop to
// terminate. Stopping an already-stopped session is a safe no-op.
func (s *Session) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel, client, done := s.cancel, s.client, s.done
	s.mu.Unlock()

	s.logf("warning", "Stop command received...")
	if cancel != nil {
		cancel()
	}
	if client != nil {
		_ = client.Close()
	}
	if done != nil {
		<-done
	}
}

// Reset replaces the configuration and clears stats and buffers. Only valid
// while the session is stopped.
func (s *Session) Reset(cfg domain.TradingSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return domain.ErrSessionRunning
	}
	cfg.Normalize()
	if cfg.DerivToken != "" {
		s.token = cfg.DerivToken
	}
	s.cfg = cfg
	s.stats = domain.SessionStats{}
	s.contract = domain.Contract{}
	s.tradingEnabled = false
	s.buffer = NewCandleBuffer()
	s.client = nil
	s.cancel = nil
	s.done = nil
	return nil
}

func (s *Session) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer s.finish()

	client, err := s.dial(ctx)
	if err != nil {
		s.logf("error", "Failed to connect to Deriv: %v", err)
		return
	}
	s.mu.Lock()
	s.client = client
	s.mu.Unlock()
	defer client.Close()

	s.logf("info", "Connected to Deriv. Authenticating...")
	if err := client.Send(deriv.AuthorizeRequest{Authorize: s.tokenValue()}); err != nil {
		s.logf("error", "Failed to send authorize request: %v", err)
		return
	}

	for s.Running() {
		if ctx.Err() != nil {
			return
		}
		frame, err := client.ReadFrame(readTimeout)
		if err != nil {
			if deriv.IsTimeout(err) {
				if s.canTrade() {
					s.evaluate(client)
				}
				continue
			}
			if s.Running() {
				s.logf("warning", "WebSocket connection closed.")
			}
			return
		}
		if !s.Running() {
			return
		}
		s.dispatch(client, frame)
	}
}

// finish is the single shutdown path for the loop, whatever ended it.
func (s *Session) finish() {
	s.mu.Lock()
	s.running = false
	s.tradingEnabled = false
	client := s.client
	s.client = nil
	s.mu.Unlock()

	if client != nil {
		_ = client.Close()
	}
	s.notifier.StatusChanged(s.userID, false)
	s.logf("info", "Bot stopped.")
}

func (s *Session) dispatch(client *deriv.Client, frame *deriv.Frame) {
	if frame.Error != nil {
		s.logf("error", "API error (%s): %s", frame.MsgType, frame.Error.Message)
		switch frame.MsgType {
		case "authorize":
			s.logf("error", "Authentication failed. Check your Deriv token.")
			s.setRunning(false)
		case "proposal", "buy":
			// A rejected quote or order must not leave the session stuck.
			s.abandonContract()
		}
		return
	}

	switch frame.MsgType {
	case "authorize":
		s.handleAuthorize(client, frame.Authorize)
	case "ohlc":
		s.handleOHLC(client, frame.OHLC)
	case "proposal":
		s.handleProposal(client, frame.Proposal)
	case "buy":
		s.handleBuy(client, frame.Buy)
	case "proposal_open_contract":
		s.handleOpenContract(frame.ProposalOpenContract)
	case "transaction":
		s.handleTransaction(frame.Transaction)
	case "ping":
		_ = client.Send(deriv.PongRequest{Pong: 1})
	case "tick", "candles", "history":
		// Initial history payloads and raw ticks are not dispatched.
	default:
		s.logf("debug", "Unhandled message type: %s", frame.MsgType)
	}
}

func (s *Session) handleAuthorize(client *deriv.Client, payload json.RawMessage) {
	s.logf("success", "Authentication successful.")
	if payload != nil {
		s.notifier.AccountInfo(s.userID, payload)
	}

	cfg := s.config()
	s.logf("info", "Subscribing to candle stream (%ds)...", cfg.CandleGranularity)
	if err := client.Send(deriv.TicksHistoryRequest{
		TicksHistory: cfg.Symbol,
		Style:        "candles",
		Granularity:  cfg.CandleGranularity,
		End:          "latest",
		Count:        maxCandles,
		Subscribe:    1,
	}); err != nil {
		s.logf("error", "Candle subscription failed: %v", err)
		return
	}
	if err := client.Send(deriv.TransactionSubscribeRequest{Transaction: 1, Subscribe: 1}); err != nil {
		s.logf("error", "Transaction subscription failed: %v", err)
		return
	}
	s.setTradingEnabled(true)
}

func (s *Session) handleOHLC(client *deriv.Client, raw json.RawMessage) {
	if raw == nil {
		return
	}
	if err := s.buffer.Ingest(raw); err != nil {
		s.logf("warning", "Dropping candle: %v", err)
		return
	}
	if s.canTrade() {
		s.evaluate(client)
	}
}

// evaluate runs one fusion round and, when it yields a direction, moves the
// contract machine from None to Proposed.
func (s *Session) evaluate(client *deriv.Client) {
	snapshot := s.buffer.Snapshot()
	if len(snapshot) < s.fuser.MinCandles() {
		s.logf("debug", "Waiting for data: need %d candles, have %d.", s.fuser.MinCandles(), len(snapshot))
		return
	}

	decision := s.fuser.Decide(snapshot)
	if decision == domain.DecisionHold {
		return
	}

	cfg := s.config()
	s.logf("info", "Decision: %s for %s. Requesting proposal...", decision, cfg.ContractFamily)
	s.propose(client, decision, cfg)
}

func (s *Session) propose(client *deriv.Client, decision domain.Decision, cfg domain.TradingSettings) {
	req := deriv.ProposalRequest{
		Proposal: 1,
		Amount:   cfg.Stake,
		Basis:    "stake",
		Currency: "USD",
		Symbol:   cfg.Symbol,
	}

	switch cfg.ContractFamily {
	case domain.FamilyCallPut:
		if decision == domain.DecisionBuy {
			req.ContractType = "CALL"
		} else {
			req.ContractType = "PUT"
		}
		req.Duration = cfg.Duration
		req.DurationUnit = "s"

	case domain.FamilyAccumulator:
		if decision == domain.DecisionSell {
			s.logf("warning", "ACCUMULATOR does not support SELL. Skipping.")
			return
		}
		req.ContractType = "ACCU"
		req.GrowthRate = cfg.AccumulatorGrowthRate
		// The brokerage rejects take_profit/stop_loss on accumulator
		// proposals, so none are sent.

	case domain.FamilyMultiplier:
		if decision == domain.DecisionBuy {
			req.ContractType = "MULTUP"
		} else {
			req.ContractType = "MULTDOWN"
		}
		req.Multiplier = cfg.MultiplierValue
		req.TakeProfit = cfg.TakeProfitMultiplier
		req.StopLoss = cfg.StopLossMultiplier
	}

	s.mu.Lock()
	s.tradingEnabled = false
	s.contract = domain.Contract{Family: cfg.ContractFamily, State: domain.ContractProposed}
	s.mu.Unlock()

	if err := client.Send(req); err != nil {
		s.logf("error", "Failed to send proposal: %v", err)
		s.abandonContract()
	}
}

func (s *Session) handleProposal(client *deriv.Client, p *deriv.Proposal) {
	if !s.inState(domain.ContractProposed) {
		return
	}
	if p == nil || p.ID == "" {
		s.logf("error", "Invalid proposal received. Re-arming...")
		s.abandonContract()
		return
	}

	price := p.AskPrice.Float64()
	if price == 0 {
		price = s.config().Stake
	}
	s.mu.Lock()
	s.contract.BuyPrice = price
	s.contract.State = domain.ContractBought
	s.mu.Unlock()

	s.logf("info", "Proposal received (ID: %s). Buying contract...", p.ID)
	if err := client.Send(deriv.BuyRequest{Buy: p.ID, Price: price}); err != nil {
		s.logf("error", "Failed to send buy order: %v", err)
		s.abandonContract()
	}
}

func (s *Session) handleBuy(client *deriv.Client, b *deriv.Buy) {
	if b == nil || !s.inState(domain.ContractBought) {
		return
	}

	s.mu.Lock()
	s.contract.ID = b.ContractID
	if price := b.BuyPrice.Float64(); price > 0 {
		s.contract.BuyPrice = price
	}
	s.contract.State = domain.ContractMonitoring
	s.stats.TradeCount++
	buyPrice := s.contract.BuyPrice
	s.mu.Unlock()

	s.logf("success", "Contract bought! ID: %d, price: %.2f USD", b.ContractID, buyPrice)
	if err := client.Send(deriv.OpenContractSubscribeRequest{
		ProposalOpenContract: 1,
		ContractID:           b.ContractID,
		Subscribe:            1,
	}); err != nil {
		s.logf("error", "Contract status subscription failed: %v", err)
	}
}

func (s *Session) handleOpenContract(oc *deriv.OpenContract) {
	if oc == nil || oc.IsSold == 0 {
		return
	}
	s.settle(oc.ContractID, oc.Profit.Float64(), oc.BalanceAfter.Float64())
}

func (s *Session) handleTransaction(tx *deriv.Transaction) {
	if tx == nil || tx.Action != "sell" {
		return
	}
	s.mu.Lock()
	open := s.contract.State == domain.ContractMonitoring && s.contract.ID == tx.ContractID
	buyPrice := s.contract.BuyPrice
	s.mu.Unlock()
	if !open {
		return
	}

	profit := tx.Amount.Float64() - buyPrice
	s.logf("info", "Close transaction detected (ID: %d). P/L: %.2f", tx.ContractID, profit)
	s.settle(tx.ContractID, profit, tx.BalanceAfter.Float64())
}

// settle applies exactly one closure per contract id. The direct
// proposal_open_contract notification and the ledger sell transaction both
// funnel here; whichever arrives second finds the machine back at None and
// is ignored.
func (s *Session) settle(contractID int64, profit, balanceAfter float64) {
	s.mu.Lock()
	if s.contract.State != domain.ContractMonitoring || s.contract.ID != contractID {
		s.mu.Unlock()
		s.logf("debug", "Ignoring closure for contract %d.", contractID)
		return
	}
	closed := s.contract
	s.contract = domain.Contract{}
	s.stats.TotalProfitLoss += profit
	win := profit >= 0
	if win {
		s.stats.WinCount++
	} else {
		s.stats.LossCount++
	}
	stats := s.stats
	cfg := s.cfg
	s.mu.Unlock()

	if win {
		s.logf("success", "Win! Profit: %.2f USD (total P/L: %.2f)", profit, stats.TotalProfitLoss)
	} else {
		s.logf("error", "Loss! Lost: %.2f USD (total P/L: %.2f)", -profit, stats.TotalProfitLoss)
	}

	s.notifier.TradeUpdate(s.userID, domain.TradeUpdate{
		WinCount:        stats.WinCount,
		LossCount:       stats.LossCount,
		TotalProfitLoss: stats.TotalProfitLoss,
		BalanceAfter:    balanceAfter,
	})

	if s.history != nil {
		record := &domain.TradeRecord{
			ID:         uuid.NewString(),
			UserID:     s.userID,
			ContractID: closed.ID,
			Family:     closed.Family,
			BuyPrice:   closed.BuyPrice,
			Profit:     profit,
			Win:        win,
			ClosedAt:   s.clock.Now(),
		}
		if err := s.history.RecordTrade(record); err != nil {
			log.Printf("[user %s] failed to record trade %d: %v", s.userID, closed.ID, err)
		}
	}

	// Brief cooldown before re-arming so stale frames from the contract
	// that just closed cannot trigger an immediate re-entry.
	s.clock.Sleep(cfg.TradeCooldown)
	s.setTradingEnabled(true)

	if cfg.ContractFamily == domain.FamilyCallPut {
		if cfg.TakeProfit > 0 && stats.WinCount >= cfg.TakeProfit {
			s.logf("success", "Take profit reached (%d wins). Stopping bot.", stats.WinCount)
			s.setRunning(false)
		} else if cfg.StopLoss > 0 && stats.LossCount >= cfg.StopLoss {
			s.logf("error", "Stop loss reached (%d losses). Stopping bot.", stats.LossCount)
			s.setRunning(false)
		}
	}
}

// abandonContract returns the machine to None and re-enables trading after a
// failed proposal or buy.
func (s *Session) abandonContract() {
	s.mu.Lock()
	if s.contract.State == domain.ContractProposed || s.contract.State == domain.ContractBought {
		s.contract = domain.Contract{}
	}
	s.tradingEnabled = true
	s.mu.Unlock()
}

func (s *Session) canTrade() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running && s.tradingEnabled && !s.contract.Open()
}

func (s *Session) inState(state domain.ContractState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.contract.State == state
}

func (s *Session) setRunning(v bool) {
	s.mu.Lock()
	s.running = v
	s.mu.Unlock()
}

func (s *Session) setTradingEnabled(v bool) {
	s.mu.Lock()
	s.tradingEnabled = v
	s.mu.Unlock()
}

func (s *Session) config() domain.TradingSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

func (s *Session) tokenValue() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// logf writes to the process log and mirrors the line to the user's
// real-time event stream.
func (s *Session) logf(level, format string, args ...any) {
	message := fmt.Sprintf(format, args...)
	log.Printf("[user %s][%s] %s", s.userID, level, message)
	s.notifier.Log(s.userID, level, message)
}
