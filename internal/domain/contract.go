package domain

import "time"

// ContractState tracks the lifecycle of the single in-flight contract of a session.
type ContractState int

const (
	ContractNone ContractState = iota
	ContractProposed
	ContractBought
	ContractMonitoring
	ContractClosed
)

func (s ContractState) String() string {
	switch s {
	case ContractProposed:
		return "PROPOSED"
	case ContractBought:
		return "BOUGHT"
	case ContractMonitoring:
		return "MONITORING"
	case ContractClosed:
		return "CLOSED"
	default:
		return "NONE"
	}
}

// Contract is the single open position of a session. At most one contract
// is open per session at any time.
type Contract struct {
	ID       int64          `json:"contractId"`
	Family   ContractFamily `json:"family"`
	BuyPrice float64        `json:"buyPrice"`
	State    ContractState  `json:"state"`
}

// Open reports whether a proposal or position is currently in flight.
func (c Contract) Open() bool {
	return c.State != ContractNone && c.State != ContractClosed
}

// SessionStats holds cumulative counters for one session run. They reset
// only on explicit session reset, never on stop.
type SessionStats struct {
	TradeCount      int     `json:"tradeCount"`
	WinCount        int     `json:"winCount"`
	LossCount       int     `json:"lossCount"`
	TotalProfitLoss float64 `json:"totalProfitLoss"`
}

// TradeUpdate is the payload pushed to observers after a contract closes.
type TradeUpdate struct {
	WinCount        int     `json:"winCount"`
	LossCount       int     `json:"lossCount"`
	TotalProfitLoss float64 `json:"totalProfitLoss"`
	BalanceAfter    float64 `json:"balanceAfter"`
}

// TradeRecord is one closed contract persisted to the trade history store.
type TradeRecord struct {
	ID         string         `json:"id"`
	UserID     string         `json:"userId"`
	ContractID int64          `json:"contractId"`
	Family     ContractFamily `json:"family"`
	BuyPrice   float64        `json:"buyPrice"`
	Profit     float64        `json:"profit"`
	Win        bool           `json:"win"`
	ClosedAt   time.Time      `json:"closedAt"`
}
