package deriv

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// FlexFloat unmarshals a JSON number that the Deriv API may send either as a
// number or as a quoted string (prices come quoted, epochs do not).
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	if len(data) > 1 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("non-numeric value %q: %w", s, err)
		}
		*f = FlexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = FlexFloat(v)
	return nil
}

func (f FlexFloat) Float64() float64 { return float64(f) }

// APIError is the error envelope that may accompany any inbound frame.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// OHLC is one candle update from a ticks_history subscription.
type OHLC struct {
	Epoch  FlexFloat `json:"epoch"`
	Open   FlexFloat `json:"open"`
	High   FlexFloat `json:"high"`
	Low    FlexFloat `json:"low"`
	Close  FlexFloat `json:"close"`
	Volume FlexFloat `json:"volume"`
}

// Proposal is a price quote for a prospective contract.
type Proposal struct {
	ID       string    `json:"id"`
	AskPrice FlexFloat `json:"ask_price"`
}

// Buy confirms a purchased contract.
type Buy struct {
	ContractID int64     `json:"contract_id"`
	BuyPrice   FlexFloat `json:"buy_price"`
}

// OpenContract is a proposal_open_contract status update.
type OpenContract struct {
	ContractID   int64     `json:"contract_id"`
	IsSold       int       `json:"is_sold"`
	Profit       FlexFloat `json:"profit"`
	BalanceAfter FlexFloat `json:"balance_after"`
}

// Transaction is one ledger entry from a transaction subscription.
type Transaction struct {
	Action       string    `json:"action"`
	ContractID   int64     `json:"contract_id"`
	Amount       FlexFloat `json:"amount"`
	BalanceAfter FlexFloat `json:"balance_after"`
}

// Frame is one inbound message, discriminated by msg_type. The OHLC payload
// stays raw so the candle aggregator owns its parsing and can drop malformed
// frames without failing the whole dispatch.
type Frame struct {
	MsgType              string          `json:"msg_type"`
	Error                *APIError       `json:"error"`
	Authorize            json.RawMessage `json:"authorize"`
	OHLC                 json.RawMessage `json:"ohlc"`
	Proposal             *Proposal       `json:"proposal"`
	Buy                  *Buy            `json:"buy"`
	ProposalOpenContract *OpenContract   `json:"proposal_open_contract"`
	Transaction          *Transaction    `json:"transaction"`
}
