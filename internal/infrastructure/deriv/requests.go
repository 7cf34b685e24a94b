package deriv

// AuthorizeRequest authenticates the session with a user's API token.
type AuthorizeRequest struct {
	Authorize string `json:"authorize"`
}

// TicksHistoryRequest subscribes to a candle stream. Count is capped by the
// API at 5000; the session requests 750 to match its buffer.
type TicksHistoryRequest struct {
	TicksHistory string `json:"ticks_history"`
	Style        string `json:"style"`
	Granularity  int    `json:"granularity"`
	End          string `json:"end"`
	Count        int    `json:"count"`
	Subscribe    int    `json:"subscribe"`
}

// TransactionSubscribeRequest subscribes to the account's transaction ledger.
type TransactionSubscribeRequest struct {
	Transaction int `json:"transaction"`
	Subscribe   int `json:"subscribe"`
}

// ProposalRequest asks for a contract quote. Family-specific fields are
// omitempty so a CALLPUT duration can never leak into other families.
type ProposalRequest struct {
	Proposal     int     `json:"proposal"`
	Amount       float64 `json:"amount"`
	Basis        string  `json:"basis"`
	Currency     string  `json:"currency"`
	Symbol       string  `json:"symbol"`
	ContractType string  `json:"contract_type"`
	Duration     int     `json:"duration,omitempty"`
	DurationUnit string  `json:"duration_unit,omitempty"`
	GrowthRate   float64 `json:"growth_rate,omitempty"`
	Multiplier   int     `json:"multiplier,omitempty"`
	TakeProfit   float64 `json:"take_profit,omitempty"`
	StopLoss     float64 `json:"stop_loss,omitempty"`
}

// BuyRequest accepts a proposal at its quoted price.
type BuyRequest struct {
	Buy   string  `json:"buy"`
	Price float64 `json:"price"`
}

// OpenContractSubscribeRequest subscribes to status updates for a contract.
type OpenContractSubscribeRequest struct {
	ProposalOpenContract int   `json:"proposal_open_contract"`
	ContractID           int64 `json:"contract_id"`
	Subscribe            int   `json:"subscribe"`
}

// PongRequest answers a keepalive ping.
type PongRequest struct {
	Pong int `json:"pong"`
}
