package domain

import "encoding/json"

// Notifier receives session events for real-time delivery to UI clients.
// Implementations must never block the protocol loop; delivery is
// fire-and-forget.
type Notifier interface {
	Log(userID, level, message string)
	StatusChanged(userID string, running bool)
	AccountInfo(userID string, payload json.RawMessage)
	TradeUpdate(userID string, update TradeUpdate)
}

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) Log(string, string, string)              {}
func (NopNotifier) StatusChanged(string, bool)              {}
func (NopNotifier) AccountInfo(string, json.RawMessage)     {}
func (NopNotifier) TradeUpdate(string, TradeUpdate)         {}

var _ Notifier = NopNotifier{}
