package domain

import "time"

// SettingsStore abstracts persistence for per-user trading configuration.
// Implementations: in-memory (for dev) and Postgres (for production).
//
// Note: DerivToken is expected to be encrypted at rest by the implementation.
type SettingsStore interface {
	SaveSettings(settings *TradingSettings) error
	GetSettings(userID string) (*TradingSettings, error)
	DeleteSettings(userID string) error
}

// TradeHistoryStore records closed contracts.
type TradeHistoryStore interface {
	RecordTrade(record *TradeRecord) error
	GetHistory(userID string, from time.Time) ([]*TradeRecord, error)
}

// DeviceTokenStore manages per-user device tokens for push notifications.
type DeviceTokenStore interface {
	RegisterToken(userID, token, platform string) error
	UnregisterToken(token string) error
	TokensForUser(userID string) []string
}
