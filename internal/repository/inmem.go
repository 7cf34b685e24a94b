package repository

import (
	"sort"
	"sync"
	"time"

	"tradebot-backend/internal/domain"
)

// InMemSettingsRepository keeps trading settings in memory. Used for local
// development and tests; production wires the Postgres variant.
type InMemSettingsRepository struct {
	mu       sync.RWMutex
	settings map[string]domain.TradingSettings
}

func NewInMemSettingsRepository() *InMemSettingsRepository {
	return &InMemSettingsRepository{settings: make(map[string]domain.TradingSettings)}
}

func (r *InMemSettingsRepository) SaveSettings(settings *domain.TradingSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings[settings.UserID] = *settings
	return nil
}

func (r *InMemSettingsRepository) GetSettings(userID string) (*domain.TradingSettings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.settings[userID]
	if !ok {
		return nil, domain.ErrSettingsNotFound
	}
	copied := s
	return &copied, nil
}

func (r *InMemSettingsRepository) DeleteSettings(userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.settings, userID)
	return nil
}

// InMemTradeHistoryRepository keeps closed trades in memory, newest first.
type InMemTradeHistoryRepository struct {
	mu     sync.RWMutex
	trades map[string][]*domain.TradeRecord
}

func NewInMemTradeHistoryRepository() *InMemTradeHistoryRepository {
	return &InMemTradeHistoryRepository{trades: make(map[string][]*domain.TradeRecord)}
}

func (r *InMemTradeHistoryRepository) RecordTrade(record *domain.TradeRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *record
	r.trades[record.UserID] = append(r.trades[record.UserID], &copied)
	return nil
}

func (r *InMemTradeHistoryRepository) GetHistory(userID string, from time.Time) ([]*domain.TradeRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.TradeRecord, 0)
	for _, t := range r.trades[userID] {
		if t.ClosedAt.Before(from) {
			continue
		}
		copied := *t
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClosedAt.After(out[j].ClosedAt) })
	return out, nil
}

// compile-time checks
var (
	_ domain.SettingsStore     = (*InMemSettingsRepository)(nil)
	_ domain.TradeHistoryStore = (*InMemTradeHistoryRepository)(nil)
)
