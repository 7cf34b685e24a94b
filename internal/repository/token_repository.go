package repository

import (
	"sync"
	"time"

	"tradebot-backend/internal/domain"
)

// DeviceToken represents a registered device token
type DeviceToken struct {
	Token     string
	UserID    string
	Platform  string // "android" or "ios"
	CreatedAt time.Time
}

// TokenRepository manages device tokens for push notifications, keyed per
// user so a trade closure only notifies its owner's devices.
type TokenRepository struct {
	tokens map[string]*DeviceToken // token -> DeviceToken
	mu     sync.RWMutex
}

func NewTokenRepository() *TokenRepository {
	return &TokenRepository{
		tokens: make(map[string]*DeviceToken),
	}
}

// RegisterToken adds or updates a device token
func (r *TokenRepository) RegisterToken(userID, token, platform string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tokens[token] = &DeviceToken{
		Token:     token,
		UserID:    userID,
		Platform:  platform,
		CreatedAt: time.Now(),
	}
	return nil
}

// UnregisterToken removes a device token
func (r *TokenRepository) UnregisterToken(token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.tokens, token)
	return nil
}

// TokensForUser returns the user's registered tokens
func (r *TokenRepository) TokensForUser(userID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tokens := make([]string, 0)
	for token, dt := range r.tokens {
		if dt.UserID == userID {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

var _ domain.DeviceTokenStore = (*TokenRepository)(nil)
