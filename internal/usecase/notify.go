package usecase

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"tradebot-backend/internal/domain"
	"tradebot-backend/internal/infrastructure/fcm"
)

// MultiNotifier fans session events out to several sinks, typically the UI
// websocket hub plus the push notifier.
type MultiNotifier []domain.Notifier

var _ domain.Notifier = MultiNotifier{}

func (m MultiNotifier) Log(userID, level, message string) {
	for _, n := range m {
		n.Log(userID, level, message)
	}
}

func (m MultiNotifier) StatusChanged(userID string, running bool) {
	for _, n := range m {
		n.StatusChanged(userID, running)
	}
}

func (m MultiNotifier) AccountInfo(userID string, payload json.RawMessage) {
	for _, n := range m {
		n.AccountInfo(userID, payload)
	}
}

func (m MultiNotifier) TradeUpdate(userID string, update domain.TradeUpdate) {
	for _, n := range m {
		n.TradeUpdate(userID, update)
	}
}

// pushCooldown rate-limits per-user push notifications so a burst of closed
// contracts does not spam the user's phone.
const pushCooldown = 30 * time.Second

// PushNotifier forwards contract closures and status changes to the user's
// registered devices via FCM. Log and account events stay on the websocket
// stream only.
type PushNotifier struct {
	fcm    *fcm.Client
	tokens domain.DeviceTokenStore

	mu       sync.Mutex
	lastPush map[string]time.Time
}

var _ domain.Notifier = (*PushNotifier)(nil)

func NewPushNotifier(client *fcm.Client, tokens domain.DeviceTokenStore) *PushNotifier {
	return &PushNotifier{
		fcm:      client,
		tokens:   tokens,
		lastPush: make(map[string]time.Time),
	}
}

func (p *PushNotifier) Log(string, string, string)          {}
func (p *PushNotifier) AccountInfo(string, json.RawMessage) {}

func (p *PushNotifier) StatusChanged(userID string, running bool) {
	if running {
		return
	}
	p.send(userID, "Trading bot stopped", "Your trading session has ended.", map[string]string{
		"type": "status",
	})
}

func (p *PushNotifier) TradeUpdate(userID string, update domain.TradeUpdate) {
	p.mu.Lock()
	if last, ok := p.lastPush[userID]; ok && time.Since(last) < pushCooldown {
		p.mu.Unlock()
		return
	}
	p.lastPush[userID] = time.Now()
	p.mu.Unlock()

	body := fmt.Sprintf("W %d / L %d, total P/L %.2f USD", update.WinCount, update.LossCount, update.TotalProfitLoss)
	p.send(userID, "Trade closed", body, map[string]string{
		"type":       "trade_update",
		"win_count":  fmt.Sprintf("%d", update.WinCount),
		"loss_count": fmt.Sprintf("%d", update.LossCount),
		"total_pl":   fmt.Sprintf("%.2f", update.TotalProfitLoss),
	})
}

func (p *PushNotifier) send(userID, title, body string, data map[string]string) {
	if p.fcm == nil || !p.fcm.IsEnabled() || p.tokens == nil {
		return
	}
	tokens := p.tokens.TokensForUser(userID)
	if len(tokens) == 0 {
		return
	}
	// Push delivery must not block the protocol loop.
	go func() {
		if err := p.fcm.SendMulticast(tokens, title, body, data); err != nil {
			log.Printf("push to user %s failed: %v", userID, err)
		}
	}()
}
