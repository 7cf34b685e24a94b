package usecase

import (
	"context"
	"errors"
	"sync"

	"github.com/benbjohnson/clock"

	"tradebot-backend/internal/domain"
	"tradebot-backend/internal/infrastructure/deriv"
)

// Registry manages one trading session per user. Control requests for the
// same user are serialized by a per-user lock so concurrent starts cannot
// race two sessions into existence; requests for different users never block
// each other.
type Registry struct {
	wsURL    string
	notifier domain.Notifier
	settings domain.SettingsStore
	history  domain.TradeHistoryStore
	clock    clock.Clock

	mu       sync.Mutex
	sessions map[string]*Session
	locks    map[string]*sync.Mutex
}

func NewRegistry(wsURL string, notifier domain.Notifier, settings domain.SettingsStore, history domain.TradeHistoryStore) *Registry {
	if notifier == nil {
		notifier = domain.NopNotifier{}
	}
	return &Registry{
		wsURL:    wsURL,
		notifier: notifier,
		settings: settings,
		history:  history,
		clock:    clock.New(),
		sessions: make(map[string]*Session),
		locks:    make(map[string]*sync.Mutex),
	}
}

func (r *Registry) userLock(userID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[userID] = l
	}
	return l
}

// Start launches a session for the user with the supplied settings. When the
// request carries no API token, the stored settings provide one; without a
// token from either source the start is rejected.
func (r *Registry) Start(ctx context.Context, userID string, cfg domain.TradingSettings) error {
	lock := r.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	cfg.UserID = userID
	if cfg.DerivToken == "" {
		stored, err := r.storedSettings(userID)
		if err != nil {
			return err
		}
		if stored == nil || stored.DerivToken == "" {
			return domain.ErrMissingToken
		}
		cfg.DerivToken = stored.DerivToken
	}

	r.mu.Lock()
	existing := r.sessions[userID]
	r.mu.Unlock()

	if existing != nil {
		if existing.Running() {
			return domain.ErrAlreadyRunning
		}
		if err := existing.Reset(cfg); err != nil {
			return err
		}
		return existing.Start(ctx)
	}

	session := newSession(userID, cfg, r.dialer(), r.notifier, r.history, r.clock)
	if err := session.Start(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	r.sessions[userID] = session
	r.mu.Unlock()
	return nil
}

// Stop terminates the user's session and waits for its loop to exit.
func (r *Registry) Stop(userID string) error {
	lock := r.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	r.mu.Lock()
	session := r.sessions[userID]
	r.mu.Unlock()

	if session == nil || !session.Running() {
		return domain.ErrNotRunning
	}
	session.Stop()
	return nil
}

// Status reports whether the user's session is running, plus its counters.
func (r *Registry) Status(userID string) (bool, domain.SessionStats) {
	r.mu.Lock()
	session := r.sessions[userID]
	r.mu.Unlock()

	if session == nil {
		return false, domain.SessionStats{}
	}
	return session.Running(), session.Stats()
}

// StopAll shuts every running session down, for process termination.
func (r *Registry) StopAll() {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.Unlock()

	for _, s := range sessions {
		s.Stop()
	}
}

func (r *Registry) storedSettings(userID string) (*domain.TradingSettings, error) {
	if r.settings == nil {
		return nil, nil
	}
	stored, err := r.settings.GetSettings(userID)
	if errors.Is(err, domain.ErrSettingsNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func (r *Registry) dialer() Dialer {
	url := r.wsURL
	return func(ctx context.Context) (*deriv.Client, error) {
		return deriv.Dial(ctx, url)
	}
}
