package usecase

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradebot-backend/internal/domain"
	"tradebot-backend/internal/repository"
)

func newTestRegistry(t *testing.T, fake *fakeDeriv, settings domain.SettingsStore) *Registry {
	t.Helper()
	r := NewRegistry(fake.url(), domain.NopNotifier{}, settings, repository.NewInMemTradeHistoryRepository())
	t.Cleanup(r.StopAll)
	return r
}

func TestRegistryStartWithoutTokenRejected(t *testing.T) {
	fake := newFakeDeriv(t)
	r := newTestRegistry(t, fake, repository.NewInMemSettingsRepository())

	err := r.Start(context.Background(), "u1", maTestSettingsNoToken())
	assert.ErrorIs(t, err, domain.ErrMissingToken)

	running, _ := r.Status("u1")
	assert.False(t, running)
}

func TestRegistryStartFallsBackToStoredToken(t *testing.T) {
	fake := newFakeDeriv(t)
	store := repository.NewInMemSettingsRepository()
	stored := maTestSettings()
	stored.DerivToken = "stored-tok"
	require.NoError(t, store.SaveSettings(&stored))

	r := newTestRegistry(t, fake, store)
	require.NoError(t, r.Start(context.Background(), "u1", maTestSettingsNoToken()))

	req := fake.next(t)
	assert.Equal(t, "stored-tok", req["authorize"])
}

func TestRegistryStartTwiceRejected(t *testing.T) {
	fake := newFakeDeriv(t)
	r := newTestRegistry(t, fake, repository.NewInMemSettingsRepository())

	require.NoError(t, r.Start(context.Background(), "u1", maTestSettings()))

	err := r.Start(context.Background(), "u1", maTestSettings())
	assert.ErrorIs(t, err, domain.ErrAlreadyRunning)
}

func TestRegistryStopWhenNotRunning(t *testing.T) {
	fake := newFakeDeriv(t)
	r := newTestRegistry(t, fake, repository.NewInMemSettingsRepository())

	assert.ErrorIs(t, r.Stop("u1"), domain.ErrNotRunning)

	require.NoError(t, r.Start(context.Background(), "u1", maTestSettings()))
	require.NoError(t, r.Stop("u1"))
	assert.ErrorIs(t, r.Stop("u1"), domain.ErrNotRunning)
}

func TestRegistryUnknownStrategyRejected(t *testing.T) {
	fake := newFakeDeriv(t)
	r := newTestRegistry(t, fake, repository.NewInMemSettingsRepository())

	cfg := maTestSettings()
	cfg.Strategies.Enabled = []string{"no_such_strategy"}

	err := r.Start(context.Background(), "u1", cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no_such_strategy")

	running, _ := r.Status("u1")
	assert.False(t, running)
}

func TestRegistryRestartAfterStop(t *testing.T) {
	fake := newFakeDeriv(t)
	r := newTestRegistry(t, fake, repository.NewInMemSettingsRepository())

	require.NoError(t, r.Start(context.Background(), "u1", maTestSettings()))
	require.NoError(t, r.Stop("u1"))

	require.NoError(t, r.Start(context.Background(), "u1", maTestSettings()))
	running, stats := r.Status("u1")
	assert.True(t, running)
	assert.Equal(t, domain.SessionStats{}, stats, "restart starts from clean counters")
}

func TestRegistryConcurrentStartsSingleWinner(t *testing.T) {
	fake := newFakeDeriv(t)
	r := newTestRegistry(t, fake, repository.NewInMemSettingsRepository())

	const attempts = 8
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- r.Start(context.Background(), "u1", maTestSettings())
		}()
	}
	wg.Wait()
	close(errs)

	var ok, rejected int
	for err := range errs {
		if err == nil {
			ok++
		} else {
			assert.ErrorIs(t, err, domain.ErrAlreadyRunning)
			rejected++
		}
	}
	assert.Equal(t, 1, ok, "exactly one start wins")
	assert.Equal(t, attempts-1, rejected)
}

func TestRegistryStatusUnknownUser(t *testing.T) {
	fake := newFakeDeriv(t)
	r := newTestRegistry(t, fake, repository.NewInMemSettingsRepository())

	running, stats := r.Status("nobody")
	assert.False(t, running)
	assert.Equal(t, domain.SessionStats{}, stats)
}

func maTestSettingsNoToken() domain.TradingSettings {
	cfg := maTestSettings()
	cfg.DerivToken = ""
	return cfg
}
