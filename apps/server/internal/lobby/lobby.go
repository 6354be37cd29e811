package lobby

import (
	"context"
	"fmt"
	"sync"
	"time"

	"craps-lite/apps/server/internal/ledger"
	"craps-lite/apps/server/internal/observability"
	"craps-lite/apps/server/internal/table"
	"craps-lite/craps"
	"craps-lite/dice"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
)

// Lobby owns every open session. It holds at most MaxSessions; creating
// one more closes the least recently used.
type Lobby struct {
	mu     sync.Mutex
	tables *lru.Cache[string, *table.Table]

	defaults  craps.Config
	animation time.Duration
	fairDice  bool
	ledger    ledger.Service
	metrics   *observability.Metrics
	logger    zerolog.Logger
	rollHooks []table.RollHook

	// Set while Create inserts, so the evict callback can tell a capacity
	// eviction from an explicit Remove.
	inserting bool
}

type Options struct {
	MaxSessions int
	Defaults    craps.Config
	Animation   time.Duration
	FairDice    bool
	Ledger      ledger.Service
	Metrics     *observability.Metrics
	Logger      zerolog.Logger
	RollHooks   []table.RollHook
}

func New(opts Options) (*Lobby, error) {
	if opts.MaxSessions <= 0 {
		return nil, fmt.Errorf("max sessions must be > 0")
	}
	l := &Lobby{
		defaults:  opts.Defaults,
		animation: opts.Animation,
		fairDice:  opts.FairDice,
		ledger:    opts.Ledger,
		metrics:   opts.Metrics,
		logger:    opts.Logger.With().Str("component", "lobby").Logger(),
		rollHooks: opts.RollHooks,
	}
	cache, err := lru.NewWithEvict[string, *table.Table](opts.MaxSessions, l.onEvict)
	if err != nil {
		return nil, err
	}
	l.tables = cache
	return l, nil
}

func (l *Lobby) onEvict(id string, t *table.Table) {
	t.Stop()
	if l.inserting {
		l.logger.Info().Str("table", id).Msg("session evicted at capacity")
		if l.metrics != nil {
			l.metrics.SessionEvictions.Inc()
		}
	}
}

// Create opens a new session with the default table settings.
func (l *Lobby) Create(broadcastFn func(connID string, data []byte)) (*table.Table, error) {
	id := uuid.NewString()
	opts := table.Options{
		Config:    l.defaults,
		Animation: l.animation,
		Broadcast: broadcastFn,
		Ledger:    l.ledger,
		Metrics:   l.metrics,
		Logger:    l.logger,
	}
	if l.fairDice {
		seed, err := dice.NewServerSeed()
		if err != nil {
			return nil, err
		}
		opts.FairSeed = seed
	}
	t, err := table.New(id, opts)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	for _, hook := range l.rollHooks {
		t.AddRollHook(hook)
	}

	l.mu.Lock()
	l.inserting = true
	l.tables.Add(id, t)
	l.inserting = false
	n := l.tables.Len()
	l.mu.Unlock()

	l.setActive(n)
	l.logger.Info().Str("table", id).Int("sessions", n).Msg("session created")
	return t, nil
}

// GetTable returns an open session by ID and marks it recently used.
func (l *Lobby) GetTable(tableID string) *table.Table {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.tables.Get(tableID)
	if !ok || t.IsClosed() {
		return nil
	}
	return t
}

// ListTables returns all session IDs, oldest first.
func (l *Lobby) ListTables() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tables.Keys()
}

// Remove closes and forgets a session.
func (l *Lobby) Remove(tableID string) bool {
	l.mu.Lock()
	ok := l.tables.Remove(tableID)
	n := l.tables.Len()
	l.mu.Unlock()
	l.setActive(n)
	return ok
}

// ReapIdle closes sessions that have had no viewer for ttl.
func (l *Lobby) ReapIdle(ttl time.Duration) int {
	l.mu.Lock()
	var idle []string
	for _, id := range l.tables.Keys() {
		if t, ok := l.tables.Peek(id); ok && t.IsIdleFor(ttl) {
			idle = append(idle, id)
		}
	}
	for _, id := range idle {
		l.tables.Remove(id)
	}
	n := l.tables.Len()
	l.mu.Unlock()

	l.setActive(n)
	if len(idle) > 0 {
		l.logger.Info().Int("reaped", len(idle)).Int("sessions", n).Msg("idle sessions closed")
	}
	return len(idle)
}

// Run reaps idle sessions every interval until ctx ends.
func (l *Lobby) Run(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.ReapIdle(ttl)
		}
	}
}

// Close stops every session.
func (l *Lobby) Close() {
	l.mu.Lock()
	l.tables.Purge()
	l.mu.Unlock()
	l.setActive(0)
}

func (l *Lobby) setActive(n int) {
	if l.metrics != nil {
		l.metrics.ActiveSessions.Set(float64(n))
	}
}
