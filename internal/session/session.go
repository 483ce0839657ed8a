// Package session owns the durable session record: the logged-in user, the
// recently-played list, and the rotating idle quote. The record is read once
// at startup and written through the store on every change.
package session

import (
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/nvander/strum/internal/domain"
)

// RecentlyPlayedMax bounds the recently-played ring.
const RecentlyPlayedMax = 10

// QuoteInterval is how often the idle quote advances one step. Elapsed
// intervals are caught up on load, so the app does not need to stay open.
const QuoteInterval = 6 * time.Hour

// Quotes shown when nothing is playing and no cover art is available.
var Quotes = []string{
	"Music is the universal language of mankind.",
	"Where words fail, music speaks.",
	"Life is better with music.",
	"Music is the art of thinking with sounds.",
	"Without music, life would be a mistake.",
	"Music is the soul of the universe.",
	"Let the music play.",
	"Music connects people.",
	"Rhythm is the heartbeat of life.",
	"Music washes away the dust of everyday life.",
	"In music we trust.",
	"Feel the beat.",
	"Music is my escape.",
	"Harmony is the goal.",
	"Melody is the essence of music.",
	"Music is healing.",
	"Dance across the edges of time.",
	"Lost in the rhythm.",
	"Music brings us together.",
	"Soundtrack of your life.",
}

// Manager loads, mutates, and persists the session record.
type Manager struct {
	store  domain.Store
	logger *slog.Logger
	now    func() time.Time

	mu    sync.Mutex
	state domain.SessionState
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the time source. Tests use a fixed clock.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager loads the session record from the store, initializing or
// migrating it as needed.
func NewManager(store domain.Store, logger *slog.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{store: store, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := store.GetSession()
	if !ok || state.Version < domain.SessionStateVersion {
		state = m.initState(state)
		m.state = state
		m.persistLocked()
	} else {
		m.state = state
	}
	m.advanceQuoteLocked()
	return m
}

// initState builds a fresh record, carrying forward whatever an older
// version had.
func (m *Manager) initState(old domain.SessionState) domain.SessionState {
	state := old
	state.Version = domain.SessionStateVersion
	if state.QuoteRotatedAt == 0 {
		state.QuoteIndex = rand.Intn(len(Quotes))
		state.QuoteRotatedAt = m.now().UnixMilli()
	}
	return state
}

func (m *Manager) persistLocked() {
	if err := m.store.SaveSession(m.state); err != nil {
		m.logger.Error("failed to persist session state", "error", err)
	}
}

// User returns the logged-in user, nil when anonymous.
func (m *Manager) User() *domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.User
}

// SetUser records the logged-in user.
func (m *Manager) SetUser(user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.User = user
	m.persistLocked()
}

// TouchRecentlyPlayed moves the song to the front of the recently-played
// list, deduplicating and capping at RecentlyPlayedMax. Called whenever the
// current song changes to a non-null value.
func (m *Manager) TouchRecentlyPlayed(songID string) {
	if songID == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	next := make([]string, 0, RecentlyPlayedMax)
	next = append(next, songID)
	for _, id := range m.state.RecentlyPlayed {
		if id == songID {
			continue
		}
		next = append(next, id)
		if len(next) == RecentlyPlayedMax {
			break
		}
	}
	m.state.RecentlyPlayed = next
	m.persistLocked()
}

// RecentlyPlayed returns song ids, most recent first.
func (m *Manager) RecentlyPlayed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.state.RecentlyPlayed))
	copy(out, m.state.RecentlyPlayed)
	return out
}

// Quote returns the current idle quote, advancing it first if one or more
// rotation intervals have elapsed.
func (m *Manager) Quote() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.advanceQuoteLocked()
	return Quotes[m.state.QuoteIndex%len(Quotes)]
}

func (m *Manager) advanceQuoteLocked() {
	now := m.now()
	last := time.UnixMilli(m.state.QuoteRotatedAt)
	elapsed := now.Sub(last)
	if elapsed < QuoteInterval {
		return
	}
	steps := int(elapsed / QuoteInterval)
	m.state.QuoteIndex = (m.state.QuoteIndex + steps) % len(Quotes)
	m.state.QuoteRotatedAt = now.UnixMilli()
	m.persistLocked()
}

// Logout clears all durable session state. The caller resets playback.
func (m *Manager) Logout() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.InvalidateAll(); err != nil {
		m.logger.Error("failed to clear session store", "error", err)
		return err
	}
	m.state = m.initState(domain.SessionState{})
	m.persistLocked()
	return nil
}
