package session

import (
	"testing"
	"time"

	"github.com/nvander/strum/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory domain.Store for session tests.
type memStore struct {
	session     *domain.SessionState
	saveCount   int
	invalidated bool
}

func (s *memStore) GetSongs() ([]domain.Song, bool)             { return nil, false }
func (s *memStore) SaveSongs([]domain.Song) error               { return nil }
func (s *memStore) GetCollections() ([]domain.Collection, bool) { return nil, false }
func (s *memStore) SaveCollections([]domain.Collection) error   { return nil }
func (s *memStore) GetFavorites() ([]string, bool)              { return nil, false }
func (s *memStore) SaveFavorites([]string) error                { return nil }
func (s *memStore) Close() error                                { return nil }

func (s *memStore) GetSession() (domain.SessionState, bool) {
	if s.session == nil {
		return domain.SessionState{}, false
	}
	return *s.session, true
}

func (s *memStore) SaveSession(state domain.SessionState) error {
	s.saveCount++
	copied := state
	s.session = &copied
	return nil
}

func (s *memStore) InvalidateAll() error {
	s.session = nil
	s.invalidated = true
	return nil
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestRecentlyPlayedDedupesToFront(t *testing.T) {
	m := NewManager(&memStore{}, nil)

	m.TouchRecentlyPlayed("a")
	m.TouchRecentlyPlayed("b")
	m.TouchRecentlyPlayed("a")

	assert.Equal(t, []string{"a", "b"}, m.RecentlyPlayed(), "replaying moves to front, no duplicate")
}

func TestRecentlyPlayedCapped(t *testing.T) {
	m := NewManager(&memStore{}, nil)

	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k"} {
		m.TouchRecentlyPlayed(id)
	}

	got := m.RecentlyPlayed()
	require.Len(t, got, RecentlyPlayedMax)
	assert.Equal(t, "k", got[0])
	assert.NotContains(t, got, "a", "oldest entry evicted")
}

func TestRecentlyPlayedIgnoresEmptyID(t *testing.T) {
	m := NewManager(&memStore{}, nil)
	m.TouchRecentlyPlayed("")
	assert.Empty(t, m.RecentlyPlayed())
}

func TestRecentlyPlayedSurvivesReload(t *testing.T) {
	store := &memStore{}
	m := NewManager(store, nil)
	m.TouchRecentlyPlayed("a")
	m.TouchRecentlyPlayed("b")

	m2 := NewManager(store, nil)
	assert.Equal(t, []string{"b", "a"}, m2.RecentlyPlayed())
}

func TestQuoteAdvancesOneStepPerInterval(t *testing.T) {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &memStore{session: &domain.SessionState{
		Version:        domain.SessionStateVersion,
		QuoteIndex:     3,
		QuoteRotatedAt: start.UnixMilli(),
	}}

	m := NewManager(store, nil, WithClock(fixedClock(start.Add(QuoteInterval-time.Minute))))
	assert.Equal(t, Quotes[3], m.Quote(), "interval not yet elapsed")

	m = NewManager(store, nil, WithClock(fixedClock(start.Add(QuoteInterval+time.Minute))))
	assert.Equal(t, Quotes[4], m.Quote())
}

func TestQuoteCatchesUpElapsedIntervals(t *testing.T) {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &memStore{session: &domain.SessionState{
		Version:        domain.SessionStateVersion,
		QuoteIndex:     0,
		QuoteRotatedAt: start.UnixMilli(),
	}}

	// Five intervals passed while the app was closed.
	now := start.Add(5 * QuoteInterval)
	m := NewManager(store, nil, WithClock(fixedClock(now)))

	assert.Equal(t, Quotes[5], m.Quote())
	assert.Equal(t, now.UnixMilli(), store.session.QuoteRotatedAt, "rotation timestamp reset to now")
}

func TestQuoteIndexWrapsAround(t *testing.T) {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &memStore{session: &domain.SessionState{
		Version:        domain.SessionStateVersion,
		QuoteIndex:     len(Quotes) - 1,
		QuoteRotatedAt: start.UnixMilli(),
	}}

	m := NewManager(store, nil, WithClock(fixedClock(start.Add(QuoteInterval))))
	assert.Equal(t, Quotes[0], m.Quote())
}

func TestFreshStateInitialized(t *testing.T) {
	store := &memStore{}
	m := NewManager(store, nil)

	require.NotNil(t, store.session, "fresh record persisted on first advance or mutation")
	assert.NotEmpty(t, m.Quote())
	assert.Equal(t, domain.SessionStateVersion, store.session.Version)
	assert.NotZero(t, store.session.QuoteRotatedAt)
}

func TestOldVersionMigrated(t *testing.T) {
	store := &memStore{session: &domain.SessionState{
		Version:        0,
		RecentlyPlayed: []string{"a", "b"},
	}}

	m := NewManager(store, nil)
	m.TouchRecentlyPlayed("c")

	assert.Equal(t, domain.SessionStateVersion, store.session.Version)
	assert.Equal(t, []string{"c", "a", "b"}, m.RecentlyPlayed(), "history carried across migration")
}

func TestUserPersisted(t *testing.T) {
	store := &memStore{}
	m := NewManager(store, nil)
	require.Nil(t, m.User())

	m.SetUser(&domain.User{ID: "u1", Name: "Ada"})
	assert.Equal(t, "Ada", m.User().Name)
	assert.Equal(t, "u1", store.session.User.ID)
}

func TestLogoutClearsEverything(t *testing.T) {
	store := &memStore{}
	m := NewManager(store, nil)
	m.SetUser(&domain.User{ID: "u1"})
	m.TouchRecentlyPlayed("a")

	require.NoError(t, m.Logout())

	assert.True(t, store.invalidated)
	assert.Nil(t, m.User())
	assert.Empty(t, m.RecentlyPlayed())
}
