package store

import (
	"testing"

	"github.com/nvander/strum/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := NewSessionStore(dir, "https://api.example.com")
	require.NoError(t, err)

	songs := []domain.Song{
		{ID: "s1", Title: "First", Artist: "A"},
		{ID: "s2", Title: "Second", Artist: "B"},
	}
	require.NoError(t, s.SaveSongs(songs))
	require.NoError(t, s.SaveFavorites([]string{"s2"}))
	require.NoError(t, s.SaveSession(domain.SessionState{
		Version:        domain.SessionStateVersion,
		RecentlyPlayed: []string{"s1"},
		QuoteIndex:     3,
	}))
	require.NoError(t, s.Close())

	// Reopen: everything must come back from disk.
	s, err = NewSessionStore(dir, "https://api.example.com")
	require.NoError(t, err)
	defer s.Close()

	got, ok := s.GetSongs()
	require.True(t, ok)
	assert.Equal(t, songs, got)

	favs, ok := s.GetFavorites()
	require.True(t, ok)
	assert.Equal(t, []string{"s2"}, favs)

	state, ok := s.GetSession()
	require.True(t, ok)
	assert.Equal(t, 3, state.QuoteIndex)
	assert.Equal(t, []string{"s1"}, state.RecentlyPlayed)
}

func TestInvalidateAll(t *testing.T) {
	s, err := NewSessionStore("", "")
	require.NoError(t, err)

	require.NoError(t, s.SaveSongs([]domain.Song{{ID: "s1"}}))
	require.NoError(t, s.SaveFavorites([]string{"s1"}))
	require.NoError(t, s.InvalidateAll())

	_, ok := s.GetSongs()
	assert.False(t, ok)
	_, ok = s.GetFavorites()
	assert.False(t, ok)
	_, ok = s.GetSession()
	assert.False(t, ok)
}

func TestMemoryOnlyMode(t *testing.T) {
	s, err := NewSessionStore("", "")
	require.NoError(t, err)
	defer s.Close()

	_, ok := s.GetCollections()
	assert.False(t, ok)

	require.NoError(t, s.SaveCollections([]domain.Collection{{ID: "p1", Name: "Chill"}}))
	cols, ok := s.GetCollections()
	require.True(t, ok)
	assert.Equal(t, "Chill", cols[0].Name)
}
