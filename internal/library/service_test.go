package library

import (
	"context"
	"errors"
	"testing"

	"github.com/nvander/strum/internal/domain"
	"github.com/nvander/strum/internal/log"
	"github.com/nvander/strum/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	songs     []domain.Song
	playlists []domain.Collection
	albums    []domain.Album
	banner    *domain.Banner

	songsErr     error
	playlistsErr error
	albumsErr    error
	bannerErr    error

	songCalls int
}

func (f *fakeClient) GetSongs(ctx context.Context) ([]domain.Song, error) {
	f.songCalls++
	return f.songs, f.songsErr
}

func (f *fakeClient) GetPlaylists(ctx context.Context) ([]domain.Collection, error) {
	return f.playlists, f.playlistsErr
}

func (f *fakeClient) GetAlbums(ctx context.Context) ([]domain.Album, error) {
	return f.albums, f.albumsErr
}

func (f *fakeClient) GetBanner(ctx context.Context) (*domain.Banner, error) {
	return f.banner, f.bannerErr
}

type fakeFavorites struct {
	ids []string
	err error
}

func (f *fakeFavorites) GetFavorites(ctx context.Context) ([]string, error) {
	return f.ids, f.err
}

func (f *fakeFavorites) ToggleFavorite(ctx context.Context, songID string) ([]string, error) {
	return f.ids, f.err
}

func memStore(t *testing.T) *store.SessionStore {
	t.Helper()
	s, err := store.NewSessionStore("", "")
	require.NoError(t, err)
	return s
}

func TestFetchNormalizesAlbums(t *testing.T) {
	client := &fakeClient{
		songs:     []domain.Song{{ID: "s1", Title: "One"}},
		playlists: []domain.Collection{{ID: "p1", Name: "Chill"}},
		albums:    []domain.Album{{ID: "a1", Title: "Debut", Songs: []domain.SongRef{{ID: "s1"}}}},
	}
	svc := NewService(client, nil, memStore(t), log.NullLogger())

	require.NoError(t, svc.Fetch(context.Background(), false))

	cols := svc.Collections()
	require.Len(t, cols, 2)
	assert.Equal(t, "Chill", cols[0].Name)
	assert.False(t, cols[0].IsAlbum)
	assert.Equal(t, "Debut", cols[1].Name, "album title aliased as name")
	assert.True(t, cols[1].IsAlbum)
}

func TestFetchSkipsWhenLoaded(t *testing.T) {
	client := &fakeClient{songs: []domain.Song{{ID: "s1"}}}
	svc := NewService(client, nil, memStore(t), log.NullLogger())

	require.NoError(t, svc.Fetch(context.Background(), false))
	require.NoError(t, svc.Fetch(context.Background(), false))
	assert.Equal(t, 1, client.songCalls, "redundant refetch avoided")

	require.NoError(t, svc.Fetch(context.Background(), true))
	assert.Equal(t, 2, client.songCalls, "force bypasses the cache check")
}

func TestPartialFailureKeepsOtherResults(t *testing.T) {
	client := &fakeClient{
		songs:        []domain.Song{{ID: "s1", Title: "One"}},
		playlistsErr: errors.New("boom"),
		albums:       []domain.Album{{ID: "a1", Title: "Debut"}},
	}
	svc := NewService(client, nil, memStore(t), log.NullLogger())

	require.NoError(t, svc.Fetch(context.Background(), false))

	assert.Len(t, svc.Songs(), 1, "songs applied despite playlist failure")
	cols := svc.Collections()
	require.Len(t, cols, 1)
	assert.True(t, cols[0].IsAlbum)
}

func TestFetchFailureLeavesCachedData(t *testing.T) {
	client := &fakeClient{songs: []domain.Song{{ID: "s1"}}}
	svc := NewService(client, nil, memStore(t), log.NullLogger())
	require.NoError(t, svc.Fetch(context.Background(), false))

	client.songsErr = errors.New("offline")
	client.playlistsErr = errors.New("offline")
	client.albumsErr = errors.New("offline")
	err := svc.Fetch(context.Background(), true)
	assert.Error(t, err)
	assert.Len(t, svc.Songs(), 1, "previous catalog preserved on total failure")
}

func TestShuffleHappensOncePerSession(t *testing.T) {
	songs := make([]domain.Song, 50)
	ids := make([]string, 50)
	for i := range songs {
		id := string(rune('A' + i%26))
		id += string(rune('a' + i/26))
		songs[i] = domain.Song{ID: id}
		ids[i] = id
	}
	client := &fakeClient{songs: songs}
	svc := NewService(client, nil, memStore(t), log.NullLogger())

	require.NoError(t, svc.Fetch(context.Background(), false))
	first := svc.Songs()

	// Same membership, independent of order.
	gotIDs := make([]string, len(first))
	for i, s := range first {
		gotIDs[i] = s.ID
	}
	assert.ElementsMatch(t, ids, gotIDs)

	// A forced refresh within the session does not re-shuffle: the fetched
	// order is applied as-is.
	require.NoError(t, svc.Fetch(context.Background(), true))
	second := svc.Songs()
	for i, s := range second {
		assert.Equal(t, songs[i].ID, s.ID)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	st := memStore(t)
	client := &fakeClient{
		songs:     []domain.Song{{ID: "s1", Title: "One"}},
		playlists: []domain.Collection{{ID: "p1", Name: "Chill"}},
	}
	svc := NewService(client, nil, st, log.NullLogger())
	require.NoError(t, svc.Fetch(context.Background(), false))

	// A second service over the same store renders without any network call.
	offline := &fakeClient{songsErr: errors.New("offline")}
	svc2 := NewService(offline, nil, st, log.NullLogger())
	svc2.LoadSnapshot()

	assert.True(t, svc2.Loaded())
	assert.Len(t, svc2.Songs(), 1)
	song, ok := svc2.SongByID("s1")
	require.True(t, ok)
	assert.Equal(t, "One", song.Title)
	assert.Equal(t, 0, offline.songCalls)
}

func TestFavoritesFetchedAlongsideLibrary(t *testing.T) {
	client := &fakeClient{songs: []domain.Song{{ID: "s1"}}}
	favs := &fakeFavorites{ids: []string{"s1"}}
	svc := NewService(client, favs, memStore(t), log.NullLogger())

	var sunk []string
	svc.OnFavoritesFetched(func(ids []string) { sunk = ids })

	require.NoError(t, svc.Fetch(context.Background(), false))
	assert.Equal(t, []string{"s1"}, sunk)
}
