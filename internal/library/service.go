// Package library maintains the in-memory catalog with cache-then-network
// semantics: the durable snapshot renders instantly at startup, then a
// refresh replaces it wholesale.
package library

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/nvander/strum/internal/domain"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// Service owns the song and collection caches. Writes happen only here;
// every other component reads through the query methods.
type Service struct {
	client    domain.LibraryClient
	favorites domain.FavoritesClient
	store     domain.Store
	logger    *slog.Logger

	// onFavorites receives the fetched favorites set. Wired to the
	// favorites synchronizer so library refresh reconciles it too.
	onFavorites func(ids []string)

	mu          sync.RWMutex
	songs       []domain.Song
	byID        map[string]domain.Song
	collections []domain.Collection
	banner      *domain.Banner
	loaded      bool
	shuffled    bool
}

// NewService creates a new library service.
func NewService(client domain.LibraryClient, favorites domain.FavoritesClient, store domain.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		client:    client,
		favorites: favorites,
		store:     store,
		logger:    logger,
		byID:      make(map[string]domain.Song),
	}
}

// OnFavoritesFetched registers the sink for favorites fetched alongside the
// library.
func (s *Service) OnFavoritesFetched(fn func(ids []string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onFavorites = fn
}

// LoadSnapshot seeds the in-memory cache from the durable store so the UI
// renders before the network responds. The snapshot was shuffled when it was
// taken, so it does not count as a fresh load.
func (s *Service) LoadSnapshot() {
	songs, songsOK := s.store.GetSongs()
	collections, colsOK := s.store.GetCollections()

	s.mu.Lock()
	defer s.mu.Unlock()
	if songsOK {
		s.setSongsLocked(songs)
		s.shuffled = true
		s.loaded = true
	}
	if colsOK {
		s.collections = collections
	}
	if songsOK || colsOK {
		s.logger.Debug("library snapshot loaded", "songs", len(songs), "collections", len(collections))
	}
}

// Fetch refreshes the catalog from the network. With force false it is a
// no-op once data is present. The sub-fetches run concurrently and fail
// independently: one failing endpoint never discards the others' results.
func (s *Service) Fetch(ctx context.Context, force bool) error {
	s.mu.RLock()
	if s.loaded && !force {
		s.mu.RUnlock()
		return nil
	}
	s.mu.RUnlock()

	var (
		songs     []domain.Song
		playlists []domain.Collection
		albums    []domain.Album
		banner    *domain.Banner
		favorites []string

		songsErr, playlistsErr, albumsErr, bannerErr, favoritesErr error
	)

	var g errgroup.Group
	g.Go(func() error {
		songs, songsErr = s.client.GetSongs(ctx)
		return nil
	})
	g.Go(func() error {
		playlists, playlistsErr = s.client.GetPlaylists(ctx)
		return nil
	})
	g.Go(func() error {
		albums, albumsErr = s.client.GetAlbums(ctx)
		return nil
	})
	g.Go(func() error {
		banner, bannerErr = s.client.GetBanner(ctx)
		return nil
	})
	g.Go(func() error {
		favorites, favoritesErr = s.fetchFavorites(ctx)
		return nil
	})
	g.Wait()

	s.mu.Lock()

	if songsErr != nil {
		s.logger.Error("failed to fetch songs", "error", songsErr)
	} else {
		if !s.shuffled {
			// Vary default browsing order once per fresh session.
			songs = lo.Shuffle(songs)
			s.shuffled = true
		}
		s.setSongsLocked(songs)
		s.loaded = true
	}

	collectionsApplied := false
	if playlistsErr != nil {
		s.logger.Error("failed to fetch playlists", "error", playlistsErr)
	}
	if albumsErr != nil {
		s.logger.Error("failed to fetch albums", "error", albumsErr)
	}
	if playlistsErr == nil || albumsErr == nil {
		// Albums normalize into playlist-shaped collections; a failure on
		// either endpoint still applies the other.
		merged := make([]domain.Collection, 0, len(playlists)+len(albums))
		if playlistsErr == nil {
			merged = append(merged, playlists...)
		} else {
			merged = append(merged, s.playlistsOnlyLocked()...)
		}
		if albumsErr == nil {
			merged = append(merged, lo.Map(albums, func(a domain.Album, _ int) domain.Collection {
				return a.Normalize()
			})...)
		} else {
			merged = append(merged, s.albumsOnlyLocked()...)
		}
		s.collections = merged
		collectionsApplied = true
	}

	if bannerErr != nil {
		s.logger.Error("failed to fetch banner", "error", bannerErr)
	} else {
		s.banner = banner
	}

	snapSongs := s.songs
	snapCollections := s.collections
	onFavorites := s.onFavorites
	s.mu.Unlock()

	if favoritesErr != nil && !errors.Is(favoritesErr, domain.ErrNotAuthenticated) {
		s.logger.Error("failed to fetch favorites", "error", favoritesErr)
	}
	if favoritesErr == nil && onFavorites != nil {
		onFavorites(favorites)
	}

	// Persist what succeeded so the next start renders from cache.
	if songsErr == nil {
		if err := s.store.SaveSongs(snapSongs); err != nil {
			s.logger.Error("failed to save songs snapshot", "error", err)
		}
	}
	if collectionsApplied {
		if err := s.store.SaveCollections(snapCollections); err != nil {
			s.logger.Error("failed to save collections snapshot", "error", err)
		}
	}

	if songsErr != nil && playlistsErr != nil && albumsErr != nil {
		return songsErr
	}

	s.logger.Info("library refreshed",
		"songs", len(songs),
		"playlists", len(playlists),
		"albums", len(albums))
	return nil
}

func (s *Service) fetchFavorites(ctx context.Context) ([]string, error) {
	if s.favorites == nil {
		return nil, domain.ErrNotAuthenticated
	}
	return s.favorites.GetFavorites(ctx)
}

func (s *Service) setSongsLocked(songs []domain.Song) {
	s.songs = songs
	s.byID = make(map[string]domain.Song, len(songs))
	for _, song := range songs {
		s.byID[song.ID] = song
	}
}

func (s *Service) playlistsOnlyLocked() []domain.Collection {
	return lo.Filter(s.collections, func(c domain.Collection, _ int) bool { return !c.IsAlbum })
}

func (s *Service) albumsOnlyLocked() []domain.Collection {
	return lo.Filter(s.collections, func(c domain.Collection, _ int) bool { return c.IsAlbum })
}

// === Queries ===

// Songs returns the cached song list in browsing order.
func (s *Service) Songs() []domain.Song {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Song, len(s.songs))
	copy(out, s.songs)
	return out
}

// SongByID resolves a song id against the cache.
func (s *Service) SongByID(id string) (domain.Song, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	song, ok := s.byID[id]
	return song, ok
}

// Collections returns playlists and normalized albums.
func (s *Service) Collections() []domain.Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Collection, len(s.collections))
	copy(out, s.collections)
	return out
}

// Banner returns the home banner, nil when none is configured.
func (s *Service) Banner() *domain.Banner {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.banner
}

// Loaded reports whether any song data is present.
func (s *Service) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Reset drops all in-memory state. The next Fetch behaves like a fresh
// session, including the one-time shuffle.
func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.songs = nil
	s.byID = make(map[string]domain.Song)
	s.collections = nil
	s.banner = nil
	s.loaded = false
	s.shuffled = false
}
