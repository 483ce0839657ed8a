package domain

import "context"

// LibraryClient provides network reads of the catalog.
type LibraryClient interface {
	GetSongs(ctx context.Context) ([]Song, error)
	GetPlaylists(ctx context.Context) ([]Collection, error)
	GetAlbums(ctx context.Context) ([]Album, error)
	GetBanner(ctx context.Context) (*Banner, error)
}

// FavoritesClient provides authenticated favorites operations. Both calls
// return the server's authoritative set of favorited song ids.
type FavoritesClient interface {
	GetFavorites(ctx context.Context) ([]string, error)
	ToggleFavorite(ctx context.Context, songID string) ([]string, error)
}

// Store is the durable key-value persistence surface. Reads return ok=false
// when nothing has been saved yet.
type Store interface {
	GetSongs() ([]Song, bool)
	SaveSongs(songs []Song) error
	GetCollections() ([]Collection, bool)
	SaveCollections(collections []Collection) error
	GetFavorites() ([]string, bool)
	SaveFavorites(ids []string) error
	GetSession() (SessionState, bool)
	SaveSession(state SessionState) error
	InvalidateAll() error
	Close() error
}
