// Package queue derives the active playable queue from the current filter
// context: selected collection (or all songs), the favorites set, and the
// free-text search term.
package queue

import (
	"strings"
	"sync"

	"github.com/nvander/strum/internal/domain"
)

// Library is the catalog surface the deriver resolves against.
type Library interface {
	Songs() []domain.Song
	SongByID(id string) (domain.Song, bool)
}

// Favorites exposes the favorited song ids in set order.
type Favorites interface {
	IDs() []string
}

// Deriver computes the ordered candidate list that next/previous/shuffle
// operate over. It holds the filter context; the song data lives in the
// library cache and favorites set and is re-read on every derivation.
type Deriver struct {
	library   Library
	favorites Favorites

	mu         sync.RWMutex
	selected   *domain.Collection
	searchTerm string
}

// NewDeriver creates a queue deriver over the given sources.
func NewDeriver(library Library, favorites Favorites) *Deriver {
	return &Deriver{library: library, favorites: favorites}
}

// Select sets the active collection filter. nil means all songs. Selecting
// the already-selected collection clears the filter.
func (d *Deriver) Select(c *domain.Collection) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if c != nil && d.selected != nil && d.selected.ID == c.ID && d.selected.Name == c.Name {
		d.selected = nil
		return
	}
	d.selected = c
}

// Selected returns the active collection filter, nil for all songs.
func (d *Deriver) Selected() *domain.Collection {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.selected
}

// SetSearch sets the free-text filter applied on top of the collection.
func (d *Deriver) SetSearch(term string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.searchTerm = term
}

// SearchTerm returns the current free-text filter.
func (d *Deriver) SearchTerm() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.searchTerm
}

// Songs derives the active queue: the selected collection's songs (favorites
// resolve through the synthetic collection, bare ids resolve against the
// library, unresolvable entries drop silently) narrowed by a
// case-insensitive substring match on title or artist. The result is always
// a fresh slice.
func (d *Deriver) Songs() []domain.Song {
	d.mu.RLock()
	selected := d.selected
	term := d.searchTerm
	d.mu.RUnlock()

	var base []domain.Song
	switch {
	case selected.IsFavorites():
		ids := d.favorites.IDs()
		base = make([]domain.Song, 0, len(ids))
		for _, id := range ids {
			if song, ok := d.library.SongByID(id); ok {
				base = append(base, song)
			}
		}
	case selected != nil:
		base = make([]domain.Song, 0, len(selected.Songs))
		for _, ref := range selected.Songs {
			if song, ok := ref.Resolve(d.library.SongByID); ok {
				base = append(base, song)
			}
		}
	default:
		base = d.library.Songs()
	}

	if term == "" {
		out := make([]domain.Song, len(base))
		copy(out, base)
		return out
	}

	search := strings.ToLower(term)
	out := make([]domain.Song, 0, len(base))
	for _, song := range base {
		title := strings.ToLower(song.Title)
		artist := strings.ToLower(song.Artist)
		if strings.Contains(title, search) || strings.Contains(artist, search) {
			out = append(out, song)
		}
	}
	return out
}

// FavoritesCollection builds the synthetic favorites collection for display.
func FavoritesCollection() *domain.Collection {
	return &domain.Collection{Name: domain.FavoritesName}
}
