package domain

import (
	"bytes"
	"encoding/json"
)

// FavoritesName is the reserved display name of the synthetic favorites
// collection. It is built client-side and has no server identity.
const FavoritesName = "Favorite Songs"

// Song is a single track in the catalog. Records are server-assigned and
// never mutated by the client; only read.
type Song struct {
	ID       string `json:"_id"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Album    string `json:"album,omitempty"`
	Duration string `json:"duration,omitempty"` // display label, e.g. "3:42"
	CoverURL string `json:"coverUrl,omitempty"` // absolute URL or storage path
	AudioURL string `json:"audioUrl,omitempty"` // absolute URL or storage path
	Category string `json:"category,omitempty"`
}

// SongRef is a reference to a song inside a collection document. The server
// stores either a bare id or an embedded full song object; both forms decode
// into this union and are resolved at the queue boundary.
type SongRef struct {
	ID   string
	Full *Song
}

// Resolve returns the referenced song, consulting lookup for bare ids.
func (r SongRef) Resolve(lookup func(id string) (Song, bool)) (Song, bool) {
	if r.Full != nil {
		return *r.Full, true
	}
	if r.ID == "" || lookup == nil {
		return Song{}, false
	}
	return lookup(r.ID)
}

// RefID returns the song id regardless of which form the reference holds.
func (r SongRef) RefID() string {
	if r.Full != nil {
		return r.Full.ID
	}
	return r.ID
}

func (r *SongRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &r.ID)
	}
	var song Song
	if err := json.Unmarshal(data, &song); err != nil {
		return err
	}
	r.Full = &song
	r.ID = song.ID
	return nil
}

func (r SongRef) MarshalJSON() ([]byte, error) {
	if r.Full != nil {
		return json.Marshal(r.Full)
	}
	return json.Marshal(r.ID)
}

// Collection is a playlist or a normalized album: an ordered set of song
// references with a display name. Albums carry IsAlbum so the UI can badge
// them, but behave identically everywhere else.
type Collection struct {
	ID       string    `json:"_id"`
	Name     string    `json:"name"`
	Songs    []SongRef `json:"songs"`
	CoverURL string    `json:"coverUrl,omitempty"`
	IsAlbum  bool      `json:"isAlbum,omitempty"`
}

// IsFavorites reports whether this is the synthetic favorites collection.
func (c *Collection) IsFavorites() bool {
	return c != nil && c.Name == FavoritesName
}

// Album is the server-side album document. It is normalized into a Collection
// immediately after fetch so the rest of the engine treats playlists and
// albums uniformly.
type Album struct {
	ID       string    `json:"_id"`
	Title    string    `json:"title"`
	Artist   string    `json:"artist,omitempty"`
	Songs    []SongRef `json:"songs"`
	CoverURL string    `json:"coverUrl,omitempty"`
}

// Normalize converts the album into its playlist-shaped form.
func (a Album) Normalize() Collection {
	return Collection{
		ID:       a.ID,
		Name:     a.Title,
		Songs:    a.Songs,
		CoverURL: a.CoverURL,
		IsAlbum:  true,
	}
}

// Banner is the promotional header record shown on the home view.
type Banner struct {
	ImageURL   string `json:"imageUrl"`
	Title      string `json:"title"`
	Subtitle   string `json:"subtitle"`
	ButtonText string `json:"buttonText"`
	ButtonLink string `json:"buttonLink"`
}

// User is the authenticated account, as much of it as the client needs.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SessionStateVersion is the current schema version of the persisted
// session record. Bump when fields change shape and handle the upgrade in
// the session manager.
const SessionStateVersion = 1

// SessionState is the single durable session record: everything that
// survives a reload lives here, read once at startup and written through the
// store.
type SessionState struct {
	Version        int      `json:"version"`
	User           *User    `json:"user,omitempty"`
	RecentlyPlayed []string `json:"recentlyPlayed,omitempty"` // song ids, most recent first
	QuoteIndex     int      `json:"quoteIndex"`
	QuoteRotatedAt int64    `json:"quoteRotatedAt"` // unix millis of last rotation
}
