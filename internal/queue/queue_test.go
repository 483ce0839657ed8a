package queue

import (
	"testing"

	"github.com/nvander/strum/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLibrary struct {
	songs []domain.Song
	byID  map[string]domain.Song
}

func newStubLibrary(songs ...domain.Song) *stubLibrary {
	byID := make(map[string]domain.Song, len(songs))
	for _, s := range songs {
		byID[s.ID] = s
	}
	return &stubLibrary{songs: songs, byID: byID}
}

func (l *stubLibrary) Songs() []domain.Song { return l.songs }

func (l *stubLibrary) SongByID(id string) (domain.Song, bool) {
	s, ok := l.byID[id]
	return s, ok
}

type stubFavorites struct{ ids []string }

func (f *stubFavorites) IDs() []string { return f.ids }

var catalog = []domain.Song{
	{ID: "s1", Title: "Midnight Rain", Artist: "Nova"},
	{ID: "s2", Title: "Golden Hour", Artist: "Kai"},
	{ID: "s3", Title: "Rainfall", Artist: "Mira"},
}

func ids(songs []domain.Song) []string {
	out := make([]string, len(songs))
	for i, s := range songs {
		out[i] = s.ID
	}
	return out
}

func TestAllSongsNoFilter(t *testing.T) {
	d := NewDeriver(newStubLibrary(catalog...), &stubFavorites{})
	assert.Equal(t, []string{"s1", "s2", "s3"}, ids(d.Songs()))
}

func TestSearchMatchesTitleOrArtist(t *testing.T) {
	d := NewDeriver(newStubLibrary(catalog...), &stubFavorites{})

	d.SetSearch("rain")
	assert.Equal(t, []string{"s1", "s3"}, ids(d.Songs()), "title substring, case-insensitive")

	d.SetSearch("KAI")
	assert.Equal(t, []string{"s2"}, ids(d.Songs()), "artist substring, case-insensitive")

	d.SetSearch("zzz")
	assert.Empty(t, d.Songs())

	d.SetSearch("")
	assert.Equal(t, []string{"s1", "s2", "s3"}, ids(d.Songs()))
}

func TestCollectionResolvesMixedRefs(t *testing.T) {
	d := NewDeriver(newStubLibrary(catalog...), &stubFavorites{})
	d.Select(&domain.Collection{
		ID:   "p1",
		Name: "Mix",
		Songs: []domain.SongRef{
			{ID: "s3"}, // bare id
			{Full: &domain.Song{ID: "x1", Title: "Embedded Only", Artist: "Ghost"}}, // full object not in cache
			{ID: "missing"}, // unresolvable, dropped silently
			{ID: "s1"},
		},
	})

	got := d.Songs()
	assert.Equal(t, []string{"s3", "x1", "s1"}, ids(got), "collection order kept, dangling refs dropped")
}

func TestCollectionWithSearch(t *testing.T) {
	d := NewDeriver(newStubLibrary(catalog...), &stubFavorites{})
	d.Select(&domain.Collection{
		ID:    "p1",
		Name:  "Mix",
		Songs: []domain.SongRef{{ID: "s1"}, {ID: "s2"}, {ID: "s3"}},
	})
	d.SetSearch("rain")
	assert.Equal(t, []string{"s1", "s3"}, ids(d.Songs()))
}

func TestFavoritesSentinelCollection(t *testing.T) {
	favs := &stubFavorites{ids: []string{"s2", "missing", "s1"}}
	d := NewDeriver(newStubLibrary(catalog...), favs)
	d.Select(FavoritesCollection())

	assert.Equal(t, []string{"s2", "s1"}, ids(d.Songs()), "favorites order, unresolvable dropped")

	d.SetSearch("nova")
	assert.Equal(t, []string{"s1"}, ids(d.Songs()))
}

func TestSelectTogglesOff(t *testing.T) {
	d := NewDeriver(newStubLibrary(catalog...), &stubFavorites{})
	col := &domain.Collection{ID: "p1", Name: "Mix", Songs: []domain.SongRef{{ID: "s2"}}}

	d.Select(col)
	require.NotNil(t, d.Selected())
	assert.Equal(t, []string{"s2"}, ids(d.Songs()))

	// Selecting the same collection again clears the filter.
	d.Select(col)
	assert.Nil(t, d.Selected())
	assert.Len(t, d.Songs(), 3)
}

func TestDerivationReturnsFreshSlice(t *testing.T) {
	d := NewDeriver(newStubLibrary(catalog...), &stubFavorites{})
	a := d.Songs()
	b := d.Songs()
	a[0] = domain.Song{ID: "mutated"}
	assert.Equal(t, "s1", b[0].ID, "derivations are independent copies")
	assert.Equal(t, "s1", d.Songs()[0].ID)
}
