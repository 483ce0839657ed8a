package search

import (
	"testing"

	"github.com/nvander/strum/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLibrary struct {
	songs       []domain.Song
	collections []domain.Collection
}

func (l *stubLibrary) Songs() []domain.Song             { return l.songs }
func (l *stubLibrary) Collections() []domain.Collection { return l.collections }

func testLibrary() *stubLibrary {
	return &stubLibrary{
		songs: []domain.Song{
			{ID: "s1", Title: "Midnight Rain", Artist: "Nova"},
			{ID: "s2", Title: "Rain", Artist: "Kai"},
			{ID: "s3", Title: "Golden Hour", Artist: "Mira"},
		},
		collections: []domain.Collection{
			{ID: "p1", Name: "Rainy Days"},
			{ID: "p2", Name: "Workout"},
		},
	}
}

func TestEmptyQueryReturnsNothing(t *testing.T) {
	s := NewService(testLibrary(), nil)
	assert.Nil(t, s.Search(""))
	assert.Nil(t, s.Search("   "))
}

func TestExactTitleRanksFirst(t *testing.T) {
	s := NewService(testLibrary(), nil)

	results := s.Search("rain")
	require.NotEmpty(t, results)
	assert.Equal(t, "s2", results[0].Song.ID, "exact title beats prefix and substring")
}

func TestMatchesAcrossKinds(t *testing.T) {
	s := NewService(testLibrary(), nil)

	results := s.Search("rain")
	var kinds []Kind
	for _, r := range results {
		kinds = append(kinds, r.Kind)
	}
	assert.Contains(t, kinds, KindSong)
	assert.Contains(t, kinds, KindCollection)
}

func TestMatchesArtist(t *testing.T) {
	s := NewService(testLibrary(), nil)

	results := s.Search("mira")
	require.NotEmpty(t, results)
	assert.Equal(t, "s3", results[0].Song.ID, "artist match outranks loose fuzzy hits")
}

func TestFuzzyToleratesMissingLetters(t *testing.T) {
	s := NewService(testLibrary(), nil)

	results := s.Search("gldn hour")
	require.NotEmpty(t, results)
	assert.Equal(t, "s3", results[0].Song.ID)
}

func TestNoMatch(t *testing.T) {
	s := NewService(testLibrary(), nil)
	assert.Empty(t, s.Search("zzzzz"))
}
