// Package search provides ranked fuzzy search across the cached library:
// songs, playlists, and albums in one result list.
package search

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/nvander/strum/internal/domain"
)

// Kind classifies a search result.
type Kind int

const (
	KindSong Kind = iota
	KindCollection
)

// Result is one ranked search hit.
type Result struct {
	Kind       Kind
	Song       domain.Song
	Collection domain.Collection
	Title      string
	Score      int // lower is better
}

// Library is the cached catalog surface searched against.
type Library interface {
	Songs() []domain.Song
	Collections() []domain.Collection
}

// Service ranks fuzzy matches over the cached library. Searches never hit
// the network; the library cache is the index.
type Service struct {
	library Library
	logger  *slog.Logger
}

// NewService creates a search service over the given library.
func NewService(library Library, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{library: library, logger: logger}
}

// Search returns ranked results for the query, best first. An empty query
// returns nil.
func (s *Service) Search(query string) []Result {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	var results []Result
	lowered := strings.ToLower(query)

	for _, song := range s.library.Songs() {
		if score, ok := songScore(lowered, song); ok {
			results = append(results, Result{
				Kind:  KindSong,
				Song:  song,
				Title: song.Title,
				Score: score,
			})
		}
	}

	for _, col := range s.library.Collections() {
		if score, ok := matchScore(lowered, col.Name); ok {
			results = append(results, Result{
				Kind:       KindCollection,
				Collection: col,
				Title:      col.Name,
				Score:      score,
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score < results[j].Score
		}
		return len(results[i].Title) < len(results[j].Title)
	})

	s.logger.Debug("search complete", "query", query, "results", len(results))
	return results
}

// songScore scores a song as the better of its title and artist match, with
// a small penalty on artist-only hits so title matches sort first.
func songScore(query string, song domain.Song) (int, bool) {
	titleScore, titleOK := matchScore(query, song.Title)
	artistScore, artistOK := matchScore(query, song.Artist)
	switch {
	case titleOK && artistOK:
		if titleScore <= artistScore+5 {
			return titleScore, true
		}
		return artistScore + 5, true
	case titleOK:
		return titleScore, true
	case artistOK:
		return artistScore + 5, true
	default:
		return 0, false
	}
}

// matchScore scores a candidate against the query. Lower is better.
func matchScore(query, candidate string) (int, bool) {
	title := strings.ToLower(candidate)

	if title == query {
		return 0, true
	}
	if strings.HasPrefix(title, query) {
		return 10, true
	}
	if idx := strings.Index(title, query); idx >= 0 {
		return 50 + idx, true
	}
	if fuzzy.MatchFold(query, title) {
		return 100 + fuzzy.RankMatchFold(query, title), true
	}
	return 0, false
}
