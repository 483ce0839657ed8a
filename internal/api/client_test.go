package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nvander/strum/internal/domain"
	"github.com/nvander/strum/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBearerTokenAttached(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode([]domain.Song{{ID: "s1", Title: "One"}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok-123", "", log.NullLogger())
	songs, err := c.GetSongs(context.Background())
	require.NoError(t, err)
	assert.Len(t, songs, 1)
	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.NotEmpty(t, c.instanceID)
}

func TestRefreshOnceOn401(t *testing.T) {
	var catalogCalls, refreshCalls int
	mux := http.NewServeMux()
	mux.HandleFunc("/api/songs", func(w http.ResponseWriter, r *http.Request) {
		catalogCalls++
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode([]domain.Song{{ID: "s1"}})
	})
	mux.HandleFunc("/api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls++
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "refresh-1", body["refreshToken"])
		json.NewEncoder(w).Encode(map[string]string{
			"accessToken":  "fresh",
			"refreshToken": "refresh-2",
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(srv.URL, "stale", "refresh-1", log.NullLogger())

	var rotatedAccess, rotatedRefresh string
	c.OnTokensChanged(func(access, refresh string) {
		rotatedAccess, rotatedRefresh = access, refresh
	})

	songs, err := c.GetSongs(context.Background())
	require.NoError(t, err)
	assert.Len(t, songs, 1)
	assert.Equal(t, 2, catalogCalls, "original request replayed exactly once")
	assert.Equal(t, 1, refreshCalls)
	assert.Equal(t, "fresh", rotatedAccess)
	assert.Equal(t, "refresh-2", rotatedRefresh)
}

func TestSessionExpiredWhenRefreshFails(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/user/favorites/toggle", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(srv.URL, "stale", "bad-refresh", log.NullLogger())
	_, err := c.ToggleFavorite(context.Background(), "s1")
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
}

func TestColdStartRetry(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode([]domain.Collection{{ID: "p1", Name: "Chill"}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", "", log.NullLogger())
	playlists, err := c.GetPlaylists(context.Background())
	require.NoError(t, err)
	assert.Len(t, playlists, 1)
	assert.GreaterOrEqual(t, calls, 2)
}

func TestFavoritesNormalizeMixedShapes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Server returns a mix of embedded songs and bare ids.
		w.Write([]byte(`[{"_id":"s1","title":"One","artist":"A"},"s2"]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", "", log.NullLogger())
	ids, err := c.GetFavorites(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s2"}, ids)
}

func TestFavoritesRequireAuth(t *testing.T) {
	c := NewClient("http://unused.test", "", "", log.NullLogger())

	_, err := c.GetFavorites(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)

	_, err = c.ToggleFavorite(context.Background(), "s1")
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}
