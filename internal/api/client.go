// Package api implements the REST client for the streaming backend.
//
// The backend contract is simple JSON collections plus a favorites toggle.
// Two behaviors live here rather than in callers: a single token refresh per
// request on 401/403, and a short backoff retry on network errors and 5xx
// responses (free-tier backends sleep and need a moment to wake).
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/nvander/strum/internal/domain"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "Strum/1.0"
)

// Client implements domain.LibraryClient and domain.FavoritesClient.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	instanceID string // per-process client identifier sent with every request

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	onTokens     func(access, refresh string) // persistence hook, may be nil
}

// NewClient creates a new API client. The token pair may be empty for an
// anonymous session.
func NewClient(baseURL, accessToken, refreshToken string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger:       logger,
		instanceID:   uuid.NewString(),
		accessToken:  accessToken,
		refreshToken: refreshToken,
	}
}

// OnTokensChanged registers a hook invoked whenever the token pair rotates.
func (c *Client) OnTokensChanged(fn func(access, refresh string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onTokens = fn
}

// IsAuthenticated reports whether a bearer token is held.
func (c *Client) IsAuthenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken != ""
}

// ClearTokens drops the stored token pair. Called on logout.
func (c *Client) ClearTokens() {
	c.setTokens("", "")
}

func (c *Client) setTokens(access, refresh string) {
	c.mu.Lock()
	c.accessToken = access
	c.refreshToken = refresh
	fn := c.onTokens
	c.mu.Unlock()
	if fn != nil {
		fn(access, refresh)
	}
}

func (c *Client) bearer() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken
}

// doJSON performs a request with retry and refresh handling, decoding the
// response into out when out is non-nil.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	data, status, err := c.doOnce(ctx, method, path, body)
	if err != nil {
		return err
	}

	// One refresh attempt per request, then replay once.
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		if err := c.refresh(ctx); err != nil {
			return err
		}
		data, status, err = c.doOnce(ctx, method, path, body)
		if err != nil {
			return err
		}
		if status == http.StatusUnauthorized || status == http.StatusForbidden {
			return domain.ErrSessionExpired
		}
	}

	if status < 200 || status > 299 {
		c.logger.Error("api request error", "method", method, "path", path, "status", status)
		return fmt.Errorf("api %s %s: unexpected status %d", method, path, status)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("api %s %s: decode response: %w", method, path, err)
	}
	return nil
}

// doOnce executes a single logical request, retrying transport errors and
// 5xx responses with backoff. Auth statuses are returned, not retried.
func (c *Client) doOnce(ctx context.Context, method, path string, body interface{}) ([]byte, int, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("encode request body: %w", err)
		}
	}

	var respBody []byte
	var status int

	op := func() error {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("X-Client-Instance", c.instanceID)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if token := c.bearer(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Warn("api request failed, will retry", "path", path, "error", err)
			return err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		// Sleeping backend: retry 5xx the same way as transport errors.
		if resp.StatusCode >= 500 {
			c.logger.Warn("api server error, will retry", "path", path, "status", resp.StatusCode)
			return fmt.Errorf("server error: %d", resp.StatusCode)
		}

		respBody = data
		status = resp.StatusCode
		return nil
	}

	policy := backoff.WithContext(coldStartPolicy(), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, 0, fmt.Errorf("api %s %s: %w", method, path, err)
	}
	return respBody, status, nil
}

// coldStartPolicy retries for up to ~15s, long enough for a sleeping
// free-tier backend to wake.
func coldStartPolicy() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = 15 * time.Second
	return b
}

// refresh exchanges the refresh token for a new pair. Failure is terminal
// for the session.
func (c *Client) refresh(ctx context.Context) error {
	c.mu.Lock()
	refreshToken := c.refreshToken
	c.mu.Unlock()

	if refreshToken == "" {
		return domain.ErrSessionExpired
	}

	data, status, err := c.doOnce(ctx, http.MethodPost, "/api/auth/refresh", map[string]string{
		"refreshToken": refreshToken,
	})
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		c.logger.Warn("token refresh rejected", "status", status)
		return domain.ErrSessionExpired
	}

	var tokens struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.Unmarshal(data, &tokens); err != nil {
		return fmt.Errorf("decode refresh response: %w", err)
	}

	c.setTokens(tokens.AccessToken, tokens.RefreshToken)
	c.logger.Info("access token refreshed")
	return nil
}

// cacheBuster defeats intermediary caching on catalog reads.
func cacheBuster() string {
	return fmt.Sprintf("?t=%d", time.Now().UnixMilli())
}

// GetSongs fetches the full song catalog.
func (c *Client) GetSongs(ctx context.Context) ([]domain.Song, error) {
	var songs []domain.Song
	if err := c.doJSON(ctx, http.MethodGet, "/api/songs"+cacheBuster(), nil, &songs); err != nil {
		return nil, err
	}
	return songs, nil
}

// GetPlaylists fetches all playlists.
func (c *Client) GetPlaylists(ctx context.Context) ([]domain.Collection, error) {
	var playlists []domain.Collection
	if err := c.doJSON(ctx, http.MethodGet, "/api/playlists"+cacheBuster(), nil, &playlists); err != nil {
		return nil, err
	}
	return playlists, nil
}

// GetAlbums fetches all albums in their server shape.
func (c *Client) GetAlbums(ctx context.Context) ([]domain.Album, error) {
	var albums []domain.Album
	if err := c.doJSON(ctx, http.MethodGet, "/api/albums"+cacheBuster(), nil, &albums); err != nil {
		return nil, err
	}
	return albums, nil
}

// GetBanner fetches the home banner, nil when none is configured.
func (c *Client) GetBanner(ctx context.Context) (*domain.Banner, error) {
	var banner domain.Banner
	if err := c.doJSON(ctx, http.MethodGet, "/api/banner"+cacheBuster(), nil, &banner); err != nil {
		return nil, err
	}
	if banner.ImageURL == "" && banner.Title == "" {
		return nil, nil
	}
	return &banner, nil
}

// GetFavorites fetches the authenticated user's favorite song ids. The
// server may return full song objects or bare ids; both normalize to ids.
func (c *Client) GetFavorites(ctx context.Context) ([]string, error) {
	if !c.IsAuthenticated() {
		return nil, domain.ErrNotAuthenticated
	}

	var refs []domain.SongRef
	if err := c.doJSON(ctx, http.MethodGet, "/api/user/favorites", nil, &refs); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		if id := ref.RefID(); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// ToggleFavorite flips a song's favorite status and returns the server's
// authoritative favorites set.
func (c *Client) ToggleFavorite(ctx context.Context, songID string) ([]string, error) {
	if !c.IsAuthenticated() {
		return nil, domain.ErrNotAuthenticated
	}

	var result struct {
		Favorites []string `json:"favorites"`
	}
	err := c.doJSON(ctx, http.MethodPost, "/api/user/favorites/toggle", map[string]string{
		"songId": songID,
	}, &result)
	if err != nil {
		if errors.Is(err, domain.ErrSessionExpired) {
			return nil, err
		}
		return nil, fmt.Errorf("toggle favorite %s: %w", songID, err)
	}
	return result.Favorites, nil
}
