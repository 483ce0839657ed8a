// Package favorites keeps the favorited-song set synchronized: optimistic
// local toggles with server reconciliation, rollback on failure.
package favorites

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/nvander/strum/internal/domain"
	"github.com/samber/lo"
)

// Service owns the favorites set. The UI observes it through IDs/Contains;
// all mutation goes through Toggle or Replace.
type Service struct {
	client domain.FavoritesClient
	store  domain.Store
	logger *slog.Logger

	// onSessionExpired is invoked when the server signals an invalid
	// session during a toggle. Wired to the logout flow.
	onSessionExpired func()

	mu  sync.RWMutex
	ids []string
}

// NewService creates a new favorites service, seeded from the durable store.
func NewService(client domain.FavoritesClient, store domain.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{client: client, store: store, logger: logger}
	if ids, ok := store.GetFavorites(); ok {
		s.ids = ids
	}
	return s
}

// OnSessionExpired registers the forced-logout hook.
func (s *Service) OnSessionExpired(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSessionExpired = fn
}

// IDs returns the favorites set in insertion order.
func (s *Service) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// Contains reports whether the song is favorited.
func (s *Service) Contains(songID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.Contains(s.ids, songID)
}

// Replace installs the server's authoritative set wholesale. Used when the
// library fetch returns favorites and after every confirmed toggle.
func (s *Service) Replace(ids []string) {
	s.mu.Lock()
	s.ids = ids
	s.mu.Unlock()
	if err := s.store.SaveFavorites(ids); err != nil {
		s.logger.Error("failed to persist favorites", "error", err)
	}
}

// Toggle flips a song's favorite status optimistically and reconciles with
// the server. Requires an authenticated session: ErrNotAuthenticated is
// returned before any mutation when none exists. On network failure the
// pre-toggle set is restored; on an explicit session-invalid signal the
// registered expiry hook fires as well.
func (s *Service) Toggle(ctx context.Context, songID string) error {
	if s.client == nil || !s.authenticated() {
		return domain.ErrNotAuthenticated
	}

	return s.transact(
		func(ids []string) []string {
			if lo.Contains(ids, songID) {
				return lo.Without(ids, songID)
			}
			return append(ids, songID)
		},
		func() ([]string, error) {
			return s.client.ToggleFavorite(ctx, songID)
		},
	)
}

// transact applies an optimistic mutation, runs the remote call, and either
// commits the server's returned set or rolls back to the snapshot.
func (s *Service) transact(apply func([]string) []string, remote func() ([]string, error)) error {
	s.mu.Lock()
	snapshot := make([]string, len(s.ids))
	copy(snapshot, s.ids)
	s.ids = apply(append([]string(nil), s.ids...))
	expired := s.onSessionExpired
	s.mu.Unlock()

	serverIDs, err := remote()
	if err != nil {
		// Roll back to the exact pre-toggle contents.
		s.mu.Lock()
		s.ids = snapshot
		s.mu.Unlock()

		if errors.Is(err, domain.ErrSessionExpired) || errors.Is(err, domain.ErrNotAuthenticated) {
			s.logger.Warn("favorites toggle rejected, session invalid")
			if expired != nil {
				expired()
			}
			return domain.ErrSessionExpired
		}
		s.logger.Error("favorites toggle failed, rolled back", "error", err)
		return err
	}

	// Server response is the source of truth post-toggle.
	s.Replace(serverIDs)
	return nil
}

func (s *Service) authenticated() bool {
	type authed interface{ IsAuthenticated() bool }
	if a, ok := s.client.(authed); ok {
		return a.IsAuthenticated()
	}
	return true
}
