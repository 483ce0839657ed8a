package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/nvander/strum/internal/domain"
	"github.com/nvander/strum/internal/favorites"
	"github.com/nvander/strum/internal/library"
	"github.com/nvander/strum/internal/session"
)

// Command factories for async operations

// FetchLibraryCmd refreshes the catalog from the server. The cached snapshot
// stays visible while the fetch runs.
func FetchLibraryCmd(svc *library.Service, force bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		if err := svc.Fetch(ctx, force); err != nil {
			if svc.Loaded() {
				// Cache still serves the UI; report quietly.
				return StatusMsg{Message: "Refresh failed, showing cached library", IsError: true}
			}
			return ErrMsg{Err: err, Context: "loading library"}
		}
		return LibraryLoadedMsg{}
	}
}

// ToggleFavoriteCmd flips a song's favorite state. The optimistic flip has
// already happened by the time any message lands.
func ToggleFavoriteCmd(svc *favorites.Service, songID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := svc.Toggle(ctx, songID); err != nil {
			if errors.Is(err, domain.ErrSessionExpired) {
				return SessionExpiredMsg{}
			}
			if errors.Is(err, domain.ErrNotAuthenticated) {
				return StatusMsg{Message: "Sign in to favorite songs", IsError: true}
			}
			return ErrMsg{Err: err, Context: "updating favorites"}
		}
		return FavoriteToggledMsg{SongID: songID}
	}
}

// LogoutCmd clears the session record and all cached library data.
func LogoutCmd(sess *session.Manager) tea.Cmd {
	return func() tea.Msg {
		return LogoutCompleteMsg{Error: sess.Logout()}
	}
}

// TickCmd returns a command that sends a tick after a delay
func TickCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return TickMsg{}
	})
}

// ClearStatusCmd clears the status message after a delay
func ClearStatusCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}
