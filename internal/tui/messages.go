package tui

// Message types for the TUI

// ErrMsg represents an error surfaced in the status line
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// LibraryLoadedMsg signals that the catalog fetch finished
type LibraryLoadedMsg struct {
	FromCache bool
}

// FavoriteToggledMsg signals that a favorite toggle settled server-side
type FavoriteToggledMsg struct {
	SongID string
}

// SessionExpiredMsg signals that the auth session could not be refreshed
type SessionExpiredMsg struct{}

// LogoutCompleteMsg signals that logout finished
type LogoutCompleteMsg struct {
	Error error
}

// TickMsg drives transport progress updates
type TickMsg struct{}

// StatusMsg sets a temporary status message
type StatusMsg struct {
	Message string
	IsError bool
}

// ClearStatusMsg clears the status bar message
type ClearStatusMsg struct{}
