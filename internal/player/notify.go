package player

import (
	"log/slog"

	"github.com/gen2brain/beeep"
	"github.com/nvander/strum/internal/domain"
)

// DesktopNotifier sends OS notifications when a new song starts. Wired into
// the controller via WithNotifier.
type DesktopNotifier struct {
	logger *slog.Logger
}

// NewDesktopNotifier creates a desktop notifier.
func NewDesktopNotifier(logger *slog.Logger) *DesktopNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &DesktopNotifier{logger: logger}
}

// SongStarted shows a "Now Playing" notification. Failures are logged and
// otherwise ignored; notifications are best effort.
func (n *DesktopNotifier) SongStarted(song domain.Song) {
	body := song.Artist
	if song.Album != "" {
		body += " / " + song.Album
	}
	if err := beeep.Notify("Now Playing: "+song.Title, body, ""); err != nil {
		n.logger.Debug("failed to send notification", "error", err)
	}
}
