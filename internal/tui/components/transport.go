package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/nvander/strum/internal/domain"
	"github.com/nvander/strum/internal/player"
	"github.com/nvander/strum/internal/tui/styles"
)

// Transport renders the playback bar: current song, progress, volume, and
// mode indicators. It is a pure projection of the controller status.
type Transport struct {
	bar   progress.Model
	width int

	status   player.Status
	song     domain.Song
	hasSong  bool
	favorite bool
	quote    string
}

// NewTransport creates the transport bar.
func NewTransport() Transport {
	bar := progress.New(
		progress.WithSolidFill(string(styles.Accent)),
		progress.WithoutPercentage(),
	)
	return Transport{bar: bar}
}

// SetWidth sets the rendered width.
func (t *Transport) SetWidth(width int) {
	t.width = width
	barWidth := width - 16 // time labels either side
	if barWidth < 10 {
		barWidth = 10
	}
	t.bar.Width = barWidth
}

// SetStatus updates the projected playback status.
func (t *Transport) SetStatus(status player.Status, song domain.Song, hasSong, favorite bool) {
	t.status = status
	t.song = song
	t.hasSong = hasSong
	t.favorite = favorite
}

// SetQuote sets the idle line shown when nothing is loaded.
func (t *Transport) SetQuote(quote string) {
	t.quote = quote
}

// View renders two lines: the now-playing line and the progress line.
func (t *Transport) View() string {
	if t.status.State == player.StateIdle {
		idle := t.quote
		if idle == "" {
			idle = "Nothing playing"
		}
		return styles.QuoteStyle.Render(styles.Truncate(idle, t.width)) + "\n" +
			styles.DimStyle.Render(styles.Truncate("space play · n next · b prev · ? help", t.width))
	}

	glyph := styles.PlayChar
	if t.status.State == player.StatePaused {
		glyph = styles.PauseChar
	}

	title := t.song.Title
	artist := t.song.Artist
	if !t.hasSong {
		title = t.status.SongID
		artist = "unknown"
	}

	line := styles.AccentStyle.Render(glyph) + " " +
		styles.TitleStyle.Render(title) + " " +
		styles.SubtitleStyle.Render(artist)
	if t.favorite {
		line += " " + styles.FavoriteDot
	}
	if t.status.Buffering {
		line += " " + styles.DimStyle.Render("(buffering)")
	}
	line += " " + t.modeBadges()

	progressLine := fmt.Sprintf("%s %s %s  %s",
		styles.DimStyle.Render(formatTime(t.status.CurrentTime)),
		t.bar.ViewAs(t.status.Progress/100),
		styles.DimStyle.Render(formatTime(t.status.Duration)),
		t.volumeBadge(),
	)

	return styles.Truncate(line, t.width) + "\n" + progressLine
}

func (t *Transport) modeBadges() string {
	var badges []string
	if t.status.Shuffle {
		badges = append(badges, styles.AccentStyle.Render(styles.ShuffleChar))
	}
	switch t.status.Repeat {
	case player.RepeatAll:
		badges = append(badges, styles.AccentStyle.Render(styles.RepeatChar))
	case player.RepeatOne:
		badges = append(badges, styles.AccentStyle.Render(styles.RepeatChar+"1"))
	}
	return strings.Join(badges, " ")
}

func (t *Transport) volumeBadge() string {
	if t.status.Volume <= 0 {
		return styles.DimStyle.Render("muted")
	}
	return styles.DimStyle.Render(fmt.Sprintf("vol %d%%", int(t.status.Volume*100)))
}

// formatTime renders seconds as m:ss.
func formatTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
