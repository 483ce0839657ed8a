package components

import (
	"fmt"
	"strings"

	"github.com/nvander/strum/internal/domain"
	"github.com/nvander/strum/internal/tui/styles"
)

// SongList renders the active queue. Filtering happens upstream in the queue
// deriver; the list only displays what it is given.
type SongList struct {
	title string
	songs []domain.Song

	cursor     int
	offset     int
	width      int
	height     int
	maxVisible int
	focused    bool

	playingID  string
	isFavorite func(id string) bool
}

// NewSongList creates an empty song list. isFavorite marks rows with the
// favorite indicator and may be nil.
func NewSongList(isFavorite func(id string) bool) SongList {
	if isFavorite == nil {
		isFavorite = func(string) bool { return false }
	}
	return SongList{title: "Songs", isFavorite: isFavorite}
}

// SetTitle sets the pane heading, usually the selected collection name.
func (l *SongList) SetTitle(title string) {
	l.title = title
}

// SetSongs replaces the rows, clamping the cursor.
func (l *SongList) SetSongs(songs []domain.Song) {
	l.songs = songs
	if l.cursor >= len(songs) {
		l.cursor = len(songs) - 1
	}
	if l.cursor < 0 {
		l.cursor = 0
	}
	l.ensureVisible()
}

// Songs returns the displayed rows.
func (l *SongList) Songs() []domain.Song {
	return l.songs
}

// SetSize sets the rendered dimensions.
func (l *SongList) SetSize(width, height int) {
	l.width = width
	l.height = height
	l.maxVisible = height - 2 - 1
	if l.maxVisible < 1 {
		l.maxVisible = 1
	}
	l.ensureVisible()
}

// SetFocused marks the list as the active pane.
func (l *SongList) SetFocused(focused bool) {
	l.focused = focused
}

// SetPlaying highlights the currently loaded song.
func (l *SongList) SetPlaying(songID string) {
	l.playingID = songID
}

// Selected returns the song under the cursor.
func (l *SongList) Selected() (domain.Song, bool) {
	if l.cursor < 0 || l.cursor >= len(l.songs) {
		return domain.Song{}, false
	}
	return l.songs[l.cursor], true
}

// MoveUp moves the cursor one row up.
func (l *SongList) MoveUp() {
	if l.cursor > 0 {
		l.cursor--
	}
	l.ensureVisible()
}

// MoveDown moves the cursor one row down.
func (l *SongList) MoveDown() {
	if l.cursor < len(l.songs)-1 {
		l.cursor++
	}
	l.ensureVisible()
}

// Top jumps to the first row.
func (l *SongList) Top() {
	l.cursor = 0
	l.ensureVisible()
}

// Bottom jumps to the last row.
func (l *SongList) Bottom() {
	l.cursor = len(l.songs) - 1
	if l.cursor < 0 {
		l.cursor = 0
	}
	l.ensureVisible()
}

func (l *SongList) ensureVisible() {
	if l.maxVisible <= 0 {
		return
	}
	if l.cursor < l.offset {
		l.offset = l.cursor
	}
	if l.cursor >= l.offset+l.maxVisible {
		l.offset = l.cursor - l.maxVisible + 1
	}
}

// View renders the song list.
func (l *SongList) View() string {
	var b strings.Builder
	innerWidth := l.width - 2

	heading := fmt.Sprintf("%s (%d)", l.title, len(l.songs))
	b.WriteString(styles.TitleStyle.Render(styles.Truncate(heading, innerWidth)))
	b.WriteString("\n")

	if len(l.songs) == 0 {
		b.WriteString(styles.DimStyle.Render("No songs"))
	}

	for row := l.offset; row < len(l.songs) && row < l.offset+l.maxVisible; row++ {
		song := l.songs[row]

		marker := "  "
		if l.isFavorite(song.ID) {
			marker = styles.FavoriteDot + " "
		}

		label := song.Title
		if song.Artist != "" {
			label += " · " + song.Artist
		}
		if song.Duration != "" {
			label += "  " + song.Duration
		}
		label = styles.Truncate(label, innerWidth-4)

		switch {
		case row == l.cursor:
			b.WriteString(marker + styles.SelectedItemStyle.Render(label))
		case song.ID == l.playingID && song.ID != "":
			b.WriteString(marker + styles.PlayingItemStyle.Render(styles.PlayChar+" "+label))
		default:
			b.WriteString(marker + styles.NormalItemStyle.Render(label))
		}
		b.WriteString("\n")
	}

	border := styles.InactiveBorder
	if l.focused {
		border = styles.ActiveBorder
	}
	return border.Width(l.width - 2).Height(l.height - 2).Render(
		strings.TrimRight(b.String(), "\n"))
}
