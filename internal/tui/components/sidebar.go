package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/nvander/strum/internal/domain"
	"github.com/nvander/strum/internal/tui/styles"
	"github.com/sahilm/fuzzy"
)

// Sidebar lists the collections: the full catalog, the synthetic favorites
// collection, and every playlist and album. A fuzzy quick filter narrows the
// list while typing.
type Sidebar struct {
	entries []SidebarEntry

	cursor     int
	offset     int
	width      int
	height     int
	maxVisible int
	focused    bool

	filterActive bool
	filterInput  textinput.Model
	filteredIdx  []int
}

// SidebarEntry is one selectable row. Collection is nil for "All Songs".
type SidebarEntry struct {
	Name       string
	Collection *domain.Collection
}

// NewSidebar creates an empty sidebar.
func NewSidebar() Sidebar {
	ti := textinput.New()
	ti.Prompt = "/"
	ti.CharLimit = 64
	return Sidebar{filterInput: ti}
}

// SetEntries replaces the rows, keeping the cursor in range.
func (s *Sidebar) SetEntries(entries []SidebarEntry) {
	s.entries = entries
	if s.cursor >= len(entries) {
		s.cursor = len(entries) - 1
	}
	if s.cursor < 0 {
		s.cursor = 0
	}
	s.applyFilter()
}

// SetSize sets the rendered dimensions.
func (s *Sidebar) SetSize(width, height int) {
	s.width = width
	s.height = height
	s.recalcMaxVisible()
}

// SetFocused marks the sidebar as the active pane.
func (s *Sidebar) SetFocused(focused bool) {
	s.focused = focused
}

// Selected returns the entry under the cursor.
func (s *Sidebar) Selected() (SidebarEntry, bool) {
	idx := s.mapIndex(s.cursor)
	if idx < 0 || idx >= len(s.entries) {
		return SidebarEntry{}, false
	}
	return s.entries[idx], true
}

// MoveUp moves the cursor one row up.
func (s *Sidebar) MoveUp() {
	if s.cursor > 0 {
		s.cursor--
	}
	s.ensureVisible()
}

// MoveDown moves the cursor one row down.
func (s *Sidebar) MoveDown() {
	if s.cursor < s.visibleCount()-1 {
		s.cursor++
	}
	s.ensureVisible()
}

// Top jumps to the first row.
func (s *Sidebar) Top() {
	s.cursor = 0
	s.ensureVisible()
}

// Bottom jumps to the last row.
func (s *Sidebar) Bottom() {
	s.cursor = s.visibleCount() - 1
	if s.cursor < 0 {
		s.cursor = 0
	}
	s.ensureVisible()
}

// ToggleFilter opens the quick filter input.
func (s *Sidebar) ToggleFilter() {
	s.filterActive = true
	s.filterInput.Focus()
	s.recalcMaxVisible()
}

// IsFilterTyping reports whether keystrokes belong to the filter input.
func (s *Sidebar) IsFilterTyping() bool {
	return s.filterActive && s.filterInput.Focused()
}

// ClearFilter closes the quick filter and shows all rows.
func (s *Sidebar) ClearFilter() {
	s.filterActive = false
	s.filteredIdx = nil
	s.filterInput.SetValue("")
	s.filterInput.Blur()
	s.recalcMaxVisible()
}

// HandleFilterKey feeds a keystroke to the filter input. Enter keeps the
// narrowed list and returns focus to navigation; esc clears.
func (s *Sidebar) HandleFilterKey(msg tea.KeyMsg) {
	switch msg.String() {
	case "enter":
		s.filterInput.Blur()
		return
	case "esc":
		s.ClearFilter()
		return
	}
	s.filterInput, _ = s.filterInput.Update(msg)
	s.applyFilter()
}

func (s *Sidebar) applyFilter() {
	query := s.filterInput.Value()
	if query == "" {
		s.filteredIdx = nil
		return
	}

	names := make([]string, len(s.entries))
	for i, e := range s.entries {
		names[i] = strings.ToLower(e.Name)
	}

	matches := fuzzy.Find(strings.ToLower(query), names)
	s.filteredIdx = make([]int, len(matches))
	for i, match := range matches {
		s.filteredIdx[i] = match.Index
	}
	s.cursor = 0
	s.offset = 0
}

func (s *Sidebar) visibleCount() int {
	if s.filteredIdx != nil {
		return len(s.filteredIdx)
	}
	return len(s.entries)
}

func (s *Sidebar) mapIndex(i int) int {
	if s.filteredIdx != nil {
		if i < 0 || i >= len(s.filteredIdx) {
			return -1
		}
		return s.filteredIdx[i]
	}
	return i
}

func (s *Sidebar) recalcMaxVisible() {
	// Interior = total - border - title line
	s.maxVisible = s.height - 2 - 1
	if s.filterActive {
		s.maxVisible--
	}
	if s.maxVisible < 1 {
		s.maxVisible = 1
	}
}

func (s *Sidebar) ensureVisible() {
	if s.maxVisible <= 0 {
		return
	}
	if s.cursor < s.offset {
		s.offset = s.cursor
	}
	if s.cursor >= s.offset+s.maxVisible {
		s.offset = s.cursor - s.maxVisible + 1
	}
}

// View renders the sidebar.
func (s *Sidebar) View() string {
	var b strings.Builder
	innerWidth := s.width - 2

	b.WriteString(styles.TitleStyle.Render(styles.Truncate("Library", innerWidth)))
	b.WriteString("\n")

	if s.filterActive {
		b.WriteString(styles.FilterPromptStyle.Render(styles.Truncate(s.filterInput.View(), innerWidth)))
		b.WriteString("\n")
	}

	count := s.visibleCount()
	for row := s.offset; row < count && row < s.offset+s.maxVisible; row++ {
		entry := s.entries[s.mapIndex(row)]
		label := entry.Name
		if entry.Collection != nil && entry.Collection.IsAlbum {
			label += " " + styles.AlbumBadge
		}
		label = styles.Truncate(label, innerWidth-2)

		switch {
		case row == s.cursor:
			b.WriteString(styles.SelectedItemStyle.Render(label))
		default:
			b.WriteString(styles.NormalItemStyle.Render(label))
		}
		b.WriteString("\n")
	}

	border := styles.InactiveBorder
	if s.focused {
		border = styles.ActiveBorder
	}
	return border.Width(s.width - 2).Height(s.height - 2).Render(
		strings.TrimRight(b.String(), "\n"))
}
