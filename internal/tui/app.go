// Package tui is the terminal front end: two browsing panes over the library
// and a transport bar projecting the playback controller.
package tui

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/nvander/strum/internal/domain"
	"github.com/nvander/strum/internal/favorites"
	"github.com/nvander/strum/internal/library"
	"github.com/nvander/strum/internal/player"
	"github.com/nvander/strum/internal/queue"
	"github.com/nvander/strum/internal/search"
	"github.com/nvander/strum/internal/session"
	"github.com/nvander/strum/internal/tui/components"
	"github.com/nvander/strum/internal/tui/styles"
)

// ApplicationState represents the current state of the application
type ApplicationState int

const (
	StateBrowsing ApplicationState = iota
	StateSearch
	StateHelp
	StateConfirmLogout
)

// Pane identifies the focused browsing pane
type Pane int

const (
	PaneSidebar Pane = iota
	PaneSongs
)

const (
	sidebarPercent = 28
	minPaneWidth   = 20
	// Transport (2) + status (1)
	chromeHeight = 3

	tickInterval = 500 * time.Millisecond
)

// Model is the main Bubble Tea model for the application
type Model struct {
	// Services
	Library    *library.Service
	Favorites  *favorites.Service
	Queue      *queue.Deriver
	Controller *player.Controller
	Session    *session.Manager
	Searcher   *search.Service

	// UI components
	Sidebar   components.Sidebar
	Songs     components.SongList
	Transport components.Transport

	searchInput textinput.Model
	searching   bool

	globalInput   textinput.Model
	globalResults []search.Result
	globalCursor  int

	// Application state
	State ApplicationState
	Focus Pane
	Ready bool

	Width  int
	Height int

	StatusMsg   string
	StatusIsErr bool
}

// NewModel creates the application model over the wired services.
func NewModel(
	lib *library.Service,
	favs *favorites.Service,
	q *queue.Deriver,
	ctrl *player.Controller,
	sess *session.Manager,
	searcher *search.Service,
) Model {
	queueSearch := textinput.New()
	queueSearch.Prompt = "/"
	queueSearch.Placeholder = "title or artist"
	queueSearch.CharLimit = 64

	global := textinput.New()
	global.Prompt = "search: "
	global.Placeholder = "songs, playlists, albums"
	global.CharLimit = 64

	return Model{
		Library:     lib,
		Favorites:   favs,
		Queue:       q,
		Controller:  ctrl,
		Session:     sess,
		Searcher:    searcher,
		Sidebar:     components.NewSidebar(),
		Songs:       components.NewSongList(favs.Contains),
		Transport:   components.NewTransport(),
		searchInput: queueSearch,
		globalInput: global,
		Focus:       PaneSongs,
	}
}

// Init starts the initial library fetch and the progress ticker.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		FetchLibraryCmd(m.Library, false),
		TickCmd(tickInterval),
	)
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Ready = true
		m.updateLayout()
		m.refreshAll()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case TickMsg:
		m.syncTransport()
		return m, TickCmd(tickInterval)

	case LibraryLoadedMsg:
		m.refreshAll()
		return m, nil

	case FavoriteToggledMsg:
		// Server truth landed; the favorites view may have changed shape.
		m.refreshSongs()
		return m, nil

	case SessionExpiredMsg:
		m.Controller.Stop()
		m.StatusMsg = "Session expired, signed out"
		m.StatusIsErr = true
		m.refreshAll()
		return m, ClearStatusCmd(5 * time.Second)

	case LogoutCompleteMsg:
		if msg.Error != nil {
			m.StatusMsg = "Logout failed: " + msg.Error.Error()
			m.StatusIsErr = true
			m.State = StateBrowsing
			return m, ClearStatusCmd(5 * time.Second)
		}
		m.Controller.Stop()
		m.Library.Reset()
		m.Favorites.Replace(nil)
		m.Queue.Select(nil)
		m.Queue.SetSearch("")
		m.State = StateBrowsing
		m.StatusMsg = "Logged out"
		m.refreshAll()
		return m, tea.Batch(
			FetchLibraryCmd(m.Library, true),
			ClearStatusCmd(3*time.Second),
		)

	case ErrMsg:
		m.StatusMsg = msg.Error()
		m.StatusIsErr = true
		return m, ClearStatusCmd(5 * time.Second)

	case StatusMsg:
		m.StatusMsg = msg.Message
		m.StatusIsErr = msg.IsError
		return m, ClearStatusCmd(3 * time.Second)

	case ClearStatusMsg:
		m.StatusMsg = ""
		m.StatusIsErr = false
		return m, nil
	}

	return m, nil
}

// handleKeyMsg handles keyboard input
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.State {
	case StateHelp:
		switch msg.String() {
		case "esc", "?", "q":
			m.State = StateBrowsing
		}
		return m, nil

	case StateConfirmLogout:
		switch {
		case key.Matches(msg, Keys.Confirm):
			return m, LogoutCmd(m.Session)
		case key.Matches(msg, Keys.Deny):
			m.State = StateBrowsing
		}
		return m, nil

	case StateSearch:
		return m.handleSearchKey(msg)
	}

	// Search input swallows keystrokes while focused.
	if m.searching && m.searchInput.Focused() {
		switch msg.String() {
		case "enter":
			m.searchInput.Blur()
			return m, nil
		case "esc":
			m.clearSearch()
			return m, nil
		}
		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		m.Queue.SetSearch(m.searchInput.Value())
		m.refreshSongs()
		return m, cmd
	}

	// Sidebar quick filter likewise.
	if m.Sidebar.IsFilterTyping() {
		m.Sidebar.HandleFilterKey(msg)
		return m, nil
	}

	switch {
	case key.Matches(msg, Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, Keys.Help):
		m.State = StateHelp
		return m, nil

	case key.Matches(msg, Keys.Escape):
		if m.searching {
			m.clearSearch()
			return m, nil
		}
		m.Sidebar.ClearFilter()
		return m, nil

	case key.Matches(msg, Keys.Tab):
		if m.Focus == PaneSidebar {
			m.Focus = PaneSongs
		} else {
			m.Focus = PaneSidebar
		}
		m.Sidebar.SetFocused(m.Focus == PaneSidebar)
		m.Songs.SetFocused(m.Focus == PaneSongs)
		return m, nil

	case key.Matches(msg, Keys.Filter):
		if m.Focus == PaneSidebar {
			m.Sidebar.ToggleFilter()
		} else {
			m.searching = true
			m.searchInput.Focus()
			m.updateLayout()
		}
		return m, nil

	case key.Matches(msg, Keys.GlobalSearch):
		m.State = StateSearch
		m.globalInput.SetValue("")
		m.globalInput.Focus()
		m.globalResults = nil
		m.globalCursor = 0
		return m, nil

	case key.Matches(msg, Keys.PlayPause):
		m.Controller.TogglePlay()
		m.syncTransport()
		return m, nil

	case key.Matches(msg, Keys.Next):
		m.Controller.Next()
		m.syncTransport()
		return m, nil

	case key.Matches(msg, Keys.Previous):
		m.Controller.Previous()
		m.syncTransport()
		return m, nil

	case key.Matches(msg, Keys.SkipForward):
		m.Controller.SkipForward()
		m.syncTransport()
		return m, nil

	case key.Matches(msg, Keys.SkipBackward):
		m.Controller.SkipBackward()
		m.syncTransport()
		return m, nil

	case key.Matches(msg, Keys.VolumeUp):
		m.Controller.SetVolume(m.Controller.Snapshot().Volume + 0.1)
		m.syncTransport()
		return m, nil

	case key.Matches(msg, Keys.VolumeDown):
		m.Controller.SetVolume(m.Controller.Snapshot().Volume - 0.1)
		m.syncTransport()
		return m, nil

	case key.Matches(msg, Keys.Mute):
		m.Controller.ToggleMute()
		m.syncTransport()
		return m, nil

	case key.Matches(msg, Keys.Shuffle):
		m.Controller.ToggleShuffle()
		m.syncTransport()
		return m, nil

	case key.Matches(msg, Keys.Repeat):
		m.Controller.CycleRepeat()
		m.syncTransport()
		return m, nil

	case key.Matches(msg, Keys.Favorite):
		return m, m.toggleFavorite()

	case key.Matches(msg, Keys.Refresh):
		m.StatusMsg = "Refreshing library..."
		return m, tea.Batch(
			FetchLibraryCmd(m.Library, true),
			ClearStatusCmd(3*time.Second),
		)

	case key.Matches(msg, Keys.Logout):
		m.State = StateConfirmLogout
		return m, nil

	case key.Matches(msg, Keys.Enter):
		return m.handleEnter()

	case key.Matches(msg, Keys.Up):
		m.paneUp()
		return m, nil

	case key.Matches(msg, Keys.Down):
		m.paneDown()
		return m, nil

	case key.Matches(msg, Keys.Home):
		if m.Focus == PaneSidebar {
			m.Sidebar.Top()
		} else {
			m.Songs.Top()
		}
		return m, nil

	case key.Matches(msg, Keys.End):
		if m.Focus == PaneSidebar {
			m.Sidebar.Bottom()
		} else {
			m.Songs.Bottom()
		}
		return m, nil
	}

	// Digit keys seek to that tenth of the track.
	if s := msg.String(); len(s) == 1 && s[0] >= '0' && s[0] <= '9' {
		m.Controller.Seek(float64(s[0]-'0') * 10)
		m.syncTransport()
		return m, nil
	}

	return m, nil
}

// handleSearchKey drives the global search overlay.
func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.State = StateBrowsing
		m.globalInput.Blur()
		return m, nil
	case "up", "ctrl+p":
		if m.globalCursor > 0 {
			m.globalCursor--
		}
		return m, nil
	case "down", "ctrl+n":
		if m.globalCursor < len(m.globalResults)-1 {
			m.globalCursor++
		}
		return m, nil
	case "enter":
		return m.openSearchResult()
	}

	var cmd tea.Cmd
	m.globalInput, cmd = m.globalInput.Update(msg)
	m.globalResults = m.Searcher.Search(m.globalInput.Value())
	m.globalCursor = 0
	return m, cmd
}

// openSearchResult jumps to the selected hit: songs play from the full
// catalog, collections become the active queue.
func (m Model) openSearchResult() (tea.Model, tea.Cmd) {
	if m.globalCursor < 0 || m.globalCursor >= len(m.globalResults) {
		return m, nil
	}
	res := m.globalResults[m.globalCursor]

	m.State = StateBrowsing
	m.globalInput.Blur()
	m.clearSearch()
	m.Focus = PaneSongs

	switch res.Kind {
	case search.KindSong:
		m.Queue.Select(nil)
		m.Controller.PlaySong(res.Song.ID)
	case search.KindCollection:
		col := res.Collection
		m.Queue.Select(&col)
	}
	m.refreshAll()
	return m, nil
}

// handleEnter selects a collection in the sidebar or plays a song.
func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	if m.Focus == PaneSidebar {
		entry, ok := m.Sidebar.Selected()
		if !ok {
			return m, nil
		}
		m.Queue.Select(entry.Collection)
		m.refreshSongs()
		return m, nil
	}

	song, ok := m.Songs.Selected()
	if !ok {
		return m, nil
	}
	m.Controller.PlaySong(song.ID)
	m.syncTransport()
	return m, nil
}

// toggleFavorite targets the cursor song in the songs pane, otherwise the
// currently playing song.
func (m *Model) toggleFavorite() tea.Cmd {
	var songID string
	if m.Focus == PaneSongs {
		if song, ok := m.Songs.Selected(); ok {
			songID = song.ID
		}
	}
	if songID == "" {
		songID = m.Controller.CurrentSongID()
	}
	if songID == "" {
		return nil
	}
	// Optimistic flip is immediate; refresh the list before the server lands.
	cmd := ToggleFavoriteCmd(m.Favorites, songID)
	m.refreshSongs()
	return cmd
}

func (m *Model) paneUp() {
	if m.Focus == PaneSidebar {
		m.Sidebar.MoveUp()
	} else {
		m.Songs.MoveUp()
	}
}

func (m *Model) paneDown() {
	if m.Focus == PaneSidebar {
		m.Sidebar.MoveDown()
	} else {
		m.Songs.MoveDown()
	}
}

func (m *Model) clearSearch() {
	m.searching = false
	m.searchInput.SetValue("")
	m.searchInput.Blur()
	m.Queue.SetSearch("")
	m.updateLayout()
	m.refreshSongs()
}

// refreshAll rebuilds both panes from the services.
func (m *Model) refreshAll() {
	entries := []components.SidebarEntry{
		{Name: "All Songs"},
		{Name: domain.FavoritesName, Collection: queue.FavoritesCollection()},
	}
	if recent := m.recentCollection(); recent != nil {
		entries = append(entries, components.SidebarEntry{Name: recent.Name, Collection: recent})
	}
	for _, col := range m.Library.Collections() {
		c := col
		entries = append(entries, components.SidebarEntry{Name: col.Name, Collection: &c})
	}
	m.Sidebar.SetEntries(entries)
	m.Sidebar.SetFocused(m.Focus == PaneSidebar)
	m.Songs.SetFocused(m.Focus == PaneSongs)
	m.refreshSongs()
	m.syncTransport()
}

// recentCollection builds a synthetic collection from the recently-played
// ring, nil when nothing has been played yet.
func (m *Model) recentCollection() *domain.Collection {
	ids := m.Session.RecentlyPlayed()
	if len(ids) == 0 {
		return nil
	}
	refs := make([]domain.SongRef, len(ids))
	for i, id := range ids {
		refs[i] = domain.SongRef{ID: id}
	}
	return &domain.Collection{Name: "Recently Played", Songs: refs}
}

// refreshSongs re-derives the queue into the songs pane.
func (m *Model) refreshSongs() {
	title := "All Songs"
	if sel := m.Queue.Selected(); sel != nil {
		title = sel.Name
	}
	m.Songs.SetTitle(title)
	m.Songs.SetSongs(m.Queue.Songs())
}

// syncTransport projects controller status into the transport bar.
func (m *Model) syncTransport() {
	status := m.Controller.Snapshot()
	song, ok := m.Controller.CurrentSong()
	m.Transport.SetStatus(status, song, ok, ok && m.Favorites.Contains(song.ID))
	m.Transport.SetQuote(m.Session.Quote())
	m.Songs.SetPlaying(status.SongID)
}

// updateLayout sizes the panes from the window dimensions.
func (m *Model) updateLayout() {
	if m.Width == 0 || m.Height == 0 {
		return
	}
	contentHeight := m.Height - chromeHeight
	if m.searching {
		contentHeight--
	}

	sidebarWidth := m.Width * sidebarPercent / 100
	if sidebarWidth < minPaneWidth {
		sidebarWidth = minPaneWidth
	}
	songsWidth := m.Width - sidebarWidth

	m.Sidebar.SetSize(sidebarWidth, contentHeight)
	m.Songs.SetSize(songsWidth, contentHeight)
	m.Transport.SetWidth(m.Width)
}

// View renders the application
func (m Model) View() string {
	if !m.Ready {
		return "Loading..."
	}

	switch m.State {
	case StateSearch:
		return m.renderSearch()
	case StateHelp:
		return m.renderHelp()
	case StateConfirmLogout:
		return m.renderLogoutConfirmation()
	}

	main := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.Sidebar.View(),
		m.Songs.View(),
	)

	sections := []string{main}
	if m.searching {
		sections = append(sections, styles.FilterPromptStyle.Render(m.searchInput.View()))
	}
	sections = append(sections, m.Transport.View(), m.renderStatus())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderStatus shows transient messages; when there are none, the home
// banner from the server fills the line.
func (m Model) renderStatus() string {
	if m.StatusMsg == "" {
		if banner := m.Library.Banner(); banner != nil && banner.Title != "" {
			line := banner.Title
			if banner.Subtitle != "" {
				line += " · " + banner.Subtitle
			}
			return styles.DimStyle.Render(styles.Truncate(line, m.Width))
		}
		return ""
	}
	if m.StatusIsErr {
		return styles.ErrorStyle.Render(styles.Truncate(m.StatusMsg, m.Width))
	}
	return styles.DimStyle.Render(styles.Truncate(m.StatusMsg, m.Width))
}

// maxSearchResults caps the overlay list.
const maxSearchResults = 12

func (m Model) renderSearch() string {
	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render("Search") + "\n\n")
	b.WriteString(styles.FilterPromptStyle.Render(m.globalInput.View()) + "\n\n")

	if len(m.globalResults) == 0 {
		if m.globalInput.Value() != "" {
			b.WriteString(styles.DimStyle.Render("No matches"))
		} else {
			b.WriteString(styles.DimStyle.Render("Type to search the library"))
		}
	}

	for i, res := range m.globalResults {
		if i >= maxSearchResults {
			b.WriteString(styles.DimStyle.Render(
				"... and " + strconv.Itoa(len(m.globalResults)-maxSearchResults) + " more"))
			break
		}

		label := res.Title
		switch res.Kind {
		case search.KindSong:
			if res.Song.Artist != "" {
				label += " · " + res.Song.Artist
			}
		case search.KindCollection:
			if res.Collection.IsAlbum {
				label += " " + styles.AlbumBadge
			} else {
				label += " [playlist]"
			}
		}
		label = styles.Truncate(label, m.Width/2)

		if i == m.globalCursor {
			b.WriteString(styles.SelectedItemStyle.Render(label))
		} else {
			b.WriteString(styles.NormalItemStyle.Render(label))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n" + styles.DimStyle.Render("enter open · esc close"))
	return lipgloss.Place(m.Width, m.Height, lipgloss.Center, lipgloss.Center, b.String())
}

func (m Model) renderLogoutConfirmation() string {
	prompt := styles.TitleStyle.Render("Log out?") + "\n\n" +
		styles.SubtitleStyle.Render("This clears the cached library and session.") + "\n\n" +
		styles.HelpKeyStyle.Render("y") + styles.HelpDescStyle.Render(" confirm   ") +
		styles.HelpKeyStyle.Render("n") + styles.HelpDescStyle.Render(" cancel")
	return lipgloss.Place(m.Width, m.Height, lipgloss.Center, lipgloss.Center, prompt)
}

func (m Model) renderHelp() string {
	rows := []struct{ k, desc string }{
		{"j/k", "move cursor"},
		{"tab", "switch pane"},
		{"enter", "select collection / play song"},
		{"space", "play/pause"},
		{"n / b", "next / previous"},
		{"←/→", "skip 15s"},
		{"0-9", "seek to position"},
		{"+/-", "volume"},
		{"m", "mute"},
		{"s", "shuffle"},
		{"r", "repeat mode"},
		{"f", "toggle favorite"},
		{"/", "search / filter"},
		{"S", "search everything"},
		{"R", "refresh library"},
		{"L", "logout"},
		{"q", "quit"},
	}

	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render("Keys") + "\n\n")
	for _, row := range rows {
		b.WriteString(styles.HelpKeyStyle.Render(padRight(row.k, 8)))
		b.WriteString(styles.HelpDescStyle.Render(row.desc))
		b.WriteString("\n")
	}
	b.WriteString("\n" + styles.DimStyle.Render("esc to close"))

	return lipgloss.Place(m.Width, m.Height, lipgloss.Center, lipgloss.Center, b.String())
}

func padRight(s string, width int) string {
	for len(s) < width {
		s += " "
	}
	return s
}
