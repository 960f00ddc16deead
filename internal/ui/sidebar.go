package ui

import (
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/vemikrs/mira/internal/conversation"
)

// fetchAheadThreshold triggers the next page fetch when the cursor is this
// close to the bottom of the loaded list.
const fetchAheadThreshold = 3

// Sidebar represents the left panel with the conversation list
type Sidebar struct {
	conversations []conversation.Conversation
	filtered      []conversation.Conversation
	selectedIdx   int
	scrollOffset  int
	width         int
	height        int
	focused       bool

	searching bool
	search    textinput.Model

	// Pagination state
	nextPage int
	hasMore  bool
	loading  bool
}

// NewSidebar creates a new sidebar
func NewSidebar() *Sidebar {
	ti := textinput.New()
	ti.Placeholder = "Search conversations..."
	ti.CharLimit = ModalInputCharLimit

	return &Sidebar{
		search:   ti,
		nextPage: 1,
		hasMore:  true,
	}
}

// SetSize sets the sidebar dimensions
func (s *Sidebar) SetSize(width, height int) {
	s.width = width
	s.height = height
	s.search.SetWidth(width - BorderSize - 2)
}

// SetFocused sets the focus state
func (s *Sidebar) SetFocused(focused bool) {
	s.focused = focused
	if !focused {
		s.StopSearch()
	}
}

// IsFocused returns the focus state
func (s *Sidebar) IsFocused() bool {
	return s.focused
}

// SetConversations replaces the list, keeping the selection on the same
// conversation when it survives the update.
func (s *Sidebar) SetConversations(list []conversation.Conversation) {
	selectedID := s.SelectedID()
	s.conversations = list
	s.applyFilter()
	if selectedID != "" {
		for i := range s.filtered {
			if s.filtered[i].ID == selectedID {
				s.selectedIdx = i
				return
			}
		}
	}
	if s.selectedIdx >= len(s.filtered) {
		s.selectedIdx = max(0, len(s.filtered)-1)
	}
}

// SelectedID returns the ID of the highlighted conversation, or empty.
func (s *Sidebar) SelectedID() string {
	if s.selectedIdx >= 0 && s.selectedIdx < len(s.filtered) {
		return s.filtered[s.selectedIdx].ID
	}
	return ""
}

// SelectConversation moves the highlight to the given conversation.
func (s *Sidebar) SelectConversation(id string) {
	for i := range s.filtered {
		if s.filtered[i].ID == id {
			s.selectedIdx = i
			return
		}
	}
}

// MoveUp moves the highlight up one entry
func (s *Sidebar) MoveUp() {
	if s.selectedIdx > 0 {
		s.selectedIdx--
	}
}

// MoveDown moves the highlight down one entry
func (s *Sidebar) MoveDown() {
	if s.selectedIdx < len(s.filtered)-1 {
		s.selectedIdx++
	}
}

// NeedsMore reports whether the cursor is near the end of the loaded list
// and another page should be fetched.
func (s *Sidebar) NeedsMore() bool {
	if !s.hasMore || s.loading || s.searching {
		return false
	}
	return len(s.filtered)-s.selectedIdx <= fetchAheadThreshold
}

// NextPage returns the page number to fetch next.
func (s *Sidebar) NextPage() int {
	return s.nextPage
}

// SetLoading marks an in-flight page fetch.
func (s *Sidebar) SetLoading(loading bool) {
	s.loading = loading
}

// PageLoaded records a fetched page's pagination state.
func (s *Sidebar) PageLoaded(page int, hasMore bool) {
	s.loading = false
	s.hasMore = hasMore
	if page >= s.nextPage {
		s.nextPage = page + 1
	}
}

// StartSearch enters search mode.
func (s *Sidebar) StartSearch() {
	s.searching = true
	s.search.Reset()
	s.search.Focus()
	s.applyFilter()
}

// StopSearch leaves search mode and clears the filter.
func (s *Sidebar) StopSearch() {
	s.searching = false
	s.search.Reset()
	s.search.Blur()
	s.applyFilter()
}

// IsSearching reports whether search mode is active.
func (s *Sidebar) IsSearching() bool {
	return s.searching
}

// applyFilter recomputes the visible list from the search query. Matching
// is a case-insensitive substring test against title and message content.
func (s *Sidebar) applyFilter() {
	query := strings.ToLower(strings.TrimSpace(s.search.Value()))
	if query == "" {
		s.filtered = s.conversations
	} else {
		s.filtered = nil
		for _, c := range s.conversations {
			if sidebarMatches(c, query) {
				s.filtered = append(s.filtered, c)
			}
		}
	}
	if s.selectedIdx >= len(s.filtered) {
		s.selectedIdx = max(0, len(s.filtered)-1)
	}
}

func sidebarMatches(c conversation.Conversation, query string) bool {
	if strings.Contains(strings.ToLower(c.DisplayTitle()), query) {
		return true
	}
	for _, m := range c.Messages {
		if strings.Contains(strings.ToLower(m.Content), query) {
			return true
		}
	}
	return false
}

// Update handles search input
func (s *Sidebar) Update(msg tea.Msg) (*Sidebar, tea.Cmd) {
	if !s.searching {
		return s, nil
	}
	var cmd tea.Cmd
	s.search, cmd = s.search.Update(msg)
	s.applyFilter()
	return s, cmd
}

// visibleRows is the number of list rows that fit in the panel.
func (s *Sidebar) visibleRows() int {
	rows := s.height - BorderSize - 1 // title line
	if s.searching {
		rows--
	}
	if rows < 1 {
		rows = 1
	}
	return rows
}

// View renders the sidebar
func (s *Sidebar) View() string {
	panelStyle := PanelStyle
	if s.focused {
		panelStyle = PanelFocusedStyle
	}

	var sb strings.Builder
	sb.WriteString(PanelTitleStyle.Render("Conversations"))
	sb.WriteString("\n")

	if s.searching {
		sb.WriteString(s.search.View())
		sb.WriteString("\n")
	}

	rows := s.visibleRows()
	if s.selectedIdx < s.scrollOffset {
		s.scrollOffset = s.selectedIdx
	}
	if s.selectedIdx >= s.scrollOffset+rows {
		s.scrollOffset = s.selectedIdx - rows + 1
	}

	if len(s.filtered) == 0 {
		empty := "No conversations yet"
		if s.searching {
			empty = "No matches"
		}
		sb.WriteString(SidebarMetaStyle.Render(" " + empty))
	}

	innerWidth := s.width - BorderSize - 2
	end := min(s.scrollOffset+rows, len(s.filtered))
	for i := s.scrollOffset; i < end; i++ {
		c := s.filtered[i]
		label := c.DisplayTitle()
		meta := relativeTime(c.UpdatedAt)
		line := fmt.Sprintf("%s %s", truncateToWidth(label, innerWidth-len(meta)-1), SidebarMetaStyle.Render(meta))
		if i == s.selectedIdx {
			sb.WriteString(SidebarSelectedStyle.Render(line))
		} else {
			sb.WriteString(SidebarItemStyle.Render(line))
		}
		sb.WriteString("\n")
	}

	if s.loading {
		sb.WriteString(SidebarMetaStyle.Render(" Loading..."))
	}

	return panelStyle.
		Width(s.width - BorderSize).
		Height(s.height - BorderSize).
		Render(strings.TrimRight(sb.String(), "\n"))
}

// truncateToWidth shortens a label to fit the sidebar column.
func truncateToWidth(label string, width int) string {
	if width < 1 {
		return ""
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(label)
}

// relativeTime renders a compact age for the list metadata column.
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}
