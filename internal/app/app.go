// Package app wires the panels, the conversation store, and the backend
// transport into the main Bubble Tea model. All state transitions happen on
// the Update loop; background work communicates through messages.
package app

import (
	"context"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/vemikrs/mira/internal/chord"
	"github.com/vemikrs/mira/internal/config"
	"github.com/vemikrs/mira/internal/conversation"
	"github.com/vemikrs/mira/internal/logger"
	"github.com/vemikrs/mira/internal/mira"
	"github.com/vemikrs/mira/internal/ui"
)

// Focus represents which panel is focused
type Focus int

const (
	FocusChat Focus = iota
	FocusSidebar
)

// Model is the main Bubble Tea model
type Model struct {
	config    *config.Config
	version   string // App version (injected at build time)
	transport mira.Transport

	sidebar *ui.Sidebar
	chat    *ui.Chat
	modal   *ui.Modal

	width          int
	height         int
	focus          Focus
	sidebarVisible bool
	inputFocused   bool

	store      *conversation.Store
	navigator  *conversation.Navigator
	chordState *chord.State

	// Mode and context for the next conversation created from a blank state.
	draftMode    conversation.Mode
	draftContext *conversation.Context

	// One live stream handle per conversation.
	streamCancels map[string]streamHandle
}

// streamHandle ties a stream's cancel func to the send token it was opened
// with, so settling a superseded stream cannot cancel its replacement.
type streamHandle struct {
	token  uint64
	cancel context.CancelFunc
}

// StartupMsg is sent on app start to trigger the initial conversation fetch
type StartupMsg struct{}

// StreamStartedMsg is sent when a send's stream has been established
type StreamStartedMsg struct {
	ConversationID string
	Token          uint64
	Chunks         <-chan mira.Chunk
}

// StreamChunkMsg carries one streamed chunk tagged with its send token
type StreamChunkMsg struct {
	ConversationID string
	Token          uint64
	Chunk          mira.Chunk
	Chunks         <-chan mira.Chunk
}

// StreamClosedMsg is sent when a stream channel closes without a terminal chunk
type StreamClosedMsg struct {
	ConversationID string
	Token          uint64
}

// SendFailedMsg is sent when a send fails before any stream is established
type SendFailedMsg struct {
	ConversationID string
	Token          uint64
	Err            error
}

// ConversationsFetchedMsg is sent when a sidebar page fetch completes
type ConversationsFetchedMsg struct {
	Page mira.Page
	Err  error
}

// TitleGeneratedMsg is sent when background title generation completes
type TitleGeneratedMsg struct {
	ConversationID string
	Title          string
	Err            error
}

// ExportDoneMsg is sent when a user-data export completes
type ExportDoneMsg struct {
	Path string
	Err  error
}

// New creates a new app model
func New(cfg *config.Config, transport mira.Transport, version string) *Model {
	m := &Model{
		config:        cfg,
		version:       version,
		transport:     transport,
		sidebar:       ui.NewSidebar(),
		chat:          ui.NewChat(),
		modal:         ui.NewModal(),
		focus:         FocusChat,
		store:         conversation.NewStore(),
		navigator:     conversation.NewNavigator(),
		chordState:    &chord.State{},
		draftMode:     conversation.Mode(cfg.GetDefaultMode()),
		streamCancels: make(map[string]streamHandle),
	}
	if m.draftMode == "" {
		m.draftMode = conversation.ModeGeneralChat
	}

	m.setInputFocused(true)
	return m
}

// WithLaunch overrides the mode and context for conversations started in
// this run, e.g. a CONTEXT_HELP launch tied to a specific screen.
func (m *Model) WithLaunch(mode conversation.Mode, cctx *conversation.Context) *Model {
	if mode != "" {
		m.draftMode = mode
	}
	m.draftContext = cctx
	return m
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return func() tea.Msg {
		return StartupMsg{}
	}
}

func (m *Model) setInputFocused(focused bool) {
	m.inputFocused = focused
	m.chat.SetFocused(focused)
}

// activeMessages returns the active conversation's message snapshot.
func (m *Model) activeMessages() []conversation.Message {
	return m.store.Messages(m.store.ActiveID())
}

// selectedMessage returns the selected message, or nil.
func (m *Model) selectedMessage() *conversation.Message {
	msgs := m.activeMessages()
	idx := m.navigator.Selected()
	if idx < 0 || idx >= len(msgs) {
		return nil
	}
	return &msgs[idx]
}

// refreshChat pushes the store's current active conversation into the chat
// panel.
func (m *Model) refreshChat() {
	c := m.store.Active()
	if c == nil {
		if m.store.ActiveID() == "" {
			m.chat.SetConversation("New conversation", m.draftMode, nil, "")
		} else {
			m.chat.ClearConversation()
		}
		return
	}
	m.chat.SetConversation(c.DisplayTitle(), c.Mode, c.Messages, c.Err)
	m.navigator.Sync(len(c.Messages))
	m.chat.SetSelected(m.navigator.Selected())
}

// refreshSidebar pushes the store's conversation list into the sidebar.
func (m *Model) refreshSidebar() {
	m.sidebar.SetConversations(m.store.List())
	if id := m.store.ActiveID(); id != "" {
		m.sidebar.SelectConversation(id)
	}
}

func (m *Model) updateSizes() {
	footerHeight := ui.FooterHeight
	contentHeight := m.height - footerHeight

	if m.sidebarVisible {
		sidebarWidth := m.width / ui.SidebarWidthRatio
		m.sidebar.SetSize(sidebarWidth, contentHeight)
		m.chat.SetSize(m.width-sidebarWidth, contentHeight)
	} else {
		m.chat.SetSize(m.width, contentHeight)
	}
}

// cancelStream cancels the live stream for a conversation, if any.
func (m *Model) cancelStream(conversationID string) {
	if h, ok := m.streamCancels[conversationID]; ok {
		h.cancel()
		delete(m.streamCancels, conversationID)
	}
}

// cancelStreamToken cancels a conversation's stream only if it still belongs
// to the given send token. Stale settles must not tear down a newer stream.
func (m *Model) cancelStreamToken(conversationID string, token uint64) {
	if h, ok := m.streamCancels[conversationID]; ok && h.token == token {
		h.cancel()
		delete(m.streamCancels, conversationID)
	}
}

// fetchConversations returns a command that fetches one sidebar page.
func (m *Model) fetchConversations(page int) tea.Cmd {
	pageSize := m.config.GetPageSize()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		p, err := m.transport.FetchConversations(ctx, page, pageSize)
		return ConversationsFetchedMsg{Page: p, Err: err}
	}
}

// View renders the app
func (m *Model) View() tea.View {
	var v tea.View
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		v.SetContent("Loading...")
		return v
	}

	var content string
	if m.sidebarVisible {
		content = lipgloss.JoinHorizontal(lipgloss.Top, m.sidebar.View(), m.chat.View())
	} else {
		content = m.chat.View()
	}

	selected := m.selectedMessage()
	footer := ui.RenderFooter(m.width, ui.FooterContext{
		InputFocused:   m.inputFocused,
		SidebarFocused: m.focus == FocusSidebar,
		HasSelection:   m.navigator.HasSelection(),
		SelectedUser:   selected != nil && selected.Role == conversation.RoleUser,
		ModalOpen:      m.modal.IsVisible(),
		Searching:      m.sidebar.IsSearching(),
	})

	if m.modal.IsVisible() {
		v.SetContent(m.modal.View(m.width, m.height))
		return v
	}
	v.SetContent(lipgloss.JoinVertical(lipgloss.Left, content, footer))
	return v
}

// Close releases app resources on shutdown.
func (m *Model) Close() {
	for id, h := range m.streamCancels {
		h.cancel()
		delete(m.streamCancels, id)
	}
	logger.Close()
}
