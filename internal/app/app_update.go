package app

import (
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/vemikrs/mira/internal/chord"
	"github.com/vemikrs/mira/internal/clipboard"
	"github.com/vemikrs/mira/internal/conversation"
	"github.com/vemikrs/mira/internal/keys"
	"github.com/vemikrs/mira/internal/logger"
	"github.com/vemikrs/mira/internal/ui"
)

// Update handles messages. This is the core Bubble Tea update function that
// routes all messages to the appropriate handlers.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateSizes()

	case tea.KeyPressMsg:
		if model, cmd, handled := m.handleKeyPress(msg); handled {
			return model, cmd
		}
		// Not handled above, let it fall through to the focused panel

	case StartupMsg:
		m.refreshChat()
		m.sidebar.SetLoading(true)
		if !m.config.GetWelcomeShown() {
			m.modal.Show(ui.NewWelcomeState())
		}
		return m, m.fetchConversations(1)

	case StreamStartedMsg:
		return m, m.listenForChunks(msg.ConversationID, msg.Token, msg.Chunks)

	case StreamChunkMsg:
		return m.handleStreamChunk(msg)

	case StreamClosedMsg:
		return m.handleStreamClosed(msg)

	case SendFailedMsg:
		return m.handleSendFailed(msg)

	case ConversationsFetchedMsg:
		return m.handleConversationsFetched(msg)

	case TitleGeneratedMsg:
		return m.handleTitleGenerated(msg)

	case ExportDoneMsg:
		return m.handleExportDone(msg)

	case ui.StreamTickMsg:
		m.chat.Tick()
		if m.anyActiveStream() {
			cmds = append(cmds, ui.StreamTick())
		}
	}

	// Update modal
	if m.modal.IsVisible() {
		modal, cmd := m.modal.Update(msg)
		m.modal = modal
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)
	}

	// Update focused panel for remaining messages
	if m.focus == FocusSidebar {
		sidebar, cmd := m.sidebar.Update(msg)
		m.sidebar = sidebar
		cmds = append(cmds, cmd)
	} else {
		chat, cmd := m.chat.Update(msg)
		m.chat = chat
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) anyActiveStream() bool {
	return len(m.streamCancels) > 0
}

// handleKeyPress resolves a key press. The bool result reports whether the
// key was consumed; unconsumed keys fall through to the focused panel.
func (m *Model) handleKeyPress(msg tea.KeyPressMsg) (tea.Model, tea.Cmd, bool) {
	key := msg.String()

	if key == keys.CtrlC {
		m.Close()
		return m, tea.Quit, true
	}

	// Modal captures everything while visible.
	if m.modal.IsVisible() {
		model, cmd := m.handleModalKey(msg)
		return model, cmd, true
	}

	// Search mode owns the keyboard except for its exit keys.
	if m.sidebar.IsSearching() {
		return m.handleSearchKey(msg)
	}

	// Sidebar-local action keys resolve before the chord layer so that
	// j/k move the sidebar highlight, not the message cursor.
	if m.focus == FocusSidebar {
		if model, teaCmd, handled := m.handleSidebarKey(key); handled {
			return model, teaCmd, handled
		}
	}

	selected := m.selectedMessage()
	cmd := chord.Decode(chord.Event{
		Key:              key,
		InTextInput:      m.inputFocused && m.focus == FocusChat,
		HasSelection:     m.navigator.HasSelection(),
		SelectedRoleUser: selected != nil && selected.Role == conversation.RoleUser,
		Now:              time.Now(),
	}, m.chordState)
	if cmd != chord.None {
		return m.applyCommand(cmd)
	}

	// Keys below bypass the chord layer.
	switch key {
	case keys.Tab:
		if m.sidebarVisible {
			m.toggleFocus()
		}
		return m, nil, true

	case keys.Enter:
		if m.focus == FocusSidebar {
			return m.openSelectedConversation()
		}
		if m.inputFocused {
			model, teaCmd := m.handleSend()
			return model, teaCmd, true
		}

	case keys.Escape:
		return m.handleEscape()

	case keys.Up:
		if m.focus == FocusSidebar {
			m.sidebar.MoveUp()
			return m, nil, true
		}
		if !m.inputFocused {
			m.chat.ScrollUp()
			return m, nil, true
		}

	case keys.Down:
		if m.focus == FocusSidebar {
			m.sidebar.MoveDown()
			return m, m.maybeFetchMore(), true
		}
		if !m.inputFocused {
			m.chat.ScrollDown()
			return m, nil, true
		}
	}

	return m, nil, false
}

// handleSidebarKey resolves keys that act on the sidebar while it has
// focus. Unhandled keys fall through to the chord layer.
func (m *Model) handleSidebarKey(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case "r":
		return m.openRenameModal()
	case "d":
		return m.openDeleteModal()
	case "m":
		return m.openModePickerModal()
	case "s":
		return m.openSettingsModal()
	case "x":
		return m, m.exportUserData(), true
	case "/":
		m.sidebar.StartSearch()
		return m, nil, true
	case "j":
		m.sidebar.MoveDown()
		return m, m.maybeFetchMore(), true
	case "k":
		m.sidebar.MoveUp()
		return m, nil, true
	}
	return m, nil, false
}

// applyCommand executes a decoded chord command.
func (m *Model) applyCommand(cmd chord.Command) (tea.Model, tea.Cmd, bool) {
	logger.Debug("App: Command %s", cmd)

	switch cmd {
	case chord.NavigateNext:
		m.navigator.Next(len(m.activeMessages()))
		m.chat.SetSelected(m.navigator.Selected())

	case chord.NavigatePrev:
		m.navigator.Prev(len(m.activeMessages()))
		m.chat.SetSelected(m.navigator.Selected())

	case chord.NavigateFirst:
		m.navigator.First(len(m.activeMessages()))
		m.chat.SetSelected(m.navigator.Selected())

	case chord.NavigateLast:
		m.navigator.Last(len(m.activeMessages()))
		m.chat.SetSelected(m.navigator.Selected())

	case chord.FocusInput:
		m.focus = FocusChat
		m.sidebar.SetFocused(false)
		m.setInputFocused(true)

	case chord.ToggleSidebar:
		m.sidebarVisible = !m.sidebarVisible
		if m.sidebarVisible {
			m.focus = FocusSidebar
			m.sidebar.SetFocused(true)
			m.setInputFocused(false)
			m.refreshSidebar()
		} else {
			m.focus = FocusChat
			m.sidebar.SetFocused(false)
		}
		m.updateSizes()

	case chord.OpenSearch:
		m.sidebarVisible = true
		m.focus = FocusSidebar
		m.sidebar.SetFocused(true)
		m.setInputFocused(false)
		m.refreshSidebar()
		m.sidebar.StartSearch()
		m.updateSizes()

	case chord.NewConversation:
		m.startNewConversation()

	case chord.ShowHelp:
		m.modal.Show(&ui.HelpState{})

	case chord.CopySelected:
		if sel := m.selectedMessage(); sel != nil {
			if err := clipboard.WriteText(sel.Content); err != nil {
				logger.Warn("App: Copy failed: %v", err)
			}
		}

	case chord.EditSelected:
		return m.startEdit()

	case chord.Dismiss:
		m.navigator.Clear()
		m.chat.SetSelected(conversation.NoSelection)
	}

	return m, nil, true
}

func (m *Model) toggleFocus() {
	if m.focus == FocusSidebar {
		m.focus = FocusChat
		m.sidebar.SetFocused(false)
		m.setInputFocused(true)
	} else {
		m.focus = FocusSidebar
		m.sidebar.SetFocused(true)
		m.setInputFocused(false)
	}
}

// handleEscape resolves esc presses the chord layer did not consume:
// closing search, leaving the input, and dismissing errors.
func (m *Model) handleEscape() (tea.Model, tea.Cmd, bool) {
	if m.inputFocused && m.focus == FocusChat {
		m.setInputFocused(false)
		return m, nil, true
	}
	if id := m.store.ActiveID(); id != "" {
		if c := m.store.Get(id); c != nil && c.Err != "" {
			m.store.ClearError(id)
			m.refreshChat()
			return m, nil, true
		}
	}
	return m, nil, true
}

func (m *Model) handleSearchKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd, bool) {
	switch msg.String() {
	case keys.Escape:
		m.sidebar.StopSearch()
		return m, nil, true
	case keys.Enter:
		m.sidebar.StopSearch()
		return m.openSelectedConversation()
	case keys.Up:
		m.sidebar.MoveUp()
		return m, nil, true
	case keys.Down:
		m.sidebar.MoveDown()
		return m, nil, true
	}
	sidebar, cmd := m.sidebar.Update(msg)
	m.sidebar = sidebar
	return m, cmd, true
}

// openSelectedConversation activates the sidebar's highlighted conversation.
func (m *Model) openSelectedConversation() (tea.Model, tea.Cmd, bool) {
	id := m.sidebar.SelectedID()
	if id == "" {
		return m, nil, true
	}
	if m.store.SetActive(id) {
		m.navigator.Clear()
		m.focus = FocusChat
		m.sidebar.SetFocused(false)
		m.setInputFocused(true)
		m.refreshChat()
	}
	return m, nil, true
}

func (m *Model) startNewConversation() {
	m.store.NewConversation()
	m.navigator.Clear()
	m.focus = FocusChat
	m.sidebar.SetFocused(false)
	m.setInputFocused(true)
	m.chat.ClearInput()
	m.refreshChat()
}

// maybeFetchMore triggers the next sidebar page when the cursor nears the
// end of the loaded list.
func (m *Model) maybeFetchMore() tea.Cmd {
	if !m.sidebar.NeedsMore() {
		return nil
	}
	m.sidebar.SetLoading(true)
	return m.fetchConversations(m.sidebar.NextPage())
}

func (m *Model) handleConversationsFetched(msg ConversationsFetchedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		logger.Warn("App: Conversation fetch failed: %v", msg.Err)
		m.sidebar.SetLoading(false)
		return m, nil
	}
	m.store.MergePage(msg.Page.Items)
	m.sidebar.PageLoaded(msg.Page.Page, msg.Page.HasMore)
	m.refreshSidebar()
	return m, nil
}
