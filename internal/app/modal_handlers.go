package app

import (
	tea "charm.land/bubbletea/v2"

	"github.com/vemikrs/mira/internal/conversation"
	"github.com/vemikrs/mira/internal/keys"
	"github.com/vemikrs/mira/internal/logger"
	"github.com/vemikrs/mira/internal/ui"
)

// handleModalKey resolves a key press while a modal is visible. Enter and
// Escape decide; everything else goes to the modal's own Update.
func (m *Model) handleModalKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	switch state := m.modal.State.(type) {
	case *ui.EditMessageState:
		switch key {
		case keys.Enter:
			return m.submitEdit(state)
		case keys.Escape:
			m.modal.Hide()
			return m, nil
		}

	case *ui.ConfirmTruncateState:
		switch key {
		case "y", "Y", keys.Enter:
			return m.resendEdited(state.ConversationID, state.MessageID, state.Draft)
		case "n", "N", keys.Escape:
			m.modal.Hide()
			return m, nil
		}
		return m, nil

	case *ui.ConfirmDeleteState:
		switch key {
		case "y", "Y", keys.Enter:
			return m.deleteConversation(state.ConversationID)
		case "n", "N", keys.Escape:
			m.modal.Hide()
			return m, nil
		}
		return m, nil

	case *ui.RenameState:
		switch key {
		case keys.Enter:
			var cmd tea.Cmd
			if title := state.Value(); title != "" {
				m.store.UpdateTitle(state.ConversationID, title)
				m.refreshSidebar()
				if state.ConversationID == m.store.ActiveID() {
					m.refreshChat()
				}
				cmd = m.persistTitle(state.ConversationID, title)
			}
			m.modal.Hide()
			return m, cmd
		case keys.Escape:
			m.modal.Hide()
			return m, nil
		}

	case *ui.ModePickerState:
		switch key {
		case keys.Enter:
			return m.applyMode(state)
		case keys.Escape:
			m.modal.Hide()
			return m, nil
		}

	case *ui.SettingsState:
		switch key {
		case keys.Enter:
			return m.applySettings(state)
		case keys.Escape:
			m.modal.Hide()
			return m, nil
		}

	case *ui.HelpState:
		switch key {
		case keys.Escape, keys.Enter, "?":
			m.modal.Hide()
			return m, nil
		}
		return m, nil

	case *ui.WelcomeState:
		switch key {
		case keys.Enter, keys.Escape:
			m.modal.Hide()
			m.config.MarkWelcomeShown()
			if err := m.config.Save(); err != nil {
				logger.Warn("App: Failed to save config: %v", err)
			}
			return m, nil
		}
		return m, nil
	}

	modal, cmd := m.modal.Update(msg)
	m.modal = modal
	return m, cmd
}

func (m *Model) openRenameModal() (tea.Model, tea.Cmd, bool) {
	id := m.sidebar.SelectedID()
	c := m.store.Get(id)
	if c == nil {
		return m, nil, true
	}
	m.modal.Show(ui.NewRenameState(id, c.Title))
	return m, nil, true
}

func (m *Model) openDeleteModal() (tea.Model, tea.Cmd, bool) {
	id := m.sidebar.SelectedID()
	c := m.store.Get(id)
	if c == nil {
		return m, nil, true
	}
	m.modal.Show(&ui.ConfirmDeleteState{
		ConversationID: id,
		DisplayTitle:   c.DisplayTitle(),
	})
	return m, nil, true
}

func (m *Model) openModePickerModal() (tea.Model, tea.Cmd, bool) {
	id := m.sidebar.SelectedID()
	c := m.store.Get(id)
	if c == nil {
		return m, nil, true
	}
	m.modal.Show(ui.NewModePickerState(id, c.Mode))
	return m, nil, true
}

func (m *Model) openSettingsModal() (tea.Model, tea.Cmd, bool) {
	m.modal.Show(ui.NewSettingsState(
		m.config.GetServerURL(),
		m.config.GetAPIToken(),
		m.config.GetDefaultMode(),
		m.config.GetTheme(),
		m.config.GetNotificationsEnabled(),
	))
	return m, nil, true
}

func (m *Model) deleteConversation(id string) (tea.Model, tea.Cmd) {
	m.modal.Hide()
	m.cancelStream(id)
	wasActive := id == m.store.ActiveID()
	m.store.Delete(id)
	m.refreshSidebar()
	if wasActive {
		m.navigator.Clear()
		m.refreshChat()
	}
	return m, nil
}

func (m *Model) applyMode(state *ui.ModePickerState) (tea.Model, tea.Cmd) {
	m.modal.Hide()
	if m.store.SetMode(state.ConversationID, state.Selected()) {
		m.refreshSidebar()
		if state.ConversationID == m.store.ActiveID() {
			m.refreshChat()
		}
	}
	return m, nil
}

func (m *Model) applySettings(state *ui.SettingsState) (tea.Model, tea.Cmd) {
	m.modal.Hide()

	m.config.SetServerURL(state.ServerURL)
	m.config.SetAPIToken(state.APIToken)
	m.config.SetDefaultMode(state.DefaultMode)
	m.config.SetTheme(state.Theme)
	m.config.SetNotificationsEnabled(state.NotificationsEnabled)
	m.draftMode = conversation.Mode(state.DefaultMode)

	if err := m.config.Save(); err != nil {
		logger.Warn("App: Failed to save config: %v", err)
	}
	return m, nil
}
