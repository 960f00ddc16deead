package app

import (
	tea "charm.land/bubbletea/v2"

	"github.com/vemikrs/mira/internal/conversation"
	"github.com/vemikrs/mira/internal/logger"
	"github.com/vemikrs/mira/internal/mira"
	"github.com/vemikrs/mira/internal/ui"
)

// startEdit opens the edit modal for the selected user message.
func (m *Model) startEdit() (tea.Model, tea.Cmd, bool) {
	convID := m.store.ActiveID()
	sel := m.selectedMessage()
	if convID == "" || sel == nil {
		return m, nil, true
	}

	if _, err := m.store.EvaluateEdit(convID, sel.ID); err != nil {
		logger.Debug("App: Edit rejected for %s: %v", sel.ID, err)
		return m, nil, true
	}

	m.modal.Show(ui.NewEditMessageState(convID, sel.ID, sel.Content))
	return m, nil, true
}

// submitEdit runs when the edit modal is confirmed. Edits with downstream
// messages require an extra confirmation step before anything is discarded.
func (m *Model) submitEdit(state *ui.EditMessageState) (tea.Model, tea.Cmd) {
	draft := state.Value()
	if err := validateContent(draft, nil); err != nil {
		logger.Debug("App: Edit rejected: %v", err)
		m.modal.SetError("Message cannot be empty")
		return m, nil
	}

	ev, err := m.store.EvaluateEdit(state.ConversationID, state.MessageID)
	if err != nil {
		// The message disappeared while the modal was open.
		m.modal.Hide()
		return m, nil
	}

	if ev.AffectedCount > 0 {
		m.modal.Show(&ui.ConfirmTruncateState{
			ConversationID: state.ConversationID,
			MessageID:      state.MessageID,
			Draft:          draft,
			AffectedCount:  ev.AffectedCount,
		})
		return m, nil
	}
	return m.resendEdited(state.ConversationID, state.MessageID, draft)
}

// resendEdited commits the edit: truncation, replacement, and the new send
// happen as one unit.
func (m *Model) resendEdited(conversationID, messageID, draft string) (tea.Model, tea.Cmd) {
	m.modal.Hide()
	m.cancelStream(conversationID)

	res, ok := m.store.ResendEdited(conversationID, messageID, draft)
	if !ok {
		return m, nil
	}

	m.navigator.Clear()
	m.refreshChat()
	m.refreshSidebar()

	var cctx *conversation.Context
	mode := m.draftMode
	if c := m.store.Get(conversationID); c != nil {
		mode = c.Mode
		cctx = c.Context
	}

	return m, tea.Batch(
		m.startSend(res, mira.SendRequest{
			ConversationID: conversationID,
			Mode:           mode,
			Context:        cctx,
			Content:        draft,
			Attachments:    res.Attachments,
		}),
		ui.StreamTick(),
	)
}
