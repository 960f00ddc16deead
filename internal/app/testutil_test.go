package app

import (
	"path/filepath"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/vemikrs/mira/internal/config"
	"github.com/vemikrs/mira/internal/conversation"
	"github.com/vemikrs/mira/internal/keys"
	"github.com/vemikrs/mira/internal/mira"
)

// testConfig creates a config backed by a temp file so Save never touches
// the real home directory.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadFrom(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	cfg.MarkWelcomeShown()
	return cfg
}

// testModel creates a sized Model wired to a mock transport.
func testModel(t *testing.T) (*Model, *mira.MockTransport) {
	t.Helper()
	transport := mira.NewMockTransport()
	m := New(testConfig(t), transport, "0.0.0-test")
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m, transport
}

// keyPress creates a tea.KeyPressMsg for the given key string.
func keyPress(key string) tea.KeyPressMsg {
	switch key {
	case keys.Enter:
		return tea.KeyPressMsg{Code: tea.KeyEnter}
	case keys.Tab:
		return tea.KeyPressMsg{Code: tea.KeyTab}
	case keys.Escape:
		return tea.KeyPressMsg{Code: tea.KeyEscape}
	case keys.Up:
		return tea.KeyPressMsg{Code: tea.KeyUp}
	case keys.Down:
		return tea.KeyPressMsg{Code: tea.KeyDown}
	case keys.CtrlC:
		return tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl}
	case keys.CtrlK:
		return tea.KeyPressMsg{Code: 'k', Mod: tea.ModCtrl}
	case keys.CtrlShiftH:
		return tea.KeyPressMsg{Code: 'h', Mod: tea.ModCtrl | tea.ModShift}
	case keys.CtrlShiftO:
		return tea.KeyPressMsg{Code: 'o', Mod: tea.ModCtrl | tea.ModShift}
	default:
		if len(key) == 1 {
			return tea.KeyPressMsg{Code: rune(key[0]), Text: key}
		}
		return tea.KeyPressMsg{Text: key}
	}
}

// sendKey sends a key press to the model and returns the updated model.
func sendKey(m *Model, key string) *Model {
	result, _ := m.Update(keyPress(key))
	return result.(*Model)
}

// chunkChannel returns a closed channel pre-filled with the given chunks.
func chunkChannel(chunks ...mira.Chunk) <-chan mira.Chunk {
	ch := make(chan mira.Chunk, len(chunks))
	for _, c := range chunks {
		ch <- c
	}
	close(ch)
	return ch
}

// pumpStream feeds a scripted stream into the model the way the Bubble Tea
// runtime would: StreamStartedMsg first, then one StreamChunkMsg per chunk
// until the terminal chunk settles the reply.
func pumpStream(t *testing.T, m *Model, conversationID string, token uint64, chunks ...mira.Chunk) *Model {
	t.Helper()
	var model tea.Model = m
	var cmd tea.Cmd
	model, cmd = model.Update(StreamStartedMsg{
		ConversationID: conversationID,
		Token:          token,
		Chunks:         chunkChannel(chunks...),
	})
	for cmd != nil {
		msg := cmd()
		switch msg.(type) {
		case StreamChunkMsg, StreamClosedMsg:
			model, cmd = model.Update(msg)
		default:
			// Settle side effects (title generation, notifications) are
			// exercised separately.
			return model.(*Model)
		}
	}
	return model.(*Model)
}

// seedExchange plays one full send/reply cycle through the store and returns
// the conversation ID.
func seedExchange(m *Model, conversationID, question, answer string) string {
	res := m.store.BeginSend(conversationID, conversation.ModeGeneralChat, nil, question, nil)
	m.store.ApplyChunk(res.ConversationID, res.Token, answer, "")
	m.store.SettleSuccess(res.ConversationID, res.Token, "mira-1", 50)
	m.refreshChat()
	m.refreshSidebar()
	return res.ConversationID
}
