package app

import (
	"context"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/vemikrs/mira/internal/conversation"
	"github.com/vemikrs/mira/internal/errors"
	"github.com/vemikrs/mira/internal/logger"
	"github.com/vemikrs/mira/internal/mira"
	"github.com/vemikrs/mira/internal/notification"
	"github.com/vemikrs/mira/internal/ui"
)

// handleSend sends the composer's content to the active conversation.
func (m *Model) handleSend() (tea.Model, tea.Cmd) {
	content, files := extractAttachments(m.chat.GetInput())
	if err := validateContent(content, files); err != nil {
		logger.Debug("App: Send rejected: %v", err)
		return m, nil
	}

	convID := m.store.ActiveID()
	cctx := m.draftContext
	mode := m.draftMode
	if c := m.store.Get(convID); c != nil {
		mode = c.Mode
		cctx = c.Context
	}

	// Supersede any stream still running for this conversation.
	m.cancelStream(convID)

	res := m.store.BeginSend(convID, mode, cctx, content, files)
	m.chat.ClearInput()
	m.navigator.Clear()
	m.refreshChat()
	m.refreshSidebar()

	return m, tea.Batch(
		m.startSend(res, mira.SendRequest{
			ConversationID: res.ConversationID,
			Mode:           mode,
			Context:        cctx,
			Content:        content,
			Attachments:    files,
		}),
		ui.StreamTick(),
	)
}

// startSend opens the backend stream for an already-inserted send.
func (m *Model) startSend(res conversation.BeginSendResult, req mira.SendRequest) tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	m.streamCancels[res.ConversationID] = streamHandle{token: res.Token, cancel: cancel}

	return func() tea.Msg {
		chunks, err := m.transport.Send(ctx, req)
		if err != nil {
			return SendFailedMsg{ConversationID: res.ConversationID, Token: res.Token, Err: err}
		}
		return StreamStartedMsg{ConversationID: res.ConversationID, Token: res.Token, Chunks: chunks}
	}
}

// listenForChunks creates a command that waits for the next chunk from a
// stream. Each delivered chunk re-subscribes until the channel closes.
func (m *Model) listenForChunks(conversationID string, token uint64, ch <-chan mira.Chunk) tea.Cmd {
	return func() tea.Msg {
		chunk, ok := <-ch
		if !ok {
			return StreamClosedMsg{ConversationID: conversationID, Token: token}
		}
		return StreamChunkMsg{ConversationID: conversationID, Token: token, Chunk: chunk, Chunks: ch}
	}
}

func (m *Model) handleStreamChunk(msg StreamChunkMsg) (tea.Model, tea.Cmd) {
	switch msg.Chunk.Type {
	case mira.ChunkTypeDelta:
		m.store.ApplyChunk(msg.ConversationID, msg.Token, msg.Chunk.Delta, "")

	case mira.ChunkTypeStatus:
		m.store.ApplyChunk(msg.ConversationID, msg.Token, "", msg.Chunk.Status)

	case mira.ChunkTypeDone:
		return m.settleStream(msg, true)

	case mira.ChunkTypeError:
		return m.settleStream(msg, false)
	}

	if msg.ConversationID == m.store.ActiveID() {
		m.chat.Refresh(m.activeMessages(), "")
	}
	return m, m.listenForChunks(msg.ConversationID, msg.Token, msg.Chunks)
}

// settleStream finalizes a stream on its terminal chunk.
func (m *Model) settleStream(msg StreamChunkMsg, success bool) (tea.Model, tea.Cmd) {
	m.cancelStreamToken(msg.ConversationID, msg.Token)

	applied := false
	if success {
		applied = m.store.SettleSuccess(msg.ConversationID, msg.Token, msg.Chunk.Model, msg.Chunk.LatencyMs)
	} else {
		applied = m.store.SettleError(msg.ConversationID, msg.Token, msg.Chunk.ErrMsg)
	}
	if !applied {
		return m, nil
	}

	isActive := msg.ConversationID == m.store.ActiveID()
	if isActive {
		m.refreshChat()
	}
	m.refreshSidebar()

	var cmds []tea.Cmd
	if c := m.store.Get(msg.ConversationID); c != nil {
		if !isActive && m.config.GetNotificationsEnabled() {
			title := c.DisplayTitle()
			cmds = append(cmds, func() tea.Msg {
				if success {
					notification.ReplyReady(title)
				} else {
					notification.ReplyFailed(title)
				}
				return nil
			})
		}
		if success && c.Title == "" && len(c.Messages) >= 2 {
			cmds = append(cmds, m.generateTitle(msg.ConversationID))
		}
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) handleStreamClosed(msg StreamClosedMsg) (tea.Model, tea.Cmd) {
	// Normal close after a terminal chunk already settled the reply; this
	// only acts when the stream died mid-flight.
	if m.store.SettleError(msg.ConversationID, msg.Token, "connection lost") {
		if msg.ConversationID == m.store.ActiveID() {
			m.refreshChat()
		}
	}
	m.cancelStreamToken(msg.ConversationID, msg.Token)
	return m, nil
}

func (m *Model) handleSendFailed(msg SendFailedMsg) (tea.Model, tea.Cmd) {
	logger.Warn("App: Send failed for %s: %v", msg.ConversationID, msg.Err)
	m.cancelStreamToken(msg.ConversationID, msg.Token)
	m.store.SettleError(msg.ConversationID, msg.Token, msg.Err.Error())
	if msg.ConversationID == m.store.ActiveID() {
		m.refreshChat()
	}
	return m, nil
}

// validateContent rejects sends with nothing to say: no text after
// attachment extraction and no attached files.
func validateContent(content string, files []conversation.Attachment) error {
	if content == "" && len(files) == 0 {
		return errors.EmptyContent()
	}
	return nil
}

// persistTitle pushes an explicit rename to the backend. The store already
// holds the new title; a failed push is logged and the rename stays local.
func (m *Model) persistTitle(conversationID, title string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := m.transport.UpdateTitle(ctx, conversationID, title); err != nil {
			logger.Warn("App: Rename not persisted for %s: %v", conversationID, err)
		}
		return nil
	}
}

// generateTitle asks the backend for a title after the first exchange.
func (m *Model) generateTitle(conversationID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		title, err := m.transport.GenerateTitle(ctx, conversationID)
		return TitleGeneratedMsg{ConversationID: conversationID, Title: title, Err: err}
	}
}

func (m *Model) handleTitleGenerated(msg TitleGeneratedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		// Non-fatal, the derived title stays.
		logger.Debug("App: Title generation failed for %s: %v", msg.ConversationID, msg.Err)
		return m, nil
	}
	if msg.Title != "" {
		m.store.UpdateTitle(msg.ConversationID, msg.Title)
		m.refreshSidebar()
		if msg.ConversationID == m.store.ActiveID() {
			m.refreshChat()
		}
	}
	return m, nil
}

// extractAttachments pulls @path tokens out of the composer text and
// resolves them to attachments. Paths that do not resolve are left in the
// text untouched.
func extractAttachments(content string) (string, []conversation.Attachment) {
	var (
		files  []conversation.Attachment
		tokens []string
	)
	for _, tok := range strings.Fields(content) {
		if !strings.HasPrefix(tok, "@") || len(tok) < 2 {
			tokens = append(tokens, tok)
			continue
		}
		path := tok[1:]
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			tokens = append(tokens, tok)
			continue
		}
		files = append(files, conversation.Attachment{
			ID:       conversation.NewMessageID(),
			Name:     filepath.Base(path),
			Size:     info.Size(),
			MimeType: mimeTypeFor(path),
		})
	}
	return strings.Join(tokens, " "), files
}

func mimeTypeFor(path string) string {
	t := mime.TypeByExtension(filepath.Ext(path))
	if t == "" {
		return "application/octet-stream"
	}
	return t
}
