package conversation

import (
	"time"

	"github.com/vemikrs/mira/internal/logger"
)

// BeginSendResult reports the state created by a BeginSend: the (possibly
// new) conversation ID, the IDs of the optimistically inserted messages, and
// the stream token the caller must tag every chunk with.
type BeginSendResult struct {
	ConversationID string
	UserMessageID  string
	ReplyMessageID string
	Token          uint64
	CreatedNew     bool

	// Attachments carried on the user message. ResendEdited preserves the
	// original message's files, so senders must read them from here.
	Attachments []Attachment
}

// BeginSend atomically appends the user message and an empty assistant
// placeholder, then bumps and returns the conversation's stream token.
// When conversationID is empty a new conversation is created first, so the
// two messages and the fresh conversation become visible in one step.
func (s *Store) BeginSend(conversationID string, mode Mode, cctx *Context, content string, files []Attachment) BeginSendResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	createdNew := false
	if _, ok := s.conversations[conversationID]; !ok {
		createdNew = true
	}
	c := s.getOrCreate(conversationID, mode, cctx)

	user := NewUserMessage(content, files)
	reply := newAssistantPlaceholder()
	c.Messages = append(c.Messages, user, reply)
	c.Err = ""
	c.UpdatedAt = time.Now()
	c.streamToken++
	s.active = c.ID

	logger.Debug("Store: BeginSend conv=%s token=%d new=%v", c.ID, c.streamToken, createdNew)
	return BeginSendResult{
		ConversationID: c.ID,
		UserMessageID:  user.ID,
		ReplyMessageID: reply.ID,
		Token:          c.streamToken,
		CreatedNew:     createdNew,
		Attachments:    append([]Attachment(nil), user.AttachedFiles...),
	}
}

// ResendEdited replaces an edited user message and everything after it with
// the edited content plus a fresh assistant placeholder, as one step. The
// stream token is bumped so replies to the superseded branch are dropped.
func (s *Store) ResendEdited(conversationID, messageID, draft string) (BeginSendResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[conversationID]
	if !ok {
		return BeginSendResult{}, false
	}
	idx := c.indexOf(messageID)
	if idx < 0 || c.Messages[idx].Role != RoleUser {
		return BeginSendResult{}, false
	}

	files := c.Messages[idx].AttachedFiles
	c.Messages = c.Messages[:idx]

	user := NewUserMessage(draft, files)
	reply := newAssistantPlaceholder()
	c.Messages = append(c.Messages, user, reply)
	c.Err = ""
	c.UpdatedAt = time.Now()
	c.streamToken++

	logger.Debug("Store: ResendEdited conv=%s msg=%s token=%d", conversationID, messageID, c.streamToken)
	return BeginSendResult{
		ConversationID: c.ID,
		UserMessageID:  user.ID,
		ReplyMessageID: reply.ID,
		Token:          c.streamToken,
		Attachments:    append([]Attachment(nil), files...),
	}, true
}

// CurrentToken returns the conversation's live stream token. Zero for
// unknown conversations.
func (s *Store) CurrentToken(conversationID string) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c, ok := s.conversations[conversationID]; ok {
		return c.streamToken
	}
	return 0
}

// ApplyChunk appends streamed content to the conversation's trailing
// assistant placeholder. Chunks carrying a stale token are dropped and
// false is returned. An empty status leaves the current status untouched
// so delta-only chunks do not regress the phase.
func (s *Store) ApplyChunk(conversationID string, token uint64, delta, status string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[conversationID]
	if !ok || token != c.streamToken {
		return false
	}
	m := c.trailingReply()
	if m == nil {
		return false
	}
	m.Content += delta
	if status != "" {
		m.Metadata.Status = status
	} else if m.Metadata.Status == StatusPending && delta != "" {
		m.Metadata.Status = StatusResponding
	}
	return true
}

// SettleSuccess finalizes the streaming reply: the status is cleared and
// model/latency metadata recorded. Stale tokens are dropped.
func (s *Store) SettleSuccess(conversationID string, token uint64, model string, latencyMs int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[conversationID]
	if !ok || token != c.streamToken {
		return false
	}
	m := c.trailingReply()
	if m == nil {
		return false
	}
	m.Metadata.Status = ""
	m.Metadata.Model = model
	m.Metadata.LatencyMs = latencyMs
	c.UpdatedAt = time.Now()
	return true
}

// SettleError marks the streaming reply as failed and surfaces the error on
// the conversation. The placeholder is kept as a failed message rather than
// removed, so the transcript shows where the reply should have been.
// Stale tokens are dropped.
func (s *Store) SettleError(conversationID string, token uint64, errMsg string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[conversationID]
	if !ok || token != c.streamToken {
		return false
	}
	m := c.trailingReply()
	if m == nil {
		return false
	}
	m.Failed = true
	m.Metadata.Status = ""
	if m.Content == "" {
		m.Content = "Reply failed."
	}
	c.Err = errMsg
	c.UpdatedAt = time.Now()
	logger.Warn("Store: SettleError conv=%s: %s", conversationID, errMsg)
	return true
}

// trailingReply returns the last message if it is an in-flight assistant
// reply. Caller must hold the lock.
func (c *Conversation) trailingReply() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	m := &c.Messages[len(c.Messages)-1]
	if m.Role != RoleAssistant || m.Phase() == PhaseSettled || m.Failed {
		return nil
	}
	return m
}
