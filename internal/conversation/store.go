package conversation

import (
	"sort"
	"sync"
	"time"

	"github.com/vemikrs/mira/internal/logger"
)

// Store owns the authoritative in-memory state of all conversations and the
// identity of the active one. All mutation goes through named operations;
// getters return copies so no caller holds live references across an await
// point.
type Store struct {
	mu            sync.RWMutex
	conversations map[string]*Conversation
	active        string
}

// NewStore creates an empty store with no active conversation.
func NewStore() *Store {
	return &Store{
		conversations: make(map[string]*Conversation),
	}
}

// ActiveID returns the ID of the active conversation, or empty if none.
func (s *Store) ActiveID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Active returns a snapshot of the active conversation, or nil if none.
func (s *Store) Active() *Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c, ok := s.conversations[s.active]; ok {
		out := c.clone()
		return &out
	}
	return nil
}

// Get returns a snapshot of a conversation by ID, or nil if unknown.
func (s *Store) Get(id string) *Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c, ok := s.conversations[id]; ok {
		out := c.clone()
		return &out
	}
	return nil
}

// Messages returns a copy of a conversation's message list. Nil if the
// conversation is unknown.
func (s *Store) Messages(id string) []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.conversations[id]
	if !ok {
		return nil
	}
	out := make([]Message, len(c.Messages))
	copy(out, c.Messages)
	return out
}

// Len returns the number of known conversations.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conversations)
}

// List returns snapshots of all conversations ordered by UpdatedAt
// descending.
func (s *Store) List() []Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Conversation, 0, len(s.conversations))
	for _, c := range s.conversations {
		out = append(out, c.clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

// NewConversation deactivates the current conversation without deleting it.
// The transient empty conversation is materialized only once the first
// message is sent (see BeginSend).
func (s *Store) NewConversation() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = ""
}

// SetActive switches the active conversation pointer. Unknown IDs are a
// silent no-op and return false; callers reset their navigation cursor and
// edit session on success.
func (s *Store) SetActive(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[id]; !ok {
		logger.Debug("Store: SetActive ignored for unknown conversation %s", id)
		return false
	}
	s.active = id
	return true
}

// AppendMessage appends a message to the end of a conversation, bumping
// UpdatedAt. If the conversation does not exist yet it is created first,
// which covers the first message of a new conversation.
func (s *Store) AppendMessage(conversationID string, msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.getOrCreate(conversationID, "", nil)
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = time.Now()
}

// TruncateAfter removes every message strictly after messageID and returns
// the number removed. Outstanding streams for the conversation are
// invalidated. Unknown conversation or message IDs are a no-op.
func (s *Store) TruncateAfter(conversationID, messageID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[conversationID]
	if !ok {
		return 0
	}
	idx := c.indexOf(messageID)
	if idx < 0 {
		return 0
	}
	removed := len(c.Messages) - idx - 1
	if removed > 0 {
		c.Messages = c.Messages[:idx+1]
		c.UpdatedAt = time.Now()
		c.streamToken++
		logger.Debug("Store: Truncated %d message(s) after %s in %s", removed, messageID, conversationID)
	}
	return removed
}

// Clear empties a conversation's messages but preserves its ID, mode and
// context. Outstanding streams are invalidated.
func (s *Store) Clear(conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[conversationID]
	if !ok {
		return
	}
	c.Messages = nil
	c.Err = ""
	c.UpdatedAt = time.Now()
	c.streamToken++
}

// Delete removes the conversation entirely. If it was active, active
// becomes none.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[id]; !ok {
		return
	}
	delete(s.conversations, id)
	if s.active == id {
		s.active = ""
	}
}

// UpdateTitle sets an explicit title, bypassing derived titles thereafter.
func (s *Store) UpdateTitle(id, title string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[id]
	if !ok {
		return false
	}
	c.Title = title
	c.UpdatedAt = time.Now()
	return true
}

// SetMode changes the assistance mode of an existing conversation. The mode
// applies to subsequent sends only.
func (s *Store) SetMode(id string, mode Mode) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[id]
	if !ok {
		return false
	}
	c.Mode = mode
	c.UpdatedAt = time.Now()
	return true
}

// SetError sets the conversation-level error surfaced to the user.
func (s *Store) SetError(id, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.conversations[id]; ok {
		c.Err = msg
	}
}

// ClearError dismisses the conversation-level error.
func (s *Store) ClearError(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.conversations[id]; ok {
		c.Err = ""
	}
}

// MergePage merges a fetched page of conversations into the store without
// duplicating already-known ones (idempotent merge keyed by ID). Returns
// the number of newly added conversations.
func (s *Store) MergePage(items []Conversation) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for i := range items {
		item := items[i]
		if item.ID == "" {
			continue
		}
		if _, known := s.conversations[item.ID]; known {
			continue
		}
		c := item.clone()
		s.conversations[item.ID] = &c
		added++
	}
	logger.Debug("Store: Merged page, %d new of %d fetched", added, len(items))
	return added
}

// getOrCreate returns an existing conversation or materializes a new one.
// Caller must hold the write lock.
func (s *Store) getOrCreate(id string, mode Mode, cctx *Context) *Conversation {
	if c, ok := s.conversations[id]; ok {
		return c
	}
	if id == "" {
		id = NewConversationID()
	}
	if mode == "" {
		mode = ModeGeneralChat
	}
	now := time.Now()
	c := &Conversation{
		ID:        id,
		Mode:      mode,
		Context:   cctx,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.conversations[id] = c
	return c
}
