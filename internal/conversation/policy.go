package conversation

import "github.com/vemikrs/mira/internal/errors"

// Evaluation is the outcome of asking whether a message may be edited and
// what an edit would destroy.
type Evaluation struct {
	// Editable is true only for user-authored messages that still exist.
	Editable bool

	// AffectedCount is the number of downstream messages that would be
	// discarded by committing an edit. Zero means the edit needs no
	// confirmation.
	AffectedCount int
}

// Evaluate applies the edit-truncation rules to one message of a snapshot.
func Evaluate(c *Conversation, messageID string) (Evaluation, error) {
	if c == nil {
		return Evaluation{}, errors.ConversationNotFound("")
	}
	idx := c.indexOf(messageID)
	if idx < 0 {
		return Evaluation{}, errors.MessageNotFound(messageID)
	}
	if c.Messages[idx].Role != RoleUser {
		return Evaluation{}, errors.NotUserMessage(messageID)
	}
	return Evaluation{
		Editable:      true,
		AffectedCount: len(c.Messages) - idx - 1,
	}, nil
}

// EvaluateEdit runs Evaluate against the store's current state.
func (s *Store) EvaluateEdit(conversationID, messageID string) (Evaluation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.conversations[conversationID]
	if !ok {
		return Evaluation{}, errors.ConversationNotFound(conversationID)
	}
	return Evaluate(c, messageID)
}
