package conversation

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Streaming status values carried in Metadata.Status. Status is present only
// while an assistant reply is still streaming and is cleared on completion.
const (
	StatusPending    = "pending"
	StatusThinking   = "thinking"
	StatusResponding = "responding"
)

// Phase is the lifecycle phase of an assistant message, derived from its
// status and failure flag.
type Phase int

const (
	PhasePending Phase = iota
	PhaseStreaming
	PhaseSettled
	PhaseFailed
)

// Attachment references a file attached to a message. Immutable after the
// message is created.
type Attachment struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
}

// Metadata carries assistant reply metadata. Status is non-empty only while
// the reply is streaming; Model and LatencyMs are populated on settle.
type Metadata struct {
	Model     string `json:"model,omitempty"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
	Status    string `json:"status,omitempty"`
}

// Message is a single turn in a conversation transcript.
type Message struct {
	ID            string       `json:"id"`
	Role          Role         `json:"role"`
	Content       string       `json:"content"`
	Timestamp     time.Time    `json:"timestamp"`
	Metadata      Metadata     `json:"metadata,omitzero"`
	AttachedFiles []Attachment `json:"attached_files,omitempty"`
	Failed        bool         `json:"failed,omitempty"`
}

// NewMessageID returns a new client-generated message ID. ULIDs sort
// lexicographically by creation time, which keeps optimistic IDs stable
// relative to server-assigned ones.
func NewMessageID() string {
	return ulid.Make().String()
}

// NewUserMessage creates a user message ready for optimistic insertion.
func NewUserMessage(content string, files []Attachment) Message {
	return Message{
		ID:            NewMessageID(),
		Role:          RoleUser,
		Content:       content,
		Timestamp:     time.Now(),
		AttachedFiles: files,
	}
}

// newAssistantPlaceholder creates the empty assistant message appended in
// the same step as its user message, so the transcript always shows the
// pending reply.
func newAssistantPlaceholder() Message {
	return Message{
		ID:        NewMessageID(),
		Role:      RoleAssistant,
		Timestamp: time.Now(),
		Metadata:  Metadata{Status: StatusPending},
	}
}

// Phase returns the lifecycle phase of an assistant message. User messages
// always report PhaseSettled.
func (m *Message) Phase() Phase {
	if m.Role != RoleAssistant {
		return PhaseSettled
	}
	if m.Failed {
		return PhaseFailed
	}
	switch m.Metadata.Status {
	case StatusPending:
		return PhasePending
	case "":
		return PhaseSettled
	default:
		return PhaseStreaming
	}
}

// IsStreaming reports whether the message is still receiving content.
func (m *Message) IsStreaming() bool {
	p := m.Phase()
	return p == PhasePending || p == PhaseStreaming
}
