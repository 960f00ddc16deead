// Package conversation owns the in-memory state of all Mira conversations:
// the message transcripts, the active conversation pointer, the navigation
// cursor, and the edit-with-truncation rules. The Store is the single source
// of truth; every other component reads from it and requests mutations
// through its operations.
package conversation

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-runewidth"
)

// Mode classifies what kind of assistance a conversation was started for.
// Set at creation from the first message's intent and thereafter fixed
// unless explicitly changed by the user.
type Mode string

const (
	ModeGeneralChat   Mode = "GENERAL_CHAT"
	ModeContextHelp   Mode = "CONTEXT_HELP"
	ModeErrorAnalyze  Mode = "ERROR_ANALYZE"
	ModeStudioAgent   Mode = "STUDIO_AGENT"
	ModeWorkflowAgent Mode = "WORKFLOW_AGENT"
)

// Modes lists all modes in display order.
var Modes = []Mode{
	ModeGeneralChat,
	ModeContextHelp,
	ModeErrorAnalyze,
	ModeStudioAgent,
	ModeWorkflowAgent,
}

// Label returns a human-readable name for the mode.
func (m Mode) Label() string {
	switch m {
	case ModeGeneralChat:
		return "General Chat"
	case ModeContextHelp:
		return "Context Help"
	case ModeErrorAnalyze:
		return "Error Analysis"
	case ModeStudioAgent:
		return "Studio Agent"
	case ModeWorkflowAgent:
		return "Workflow Agent"
	default:
		return string(m)
	}
}

// Context describes the screen that spawned a conversation.
type Context struct {
	AppID      string `json:"app_id,omitempty"`
	ScreenID   string `json:"screen_id,omitempty"`
	SystemRole string `json:"system_role,omitempty"`
}

// Conversation is a single linear transcript with one assistant context.
type Conversation struct {
	ID        string    `json:"id"`
	Messages  []Message `json:"messages"`
	Mode      Mode      `json:"mode"`
	Title     string    `json:"title,omitempty"`
	Context   *Context  `json:"context,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Err is the conversation-level error surfaced to the user. It is set
	// when a send fails and cleared only by explicit dismissal or a later
	// successful operation.
	Err string `json:"-"`

	// streamToken is the live send token. Chunks tagged with an older token
	// are stale and must be dropped.
	streamToken uint64
}

// maxDerivedTitleWidth bounds the fallback title derived from the first
// user message.
const maxDerivedTitleWidth = 32

// NewConversationID returns a new client-generated conversation ID. The
// server assigns UUIDs, so optimistic IDs use the same shape.
func NewConversationID() string {
	return uuid.NewString()
}

// DisplayTitle returns the explicit title, or a truncated first user message
// when no title has been assigned yet.
func (c *Conversation) DisplayTitle() string {
	if c.Title != "" {
		return c.Title
	}
	for i := range c.Messages {
		if c.Messages[i].Role == RoleUser {
			line := strings.SplitN(strings.TrimSpace(c.Messages[i].Content), "\n", 2)[0]
			return runewidth.Truncate(line, maxDerivedTitleWidth, "…")
		}
	}
	return "New conversation"
}

// indexOf returns the position of the message with the given ID, or -1.
func (c *Conversation) indexOf(messageID string) int {
	for i := range c.Messages {
		if c.Messages[i].ID == messageID {
			return i
		}
	}
	return -1
}

// clone returns a deep-enough copy for handing out snapshots: the message
// slice is copied so callers cannot mutate store state through it.
func (c *Conversation) clone() Conversation {
	out := *c
	out.Messages = make([]Message, len(c.Messages))
	copy(out.Messages, c.Messages)
	return out
}

// EditSession tracks an in-progress edit of an earlier user message.
// At most one is active at a time, scoped to one conversation.
type EditSession struct {
	ConversationID string
	MessageID      string
	Draft          string
}
