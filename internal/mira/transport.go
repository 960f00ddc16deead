// Package mira talks to the Mira backend: streaming message sends, the
// paginated conversation list, title generation, and user-data export. The
// rest of the app depends on the Transport interface so tests can substitute
// a mock.
package mira

import (
	"context"
	"time"

	"github.com/vemikrs/mira/internal/conversation"
)

// ChunkType discriminates streamed events from the backend.
type ChunkType int

const (
	// ChunkTypeDelta carries a content fragment to append to the reply.
	ChunkTypeDelta ChunkType = iota
	// ChunkTypeStatus carries a streaming status transition.
	ChunkTypeStatus
	// ChunkTypeDone marks a successful end of stream.
	ChunkTypeDone
	// ChunkTypeError marks a failed stream. Terminal like ChunkTypeDone.
	ChunkTypeError
)

// Chunk is one streamed event from a message send.
type Chunk struct {
	Type   ChunkType
	Delta  string
	Status string

	// Populated on ChunkTypeDone.
	Model     string
	LatencyMs int64

	// Populated on ChunkTypeError.
	ErrMsg string
}

// SendRequest is everything the backend needs to answer one message.
type SendRequest struct {
	ConversationID string
	Mode           conversation.Mode
	Context        *conversation.Context
	Content        string
	Attachments    []conversation.Attachment
}

// Page is one page of the conversation list.
type Page struct {
	Items   []conversation.Conversation
	Page    int
	HasMore bool
}

// ExportMetadata summarizes an export envelope.
type ExportMetadata struct {
	ConversationCount int `json:"conversation_count"`
}

// Export is the full user-data export returned by the backend.
type Export struct {
	ExportedAt    time.Time                   `json:"exported_at"`
	Conversations []conversation.Conversation `json:"conversations"`
	Metadata      ExportMetadata              `json:"metadata"`
}

// Transport is the backend boundary. Send returns a channel that the caller
// drains until a terminal chunk (done or error) arrives; the channel is
// closed after the terminal chunk. Cancelling the context aborts the stream.
type Transport interface {
	Send(ctx context.Context, req SendRequest) (<-chan Chunk, error)
	FetchConversations(ctx context.Context, page, pageSize int) (Page, error)
	UpdateTitle(ctx context.Context, conversationID, title string) (conversation.Conversation, error)
	GenerateTitle(ctx context.Context, conversationID string) (string, error)
	ExportUserData(ctx context.Context) (Export, error)
}
