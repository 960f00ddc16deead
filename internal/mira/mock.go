package mira

import (
	"context"
	"sync"
	"time"

	"github.com/vemikrs/mira/internal/conversation"
)

// MockTransport is a test double for Transport. Tests queue chunks per send
// and inspect the requests that were made.
//
// NOTE: This file is used by integration tests in internal/app/*_test.go.
type MockTransport struct {
	mu sync.Mutex

	// queue of scripted responses, one slice per Send call in order.
	scripts [][]Chunk

	// SendErr, when set, makes the next Send fail before any stream starts.
	SendErr error

	// FetchPages maps page number to the page to return.
	FetchPages map[int]Page
	FetchErr   error

	// Titles maps conversation ID to the generated title.
	Titles   map[string]string
	TitleErr error

	// RenameErr, when set, makes UpdateTitle fail.
	RenameErr error

	ExportData Export
	ExportErr  error

	// Delay is inserted between streamed chunks when non-zero.
	Delay time.Duration

	sendRequests   []SendRequest
	titleRequests  []string
	renameRequests []RenameRequest
}

// RenameRequest records one UpdateTitle call.
type RenameRequest struct {
	ConversationID string
	Title          string
}

// NewMockTransport creates an empty mock.
func NewMockTransport() *MockTransport {
	return &MockTransport{
		FetchPages: make(map[int]Page),
		Titles:     make(map[string]string),
	}
}

// QueueReply scripts the chunks returned by the next unscripted Send.
func (m *MockTransport) QueueReply(chunks ...Chunk) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripts = append(m.scripts, chunks)
}

// QueueTextReply scripts a simple successful reply streamed as one delta
// per fragment followed by a done chunk.
func (m *MockTransport) QueueTextReply(model string, fragments ...string) {
	chunks := make([]Chunk, 0, len(fragments)+1)
	for _, f := range fragments {
		chunks = append(chunks, Chunk{Type: ChunkTypeDelta, Delta: f})
	}
	chunks = append(chunks, Chunk{Type: ChunkTypeDone, Model: model, LatencyMs: 1})
	m.QueueReply(chunks...)
}

// SendRequests returns a copy of all requests passed to Send.
func (m *MockTransport) SendRequests() []SendRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SendRequest, len(m.sendRequests))
	copy(out, m.sendRequests)
	return out
}

// RenameRequests returns a copy of all requests passed to UpdateTitle.
func (m *MockTransport) RenameRequests() []RenameRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RenameRequest, len(m.renameRequests))
	copy(out, m.renameRequests)
	return out
}

// TitleRequests returns the conversation IDs passed to GenerateTitle.
func (m *MockTransport) TitleRequests() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.titleRequests))
	copy(out, m.titleRequests)
	return out
}

// Send implements Transport. Unscripted sends stream a single error chunk.
func (m *MockTransport) Send(ctx context.Context, req SendRequest) (<-chan Chunk, error) {
	m.mu.Lock()
	m.sendRequests = append(m.sendRequests, req)
	if m.SendErr != nil {
		err := m.SendErr
		m.mu.Unlock()
		return nil, err
	}
	var script []Chunk
	if len(m.scripts) > 0 {
		script = m.scripts[0]
		m.scripts = m.scripts[1:]
	} else {
		script = []Chunk{{Type: ChunkTypeError, ErrMsg: "no scripted reply"}}
	}
	delay := m.Delay
	m.mu.Unlock()

	out := make(chan Chunk, len(script))
	go func() {
		defer close(out)
		for _, c := range script {
			if delay > 0 {
				select {
				case <-time.After(delay):
				case <-ctx.Done():
					return
				}
			}
			select {
			case out <- c:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// FetchConversations implements Transport.
func (m *MockTransport) FetchConversations(ctx context.Context, page, pageSize int) (Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FetchErr != nil {
		return Page{}, m.FetchErr
	}
	if p, ok := m.FetchPages[page]; ok {
		return p, nil
	}
	return Page{Page: page}, nil
}

// UpdateTitle implements Transport.
func (m *MockTransport) UpdateTitle(ctx context.Context, conversationID, title string) (conversation.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.renameRequests = append(m.renameRequests, RenameRequest{ConversationID: conversationID, Title: title})
	if m.RenameErr != nil {
		return conversation.Conversation{}, m.RenameErr
	}
	return conversation.Conversation{ID: conversationID, Title: title}, nil
}

// GenerateTitle implements Transport.
func (m *MockTransport) GenerateTitle(ctx context.Context, conversationID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.titleRequests = append(m.titleRequests, conversationID)
	if m.TitleErr != nil {
		return "", m.TitleErr
	}
	if t, ok := m.Titles[conversationID]; ok {
		return t, nil
	}
	return "Generated title", nil
}

// ExportUserData implements Transport.
func (m *MockTransport) ExportUserData(ctx context.Context) (Export, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ExportErr != nil {
		return Export{}, m.ExportErr
	}
	return m.ExportData, nil
}
