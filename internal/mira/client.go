package mira

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/vemikrs/mira/internal/conversation"
	"github.com/vemikrs/mira/internal/errors"
	"github.com/vemikrs/mira/internal/logger"
)

// chunkChannelBuffer sizes the per-send chunk channel. Large enough that a
// slow UI frame does not stall the network read.
const chunkChannelBuffer = 64

// Client is the HTTP implementation of Transport.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     *slog.Logger
}

// NewClient creates a client for the given server. Non-streaming requests
// time out; the streaming send relies on context cancellation instead.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{},
		log:     logger.ComponentLogger("mira-client"),
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

type sendPayload struct {
	ConversationID string                    `json:"conversation_id,omitempty"`
	Mode           conversation.Mode         `json:"mode"`
	Context        *conversation.Context     `json:"context,omitempty"`
	Content        string                    `json:"content"`
	Attachments    []conversation.Attachment `json:"attachments,omitempty"`
}

// Send starts a streaming message send. The returned channel delivers
// chunks until a terminal done or error chunk, then closes. The HTTP
// request itself failing before any stream is established is returned as
// an error; failures mid-stream arrive as a ChunkTypeError chunk.
func (c *Client) Send(ctx context.Context, req SendRequest) (<-chan Chunk, error) {
	body, err := json.Marshal(sendPayload{
		ConversationID: req.ConversationID,
		Mode:           req.Mode,
		Context:        req.Context,
		Content:        req.Content,
		Attachments:    req.Attachments,
	})
	if err != nil {
		return nil, errors.SendFailed(req.ConversationID, err)
	}

	httpReq, err := c.newRequest(ctx, http.MethodPost, "/api/messages", bytes.NewReader(body))
	if err != nil {
		return nil, errors.SendFailed(req.ConversationID, err)
	}
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, errors.SendFailed(req.ConversationID, err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, errors.ServerRejected(resp.StatusCode, string(b))
	}

	chunks := make(chan Chunk, chunkChannelBuffer)
	go c.readStream(ctx, resp.Body, chunks)
	return chunks, nil
}

// readStream reads SSE lines off the response body, forwarding parsed
// chunks until a terminal chunk, EOF, or cancellation. It always closes
// the channel and the body.
func (c *Client) readStream(ctx context.Context, body io.ReadCloser, chunks chan<- Chunk) {
	defer close(chunks)
	defer body.Close()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	terminal := false
	for scanner.Scan() {
		chunk, ok := parseStreamLine(scanner.Text(), c.log)
		if !ok {
			continue
		}
		select {
		case chunks <- chunk:
		case <-ctx.Done():
			return
		}
		if chunk.Type == ChunkTypeDone || chunk.Type == ChunkTypeError {
			terminal = true
			break
		}
	}
	if terminal {
		return
	}

	// Stream ended without a terminal event.
	errMsg := "stream ended unexpectedly"
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		errMsg = err.Error()
	}
	if ctx.Err() != nil {
		return
	}
	c.log.Warn("stream closed without done event", "error", errMsg)
	select {
	case chunks <- Chunk{Type: ChunkTypeError, ErrMsg: errMsg}:
	case <-ctx.Done():
	}
}

type listResponse struct {
	Items   []conversation.Conversation `json:"items"`
	Page    int                         `json:"page"`
	HasMore bool                        `json:"has_more"`
}

// FetchConversations retrieves one page of the conversation list, newest
// first.
func (c *Client) FetchConversations(ctx context.Context, page, pageSize int) (Page, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(pageSize))

	httpReq, err := c.newRequest(ctx, http.MethodGet, "/api/conversations?"+q.Encode(), nil)
	if err != nil {
		return Page{}, errors.FetchFailed(page, err)
	}
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Page{}, errors.FetchFailed(page, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Page{}, errors.ServerRejected(resp.StatusCode, string(b))
	}
	var out listResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Page{}, errors.FetchFailed(page, err)
	}
	return Page{Items: out.Items, Page: out.Page, HasMore: out.HasMore}, nil
}

// UpdateTitle persists an explicit rename and returns the updated
// conversation.
func (c *Client) UpdateTitle(ctx context.Context, conversationID, title string) (conversation.Conversation, error) {
	body, err := json.Marshal(struct {
		Title string `json:"title"`
	}{Title: title})
	if err != nil {
		return conversation.Conversation{}, errors.RenameFailed(conversationID, err)
	}

	path := fmt.Sprintf("/api/conversations/%s", url.PathEscape(conversationID))
	httpReq, err := c.newRequest(ctx, http.MethodPatch, path, bytes.NewReader(body))
	if err != nil {
		return conversation.Conversation{}, errors.RenameFailed(conversationID, err)
	}
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return conversation.Conversation{}, errors.RenameFailed(conversationID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return conversation.Conversation{}, errors.ServerRejected(resp.StatusCode, string(b))
	}
	var out conversation.Conversation
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return conversation.Conversation{}, errors.RenameFailed(conversationID, err)
	}
	return out, nil
}

// GenerateTitle asks the backend for a short title summarizing the
// conversation so far.
func (c *Client) GenerateTitle(ctx context.Context, conversationID string) (string, error) {
	path := fmt.Sprintf("/api/conversations/%s/title", url.PathEscape(conversationID))
	httpReq, err := c.newRequest(ctx, http.MethodPost, path, nil)
	if err != nil {
		return "", errors.TitleGenerationFailed(conversationID, err)
	}
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", errors.TitleGenerationFailed(conversationID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", errors.ServerRejected(resp.StatusCode, string(b))
	}
	var out struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", errors.TitleGenerationFailed(conversationID, err)
	}
	return out.Title, nil
}

// ExportUserData downloads the full user-data export.
func (c *Client) ExportUserData(ctx context.Context) (Export, error) {
	httpReq, err := c.newRequest(ctx, http.MethodGet, "/api/export", nil)
	if err != nil {
		return Export{}, errors.ExportFailed(err)
	}
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Export{}, errors.ExportFailed(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Export{}, errors.ServerRejected(resp.StatusCode, string(b))
	}
	var out Export
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Export{}, errors.ExportFailed(err)
	}
	if out.ExportedAt.IsZero() {
		out.ExportedAt = time.Now()
	}
	return out, nil
}
