package ui

import (
	"strings"
	"testing"

	"github.com/vemikrs/mira/internal/conversation"
)

func TestRenderContentHighlightsFences(t *testing.T) {
	content := "Here you go:\n```go\nfmt.Println(\"hi\")\n```\nDone."
	got := renderContent(content, 60)

	if strings.Contains(got, "```") {
		t.Error("Fence markers should not appear in rendered output")
	}
	if !strings.Contains(got, "Println") {
		t.Error("Code content missing from rendered output")
	}
	if !strings.Contains(got, "Done.") {
		t.Error("Prose after the fence missing")
	}
}

func TestRenderContentUnterminatedFence(t *testing.T) {
	// Mid-stream content can end inside a fence.
	got := renderContent("```python\nprint(1)", 60)
	if !strings.Contains(got, "print") {
		t.Errorf("Unterminated fence dropped code: %q", got)
	}
}

func TestRenderMessageSelectionMarker(t *testing.T) {
	msg := conversation.Message{
		Role:    conversation.RoleUser,
		Content: "hello",
	}
	plain := renderMessage(msg, false, 60, "Thinking")
	selected := renderMessage(msg, true, 60, "Thinking")
	if plain == selected {
		t.Error("Selected rendering should differ from unselected")
	}
	if !strings.Contains(selected, "▌") {
		t.Error("Selection marker missing")
	}
}

func TestRenderMessagePendingShowsVerb(t *testing.T) {
	msg := conversation.Message{
		Role:     conversation.RoleAssistant,
		Metadata: conversation.Metadata{Status: conversation.StatusPending},
	}
	got := renderMessage(msg, false, 60, "Pondering")
	if !strings.Contains(got, "Pondering") {
		t.Errorf("Pending message should show the waiting verb: %q", got)
	}
}

func TestRenderMessageFailed(t *testing.T) {
	msg := conversation.Message{
		Role:    conversation.RoleAssistant,
		Content: "Reply failed.",
		Failed:  true,
	}
	got := renderMessage(msg, false, 60, "Thinking")
	if !strings.Contains(got, "Reply failed.") {
		t.Errorf("Failed message content missing: %q", got)
	}
}
