package conversation

import (
	"strings"
	"testing"
)

func TestDisplayTitle(t *testing.T) {
	tests := []struct {
		name string
		conv Conversation
		want string
	}{
		{
			name: "explicit title wins",
			conv: Conversation{
				Title:    "Release checklist",
				Messages: []Message{{Role: RoleUser, Content: "something else"}},
			},
			want: "Release checklist",
		},
		{
			name: "derived from first user message",
			conv: Conversation{
				Messages: []Message{{Role: RoleUser, Content: "How do I reset my token?"}},
			},
			want: "How do I reset my token?",
		},
		{
			name: "first line only",
			conv: Conversation{
				Messages: []Message{{Role: RoleUser, Content: "short line\nand much more below"}},
			},
			want: "short line",
		},
		{
			name: "skips leading assistant message",
			conv: Conversation{
				Messages: []Message{
					{Role: RoleAssistant, Content: "Welcome!"},
					{Role: RoleUser, Content: "thanks"},
				},
			},
			want: "thanks",
		},
		{
			name: "empty conversation",
			conv: Conversation{},
			want: "New conversation",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.conv.DisplayTitle(); got != tt.want {
				t.Errorf("DisplayTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDisplayTitleTruncatesLongMessages(t *testing.T) {
	c := Conversation{
		Messages: []Message{{Role: RoleUser, Content: strings.Repeat("x", 100)}},
	}
	got := c.DisplayTitle()
	if !strings.HasSuffix(got, "…") {
		t.Errorf("Long title %q should end with ellipsis", got)
	}
	if len([]rune(got)) > maxDerivedTitleWidth {
		t.Errorf("Title rune length %d exceeds %d", len([]rune(got)), maxDerivedTitleWidth)
	}
}

func TestMessagePhase(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		want Phase
	}{
		{"user message", Message{Role: RoleUser, Content: "hi"}, PhaseSettled},
		{"pending placeholder", Message{Role: RoleAssistant, Metadata: Metadata{Status: StatusPending}}, PhasePending},
		{"thinking", Message{Role: RoleAssistant, Metadata: Metadata{Status: StatusThinking}}, PhaseStreaming},
		{"responding", Message{Role: RoleAssistant, Content: "par", Metadata: Metadata{Status: StatusResponding}}, PhaseStreaming},
		{"settled", Message{Role: RoleAssistant, Content: "done"}, PhaseSettled},
		{"failed", Message{Role: RoleAssistant, Failed: true, Metadata: Metadata{Status: StatusPending}}, PhaseFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.msg.Phase(); got != tt.want {
				t.Errorf("Phase() = %v, want %v", got, tt.want)
			}
		})
	}
}
