package ui

import (
	"testing"
	"time"

	"github.com/vemikrs/mira/internal/conversation"
)

func sampleConversations() []conversation.Conversation {
	now := time.Now()
	return []conversation.Conversation{
		{ID: "c1", Title: "Export walkthrough", UpdatedAt: now},
		{ID: "c2", Title: "Billing question", UpdatedAt: now.Add(-time.Hour)},
		{ID: "c3", Messages: []conversation.Message{
			{Role: conversation.RoleUser, Content: "how do I export my data"},
		}, UpdatedAt: now.Add(-2 * time.Hour)},
	}
}

func TestSidebarKeepsSelectionAcrossUpdates(t *testing.T) {
	s := NewSidebar()
	s.SetConversations(sampleConversations())
	s.MoveDown()
	if s.SelectedID() != "c2" {
		t.Fatalf("SelectedID = %q", s.SelectedID())
	}

	// New conversation arrives at the top; selection should follow c2.
	list := append([]conversation.Conversation{{ID: "c0", Title: "Newest"}}, sampleConversations()...)
	s.SetConversations(list)
	if s.SelectedID() != "c2" {
		t.Errorf("SelectedID = %q after update, want c2", s.SelectedID())
	}
}

func TestSidebarSearchFiltersByTitleAndContent(t *testing.T) {
	s := NewSidebar()
	s.SetConversations(sampleConversations())

	s.StartSearch()
	s.search.SetValue("export")
	s.applyFilter()

	if len(s.filtered) != 2 {
		t.Fatalf("Filtered = %d, want 2 (title and content match)", len(s.filtered))
	}
	for _, c := range s.filtered {
		if c.ID == "c2" {
			t.Error("Billing conversation should not match 'export'")
		}
	}

	s.StopSearch()
	if len(s.filtered) != 3 {
		t.Errorf("Filter not cleared: %d items", len(s.filtered))
	}
}

func TestSidebarMoveClamps(t *testing.T) {
	s := NewSidebar()
	s.SetConversations(sampleConversations())

	s.MoveUp()
	if s.SelectedID() != "c1" {
		t.Errorf("MoveUp at top moved to %q", s.SelectedID())
	}
	for i := 0; i < 10; i++ {
		s.MoveDown()
	}
	if s.SelectedID() != "c3" {
		t.Errorf("MoveDown past end moved to %q", s.SelectedID())
	}
}

func TestSidebarPagination(t *testing.T) {
	s := NewSidebar()
	s.SetConversations(sampleConversations())

	// Cursor near the bottom of a short list with more pages available.
	if !s.NeedsMore() {
		t.Error("Expected NeedsMore with cursor near the end")
	}
	if s.NextPage() != 1 {
		t.Errorf("NextPage = %d, want 1", s.NextPage())
	}

	s.SetLoading(true)
	if s.NeedsMore() {
		t.Error("NeedsMore should be false while loading")
	}

	s.PageLoaded(1, false)
	if s.NeedsMore() {
		t.Error("NeedsMore should be false when no pages remain")
	}
	if s.NextPage() != 2 {
		t.Errorf("NextPage = %d after page 1, want 2", s.NextPage())
	}
}

func TestSidebarEmptySelection(t *testing.T) {
	s := NewSidebar()
	if s.SelectedID() != "" {
		t.Errorf("SelectedID = %q on empty sidebar", s.SelectedID())
	}
	s.MoveDown()
	s.MoveUp()
}
