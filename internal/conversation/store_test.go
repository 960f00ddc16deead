package conversation

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestBeginSendCreatesConversation(t *testing.T) {
	s := NewStore()

	res := s.BeginSend("", ModeGeneralChat, nil, "hello", nil)
	if res.ConversationID == "" {
		t.Fatal("Expected a conversation ID")
	}
	if !res.CreatedNew {
		t.Error("Expected CreatedNew for an empty conversation ID")
	}
	if got := s.ActiveID(); got != res.ConversationID {
		t.Errorf("Active = %q, want %q", got, res.ConversationID)
	}

	msgs := s.Messages(res.ConversationID)
	if len(msgs) != 2 {
		t.Fatalf("Expected 2 messages after BeginSend, got %d", len(msgs))
	}
	if msgs[0].Role != RoleUser || msgs[0].Content != "hello" {
		t.Errorf("First message = %+v, want user 'hello'", msgs[0])
	}
	if msgs[1].Role != RoleAssistant || msgs[1].Content != "" {
		t.Errorf("Second message = %+v, want empty assistant placeholder", msgs[1])
	}
	if msgs[1].Phase() != PhasePending {
		t.Errorf("Placeholder phase = %v, want PhasePending", msgs[1].Phase())
	}
}

func TestBeginSendAppendsAtomically(t *testing.T) {
	s := NewStore()
	res := s.BeginSend("", ModeGeneralChat, nil, "first", nil)

	// Concurrent readers must never observe the user message without its
	// placeholder.
	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			if n := len(s.Messages(res.ConversationID)); n%2 != 0 {
				t.Errorf("Observed odd message count %d mid-send", n)
				return
			}
		}
	}()
	for i := 0; i < 50; i++ {
		s.BeginSend(res.ConversationID, ModeGeneralChat, nil, "again", nil)
	}
	close(stop)
	wg.Wait()
}

func TestStreamTokenDropsStaleChunks(t *testing.T) {
	s := NewStore()
	res := s.BeginSend("", ModeGeneralChat, nil, "question", nil)
	stale := res.Token

	if !s.ApplyChunk(res.ConversationID, stale, "partial ", StatusResponding) {
		t.Fatal("Live chunk was dropped")
	}

	// A newer send supersedes the stream.
	res2 := s.BeginSend(res.ConversationID, ModeGeneralChat, nil, "newer question", nil)
	if res2.Token == stale {
		t.Fatal("Expected BeginSend to bump the stream token")
	}

	if s.ApplyChunk(res.ConversationID, stale, "ghost", "") {
		t.Error("Stale chunk was applied")
	}
	if s.SettleSuccess(res.ConversationID, stale, "mira-1", 10) {
		t.Error("Stale settle was applied")
	}
	if s.SettleError(res.ConversationID, stale, "boom") {
		t.Error("Stale error settle was applied")
	}
	for _, m := range s.Messages(res.ConversationID) {
		if strings.Contains(m.Content, "ghost") {
			t.Error("Stale content leaked into the transcript")
		}
	}
}

func TestApplyChunkAccumulates(t *testing.T) {
	s := NewStore()
	res := s.BeginSend("", ModeGeneralChat, nil, "q", nil)

	s.ApplyChunk(res.ConversationID, res.Token, "Hello", StatusResponding)
	s.ApplyChunk(res.ConversationID, res.Token, ", world", "")
	s.SettleSuccess(res.ConversationID, res.Token, "mira-1", 42)

	msgs := s.Messages(res.ConversationID)
	reply := msgs[len(msgs)-1]
	if reply.Content != "Hello, world" {
		t.Errorf("Reply content = %q, want %q", reply.Content, "Hello, world")
	}
	if reply.Phase() != PhaseSettled {
		t.Errorf("Reply phase = %v, want PhaseSettled", reply.Phase())
	}
	if reply.Metadata.Model != "mira-1" || reply.Metadata.LatencyMs != 42 {
		t.Errorf("Reply metadata = %+v", reply.Metadata)
	}
}

func TestSettleErrorKeepsFailedPlaceholder(t *testing.T) {
	s := NewStore()
	res := s.BeginSend("", ModeGeneralChat, nil, "q", nil)

	if !s.SettleError(res.ConversationID, res.Token, "connection refused") {
		t.Fatal("SettleError was dropped")
	}
	msgs := s.Messages(res.ConversationID)
	if len(msgs) != 2 {
		t.Fatalf("Expected user message and failed placeholder, got %d messages", len(msgs))
	}
	reply := msgs[1]
	if reply.Phase() != PhaseFailed {
		t.Errorf("Reply phase = %v, want PhaseFailed", reply.Phase())
	}
	if c := s.Get(res.ConversationID); c.Err != "connection refused" {
		t.Errorf("Conversation error = %q", c.Err)
	}

	// The user message remains so its content can be recovered by editing.
	if msgs[0].Role != RoleUser || msgs[0].Content != "q" {
		t.Errorf("User message lost after failure: %+v", msgs[0])
	}
}

func TestResendEditedReplacesDownstream(t *testing.T) {
	s := NewStore()
	res := s.BeginSend("", ModeGeneralChat, nil, "original question", nil)
	s.ApplyChunk(res.ConversationID, res.Token, "old answer", StatusResponding)
	s.SettleSuccess(res.ConversationID, res.Token, "mira-1", 5)

	msgs := s.Messages(res.ConversationID)
	edited, ok := s.ResendEdited(res.ConversationID, msgs[0].ID, "better question")
	if !ok {
		t.Fatal("ResendEdited refused a user message")
	}
	if edited.Token == res.Token {
		t.Error("Expected ResendEdited to bump the stream token")
	}

	after := s.Messages(res.ConversationID)
	if len(after) != 2 {
		t.Fatalf("Expected edited message plus placeholder, got %d messages", len(after))
	}
	if after[0].Content != "better question" {
		t.Errorf("Edited content = %q", after[0].Content)
	}
	if after[0].ID == msgs[0].ID {
		t.Error("Edited message should carry a fresh ID")
	}
	if after[1].Role != RoleAssistant || after[1].Phase() != PhasePending {
		t.Errorf("Expected fresh placeholder, got %+v", after[1])
	}

	// The superseded stream must not resurrect the old answer.
	if s.ApplyChunk(res.ConversationID, res.Token, "zombie", "") {
		t.Error("Superseded stream chunk was applied")
	}
}

func TestResendEditedPreservesAttachments(t *testing.T) {
	s := NewStore()
	files := []Attachment{{ID: "att-1", Name: "notes.txt", Size: 64, MimeType: "text/plain"}}
	res := s.BeginSend("", ModeGeneralChat, nil, "read this", files)
	s.ApplyChunk(res.ConversationID, res.Token, "done", "")
	s.SettleSuccess(res.ConversationID, res.Token, "mira-1", 5)

	redo, ok := s.ResendEdited(res.ConversationID, res.UserMessageID, "read this instead")
	if !ok {
		t.Fatal("ResendEdited refused a user message")
	}
	if len(redo.Attachments) != 1 || redo.Attachments[0].ID != "att-1" {
		t.Errorf("Result attachments = %+v, want the original file", redo.Attachments)
	}
	msgs := s.Messages(res.ConversationID)
	if len(msgs[0].AttachedFiles) != 1 || msgs[0].AttachedFiles[0].ID != "att-1" {
		t.Errorf("Replacement message attachments = %+v", msgs[0].AttachedFiles)
	}
}

func TestResendEditedRejectsAssistantMessage(t *testing.T) {
	s := NewStore()
	res := s.BeginSend("", ModeGeneralChat, nil, "q", nil)
	s.SettleSuccess(res.ConversationID, res.Token, "mira-1", 1)

	msgs := s.Messages(res.ConversationID)
	if _, ok := s.ResendEdited(res.ConversationID, msgs[1].ID, "nope"); ok {
		t.Error("ResendEdited accepted an assistant message")
	}
	if _, ok := s.ResendEdited(res.ConversationID, "missing", "nope"); ok {
		t.Error("ResendEdited accepted an unknown message ID")
	}
}

func TestTruncateAfter(t *testing.T) {
	s := NewStore()
	res := s.BeginSend("", ModeGeneralChat, nil, "one", nil)
	s.SettleSuccess(res.ConversationID, res.Token, "m", 1)
	res2 := s.BeginSend(res.ConversationID, ModeGeneralChat, nil, "two", nil)
	s.SettleSuccess(res.ConversationID, res2.Token, "m", 1)

	msgs := s.Messages(res.ConversationID)
	if len(msgs) != 4 {
		t.Fatalf("Setup expected 4 messages, got %d", len(msgs))
	}

	removed := s.TruncateAfter(res.ConversationID, msgs[1].ID)
	if removed != 2 {
		t.Errorf("TruncateAfter removed %d, want 2", removed)
	}
	if got := len(s.Messages(res.ConversationID)); got != 2 {
		t.Errorf("Messages after truncate = %d, want 2", got)
	}

	if s.TruncateAfter(res.ConversationID, "missing") != 0 {
		t.Error("TruncateAfter with unknown message should remove nothing")
	}
	if s.TruncateAfter("missing", msgs[0].ID) != 0 {
		t.Error("TruncateAfter with unknown conversation should remove nothing")
	}
}

func TestSetActiveUnknownIsNoOp(t *testing.T) {
	s := NewStore()
	res := s.BeginSend("", ModeGeneralChat, nil, "q", nil)

	if s.SetActive("does-not-exist") {
		t.Error("SetActive accepted an unknown ID")
	}
	if got := s.ActiveID(); got != res.ConversationID {
		t.Errorf("Active changed to %q after failed SetActive", got)
	}
}

func TestNewConversationDeactivates(t *testing.T) {
	s := NewStore()
	res := s.BeginSend("", ModeGeneralChat, nil, "q", nil)

	s.NewConversation()
	if got := s.ActiveID(); got != "" {
		t.Errorf("Active = %q after NewConversation, want empty", got)
	}
	if s.Get(res.ConversationID) == nil {
		t.Error("NewConversation deleted the previous conversation")
	}
}

func TestDeleteActiveClearsActive(t *testing.T) {
	s := NewStore()
	res := s.BeginSend("", ModeGeneralChat, nil, "q", nil)

	s.Delete(res.ConversationID)
	if s.ActiveID() != "" {
		t.Error("Active not cleared after deleting active conversation")
	}
	if s.Get(res.ConversationID) != nil {
		t.Error("Conversation still present after Delete")
	}
}

func TestClearPreservesIdentity(t *testing.T) {
	s := NewStore()
	cctx := &Context{AppID: "app-1", ScreenID: "screen-2"}
	res := s.BeginSend("", ModeErrorAnalyze, cctx, "q", nil)

	s.Clear(res.ConversationID)
	c := s.Get(res.ConversationID)
	if c == nil {
		t.Fatal("Clear deleted the conversation")
	}
	if len(c.Messages) != 0 {
		t.Errorf("Messages after Clear = %d, want 0", len(c.Messages))
	}
	if c.Mode != ModeErrorAnalyze || c.Context == nil || c.Context.AppID != "app-1" {
		t.Errorf("Clear lost mode or context: %+v", c)
	}

	// Streams from before the clear are dead.
	if s.ApplyChunk(res.ConversationID, res.Token, "late", "") {
		t.Error("Chunk from before Clear was applied")
	}
}

func TestMergePageIsIdempotent(t *testing.T) {
	s := NewStore()
	res := s.BeginSend("", ModeGeneralChat, nil, "local", nil)

	page := []Conversation{
		{ID: res.ConversationID, Title: "server copy", UpdatedAt: time.Now()},
		{ID: "remote-1", Title: "Remote one", UpdatedAt: time.Now()},
		{ID: "remote-2", Title: "Remote two", UpdatedAt: time.Now()},
	}
	if added := s.MergePage(page); added != 2 {
		t.Errorf("First merge added %d, want 2", added)
	}
	if added := s.MergePage(page); added != 0 {
		t.Errorf("Second merge added %d, want 0", added)
	}

	// The locally known conversation keeps its local state.
	if c := s.Get(res.ConversationID); len(c.Messages) != 2 {
		t.Errorf("Merge clobbered local messages: %d", len(c.Messages))
	}
	if s.Len() != 3 {
		t.Errorf("Store has %d conversations, want 3", s.Len())
	}
}

func TestListOrdersByRecency(t *testing.T) {
	s := NewStore()
	old := Conversation{ID: "old", UpdatedAt: time.Now().Add(-time.Hour)}
	mid := Conversation{ID: "mid", UpdatedAt: time.Now().Add(-time.Minute)}
	s.MergePage([]Conversation{old, mid})
	res := s.BeginSend("", ModeGeneralChat, nil, "newest", nil)

	list := s.List()
	if len(list) != 3 {
		t.Fatalf("List length = %d, want 3", len(list))
	}
	if list[0].ID != res.ConversationID || list[1].ID != "mid" || list[2].ID != "old" {
		t.Errorf("List order = %s, %s, %s", list[0].ID, list[1].ID, list[2].ID)
	}
}

func TestSnapshotsAreCopies(t *testing.T) {
	s := NewStore()
	res := s.BeginSend("", ModeGeneralChat, nil, "q", nil)

	snap := s.Messages(res.ConversationID)
	snap[0].Content = "mutated"

	if got := s.Messages(res.ConversationID)[0].Content; got != "q" {
		t.Errorf("Store content = %q, snapshot mutation leaked", got)
	}

	c := s.Get(res.ConversationID)
	c.Messages[0].Content = "mutated again"
	if got := s.Messages(res.ConversationID)[0].Content; got != "q" {
		t.Errorf("Store content = %q, conversation snapshot mutation leaked", got)
	}
}

func TestUpdateTitle(t *testing.T) {
	s := NewStore()
	res := s.BeginSend("", ModeGeneralChat, nil, "how do I export?", nil)

	if !s.UpdateTitle(res.ConversationID, "Export help") {
		t.Fatal("UpdateTitle failed for known conversation")
	}
	if got := s.Get(res.ConversationID).DisplayTitle(); got != "Export help" {
		t.Errorf("DisplayTitle = %q, want explicit title", got)
	}
	if s.UpdateTitle("missing", "x") {
		t.Error("UpdateTitle accepted an unknown ID")
	}
}

func TestErrorLifecycle(t *testing.T) {
	s := NewStore()
	res := s.BeginSend("", ModeGeneralChat, nil, "q", nil)
	s.SettleError(res.ConversationID, res.Token, "timeout")

	if c := s.Get(res.ConversationID); c.Err != "timeout" {
		t.Fatalf("Err = %q, want timeout", c.Err)
	}
	s.ClearError(res.ConversationID)
	if c := s.Get(res.ConversationID); c.Err != "" {
		t.Errorf("Err = %q after ClearError", c.Err)
	}

	// A fresh send also clears the stale error.
	s.SettleError(res.ConversationID, s.CurrentToken(res.ConversationID), "again")
	s.BeginSend(res.ConversationID, ModeGeneralChat, nil, "retry", nil)
	if c := s.Get(res.ConversationID); c.Err != "" {
		t.Errorf("Err = %q after new send, want empty", c.Err)
	}
}
