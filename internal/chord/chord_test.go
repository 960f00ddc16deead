package chord

import (
	"testing"
	"time"

	"github.com/vemikrs/mira/internal/keys"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestDecode_PlainBindings(t *testing.T) {
	tests := []struct {
		name string
		ev   Event
		want Command
	}{
		{"question mark shows help", Event{Key: "?", Now: t0}, ShowHelp},
		{"n focuses input", Event{Key: "n", Now: t0}, FocusInput},
		{"j navigates next", Event{Key: "j", Now: t0}, NavigateNext},
		{"k navigates prev", Event{Key: "k", Now: t0}, NavigatePrev},
		{"unbound key", Event{Key: "z", Now: t0}, None},
		{"copy with selection", Event{Key: "c", HasSelection: true, Now: t0}, CopySelected},
		{"copy without selection", Event{Key: "c", Now: t0}, None},
		{"edit user message", Event{Key: "e", HasSelection: true, SelectedRoleUser: true, Now: t0}, EditSelected},
		{"edit assistant message", Event{Key: "e", HasSelection: true, SelectedRoleUser: false, Now: t0}, None},
		{"edit without selection", Event{Key: "e", Now: t0}, None},
		{"escape with selection", Event{Key: keys.Escape, HasSelection: true, Now: t0}, Dismiss},
		{"escape without selection", Event{Key: keys.Escape, Now: t0}, None},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &State{}
			if got := Decode(tt.ev, st); got != tt.want {
				t.Errorf("Decode(%q) = %v, want %v", tt.ev.Key, got, tt.want)
			}
		})
	}
}

func TestDecode_GlobalShortcutsFireInTextInput(t *testing.T) {
	// Scenario: Ctrl+Shift+H while a textarea has focus still toggles the sidebar.
	tests := []struct {
		key  string
		want Command
	}{
		{keys.CtrlShiftH, ToggleSidebar},
		{keys.CtrlK, OpenSearch},
		{keys.CtrlShiftO, NewConversation},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			st := &State{}
			ev := Event{Key: tt.key, InTextInput: true, Now: t0}
			if got := Decode(ev, st); got != tt.want {
				t.Errorf("Decode(%q, in input) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestDecode_PlainKeysSuppressedInTextInput(t *testing.T) {
	for _, key := range []string{"?", "n", "j", "k", "g", "e", "c"} {
		st := &State{}
		ev := Event{Key: key, InTextInput: true, HasSelection: true, SelectedRoleUser: true, Now: t0}
		if got := Decode(ev, st); got != None {
			t.Errorf("Decode(%q, in input) = %v, want None", key, got)
		}
		if _, armed := st.Pending(t0); armed {
			t.Errorf("Decode(%q, in input) should not arm a chord", key)
		}
	}
}

func TestDecode_ChordWithinTimeout(t *testing.T) {
	st := &State{}

	if got := Decode(Event{Key: "g", Now: t0}, st); got != None {
		t.Fatalf("first g = %v, want None", got)
	}
	if lead, ok := st.Pending(t0); !ok || lead != "g" {
		t.Fatal("first g should arm the chord")
	}

	got := Decode(Event{Key: "g", Now: t0.Add(200 * time.Millisecond)}, st)
	if got != NavigateFirst {
		t.Errorf("gg within timeout = %v, want NavigateFirst", got)
	}
	if _, ok := st.Pending(t0.Add(200 * time.Millisecond)); ok {
		t.Error("chord should be cleared after resolution")
	}
}

func TestDecode_ChordGE(t *testing.T) {
	// Scenario: rapid g,e within 200 ms jumps to the last message even with
	// no prior selection.
	st := &State{}
	Decode(Event{Key: "g", Now: t0}, st)
	got := Decode(Event{Key: "e", Now: t0.Add(200 * time.Millisecond)}, st)
	if got != NavigateLast {
		t.Errorf("ge within timeout = %v, want NavigateLast", got)
	}
}

func TestDecode_ChordTimeoutExpiry(t *testing.T) {
	// g, wait 600 ms, g: two independent no-chord resolutions; the second g
	// simply arms a new pending chord.
	st := &State{}

	if got := Decode(Event{Key: "g", Now: t0}, st); got != None {
		t.Fatalf("first g = %v, want None", got)
	}

	late := t0.Add(600 * time.Millisecond)
	if got := Decode(Event{Key: "g", Now: late}, st); got != None {
		t.Errorf("late g = %v, want None (new chord armed)", got)
	}
	if lead, ok := st.Pending(late); !ok || lead != "g" {
		t.Error("late g should arm a fresh chord")
	}

	// And completing the fresh chord still works.
	if got := Decode(Event{Key: "g", Now: late.Add(100 * time.Millisecond)}, st); got != NavigateFirst {
		t.Error("fresh chord should resolve to NavigateFirst")
	}
}

func TestDecode_ChordUnmatchedSecondKey(t *testing.T) {
	// An unmatched second key clears the chord and decodes normally.
	st := &State{}
	Decode(Event{Key: "g", Now: t0}, st)

	got := Decode(Event{Key: "j", Now: t0.Add(100 * time.Millisecond)}, st)
	if got != NavigateNext {
		t.Errorf("g then j = %v, want NavigateNext", got)
	}
	if _, ok := st.Pending(t0.Add(100 * time.Millisecond)); ok {
		t.Error("chord should be cleared by unmatched second key")
	}
}

func TestDecode_EAfterExpiredChordIsEdit(t *testing.T) {
	// After the chord expires, e reverts to its single-key meaning.
	st := &State{}
	Decode(Event{Key: "g", Now: t0}, st)

	late := t0.Add(700 * time.Millisecond)
	ev := Event{Key: "e", HasSelection: true, SelectedRoleUser: true, Now: late}
	if got := Decode(ev, st); got != EditSelected {
		t.Errorf("e after expired chord = %v, want EditSelected", got)
	}
}

func TestDecode_GlobalClearsPendingChord(t *testing.T) {
	st := &State{}
	Decode(Event{Key: "g", Now: t0}, st)
	Decode(Event{Key: keys.CtrlShiftH, Now: t0.Add(100 * time.Millisecond)}, st)

	if _, ok := st.Pending(t0.Add(100 * time.Millisecond)); ok {
		t.Error("global shortcut should clear a pending chord")
	}
}

func TestRegistry_CategoriesKnown(t *testing.T) {
	known := make(map[string]bool)
	for _, c := range CategoryOrder {
		known[c] = true
	}
	for _, b := range Registry {
		if !known[b.Category] {
			t.Errorf("binding %q has unknown category %q", b.Key, b.Category)
		}
	}
	for _, b := range DisplayOnly {
		if !known[b.Category] {
			t.Errorf("display-only binding %q has unknown category %q", b.DisplayKey, b.Category)
		}
	}
}
