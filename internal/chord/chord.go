// Package chord decodes raw key press events into discrete conversation
// commands, including two-key sequences like "gg" and "ge" resolved within
// a fixed time window.
//
// Decoding is pure given the event and chord state snapshot: the only side
// effect is updating the pending-chord fields on State. This keeps the
// timeout logic unit-testable without a running Bubble Tea program.
package chord

import (
	"time"

	"github.com/vemikrs/mira/internal/keys"
)

// Timeout is how long a pending lead key stays armed. A lead key older than
// this is treated as "no chord in progress".
const Timeout = 500 * time.Millisecond

// Command is a decoded high-level action.
type Command int

const (
	None Command = iota
	NavigateNext
	NavigatePrev
	NavigateFirst
	NavigateLast
	FocusInput
	ToggleSidebar
	OpenSearch
	NewConversation
	ShowHelp
	CopySelected
	EditSelected
	Dismiss
)

// String returns a human-readable name for the command
func (c Command) String() string {
	switch c {
	case NavigateNext:
		return "NavigateNext"
	case NavigatePrev:
		return "NavigatePrev"
	case NavigateFirst:
		return "NavigateFirst"
	case NavigateLast:
		return "NavigateLast"
	case FocusInput:
		return "FocusInput"
	case ToggleSidebar:
		return "ToggleSidebar"
	case OpenSearch:
		return "OpenSearch"
	case NewConversation:
		return "NewConversation"
	case ShowHelp:
		return "ShowHelp"
	case CopySelected:
		return "CopySelected"
	case EditSelected:
		return "EditSelected"
	case Dismiss:
		return "Dismiss"
	default:
		return "None"
	}
}

// Event is a single key press plus the focus/selection context needed to
// resolve guards. Key is the Bubble Tea key string (e.g. "g", "ctrl+shift+h").
type Event struct {
	Key              string
	InTextInput      bool   // a text input or textarea currently has focus
	HasSelection     bool   // a message is currently selected
	SelectedRoleUser bool   // the selected message has the user role
	Now              time.Time
}

// State holds the pending chord, if any. Zero value means no chord armed.
type State struct {
	pendingKey string
	pendingAt  time.Time
}

// Pending returns the armed lead key, or false if none is armed or the
// armed key has expired relative to now.
func (s *State) Pending(now time.Time) (string, bool) {
	if s.pendingKey == "" {
		return "", false
	}
	if now.Sub(s.pendingAt) > Timeout {
		return "", false
	}
	return s.pendingKey, true
}

// Clear drops any pending chord.
func (s *State) Clear() {
	s.pendingKey = ""
	s.pendingAt = time.Time{}
}

func (s *State) arm(key string, now time.Time) {
	s.pendingKey = key
	s.pendingAt = now
}

// Binding describes a single key binding. The registry below is the single
// source of truth for bindings: the decoder resolves against it and the help
// modal renders from it.
type Binding struct {
	Key               string
	Command           Command
	DisplayKey        string // Display name in help; defaults to Key
	Description       string
	Category          string
	Global            bool // Fires even while a text input has focus
	RequiresSelection bool // Must have a message selected
	RequiresUserRole  bool // Selected message must have the user role
}

// Categories for organizing bindings in the help modal
const (
	CategoryNavigation    = "Navigation"
	CategoryConversations = "Conversations"
	CategoryMessages      = "Messages (when selected)"
	CategoryGeneral       = "General"
)

// CategoryOrder defines the display order of categories in the help modal
var CategoryOrder = []string{
	CategoryNavigation,
	CategoryConversations,
	CategoryMessages,
	CategoryGeneral,
}

// Registry is the central registry of key bindings. Order within the slice
// does not affect decode priority; global bindings always win, then plain
// bindings apply only outside text inputs.
var Registry = []Binding{
	// Global (fire regardless of focus, including inside the composer)
	{
		Key:         keys.CtrlShiftH,
		Command:     ToggleSidebar,
		DisplayKey:  "ctrl+shift+h",
		Description: "Toggle sidebar",
		Category:    CategoryGeneral,
		Global:      true,
	},
	{
		Key:         keys.CtrlK,
		Command:     OpenSearch,
		DisplayKey:  "ctrl+k",
		Description: "Search conversations",
		Category:    CategoryConversations,
		Global:      true,
	},
	{
		Key:         keys.CtrlShiftO,
		Command:     NewConversation,
		DisplayKey:  "ctrl+shift+o",
		Description: "New conversation",
		Category:    CategoryConversations,
		Global:      true,
	},

	// Plain keys (suppressed while typing)
	{Key: "?", Command: ShowHelp, Description: "Show this help", Category: CategoryGeneral},
	{Key: "n", Command: FocusInput, Description: "Focus message input", Category: CategoryNavigation},
	{Key: "j", Command: NavigateNext, Description: "Select next message", Category: CategoryNavigation},
	{Key: "k", Command: NavigatePrev, Description: "Select previous message", Category: CategoryNavigation},
	{
		Key:               "e",
		Command:           EditSelected,
		Description:       "Edit selected message",
		Category:          CategoryMessages,
		RequiresSelection: true,
		RequiresUserRole:  true,
	},
	{
		Key:               "c",
		Command:           CopySelected,
		Description:       "Copy selected message",
		Category:          CategoryMessages,
		RequiresSelection: true,
	},
	{
		Key:               keys.Escape,
		Command:           Dismiss,
		DisplayKey:        "esc",
		Description:       "Clear selection",
		Category:          CategoryMessages,
		RequiresSelection: true,
	},
}

// DisplayOnly lists chord sequences shown in the help modal but resolved by
// the decoder itself rather than by registry lookup.
var DisplayOnly = []Binding{
	{DisplayKey: "g g", Description: "Jump to first message", Category: CategoryNavigation},
	{DisplayKey: "g e", Description: "Jump to last message", Category: CategoryNavigation},
}

// chordLead is the lead key that arms two-key sequences.
const chordLead = "g"

// Decode resolves a key event against the registry and chord state.
//
// Priority: global bindings fire first and always consume the event. All
// remaining bindings are suppressed while a text input has focus. A pending
// "g" chord is resolved (or cleared) before single-key bindings apply.
// Unmatched keys yield None and must not suppress default behavior.
func Decode(ev Event, st *State) Command {
	// 1. Modifier-qualified global shortcuts, regardless of focus.
	for _, b := range Registry {
		if b.Global && b.Key == ev.Key {
			st.Clear()
			return b.Command
		}
	}

	// 2. Everything else is suppressed while typing.
	if ev.InTextInput {
		return None
	}

	// 3. Pending chord resolution. The chord is cleared after resolution,
	// successful or not; an expired lead is treated as never armed.
	if lead, ok := st.Pending(ev.Now); ok && lead == chordLead {
		st.Clear()
		switch ev.Key {
		case "g":
			return NavigateFirst
		case "e":
			return NavigateLast
		}
		// Unmatched second key falls through to normal decoding.
	} else if !ok {
		st.Clear()
	}

	// 4. Arm a new chord.
	if ev.Key == chordLead {
		st.arm(chordLead, ev.Now)
		return None
	}

	// 5. Plain bindings with guards. A guard failure yields None rather than
	// falling through to another binding.
	for _, b := range Registry {
		if b.Global || b.Key != ev.Key {
			continue
		}
		if b.RequiresSelection && !ev.HasSelection {
			return None
		}
		if b.RequiresUserRole && !ev.SelectedRoleUser {
			return None
		}
		return b.Command
	}

	return None
}
