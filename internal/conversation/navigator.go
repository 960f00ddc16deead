package conversation

// NoSelection is the navigator's cursor value when nothing is selected.
const NoSelection = -1

// Navigator is the message selection cursor for the active conversation.
// It holds an index, not a message ID, and clamps every move to the current
// transcript length, so it never needs to observe mutations directly.
type Navigator struct {
	cursor int
}

// NewNavigator returns a navigator with no selection.
func NewNavigator() *Navigator {
	return &Navigator{cursor: NoSelection}
}

// Selected returns the selected index, or NoSelection.
func (n *Navigator) Selected() int {
	return n.cursor
}

// HasSelection reports whether a message is selected.
func (n *Navigator) HasSelection() bool {
	return n.cursor != NoSelection
}

// Next moves the cursor one message down, clamped to the last message.
// With no selection it starts at the first message. Reports whether the
// cursor changed.
func (n *Navigator) Next(length int) bool {
	if length == 0 {
		return false
	}
	prev := n.cursor
	if n.cursor == NoSelection {
		n.cursor = 0
	} else if n.cursor < length-1 {
		n.cursor++
	}
	n.clamp(length)
	return n.cursor != prev
}

// Prev moves the cursor one message up, clamped to the first message.
// With no selection it starts at the first message, mirroring Next.
func (n *Navigator) Prev(length int) bool {
	if length == 0 {
		return false
	}
	prev := n.cursor
	if n.cursor > 0 {
		n.cursor--
	} else {
		n.cursor = 0
	}
	n.clamp(length)
	return n.cursor != prev
}

// First jumps to the first message.
func (n *Navigator) First(length int) bool {
	if length == 0 {
		return false
	}
	prev := n.cursor
	n.cursor = 0
	return n.cursor != prev
}

// Last jumps to the last message.
func (n *Navigator) Last(length int) bool {
	if length == 0 {
		return false
	}
	prev := n.cursor
	n.cursor = length - 1
	return n.cursor != prev
}

// Clear drops the selection.
func (n *Navigator) Clear() {
	n.cursor = NoSelection
}

// Sync revalidates the cursor after the transcript changed length, for
// example after a truncating edit. A cursor past the end no longer points
// at the message the user selected, so the selection is dropped rather
// than moved.
func (n *Navigator) Sync(length int) {
	if n.cursor == NoSelection {
		return
	}
	if n.cursor >= length {
		n.cursor = NoSelection
	}
}

func (n *Navigator) clamp(length int) {
	if length == 0 {
		n.cursor = NoSelection
		return
	}
	if n.cursor >= length {
		n.cursor = length - 1
	}
	if n.cursor < 0 {
		n.cursor = 0
	}
}
