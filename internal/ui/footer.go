package ui

import "strings"

// footerHint is one key/description pair shown in the footer
type footerHint struct {
	key  string
	desc string
}

// FooterContext describes the state the footer hints are derived from.
type FooterContext struct {
	InputFocused   bool
	SidebarFocused bool
	HasSelection   bool
	SelectedUser   bool
	ModalOpen      bool
	Searching      bool
}

// RenderFooter renders the one-line hint bar for the current state.
func RenderFooter(width int, ctx FooterContext) string {
	var hints []footerHint

	switch {
	case ctx.ModalOpen:
		hints = []footerHint{
			{"enter", "confirm"},
			{"esc", "cancel"},
		}
	case ctx.Searching:
		hints = []footerHint{
			{"type", "filter"},
			{"enter", "open"},
			{"esc", "close search"},
		}
	case ctx.SidebarFocused:
		hints = []footerHint{
			{"↑/↓", "choose"},
			{"enter", "open"},
			{"r", "rename"},
			{"d", "delete"},
			{"ctrl+k", "search"},
			{"tab", "chat"},
		}
	case ctx.InputFocused:
		hints = []footerHint{
			{"enter", "send"},
			{"shift+enter", "newline"},
			{"esc", "leave input"},
		}
	case ctx.HasSelection:
		hints = []footerHint{
			{"j/k", "move"},
			{"c", "copy"},
		}
		if ctx.SelectedUser {
			hints = append(hints, footerHint{"e", "edit"})
		}
		hints = append(hints, footerHint{"esc", "deselect"})
	default:
		hints = []footerHint{
			{"n", "compose"},
			{"j/k", "select message"},
			{"g g/g e", "first/last"},
			{"?", "help"},
		}
	}

	var sb strings.Builder
	for i, h := range hints {
		if i > 0 {
			sb.WriteString("  ")
		}
		sb.WriteString(FooterKeyStyle.Render(h.key))
		sb.WriteString(" ")
		sb.WriteString(h.desc)
	}

	return FooterStyle.Width(width).Render(sb.String())
}
