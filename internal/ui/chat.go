package ui

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"charm.land/bubbles/v2/textarea"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/vemikrs/mira/internal/conversation"
)

// thinkingVerbs cycle while waiting for the first content of a reply
var thinkingVerbs = []string{
	"Thinking",
	"Reasoning",
	"Pondering",
	"Considering",
	"Analyzing",
	"Composing",
	"Drafting",
	"Weighing",
	"Untangling",
	"Percolating",
}

// randomThinkingVerb returns a random verb from the list
func randomThinkingVerb() string {
	return thinkingVerbs[rand.Intn(len(thinkingVerbs))]
}

// Chat represents the transcript panel with its input area
type Chat struct {
	viewport viewport.Model
	input    textarea.Model
	width    int
	height   int
	focused  bool

	title    string
	mode     conversation.Mode
	messages []conversation.Message
	selected int // index into messages, -1 for none
	errText  string
	verb     string
	hasConv  bool
}

// NewChat creates a new chat panel
func NewChat() *Chat {
	ti := textarea.New()
	ti.Placeholder = "Type your message... (@file to attach)"
	ti.CharLimit = 0
	ti.SetHeight(TextareaHeight)
	ti.ShowLineNumbers = false
	ti.Prompt = ""

	vp := viewport.New()
	vp.MouseWheelEnabled = true
	vp.MouseWheelDelta = 3

	c := &Chat{
		viewport: vp,
		input:    ti,
		selected: conversation.NoSelection,
		verb:     randomThinkingVerb(),
	}
	c.updateContent()
	return c
}

// SetSize sets the chat panel dimensions
func (c *Chat) SetSize(width, height int) {
	c.width = width
	c.height = height

	viewportHeight := height - InputTotalHeight - BorderSize
	if viewportHeight < 1 {
		viewportHeight = 1
	}
	innerWidth := width - BorderSize
	if innerWidth < 1 {
		innerWidth = 1
	}

	c.viewport.SetWidth(innerWidth)
	c.viewport.SetHeight(viewportHeight)
	c.input.SetWidth(innerWidth - 2)
	c.updateContent()
}

// SetFocused sets the focus state
func (c *Chat) SetFocused(focused bool) {
	c.focused = focused
	if focused {
		c.input.Focus()
	} else {
		c.input.Blur()
	}
}

// IsFocused returns the focus state
func (c *Chat) IsFocused() bool {
	return c.focused
}

// SetConversation replaces the displayed transcript.
func (c *Chat) SetConversation(title string, mode conversation.Mode, messages []conversation.Message, errText string) {
	c.title = title
	c.mode = mode
	c.messages = messages
	c.errText = errText
	c.hasConv = true
	if !c.anyStreaming() {
		c.verb = randomThinkingVerb()
	}
	c.updateContent()
	c.viewport.GotoBottom()
}

// Refresh re-renders the transcript in place without resetting scroll.
func (c *Chat) Refresh(messages []conversation.Message, errText string) {
	wasBottom := c.viewport.AtBottom()
	c.messages = messages
	c.errText = errText
	c.updateContent()
	if wasBottom {
		c.viewport.GotoBottom()
	}
}

// ClearConversation shows the empty state.
func (c *Chat) ClearConversation() {
	c.title = ""
	c.messages = nil
	c.errText = ""
	c.selected = conversation.NoSelection
	c.hasConv = false
	c.updateContent()
}

// SetSelected sets the selected message index, or NoSelection.
func (c *Chat) SetSelected(idx int) {
	c.selected = idx
	c.updateContent()
	if idx != conversation.NoSelection {
		c.scrollToMessage(idx)
	}
}

// GetInput returns the trimmed input text
func (c *Chat) GetInput() string {
	return strings.TrimSpace(c.input.Value())
}

// ClearInput clears the input field
func (c *Chat) ClearInput() {
	c.input.Reset()
}

// SetInput sets the input field value
func (c *Chat) SetInput(value string) {
	c.input.SetValue(value)
}

func (c *Chat) anyStreaming() bool {
	for i := range c.messages {
		if c.messages[i].IsStreaming() {
			return true
		}
	}
	return false
}

// messageOffsets returns the starting line of each rendered message.
func (c *Chat) messageOffsets() []int {
	offsets := make([]int, len(c.messages))
	line := 0
	if c.errText != "" {
		line += 2
	}
	wrapWidth := c.contentWidth()
	for i := range c.messages {
		offsets[i] = line
		rendered := renderMessage(c.messages[i], false, wrapWidth, c.verb)
		line += strings.Count(rendered, "\n") + 2
	}
	return offsets
}

func (c *Chat) scrollToMessage(idx int) {
	offsets := c.messageOffsets()
	if idx < 0 || idx >= len(offsets) {
		return
	}
	c.viewport.SetYOffset(offsets[idx])
}

func (c *Chat) contentWidth() int {
	w := c.viewport.Width()
	if w <= 0 {
		w = DefaultWrapWidth
	}
	// Marker column.
	return w - 2
}

func (c *Chat) updateContent() {
	var sb strings.Builder

	if c.errText != "" {
		sb.WriteString(ErrorBannerStyle.Render("✗ " + c.errText + "  (esc to dismiss)"))
		sb.WriteString("\n\n")
	}

	switch {
	case !c.hasConv:
		sb.WriteString(c.renderEmptyState())
	case len(c.messages) == 0:
		sb.WriteString(lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Italic(true).
			Render("Ask Mira anything..."))
	default:
		wrapWidth := c.contentWidth()
		for i, msg := range c.messages {
			if i > 0 {
				sb.WriteString("\n\n")
			}
			sb.WriteString(renderMessage(msg, i == c.selected, wrapWidth, c.verb))
		}
	}

	c.viewport.SetContent(sb.String())
}

func (c *Chat) renderEmptyState() string {
	msgStyle := lipgloss.NewStyle().Foreground(ColorTextMuted)
	keyStyle := lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)

	var sb strings.Builder
	sb.WriteString(msgStyle.Italic(true).Render("No conversation selected"))
	sb.WriteString("\n\n")
	sb.WriteString(msgStyle.Render("To get started:"))
	sb.WriteString("\n")
	sb.WriteString(msgStyle.Render("  • Press "))
	sb.WriteString(keyStyle.Render("n"))
	sb.WriteString(msgStyle.Render(" to focus the input and just type"))
	sb.WriteString("\n")
	sb.WriteString(msgStyle.Render("  • Press "))
	sb.WriteString(keyStyle.Render("ctrl+shift+h"))
	sb.WriteString(msgStyle.Render(" to browse past conversations"))
	return sb.String()
}

// Update handles input and viewport messages
func (c *Chat) Update(msg tea.Msg) (*Chat, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	if c.focused {
		c.input, cmd = c.input.Update(msg)
		cmds = append(cmds, cmd)
	}
	c.viewport, cmd = c.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return c, tea.Batch(cmds...)
}

// ScrollUp scrolls the transcript up one step.
func (c *Chat) ScrollUp() { c.viewport.ScrollUp(3) }

// ScrollDown scrolls the transcript down one step.
func (c *Chat) ScrollDown() { c.viewport.ScrollDown(3) }

// View renders the chat panel
func (c *Chat) View() string {
	panelStyle := PanelStyle
	inputStyle := ChatInputStyle
	if c.focused {
		inputStyle = ChatInputFocusedStyle
	}

	title := "Mira"
	if c.hasConv && c.title != "" {
		title = fmt.Sprintf("%s  %s", c.title, SidebarMetaStyle.Render(c.mode.Label()))
	}

	transcriptHeight := c.height - InputTotalHeight
	panel := panelStyle.
		Width(c.width - BorderSize).
		Height(transcriptHeight - BorderSize).
		Render(PanelTitleStyle.Render(title) + "\n" + c.viewport.View())

	input := inputStyle.
		Width(c.width - BorderSize - 2).
		Render(c.input.View())

	return lipgloss.JoinVertical(lipgloss.Left, panel, input)
}

// StreamTick returns a command that re-randomizes the thinking verb while
// a reply is pending.
func StreamTick() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg {
		return StreamTickMsg(t)
	})
}

// StreamTickMsg is sent to refresh the waiting indicator
type StreamTickMsg time.Time

// Tick advances the waiting indicator.
func (c *Chat) Tick() {
	if c.anyStreaming() {
		c.verb = randomThinkingVerb()
		c.updateContent()
	}
}
