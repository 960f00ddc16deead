package ui

import (
	"fmt"
	"strings"

	"charm.land/bubbles/v2/textarea"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	huh "charm.land/huh/v2"
	"charm.land/lipgloss/v2"

	"github.com/vemikrs/mira/internal/chord"
	"github.com/vemikrs/mira/internal/conversation"
	"github.com/vemikrs/mira/internal/keys"
)

// ModalState is a discriminated union interface for modal-specific state.
// Each modal type implements this interface with its own state struct,
// ensuring type-safe access to modal-specific fields.
type ModalState interface {
	modalState() // marker method to restrict implementations
	Title() string
	Help() string
	Render() string
	Update(msg tea.Msg) (ModalState, tea.Cmd)
}

// Modal represents a popup dialog with type-safe state management.
// The State field is nil when no modal is visible.
type Modal struct {
	State ModalState
	error string
}

// NewModal creates a new modal
func NewModal() *Modal {
	return &Modal{}
}

// Show displays a modal with the given state
func (m *Modal) Show(state ModalState) {
	m.State = state
	m.error = ""
}

// Hide hides the modal
func (m *Modal) Hide() {
	m.State = nil
	m.error = ""
}

// IsVisible returns whether the modal is visible
func (m *Modal) IsVisible() bool {
	return m.State != nil
}

// SetError sets an error message
func (m *Modal) SetError(err string) {
	m.error = err
}

// Update handles messages by delegating to the current state
func (m *Modal) Update(msg tea.Msg) (*Modal, tea.Cmd) {
	if m.State == nil {
		return m, nil
	}
	var cmd tea.Cmd
	m.State, cmd = m.State.Update(msg)
	return m, cmd
}

// View renders the modal centered on the screen
func (m *Modal) View(screenWidth, screenHeight int) string {
	if m.State == nil {
		return ""
	}

	content := m.State.Render()
	if m.error != "" {
		content += "\n" + StatusErrorStyle.Render(m.error)
	}

	return lipgloss.Place(
		screenWidth, screenHeight,
		lipgloss.Center, lipgloss.Center,
		ModalStyle.Render(content),
	)
}

// =============================================================================
// EditMessageState - State for editing an earlier user message
// =============================================================================

type EditMessageState struct {
	ConversationID string
	MessageID      string
	Input          textarea.Model
}

func (*EditMessageState) modalState() {}

func (s *EditMessageState) Title() string { return "Edit Message" }

func (s *EditMessageState) Help() string {
	return "Enter: resend  Esc: cancel"
}

func (s *EditMessageState) Render() string {
	title := ModalTitleStyle.Render(s.Title())
	note := lipgloss.NewStyle().
		Foreground(ColorTextMuted).
		Render("Resending will regenerate everything after this message.")
	help := ModalHelpStyle.Render(s.Help())
	return lipgloss.JoinVertical(lipgloss.Left, title, s.Input.View(), note, help)
}

func (s *EditMessageState) Update(msg tea.Msg) (ModalState, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyPressMsg); ok {
		switch keyMsg.String() {
		case keys.Enter, keys.Escape:
			return s, nil
		}
	}
	var cmd tea.Cmd
	s.Input, cmd = s.Input.Update(msg)
	return s, cmd
}

// NewEditMessageState creates the edit modal pre-filled with the message's
// current content.
func NewEditMessageState(conversationID, messageID, content string) *EditMessageState {
	ti := textarea.New()
	ti.CharLimit = 0
	ti.SetHeight(5)
	ti.SetWidth(ModalInputWidth)
	ti.ShowLineNumbers = false
	ti.Prompt = ""
	ti.SetValue(content)
	ti.Focus()

	return &EditMessageState{
		ConversationID: conversationID,
		MessageID:      messageID,
		Input:          ti,
	}
}

// Value returns the edited draft.
func (s *EditMessageState) Value() string {
	return strings.TrimSpace(s.Input.Value())
}

// =============================================================================
// ConfirmTruncateState - Confirmation before a destructive edit resend
// =============================================================================

type ConfirmTruncateState struct {
	ConversationID string
	MessageID      string
	Draft          string
	AffectedCount  int
}

func (*ConfirmTruncateState) modalState() {}

func (s *ConfirmTruncateState) Title() string { return "Resend Edited Message?" }

func (s *ConfirmTruncateState) Help() string {
	return "y/Enter: resend  n/Esc: cancel"
}

func (s *ConfirmTruncateState) Render() string {
	title := ModalTitleStyle.Render(s.Title())
	noun := "messages"
	if s.AffectedCount == 1 {
		noun = "message"
	}
	warning := ModalWarningStyle.Render(
		fmt.Sprintf("⚠ This will discard %d later %s and regenerate the reply.", s.AffectedCount, noun))
	help := ModalHelpStyle.Render(s.Help())
	return lipgloss.JoinVertical(lipgloss.Left, title, warning, help)
}

func (s *ConfirmTruncateState) Update(msg tea.Msg) (ModalState, tea.Cmd) {
	return s, nil
}

// =============================================================================
// ConfirmDeleteState - Confirmation before deleting a conversation
// =============================================================================

type ConfirmDeleteState struct {
	ConversationID string
	DisplayTitle   string
}

func (*ConfirmDeleteState) modalState() {}

func (s *ConfirmDeleteState) Title() string { return "Delete Conversation?" }

func (s *ConfirmDeleteState) Help() string {
	return "y/Enter: delete  n/Esc: cancel"
}

func (s *ConfirmDeleteState) Render() string {
	title := ModalTitleStyle.Render(s.Title())
	body := lipgloss.NewStyle().
		Foreground(ColorText).
		Render(fmt.Sprintf("%q and its messages will be removed.", s.DisplayTitle))
	help := ModalHelpStyle.Render(s.Help())
	return lipgloss.JoinVertical(lipgloss.Left, title, body, help)
}

func (s *ConfirmDeleteState) Update(msg tea.Msg) (ModalState, tea.Cmd) {
	return s, nil
}

// =============================================================================
// RenameState - State for renaming a conversation
// =============================================================================

type RenameState struct {
	ConversationID string
	Input          textinput.Model
}

func (*RenameState) modalState() {}

func (s *RenameState) Title() string { return "Rename Conversation" }

func (s *RenameState) Help() string {
	return "Enter: save  Esc: cancel"
}

func (s *RenameState) Render() string {
	title := ModalTitleStyle.Render(s.Title())
	help := ModalHelpStyle.Render(s.Help())
	return lipgloss.JoinVertical(lipgloss.Left, title, s.Input.View(), help)
}

func (s *RenameState) Update(msg tea.Msg) (ModalState, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyPressMsg); ok {
		switch keyMsg.String() {
		case keys.Enter, keys.Escape:
			return s, nil
		}
	}
	var cmd tea.Cmd
	s.Input, cmd = s.Input.Update(msg)
	return s, cmd
}

// NewRenameState creates the rename modal pre-filled with the current title.
func NewRenameState(conversationID, currentTitle string) *RenameState {
	ti := textinput.New()
	ti.CharLimit = ModalInputCharLimit
	ti.SetWidth(ModalInputWidth)
	ti.SetValue(currentTitle)
	ti.Focus()
	ti.CursorEnd()

	return &RenameState{
		ConversationID: conversationID,
		Input:          ti,
	}
}

// Value returns the entered title.
func (s *RenameState) Value() string {
	return strings.TrimSpace(s.Input.Value())
}

// =============================================================================
// ModePickerState - State for switching a conversation's assistance mode
// =============================================================================

type ModePickerState struct {
	ConversationID string
	SelectedIdx    int
}

func (*ModePickerState) modalState() {}

func (s *ModePickerState) Title() string { return "Conversation Mode" }

func (s *ModePickerState) Help() string {
	return "↑/↓: choose  Enter: apply  Esc: cancel"
}

func (s *ModePickerState) Render() string {
	title := ModalTitleStyle.Render(s.Title())

	var list strings.Builder
	for i, mode := range conversation.Modes {
		style := SidebarItemStyle
		prefix := "  "
		if i == s.SelectedIdx {
			style = SidebarSelectedStyle
			prefix = "> "
		}
		list.WriteString(style.Render(prefix+mode.Label()) + "\n")
	}

	help := ModalHelpStyle.Render(s.Help())
	return lipgloss.JoinVertical(lipgloss.Left, title, strings.TrimRight(list.String(), "\n"), help)
}

func (s *ModePickerState) Update(msg tea.Msg) (ModalState, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyPressMsg); ok {
		switch keyMsg.String() {
		case keys.Up:
			if s.SelectedIdx > 0 {
				s.SelectedIdx--
			}
		case keys.Down:
			if s.SelectedIdx < len(conversation.Modes)-1 {
				s.SelectedIdx++
			}
		}
	}
	return s, nil
}

// Selected returns the highlighted mode.
func (s *ModePickerState) Selected() conversation.Mode {
	return conversation.Modes[s.SelectedIdx]
}

// NewModePickerState creates the mode picker with the current mode
// highlighted.
func NewModePickerState(conversationID string, current conversation.Mode) *ModePickerState {
	idx := 0
	for i, m := range conversation.Modes {
		if m == current {
			idx = i
			break
		}
	}
	return &ModePickerState{ConversationID: conversationID, SelectedIdx: idx}
}

// =============================================================================
// WelcomeState - State for the first-time user welcome modal
// =============================================================================

type WelcomeState struct{}

func (*WelcomeState) modalState() {}

func (s *WelcomeState) Title() string { return "Welcome to Mira!" }

func (s *WelcomeState) Help() string {
	return "Press Enter or Esc to continue"
}

func (s *WelcomeState) Render() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorSecondary).
		MarginBottom(1).
		Render(s.Title())

	intro := lipgloss.NewStyle().
		Foreground(ColorText).
		Width(50).
		Render("Mira is your AI assistant. Ask anything, edit and resend earlier messages, and keep every conversation within keyboard reach.")

	gettingStarted := lipgloss.NewStyle().
		Foreground(ColorTextMuted).
		MarginTop(1).
		Render("Getting started:")

	shortcuts := lipgloss.NewStyle().
		Foreground(ColorText).
		Render("  enter         Send your message\n  ctrl+shift+h  Browse past conversations\n  ?             All keyboard shortcuts")

	help := ModalHelpStyle.Render(s.Help())

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		intro,
		gettingStarted,
		shortcuts,
		help,
	)
}

func (s *WelcomeState) Update(msg tea.Msg) (ModalState, tea.Cmd) {
	return s, nil
}

// NewWelcomeState creates a new WelcomeState
func NewWelcomeState() *WelcomeState {
	return &WelcomeState{}
}

// =============================================================================
// HelpState - Keyboard shortcut reference built from the chord registry
// =============================================================================

type HelpState struct{}

func (*HelpState) modalState() {}

func (s *HelpState) Title() string { return "Keyboard Shortcuts" }

func (s *HelpState) Help() string {
	return "Press Esc to close"
}

func (s *HelpState) Render() string {
	title := ModalTitleStyle.Render(s.Title())

	keyStyle := lipgloss.NewStyle().Foreground(ColorSecondary).Bold(true).Width(14)
	descStyle := lipgloss.NewStyle().Foreground(ColorText)
	catStyle := lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true).MarginTop(1)

	byCategory := make(map[string][]chord.Binding)
	for _, b := range chord.Registry {
		byCategory[b.Category] = append(byCategory[b.Category], b)
	}
	for _, b := range chord.DisplayOnly {
		byCategory[b.Category] = append(byCategory[b.Category], b)
	}

	var sb strings.Builder
	for _, cat := range chord.CategoryOrder {
		bindings := byCategory[cat]
		if len(bindings) == 0 {
			continue
		}
		sb.WriteString(catStyle.Render(cat) + "\n")
		for _, b := range bindings {
			key := b.DisplayKey
			if key == "" {
				key = b.Key
			}
			sb.WriteString(keyStyle.Render(key) + descStyle.Render(b.Description) + "\n")
		}
	}

	help := ModalHelpStyle.Render(s.Help())
	return lipgloss.JoinVertical(lipgloss.Left, title, strings.TrimRight(sb.String(), "\n"), help)
}

func (s *HelpState) Update(msg tea.Msg) (ModalState, tea.Cmd) {
	return s, nil
}

// =============================================================================
// SettingsState - huh-backed settings form
// =============================================================================

type SettingsState struct {
	form *huh.Form

	ServerURL            string
	APIToken             string
	DefaultMode          string
	Theme                string
	NotificationsEnabled bool
}

func (*SettingsState) modalState() {}

func (s *SettingsState) Title() string { return "Settings" }

func (s *SettingsState) Help() string {
	return "Up/Down: navigate  Enter: save  Esc: cancel"
}

func (s *SettingsState) Render() string {
	title := ModalTitleStyle.Render(s.Title())
	help := ModalHelpStyle.Render(s.Help())
	return lipgloss.JoinVertical(lipgloss.Left, title, s.form.View(), help)
}

func (s *SettingsState) Update(msg tea.Msg) (ModalState, tea.Cmd) {
	var cmd tea.Cmd
	s.form, cmd = huhFormUpdate(s.form, msg)
	return s, cmd
}

// NewSettingsState builds the settings form from current config values.
func NewSettingsState(serverURL, apiToken, defaultMode, theme string, notifications bool) *SettingsState {
	s := &SettingsState{
		ServerURL:            serverURL,
		APIToken:             apiToken,
		DefaultMode:          defaultMode,
		Theme:                theme,
		NotificationsEnabled: notifications,
	}

	modeOptions := make([]huh.Option[string], len(conversation.Modes))
	for i, m := range conversation.Modes {
		modeOptions[i] = huh.NewOption(m.Label(), string(m))
	}
	themeOptions := []huh.Option[string]{
		huh.NewOption("Dark", "dark"),
		huh.NewOption("Light", "light"),
	}

	s.form = huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Server URL").
			Placeholder("http://localhost:3000").
			CharLimit(ModalInputCharLimit).
			Value(&s.ServerURL),
		huh.NewInput().
			Title("API token").
			EchoMode(huh.EchoModePassword).
			CharLimit(ModalInputCharLimit).
			Value(&s.APIToken),
		huh.NewSelect[string]().
			Title("Default mode").
			Options(modeOptions...).
			Value(&s.DefaultMode),
		huh.NewSelect[string]().
			Title("Theme").
			Options(themeOptions...).
			Value(&s.Theme),
		huh.NewConfirm().
			Title("Desktop notifications").
			Affirmative("On").
			Negative("Off").
			Value(&s.NotificationsEnabled),
	)).
		WithShowHelp(false).
		WithWidth(ModalInputWidth).
		WithLayout(huh.LayoutStack)

	s.form.Init()
	return s
}

// huhFormUpdate is the common Update logic for huh-based modals.
// It intercepts Enter and Escape (handled by the app-layer modal handlers)
// and delegates everything else to the huh form.
func huhFormUpdate(form *huh.Form, msg tea.Msg) (*huh.Form, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyPressMsg); ok {
		switch keyMsg.String() {
		case keys.Enter, keys.Escape:
			return form, nil
		}
	}
	m, cmd := form.Update(msg)
	form = m.(*huh.Form)
	return form, cmd
}
