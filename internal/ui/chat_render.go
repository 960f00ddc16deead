package ui

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/vemikrs/mira/internal/conversation"
)

// highlightCode applies syntax highlighting to code using chroma
func highlightCode(code, language string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}

	return buf.String()
}

// renderContent renders message content, highlighting fenced code blocks
// and wrapping prose to the given width.
func renderContent(content string, width int) string {
	var (
		result   strings.Builder
		codeBuf  strings.Builder
		inFence  bool
		language string
	)

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			if inFence {
				result.WriteString(strings.TrimRight(highlightCode(codeBuf.String(), language), "\n"))
				result.WriteByte('\n')
				codeBuf.Reset()
				inFence = false
			} else {
				inFence = true
				language = strings.TrimPrefix(trimmed, "```")
			}
			continue
		}
		if inFence {
			codeBuf.WriteString(line)
			codeBuf.WriteByte('\n')
			continue
		}
		result.WriteString(wrapText(line, width))
		result.WriteByte('\n')
	}
	// Unterminated fence, still streaming.
	if inFence {
		result.WriteString(strings.TrimRight(highlightCode(codeBuf.String(), language), "\n"))
		result.WriteByte('\n')
	}

	return strings.TrimRight(result.String(), "\n")
}

// roleLabel returns the styled speaker label for a message.
func roleLabel(m conversation.Message) string {
	if m.Role == conversation.RoleUser {
		return ChatUserStyle.Render("You")
	}
	return ChatAssistantStyle.Render("Mira")
}

// renderMessage renders one transcript entry. Selected messages get a
// marker column so the cursor is visible even without background support.
func renderMessage(m conversation.Message, selected bool, width int, verb string) string {
	var b strings.Builder

	marker := "  "
	if selected {
		marker = ChatAssistantStyle.Render("▌ ")
	}

	header := roleLabel(m)
	if len(m.AttachedFiles) > 0 {
		names := make([]string, len(m.AttachedFiles))
		for i, f := range m.AttachedFiles {
			names[i] = f.Name
		}
		header += SidebarMetaStyle.Render(fmt.Sprintf("  [%s]", strings.Join(names, ", ")))
	}
	b.WriteString(marker + header + "\n")

	body := ""
	switch m.Phase() {
	case conversation.PhasePending:
		body = StatusStreamingStyle.Render(verb + "…")
	case conversation.PhaseStreaming:
		body = renderContent(m.Content, width)
		if m.Metadata.Status == conversation.StatusThinking {
			body = StatusStreamingStyle.Render(verb + "…")
		} else {
			body += StatusStreamingStyle.Render("▍")
		}
	case conversation.PhaseFailed:
		body = ChatFailedStyle.Render(m.Content)
	default:
		body = renderContent(m.Content, width)
	}

	for _, line := range strings.Split(body, "\n") {
		b.WriteString(marker + line + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
