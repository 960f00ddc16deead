package ui

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// wrapText wraps s to the given display width, breaking on spaces and
// splitting words longer than a line at grapheme boundaries so wide runes
// and emoji are never cut mid-cluster.
func wrapText(s string, width int) string {
	if width < 1 {
		width = DefaultWrapWidth
	}

	var out []string
	for _, line := range strings.Split(s, "\n") {
		out = append(out, wrapLine(line, width)...)
	}
	return strings.Join(out, "\n")
}

func wrapLine(line string, width int) []string {
	if runewidth.StringWidth(line) <= width {
		return []string{line}
	}

	var (
		lines   []string
		current strings.Builder
		curW    int
	)
	flush := func() {
		lines = append(lines, strings.TrimRight(current.String(), " "))
		current.Reset()
		curW = 0
	}

	for _, word := range strings.Split(line, " ") {
		w := runewidth.StringWidth(word)
		if curW > 0 && curW+1+w > width {
			flush()
		}
		if curW > 0 {
			current.WriteByte(' ')
			curW++
		}
		if w > width {
			// Break the oversized word cluster by cluster.
			g := uniseg.NewGraphemes(word)
			for g.Next() {
				cluster := g.Str()
				cw := runewidth.StringWidth(cluster)
				if curW+cw > width && curW > 0 {
					flush()
				}
				current.WriteString(cluster)
				curW += cw
			}
			continue
		}
		current.WriteString(word)
		curW += w
	}
	if current.Len() > 0 || len(lines) == 0 {
		flush()
	}
	return lines
}
