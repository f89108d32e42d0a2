package main

import (
	"html"
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

var tagRegex = regexp.MustCompile(`<(/?)([a-zA-Z]+)[^>]*>`)

type textStyle struct {
	bold, italic, underline bool
}

func (s textStyle) plain() bool {
	return !s.bold && !s.italic && !s.underline
}

func (s textStyle) render(text string) string {
	if s.plain() {
		return text
	}
	return lipgloss.NewStyle().
		Bold(s.bold).
		Italic(s.italic).
		Underline(s.underline).
		Render(text)
}

// toTerminal turns rendered scene HTML into styled terminal text wrapped
// to width. Tags it does not know are dropped and their text kept.
func toTerminal(markup string, width int) string {
	if width < 10 {
		width = 10
	}

	var (
		b     strings.Builder
		style textStyle
		last  int
	)
	emit := func(text string) {
		if text != "" {
			b.WriteString(style.render(html.UnescapeString(text)))
		}
	}

	for _, m := range tagRegex.FindAllStringSubmatchIndex(markup, -1) {
		emit(markup[last:m[0]])
		last = m[1]

		closing := markup[m[2]:m[3]] == "/"
		switch strings.ToLower(markup[m[4]:m[5]]) {
		case "b", "strong":
			style.bold = !closing
		case "i", "em":
			style.italic = !closing
		case "u":
			style.underline = !closing
		case "br":
			b.WriteString("\n")
		case "hr":
			b.WriteString("\n" + separatorStyle.Render(strings.Repeat("─", min(width, 40))) + "\n")
		case "blockquote":
			if closing {
				style.italic = false
				b.WriteString("\n")
			} else {
				style.italic = true
				b.WriteString(quoteStyle.Render("│ "))
			}
		}
	}
	emit(markup[last:])

	return wordwrap.String(b.String(), width)
}
