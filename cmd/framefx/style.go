package main

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// styles renders headings for the writer's color profile; plain buffers get
// unstyled text.
type styles struct {
	heading lipgloss.Style
	label   lipgloss.Style
	muted   lipgloss.Style
	unicode bool
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		heading: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#2563eb")),
		label:   r.NewStyle().Bold(true),
		muted:   r.NewStyle().Faint(true),
		unicode: isTerminal(w),
	}
}

func (s styles) visibility(visible bool) string {
	switch {
	case visible && s.unicode:
		return "●"
	case visible:
		return "[x]"
	case s.unicode:
		return s.muted.Render("○")
	default:
		return "[ ]"
	}
}

func isTerminal(w any) bool {
	if file, ok := w.(*os.File); ok {
		return term.IsTerminal(int(file.Fd()))
	}
	return false
}
