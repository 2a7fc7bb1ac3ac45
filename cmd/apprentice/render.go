package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ai-gentic/apprentice/settings"
)

type speaker int

const (
	speakerUser speaker = iota
	speakerApprentice
	speakerTool
)

type styles struct {
	label lipgloss.Style
	arrow lipgloss.Style
	text  lipgloss.Style
}

// printer writes the transcript, colored when the output is a terminal.
type printer struct {
	w      io.Writer
	color  bool
	styles map[speaker]styles
}

func newPrinter(w io.Writer, p settings.Palette, color bool) *printer {
	r := lipgloss.NewRenderer(w)
	white := lipgloss.Color("#ffffff")
	mk := func(c settings.Color) styles {
		s := styles{
			label: r.NewStyle().Bold(true).Foreground(white),
			arrow: r.NewStyle().Bold(true),
			text:  r.NewStyle(),
		}
		if c.BG != nil {
			bg := lipgloss.Color(c.BG.Hex())
			s.label = s.label.Background(bg)
			s.arrow = s.arrow.Foreground(bg)
		}
		if c.FG != nil {
			s.text = s.text.Foreground(lipgloss.Color(c.FG.Hex()))
		}
		return s
	}
	return &printer{
		w:     w,
		color: color,
		styles: map[speaker]styles{
			speakerUser:       mk(p.User),
			speakerApprentice: mk(p.Apprentice),
			speakerTool:       mk(p.Tool),
		},
	}
}

// line prints " LABEL > text"; continuation lines are indented under text.
func (p *printer) line(who speaker, label, text string) {
	prefix := " " + label + " "
	arrow := ">"
	indent := strings.Repeat(" ", len(prefix)+len(arrow)+1)
	body := strings.ReplaceAll(strings.TrimRight(text, "\n"), "\n", "\n"+indent)

	if p.color {
		st := p.styles[who]
		prefix = st.label.Render(prefix)
		arrow = st.arrow.Render(arrow)
		body = st.text.Render(body)
	}
	fmt.Fprintf(p.w, "%s%s %s\n", prefix, arrow, body)
}
