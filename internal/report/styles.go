package report

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var (
	primaryColor   = lipgloss.Color("#A78BFA") // Purple
	secondaryColor = lipgloss.Color("#10B981") // Green
	warningColor   = lipgloss.Color("#F59E0B") // Amber
	mutedColor     = lipgloss.Color("#9CA3AF") // Gray
	borderColor    = lipgloss.Color("#6B7280") // Gray
)

// styles holds the renderer-bound styles used for text output.
type styles struct {
	title   lipgloss.Style
	label   lipgloss.Style
	value   lipgloss.Style
	best    lipgloss.Style
	missing lipgloss.Style
	muted   lipgloss.Style
	header  lipgloss.Style
	border  lipgloss.Style
}

// newStyles binds styles to w. Without color every style renders plain text.
func newStyles(w io.Writer, color bool) styles {
	r := lipgloss.NewRenderer(w)
	if !color {
		r.SetColorProfile(termenv.Ascii)
	}
	return styles{
		title:   r.NewStyle().Bold(true).Foreground(primaryColor),
		label:   r.NewStyle().Foreground(mutedColor),
		value:   r.NewStyle().Bold(true),
		best:    r.NewStyle().Foreground(secondaryColor),
		missing: r.NewStyle().Foreground(warningColor),
		muted:   r.NewStyle().Foreground(mutedColor).Italic(true),
		header:  r.NewStyle().Bold(true).Foreground(primaryColor).Padding(0, 1),
		border:  r.NewStyle().Foreground(borderColor),
	}
}
