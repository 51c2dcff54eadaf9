package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/bamsammich/dedupe/internal/config"
)

// Catppuccin Mocha palette, overridable from the [theme] config section.
var (
	ColorGreen  = lipgloss.Color("#a6e3a1")
	ColorBlue   = lipgloss.Color("#89b4fa")
	ColorYellow = lipgloss.Color("#f9e2af")
	ColorRed    = lipgloss.Color("#f38ba8")
	ColorTeal   = lipgloss.Color("#94e2d5")
	ColorMauve  = lipgloss.Color("#cba6f7")
	ColorMuted  = lipgloss.Color("#5a6278")
	ColorDim    = lipgloss.Color("#3a4055")
	ColorBright = lipgloss.Color("#cdd6f4")
)

// ApplyTheme overrides colors from a config ThemeConfig.
func ApplyTheme(tc config.ThemeConfig) {
	set := func(dst *lipgloss.Color, v *string) {
		if v != nil {
			*dst = lipgloss.Color(*v)
		}
	}
	set(&ColorGreen, tc.Green)
	set(&ColorBlue, tc.Blue)
	set(&ColorYellow, tc.Yellow)
	set(&ColorRed, tc.Red)
	set(&ColorTeal, tc.Teal)
	set(&ColorMauve, tc.Mauve)
	set(&ColorMuted, tc.Muted)
	set(&ColorDim, tc.Dim)
	set(&ColorBright, tc.Bright)
}

// styles are built per output so a non-terminal writer gets plain text.
type styles struct {
	header  lipgloss.Style
	label   lipgloss.Style
	divider lipgloss.Style
	digest  lipgloss.Style
	keep    lipgloss.Style
	dup     lipgloss.Style
	dir     lipgloss.Style
	size    lipgloss.Style
	wasted  lipgloss.Style
	warn    lipgloss.Style
	errText lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		header:  r.NewStyle().Bold(true).Foreground(ColorBright),
		label:   r.NewStyle().Bold(true).Foreground(ColorMauve),
		divider: r.NewStyle().Foreground(ColorDim),
		digest:  r.NewStyle().Foreground(ColorMuted),
		keep:    r.NewStyle().Foreground(ColorGreen),
		dup:     r.NewStyle().Foreground(ColorBright),
		dir:     r.NewStyle().Foreground(ColorMuted),
		size:    r.NewStyle().Foreground(ColorTeal),
		wasted:  r.NewStyle().Bold(true).Foreground(ColorYellow),
		warn:    r.NewStyle().Foreground(ColorYellow).Italic(true),
		errText: r.NewStyle().Foreground(ColorRed),
	}
}
