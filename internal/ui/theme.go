package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/bamsammich/fwt/internal/config"
)

// Catppuccin Mocha palette. Mutable so config can override.
var (
	ColorGreen  = lipgloss.Color("#a6e3a1")
	ColorBlue   = lipgloss.Color("#89b4fa")
	ColorYellow = lipgloss.Color("#f9e2af")
	ColorRed    = lipgloss.Color("#f38ba8")
	ColorMauve  = lipgloss.Color("#cba6f7")
	ColorMuted  = lipgloss.Color("#5a6278")
	ColorBright = lipgloss.Color("#cdd6f4")
)

// styles holds the label styles a Printer renders with.
type styles struct {
	missing   lipgloss.Style
	different lipgloss.Style
	reason    lipgloss.Style
	header    lipgloss.Style
	copied    lipgloss.Style
	conflict  lipgloss.Style
	identical lipgloss.Style
	renamed   lipgloss.Style
	muted     lipgloss.Style
	failed    lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		missing:   r.NewStyle().Foreground(ColorYellow),
		different: r.NewStyle().Foreground(ColorRed),
		reason:    r.NewStyle().Foreground(ColorMuted),
		header:    r.NewStyle().Bold(true).Foreground(ColorMauve),
		copied:    r.NewStyle().Foreground(ColorGreen),
		conflict:  r.NewStyle().Foreground(ColorYellow),
		identical: r.NewStyle().Foreground(ColorMuted),
		renamed:   r.NewStyle().Foreground(ColorBlue),
		muted:     r.NewStyle().Foreground(ColorMuted),
		failed:    r.NewStyle().Foreground(ColorRed).Bold(true),
	}
}

// ApplyTheme overrides colors from a config ThemeConfig. Printers created
// afterwards use the new palette.
func ApplyTheme(tc config.ThemeConfig) {
	if tc.Green != nil {
		ColorGreen = lipgloss.Color(*tc.Green)
	}
	if tc.Blue != nil {
		ColorBlue = lipgloss.Color(*tc.Blue)
	}
	if tc.Yellow != nil {
		ColorYellow = lipgloss.Color(*tc.Yellow)
	}
	if tc.Red != nil {
		ColorRed = lipgloss.Color(*tc.Red)
	}
	if tc.Mauve != nil {
		ColorMauve = lipgloss.Color(*tc.Mauve)
	}
	if tc.Muted != nil {
		ColorMuted = lipgloss.Color(*tc.Muted)
	}
	if tc.Bright != nil {
		ColorBright = lipgloss.Color(*tc.Bright)
	}
}
