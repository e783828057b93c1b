package ui

import (
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"
)

// TermProfile holds the detected terminal color profile. Computed once at
// package init so every style helper can branch without re-detecting.
var TermProfile colorprofile.Profile

func init() {
	TermProfile = colorprofile.Detect(os.Stdout, os.Environ())
}

// ThemeBg returns the given hex color for TrueColor terminals and
// lipgloss.NoColor{} otherwise, so 16/256-color terminals use the
// terminal's own background instead of a down-converted approximation
// that may clash with palettes like Solarized.
func ThemeBg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.TrueColor {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(hex)
}

// ThemeFg returns the given hex color for ANSI256+ terminals and a safe
// ANSI white (color 7) for 16-color or lower terminals.
func ThemeFg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.ANSI256 {
		return lipgloss.ANSIColor(7)
	}
	return lipgloss.Color(hex)
}

type Theme struct {
	Renderer *lipgloss.Renderer

	// Colors
	Primary lipgloss.AdaptiveColor
	Subtext lipgloss.AdaptiveColor
	Muted   lipgloss.AdaptiveColor

	Base lipgloss.Style

	// Row gutter: a thick left bar on the focused row, a blank column of the
	// same width everywhere else so content never shifts.
	Focused   lipgloss.Style
	Unfocused lipgloss.Style

	// Pre-computed delegate styles, created once instead of per row
	MutedText   lipgloss.Style // child counts, placeholders
	PrimaryBold lipgloss.Style // parent titles
	Indicator   lipgloss.Style // ▸ ▾ •

	StatusBar  lipgloss.Style
	StatusKey  lipgloss.Style
	StatusInfo lipgloss.Style
	Success    lipgloss.Style
	Error      lipgloss.Style
}

// DefaultTheme returns the standard Dracula-inspired theme (adaptive)
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer: r,

		Primary: ColorPrimary,
		Subtext: ColorSubtext,
		Muted:   ColorMuted,
	}

	t.Base = r.NewStyle().Foreground(ColorText)

	t.Focused = r.NewStyle().
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(t.Primary)
	t.Unfocused = r.NewStyle().
		Border(lipgloss.HiddenBorder(), false, false, false, true)

	t.MutedText = r.NewStyle().Foreground(ColorMuted)
	t.PrimaryBold = r.NewStyle().Foreground(t.Primary).Bold(true)
	t.Indicator = r.NewStyle().Foreground(ColorInfo)

	t.StatusBar = r.NewStyle().
		Foreground(ColorText).
		Background(ThemeBg("#363949"))
	t.StatusKey = r.NewStyle().
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}).
		Background(t.Primary).
		Bold(true).
		Padding(0, 1)
	t.StatusInfo = r.NewStyle().Foreground(ColorSubtext).Padding(0, 1)
	t.Success = r.NewStyle().Foreground(ColorSuccess).Padding(0, 1)
	t.Error = r.NewStyle().Foreground(ColorDanger).Bold(true)

	return t
}

// TestTheme returns a theme suitable for use in tests.
func TestTheme() Theme {
	return DefaultTheme(lipgloss.NewRenderer(os.Stdout))
}
