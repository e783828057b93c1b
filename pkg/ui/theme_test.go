package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"
)

func TestDefaultTheme(t *testing.T) {
	renderer := lipgloss.NewRenderer(nil)
	theme := DefaultTheme(renderer)

	if theme.Renderer != renderer {
		t.Error("DefaultTheme renderer mismatch")
	}
	if isColorEmpty(theme.Primary) || isColorEmpty(theme.Muted) {
		t.Error("DefaultTheme colors are empty")
	}
}

func isColorEmpty(c lipgloss.AdaptiveColor) bool {
	return c.Light == "" && c.Dark == ""
}

func TestGutterKeepsContentInPlace(t *testing.T) {
	theme := TestTheme()
	focused := theme.Focused.Render("row")
	unfocused := theme.Unfocused.Render("row")

	if lipgloss.Width(focused) != lipgloss.Width(unfocused) {
		t.Errorf("gutter widths differ: %q vs %q", focused, unfocused)
	}
	if lipgloss.Height(theme.Focused.Render("a\nb")) != 2 {
		t.Error("expected the gutter to add no lines")
	}
	if !strings.HasSuffix(focused, "row") || !strings.HasSuffix(unfocused, "row") {
		t.Errorf("expected content after the gutter, got %q and %q", focused, unfocused)
	}
}

func TestColorHelpersFollowProfile(t *testing.T) {
	saved := TermProfile
	defer func() { TermProfile = saved }()

	tests := []struct {
		profile  colorprofile.Profile
		bgHex    bool // background keeps the hex color
		fgAnsi16 bool // foreground falls back to ANSI white
	}{
		{colorprofile.TrueColor, true, false},
		{colorprofile.ANSI256, false, false},
		{colorprofile.ANSI, false, true},
		{colorprofile.NoTTY, false, true},
	}
	for _, tt := range tests {
		TermProfile = tt.profile

		_, noBg := ThemeBg("#282A36").(lipgloss.NoColor)
		if noBg == tt.bgHex {
			t.Errorf("profile %v: ThemeBg hex=%v, want %v", tt.profile, !noBg, tt.bgHex)
		}

		fg, isAnsi := ThemeFg("#FF6B6B").(lipgloss.ANSIColor)
		if isAnsi != tt.fgAnsi16 {
			t.Errorf("profile %v: ThemeFg ANSI=%v, want %v", tt.profile, isAnsi, tt.fgAnsi16)
		}
		if isAnsi && fg != 7 {
			t.Errorf("profile %v: expected ANSI white, got %d", tt.profile, fg)
		}
	}
}
