package tui

import (
	"os"
	"strconv"
	"strings"

	"taskboard/internal/model"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// The board must stay readable on light and dark terminals. Colors are adaptive
// and "faint" is only applied on dark backgrounds.

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

func faintIfDark(st lipgloss.Style) lipgloss.Style {
	if lipgloss.HasDarkBackground() {
		return st.Faint(true)
	}
	return st
}

var (
	colorMuted          = ac("240", "243")
	colorSurfaceFg      = ac("235", "252")
	colorControlBg      = ac("252", "237")
	colorInputBg        = ac("254", "234")
	colorAccent         = ac("27", "62")
	colorAccentFg       = ac("255", "255")
	colorCardBorder     = ac("250", "240")
	colorSelectedBorder = ac("232", "255")
	colorDropBorder     = ac("28", "78")
	colorWarningBg      = ac("223", "94")
	colorWarningFg      = ac("94", "230")
	colorErrorFg        = ac("160", "203")
	colorModalBg        = ac("255", "235")
)

// columnColor tints each column header.
func columnColor(c model.Column) lipgloss.AdaptiveColor {
	switch c {
	case model.ColumnBacklog:
		return ac("240", "245")
	case model.ColumnInProgress:
		return ac("27", "75")
	case model.ColumnReview:
		return ac("130", "214")
	case model.ColumnDone:
		return ac("28", "78")
	}
	return colorMuted
}

func styleMuted() lipgloss.Style {
	return faintIfDark(lipgloss.NewStyle().Foreground(colorMuted))
}

func styleButton(active bool) lipgloss.Style {
	st := lipgloss.NewStyle().Foreground(colorSurfaceFg).Background(colorControlBg)
	if active {
		st = st.Foreground(colorAccentFg).Background(colorAccent).Bold(true)
	}
	return st
}

// applyColorProfilePreference honors NO_COLOR and otherwise trusts TERM/COLORTERM
// over termenv's detection when they advertise more colors.
func applyColorProfilePreference() {
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}

	profile := termenv.ColorProfile()
	term := strings.ToLower(os.Getenv("TERM"))
	colorterm := strings.ToLower(os.Getenv("COLORTERM"))
	switch {
	case profile == termenv.Ascii:
	case strings.Contains(colorterm, "truecolor"), strings.Contains(colorterm, "24bit"):
		profile = termenv.TrueColor
	case strings.Contains(term, "256color") && profile == termenv.ANSI:
		profile = termenv.ANSI256
	}
	lipgloss.SetColorProfile(profile)
}

// applyThemePreference picks the light or dark palette without querying the
// terminal, which can block on some emulators.
//
// Priority: TASKBOARD_TUI_THEME=light|dark|auto, then the COLORFGBG "fg;bg" hint.
func applyThemePreference() {
	if dark, ok := themeOverride(); ok {
		lipgloss.SetHasDarkBackground(dark)
	}
}

func themeOverride() (dark bool, ok bool) {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("TASKBOARD_TUI_THEME"))) {
	case "light":
		return false, true
	case "dark":
		return true, true
	}
	if v := strings.TrimSpace(os.Getenv("COLORFGBG")); v != "" {
		parts := strings.Split(v, ";")
		if bg, err := strconv.Atoi(strings.TrimSpace(parts[len(parts)-1])); err == nil {
			// xterm palette: 0-6 dark, 7-15 light.
			return bg < 7, true
		}
	}
	return false, false
}
