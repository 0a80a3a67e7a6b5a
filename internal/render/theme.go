// Package render turns engine results into human-readable terminal text for
// --format text.
package render

import (
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

var (
	colorMuted  lipgloss.TerminalColor = ac("240", "243")
	colorAccent lipgloss.TerminalColor = ac("27", "62")
	colorPoints lipgloss.TerminalColor = ac("28", "114")
	colorBonus  lipgloss.TerminalColor = ac("130", "214")
	colorWarn   lipgloss.TerminalColor = ac("160", "203")
)

func styleMuted() lipgloss.Style  { return faintIfDark(lipgloss.NewStyle().Foreground(colorMuted)) }
func styleTitle() lipgloss.Style  { return lipgloss.NewStyle().Bold(true) }
func styleAccent() lipgloss.Style { return lipgloss.NewStyle().Foreground(colorAccent) }
func stylePoints() lipgloss.Style { return lipgloss.NewStyle().Foreground(colorPoints).Bold(true) }
func styleBonus() lipgloss.Style  { return lipgloss.NewStyle().Foreground(colorBonus).Bold(true) }
func styleWarn() lipgloss.Style   { return lipgloss.NewStyle().Foreground(colorWarn) }

// Faint text on light terminals is often illegible.
func faintIfDark(st lipgloss.Style) lipgloss.Style {
	if lipgloss.HasDarkBackground() {
		return st.Faint(true)
	}
	return st
}

var (
	profileMu sync.Mutex
	profile   = termenv.Ascii
	detected  bool
)

// Setup picks the color profile for stdout. NO_COLOR (and CLICOLOR for
// piped output) is honored through termenv; TERM/COLORTERM may upgrade a
// profile that the detector under-reports.
func Setup() termenv.Profile {
	profileMu.Lock()
	defer profileMu.Unlock()

	p := termenv.EnvColorProfile()
	if p != termenv.Ascii {
		term := strings.ToLower(strings.TrimSpace(os.Getenv("TERM")))
		colorterm := strings.ToLower(strings.TrimSpace(os.Getenv("COLORTERM")))
		if strings.Contains(colorterm, "truecolor") || strings.Contains(colorterm, "24bit") {
			p = termenv.TrueColor
		} else if strings.Contains(term, "256color") && p == termenv.ANSI {
			p = termenv.ANSI256
		}
	}
	applyThemePreference()
	lipgloss.SetColorProfile(p)
	profile = p
	detected = true
	return p
}

// UsePlain forces uncolored output (tests and --no-color).
func UsePlain() {
	profileMu.Lock()
	defer profileMu.Unlock()
	lipgloss.SetColorProfile(termenv.Ascii)
	profile = termenv.Ascii
	detected = true
}

func currentProfile() termenv.Profile {
	profileMu.Lock()
	defer profileMu.Unlock()
	if !detected {
		return termenv.Ascii
	}
	return profile
}

// applyThemePreference configures background detection.
//
// Priority:
// 1) MOMENTUM_THEME=light|dark|auto
// 2) COLORFGBG heuristic ("fg;bg")
func applyThemePreference() {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("MOMENTUM_THEME"))) {
	case "light":
		lipgloss.SetHasDarkBackground(false)
		return
	case "dark":
		lipgloss.SetHasDarkBackground(true)
		return
	}
	if v := strings.TrimSpace(os.Getenv("COLORFGBG")); v != "" {
		parts := strings.Split(v, ";")
		if bg, err := strconv.Atoi(strings.TrimSpace(parts[len(parts)-1])); err == nil {
			lipgloss.SetHasDarkBackground(bg < 7)
		}
	}
}
