package viz

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

// Theme defines color scheme for the TUI
type Theme struct {
	Name    string
	Primary lipgloss.Color
	Accent  lipgloss.Color
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Warning lipgloss.Color
	// Particle and plot colors.
	Particles lipgloss.Color
	Sample    asciigraph.AnsiColor
	Theory    asciigraph.AnsiColor
}

// Available themes
var (
	ThemeDefault = Theme{
		Name:      "default",
		Primary:   lipgloss.Color("#00cccc"),
		Accent:    lipgloss.Color("#ff88ff"),
		Text:      lipgloss.Color("#ffffff"),
		Muted:     lipgloss.Color("#666688"),
		Warning:   lipgloss.Color("#ffaa00"),
		Particles: lipgloss.Color("#4da6ff"),
		Sample:    asciigraph.Cyan,
		Theory:    asciigraph.Red,
	}

	ThemeRetroGreen = Theme{
		Name:      "retro",
		Primary:   lipgloss.Color("#00ff00"), // Green phosphor
		Accent:    lipgloss.Color("#88ff88"),
		Text:      lipgloss.Color("#00ff00"),
		Muted:     lipgloss.Color("#005500"),
		Warning:   lipgloss.Color("#ffff00"),
		Particles: lipgloss.Color("#00cc00"),
		Sample:    asciigraph.Green,
		Theory:    asciigraph.Yellow,
	}

	ThemeMinimal = Theme{
		Name:      "minimal",
		Primary:   lipgloss.Color("#ffffff"),
		Accent:    lipgloss.Color("#0088ff"),
		Text:      lipgloss.Color("#ffffff"),
		Muted:     lipgloss.Color("#888888"),
		Warning:   lipgloss.Color("#ffaa00"),
		Particles: lipgloss.Color("#cccccc"),
		Sample:    asciigraph.Default,
		Theory:    asciigraph.Red,
	}

	ThemeOcean = Theme{
		Name:      "ocean",
		Primary:   lipgloss.Color("#0077be"),
		Accent:    lipgloss.Color("#ffd700"),
		Text:      lipgloss.Color("#e0f0ff"),
		Muted:     lipgloss.Color("#4488aa"),
		Warning:   lipgloss.Color("#ffcc00"),
		Particles: lipgloss.Color("#00a8cc"),
		Sample:    asciigraph.DeepSkyBlue,
		Theory:    asciigraph.Gold,
	}

	ThemeSunset = Theme{
		Name:      "sunset",
		Primary:   lipgloss.Color("#ff6b6b"),
		Accent:    lipgloss.Color("#ff9ff3"),
		Text:      lipgloss.Color("#fff5f5"),
		Muted:     lipgloss.Color("#8b6b8c"),
		Warning:   lipgloss.Color("#ffc048"),
		Particles: lipgloss.Color("#feca57"),
		Sample:    asciigraph.Orange,
		Theory:    asciigraph.Magenta,
	}

	Themes = []Theme{
		ThemeDefault,
		ThemeRetroGreen,
		ThemeMinimal,
		ThemeOcean,
		ThemeSunset,
	}
)

// GetTheme returns a theme by name, falling back to the default theme.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeDefault
}

// NextTheme returns the theme after name in Themes, wrapping around.
func NextTheme(name string) Theme {
	for i, t := range Themes {
		if t.Name == name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return ThemeDefault
}

// ThemeNames returns list of available theme names
func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}
