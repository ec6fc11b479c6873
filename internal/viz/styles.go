package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles are derived from a Theme so a theme switch restyles every panel.
type Styles struct {
	Title     lipgloss.Style
	Label     lipgloss.Style
	Value     lipgloss.Style
	Active    lipgloss.Style
	Muted     lipgloss.Style
	Running   lipgloss.Style
	Paused    lipgloss.Style
	Particles lipgloss.Style
	Panel     lipgloss.Style
	Graph     lipgloss.Style
}

func NewStyles(t Theme) Styles {
	return Styles{
		Title:     lipgloss.NewStyle().Bold(true).Foreground(t.Primary).MarginBottom(1),
		Label:     lipgloss.NewStyle().Foreground(t.Muted).Width(12),
		Value:     lipgloss.NewStyle().Foreground(t.Text),
		Active:    lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
		Muted:     lipgloss.NewStyle().Foreground(t.Muted),
		Running:   lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Paused:    lipgloss.NewStyle().Bold(true).Foreground(t.Warning),
		Particles: lipgloss.NewStyle().Foreground(t.Particles).Padding(1, 2),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(t.Muted).
			Padding(1, 2).
			Width(48),
		Graph: lipgloss.NewStyle().Padding(1, 0),
	}
}

// AnimatedSpinner returns frame of animated spinner
func AnimatedSpinner(frame int) string {
	spinners := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	return spinners[frame%len(spinners)]
}

// Slider renders v within [lo, hi] as a fixed-width bar.
func Slider(v, lo, hi float64, width int) string {
	ratio := 0.0
	if hi > lo {
		ratio = (v - lo) / (hi - lo)
	}
	filled := int(ratio * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("=", filled) + strings.Repeat("-", width-filled) + "]"
}

// Sparkline renders the last width values with block characters.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	var b strings.Builder
	for _, v := range values {
		idx := int((v - lo) / rng * float64(len(chars)-1))
		b.WriteRune(chars[idx])
	}
	return b.String()
}

// Row renders a label/value line.
func (s Styles) Row(label, format string, args ...interface{}) string {
	return s.Label.Render(label) + s.Value.Render(fmt.Sprintf(format, args...)) + "\n"
}
