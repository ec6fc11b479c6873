package viz

import (
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/mbsim/internal/config"
	"github.com/san-kum/mbsim/internal/dynamo"
)

func key(s string) tea.KeyMsg {
	switch s {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestModel(t *testing.T) Model {
	t.Helper()
	m, err := NewModel(Options{Mode: dynamo.Temperature, Param: 1, Count: 2000, Seed: 1})
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func press(m Model, keys ...string) Model {
	for _, k := range keys {
		next, _ := m.Update(key(k))
		m = next.(Model)
	}
	return m
}

func TestCanvasSet(t *testing.T) {
	c := NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)
	c.Set(-1, 0)
	c.Set(10, 10)

	if c.Grid[0][0] != 0x2801 {
		t.Errorf("expected dot 1 in first cell, got %U", c.Grid[0][0])
	}
	if c.Grid[0][1] != 0x2880 {
		t.Errorf("expected dot 8 in second cell, got %U", c.Grid[0][1])
	}
	if !c.IsSet(3, 3) || c.IsSet(1, 1) {
		t.Error("IsSet disagrees with Set")
	}

	c.Clear()
	if c.IsSet(0, 0) {
		t.Error("expected empty canvas after Clear")
	}
}

func TestCanvasPlotParticles(t *testing.T) {
	c := NewCanvas(10, 5)
	pos := []r2.Vec{{X: 0, Y: 0}, {X: 10, Y: 10}, {X: 5, Y: 5}, {X: 11, Y: 5}, {X: 5, Y: -0.1}}

	if n := c.PlotParticles(pos, 10); n != 3 {
		t.Errorf("expected 3 particles drawn, got %d", n)
	}
	if !c.IsSet(0, c.DotHeight()-1) {
		t.Error("origin should map to the bottom-left dot")
	}
	if !c.IsSet(c.DotWidth()-1, 0) {
		t.Error("(size, size) should map to the top-right dot")
	}
}

func TestNewModel(t *testing.T) {
	m := newTestModel(t)
	if m.Gas() == nil || m.Gas().Count() != 2000 {
		t.Fatal("expected an initialized gas of 2000 particles")
	}
	if m.Options().Bins != config.DefaultBins || m.Options().FPS != config.DefaultFPS {
		t.Errorf("defaults not applied: %+v", m.Options())
	}
	if m.Theme().Name != "default" {
		t.Errorf("expected default theme, got %s", m.Theme().Name)
	}

	if _, err := NewModel(Options{Mode: dynamo.Mass, Param: 0, Count: 10}); err == nil {
		t.Error("expected error for zero mass")
	}
}

func TestModelTickAdvances(t *testing.T) {
	m := newTestModel(t)
	next, cmd := m.Update(TickMsg{})
	m = next.(Model)
	if cmd == nil {
		t.Error("expected another tick to be scheduled")
	}
	if m.Gas().Steps() != 1 {
		t.Errorf("expected one advance, got %d", m.Gas().Steps())
	}

	m = press(m, " ")
	if m.Running() {
		t.Fatal("space should pause")
	}
	next, _ = m.Update(TickMsg{})
	if next.(Model).Gas().Steps() != 1 {
		t.Error("paused model must not advance")
	}
}

func TestModelResampleBuildsNewGas(t *testing.T) {
	m := newTestModel(t)
	old := m.Gas()
	oldSpeeds := old.Speeds()

	m = press(m, "r")
	if m.Gas() == old {
		t.Fatal("resample should construct a new gas")
	}
	if m.Gas().Speeds()[0] == oldSpeeds[0] {
		t.Error("resample should draw a different ensemble")
	}
	if old.Speeds()[0] != oldSpeeds[0] {
		t.Error("old gas must not be mutated")
	}
}

func TestModelParamKeys(t *testing.T) {
	m := newTestModel(t)

	m = press(m, "up", "up")
	if got := m.Options().Param; got < 1.19 || got > 1.21 {
		t.Errorf("expected T=1.2, got %v", got)
	}
	if m.Gas().Param() != m.Options().Param {
		t.Error("gas should follow the new parameter")
	}

	for i := 0; i < 30; i++ {
		m = press(m, "down")
	}
	if got := m.Options().Param; got != config.Bounds.Temperature.Min {
		t.Errorf("expected clamp at %v, got %v", config.Bounds.Temperature.Min, got)
	}
}

func TestModelModeToggle(t *testing.T) {
	m := press(newTestModel(t), "up", "m")
	if m.Options().Mode != dynamo.Mass || m.Options().Param != config.Bounds.Mass.Default {
		t.Errorf("expected mass mode at default, got %+v", m.Options())
	}
	if m.Gas().Mode() != dynamo.Mass {
		t.Error("gas should be rebuilt in mass mode")
	}
}

func TestModelCountKeys(t *testing.T) {
	m := press(newTestModel(t), "+")
	if m.Options().Count != 3000 || m.Gas().Count() != 3000 {
		t.Errorf("expected 3000 particles, got %d", m.Gas().Count())
	}

	m = press(m, "-", "-", "-", "-")
	if m.Options().Count != int(config.Bounds.Count.Min) {
		t.Errorf("expected clamp at %v, got %d", config.Bounds.Count.Min, m.Options().Count)
	}
}

func TestModelThemeCycle(t *testing.T) {
	m := press(newTestModel(t), "t")
	if m.Theme().Name != ThemeNames()[1] {
		t.Errorf("expected %s, got %s", ThemeNames()[1], m.Theme().Name)
	}
	if GetTheme("nope").Name != "default" {
		t.Error("unknown theme should fall back to default")
	}
}

func TestModelView(t *testing.T) {
	m := newTestModel(t)
	next, _ := m.Update(TickMsg{})
	view := next.(Model).View()

	for _, want := range []string{"MAXWELL-BOLTZMANN GAS", "v_p", "v_mean", "v_rms", "sample", "theory"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	help := press(m, "?").View()
	if !strings.Contains(help, "KEYBOARD SHORTCUTS") {
		t.Error("help overlay not shown")
	}
}

func TestSaveGIF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rec.gif")
	if err := SaveGIF(path, nil, 3); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("no file expected for an empty recording")
	}

	c := NewCanvas(4, 2)
	c.Set(1, 1)
	if err := SaveGIF(path, []*image.Paletted{RenderImage(c)}, 3); err != nil {
		t.Fatal(err)
	}
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Errorf("expected a gif file, got %v", err)
	}
}

func TestSliderAndSparkline(t *testing.T) {
	if got := Slider(5, 0, 10, 10); got != "[=====-----]" {
		t.Errorf("unexpected slider %q", got)
	}
	if got := Slider(20, 0, 10, 4); got != "[====]" {
		t.Errorf("slider should saturate, got %q", got)
	}
	if got := []rune(Sparkline([]float64{0, 1}, 5)); len(got) != 2 || got[0] != '▁' || got[1] != '█' {
		t.Errorf("unexpected sparkline %q", string(got))
	}
}

func TestInteractiveStart(t *testing.T) {
	app := NewInteractiveApp(nil, nil)

	next, _ := app.Update(key("j"))
	next, _ = next.(setup).Update(tea.KeyMsg{Type: tea.KeyEnter})
	s := next.(setup)
	if s.state != stateConfig {
		t.Fatalf("expected config screen, got state %d", s.state)
	}
	if s.cfg.Mode != s.entries[1].mode {
		t.Errorf("preset mode not applied: %s", s.cfg.Mode)
	}

	next, cmd := s.Update(key("s"))
	s = next.(setup)
	if s.state != stateSim || cmd == nil {
		t.Fatalf("expected live view to start, err %v", s.err)
	}
}

func TestInteractiveInvalidField(t *testing.T) {
	app := NewInteractiveApp(config.DefaultConfig(), nil)
	s := *app
	s.state = stateConfig
	if err := s.setField("mode", "pressure"); err == nil {
		t.Error("expected error for unknown mode")
	}
	if err := s.setField("count", "0"); err != nil {
		t.Fatal(err)
	}
	s.start()
	if s.state == stateSim || s.err == nil {
		t.Error("zero particles should not start the live view")
	}
}
