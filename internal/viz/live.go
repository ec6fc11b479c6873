package viz

import (
	"fmt"
	"image"
	"io"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/guptarohit/asciigraph"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/mbsim/internal/analysis"
	"github.com/san-kum/mbsim/internal/config"
	"github.com/san-kum/mbsim/internal/dynamo"
	"github.com/san-kum/mbsim/internal/physics"
)

const (
	canvasWidth     = 40
	canvasHeight    = 20
	graphWidth      = 40
	graphHeight     = 8
	historyCapacity = 120
)

type TickMsg time.Time

// Options configure a live view.
type Options struct {
	Mode       dynamo.Mode
	Param      float64
	Count      int
	DomainSize float64
	Seed       int64
	Bins       int
	FPS        int
	Theme      string
	// GIFPath is where a recording is written; empty means "mbsim.gif".
	GIFPath string
	Logger  *log.Logger
}

// OptionsFromConfig maps a file/flag configuration onto live options.
func OptionsFromConfig(c *config.Config, logger *log.Logger) (Options, error) {
	if err := c.Validate(); err != nil {
		return Options{}, err
	}
	mode, _ := c.ParsedMode()
	return Options{
		Mode:       mode,
		Param:      c.Param,
		Count:      c.Count,
		DomainSize: c.DomainSize,
		Seed:       c.Seed,
		Bins:       c.Bins,
		FPS:        c.FPS,
		Theme:      c.Theme,
		Logger:     logger,
	}, nil
}

// Model is the Bubble Tea model of the interactive ensemble view.
// Every change of mode, parameter or count builds a fresh Gas; the old one
// is never mutated.
type Model struct {
	opts       Options
	gas        *physics.Gas
	generation int64
	canvas     *Canvas
	speeds     []float64
	meanHist   []float64
	running    bool
	showHelp   bool
	theme      Theme
	styles     Styles
	tick       int
	err        error
	recording  bool
	frames     []*image.Paletted
	logger     *log.Logger
}

// NewModel builds the first ensemble. Errors come from invalid options.
func NewModel(opts Options) (Model, error) {
	if opts.Bins <= 0 {
		opts.Bins = config.DefaultBins
	}
	if opts.FPS <= 0 {
		opts.FPS = config.DefaultFPS
	}
	if opts.GIFPath == "" {
		opts.GIFPath = "mbsim.gif"
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	theme := GetTheme(opts.Theme)

	m := Model{
		opts:     opts,
		canvas:   NewCanvas(canvasWidth, canvasHeight),
		meanHist: make([]float64, 0, historyCapacity),
		running:  true,
		theme:    theme,
		styles:   NewStyles(theme),
		logger:   logger,
	}
	gas, err := m.build()
	if err != nil {
		return Model{}, err
	}
	m.gas = gas
	return m, nil
}

// build creates and initializes a gas for the current options. Each call
// uses the next seed so a resample yields a different ensemble.
func (m *Model) build() (*physics.Gas, error) {
	src := rand.NewSource(uint64(m.opts.Seed + m.generation))
	gas, err := physics.NewGas(physics.Config{
		Count:      m.opts.Count,
		Mode:       m.opts.Mode,
		Param:      m.opts.Param,
		DomainSize: m.opts.DomainSize,
	}, src)
	if err != nil {
		return nil, err
	}
	if err := gas.Initialize(); err != nil {
		return nil, err
	}
	m.logger.Debug("ensemble built",
		"mode", m.opts.Mode, m.opts.Mode.ParamName(), m.opts.Param,
		"count", m.opts.Count, "generation", m.generation)
	return gas, nil
}

// rebuild swaps in a new gas, keeping the old one when construction fails.
func (m *Model) rebuild() {
	m.generation++
	gas, err := m.build()
	if err != nil {
		m.err = err
		m.logger.Error("rebuild failed", "err", err)
		return
	}
	m.gas = gas
	m.err = nil
	m.speeds = m.speeds[:0]
	m.meanHist = m.meanHist[:0]
}

func (m Model) Gas() *physics.Gas { return m.gas }
func (m Model) Options() Options  { return m.opts }
func (m Model) Running() bool     { return m.running }
func (m Model) Theme() Theme      { return m.theme }

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.opts.FPS), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tickCmd()
}

// Update handles input events and advances the ensemble.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case TickMsg:
		if m.running {
			m.step()
		}
		m.tick++
		if m.recording {
			m.captureFrame()
		}
		return m, m.tickCmd()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.recording {
			m.stopRecording()
		}
		return m, tea.Quit
	case " ":
		m.running = !m.running
	case "r":
		m.rebuild()
	case "m":
		m.toggleMode()
	case "up", "k":
		m.adjustParam(1)
	case "down", "j":
		m.adjustParam(-1)
	case "+", "=":
		m.adjustCount(1)
	case "-", "_":
		m.adjustCount(-1)
	case "t":
		m.theme = NextTheme(m.theme.Name)
		m.styles = NewStyles(m.theme)
	case "g":
		if m.recording {
			m.stopRecording()
		} else {
			m.recording = true
			m.frames = make([]*image.Paletted, 0)
		}
	case "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

func (m *Model) step() {
	m.gas.Advance()
	m.speeds = m.gas.SpeedsInto(m.speeds)
	m.meanHist = append(m.meanHist, stat.Mean(m.speeds, nil))
	if len(m.meanHist) > historyCapacity {
		m.meanHist = m.meanHist[1:]
	}
}

// toggleMode switches between temperature and mass mode and resets the
// parameter to the new mode's default.
func (m *Model) toggleMode() {
	if m.opts.Mode == dynamo.Temperature {
		m.opts.Mode = dynamo.Mass
	} else {
		m.opts.Mode = dynamo.Temperature
	}
	m.opts.Param = config.ParamRange(m.opts.Mode).Default
	m.rebuild()
}

func (m *Model) adjustParam(dir float64) {
	r := config.ParamRange(m.opts.Mode)
	next := r.Clamp(roundTo(m.opts.Param+dir*r.Step, r.Step))
	if next == m.opts.Param {
		return
	}
	m.opts.Param = next
	m.rebuild()
}

func (m *Model) adjustCount(dir int) {
	r := config.Bounds.Count
	next := int(r.Clamp(float64(m.opts.Count) + float64(dir)*r.Step))
	if next == m.opts.Count {
		return
	}
	m.opts.Count = next
	m.rebuild()
}

// roundTo snaps v to the nearest multiple of step.
func roundTo(v, step float64) float64 {
	n := v / step
	if n < 0 {
		return -float64(int(-n+0.5)) * step
	}
	return float64(int(n+0.5)) * step
}

// View renders the TUI interface.
func (m Model) View() string {
	st := m.styles
	m.canvas.PlotParticles(m.gas.Positions(), m.gas.DomainSize())
	m.canvas.DrawBorder()
	canvasView := st.Particles.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(st.Title.Render("MAXWELL-BOLTZMANN GAS") + "\n")

	status := st.Running.Render(AnimatedSpinner(m.tick) + " RUNNING")
	if !m.running {
		status = st.Paused.Render("PAUSED")
	}
	if m.recording {
		status += st.Paused.Render(fmt.Sprintf("  ● REC %d", len(m.frames)))
	}
	s.WriteString(status + "\n\n")

	s.WriteString(st.Row("Mode", "%s", m.opts.Mode))
	r := config.ParamRange(m.opts.Mode)
	s.WriteString(st.Active.Render(fmt.Sprintf("%-12s", m.opts.Mode.ParamName())) +
		st.Value.Render(fmt.Sprintf("%s %.1f", Slider(m.opts.Param, r.Min, r.Max, 12), m.opts.Param)) + "\n")
	cr := config.Bounds.Count
	s.WriteString(st.Row("Particles", "%s %d", Slider(float64(m.opts.Count), cr.Min, cr.Max, 12), m.opts.Count))
	s.WriteString(st.Row("Time", "%.2f", m.gas.Elapsed()))

	theory := m.gas.CharacteristicSpeeds()
	s.WriteString("\n" + st.Muted.Render("             theory   sample") + "\n")
	mean, rms := sampleMoments(m.currentSpeeds())
	s.WriteString(st.Row("v_p", "%7.3f", theory.MostProbable))
	s.WriteString(st.Row("v_mean", "%7.3f  %7.3f", theory.Mean, mean))
	s.WriteString(st.Row("v_rms", "%7.3f  %7.3f", theory.RMS, rms))
	s.WriteString(st.Row("<v> trace", "%s", Sparkline(m.meanHist, 24)))

	if chart := m.distributionChart(); chart != "" {
		s.WriteString(st.Graph.Render(chart) + "\n")
	}

	if m.err != nil {
		s.WriteString(st.Paused.Render("error: "+m.err.Error()) + "\n")
	}

	s.WriteString(st.Muted.Render("\nSP:Pause R:Resample M:Mode Q:Quit\n↑↓:Param +-:Count T:Theme ?:Help"))
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, st.Panel.Render(s.String()))
	if m.showHelp {
		return helpText + "\n\n" + mainView
	}
	return mainView
}

const helpText = `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume             ║
║  R        - Resample velocities      ║
║  M        - Toggle temperature/mass  ║
║  Up/K     - Increase T or m          ║
║  Down/J   - Decrease T or m          ║
║  +/-      - More/fewer particles     ║
║  G        - Toggle GIF recording     ║
║  T        - Cycle themes             ║
║  Q        - Quit                     ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝`

// distributionChart plots the speed histogram against the theoretical
// density over the mode's plot range.
func (m Model) distributionChart() string {
	speeds := m.currentSpeeds()
	upper := analysis.PlotRange(m.opts.Mode, m.opts.Param)
	h, err := analysis.NewHistogram(speeds, m.opts.Bins, upper)
	if err != nil {
		return ""
	}
	theory := analysis.TheoryAtCenters(m.gas.Theory(), h)
	return asciigraph.PlotMany([][]float64{h.Density, theory},
		asciigraph.Height(graphHeight),
		asciigraph.Width(graphWidth),
		asciigraph.LowerBound(0),
		asciigraph.Precision(2),
		asciigraph.SeriesColors(m.theme.Sample, m.theme.Theory),
		asciigraph.SeriesLegends("sample", "theory"),
		asciigraph.Caption(fmt.Sprintf("speed 0..%.0f", upper)))
}

// currentSpeeds returns the speeds of the last frame, or of the gas when
// no frame has run since the last rebuild.
func (m Model) currentSpeeds() []float64 {
	if len(m.speeds) == 0 {
		return m.gas.Speeds()
	}
	return m.speeds
}

func sampleMoments(speeds []float64) (mean, rms float64) {
	if len(speeds) == 0 {
		return 0, 0
	}
	mean = stat.Mean(speeds, nil)
	sq := 0.0
	for _, v := range speeds {
		sq += v * v
	}
	return mean, math.Sqrt(sq / float64(len(speeds)))
}

// Run starts the live view in the alternate screen.
func Run(opts Options) error {
	m, err := NewModel(opts)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
