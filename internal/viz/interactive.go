package viz

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/san-kum/mbsim/internal/config"
	"github.com/san-kum/mbsim/internal/dynamo"
)

const (
	stateMenu = iota
	stateConfig
	stateSim
)

var setupFields = []string{"mode", "param", "count", "seed"}

// menuEntry is a preset reachable from the start menu.
type menuEntry struct {
	mode, preset string
}

func (e menuEntry) label() string {
	if e.preset == "" {
		return "custom"
	}
	return e.mode + "/" + e.preset
}

type setup struct {
	state, cursor int
	entries       []menuEntry
	cfg           *config.Config
	fieldCursor   int
	editing       bool
	editBuf       string
	err           error
	width, height int
	liveModel     Model
	logger        *log.Logger
}

// NewInteractiveApp starts at a preset menu seeded from base.
func NewInteractiveApp(base *config.Config, logger *log.Logger) *setup {
	entries := []menuEntry{{}}
	for _, mode := range []string{"temperature", "mass"} {
		for _, name := range config.ListPresets(mode) {
			entries = append(entries, menuEntry{mode: mode, preset: name})
		}
	}
	if base == nil {
		base = config.DefaultConfig()
	}
	cfg := *base
	return &setup{
		state:   stateMenu,
		entries: entries,
		cfg:     &cfg,
		width:   80, height: 24,
		logger: logger,
	}
}

func (m setup) Init() tea.Cmd { return nil }

func (m setup) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	default:
		if m.state == stateSim {
			newLive, cmd := m.liveModel.Update(msg)
			m.liveModel = newLive.(Model)
			return m, cmd
		}
	}
	return m, nil
}

func (m setup) handleKey(msg tea.KeyMsg) (setup, tea.Cmd) {
	switch m.state {
	case stateMenu:
		return m.menuKey(msg)
	case stateConfig:
		return m.configKey(msg)
	case stateSim:
		newLive, cmd := m.liveModel.Update(msg)
		m.liveModel = newLive.(Model)
		return m, cmd
	}
	return m, nil
}

func (m setup) menuKey(msg tea.KeyMsg) (setup, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.entries)-1 {
			m.cursor++
		}
	case "enter", " ":
		e := m.entries[m.cursor]
		if e.preset != "" {
			p := config.Resolve(config.GetPreset(e.mode, e.preset))
			p.Seed, p.Theme, p.FPS = m.cfg.Seed, m.cfg.Theme, m.cfg.FPS
			m.cfg = p
		}
		m.state, m.fieldCursor, m.err = stateConfig, 0, nil
	}
	return m, nil
}

func (m setup) configKey(msg tea.KeyMsg) (setup, tea.Cmd) {
	if m.editing {
		switch msg.String() {
		case "enter":
			m.err = m.setField(setupFields[m.fieldCursor], m.editBuf)
			m.editing, m.editBuf = false, ""
		case "esc":
			m.editing, m.editBuf = false, ""
		case "backspace":
			if len(m.editBuf) > 0 {
				m.editBuf = m.editBuf[:len(m.editBuf)-1]
			}
		default:
			if len(msg.String()) == 1 {
				c := msg.String()[0]
				if (c >= '0' && c <= '9') || c == '.' || (c >= 'a' && c <= 'z') {
					m.editBuf += string(c)
				}
			}
		}
		return m, nil
	}
	switch msg.String() {
	case "q", "esc":
		m.state = stateMenu
	case "up", "k":
		if m.fieldCursor > 0 {
			m.fieldCursor--
		}
	case "down", "j":
		if m.fieldCursor < len(setupFields)-1 {
			m.fieldCursor++
		}
	case "enter", " ":
		m.editing, m.editBuf = true, m.fieldValue(setupFields[m.fieldCursor])
	case "left", "h":
		m.nudge(-1)
	case "right", "l":
		m.nudge(1)
	case "s":
		cmd := m.start()
		return m, cmd
	}
	return m, nil
}

func (m *setup) fieldValue(name string) string {
	switch name {
	case "mode":
		return m.cfg.Mode
	case "param":
		return strconv.FormatFloat(m.cfg.Param, 'f', -1, 64)
	case "count":
		return strconv.Itoa(m.cfg.Count)
	case "seed":
		return strconv.FormatInt(m.cfg.Seed, 10)
	}
	return ""
}

func (m *setup) setField(name, value string) error {
	switch name {
	case "mode":
		mode, err := dynamo.ParseMode(value)
		if err != nil {
			return err
		}
		m.cfg.Mode = mode.String()
	case "param":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		m.cfg.Param = v
	case "count":
		v, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		m.cfg.Count = v
	case "seed":
		v, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		m.cfg.Seed = v
	}
	return nil
}

// nudge steps the selected field by one slider increment.
func (m *setup) nudge(dir int) {
	mode, err := m.cfg.ParsedMode()
	if err != nil {
		mode = dynamo.Temperature
	}
	switch setupFields[m.fieldCursor] {
	case "mode":
		if mode == dynamo.Temperature {
			mode = dynamo.Mass
		} else {
			mode = dynamo.Temperature
		}
		m.cfg.Mode = mode.String()
		m.cfg.Param = config.ParamRange(mode).Clamp(m.cfg.Param)
	case "param":
		r := config.ParamRange(mode)
		m.cfg.Param = r.Clamp(roundTo(m.cfg.Param+float64(dir)*r.Step, r.Step))
	case "count":
		r := config.Bounds.Count
		m.cfg.Count = int(r.Clamp(float64(m.cfg.Count) + float64(dir)*r.Step))
	case "seed":
		m.cfg.Seed += int64(dir)
	}
}

func (m *setup) start() tea.Cmd {
	opts, err := OptionsFromConfig(m.cfg, m.logger)
	if err != nil {
		m.err = err
		return nil
	}
	live, err := NewModel(opts)
	if err != nil {
		m.err = err
		return nil
	}
	m.liveModel = live
	m.state = stateSim
	return m.liveModel.Init()
}

func (m setup) View() string {
	switch m.state {
	case stateMenu:
		return m.viewMenu()
	case stateConfig:
		return m.viewConfig()
	case stateSim:
		return m.liveModel.View()
	}
	return ""
}

var (
	menuTitle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00cccc")).Bold(true)
	menuSub    = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
	menuCursor = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ffff")).Bold(true)
	menuActive = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true)
	menuValue  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff88ff")).Bold(true)
	menuIdle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#555566"))
	menuKey    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00aaaa")).Bold(true)
	menuError  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
)

func keyHints(pairs ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		b.WriteString(menuKey.Render(pairs[i]) + menuIdle.Render(" "+pairs[i+1]+"  "))
	}
	return b.String()
}

func (m setup) viewMenu() string {
	var b strings.Builder
	b.WriteString("\n\n    " + menuTitle.Render("MBSIM") + "\n    " + menuSub.Render("maxwell-boltzmann ideal gas") + "\n    " + menuSub.Render("─────────────────────────") + "\n\n")
	for i, e := range m.entries {
		desc := ""
		if p := config.GetPreset(e.mode, e.preset); p != nil {
			desc = fmt.Sprintf("%s=%g  n=%d", dynamoParamName(e.mode), p.Param, p.Count)
		}
		if i == m.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", menuCursor.Render("▸"), menuActive.Render(fmt.Sprintf("%-20s", e.label())), menuValue.Render(desc)))
		} else {
			b.WriteString(fmt.Sprintf("    %s  %s\n", menuIdle.Render(fmt.Sprintf("  %-20s", e.label())), menuIdle.Render(desc)))
		}
	}
	b.WriteString("\n    " + keyHints("j/k", "navigate", "enter", "select", "q", "quit") + "\n")
	return b.String()
}

func dynamoParamName(mode string) string {
	parsed, err := dynamo.ParseMode(mode)
	if err != nil {
		return "?"
	}
	return parsed.ParamName()
}

func (m setup) viewConfig() string {
	var b strings.Builder
	b.WriteString("\n\n    " + menuTitle.Render("ENSEMBLE") + "\n    " + menuSub.Render("─────────────────────────") + "\n\n")
	for i, name := range setupFields {
		val := fmt.Sprintf("%12s", m.fieldValue(name))
		if m.editing && i == m.fieldCursor {
			val = fmt.Sprintf("%12s", m.editBuf+"_")
		}
		if i == m.fieldCursor {
			b.WriteString(fmt.Sprintf("    %s %s %s\n", menuCursor.Render("▸"), menuActive.Render(fmt.Sprintf("%-10s", name)), menuValue.Render(val)))
		} else {
			b.WriteString(fmt.Sprintf("    %s %s\n", menuIdle.Render(fmt.Sprintf("  %-10s", name)), menuIdle.Render(val)))
		}
	}
	if m.err != nil {
		b.WriteString("\n    " + menuError.Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n    " + keyHints("j/k", "select", "h/l", "adjust", "enter", "edit", "s", "start", "esc", "back") + "\n")
	return b.String()
}

// RunInteractive opens the preset menu and then the live view.
func RunInteractive(base *config.Config, logger *log.Logger) error {
	_, err := tea.NewProgram(NewInteractiveApp(base, logger), tea.WithAltScreen()).Run()
	return err
}
