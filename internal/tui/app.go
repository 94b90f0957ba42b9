// Package tui is the terminal front end: pick a preset, then steer the
// attractor and tune the swarm while it runs.
package tui

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/swarmsim/internal/config"
	"github.com/san-kum/swarmsim/internal/density"
	"github.com/san-kum/swarmsim/internal/export"
	"github.com/san-kum/swarmsim/internal/metrics"
	"github.com/san-kum/swarmsim/internal/sim"
	"github.com/san-kum/swarmsim/internal/tuning"
	"github.com/san-kum/swarmsim/internal/viz"
)

type state int

const (
	stateMenu state = iota
	stateSim
)

// Options configures the app. With Config set the menu is skipped.
type Options struct {
	Config      *config.Config
	Name        string
	Theme       string
	SnapshotDir string
	Logger      *slog.Logger
}

type model struct {
	state   state
	cursor  int
	presets []string
	opts    Options

	name     string
	cfg      *config.Config
	engine   *sim.Engine
	frames   *sim.FramePool
	frame    *density.Frame
	stats    sim.FrameStats
	recorder *metrics.Recorder

	tuning tuning.Tuning
	ax, ay float32

	paused    bool
	showGraph bool
	status    string
	err       error

	theme  viz.Theme
	styles viz.Styles
	canvas *viz.Canvas

	ticks     int
	lastFrame time.Time
	fps       float64

	width  int
	height int
}

type tickMsg time.Time

type snapshotMsg struct {
	path string
	err  error
}

func tick() tea.Cmd {
	return tea.Tick(16*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func NewApp(opts Options) *model {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.SnapshotDir == "" {
		opts.SnapshotDir = "."
	}
	if opts.Name == "" {
		opts.Name = "custom"
	}
	theme := viz.GetTheme(opts.Theme)
	m := &model{
		state:   stateMenu,
		presets: config.ListPresets(),
		opts:    opts,
		theme:   theme,
		styles:  viz.NewStyles(theme),
		width:   80,
		height:  24,
	}
	m.resize()
	if opts.Config != nil {
		m.start(opts.Name, opts.Config)
	}
	return m
}

// Run blocks until the user quits.
func Run(opts Options) error {
	m := NewApp(opts)
	defer m.stop()
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}

func (m model) Init() tea.Cmd {
	if m.state == stateSim {
		return tick()
	}
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		if m.state == stateSim && msg.Button == tea.MouseButtonLeft {
			m.steer(msg.X, msg.Y)
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil
	case snapshotMsg:
		if msg.err != nil {
			m.status = "snapshot failed: " + msg.err.Error()
		} else {
			m.status = "saved " + msg.path
		}
		return m, nil
	case tickMsg:
		if m.state != stateSim || m.engine == nil {
			return m, nil
		}
		m.ticks++
		if !m.paused {
			now := time.Time(msg)
			if !m.lastFrame.IsZero() {
				if dt := now.Sub(m.lastFrame).Seconds(); dt > 0 {
					m.fps = 1 / dt
				}
			}
			m.lastFrame = now
			m.step()
		}
		return m, tick()
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch m.state {
	case stateMenu:
		return m.menuKey(msg)
	case stateSim:
		return m.simKey(msg)
	}
	return m, nil
}

func (m model) menuKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.presets)-1 {
			m.cursor++
		}
	case "t":
		m.cycleTheme()
	case "enter", " ":
		name := m.presets[m.cursor]
		m.start(name, config.GetPreset(name))
		if m.err != nil {
			return m, nil
		}
		return m, tea.Batch(tea.ClearScreen, tick())
	}
	return m, nil
}

func (m model) simKey(msg tea.KeyMsg) (model, tea.Cmd) {
	dx := float32(m.cfg.Width) / 50
	dy := float32(m.cfg.Height) / 50

	switch msg.String() {
	case "q", "ctrl+c":
		m.stop()
		return m, tea.Quit
	case "esc":
		m.stop()
		m.state = stateMenu
		return m, tea.ClearScreen
	case " ", "p":
		m.paused = !m.paused
	case "r":
		m.start(m.name, m.cfg)
		return m, tea.ClearScreen
	case "up", "k":
		m.ay = max(m.ay-dy, 0)
	case "down", "j":
		m.ay = min(m.ay+dy, float32(m.cfg.Height))
	case "left", "h":
		m.ax = max(m.ax-dx, 0)
	case "right", "l":
		m.ax = min(m.ax+dx, float32(m.cfg.Width))
	case "a":
		m.tuning = m.tuning.Apply(tuning.AttractionUp)
	case "z":
		m.tuning = m.tuning.Apply(tuning.AttractionDown)
	case "f":
		m.tuning = m.tuning.Apply(tuning.FrictionUp)
	case "v":
		m.tuning = m.tuning.Apply(tuning.FrictionDown)
	case "g":
		m.showGraph = !m.showGraph
	case "t":
		m.cycleTheme()
	case "s":
		return m, m.snapshot()
	}
	return m, nil
}

func (m *model) start(name string, cfg *config.Config) {
	m.stop()
	m.err = nil
	m.status = ""

	opts, err := cfg.Engine()
	if err != nil {
		m.err = err
		return
	}
	engine, err := sim.New(opts, sim.WithLogger(m.opts.Logger))
	if err != nil {
		m.err = err
		return
	}

	budgetMS := float64(cfg.FrameBudget) / float64(time.Millisecond)
	m.name = name
	m.cfg = cfg
	m.engine = engine
	m.frames = sim.NewFramePool(cfg.Width, cfg.Height)
	m.frame = nil
	m.recorder = metrics.NewRecorder(240, metrics.Standard(cfg.Particles, budgetMS)...)
	m.tuning = cfg.Tuning()
	m.ax, m.ay = float32(cfg.Width)/2, float32(cfg.Height)/2
	m.paused = false
	m.lastFrame = time.Time{}
	m.fps = 0
	m.state = stateSim
}

func (m *model) stop() {
	if m.engine != nil {
		m.engine.Close()
		m.engine = nil
	}
}

func (m *model) step() {
	in := sim.Input{AttractorX: m.ax, AttractorY: m.ay, Tuning: m.tuning}
	f, stats, err := m.engine.Step(in)
	if err != nil {
		m.err = err
		m.paused = true
		return
	}
	m.frame = f
	m.stats = stats
	m.recorder.OnFrame(f, stats)
}

// snapshot copies the current frame so encoding can run off the event loop
// while the engine keeps overwriting its own frame.
func (m model) snapshot() tea.Cmd {
	if m.frame == nil {
		return nil
	}
	frames := m.frames
	clone := frames.Clone(m.frame)
	path := filepath.Join(m.opts.SnapshotDir, fmt.Sprintf("%s-%06d.png", m.name, m.stats.Frame))
	return func() tea.Msg {
		defer frames.Put(clone)
		return snapshotMsg{path: path, err: export.SavePNG(path, clone)}
	}
}

func (m *model) cycleTheme() {
	m.theme = viz.NextTheme(m.theme)
	m.styles = viz.NewStyles(m.theme)
}

const (
	headerRows = 2
	footerRows = 6
	sideCols   = 2
)

func (m *model) resize() {
	cw := max(m.width-2*sideCols, 20)
	ch := max(m.height-headerRows-footerRows, 6)
	m.canvas = viz.NewCanvas(cw, ch)
}

// steer maps a terminal cell inside the field panel to field coordinates.
func (m *model) steer(x, y int) {
	cx := x - sideCols
	cy := y - headerRows
	if cx < 0 || cy < 0 || cx >= m.canvas.Width || cy >= m.canvas.Height {
		return
	}
	m.ax = (float32(cx) + 0.5) / float32(m.canvas.Width) * float32(m.cfg.Width)
	m.ay = (float32(cy) + 0.5) / float32(m.canvas.Height) * float32(m.cfg.Height)
}

func (m model) View() string {
	switch m.state {
	case stateMenu:
		return m.viewMenu()
	case stateSim:
		return m.viewSim()
	}
	return ""
}

func (m model) viewMenu() string {
	s := m.styles
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString("    " + viz.GradientText("s w a r m s i m", m.theme.Title, m.theme.Accent) + "\n")
	b.WriteString(s.Label.Render("    "+strings.Repeat("─", 30)) + "\n\n")

	for i, name := range m.presets {
		p := config.GetPreset(name)
		desc := fmt.Sprintf("%d particles %dx%d %s", p.Particles, p.Width, p.Height, p.Density.Mode)
		if i == m.cursor {
			b.WriteString("    " + s.Title.Render("▸ ") + s.Value.Render(fmt.Sprintf("%-10s", name)) + s.Label.Render(desc) + "\n")
		} else {
			b.WriteString("      " + s.Label.Render(fmt.Sprintf("%-10s", name)+desc) + "\n")
		}
	}

	b.WriteString("\n")
	if m.err != nil {
		b.WriteString("    " + s.Low.Render(m.err.Error()) + "\n\n")
	}
	b.WriteString(s.KeyHint.Render("    ↑↓ select   enter start   t theme   q quit") + "\n")
	return b.String()
}

func (m model) viewSim() string {
	s := m.styles
	var b strings.Builder

	status := s.Running.Render("● running")
	if m.paused {
		status = s.Paused.Render("○ paused")
	}
	b.WriteString(fmt.Sprintf("\n  %s %s  %s  %s\n",
		viz.Spinner(m.ticks), s.Title.Render(m.name), status,
		s.Label.Render(fmt.Sprintf("%.0ffps  %s kernel  %d workers", m.fps, m.engine.KernelName(), m.engine.Workers()))))

	if m.showGraph {
		b.WriteString(m.viewGraph())
	} else {
		m.canvas.Clear()
		if m.frame != nil {
			m.canvas.Plot(m.frame, m.engine.Options().Palette.Background)
		}
		m.canvas.Cross(m.ax, m.ay, m.cfg.Width, m.cfg.Height)
		for _, line := range strings.Split(strings.TrimRight(m.canvas.String(), "\n"), "\n") {
			b.WriteString("  " + s.Field.Render(line) + "\n")
		}
	}

	st := m.stats
	b.WriteString(fmt.Sprintf("\n  %s %s  %s %s  %s %s  %s %s\n",
		s.Label.Render("frame"), s.Value.Render(fmt.Sprint(st.Frame)),
		s.Label.Render("kin"), s.Value.Render(st.Kinematics.String()),
		s.Label.Render("den"), s.Value.Render(st.Density.String()),
		s.Label.Render("comp"), s.Value.Render(st.Composite.String())))

	coverage := 0.0
	if m.cfg.Particles > 0 {
		coverage = float64(st.InRange) / float64(m.cfg.Particles)
	}
	b.WriteString(fmt.Sprintf("  %s %s %s  %s\n",
		s.Label.Render("in range"), s.ProgressBar(coverage, 20), s.Value.Render(fmt.Sprintf("%5.1f%%", coverage*100)),
		s.Sparkline(m.recorder.Series(), 30)))

	b.WriteString(fmt.Sprintf("  %s %s  %s\n",
		s.Label.Render(m.tuning.String()),
		s.Label.Render(fmt.Sprintf("attractor=(%.0f,%.0f)", m.ax, m.ay)),
		s.Low.Render(m.degraded())))

	if m.status != "" {
		b.WriteString("  " + s.Label.Render(m.status) + "\n")
	}
	if m.err != nil {
		b.WriteString("  " + s.Low.Render(m.err.Error()) + "\n")
	}
	b.WriteString(s.KeyHint.Render("  ←↑↓→/mouse steer  a/z attraction  f/v friction  p pause  g graph  s snapshot  r restart  esc menu  q quit") + "\n")
	return b.String()
}

func (m model) degraded() string {
	st := m.stats
	var parts []string
	if st.Skipped {
		parts = append(parts, "over budget")
	}
	if st.Failures > 0 {
		parts = append(parts, fmt.Sprintf("%d failed jobs", st.Failures))
	}
	if st.InlineJobs > 0 {
		parts = append(parts, fmt.Sprintf("%d inline", st.InlineJobs))
	}
	return strings.Join(parts, " ")
}

func (m model) viewGraph() string {
	series := m.recorder.Series()
	if len(series) < 2 {
		return m.styles.Label.Render("  collecting frame times...") + "\n"
	}
	graph := asciigraph.Plot(series,
		asciigraph.Height(max(m.canvas.Height-2, 3)),
		asciigraph.Width(max(m.canvas.Width-10, 10)),
		asciigraph.Offset(4),
		asciigraph.Caption("frame time (ms)"),
	)
	return m.styles.Field.Render(graph) + "\n"
}
