package viz

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"math"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/dropsim/internal/dynamo"
	"github.com/san-kum/dropsim/internal/physics"
	"github.com/san-kum/dropsim/internal/sensor"
	"github.com/san-kum/dropsim/internal/sim"
)

const (
	defaultCols     = 48
	defaultRows     = 24
	historyCapacity = 300
	statsWidth      = 44
	// Canvas padding in cells, used to map mouse clicks back to the arena.
	padTop, padLeft = 1, 2
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(padTop, padLeft)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).Padding(1, 2).Width(statsWidth)
)

type TickMsg time.Time

// Model drives a simulation from the bubbletea event loop and draws the
// arena as braille circles.
type Model struct {
	sim    *sim.Simulation
	orient *sensor.Orientation
	arena  physics.Arena
	name   string
	period time.Duration

	canvas        *Canvas
	scale         float64
	energyHistory []float64
	snap          dynamo.Snapshot
	message       string

	recording bool
	frames    []*image.Paletted
	showHelp  bool
}

// NewModel wraps s. The orientation takes over gravity once an arrow key
// is pressed.
func NewModel(s *sim.Simulation, name string) Model {
	cfg := s.Config()
	m := Model{
		sim:           s,
		orient:        sensor.NewOrientation(),
		arena:         cfg.Arena,
		name:          name,
		period:        time.Second / time.Duration(cfg.TickRate),
		energyHistory: make([]float64, 0, historyCapacity),
		snap:          s.Snapshot(),
	}
	m.resize(defaultCols, defaultRows)
	return m
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.period, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return m.tick() }

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			m.spawnAtCell(msg.X, msg.Y)
		}
	case tea.WindowSizeMsg:
		m.resize(msg.Width-statsWidth-2*padLeft-1, msg.Height-2*padTop)
	case TickMsg:
		if m.sim.Tick() {
			m.snap = m.sim.Snapshot()
			m.recordEnergy(m.snap.KineticEnergy())
		} else if err := m.sim.Err(); err != nil {
			m.message = err.Error()
		}
		m.draw()
		if m.recording {
			m.captureFrame()
		}
		return m, m.tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); key {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ":
		if m.sim.Running() {
			m.sim.Stop()
		} else {
			m.sim.Start()
		}
	case "c":
		m.sim.Clear()
		m.energyHistory = m.energyHistory[:0]
		m.message = ""
	case "s":
		m.report(m.sim.SpawnRandom())
	case "up", "down", "left", "right":
		if o, ok := sensor.OrientationToward(key); ok {
			m.orient.Set(o)
			m.sim.SetGravitySource(m.orient)
		}
	case "r", "R":
		m.orient.Rotate(key == "r")
		m.sim.SetGravitySource(m.orient)
	case "+", "=":
		m.scaleGravity(1.25)
	case "-", "_":
		m.scaleGravity(0.8)
	case "t":
		NextTheme()
	case "g":
		if m.recording {
			if err := m.saveGIF("dropsim.gif"); err != nil {
				m.message = err.Error()
			} else {
				m.message = fmt.Sprintf("saved %d frames to dropsim.gif", len(m.frames))
			}
			m.recording, m.frames = false, nil
		} else {
			m.recording, m.frames = true, make([]*image.Paletted, 0)
		}
	case "?":
		m.showHelp = !m.showHelp
	}
	m.snap = m.sim.Snapshot()
	m.draw()
	return m, nil
}

func (m *Model) report(_ dynamo.BodyID, err error) {
	if err != nil {
		m.message = err.Error()
	}
}

func (m *Model) scaleGravity(f float64) {
	g := m.sim.Params().GravityStrength * f
	if err := m.sim.SetParam("gravity", g); err != nil {
		m.message = err.Error()
	}
}

func (m *Model) recordEnergy(e float64) {
	if len(m.energyHistory) == historyCapacity {
		copy(m.energyHistory, m.energyHistory[1:])
		m.energyHistory = m.energyHistory[:historyCapacity-1]
	}
	m.energyHistory = append(m.energyHistory, e)
}

// resize fits the arena into a canvas of at most cols x rows cells.
func (m *Model) resize(cols, rows int) {
	cols, rows = max(cols, 8), max(rows, 4)
	m.scale = math.Min(float64(cols*2)/m.arena.Width, float64(rows*4)/m.arena.Height)
	w := max(int(math.Ceil(m.arena.Width*m.scale/2)), 1)
	h := max(int(math.Ceil(m.arena.Height*m.scale/4)), 1)
	m.canvas = NewCanvas(w, h)
	m.draw()
}

func (m *Model) toDots(p dynamo.Vec2) (int, int) {
	return int(math.Round(p[0] * m.scale)), int(math.Round(p[1] * m.scale))
}

// CellToArena maps a terminal cell inside the canvas view to the arena
// point under its centre.
func (m *Model) CellToArena(x, y int) (dynamo.Vec2, bool) {
	col, row := x-padLeft, y-padTop
	if col < 0 || row < 0 || col >= m.canvas.Width || row >= m.canvas.Height {
		return dynamo.Vec2{}, false
	}
	return dynamo.Vec2{(float64(col)*2 + 1) / m.scale, (float64(row)*4 + 2) / m.scale}, true
}

func (m *Model) spawnAtCell(x, y int) {
	if at, ok := m.CellToArena(x, y); ok {
		m.report(m.sim.Spawn(at))
		m.snap = m.sim.Snapshot()
		m.draw()
	}
}

func (m *Model) draw() {
	m.canvas.Clear()
	w, h := m.canvas.DotWidth(), m.canvas.DotHeight()
	m.canvas.DrawLine(0, 0, w-1, 0)
	m.canvas.DrawLine(0, h-1, w-1, h-1)
	m.canvas.DrawLine(0, 0, 0, h-1)
	m.canvas.DrawLine(w-1, 0, w-1, h-1)

	top := int(m.arena.TopInset * m.scale)
	bottom := int(m.arena.Floor() * m.scale)
	for x := 0; x < w; x += 4 {
		m.canvas.Set(x, top)
		m.canvas.Set(x, bottom)
	}

	for i := range m.snap.Bodies {
		b := &m.snap.Bodies[i]
		cx, cy := m.toDots(b.Pos)
		r := int(math.Round(b.Radius * m.scale))
		m.canvas.DrawCircle(cx, cy, r)
		if r >= 3 {
			m.canvas.DrawSpoke(cx, cy, r, b.Rotation)
		}
	}
}

// View renders the TUI interface.
func (m Model) View() string {
	canvasView := canvasStyle.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(headerStyle().Render(strings.ToUpper(m.name)) + "\n")
	status := "PAUSED"
	if m.sim.Running() {
		status = "RUNNING"
	}
	if m.recording {
		status += " ● REC"
	}
	s.WriteString(statusStyle(m.sim.Running()).Render(status) + "\n\n")

	if len(m.energyHistory) > 1 {
		chart := asciigraph.Plot(m.energyHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Kinetic energy"))
		s.WriteString(lipgloss.NewStyle().Foreground(CurrentTheme.Primary).Render(chart) + "\n\n")
	}

	row := func(label, value string) {
		s.WriteString(labelStyle().Render(label) + valueStyle().Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2fs", m.snap.Time))
	row("Bodies", fmt.Sprintf("%d", m.snap.Len()))
	row("Gravity", fmt.Sprintf("%s  %.0f", dynamo.Direction(m.snap.Gravity), m.sim.Params().GravityStrength))
	row("Contacts", fmt.Sprintf("%d pairs", m.snap.ContactPairs))
	row("Impacts", fmt.Sprintf("%d", m.snap.Impacts))
	row("Stable", ProgressBar(m.snap.StableFraction(), 16)+fmt.Sprintf(" %3.0f%%", 100*m.snap.StableFraction()))
	row("Speeds", Sparkline(speeds(m.snap), 20))

	if m.message != "" {
		s.WriteString("\n" + lipgloss.NewStyle().Foreground(CurrentTheme.Warning).Render(m.message) + "\n")
	}
	s.WriteString(hintStyle().Render("\n─────────────────────\nSP:Run  C:Clear  S:Spawn  Q:Quit\n←↑→↓:Tilt  R:Rotate  ?:Help"))

	stats := statsStyle.BorderForeground(CurrentTheme.Frame).Render(s.String())
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, stats)
	if m.showHelp {
		return helpText + "\n\n" + mainView
	}
	return mainView
}

const helpText = `
╔══════════════════════════════════════╗
║           KEYBOARD SHORTCUTS         ║
╠══════════════════════════════════════╣
║  Space    - Start/Stop simulation    ║
║  Click    - Drop a body              ║
║  S        - Drop a body at random    ║
║  C        - Clear the arena          ║
║  Arrows   - Tilt the phone           ║
║  R / r    - Rotate counter/clockwise ║
║  + / -    - Stronger/weaker gravity  ║
║  G        - Toggle GIF recording     ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝`

func speeds(s dynamo.Snapshot) []float64 {
	out := make([]float64, len(s.Bodies))
	for i := range s.Bodies {
		out[i] = s.Bodies[i].Speed()
	}
	return out
}

func (m *Model) captureFrame() {
	const charW, charH = 8, 16
	dotW, dotH := charW/2, charH/4
	img := image.NewPaletted(image.Rect(0, 0, m.canvas.Width*charW, m.canvas.Height*charH), color.Palette{color.Black, color.White})
	for y := 0; y < m.canvas.DotHeight(); y++ {
		for x := 0; x < m.canvas.DotWidth(); x++ {
			if !m.canvas.IsSet(x, y) {
				continue
			}
			for py := 0; py < dotH; py++ {
				for px := 0; px < dotW; px++ {
					img.SetColorIndex(x*dotW+px, y*dotH+py, 1)
				}
			}
		}
	}
	m.frames = append(m.frames, img)
}

func (m *Model) saveGIF(path string) error {
	if len(m.frames) == 0 {
		return nil
	}
	anim := gif.GIF{LoopCount: 0}
	delay := max(int(m.period/(10*time.Millisecond)), 1)
	for _, frame := range m.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, delay)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gif.EncodeAll(f, &anim)
}

// Run starts the live view for s and blocks until the user quits.
func Run(s *sim.Simulation, name string) error {
	s.Start()
	defer s.Stop()
	_, err := tea.NewProgram(NewModel(s, name), tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}
