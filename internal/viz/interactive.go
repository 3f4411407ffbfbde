package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/dropsim/internal/config"
)

const (
	stateMenu = iota
	stateSim
)

// picker lists the presets and hands over to the live model once one is
// chosen.
type picker struct {
	state, cursor int
	presets       []string
	width, height int
	err           error
	live          Model
}

func newPicker() picker {
	return picker{state: stateMenu, presets: config.ListPresets(), width: 80, height: 24}
}

func (m picker) Init() tea.Cmd { return nil }

func (m picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if ws, ok := msg.(tea.WindowSizeMsg); ok {
		m.width, m.height = ws.Width, ws.Height
	}
	if m.state == stateSim {
		next, cmd := m.live.Update(msg)
		m.live = next.(Model)
		return m, cmd
	}
	if key, ok := msg.(tea.KeyMsg); ok {
		return m.menuKey(key)
	}
	return m, nil
}

func (m picker) menuKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
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
	case "enter", " ":
		return m.start(m.presets[m.cursor])
	}
	return m, nil
}

func (m picker) start(name string) (tea.Model, tea.Cmd) {
	cfg := config.GetPreset(name)
	s, err := cfg.NewSimulation()
	if err == nil {
		err = cfg.Populate(s)
	}
	if err != nil {
		m.err = err
		return m, nil
	}
	s.Start()
	m.live = NewModel(s, name)
	m.live.resize(m.width-statsWidth-2*padLeft-1, m.height-2*padTop)
	m.state = stateSim
	return m, m.live.Init()
}

func (m picker) View() string {
	if m.state == stateSim {
		return m.live.View()
	}

	var b strings.Builder
	title := lipgloss.NewStyle().Foreground(CurrentTheme.Primary).Bold(true)
	sub := lipgloss.NewStyle().Foreground(CurrentTheme.Muted)
	b.WriteString("\n\n    " + title.Render("DROPSIM") + "\n    " + sub.Render("circles falling in a phone") + "\n    " + sub.Render("─────────────────────────") + "\n\n")

	for i, name := range m.presets {
		desc := config.Presets[name].Description
		if i == m.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n",
				lipgloss.NewStyle().Foreground(CurrentTheme.Accent).Bold(true).Render("▸"),
				lipgloss.NewStyle().Foreground(CurrentTheme.Text).Bold(true).Render(fmt.Sprintf("%-12s", name)),
				lipgloss.NewStyle().Foreground(CurrentTheme.Accent).Render(desc)))
		} else {
			b.WriteString(fmt.Sprintf("    %s  %s\n", sub.Render(fmt.Sprintf("  %-12s", name)), sub.Render(desc)))
		}
	}
	if m.err != nil {
		b.WriteString("\n    " + lipgloss.NewStyle().Foreground(CurrentTheme.Warning).Render(m.err.Error()) + "\n")
	}

	key := lipgloss.NewStyle().Foreground(CurrentTheme.Primary).Bold(true)
	b.WriteString("\n    " + key.Render("j/k") + sub.Render(" navigate  ") + key.Render("enter") + sub.Render(" drop  ") + key.Render("q") + sub.Render(" quit") + "\n")
	return b.String()
}

// RunInteractive opens the preset menu.
func RunInteractive() error {
	_, err := tea.NewProgram(newPicker(), tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}
