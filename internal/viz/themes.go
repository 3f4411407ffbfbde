package viz

import "github.com/charmbracelet/lipgloss"

// Theme colours the HUD and the arena frame.
type Theme struct {
	Name    string
	Primary lipgloss.Color
	Accent  lipgloss.Color
	Frame   lipgloss.Color
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
}

var (
	ThemePhone = Theme{
		Name:    "phone",
		Primary: lipgloss.Color("#0a84ff"),
		Accent:  lipgloss.Color("#ff9f0a"),
		Frame:   lipgloss.Color("#3a3a3c"),
		Text:    lipgloss.Color("#f2f2f7"),
		Muted:   lipgloss.Color("#8e8e93"),
		Success: lipgloss.Color("#30d158"),
		Warning: lipgloss.Color("#ffd60a"),
	}

	ThemeRetroGreen = Theme{
		Name:    "retro",
		Primary: lipgloss.Color("#00ff00"),
		Accent:  lipgloss.Color("#88ff88"),
		Frame:   lipgloss.Color("#005500"),
		Text:    lipgloss.Color("#00ff00"),
		Muted:   lipgloss.Color("#007700"),
		Success: lipgloss.Color("#88ff88"),
		Warning: lipgloss.Color("#ffff00"),
	}

	ThemeOcean = Theme{
		Name:    "ocean",
		Primary: lipgloss.Color("#00a8cc"),
		Accent:  lipgloss.Color("#ffd700"),
		Frame:   lipgloss.Color("#224466"),
		Text:    lipgloss.Color("#e0f0ff"),
		Muted:   lipgloss.Color("#4488aa"),
		Success: lipgloss.Color("#00ff88"),
		Warning: lipgloss.Color("#ffcc00"),
	}

	ThemeSunset = Theme{
		Name:    "sunset",
		Primary: lipgloss.Color("#ff6b6b"),
		Accent:  lipgloss.Color("#feca57"),
		Frame:   lipgloss.Color("#5a3b5c"),
		Text:    lipgloss.Color("#fff5f5"),
		Muted:   lipgloss.Color("#8b6b8c"),
		Success: lipgloss.Color("#5fd068"),
		Warning: lipgloss.Color("#ffc048"),
	}

	CurrentTheme = ThemePhone

	Themes = []Theme{ThemePhone, ThemeRetroGreen, ThemeOcean, ThemeSunset}
)

// GetTheme returns a theme by name, falling back to the phone theme.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemePhone
}

func SetTheme(name string) {
	CurrentTheme = GetTheme(name)
}

// NextTheme switches to the theme after the current one.
func NextTheme() Theme {
	for i, t := range Themes {
		if t.Name == CurrentTheme.Name {
			CurrentTheme = Themes[(i+1)%len(Themes)]
			return CurrentTheme
		}
	}
	CurrentTheme = ThemePhone
	return CurrentTheme
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}
