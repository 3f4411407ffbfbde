package gui

import (
	"context"
	"fmt"
	"log"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/san-kum/dropsim/internal/audio"
	"github.com/san-kum/dropsim/internal/config"
	"github.com/san-kum/dropsim/internal/dynamo"
	"github.com/san-kum/dropsim/internal/sensor"
	"github.com/san-kum/dropsim/internal/sim"
)

var (
	ColBg      = rl.NewColor(10, 10, 10, 255)
	ColPhone   = rl.NewColor(24, 24, 26, 255)
	ColAccent  = rl.NewColor(180, 180, 180, 255)
	ColSelect  = rl.NewColor(255, 255, 255, 255)
	ColText    = rl.NewColor(140, 140, 140, 255)
	ColTextDim = rl.NewColor(60, 60, 60, 255)
	ColInset   = rl.NewColor(40, 40, 44, 255)
)

const (
	windowW, windowH = 1280, 720
	margin           = 24
	panelX           = 760
	maxTelemetry     = 240
)

type App struct {
	Presets  []string
	Selected int
	InMenu   bool

	Name   string
	Cfg    *config.Config
	Sim    *sim.Simulation
	Orient *sensor.Orientation

	// arena to screen
	Scale  float32
	Origin rl.Vector2

	Telemetry []float64
	Font      rl.Font
	Audio     *audio.Processor
	Muted     bool

	logger *log.Logger
	cancel context.CancelFunc
	loop   *sim.Loop
	done   chan error
}

func initWindow() {
	rl.InitWindow(windowW, windowH, "dropsim")
	rl.SetTargetFPS(60)
	rl.SetExitKey(0)
}

func loadFont() rl.Font {
	font := rl.LoadFontEx("/usr/share/fonts/liberation/LiberationMono-Regular.ttf", 32, nil, 0)
	rl.SetTextureFilter(font.Texture, rl.FilterBilinear)
	return font
}

// NewApp opens on the preset menu when preset is empty; otherwise it
// starts that preset immediately.
func NewApp(preset string, sound bool, logger *log.Logger) (*App, error) {
	if logger == nil {
		logger = log.Default()
	}
	app := &App{
		Presets:   config.ListPresets(),
		InMenu:    preset == "",
		Font:      loadFont(),
		Telemetry: make([]float64, 0, maxTelemetry),
		Muted:     !sound,
		logger:    logger,
	}
	if preset != "" {
		cfg := config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s", preset)
		}
		if err := app.Load(preset, cfg); err != nil {
			return nil, err
		}
	}
	return app, nil
}

// RunInteractive opens the window on the preset menu.
func RunInteractive(sound bool, logger *log.Logger) error {
	initWindow()
	defer rl.CloseWindow()
	app, err := NewApp("", sound, logger)
	if err != nil {
		return err
	}
	return app.RunLoop()
}

// Run opens the window on an already built configuration.
func Run(name string, cfg *config.Config, sound bool, logger *log.Logger) error {
	initWindow()
	defer rl.CloseWindow()
	app, err := NewApp("", sound, logger)
	if err != nil {
		return err
	}
	if err := app.Load(name, cfg); err != nil {
		return err
	}
	return app.RunLoop()
}

// Load replaces the running simulation with one built from cfg and drives
// it from a fixed-rate loop in the background.
func (a *App) Load(name string, cfg *config.Config) error {
	a.unload()

	if a.Audio == nil && !a.Muted {
		a.Audio = audio.NewProcessor(cfg.Arena.Width, a.logger)
		if err := a.Audio.Start(); err != nil {
			a.Audio, a.Muted = nil, true
		}
	}

	s, err := cfg.NewSimulation(sim.WithImpactHandler(a.onImpact))
	if err != nil {
		return err
	}
	if err := cfg.Populate(s); err != nil {
		return err
	}

	a.Name, a.Cfg, a.Sim = name, cfg, s
	a.Orient = sensor.NewOrientation()
	a.Telemetry = a.Telemetry[:0]
	a.fit()

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.loop = sim.NewLoop(s, cfg.Sim.TickRate, a.logger)
	a.done = make(chan error, 1)
	go func() { a.done <- a.loop.Run(ctx) }()

	s.Start()
	a.InMenu = false
	a.logger.Printf("[gui] loaded %s", name)
	return nil
}

func (a *App) unload() {
	if a.cancel == nil {
		return
	}
	a.cancel()
	<-a.done
	a.Sim.Stop()
	st := a.loop.Stats()
	a.logger.Printf("[gui] unloaded %s after %d ticks, %d skipped", a.Name, st.Ticks, st.Skipped)
	a.cancel, a.loop, a.done = nil, nil, nil
}

func (a *App) onImpact(im dynamo.Impact) {
	if a.Audio != nil && !a.Muted {
		a.Audio.Impact(im.Speed, im.Radius, im.Point[0])
	}
}

// fit scales the arena into the left part of the window.
func (a *App) fit() {
	ar := a.Cfg.Arena
	sx := float32(panelX-2*margin) / float32(ar.Width)
	sy := float32(windowH-2*margin) / float32(ar.Height)
	a.Scale = min(sx, sy)
	a.Origin = rl.NewVector2(
		(panelX-float32(ar.Width)*a.Scale)/2,
		(windowH-float32(ar.Height)*a.Scale)/2,
	)
}

func (a *App) toScreen(p dynamo.Vec2) rl.Vector2 {
	return rl.NewVector2(a.Origin.X+float32(p[0])*a.Scale, a.Origin.Y+float32(p[1])*a.Scale)
}

func (a *App) toArena(v rl.Vector2) dynamo.Vec2 {
	return dynamo.Vec2{float64((v.X - a.Origin.X) / a.Scale), float64((v.Y - a.Origin.Y) / a.Scale)}
}

func (a *App) RunLoop() error {
	defer a.shutdown()
	for !rl.WindowShouldClose() {
		if quit := a.Update(); quit {
			return nil
		}
		a.Draw()
	}
	return nil
}

func (a *App) shutdown() {
	a.unload()
	if a.Audio != nil {
		a.Audio.Stop()
	}
}

// Update handles input and reports whether the app should quit.
func (a *App) Update() bool {
	if rl.IsKeyPressed(rl.KeyQ) {
		return true
	}
	if a.InMenu {
		a.updateMenu()
		return false
	}

	if rl.IsKeyPressed(rl.KeyEscape) {
		a.unload()
		a.InMenu = true
		return false
	}
	if rl.IsKeyPressed(rl.KeySpace) {
		if a.Sim.Running() {
			a.Sim.Stop()
		} else {
			a.Sim.Start()
		}
	}
	if rl.IsKeyPressed(rl.KeyC) {
		a.Sim.Clear()
		a.Telemetry = a.Telemetry[:0]
	}
	if rl.IsKeyPressed(rl.KeyS) {
		a.report(a.Sim.SpawnRandom())
	}
	if rl.IsKeyPressed(rl.KeyM) {
		a.Muted = !a.Muted
	}
	if rl.IsKeyPressed(rl.KeyR) {
		a.Orient.Rotate(!rl.IsKeyDown(rl.KeyLeftShift))
		a.Sim.SetGravitySource(a.Orient)
	}
	for key, dir := range map[int32]string{rl.KeyUp: "up", rl.KeyDown: "down", rl.KeyLeft: "left", rl.KeyRight: "right"} {
		if rl.IsKeyPressed(key) {
			o, _ := sensor.OrientationToward(dir)
			a.Orient.Set(o)
			a.Sim.SetGravitySource(a.Orient)
		}
	}
	if rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		at := a.toArena(rl.GetMousePosition())
		if at[0] >= 0 && at[0] <= a.Cfg.Arena.Width && at[1] >= 0 && at[1] <= a.Cfg.Arena.Height {
			a.report(a.Sim.Spawn(at))
		}
	}

	snap := a.Sim.Snapshot()
	if len(a.Telemetry) == maxTelemetry {
		a.Telemetry = append(a.Telemetry[:0], a.Telemetry[1:]...)
	}
	a.Telemetry = append(a.Telemetry, snap.KineticEnergy())
	return false
}

func (a *App) report(_ dynamo.BodyID, err error) {
	if err != nil {
		a.logger.Printf("[gui] spawn: %v", err)
	}
}

func (a *App) updateMenu() {
	if rl.IsKeyPressed(rl.KeyDown) || rl.IsKeyPressed(rl.KeyJ) {
		a.Selected = (a.Selected + 1) % len(a.Presets)
	}
	if rl.IsKeyPressed(rl.KeyUp) || rl.IsKeyPressed(rl.KeyK) {
		a.Selected = (a.Selected + len(a.Presets) - 1) % len(a.Presets)
	}
	if rl.IsKeyPressed(rl.KeyEnter) {
		name := a.Presets[a.Selected]
		if err := a.Load(name, config.GetPreset(name)); err != nil {
			a.logger.Printf("[gui] load %s: %v", name, err)
		}
	}
}

func (a *App) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(ColBg)

	if a.InMenu {
		a.drawMenu()
	} else {
		snap := a.Sim.Snapshot()
		a.drawArena(snap)
		a.DrawHUD(snap)
	}

	rl.EndDrawing()
}

func (a *App) DrawHUD(snap dynamo.Snapshot) {
	a.drawText("dropsim", panelX, 30, 24, ColSelect)
	a.drawText(fmt.Sprintf(":: %s", a.Name), panelX+120, 34, 16, ColText)

	status, col := "RUNNING", ColSelect
	if !snap.Running {
		status, col = "PAUSED", ColTextDim
	}
	if err := a.Sim.Err(); err != nil {
		status, col = "HALTED", rl.Red
	}
	a.drawText(status, 1150, 30, 16, col)

	y := 90
	line := func(label, value string) {
		a.drawText(fmt.Sprintf("%-10s %s", label, value), panelX, y, 16, ColText)
		y += 24
	}
	line("time", fmt.Sprintf("%.2fs", snap.Time))
	line("bodies", fmt.Sprintf("%d", snap.Len()))
	line("gravity", dynamo.Direction(snap.Gravity))
	line("stable", fmt.Sprintf("%.0f%%", 100*snap.StableFraction()))
	line("contacts", fmt.Sprintf("%d pairs", snap.ContactPairs))
	line("impacts", fmt.Sprintf("%d", snap.Impacts))
	sound := "on"
	if a.Muted {
		sound = "off"
	}
	line("sound", sound)

	a.DrawTelemetry()

	a.drawText("[SPACE] RUN  [CLICK] DROP  [S] RANDOM  [C] CLEAR", panelX, 650, 14, ColTextDim)
	a.drawText("[ARROWS] TILT  [R] ROTATE  [M] SOUND  [ESC] MENU  [Q] QUIT", panelX, 672, 14, ColTextDim)
	a.drawText(fmt.Sprintf("%d FPS", int32(rl.GetFPS())), 30, 690, 14, ColTextDim)
}

func (a *App) drawText(text string, x, y int, size int, color rl.Color) {
	rl.DrawTextEx(a.Font, text, rl.NewVector2(float32(x), float32(y)), float32(size), 1, color)
}

func (a *App) DrawTelemetry() {
	if len(a.Telemetry) < 2 {
		return
	}

	rectX, rectY := panelX, 300
	width, height := 400, 80

	minVal, maxVal := a.Telemetry[0], a.Telemetry[0]
	for _, v := range a.Telemetry {
		minVal, maxVal = min(minVal, v), max(maxVal, v)
	}
	if maxVal == minVal {
		maxVal = minVal + 1
	}

	points := make([]rl.Vector2, len(a.Telemetry))
	for i, val := range a.Telemetry {
		px := float32(rectX) + (float32(i)/float32(len(a.Telemetry)))*float32(width)
		norm := (val - minVal) / (maxVal - minVal)
		py := float32(rectY+height) - float32(norm)*float32(height)
		points[i] = rl.NewVector2(px, py)
	}

	rl.DrawLineStrip(points, ColAccent)
	a.drawText(fmt.Sprintf("KE: %.2e", a.Telemetry[len(a.Telemetry)-1]), rectX, rectY+height+10, 14, ColText)
}

func (a *App) drawMenu() {
	a.drawText("dropsim", 50, 50, 40, ColSelect)
	a.drawText("Select Preset", 50, 100, 16, ColTextDim)

	y := 160
	for i, name := range a.Presets {
		desc := config.Presets[name].Description
		if i == a.Selected {
			a.drawText(fmt.Sprintf("> %-12s %s", name, desc), 50, y, 20, ColSelect)
		} else {
			a.drawText(fmt.Sprintf("  %-12s %s", name, desc), 50, y, 20, ColText)
		}
		y += 28
	}

	a.drawText("ARROWS: NAVIGATE  ENTER: SELECT  Q: QUIT", 850, 680, 14, ColTextDim)
}
