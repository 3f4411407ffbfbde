package gui

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/san-kum/dropsim/internal/dynamo"
)

func bodyColor(c dynamo.Color) rl.Color {
	return rl.NewColor(c.R, c.G, c.B, 255)
}

// drawArena draws the phone outline, the inset bands and every body.
func (a *App) drawArena(snap dynamo.Snapshot) {
	ar := a.Cfg.Arena
	w, h := float32(ar.Width)*a.Scale, float32(ar.Height)*a.Scale
	ox, oy := int32(a.Origin.X), int32(a.Origin.Y)

	rl.DrawRectangle(ox, oy, int32(w), int32(h), ColPhone)
	rl.DrawRectangle(ox, oy, int32(w), int32(float32(ar.TopInset)*a.Scale), ColInset)
	floor := int32(float32(ar.Floor()) * a.Scale)
	rl.DrawRectangle(ox, oy+floor, int32(w), int32(h)-floor, ColInset)
	rl.DrawRectangleLines(ox-1, oy-1, int32(w)+2, int32(h)+2, ColAccent)

	for i := range snap.Bodies {
		a.drawBody(&snap.Bodies[i])
	}

	a.drawGravityArrow(snap.Gravity)
}

func (a *App) drawBody(b *dynamo.Body) {
	c := a.toScreen(b.Pos)
	r := float32(b.Radius) * a.Scale
	col := bodyColor(b.Color)
	if b.Stable {
		col = rl.ColorAlpha(col, 0.75)
	}
	rl.DrawCircleV(c, r, col)
	rl.DrawCircleLines(int32(c.X), int32(c.Y), r, rl.ColorAlpha(rl.Black, 0.4))

	// rotation marker
	h := dynamo.Heading(b.Rotation)
	tip := rl.NewVector2(c.X+r*0.8*float32(h[0]), c.Y+r*0.8*float32(h[1]))
	rl.DrawLineV(c, tip, rl.ColorAlpha(rl.White, 0.7))

	if r >= 14 {
		label := b.Shape.String()[:1]
		rl.DrawTextEx(a.Font, label, rl.NewVector2(c.X-r*0.3, c.Y-r*0.4), r*0.8, 1, rl.ColorAlpha(rl.White, 0.9))
	}
}

func (a *App) drawGravityArrow(g dynamo.Vec2) {
	if g.Len() == 0 {
		return
	}
	n := g.Normalize()
	c := rl.NewVector2(panelX+380, 42)
	tip := rl.NewVector2(c.X+float32(n[0])*16, c.Y+float32(n[1])*16)
	rl.DrawLineEx(c, tip, 3, ColSelect)
	rl.DrawCircleV(tip, 4, ColSelect)
}
