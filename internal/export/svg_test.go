package export

import (
	"strings"
	"testing"

	"github.com/san-kum/dropsim/internal/dynamo"
	"github.com/san-kum/dropsim/internal/physics"
)

func TestSnapshotToSVG(t *testing.T) {
	arena := physics.Arena{Width: 390, Height: 844, TopInset: 50, BottomInset: 100}
	snap := dynamo.Snapshot{
		Tick:    12,
		Gravity: dynamo.Vec2{-1, 0},
		Bodies: []dynamo.Body{
			{ID: 1, Pos: dynamo.Vec2{100, 200}, Radius: 20, Color: dynamo.Color{R: 255, G: 59, B: 48}, Shape: dynamo.ShapeFox},
			{ID: 2, Pos: dynamo.Vec2{150, 600}, Radius: 5, Rotation: 90},
		},
	}

	opts := DefaultSVGOptions()
	opts.Labels = true
	svg := SnapshotToSVG(snap, arena, opts)

	if !strings.HasPrefix(svg, "<?xml") || !strings.HasSuffix(svg, "</svg>") {
		t.Fatal("expected a complete svg document")
	}
	if n := strings.Count(svg, "<circle"); n != 2 {
		t.Errorf("expected 2 circles, got %d", n)
	}
	if n := strings.Count(svg, "<line"); n != 2 {
		t.Errorf("expected 2 spokes, got %d", n)
	}
	for _, want := range []string{`fill="#ff3b30"`, `r="20.0"`, ">fox<", "gravity left", `y="744.0"`} {
		if !strings.Contains(svg, want) {
			t.Errorf("expected svg to contain %s", want)
		}
	}
	// rotation of 90 degrees points the spoke down
	if !strings.Contains(svg, `x2="150.0" y2="605.0"`) {
		t.Error("expected spoke to follow rotation")
	}
}

func TestSeriesToSVG(t *testing.T) {
	if SeriesToSVG([]float64{1}, 100, 50, "#fff") != "" {
		t.Error("expected empty output for a single value")
	}

	svg := SeriesToSVG([]float64{0, 5, 10, 5}, 300, 100, "#00ff00")
	if !strings.Contains(svg, `stroke="#00ff00"`) || strings.Count(svg, " L") != 3 {
		t.Errorf("unexpected path: %s", svg)
	}
}
