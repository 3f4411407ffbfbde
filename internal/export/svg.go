package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/dropsim/internal/dynamo"
	"github.com/san-kum/dropsim/internal/physics"
)

type SVGOptions struct {
	Background string
	InsetFill  string
	Spokes     bool // draw a radius marking each body's rotation
	Labels     bool // write the shape name inside each body
}

func DefaultSVGOptions() SVGOptions {
	return SVGOptions{
		Background: "#0a0a0a",
		InsetFill:  "#1c1c1e",
		Spokes:     true,
	}
}

// SnapshotToSVG draws every body of a snapshot as a filled circle in arena
// coordinates.
func SnapshotToSVG(snap dynamo.Snapshot, arena physics.Arena, opts SVGOptions) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, arena.Width, arena.Height, arena.Width, arena.Height, opts.Background)

	if arena.TopInset > 0 {
		fmt.Fprintf(&sb, `<rect x="0" y="0" width="%.0f" height="%.1f" fill="%s"/>
`, arena.Width, arena.TopInset, opts.InsetFill)
	}
	if arena.BottomInset > 0 {
		fmt.Fprintf(&sb, `<rect x="0" y="%.1f" width="%.0f" height="%.1f" fill="%s"/>
`, arena.Floor(), arena.Width, arena.BottomInset, opts.InsetFill)
	}

	sb.WriteString("<g stroke=\"#ffffff\" stroke-opacity=\"0.6\">\n")
	for _, b := range snap.Bodies {
		fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s" stroke-width="1"/>
`, b.Pos[0], b.Pos[1], b.Radius, b.Color.Hex())

		if opts.Spokes {
			rad := b.Rotation * math.Pi / 180
			x2 := b.Pos[0] + math.Cos(rad)*b.Radius
			y2 := b.Pos[1] + math.Sin(rad)*b.Radius
			fmt.Fprintf(&sb, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke-width="1.5"/>
`, b.Pos[0], b.Pos[1], x2, y2)
		}
		if opts.Labels {
			fmt.Fprintf(&sb, `<text x="%.1f" y="%.1f" font-size="%.0f" text-anchor="middle" fill="#ffffff" stroke="none">%s</text>
`, b.Pos[0], b.Pos[1]+b.Radius/4, math.Max(b.Radius/2, 6), b.Shape)
		}
	}
	sb.WriteString("</g>\n")

	fmt.Fprintf(&sb, `<text x="8" y="20" font-size="14" fill="#8e8e93">tick %d · %d bodies · gravity %s</text>
`, snap.Tick, snap.Len(), dynamo.Direction(snap.Gravity))

	sb.WriteString("</svg>")
	return sb.String()
}

// SeriesToSVG plots values as a polyline, e.g. kinetic energy per tick.
func SeriesToSVG(values []float64, width, height int, strokeColor string) string {
	if len(values) < 2 {
		return ""
	}

	minV, maxV := values[0], values[0]
	for _, v := range values {
		minV = math.Min(minV, v)
		maxV = math.Max(maxV, v)
	}
	span := maxV - minV
	if span == 0 {
		span = 1
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor)

	step := float64(width) / float64(len(values)-1)
	for i, v := range values {
		x := float64(i) * step
		y := float64(height) - (v-minV)/span*float64(height)*0.9 - float64(height)*0.05
		if i == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
