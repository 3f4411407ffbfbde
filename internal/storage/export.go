package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/dropsim/internal/dynamo"
)

type ExportBody struct {
	ID            dynamo.BodyID `json:"id"`
	X             float64       `json:"x"`
	Y             float64       `json:"y"`
	VX            float64       `json:"vx"`
	VY            float64       `json:"vy"`
	Radius        float64       `json:"radius"`
	Mass          float64       `json:"mass"`
	Rotation      float64       `json:"rotation"`
	RotationSpeed float64       `json:"rotation_speed"`
	Stable        bool          `json:"stable"`
	Shape         string        `json:"shape"`
	Color         string        `json:"color"`
}

func ExportBodies(bodies []dynamo.Body) []ExportBody {
	out := make([]ExportBody, len(bodies))
	for i, b := range bodies {
		out[i] = ExportBody{
			ID:            b.ID,
			X:             b.Pos[0],
			Y:             b.Pos[1],
			VX:            b.Vel[0],
			VY:            b.Vel[1],
			Radius:        b.Radius,
			Mass:          b.Mass,
			Rotation:      b.Rotation,
			RotationSpeed: b.RotationSpeed,
			Stable:        b.Stable,
			Shape:         b.Shape.String(),
			Color:         b.Color.Hex(),
		}
	}
	return out
}

type ExportData struct {
	Name    string             `json:"name"`
	Seed    int64              `json:"seed"`
	Ticks   int                `json:"ticks"`
	Frames  []dynamo.Frame     `json:"frames"`
	Bodies  []ExportBody       `json:"bodies"`
	Gravity [2]float64         `json:"gravity"`
	Metrics map[string]float64 `json:"metrics"`
}

func NewExportData(name string, result *dynamo.Result) ExportData {
	g := result.Final.Gravity
	return ExportData{
		Name:    name,
		Seed:    result.Seed,
		Ticks:   result.Ticks,
		Frames:  result.Frames,
		Bodies:  ExportBodies(result.Final.Bodies),
		Gravity: [2]float64{g[0], g[1]},
		Metrics: result.Metrics,
	}
}

func WriteJSON(w io.Writer, data ExportData) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func ExportJSON(path, name string, result *dynamo.Result) error {
	return writeFile(path, func(w io.Writer) error {
		return WriteJSON(w, NewExportData(name, result))
	})
}

func ExportJSONStdout(name string, result *dynamo.Result) error {
	return WriteJSON(os.Stdout, NewExportData(name, result))
}
