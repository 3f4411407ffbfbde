package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/dropsim/internal/config"
	"github.com/san-kum/dropsim/internal/dynamo"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Timestamp time.Time          `json:"timestamp"`
	Seed      int64              `json:"seed"`
	Ticks     int                `json:"ticks"`
	Bodies    int                `json:"bodies"`
	Elapsed   time.Duration      `json:"elapsed_ns"`
	Config    *config.Config     `json:"config,omitempty"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Save writes metadata.json, frames.csv and bodies.csv into a new run
// directory and returns its ID.
func (s *Store) Save(name string, cfg *config.Config, result *dynamo.Result) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d_s%d", name, now.UnixMilli(), result.Seed)
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Name:      name,
		Timestamp: now,
		Seed:      result.Seed,
		Ticks:     result.Ticks,
		Bodies:    result.Final.Len(),
		Elapsed:   result.Elapsed,
		Config:    cfg,
		Metrics:   result.Metrics,
	}

	if err := writeFile(filepath.Join(runDir, "metadata.json"), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	}); err != nil {
		return "", err
	}

	if err := writeFile(filepath.Join(runDir, "frames.csv"), func(w io.Writer) error {
		return WriteFrames(w, result.Frames)
	}); err != nil {
		return "", err
	}

	if err := writeFile(filepath.Join(runDir, "bodies.csv"), func(w io.Writer) error {
		return WriteBodies(w, result.Final.Bodies)
	}); err != nil {
		return "", err
	}

	return runID, nil
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

var frameHeader = []string{"tick", "time", "population", "kinetic_energy", "stable_fraction", "contact_pairs", "impacts"}

func WriteFrames(w io.Writer, frames []dynamo.Frame) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(frameHeader); err != nil {
		return err
	}
	for _, f := range frames {
		row := []string{
			strconv.FormatUint(f.Tick, 10),
			formatFloat(f.Time),
			strconv.Itoa(f.Population),
			formatFloat(f.KineticEnergy),
			formatFloat(f.StableFraction),
			strconv.Itoa(f.ContactPairs),
			strconv.Itoa(f.Impacts),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

var bodyHeader = []string{"id", "x", "y", "vx", "vy", "size", "mass", "rotation", "rotation_speed", "contacts", "stable", "shape", "color"}

func WriteBodies(w io.Writer, bodies []dynamo.Body) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(bodyHeader); err != nil {
		return err
	}
	for _, b := range bodies {
		row := []string{
			strconv.FormatUint(uint64(b.ID), 10),
			formatFloat(b.Pos[0]),
			formatFloat(b.Pos[1]),
			formatFloat(b.Vel[0]),
			formatFloat(b.Vel[1]),
			formatFloat(b.Size),
			formatFloat(b.Mass),
			formatFloat(b.Rotation),
			formatFloat(b.RotationSpeed),
			strconv.Itoa(b.Contacts),
			strconv.FormatBool(b.Stable),
			b.Shape.String(),
			b.Color.Hex(),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// List returns every readable run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) readCSV(runID, file string) ([][]string, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, file))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", file, err)
	}
	if len(records) < 1 {
		return nil, nil
	}
	return records[1:], nil
}

func (s *Store) LoadFrames(runID string) ([]dynamo.Frame, error) {
	records, err := s.readCSV(runID, "frames.csv")
	if err != nil {
		return nil, err
	}

	frames := make([]dynamo.Frame, 0, len(records))
	for i, rec := range records {
		var p parser
		f := dynamo.Frame{
			Tick:           p.uint(rec[0]),
			Time:           p.float(rec[1]),
			Population:     p.int(rec[2]),
			KineticEnergy:  p.float(rec[3]),
			StableFraction: p.float(rec[4]),
			ContactPairs:   p.int(rec[5]),
			Impacts:        p.int(rec[6]),
		}
		if p.err != nil {
			return nil, fmt.Errorf("frames.csv row %d: %w", i+1, p.err)
		}
		frames = append(frames, f)
	}
	return frames, nil
}

func (s *Store) LoadBodies(runID string) ([]dynamo.Body, error) {
	records, err := s.readCSV(runID, "bodies.csv")
	if err != nil {
		return nil, err
	}

	bodies := make([]dynamo.Body, 0, len(records))
	for i, rec := range records {
		var p parser
		b := dynamo.Body{
			ID:            dynamo.BodyID(p.uint(rec[0])),
			Pos:           dynamo.Vec2{p.float(rec[1]), p.float(rec[2])},
			Vel:           dynamo.Vec2{p.float(rec[3]), p.float(rec[4])},
			Size:          p.float(rec[5]),
			Mass:          p.float(rec[6]),
			Rotation:      p.float(rec[7]),
			RotationSpeed: p.float(rec[8]),
			Contacts:      p.int(rec[9]),
			Stable:        p.bool(rec[10]),
		}
		b.Radius = b.Size / 2
		if p.err == nil {
			b.Shape, p.err = dynamo.ParseShape(rec[11])
		}
		if p.err == nil {
			b.Color, p.err = dynamo.ParseColor(rec[12])
		}
		if p.err != nil {
			return nil, fmt.Errorf("bodies.csv row %d: %w", i+1, p.err)
		}
		bodies = append(bodies, b)
	}
	return bodies, nil
}

// parser keeps the first conversion error so a row can be read in one
// expression.
type parser struct {
	err error
}

func (p *parser) float(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil && p.err == nil {
		p.err = err
	}
	return v
}

func (p *parser) int(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil && p.err == nil {
		p.err = err
	}
	return v
}

func (p *parser) uint(s string) uint64 {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil && p.err == nil {
		p.err = err
	}
	return v
}

func (p *parser) bool(s string) bool {
	v, err := strconv.ParseBool(s)
	if err != nil && p.err == nil {
		p.err = err
	}
	return v
}
