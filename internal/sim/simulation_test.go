package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/dropsim/internal/dynamo"
)

type countingSource struct {
	g     dynamo.Vec2
	calls int
	hook  func()
}

func (c *countingSource) Gravity() dynamo.Vec2 {
	c.calls++
	if c.hook != nil {
		c.hook()
	}
	return c.g
}

type countingMetric struct {
	n int
}

func (m *countingMetric) Name() string            { return "count" }
func (m *countingMetric) Observe(dynamo.Snapshot) { m.n++ }
func (m *countingMetric) Value() float64          { return float64(m.n) }
func (m *countingMetric) Reset()                  { m.n = 0 }

func newTestSim(t *testing.T, mutate func(*Config), opts ...Option) *Simulation {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Seed = 1
	if mutate != nil {
		mutate(&cfg)
	}
	s, err := New(cfg, opts...)
	if err != nil {
		t.Fatalf("new simulation: %v", err)
	}
	return s
}

func TestNewInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"zero tick rate", func(c *Config) { c.TickRate = 0 }, dynamo.ErrInvalidConfig},
		{"negative cap", func(c *Config) { c.MaxBodies = -1 }, dynamo.ErrInvalidConfig},
		{"inverted sizes", func(c *Config) { c.Spawn.SizeMin, c.Spawn.SizeMax = 50, 10 }, dynamo.ErrInvalidConfig},
		{"zero size", func(c *Config) { c.Spawn.SizeMin = 0 }, dynamo.ErrInvalidConfig},
		{"empty arena", func(c *Config) { c.Arena.Width = 0 }, dynamo.ErrInvalidArena},
		{"bad damping", func(c *Config) { c.Params.BounceDamping = 2 }, dynamo.ErrParameterBounds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if _, err := New(cfg); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestNewSimulationIsStopped(t *testing.T) {
	s := newTestSim(t, nil)
	if s.Running() {
		t.Fatal("expected a new simulation to be stopped")
	}
	if s.Tick() {
		t.Error("expected Tick to be a no-op while stopped")
	}
	if got := s.Snapshot().Tick; got != 0 {
		t.Errorf("expected tick 0, got %d", got)
	}
	if g := s.Gravity(); g != dynamo.Down {
		t.Errorf("expected default gravity down, got %v", g)
	}
}

func TestSpawnIDsNeverReused(t *testing.T) {
	s := newTestSim(t, nil)

	seen := map[dynamo.BodyID]bool{}
	for round := 0; round < 3; round++ {
		for i := 0; i < 4; i++ {
			id, err := s.Spawn(dynamo.Vec2{100, 200})
			if err != nil {
				t.Fatalf("spawn: %v", err)
			}
			if seen[id] {
				t.Fatalf("id %d reused", id)
			}
			seen[id] = true
		}
		s.Clear()
		if s.Len() != 0 {
			t.Fatalf("expected empty after clear, got %d", s.Len())
		}
	}
}

func TestSpawnAttributes(t *testing.T) {
	s := newTestSim(t, nil)
	cfg := s.Config()

	for i := 0; i < 50; i++ {
		if _, err := s.Spawn(dynamo.Vec2{-100, 5000}); err != nil {
			t.Fatalf("spawn: %v", err)
		}
	}

	for _, b := range s.Snapshot().Bodies {
		if b.Size < cfg.Spawn.SizeMin || b.Size > cfg.Spawn.SizeMax {
			t.Errorf("body %d size %v outside spawn range", b.ID, b.Size)
		}
		if math.Abs(b.Vel[0]) > cfg.Spawn.Speed || b.Vel[1] != 0 {
			t.Errorf("body %d launched with %v", b.ID, b.Vel)
		}
		if b.Rotation != 0 || b.RotationSpeed != 0 {
			t.Errorf("body %d should start without rotation", b.ID)
		}
		minX, _, _, maxY := cfg.Arena.Bounds(b.Radius)
		if b.Pos[0] != minX || b.Pos[1] != maxY {
			t.Errorf("body %d at %v, expected clamped to (%v, %v)", b.ID, b.Pos, minX, maxY)
		}
	}
}

func TestSpawnBodyRejectsInvalid(t *testing.T) {
	s := newTestSim(t, nil)
	_, err := s.SpawnBody(dynamo.BodySpec{Pos: dynamo.Vec2{100, 100}, Size: -3})
	if !errors.Is(err, dynamo.ErrInvalidBody) {
		t.Errorf("expected ErrInvalidBody, got %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("expected no body to be added")
	}
}

func TestStopStartIdempotent(t *testing.T) {
	s := newTestSim(t, nil)
	for i := 0; i < 5; i++ {
		s.Spawn(dynamo.Vec2{float64(60 + i*50), 200})
	}

	s.Start()
	s.Start()
	for i := 0; i < 30; i++ {
		s.Tick()
	}

	s.Stop()
	s.Stop()
	before := s.Snapshot()
	for i := 0; i < 10; i++ {
		if s.Tick() {
			t.Fatal("tick advanced while stopped")
		}
	}
	after := s.Snapshot()

	if before.Tick != after.Tick || len(before.Bodies) != len(after.Bodies) {
		t.Fatalf("state changed while stopped")
	}
	for i := range before.Bodies {
		if before.Bodies[i] != after.Bodies[i] {
			t.Errorf("body %d changed while stopped", before.Bodies[i].ID)
		}
	}

	s.Start()
	if !s.Tick() {
		t.Error("expected tick to resume after start")
	}
	if got := s.Snapshot().Tick; got != before.Tick+1 {
		t.Errorf("expected tick %d, got %d", before.Tick+1, got)
	}
}

func TestPopulationCap(t *testing.T) {
	tests := []struct {
		name    string
		cap     int
		spawn   int
		wantLen int
		firstID dynamo.BodyID
	}{
		{"unbounded", 0, 60, 60, 1},
		{"capped evicts oldest", 10, 25, 10, 16},
		{"at cap", 10, 10, 10, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSim(t, func(c *Config) { c.MaxBodies = tt.cap })
			for i := 0; i < tt.spawn; i++ {
				s.Spawn(dynamo.Vec2{200, 300})
			}
			snap := s.Snapshot()
			if snap.Len() != tt.wantLen {
				t.Fatalf("expected %d bodies, got %d", tt.wantLen, snap.Len())
			}
			if snap.Bodies[0].ID != tt.firstID {
				t.Errorf("expected oldest surviving id %d, got %d", tt.firstID, snap.Bodies[0].ID)
			}
			last := snap.Bodies[snap.Len()-1].ID
			if last != dynamo.BodyID(tt.spawn) {
				t.Errorf("expected newest id %d, got %d", tt.spawn, last)
			}
		})
	}
}

func TestPopulationCapDuringTick(t *testing.T) {
	src := &countingSource{g: dynamo.Down}
	s := newTestSim(t, func(c *Config) { c.MaxBodies = 3 }, WithGravity(src))
	for i := 0; i < 3; i++ {
		s.Spawn(dynamo.Vec2{float64(50 + i*100), 300})
	}
	src.hook = func() {
		s.Spawn(dynamo.Vec2{200, 100})
		s.Spawn(dynamo.Vec2{300, 100})
	}

	s.Start()
	s.Tick()

	snap := s.Snapshot()
	if snap.Len() != 3 {
		t.Fatalf("expected cap of 3, got %d", snap.Len())
	}
	if snap.Bodies[0].ID != 3 || snap.Bodies[2].ID != 5 {
		t.Errorf("unexpected survivors %d..%d", snap.Bodies[0].ID, snap.Bodies[2].ID)
	}
}

func TestSpawnDuringTickIsDeferred(t *testing.T) {
	src := &countingSource{g: dynamo.Down}
	s := newTestSim(t, nil, WithGravity(src))
	s.SpawnBody(dynamo.BodySpec{Pos: dynamo.Vec2{100, 200}, Size: 20})

	var lateID dynamo.BodyID
	src.hook = func() {
		if s.Len() != 1 {
			t.Errorf("collection changed mid-tick: %d bodies", s.Len())
		}
		lateID, _ = s.SpawnBody(dynamo.BodySpec{Pos: dynamo.Vec2{300, 200}, Size: 20})
		if s.Len() != 1 {
			t.Errorf("spawn applied mid-tick")
		}
	}

	s.Start()
	s.Tick()

	snap := s.Snapshot()
	if snap.Len() != 2 {
		t.Fatalf("expected deferred spawn to land at tick end, got %d bodies", snap.Len())
	}
	late := snap.Bodies[1]
	if late.ID != lateID {
		t.Fatalf("expected id %d, got %d", lateID, late.ID)
	}
	if late.Pos != (dynamo.Vec2{300, 200}) || late.Vel != (dynamo.Vec2{}) {
		t.Errorf("deferred body was integrated in the tick it was queued: %+v", late)
	}
	if snap.Bodies[0].Vel[1] <= 0 {
		t.Errorf("expected the original body to fall")
	}
}

func TestClearDuringTickIsDeferred(t *testing.T) {
	src := &countingSource{g: dynamo.Down}
	s := newTestSim(t, nil, WithGravity(src))
	for i := 0; i < 4; i++ {
		s.Spawn(dynamo.Vec2{float64(60 + i*80), 300})
	}
	src.hook = func() {
		s.Clear()
		s.Spawn(dynamo.Vec2{200, 200})
		if s.Len() != 4 {
			t.Errorf("clear applied mid-tick")
		}
	}

	s.Start()
	s.Tick()

	snap := s.Snapshot()
	if snap.Len() != 1 || snap.Bodies[0].ID != 5 {
		t.Errorf("expected only the body queued after clear, got %d bodies", snap.Len())
	}
}

func TestGravityPolledOncePerTick(t *testing.T) {
	src := &countingSource{g: dynamo.Vec2{1, 0}}
	s := newTestSim(t, nil, WithGravity(src))
	s.Spawn(dynamo.Vec2{200, 300})

	s.Tick()
	if src.calls != 0 {
		t.Fatalf("gravity polled while stopped")
	}

	s.Start()
	for i := 0; i < 10; i++ {
		s.Tick()
	}
	if src.calls != 10 {
		t.Errorf("expected 10 polls, got %d", src.calls)
	}
	if s.Gravity() != (dynamo.Vec2{1, 0}) {
		t.Errorf("expected gravity to follow the source, got %v", s.Gravity())
	}
}

func TestGravityNonFiniteKeepsLast(t *testing.T) {
	src := &countingSource{g: dynamo.Vec2{-1, 0}}
	s := newTestSim(t, nil, WithGravity(src))
	s.Start()
	s.Tick()

	src.g = dynamo.Vec2{math.NaN(), 0}
	s.Tick()
	if s.Gravity() != (dynamo.Vec2{-1, 0}) {
		t.Errorf("expected previous gravity, got %v", s.Gravity())
	}
}

func TestValidateStateHalts(t *testing.T) {
	s := newTestSim(t, func(c *Config) { c.ValidateState = true })
	id, _ := s.Spawn(dynamo.Vec2{200, 300})
	s.bodies[0].Vel[0] = math.Inf(1)

	s.Start()
	s.Tick()

	var simErr *dynamo.SimulationError
	if err := s.Err(); !errors.As(err, &simErr) {
		t.Fatalf("expected SimulationError, got %v", err)
	}
	if !errors.Is(s.Err(), dynamo.ErrInvalidState) || simErr.Body != id || simErr.Tick != 1 {
		t.Errorf("unexpected error %v", simErr)
	}
	if s.Running() || s.Tick() {
		t.Error("expected the simulation to halt")
	}

	s.Clear()
	if s.Err() != nil {
		t.Errorf("expected clear to reset the error")
	}
}

func TestObserversAndImpacts(t *testing.T) {
	metric := &countingMetric{}
	var impacts []dynamo.Impact
	s := newTestSim(t, nil,
		WithGravity(&countingSource{}),
		WithMetric(metric),
		WithImpactHandler(func(im dynamo.Impact) { impacts = append(impacts, im) }),
	)
	a, _ := s.SpawnBody(dynamo.BodySpec{Pos: dynamo.Vec2{100, 300}, Vel: dynamo.Vec2{60, 0}, Size: 40})
	b, _ := s.SpawnBody(dynamo.BodySpec{Pos: dynamo.Vec2{135, 300}, Vel: dynamo.Vec2{-60, 0}, Size: 40})

	s.Start()
	s.Tick()
	s.Tick()

	if metric.n != 2 {
		t.Errorf("expected 2 observations, got %d", metric.n)
	}
	if len(impacts) == 0 {
		t.Fatal("expected an impact")
	}
	if impacts[0].A != a || impacts[0].B != b {
		t.Errorf("unexpected impact pair %d-%d", impacts[0].A, impacts[0].B)
	}
	if got := s.Snapshot().ContactPairs; got != 0 {
		t.Errorf("expected bodies to be separated, %d pairs in contact", got)
	}
}

func TestSetParam(t *testing.T) {
	s := newTestSim(t, nil)
	if err := s.SetParam("gravity", 100); err != nil {
		t.Fatalf("set gravity: %v", err)
	}
	if s.Params().GravityStrength != 100 {
		t.Errorf("expected gravity 100")
	}
	if err := s.SetParam("air_resistance", -1); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("expected ErrParameterBounds, got %v", err)
	}
}

func TestRun(t *testing.T) {
	metric := &countingMetric{}
	s := newTestSim(t, nil, WithMetric(metric))
	for i := 0; i < 8; i++ {
		s.SpawnRandom()
	}

	result, err := s.Run(context.Background(), 120)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.Ticks != 120 || len(result.Frames) != 120 {
		t.Errorf("expected 120 ticks, got %d (%d frames)", result.Ticks, len(result.Frames))
	}
	if result.Metrics["count"] != 120 {
		t.Errorf("expected metric to see 120 ticks, got %v", result.Metrics["count"])
	}
	if result.Final.Len() != 8 {
		t.Errorf("expected 8 bodies, got %d", result.Final.Len())
	}
	if last := result.Frames[119]; last.Tick != 120 || math.Abs(last.Time-2) > 1e-9 {
		t.Errorf("unexpected last frame %+v", last)
	}
}

func TestRunCancelled(t *testing.T) {
	s := newTestSim(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := s.Run(ctx, 100)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if result.Ticks != 0 {
		t.Errorf("expected no ticks, got %d", result.Ticks)
	}
}

func TestEnsembleHeadless(t *testing.T) {
	cfg := DefaultConfig()
	run := Headless(cfg, 5, 30, nil)

	results, err := dynamo.NewEnsemble(run, 3, 10).Run(context.Background())
	if err != nil {
		t.Fatalf("ensemble: %v", err)
	}
	for i, r := range results {
		if r.Seed != int64(10+i) {
			t.Errorf("run %d: expected seed %d, got %d", i, 10+i, r.Seed)
		}
		if r.Ticks != 30 || r.Final.Len() != 5 {
			t.Errorf("run %d: %d ticks, %d bodies", i, r.Ticks, r.Final.Len())
		}
	}
}

func benchmarkTick(b *testing.B, n int) {
	cfg := DefaultConfig()
	s, err := New(cfg)
	if err != nil {
		b.Fatal(err)
	}
	for i := 0; i < n; i++ {
		s.SpawnRandom()
	}
	s.Start()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Tick()
	}
}

func BenchmarkTick50(b *testing.B)  { benchmarkTick(b, 50) }
func BenchmarkTick200(b *testing.B) { benchmarkTick(b, 200) }
func BenchmarkTick800(b *testing.B) { benchmarkTick(b, 800) }
