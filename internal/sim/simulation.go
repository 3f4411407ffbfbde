package sim

import (
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/san-kum/dropsim/internal/dynamo"
	"github.com/san-kum/dropsim/internal/physics"
)

type SpawnConfig struct {
	SizeMin float64
	SizeMax float64
	Speed   float64 // horizontal launch speed is drawn from [-Speed, Speed]
}

type Config struct {
	Arena    physics.Arena
	Params   physics.Params
	Spawn    SpawnConfig
	TickRate int
	// MaxBodies caps the population; 0 means unbounded. At the cap the
	// oldest body is evicted to make room.
	MaxBodies     int
	Seed          int64
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		Arena:    physics.Arena{Width: 390, Height: 844, TopInset: 50, BottomInset: 100},
		Params:   physics.DefaultParams(),
		Spawn:    SpawnConfig{SizeMin: 10, SizeMax: 80, Speed: 50},
		TickRate: 60,
	}
}

func (c Config) Validate() error {
	if err := c.Arena.Validate(); err != nil {
		return err
	}
	if err := c.Params.Validate(); err != nil {
		return err
	}
	if !(c.Spawn.SizeMin > 0) || c.Spawn.SizeMax < c.Spawn.SizeMin || math.IsInf(c.Spawn.SizeMax, 0) {
		return fmt.Errorf("spawn size range [%v, %v]: %w", c.Spawn.SizeMin, c.Spawn.SizeMax, dynamo.ErrInvalidConfig)
	}
	if !(c.Spawn.Speed >= 0) || math.IsInf(c.Spawn.Speed, 0) {
		return fmt.Errorf("spawn speed %v: %w", c.Spawn.Speed, dynamo.ErrInvalidConfig)
	}
	if c.TickRate <= 0 {
		return fmt.Errorf("tick rate must be positive, got %d: %w", c.TickRate, dynamo.ErrInvalidConfig)
	}
	if c.MaxBodies < 0 {
		return fmt.Errorf("max bodies must not be negative, got %d: %w", c.MaxBodies, dynamo.ErrInvalidConfig)
	}
	return nil
}

// Dt is the fixed simulated time of one tick.
func (c Config) Dt() float64 { return 1 / float64(c.TickRate) }

type Option func(*Simulation)

// WithGravity sets the gravity source. A nil source means straight down.
func WithGravity(src dynamo.GravitySource) Option {
	return func(s *Simulation) { s.gravity = src }
}

func WithObserver(o dynamo.Observer) Option {
	return func(s *Simulation) { s.observers = append(s.observers, o) }
}

func WithMetric(m dynamo.Metric) Option {
	return func(s *Simulation) { s.metrics = append(s.metrics, m) }
}

// WithImpactHandler registers fn to be called for every resolved collision.
// It runs on the tick goroutine and must not block.
func WithImpactHandler(fn func(dynamo.Impact)) Option {
	return func(s *Simulation) { s.impactHandlers = append(s.impactHandlers, fn) }
}

// WithRand replaces the seeded source used for spawn attributes.
func WithRand(rng *rand.Rand) Option {
	return func(s *Simulation) { s.rng = rng }
}

type command struct {
	clear bool
	body  dynamo.Body
}

// Simulation owns the body collection. Tick, Spawn and Clear are the only
// mutators; Spawn and Clear issued while a tick is running are queued and
// applied when that tick ends, before its snapshot is published.
type Simulation struct {
	cfg            Config
	dt             float64
	observers      []dynamo.Observer
	metrics        []dynamo.Metric
	impactHandlers []func(dynamo.Impact)

	mu      sync.Mutex
	gravity dynamo.GravitySource
	rng     *rand.Rand
	params  physics.Params
	bodies  []dynamo.Body
	pending []command
	nextID  dynamo.BodyID
	running bool
	ticking bool
	tick    uint64
	time    float64
	lastG   dynamo.Vec2
	pairs   int
	impacts int
	snap    dynamo.Snapshot
	err     error
}

// New creates a stopped simulation with no bodies.
func New(cfg Config, opts ...Option) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Simulation{
		cfg:    cfg,
		dt:     cfg.Dt(),
		params: cfg.Params,
		nextID: 1,
		lastG:  dynamo.Down,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(cfg.Seed))
	}
	s.publishLocked()
	return s, nil
}

func (s *Simulation) Config() Config { return s.cfg }

func (s *Simulation) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }
func (s *Simulation) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }

// SetGravitySource swaps the gravity source; it takes effect on the next tick.
func (s *Simulation) SetGravitySource(src dynamo.GravitySource) {
	s.mu.Lock()
	s.gravity = src
	s.mu.Unlock()
}

// GravitySource returns the current source, nil meaning straight down.
func (s *Simulation) GravitySource() dynamo.GravitySource {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gravity
}

// Spawn drops a body with random size, shape, colour and horizontal speed
// at a raw screen point. The point is clamped into the playable band.
func (s *Simulation) Spawn(at dynamo.Vec2) (dynamo.BodyID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sp := s.cfg.Spawn
	size := sp.SizeMin + s.rng.Float64()*(sp.SizeMax-sp.SizeMin)
	spec := dynamo.BodySpec{
		Pos:   at,
		Vel:   dynamo.Vec2{(s.rng.Float64()*2 - 1) * sp.Speed, 0},
		Size:  size,
		Shape: dynamo.Shape(s.rng.Intn(int(dynamo.NumShapes))),
		Color: dynamo.Palette[s.rng.Intn(len(dynamo.Palette))],
	}
	return s.spawnLocked(spec)
}

// SpawnRandom drops a body at a random point away from the arena edges.
func (s *Simulation) SpawnRandom() (dynamo.BodyID, error) {
	s.mu.Lock()
	a := s.cfg.Arena
	x := 50 + s.rng.Float64()*math.Max(a.Width-100, 0)
	y := 100 + s.rng.Float64()*math.Max(a.Height-250, 0)
	s.mu.Unlock()
	return s.Spawn(dynamo.Vec2{x, y})
}

// SpawnBody adds a body exactly as described, apart from clamping its
// position into the playable band.
func (s *Simulation) SpawnBody(spec dynamo.BodySpec) (dynamo.BodyID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spawnLocked(spec)
}

func (s *Simulation) spawnLocked(spec dynamo.BodySpec) (dynamo.BodyID, error) {
	b, err := s.params.NewBody(s.nextID, spec)
	if err != nil {
		return 0, err
	}
	b.Pos = s.cfg.Arena.ClampPoint(b.Pos, b.Radius)
	s.nextID++

	if s.ticking {
		s.pending = append(s.pending, command{body: b})
		return b.ID, nil
	}
	s.addLocked(b)
	s.publishLocked()
	return b.ID, nil
}

func (s *Simulation) addLocked(b dynamo.Body) {
	if limit := s.cfg.MaxBodies; limit > 0 && len(s.bodies) >= limit {
		drop := len(s.bodies) - limit + 1
		n := copy(s.bodies, s.bodies[drop:])
		s.bodies = s.bodies[:n]
	}
	s.bodies = append(s.bodies, b)
}

// Clear removes every body. IDs keep counting from where they were.
func (s *Simulation) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticking {
		s.pending = append(s.pending, command{clear: true})
		return
	}
	s.clearLocked()
	s.publishLocked()
}

func (s *Simulation) clearLocked() {
	s.bodies = s.bodies[:0]
	s.pairs, s.impacts = 0, 0
	s.err = nil
}

// applyPendingLocked drains the queue in arrival order and reports whether
// a clear was among the commands.
func (s *Simulation) applyPendingLocked() bool {
	cleared := false
	for _, c := range s.pending {
		if c.clear {
			s.clearLocked()
			cleared = true
			continue
		}
		s.addLocked(c.body)
	}
	s.pending = s.pending[:0]
	return cleared
}

func (s *Simulation) Start() {
	s.mu.Lock()
	s.running = true
	s.snap.Running = true
	s.mu.Unlock()
}

func (s *Simulation) Stop() {
	s.mu.Lock()
	s.running = false
	s.snap.Running = false
	s.mu.Unlock()
}

func (s *Simulation) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Tick advances the simulation by one fixed step. It returns false without
// touching anything when the simulation is stopped, halted by an error, or
// already inside a tick.
func (s *Simulation) Tick() bool {
	s.mu.Lock()
	if !s.running || s.ticking || s.err != nil {
		s.mu.Unlock()
		return false
	}
	s.ticking = true
	p := s.params
	src := s.gravity
	bodies := s.bodies
	tick := s.tick + 1
	s.mu.Unlock()

	g := s.pollGravity(src)

	pairs := physics.CountContacts(bodies)
	physics.Integrate(bodies, g, p, s.dt)
	impacts := physics.ResolveCollisions(bodies, p, s.dispatchImpact)
	s.cfg.Arena.Contain(bodies, p)

	var err error
	if s.cfg.ValidateState {
		err = validateBodies(bodies, tick)
	}

	s.mu.Lock()
	s.tick = tick
	s.time += s.dt
	s.lastG = g
	s.pairs, s.impacts = pairs, impacts
	if cleared := s.applyPendingLocked(); err != nil && !cleared {
		s.err = err
		s.running = false
	}
	s.ticking = false
	snap := s.publishLocked()
	s.mu.Unlock()

	for _, m := range s.metrics {
		m.Observe(snap)
	}
	for _, o := range s.observers {
		o.OnTick(snap)
	}
	return true
}

// pollGravity reads the source once; a missing or non-finite reading keeps
// the previous direction.
func (s *Simulation) pollGravity(src dynamo.GravitySource) dynamo.Vec2 {
	if src == nil {
		return dynamo.Down
	}
	g := src.Gravity()
	if math.IsNaN(g[0]) || math.IsNaN(g[1]) || math.IsInf(g[0], 0) || math.IsInf(g[1], 0) {
		s.mu.Lock()
		g = s.lastG
		s.mu.Unlock()
	}
	return g
}

func (s *Simulation) dispatchImpact(im dynamo.Impact) {
	for _, fn := range s.impactHandlers {
		fn(im)
	}
}

func validateBodies(bodies []dynamo.Body, tick uint64) error {
	for i := range bodies {
		if !bodies[i].IsValid() {
			return &dynamo.SimulationError{Tick: tick, Body: bodies[i].ID, Wrapped: dynamo.ErrInvalidState}
		}
	}
	return nil
}

func (s *Simulation) publishLocked() dynamo.Snapshot {
	bodies := make([]dynamo.Body, len(s.bodies))
	copy(bodies, s.bodies)
	s.snap = dynamo.Snapshot{
		Tick:         s.tick,
		Time:         s.time,
		Bodies:       bodies,
		Gravity:      s.lastG,
		ContactPairs: s.pairs,
		Impacts:      s.impacts,
		Running:      s.running,
	}
	return s.snap
}

// Snapshot returns the state published by the last tick or mutation. The
// body slice is shared between callers and must not be modified.
func (s *Simulation) Snapshot() dynamo.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Gravity returns the direction used by the most recent tick.
func (s *Simulation) Gravity() dynamo.Vec2 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastG
}

func (s *Simulation) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bodies)
}

func (s *Simulation) Params() physics.Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

// SetParam changes a physics parameter; the next tick picks it up.
func (s *Simulation) SetParam(name string, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params.SetParam(name, value)
}

// Err returns the error that halted the simulation, if any. Clear resets it.
func (s *Simulation) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
