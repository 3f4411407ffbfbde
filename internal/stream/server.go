package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/dropsim/internal/dynamo"
	"github.com/san-kum/dropsim/internal/sensor"
	"github.com/san-kum/dropsim/internal/sim"
)

const (
	DefaultRate  = 30 // snapshots per second
	writeTimeout = 2 * time.Second
)

var ErrBadCommand = errors.New("bad command")

// Server streams snapshots of one simulation to websocket clients and
// applies their commands through the simulation's public API.
type Server struct {
	sim      *sim.Simulation
	gravity  *sensor.Manual
	accel    *sensor.Accelerometer
	upgrader websocket.Upgrader
	interval time.Duration
	logger   *log.Logger

	mu      sync.RWMutex
	clients map[*SafeWriter]struct{}
}

func NewServer(s *sim.Simulation, rate int, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	if rate <= 0 {
		rate = DefaultRate
	}
	accel, ok := s.GravitySource().(*sensor.Accelerometer)
	if !ok {
		accel = sensor.NewAccelerometer(sensor.DefaultMaxAge)
	}
	return &Server{
		sim:     s,
		gravity: sensor.NewManual(s.Gravity()),
		accel:   accel,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		interval: time.Second / time.Duration(rate),
		logger:   logger,
		clients:  make(map[*SafeWriter]struct{}),
	}
}

// Handler serves the websocket at /ws and the latest snapshot as plain
// JSON at /snapshot.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.HandleWS)
	mux.HandleFunc("/snapshot", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(s.snapshot()); err != nil {
			s.logger.Printf("[stream] snapshot encode: %v", err)
		}
	})
	return mux
}

func (s *Server) Clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("[stream] upgrade error: %v", err)
		return
	}
	client := NewSafeWriter(conn)
	s.mu.Lock()
	s.clients[client] = struct{}{}
	s.mu.Unlock()
	s.logger.Printf("[stream] client connected from %s", conn.RemoteAddr())

	defer func() {
		s.drop(client)
		s.logger.Printf("[stream] client %s disconnected", conn.RemoteAddr())
	}()

	if err := client.WriteJSON(Message{Type: TypeInfo, Message: "connected"}); err != nil {
		return
	}
	if err := client.WriteJSON(Message{Type: TypeSnapshot, Snapshot: s.snapshot()}); err != nil {
		return
	}

	for {
		var cmd Command
		if err := conn.ReadJSON(&cmd); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Printf("[stream] read: %v", err)
			}
			return
		}
		reply := s.Apply(cmd)
		if err := client.WriteJSON(reply); err != nil {
			return
		}
	}
}

func (s *Server) drop(c *SafeWriter) {
	s.mu.Lock()
	_, ok := s.clients[c]
	delete(s.clients, c)
	s.mu.Unlock()
	if ok {
		c.Close()
	}
}

func (s *Server) closeAll() {
	s.mu.Lock()
	clients := s.clients
	s.clients = make(map[*SafeWriter]struct{})
	s.mu.Unlock()
	for c := range clients {
		c.Close()
	}
}

// Apply executes one client command and returns the reply.
func (s *Server) Apply(cmd Command) Message {
	id, err := s.apply(cmd)
	if err != nil {
		return Message{Type: TypeError, Command: cmd.Type, Message: err.Error()}
	}
	return Message{Type: TypeAck, Command: cmd.Type, ID: id}
}

func (s *Server) apply(cmd Command) (dynamo.BodyID, error) {
	switch cmd.Type {
	case CmdSpawn:
		if cmd.X == nil || cmd.Y == nil {
			return s.sim.SpawnRandom()
		}
		return s.sim.Spawn(dynamo.Vec2{*cmd.X, *cmd.Y})
	case CmdClear:
		s.sim.Clear()
	case CmdStart:
		s.sim.Start()
	case CmdStop:
		s.sim.Stop()
	case CmdGravity:
		g, err := gravityOf(cmd)
		if err != nil {
			return 0, err
		}
		s.gravity.Set(g)
		s.sim.SetGravitySource(s.gravity)
	case CmdParam:
		return 0, s.sim.SetParam(cmd.Name, cmd.Value)
	case CmdAccel:
		if cmd.X == nil || cmd.Y == nil {
			return 0, fmt.Errorf("accel needs x and y: %w", ErrBadCommand)
		}
		if !s.accel.Update(sensor.Sample{X: *cmd.X, Y: *cmd.Y}) {
			return 0, fmt.Errorf("accel sample must be finite: %w", ErrBadCommand)
		}
		s.sim.SetGravitySource(s.accel)
	default:
		return 0, fmt.Errorf("unknown command %q: %w", cmd.Type, ErrBadCommand)
	}
	return 0, nil
}

// snapshot marks the sensor stale while the accelerometer drives gravity
// but has stopped sending samples.
func (s *Server) snapshot() *SnapshotMessage {
	msg := NewSnapshotMessage(s.sim.Snapshot())
	if src, ok := s.sim.GravitySource().(*sensor.Accelerometer); ok && src == s.accel {
		msg.SensorStale = s.accel.Stale()
	}
	return msg
}

func gravityOf(cmd Command) (dynamo.Vec2, error) {
	if cmd.Direction != "" {
		o, ok := sensor.OrientationToward(cmd.Direction)
		if !ok {
			return dynamo.Vec2{}, fmt.Errorf("unknown direction %q: %w", cmd.Direction, ErrBadCommand)
		}
		g, _ := o.Vector()
		return g, nil
	}
	if cmd.X == nil || cmd.Y == nil {
		return dynamo.Vec2{}, fmt.Errorf("gravity needs x and y or a direction: %w", ErrBadCommand)
	}
	g := dynamo.Vec2{*cmd.X, *cmd.Y}
	if math.IsNaN(g[0]) || math.IsNaN(g[1]) || math.IsInf(g[0], 0) || math.IsInf(g[1], 0) {
		return dynamo.Vec2{}, fmt.Errorf("gravity must be finite: %w", ErrBadCommand)
	}
	return g, nil
}

// Broadcast sends the latest snapshot to every client once per interval
// until ctx is cancelled. Clients that fail a write are dropped.
func (s *Server) Broadcast(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.broadcastOnce()
		}
	}
}

func (s *Server) broadcastOnce() {
	s.mu.RLock()
	clients := make([]*SafeWriter, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.RUnlock()
	if len(clients) == 0 {
		return
	}

	msg := Message{Type: TypeSnapshot, Snapshot: s.snapshot()}
	for _, c := range clients {
		if err := c.WriteJSON(msg); err != nil {
			s.logger.Printf("[stream] write failed, dropping client: %v", err)
			s.drop(c)
		}
	}
}

// ListenAndServe ticks the simulation at its configured rate, broadcasts
// snapshots and serves clients on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}
	loop := sim.NewLoop(s.sim, s.sim.Config().TickRate, s.logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return loop.Run(ctx) })
	g.Go(func() error { return s.Broadcast(ctx) })
	g.Go(func() error {
		s.logger.Printf("[stream] listening on %s", addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		s.closeAll()
		return err
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
