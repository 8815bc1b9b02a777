// Package sim is the host-facing facade over the simulation kernel: it
// owns the world state and the system runner and drives fixed steps.
package sim

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/izknhyt/kusozako-game-sub000/internal/component"
	"github.com/izknhyt/kusozako-game-sub000/internal/core/event"
	coresys "github.com/izknhyt/kusozako-game-sub000/internal/core/system"
	"github.com/izknhyt/kusozako-game-sub000/internal/data"
	"github.com/izknhyt/kusozako-game-sub000/internal/system"
	"github.com/izknhyt/kusozako-game-sub000/internal/world"
)

// ErrNotReset is returned by Step and Advance before a successful Reset.
var ErrNotReset = errors.New("sim: not reset")

// Config holds the kernel parameters. Zero values take defaults.
type Config struct {
	FixedDt          float64 // seconds per step, default 1/60
	MaxStepsPerFrame int     // Advance cap, default 5
	SeedPhrase       string
	FrameArenaBytes  int     // default 64 KiB
	GridCellSize     float64 // default 64
	MaxSpawnPerFrame int     // <= 0 disables the budget
}

func (c *Config) defaults() {
	if c.FixedDt <= 0 {
		c.FixedDt = 1.0 / 60
	}
	if c.MaxStepsPerFrame <= 0 {
		c.MaxStepsPerFrame = 5
	}
	if c.FrameArenaBytes <= 0 {
		c.FrameArenaBytes = 64 << 10
	}
	if c.GridCellSize <= 0 {
		c.GridCellSize = 64
	}
}

// Option customises a Simulation.
type Option func(*options)

type options struct {
	log     *zap.Logger
	bus     *event.Bus
	respawn world.RespawnScript
	drops   world.DropCounter
}

// WithLogger sets the logger. Default is a no-op logger.
func WithLogger(l *zap.Logger) Option { return func(o *options) { o.log = l } }

// WithBus shares an event bus, typically one a telemetry bridge subscribed to.
func WithBus(b *event.Bus) Option { return func(o *options) { o.bus = b } }

// WithRespawnScript installs the scripted respawn-delay formula.
func WithRespawnScript(r world.RespawnScript) Option { return func(o *options) { o.respawn = r } }

// WithDropCounter reports telemetry drops into the HUD counters.
func WithDropCounter(d world.DropCounter) Option { return func(o *options) { o.drops = d } }

// Simulation runs the fixed-step tick loop. Not safe for concurrent use.
type Simulation struct {
	cfg      Config
	state    *world.State
	runner   *coresys.Runner
	log      *zap.Logger
	dt       time.Duration
	acc      float64
	ready    bool
	stepping bool
}

// New validates tables, builds the world and resets it.
func New(cfg Config, tables *data.Tables, opts ...Option) (*Simulation, error) {
	o := options{}
	for _, fn := range opts {
		fn(&o)
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}
	if tables == nil {
		return nil, fmt.Errorf("sim: nil tables: %w", data.ErrInvalid)
	}
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("sim: %w", err)
	}
	cfg.defaults()

	ws := world.New(tables, world.Options{
		SeedPhrase:   cfg.SeedPhrase,
		FixedDt:      cfg.FixedDt,
		GridCellSize: cfg.GridCellSize,
		MaxPerFrame:  cfg.MaxSpawnPerFrame,
		ArenaBytes:   cfg.FrameArenaBytes,
		Bus:          o.bus,
		Respawn:      o.respawn,
		Drops:        o.drops,
	}, o.log)

	runner := coresys.NewRunner()
	system.RegisterAll(runner, ws, o.log)

	s := &Simulation{
		cfg:    cfg,
		state:  ws,
		runner: runner,
		log:    o.log,
		dt:     time.Duration(cfg.FixedDt * float64(time.Second)),
	}
	if err := s.Reset(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reset restarts the scenario from the configured seed.
func (s *Simulation) Reset() error {
	s.ready = false
	if err := s.state.Reset(); err != nil {
		return fmt.Errorf("sim: %w", err)
	}
	s.acc = 0
	s.ready = true
	s.log.Info("scenario reset",
		zap.String("map", s.state.Tables.Map.Name),
		zap.Int("allies", s.state.Units.Len()),
		zap.Int("gates", s.state.Gates.Len()))
	return nil
}

// Step runs exactly one fixed tick with input.
func (s *Simulation) Step(input component.Input) error {
	if !s.ready {
		return ErrNotReset
	}
	if s.stepping {
		return coresys.ErrReentrant
	}
	s.stepping = true
	defer func() { s.stepping = false }()

	ws := s.state
	ws.Input = input
	ws.Tick++
	ws.Time += ws.Dt
	if err := s.runner.Tick(s.dt); err != nil {
		return fmt.Errorf("sim: tick %d: %w", ws.Tick, err)
	}
	return nil
}

// Advance accumulates frame time and runs as many fixed steps as fit, up
// to MaxStepsPerFrame. Discrete actions are delivered with the first step
// only. Time beyond the cap is dropped. It returns the steps taken.
func (s *Simulation) Advance(frameDt float64, input component.Input) (int, error) {
	if !s.ready {
		return 0, ErrNotReset
	}
	if frameDt > 0 {
		s.acc += frameDt
	}
	dt := s.state.Dt
	steps := 0
	for s.acc >= dt && steps < s.cfg.MaxStepsPerFrame {
		in := input
		if steps > 0 {
			in.Actions = nil
		}
		if err := s.Step(in); err != nil {
			return steps, err
		}
		s.acc -= dt
		steps++
	}
	if s.acc >= dt {
		s.acc = 0
	}
	return steps, nil
}

// Snapshot returns the render snapshot of the last step.
func (s *Simulation) Snapshot() world.Snapshot { return s.state.Snapshot }

// State exposes the world for hosts and tests. Mutating it between steps is
// the caller's responsibility.
func (s *Simulation) State() *world.State { return s.state }

// Bus returns the event bus systems emit into.
func (s *Simulation) Bus() *event.Bus { return s.state.Bus }

// Config returns the effective configuration.
func (s *Simulation) Config() Config { return s.cfg }
