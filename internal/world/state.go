// Package world holds the simulation state shared by every system.
package world

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"go.uber.org/zap"

	"github.com/izknhyt/kusozako-game-sub000/internal/component"
	"github.com/izknhyt/kusozako-game-sub000/internal/core/arena"
	"github.com/izknhyt/kusozako-game-sub000/internal/core/ecs"
	"github.com/izknhyt/kusozako-game-sub000/internal/core/event"
	"github.com/izknhyt/kusozako-game-sub000/internal/data"
	"github.com/izknhyt/kusozako-game-sub000/internal/geom"
	"github.com/izknhyt/kusozako-game-sub000/internal/scripting"
	"github.com/izknhyt/kusozako-game-sub000/internal/spatial"
	"github.com/izknhyt/kusozako-game-sub000/internal/spawn"
)

// RespawnScript is the optional scripted respawn-delay formula.
type RespawnScript interface {
	CalcRespawnDelay(ctx scripting.RespawnContext) (float64, bool)
}

// DropCounter reports events a telemetry sink had to discard.
type DropCounter interface {
	Dropped() uint64
}

// Options configure a State.
type Options struct {
	SeedPhrase   string
	FixedDt      float64 // seconds
	GridCellSize float64
	MaxPerFrame  int
	ArenaBytes   int
	Bus          *event.Bus
	Respawn      RespawnScript
	Drops        DropCounter
}

// FormationRuntime is the formation system's live state.
type FormationRuntime struct {
	Kind       component.FormationKind
	Pending    component.FormationKind
	HasPending bool
	State      component.FormationState
	Progress   float64
	Followers  int
	AlignTimer float64 // damage reduction window after a change

	Reported      bool
	LastState     component.FormationState
	LastProgress  float64
	LastFollowers int
}

// MissionRuntime is the mission system's live state.
type MissionRuntime struct {
	Kind         component.MissionKind
	Elapsed      float64
	Boss         ecs.EntityID
	BossSpawned  bool
	BossDefeated bool
	Enraged      bool
	SummonTimer  float64
	PacingTimer  float64
	PacingBatch  int
	Captured     int
}

// RespawnTicket is a pending ally respawn. Job is the fallen unit's job,
// kept for the HUD; the replacement draws its own.
type RespawnTicket struct {
	Timer float64
	Job   component.Job
}

// Counters are cumulative per-scenario statistics.
type Counters struct {
	ScratchAborts  uint64
	Kills          uint64
	Deaths         uint64
	Respawns       uint64
	Spawned        uint64
	GatesDestroyed int
}

// State owns all simulation storage. Accessed only from the tick loop.
type State struct {
	ECS          *ecs.World
	Units        *ecs.Pool[component.Unit]
	Temperaments *ecs.Pool[component.TemperamentState]
	Enemies      *ecs.Pool[component.Enemy]
	Walls        *ecs.Pool[component.Wall]
	Gates        *ecs.Pool[component.Gate]
	Zones        *ecs.Pool[component.CaptureZone]

	Commander component.Commander
	Base      component.Base

	Tables  *data.Tables
	Grid    *spatial.Grid
	Stamps  [3]spatial.Stamp
	Arena   *arena.Arena
	Spawner *spawn.Spawner
	Waves   *spawn.WaveController
	Bus     *event.Bus
	RNG     *rand.Rand
	Log     *zap.Logger
	Script  RespawnScript
	Drops   DropCounter

	Tick uint64
	Time float64 // seconds since Reset
	Dt   float64

	Input      component.Input
	Skills     []component.RuntimeSkill
	Order      component.Order
	OrderTimer float64
	RushTimer  float64
	RushMul    float64
	Formation  FormationRuntime
	Mission    MissionRuntime
	Respawns   []RespawnTicket

	TelemetryBanner float64
	TelemetryText   string
	ResultBanner    float64
	Outcome         component.Outcome
	OutcomeReason   string
	LastEnemySpawn  float64

	Counters Counters
	Snapshot Snapshot

	opts      Options
	gateIndex map[string]ecs.EntityID
}

// New builds a State for already-validated tables. Call Reset before the
// first tick.
func New(tables *data.Tables, opts Options, log *zap.Logger) *State {
	if opts.FixedDt <= 0 {
		opts.FixedDt = 1.0 / 60
	}
	if opts.GridCellSize <= 0 {
		opts.GridCellSize = 64
	}
	if opts.Bus == nil {
		opts.Bus = event.NewBus()
	}
	w := ecs.NewWorld()
	s := &State{
		ECS:          w,
		Units:        ecs.NewPoolIn[component.Unit](w, 256),
		Temperaments: ecs.NewPoolIn[component.TemperamentState](w, 256),
		Enemies:      ecs.NewPoolIn[component.Enemy](w, 512),
		Walls:        ecs.NewPoolIn[component.Wall](w, 32),
		Gates:        ecs.NewPoolIn[component.Gate](w, 16),
		Zones:        ecs.NewPoolIn[component.CaptureZone](w, 8),
		Tables:       tables,
		Grid:         spatial.NewGrid(),
		Arena:        arena.New(opts.ArenaBytes),
		Spawner:      spawn.NewSpawner(opts.MaxPerFrame),
		Bus:          opts.Bus,
		Log:          log,
		Script:       opts.Respawn,
		Drops:        opts.Drops,
		Dt:           opts.FixedDt,
		opts:         opts,
		gateIndex:    make(map[string]ecs.EntityID),
	}
	s.Waves = spawn.NewWaveController(tables.Waves, tables.Map.Gates, s.Spawner, log)
	s.Spawner.SetGateStatus(s.GateStatus)
	b := tables.Map.Bounds
	s.Grid.Configure(b.Min, b.Max, opts.GridCellSize)
	return s
}

// Reset reseeds the RNG, clears all storage and lays out the scenario.
func (s *State) Reset() error {
	t := s.Tables
	s.RNG = NewRNG(s.opts.SeedPhrase)
	s.ECS.Reset()
	s.Bus.Reset()
	s.Arena.Reset()
	s.Spawner.Reset()
	s.Waves.Reset()
	clear(s.gateIndex)

	s.Tick = 0
	s.Time = 0
	s.Input = component.Input{}
	s.Order = t.Morale.DefaultOrder
	s.OrderTimer = 0
	s.RushTimer = 0
	s.RushMul = 1
	s.Formation = FormationRuntime{Kind: t.Formations.Default}
	s.Mission = MissionRuntime{Kind: t.Mission.Kind, PacingTimer: t.Mission.Survival.PacingInterval}
	s.Respawns = s.Respawns[:0]
	s.TelemetryBanner, s.TelemetryText, s.ResultBanner = 0, "", 0
	s.Outcome, s.OutcomeReason = component.OutcomeNone, ""
	s.LastEnemySpawn = 0
	s.Counters = Counters{}
	s.Snapshot = Snapshot{}

	cd := t.Units.Commander
	s.Commander = component.Commander{
		Pos:    t.Map.CommanderSpawn,
		Radius: cd.Radius,
		HP:     cd.HP,
		MaxHP:  cd.HP,
		Speed:  cd.Speed,
		Dps:    cd.Dps,
		Alive:  true,
	}
	s.Base = component.Base{
		Pos:    t.Map.Base.Pos,
		Radius: t.Map.Base.Radius,
		HP:     t.Map.Base.HP,
		MaxHP:  t.Map.Base.HP,
	}

	tiles := s.Waves.Tiles()
	for _, g := range t.Map.Gates {
		if _, shadowed := tiles[g.ID]; shadowed {
			continue
		}
		s.addGate(component.Gate{ID: g.ID, Pos: g.Pos, Radius: g.Radius, HP: g.HP, MaxHP: g.HP})
	}
	tileIDs := make([]string, 0, len(tiles))
	for id := range tiles {
		tileIDs = append(tileIDs, id)
	}
	sort.Strings(tileIDs)
	for _, id := range tileIDs {
		g := tiles[id]
		radius := g.Radius
		if radius <= 0 {
			radius = 16
		}
		s.addGate(component.Gate{ID: id, Pos: g.Pos, Radius: radius, Tile: true})
	}

	for _, z := range t.Map.Zones {
		id := s.ECS.CreateEntity()
		s.Zones.Attach(id, component.CaptureZone{
			ID:          z.ID,
			Pos:         z.Pos,
			Radius:      z.Radius,
			CaptureTime: z.CaptureTime,
			DisableGate: z.DisableGate,
		})
	}

	s.Skills = s.Skills[:0]
	for i := 0; i < t.Skills.Count(); i++ {
		s.Skills = append(s.Skills, component.RuntimeSkill{Def: i, Kind: t.Skills.Get(i).Kind})
	}

	for i := 0; i < t.Units.Ally.StartCount; i++ {
		s.SpawnAlly(t.Map.AllySpawn)
	}
	if s.Units.Len() != t.Units.Ally.StartCount {
		return fmt.Errorf("reset: spawned %d of %d allies", s.Units.Len(), t.Units.Ally.StartCount)
	}
	return nil
}

func (s *State) addGate(g component.Gate) {
	id := s.ECS.CreateEntity()
	s.Gates.Attach(id, g)
	s.gateIndex[g.ID] = id
}

// Gate returns a gate by id.
func (s *State) Gate(id string) (ecs.EntityID, *component.Gate, bool) {
	eid, ok := s.gateIndex[id]
	if !ok {
		return ecs.Nil, nil, false
	}
	g, ok := s.Gates.Get(eid)
	return eid, g, ok
}

// GateStatus maps a gate's runtime flags for the spawner. Unknown gates
// count as destroyed so their queues are pruned.
func (s *State) GateStatus(id string) spawn.GateState {
	_, g, ok := s.Gate(id)
	switch {
	case !ok || g.Destroyed:
		return spawn.GateDestroyed
	case g.Disabled:
		return spawn.GateDisabled
	default:
		return spawn.GateOpen
	}
}

// Jitter returns a point uniformly inside a disc around origin. It draws
// two numbers from the RNG.
func (s *State) Jitter(origin geom.Vec2, spread float64) geom.Vec2 {
	a := s.RNG.Float64() * 2 * math.Pi
	r := spread * math.Sqrt(s.RNG.Float64())
	return origin.Add(geom.FromAngle(a).Scale(r))
}

// SpawnAlly creates an allied unit near origin. RNG draws: temperament,
// job, then two for the position.
func (s *State) SpawnAlly(origin geom.Vec2) ecs.EntityID {
	t := s.Tables
	ti := t.Temperaments.Draw(s.RNG.Float64())
	job := t.Units.DrawJob(s.RNG.Float64())
	pos := s.Jitter(origin, t.Units.Ally.SpawnSpread)

	ally := t.Units.Ally
	jd := t.Units.Job(job)
	pos = geom.ClampToWorld(pos, ally.Radius, t.Map.Bounds)

	id := s.ECS.CreateEntity()
	hp := ally.HP * jd.HPMul
	mod := t.Morale.Modifiers(component.MoraleStable)
	s.Units.Attach(id, component.Unit{
		Pos:         pos,
		Radius:      ally.Radius,
		HP:          hp,
		MaxHP:       hp,
		Speed:       ally.Speed * jd.SpeedMul,
		Job:         job,
		Morale:      component.MoraleStable,
		SpeedMul:    mod.Speed,
		AccuracyMul: mod.Accuracy,
		DefenseMul:  mod.Defense,
		IgnoreTimer: t.Morale.IgnoreOrdersInterval,
	})
	s.Temperaments.Attach(id, NewTemperamentState(t.Temperaments, ti))

	// A unit spawned while the leader is down starts shaken.
	if !s.Commander.Alive {
		u, _ := s.Units.Get(id)
		s.SetMorale(u, component.MoraleLeaderDown, t.Morale.LeaderDownDuration)
	}
	return id
}

// NewTemperamentState initialises the per-unit AI state for temperament i.
// Mimics start on their first pool entry and rotate on their first tick.
func NewTemperamentState(tt *data.TemperamentTable, i int) component.TemperamentState {
	def := tt.Get(i)
	ts := component.TemperamentState{
		Def:        i,
		Behavior:   def.Behavior,
		DozeTimer:  def.DozeActive,
		DashTimer:  def.DashInterval,
		RaidTarget: -1,
	}
	if def.Behavior == component.BehaviorMimic && len(def.MimicPool) > 0 {
		ts.MimicBehavior = def.MimicPool[0]
	}
	return ts
}

// SetMorale switches a unit's morale state and applies its multipliers.
func (s *State) SetMorale(u *component.Unit, m component.MoraleState, timer float64) {
	mod := s.Tables.Morale.Modifiers(m)
	u.Morale = m
	u.MoraleTimer = timer
	u.SpeedMul = mod.Speed
	u.AccuracyMul = mod.Accuracy
	u.DefenseMul = mod.Defense
}

// SpawnEnemy creates an enemy from its template at pos.
func (s *State) SpawnEnemy(def *data.EnemyDef, pos geom.Vec2) ecs.EntityID {
	id := s.ECS.CreateEntity()
	s.Enemies.Attach(id, component.Enemy{
		Pos:             geom.ClampToWorld(pos, def.Radius, s.Tables.Map.Bounds),
		Radius:          def.Radius,
		HP:              def.HP,
		MaxHP:           def.HP,
		Archetype:       def.Archetype,
		Kind:            def.ID,
		Tags:            def.Tags,
		Speed:           def.Speed,
		Dps:             def.Dps,
		WallDps:         def.WallDps,
		BaseDps:         def.BaseDps,
		IgnoreKnockback: def.IgnoreKnockback,
		WallPreference:  def.WallPreference,
	})
	s.Counters.Spawned++
	s.LastEnemySpawn = s.Time
	return id
}

// SpawnWall creates a wall segment.
func (s *State) SpawnWall(pos geom.Vec2, radius, hp, lifetime float64) ecs.EntityID {
	id := s.ECS.CreateEntity()
	s.Walls.Attach(id, component.Wall{
		Pos:      geom.ClampToWorld(pos, radius, s.Tables.Map.Bounds),
		Radius:   radius,
		HP:       hp,
		MaxHP:    hp,
		Lifetime: lifetime,
	})
	return id
}

// RebuildGrid refills the broad phase from the current pools. Grid indices
// are dense pool indices and stay valid until a pool changes structurally.
func (s *State) RebuildGrid() {
	s.Grid.Clear()
	for i := 0; i < s.Units.Len(); i++ {
		_, u := s.Units.At(i)
		s.Grid.InsertUnit(i, u.Pos, u.Radius)
	}
	for i := 0; i < s.Enemies.Len(); i++ {
		_, e := s.Enemies.At(i)
		s.Grid.InsertEnemy(i, e.Pos, e.Radius)
	}
	for i := 0; i < s.Walls.Len(); i++ {
		_, w := s.Walls.At(i)
		s.Grid.InsertWall(i, w.Pos, w.Radius)
	}
	s.Stamps[spatial.LayerUnits].Resize(s.Units.Len())
	s.Stamps[spatial.LayerEnemies].Resize(s.Enemies.Len())
	s.Stamps[spatial.LayerWalls].Resize(s.Walls.Len())
}

// Near appends the deduplicated grid candidates of layer l around pos to dst.
func (s *State) Near(l spatial.Layer, pos geom.Vec2, radius float64, dst []int32) []int32 {
	return s.Grid.Candidates(l, pos, radius, &s.Stamps[l], dst)
}

// FailsOnBase reports whether base destruction is a defeat in this mission.
func (s *State) FailsOnBase() bool { return s.Tables.Mission.FailsOnBase() }

// Decide latches the scenario outcome once.
func (s *State) Decide(o component.Outcome, reason string) bool {
	if s.Outcome != component.OutcomeNone || o == component.OutcomeNone {
		return false
	}
	s.Outcome = o
	s.OutcomeReason = reason
	s.ResultBanner = s.Tables.Morale.ResultBannerTime
	event.Emit(s.Bus, event.OutcomeDecided{Tick: s.Tick, Outcome: o, Reason: reason})
	s.Log.Info("scenario decided",
		zap.Stringer("outcome", o), zap.String("reason", reason), zap.Uint64("tick", s.Tick))
	return true
}

// EventsLost returns the telemetry drop count, or 0 without a sink.
func (s *State) EventsLost() uint64 {
	if s.Drops == nil {
		return 0
	}
	return s.Drops.Dropped()
}
