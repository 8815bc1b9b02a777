package system

import (
	"cmp"
	"math"
	"slices"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/izknhyt/kusozako-game-sub000/internal/component"
	"github.com/izknhyt/kusozako-game-sub000/internal/core/arena"
	"github.com/izknhyt/kusozako-game-sub000/internal/core/ecs"
	"github.com/izknhyt/kusozako-game-sub000/internal/core/event"
	coresys "github.com/izknhyt/kusozako-game-sub000/internal/core/system"
	"github.com/izknhyt/kusozako-game-sub000/internal/world"
)

// RenderPrepSystem builds the read-only snapshot for the presentation
// layer. Everything it publishes is copied out of the frame arena before
// Cleanup resets it. Phase 7 (RenderPrep).
type RenderPrepSystem struct {
	world    *world.State
	log      *zap.Logger
	printer  *message.Printer
	lastJobs []event.JobStatus
	sent     bool
}

func NewRenderPrepSystem(ws *world.State, log *zap.Logger) *RenderPrepSystem {
	return &RenderPrepSystem{
		world:   ws,
		log:     log,
		printer: message.NewPrinter(language.English),
	}
}

func (s *RenderPrepSystem) Phase() coresys.Phase { return coresys.PhaseRenderPrep }

func (s *RenderPrepSystem) Update(_ time.Duration) {
	ws := s.world
	if ws.Tick <= 1 {
		s.lastJobs, s.sent = s.lastJobs[:0], false
	}

	snap := world.Snapshot{
		Tick:    ws.Tick,
		Time:    ws.Time,
		Sprites: s.sprites(),
		Outcome: ws.Outcome,
		Order:   ws.Order,
		BaseHP:  ws.Base.HP,
		Counters: world.SnapshotCounters{
			SpawnBacklog:  ws.Spawner.Backlog(),
			EventsLost:    ws.EventsLost(),
			ScratchAborts: ws.Counters.ScratchAborts,
			Kills:         ws.Counters.Kills,
			Deaths:        ws.Counters.Deaths,
		},
	}
	if t := ws.Tables.Map.LODSpriteThreshold; t > 0 && len(snap.Sprites) > t {
		snap.LowDetail = true
	}

	f := ws.Formation
	snap.Formation = world.FormationBanner{
		Formation: f.Kind,
		State:     f.State,
		Progress:  f.Progress,
		Followers: f.Followers,
		Text: s.printer.Sprintf("%s %s %.0f%% (%d)",
			f.Kind, f.State, f.Progress*100, f.Followers),
	}
	if ws.TelemetryBanner > 0 {
		snap.Telemetry = world.Banner{
			Visible: true,
			Text: s.printer.Sprintf("%s: %d lost, %d queued",
				ws.TelemetryText, snap.Counters.EventsLost, snap.Counters.SpawnBacklog),
		}
	}
	if ws.ResultBanner > 0 && ws.Outcome != component.OutcomeNone {
		snap.Result = world.Banner{
			Visible: true,
			Text: s.printer.Sprintf("%s: %s (%d kills)",
				ws.Outcome, ws.OutcomeReason, snap.Counters.Kills),
		}
	}

	snap.Jobs = s.jobs()
	if snap.Jobs != nil && (!s.sent || !slices.Equal(snap.Jobs, s.lastJobs)) {
		s.sent = true
		s.lastJobs = append(s.lastJobs[:0], snap.Jobs...)
		event.Emit(ws.Bus, event.HUDSummary{Tick: ws.Tick, Jobs: slices.Clone(snap.Jobs)})
	}

	ws.Snapshot = snap
}

func (s *RenderPrepSystem) sprites() []world.Sprite {
	ws := s.world
	out := make([]world.Sprite, 0, 2+ws.Gates.Len()+ws.Zones.Len()+ws.Walls.Len()+ws.Units.Len()+ws.Enemies.Len())

	out = append(out, world.Sprite{
		Layer: world.LayerGround, Kind: world.SpriteBase,
		Pos: ws.Base.Pos, Radius: ws.Base.Radius, HP: ratio(ws.Base.HP, ws.Base.MaxHP),
	})
	for i := 0; i < ws.Gates.Len(); i++ {
		_, g := ws.Gates.At(i)
		sp := world.Sprite{
			Layer: world.LayerGround, Kind: world.SpriteGate,
			Pos: g.Pos, Radius: g.Radius, HP: ratio(g.HP, g.MaxHP), Tag: g.ID,
		}
		if g.Destroyed {
			sp.Flags |= world.FlagDestroyed
		}
		out = append(out, sp)
	}
	for i := 0; i < ws.Zones.Len(); i++ {
		_, z := ws.Zones.At(i)
		out = append(out, world.Sprite{
			Layer: world.LayerGround, Kind: world.SpriteZone,
			Pos: z.Pos, Radius: z.Radius, HP: ratio(z.Progress, z.CaptureTime), Tag: z.ID,
		})
	}
	for i := 0; i < ws.Walls.Len(); i++ {
		_, w := ws.Walls.At(i)
		out = append(out, world.Sprite{
			Layer: world.LayerWall, Kind: world.SpriteWall,
			Pos: w.Pos, Radius: w.Radius, HP: ratio(w.HP, w.MaxHP),
		})
	}
	for i := 0; i < ws.Units.Len(); i++ {
		id, u := ws.Units.At(i)
		sp := world.Sprite{
			Layer: world.LayerActor, Kind: world.SpriteUnit,
			Pos: u.Pos, Radius: u.Radius, HP: ratio(u.HP, u.MaxHP), Tag: u.Job.String(),
		}
		if u.Follower {
			sp.Flags |= world.FlagFollower
		}
		if u.PanicTimer > 0 || u.Morale == component.MoralePanic {
			sp.Flags |= world.FlagPanicked
		}
		if u.Rallied {
			sp.Flags |= world.FlagRallied
		}
		if ts, ok := ws.Temperaments.Get(id); ok && ts.Asleep {
			sp.Flags |= world.FlagAsleep
		}
		out = append(out, sp)
	}
	for i := 0; i < ws.Enemies.Len(); i++ {
		_, e := ws.Enemies.At(i)
		out = append(out, world.Sprite{
			Layer: world.LayerActor, Kind: world.SpriteEnemy,
			Pos: e.Pos, Radius: e.Radius, HP: ratio(e.HP, e.MaxHP), Tag: e.Kind,
		})
	}
	if c := ws.Commander; c.Alive {
		out = append(out, world.Sprite{
			Layer: world.LayerActor, Kind: world.SpriteCommander,
			Pos: c.Pos, Radius: c.Radius, HP: ratio(c.HP, c.MaxHP),
		})
	}

	slices.SortStableFunc(out, func(a, b world.Sprite) int {
		return cmp.Or(
			cmp.Compare(a.Layer, b.Layer),
			cmp.Compare(a.Pos.Y, b.Pos.Y),
			cmp.Compare(a.Pos.X, b.Pos.X),
		)
	})
	return out
}

// jobs builds the per-job HUD rows in the frame arena and returns a heap
// copy. It returns nil when the arena is exhausted.
func (s *RenderPrepSystem) jobs() []event.JobStatus {
	ws := s.world
	rows, err := arena.Slice[event.JobStatus](ws.Arena, component.JobCount)
	var sums []float64
	if err == nil {
		sums, err = arena.Slice[float64](ws.Arena, 2*component.JobCount)
	}
	if err != nil {
		ws.Counters.ScratchAborts++
		s.log.Error("hud rows: frame arena exhausted", zap.Error(err), zap.Uint64("tick", ws.Tick))
		return nil
	}
	hp, maxHP := sums[:component.JobCount], sums[component.JobCount:]
	for i := range rows {
		rows[i].Job = component.Job(i)
	}
	ws.Units.Each(func(_ ecs.EntityID, u *component.Unit) {
		r := &rows[u.Job]
		r.Alive++
		if u.Cooldown > 0 {
			r.Cooling++
		}
		hp[u.Job] += u.HP
		maxHP[u.Job] += u.MaxHP
	})
	for _, t := range ws.Respawns {
		rows[t.Job].Dead++
	}
	for i := range rows {
		rows[i].HPRatio = math.Round(ratio(hp[i], maxHP[i])*100) / 100
	}
	return slices.Clone(rows)
}

func ratio(v, full float64) float64 {
	if full <= 0 {
		return 0
	}
	return math.Min(math.Max(v/full, 0), 1)
}
