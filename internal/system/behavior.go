package system

import (
	"math"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/izknhyt/kusozako-game-sub000/internal/component"
	"github.com/izknhyt/kusozako-game-sub000/internal/core/arena"
	coresys "github.com/izknhyt/kusozako-game-sub000/internal/core/system"
	"github.com/izknhyt/kusozako-game-sub000/internal/data"
	"github.com/izknhyt/kusozako-game-sub000/internal/geom"
	"github.com/izknhyt/kusozako-game-sub000/internal/world"
)

// raidTarget is a frame-arena entry: a gate, gate tile or capture zone that
// raiders can claim.
type raidTarget struct {
	Pos    geom.Vec2
	Claims int32
}

// BehaviorSystem computes each ally's desired velocity from its
// temperament, morale and the active order. It never moves units.
// Phase 2 (AI).
//
// Precedence: crying or asleep > panic > endlag > retreat order >
// ignoring orders > formation slot / order > temperament default.
//
// RNG draws per unit, in dense order: ignore-orders re-roll, mimic
// rotation, wander heading.
type BehaviorSystem struct {
	world   *world.State
	log     *zap.Logger
	buf     []int32
	targets *arena.List[raidTarget]
	dt      float64
}

func NewBehaviorSystem(ws *world.State, log *zap.Logger) *BehaviorSystem {
	return &BehaviorSystem{world: ws, log: log}
}

func (s *BehaviorSystem) Phase() coresys.Phase { return coresys.PhaseAI }

func (s *BehaviorSystem) Update(dt time.Duration) {
	ws := s.world
	s.dt = dt.Seconds()
	ws.RebuildGrid()
	s.targets = s.buildRaidTargets()

	for i := 0; i < ws.Units.Len(); i++ {
		id, u := ws.Units.At(i)
		ts, ok := ws.Temperaments.Get(id)
		if !ok {
			u.DesiredVel = geom.Vec2{}
			continue
		}
		def := ws.Tables.Temperaments.Get(ts.Def)
		s.tickTimers(u, ts, def)
		u.DesiredVel = s.desired(u, ts, def)
	}
	s.targets = nil
}

// buildRaidTargets collects open gates, gate tiles and uncaptured zones into
// the frame arena, skipping duplicates at the same position. On arena
// exhaustion raiders fall back to charging this tick.
func (s *BehaviorSystem) buildRaidTargets() *arena.List[raidTarget] {
	ws := s.world
	list, err := arena.NewList[raidTarget](ws.Arena, ws.Gates.Len()+ws.Zones.Len())
	if err != nil {
		s.abort(err)
		return nil
	}
	add := func(p geom.Vec2) error {
		for _, t := range list.Items() {
			if t.Pos == p {
				return nil
			}
		}
		return list.Push(raidTarget{Pos: p})
	}
	for i := 0; i < ws.Gates.Len(); i++ {
		_, g := ws.Gates.At(i)
		if g.Destroyed {
			continue
		}
		if err := add(g.Pos); err != nil {
			s.abort(err)
			return nil
		}
	}
	for i := 0; i < ws.Zones.Len(); i++ {
		_, z := ws.Zones.At(i)
		if z.Captured {
			continue
		}
		if err := add(z.Pos); err != nil {
			s.abort(err)
			return nil
		}
	}
	return list
}

func (s *BehaviorSystem) abort(err error) {
	s.world.Counters.ScratchAborts++
	s.log.Error("raid target scratch aborted", zap.Error(err), zap.Uint64("tick", s.world.Tick))
}

// tickTimers advances the unit's AI timers and performs this unit's RNG
// draws. It runs for every unit regardless of which rule wins, so the draw
// sequence does not depend on combat outcomes.
func (s *BehaviorSystem) tickTimers(u *component.Unit, ts *component.TemperamentState, def *data.TemperamentDef) {
	ws := s.world
	dt := s.dt
	mt := ws.Tables.Morale

	u.PanicTimer = math.Max(0, u.PanicTimer-dt)
	ts.CryTimer = math.Max(0, ts.CryTimer-dt)
	ts.CatchUp = math.Max(0, ts.CatchUp-dt)

	u.IgnoreTimer -= dt
	if u.IgnoreTimer <= 0 {
		u.IgnoreTimer += mt.IgnoreOrdersInterval
		if u.IgnoreTimer <= 0 {
			u.IgnoreTimer = mt.IgnoreOrdersInterval
		}
		chance := mt.Modifiers(u.Morale).IgnoreOrders * def.Disobedience
		u.IgnoringOrders = ws.RNG.Float64() < chance
	}

	if ts.Behavior == component.BehaviorMimic && len(def.MimicPool) > 0 {
		ts.MimicTimer -= dt
		if ts.MimicTimer <= 0 {
			ts.MimicBehavior = def.MimicPool[ws.RNG.IntN(len(def.MimicPool))]
			ts.MimicTimer = def.MimicIntervalMin + ws.RNG.Float64()*(def.MimicIntervalMax-def.MimicIntervalMin)
		}
	}

	if active(ts) != component.BehaviorDoze {
		ts.Asleep = false
	}
	switch active(ts) {
	case component.BehaviorWander:
		ts.WanderTimer -= dt
		if ts.WanderTimer <= 0 {
			ts.WanderDir = geom.FromAngle(ws.RNG.Float64() * 2 * math.Pi)
			ts.WanderTimer = math.Max(dt, def.WanderInterval+(ws.RNG.Float64()*2-1)*def.WanderJitter)
		}
	case component.BehaviorDoze:
		ts.DozeTimer -= dt
		if ts.DozeTimer <= 0 {
			ts.Asleep = !ts.Asleep
			if ts.Asleep {
				ts.DozeTimer = def.DozeSleep
			} else {
				ts.DozeTimer = def.DozeActive
			}
		}
	case component.BehaviorChargeNearest:
		if def.DashInterval > 0 {
			ts.DashTimer -= dt
			if ts.DashTimer <= 0 {
				ts.Dashing = !ts.Dashing
				if ts.Dashing {
					ts.DashTimer = def.DashDuration
				} else {
					ts.DashTimer = def.DashInterval
				}
			}
		}
	}
}

func active(ts *component.TemperamentState) component.Behavior {
	if ts.Behavior == component.BehaviorMimic {
		return ts.MimicBehavior
	}
	return ts.Behavior
}

func (s *BehaviorSystem) desired(u *component.Unit, ts *component.TemperamentState, def *data.TemperamentDef) geom.Vec2 {
	ws := s.world
	speed := u.Speed * u.SpeedMul

	switch {
	case ts.CryTimer > 0 || ts.Asleep || u.Morale == component.MoraleMesomeso:
		return geom.Vec2{}
	case u.PanicTimer > 0:
		return s.panicFlight(u, speed)
	case u.Endlag > 0:
		return geom.Vec2{}
	case ws.Order == component.OrderRetreat:
		return arrive(u.Pos, ws.Base.Pos, speed, s.dt)
	case u.IgnoringOrders:
		return s.temperament(u, ts, def, speed)
	case u.Follower:
		return arrive(u.Pos, u.SlotTarget, speed, s.dt)
	}

	switch ws.Order {
	case component.OrderHold:
		return geom.Vec2{}
	case component.OrderCharge:
		if e := nearestEnemy(ws, u.Pos, 0, &s.buf, nil); e >= 0 {
			_, en := ws.Enemies.At(e)
			return arrive(u.Pos, en.Pos, speed, s.dt)
		}
	case component.OrderFollow:
		if ws.Commander.Alive {
			return s.follow(u, ts, def, speed)
		}
	}
	return s.temperament(u, ts, def, speed)
}

// panicFlight runs from the nearest enemy within the panic radius, or from
// the last attacker when none is close.
func (s *BehaviorSystem) panicFlight(u *component.Unit, speed float64) geom.Vec2 {
	ws := s.world
	if e := nearestEnemy(ws, u.Pos, ws.Tables.Morale.PanicFleeRadius, &s.buf, nil); e >= 0 {
		_, en := ws.Enemies.At(e)
		return away(u.Pos, en.Pos, speed)
	}
	return away(u.Pos, u.LastHitFrom, speed)
}

func (s *BehaviorSystem) temperament(u *component.Unit, ts *component.TemperamentState, def *data.TemperamentDef, speed float64) geom.Vec2 {
	ws := s.world
	switch active(ts) {
	case component.BehaviorChargeNearest:
		return s.charge(u, ts, def, speed)

	case component.BehaviorFleeNearest:
		if e := nearestEnemy(ws, u.Pos, def.FearRadius, &s.buf, nil); e >= 0 && def.FearRadius > 0 {
			_, en := ws.Enemies.At(e)
			return away(u.Pos, en.Pos, speed)
		}
		return geom.Vec2{}

	case component.BehaviorFollowYuna:
		if ws.Commander.Alive {
			return s.follow(u, ts, def, speed)
		}
		return geom.Vec2{}

	case component.BehaviorRaidGate:
		return s.raid(u, ts, def, speed)

	case component.BehaviorHomebound:
		home := ws.Base.Pos
		if u.Pos.Dist(home) > def.HomeRadius {
			return arrive(u.Pos, home, speed, s.dt)
		}
		if def.AvoidRadius > 0 {
			if e := nearestEnemy(ws, u.Pos, def.AvoidRadius, &s.buf, nil); e >= 0 {
				_, en := ws.Enemies.At(e)
				return away(u.Pos, en.Pos, speed*0.5)
			}
		}
		return geom.Vec2{}

	case component.BehaviorWander:
		return ts.WanderDir.Scale(speed * def.WanderSpeed)

	case component.BehaviorDoze:
		return s.charge(u, ts, def, speed)

	case component.BehaviorGuardBase:
		base := ws.Base.Pos
		if def.GuardRadius > 0 {
			inRing := func(i int) bool {
				_, en := ws.Enemies.At(i)
				return en.Pos.Dist(base) <= def.GuardRadius+en.Radius
			}
			if e := nearestEnemy(ws, base, def.GuardRadius*2, &s.buf, inRing); e >= 0 {
				_, en := ws.Enemies.At(e)
				return arrive(u.Pos, en.Pos, speed, s.dt)
			}
		}
		ts.GuardAngle = math.Mod(ts.GuardAngle+def.GuardSpeed*s.dt, 2*math.Pi)
		post := base.Add(geom.FromAngle(ts.GuardAngle).Scale(def.GuardRadius))
		return arrive(u.Pos, post, speed, s.dt)

	case component.BehaviorTargetTag:
		tagged := func(i int) bool {
			_, en := ws.Enemies.At(i)
			return slices.Contains(en.Tags, def.TargetTag)
		}
		if v, ok := s.chase(u, def, speed, tagged); ok {
			return v
		}
		return s.charge(u, ts, def, speed)
	}
	return geom.Vec2{}
}

// charge pursues the nearest enemy inside the morale-scaled detection
// radius, boosted while the dash window is open.
func (s *BehaviorSystem) charge(u *component.Unit, ts *component.TemperamentState, def *data.TemperamentDef, speed float64) geom.Vec2 {
	if ts.Dashing {
		speed *= def.DashMultiplier
	}
	v, _ := s.chase(u, def, speed, nil)
	return v
}

func (s *BehaviorSystem) chase(u *component.Unit, def *data.TemperamentDef, speed float64, match func(int) bool) (geom.Vec2, bool) {
	ws := s.world
	radius := def.DetectionRadius * u.AccuracyMul
	if def.DetectionRadius > 0 && radius <= 0 {
		return geom.Vec2{}, false
	}
	e := nearestEnemy(ws, u.Pos, radius, &s.buf, match)
	if e < 0 {
		return geom.Vec2{}, false
	}
	_, en := ws.Enemies.At(e)
	return arrive(u.Pos, en.Pos, speed, s.dt), true
}

// follow keeps the unit within FollowDistance of the commander and opens a
// catch-up boost once it falls behind CatchupDistance.
func (s *BehaviorSystem) follow(u *component.Unit, ts *component.TemperamentState, def *data.TemperamentDef, speed float64) geom.Vec2 {
	cpos := s.world.Commander.Pos
	dist := u.Pos.Dist(cpos)
	if def.CatchupDistance > 0 && dist > def.CatchupDistance && ts.CatchUp <= 0 {
		ts.CatchUp = def.CatchupDuration
	}
	if ts.CatchUp > 0 {
		speed *= def.CatchupBoost
	}
	keep := def.FollowDistance
	if keep <= 0 {
		keep = 2 * (u.Radius + s.world.Commander.Radius)
	}
	if dist <= keep {
		return geom.Vec2{}
	}
	target := cpos.Add(u.Pos.Sub(cpos).Norm().Scale(keep))
	return arrive(u.Pos, target, speed, s.dt)
}

// raid heads for the nearest target that has fewer than MaxRaiders claims
// this tick. Without a target list it charges instead.
func (s *BehaviorSystem) raid(u *component.Unit, ts *component.TemperamentState, def *data.TemperamentDef, speed float64) geom.Vec2 {
	ts.RaidTarget = -1
	if s.targets == nil {
		return s.charge(u, ts, def, speed)
	}
	items := s.targets.Items()
	best, bestD := -1, 0.0
	for i := range items {
		if int(items[i].Claims) >= def.MaxRaiders {
			continue
		}
		d := items[i].Pos.DistSq(u.Pos)
		if best < 0 || d < bestD {
			best, bestD = i, d
		}
	}
	if best < 0 {
		return s.charge(u, ts, def, speed)
	}
	items[best].Claims++
	ts.RaidTarget = best
	return arrive(u.Pos, items[best].Pos, speed, s.dt)
}
