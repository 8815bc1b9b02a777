package system

import (
	"math"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/izknhyt/kusozako-game-sub000/internal/component"
	"github.com/izknhyt/kusozako-game-sub000/internal/core/ecs"
	"github.com/izknhyt/kusozako-game-sub000/internal/core/event"
	coresys "github.com/izknhyt/kusozako-game-sub000/internal/core/system"
	"github.com/izknhyt/kusozako-game-sub000/internal/data"
	"github.com/izknhyt/kusozako-game-sub000/internal/geom"
	"github.com/izknhyt/kusozako-game-sub000/internal/world"
)

// CommandSystem ticks skill timers and applies this tick's discrete
// actions: skills, stance orders and formation selection.
// Phase 1 (Command), first in phase.
type CommandSystem struct {
	world *world.State
	log   *zap.Logger
	near  []ranked
}

type ranked struct {
	id   ecs.EntityID
	dist float64
}

func NewCommandSystem(ws *world.State, log *zap.Logger) *CommandSystem {
	return &CommandSystem{world: ws, log: log}
}

func (s *CommandSystem) Phase() coresys.Phase { return coresys.PhaseCommand }

func (s *CommandSystem) Update(dt time.Duration) {
	ws := s.world
	sec := dt.Seconds()

	for i := range ws.Skills {
		sk := &ws.Skills[i]
		sk.CooldownRemaining = math.Max(0, sk.CooldownRemaining-sec)
		if sk.ActiveTimer > 0 {
			sk.ActiveTimer = math.Max(0, sk.ActiveTimer-sec)
			if sk.ActiveTimer == 0 && sk.Kind == component.SkillRush {
				ws.RushMul = 1
			}
		}
	}

	for _, a := range ws.Input.Actions {
		switch a.Kind {
		case component.ActionUseSkill:
			s.useSkill(a.Slot)
		case component.ActionIssueOrder:
			if ws.Commander.Alive {
				s.issueOrder(a.Order, ws.Tables.Morale.OrderDuration)
			}
		case component.ActionSetFormation:
			ws.Formation.Pending = a.Formation
			ws.Formation.HasPending = true
		}
	}
}

func (s *CommandSystem) issueOrder(o component.Order, duration float64) {
	ws := s.world
	ws.Order = o
	ws.OrderTimer = duration
	event.Emit(ws.Bus, event.OrderChanged{Tick: ws.Tick, Order: o})
}

// useSkill fails silently while cooling down, for unknown slots, or while
// the commander is down.
func (s *CommandSystem) useSkill(slot int) {
	ws := s.world
	if slot < 0 || slot >= len(ws.Skills) || !ws.Commander.Alive {
		return
	}
	sk := &ws.Skills[slot]
	if sk.CooldownRemaining > 0 {
		return
	}
	def := ws.Tables.Skills.Get(sk.Def)

	switch def.Kind {
	case component.SkillRally:
		sk.Toggled = !sk.Toggled
		s.rally(def, sk.Toggled)
	case component.SkillWall:
		s.raiseWall(def)
	case component.SkillOrder:
		s.issueOrder(def.Order, def.Duration)
	case component.SkillShield:
		sk.ActiveTimer = def.Duration
		s.shield(def)
	case component.SkillRush:
		sk.ActiveTimer = def.Duration
		ws.RushMul = def.Multiplier
		if ws.RushMul <= 0 {
			ws.RushMul = 1
		}
	}
	sk.CooldownRemaining = def.Cooldown
	s.log.Debug("skill used", zap.String("skill", def.ID), zap.Uint64("tick", ws.Tick))
}

// rally marks up to MaxTargets allies within Radius, nearest first. Turning
// the toggle off releases everyone.
func (s *CommandSystem) rally(def *data.SkillDef, on bool) {
	ws := s.world
	ws.Units.Each(func(_ ecs.EntityID, u *component.Unit) { u.Rallied = false })
	if !on {
		return
	}
	s.near = s.near[:0]
	cpos := ws.Commander.Pos
	for i := 0; i < ws.Units.Len(); i++ {
		id, u := ws.Units.At(i)
		d := u.Pos.Dist(cpos)
		if def.Radius > 0 && d > def.Radius {
			continue
		}
		s.near = append(s.near, ranked{id: id, dist: d})
	}
	slices.SortStableFunc(s.near, byDist)
	limit := len(s.near)
	if def.MaxTargets > 0 {
		limit = min(limit, def.MaxTargets)
	}
	for _, r := range s.near[:limit] {
		if u, ok := ws.Units.Get(r.id); ok {
			u.Rallied = true
		}
	}
}

func byDist(a, b ranked) int {
	switch {
	case a.dist < b.dist:
		return -1
	case a.dist > b.dist:
		return 1
	}
	return 0
}

// raiseWall lays Count segments side by side, centred on the pointer or
// Distance ahead of the commander, across the facing direction.
func (s *CommandSystem) raiseWall(def *data.SkillDef) {
	ws := s.world
	c := &ws.Commander
	fwd := geom.FromAngle(c.Facing)
	center := c.Pos.Add(fwd.Scale(def.Distance))
	if ws.Input.Pointer.Active {
		center = ws.Input.Pointer.Pos
	}
	side := geom.V(-fwd.Y, fwd.X)
	gap := 2 * def.Radius
	half := float64(def.Count-1) / 2
	for i := 0; i < def.Count; i++ {
		pos := center.Add(side.Scale((float64(i) - half) * gap))
		ws.SpawnWall(pos, def.Radius, def.HP, def.Duration)
	}
}

// shield moves Stable allies near the commander into Shielded.
func (s *CommandSystem) shield(def *data.SkillDef) {
	ws := s.world
	cpos := ws.Commander.Pos
	for i := 0; i < ws.Units.Len(); i++ {
		id, u := ws.Units.At(i)
		if u.Morale != component.MoraleStable {
			continue
		}
		if def.Radius > 0 && u.Pos.Dist(cpos) > def.Radius {
			continue
		}
		ws.SetMorale(u, component.MoraleShielded, def.Duration)
		event.Emit(ws.Bus, event.MoraleChanged{Tick: ws.Tick, Unit: id, From: component.MoraleStable, To: component.MoraleShielded})
	}
}
