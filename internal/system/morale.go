package system

import (
	"time"

	"github.com/izknhyt/kusozako-game-sub000/internal/component"
	"github.com/izknhyt/kusozako-game-sub000/internal/core/ecs"
	"github.com/izknhyt/kusozako-game-sub000/internal/core/event"
	coresys "github.com/izknhyt/kusozako-game-sub000/internal/core/system"
	"github.com/izknhyt/kusozako-game-sub000/internal/world"
)

// MoraleSystem drives per-unit morale transitions around the commander's
// death and revival. Phase 1 (Command).
//
//	stable/recovering/shielded --leader dies--> leader_down
//	leader_down --expires, leader still down--> panic | mesomeso (temperament)
//	panic/mesomeso --expires, leader still down--> leader_down
//	any leader-loss state --leader alive--> recovering --expires--> stable
//	shielded --expires--> stable
type MoraleSystem struct {
	world       *world.State
	leaderAlive bool
	primed      bool
}

func NewMoraleSystem(ws *world.State) *MoraleSystem {
	return &MoraleSystem{world: ws}
}

func (s *MoraleSystem) Phase() coresys.Phase { return coresys.PhaseCommand }

func (s *MoraleSystem) Update(dt time.Duration) {
	ws := s.world
	sec := dt.Seconds()
	alive := ws.Commander.Alive
	if !s.primed || ws.Tick <= 1 {
		s.leaderAlive = alive
		s.primed = true
	}
	lostLeader := s.leaderAlive && !alive
	regained := !s.leaderAlive && alive
	s.leaderAlive = alive

	mt := ws.Tables.Morale
	for i := 0; i < ws.Units.Len(); i++ {
		id, u := ws.Units.At(i)
		from := u.Morale

		switch {
		case lostLeader:
			s.set(id, u, component.MoraleLeaderDown, mt.LeaderDownDuration)
		case regained && leaderLoss(u.Morale):
			s.set(id, u, component.MoraleRecovering, mt.RecoveringDuration)
		}
		if u.Morale != from || u.MoraleTimer <= 0 {
			continue
		}

		u.MoraleTimer -= sec
		if u.MoraleTimer > 0 {
			continue
		}
		u.MoraleTimer = 0
		switch u.Morale {
		case component.MoraleLeaderDown:
			if alive {
				s.set(id, u, component.MoraleRecovering, mt.RecoveringDuration)
				break
			}
			s.breakDown(id, u)
		case component.MoralePanic, component.MoraleMesomeso:
			if alive {
				s.set(id, u, component.MoraleRecovering, mt.RecoveringDuration)
			} else {
				s.set(id, u, component.MoraleLeaderDown, mt.LeaderDownDuration)
			}
		case component.MoraleRecovering:
			s.set(id, u, component.MoraleStable, 0)
		case component.MoraleShielded:
			if alive {
				s.set(id, u, component.MoraleStable, 0)
			} else {
				s.set(id, u, component.MoraleLeaderDown, mt.LeaderDownDuration)
			}
		}
	}
}

// breakDown moves a unit whose leader stayed down into its temperament's
// leader-loss reaction.
func (s *MoraleSystem) breakDown(id ecs.EntityID, u *component.Unit) {
	ws := s.world
	mt := ws.Tables.Morale
	reaction := component.MoralePanic
	ts, ok := ws.Temperaments.Get(id)
	if ok {
		reaction = ws.Tables.Temperaments.Get(ts.Def).LeaderLoss
	}
	switch reaction {
	case component.MoraleMesomeso:
		s.set(id, u, component.MoraleMesomeso, mt.MesomesoDuration)
		if ok {
			ts.CryTimer = mt.MesomesoDuration
		}
	default:
		s.set(id, u, component.MoralePanic, mt.PanicDuration)
		u.PanicTimer = mt.PanicDuration
	}
}

func (s *MoraleSystem) set(id ecs.EntityID, u *component.Unit, to component.MoraleState, timer float64) {
	from := u.Morale
	s.world.SetMorale(u, to, timer)
	if from != to {
		event.Emit(s.world.Bus, event.MoraleChanged{Tick: s.world.Tick, Unit: id, From: from, To: to})
	}
}

func leaderLoss(m component.MoraleState) bool {
	switch m {
	case component.MoraleLeaderDown, component.MoralePanic, component.MoraleMesomeso:
		return true
	}
	return false
}
