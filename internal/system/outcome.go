package system

import (
	"math"
	"time"

	"github.com/izknhyt/kusozako-game-sub000/internal/component"
	"github.com/izknhyt/kusozako-game-sub000/internal/core/event"
	coresys "github.com/izknhyt/kusozako-game-sub000/internal/core/system"
	"github.com/izknhyt/kusozako-game-sub000/internal/world"
)

// OutcomeSystem ticks the HUD banners, expires stance orders and evaluates
// the standard victory condition once per tick. Phase 5 (StateUpdate),
// after Mission.
type OutcomeSystem struct {
	world    *world.State
	lastLost uint64
}

func NewOutcomeSystem(ws *world.State) *OutcomeSystem {
	return &OutcomeSystem{world: ws}
}

func (s *OutcomeSystem) Phase() coresys.Phase { return coresys.PhaseStateUpdate }

func (s *OutcomeSystem) Update(dt time.Duration) {
	ws := s.world
	sec := dt.Seconds()
	mt := ws.Tables.Morale

	if ws.Tick <= 1 {
		s.lastLost = ws.EventsLost()
	}
	if lost := ws.EventsLost(); lost > s.lastLost {
		s.lastLost = lost
		ws.TelemetryBanner = mt.TelemetryBannerTime
		ws.TelemetryText = "events lost"
	}
	if ws.Spawner.Backlog() > 0 && ws.TelemetryBanner <= 0 {
		ws.TelemetryBanner = mt.TelemetryBannerTime
		ws.TelemetryText = "spawn backlog"
	}
	ws.TelemetryBanner = math.Max(0, ws.TelemetryBanner-sec)
	ws.ResultBanner = math.Max(0, ws.ResultBanner-sec)

	if ws.OrderTimer > 0 {
		ws.OrderTimer -= sec
		if ws.OrderTimer <= 0 {
			ws.OrderTimer = 0
			ws.Order = mt.DefaultOrder
			event.Emit(ws.Bus, event.OrderChanged{Tick: ws.Tick, Order: ws.Order, Expired: true})
		}
	}

	if ws.Outcome != component.OutcomeNone || ws.Mission.Kind != component.MissionNone {
		return
	}
	if ws.Waves.Exhausted() &&
		ws.Spawner.Empty() &&
		ws.Enemies.Len() == 0 &&
		ws.Time-ws.LastEnemySpawn >= mt.VictoryGrace {
		ws.Decide(component.OutcomeVictory, "all waves cleared")
	}
}
