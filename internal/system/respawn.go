package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/izknhyt/kusozako-game-sub000/internal/core/event"
	coresys "github.com/izknhyt/kusozako-game-sub000/internal/core/system"
	"github.com/izknhyt/kusozako-game-sub000/internal/geom"
	"github.com/izknhyt/kusozako-game-sub000/internal/world"
)

// RespawnSystem revives the commander at the base and replaces fallen
// allies once their tickets expire. Tickets are served in death order.
// Phase 6 (Spawn), after Wave.
type RespawnSystem struct {
	world *world.State
	log   *zap.Logger
}

func NewRespawnSystem(ws *world.State, log *zap.Logger) *RespawnSystem {
	return &RespawnSystem{world: ws, log: log}
}

func (s *RespawnSystem) Phase() coresys.Phase { return coresys.PhaseSpawn }

func (s *RespawnSystem) Update(dt time.Duration) {
	ws := s.world
	sec := dt.Seconds()

	c := &ws.Commander
	if !c.Alive {
		c.RespawnTimer -= sec
		if c.RespawnTimer <= 0 {
			c.RespawnTimer = 0
			c.Alive = true
			c.HP = c.MaxHP
			edge := ws.Base.Pos.Add(geom.V(0, ws.Base.Radius+c.Radius))
			c.Pos = geom.ClampToWorld(edge, c.Radius, ws.Tables.Map.Bounds)
			event.Emit(ws.Bus, event.CommanderRevived{Tick: ws.Tick})
			s.log.Info("commander revived", zap.Uint64("tick", ws.Tick))
		}
	}

	kept := ws.Respawns[:0]
	for _, t := range ws.Respawns {
		t.Timer -= sec
		if t.Timer > 0 {
			kept = append(kept, t)
			continue
		}
		ws.SpawnAlly(ws.Tables.Map.AllySpawn)
		ws.Counters.Respawns++
	}
	clear(ws.Respawns[len(kept):])
	ws.Respawns = kept
}
