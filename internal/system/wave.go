package system

import (
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/izknhyt/kusozako-game-sub000/internal/core/event"
	coresys "github.com/izknhyt/kusozako-game-sub000/internal/core/system"
	"github.com/izknhyt/kusozako-game-sub000/internal/geom"
	"github.com/izknhyt/kusozako-game-sub000/internal/spawn"
	"github.com/izknhyt/kusozako-game-sub000/internal/world"
)

// WaveSystem triggers due waves and emits queued spawns under the per-tick
// budget. Phase 6 (Spawn).
type WaveSystem struct {
	world *world.State
	log   *zap.Logger
}

func NewWaveSystem(ws *world.State, log *zap.Logger) *WaveSystem {
	return &WaveSystem{world: ws, log: log}
}

func (s *WaveSystem) Phase() coresys.Phase { return coresys.PhaseSpawn }

func (s *WaveSystem) Update(dt time.Duration) {
	ws := s.world
	ws.Waves.Advance(ws.Time, func(t spawn.Triggered) {
		event.Emit(ws.Bus, event.WaveStarted{
			Tick:     ws.Tick,
			WaveID:   strconv.Itoa(t.Index + 1),
			Gates:    t.Gates,
			Requests: t.Requests,
			Skipped:  t.Skipped,
		})
		s.log.Info("wave started",
			zap.Int("wave", t.Index+1),
			zap.Strings("gates", t.Gates),
			zap.Int("requests", t.Requests),
			zap.Int("skipped", t.Skipped))
	})

	res := ws.Spawner.Emit(dt.Seconds(), func(r *spawn.Request) {
		id := r.PickEnemy(ws.RNG)
		def := ws.Tables.Units.Enemy(id)
		if def == nil {
			s.log.Debug("unknown enemy in spawn request", zap.String("enemy", id), zap.String("tag", r.Tag))
			return
		}
		pos, radius, ok := s.origin(r.Gate)
		if !ok {
			return
		}
		ws.SpawnEnemy(def, ws.Jitter(pos, radius))
	})
	if res.Deferred > 0 {
		s.log.Debug("spawn budget reached", zap.Int("emitted", res.Emitted), zap.Int("deferred", res.Deferred))
	}
}

func (s *WaveSystem) origin(gate string) (pos geom.Vec2, radius float64, ok bool) {
	ws := s.world
	if _, g, found := ws.Gate(gate); found {
		return g.Pos, g.Radius, true
	}
	if g, found := ws.Waves.ResolveGate(gate); found {
		return g.Pos, g.Radius, true
	}
	return geom.Vec2{}, 0, false
}
