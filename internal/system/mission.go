package system

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/izknhyt/kusozako-game-sub000/internal/component"
	coresys "github.com/izknhyt/kusozako-game-sub000/internal/core/system"
	"github.com/izknhyt/kusozako-game-sub000/internal/geom"
	"github.com/izknhyt/kusozako-game-sub000/internal/spatial"
	"github.com/izknhyt/kusozako-game-sub000/internal/spawn"
	"github.com/izknhyt/kusozako-game-sub000/internal/world"
)

// MissionSystem runs the boss, capture and survival rules. Missions of kind
// none are left to the outcome system. Phase 5 (StateUpdate).
type MissionSystem struct {
	world *world.State
	log   *zap.Logger
	buf   []int32
	open  []string
}

func NewMissionSystem(ws *world.State, log *zap.Logger) *MissionSystem {
	return &MissionSystem{world: ws, log: log}
}

func (s *MissionSystem) Phase() coresys.Phase { return coresys.PhaseStateUpdate }

func (s *MissionSystem) Update(dt time.Duration) {
	ws := s.world
	m := &ws.Mission
	if m.Kind == component.MissionNone || ws.Outcome != component.OutcomeNone {
		return
	}
	sec := dt.Seconds()
	m.Elapsed += sec

	switch m.Kind {
	case component.MissionBoss:
		s.boss(sec)
	case component.MissionCapture:
		s.capture(sec)
	case component.MissionSurvival:
		s.survival(sec)
	}
}

func (s *MissionSystem) gatePos(id string) (geom.Vec2, bool) {
	ws := s.world
	if _, g, ok := ws.Gate(id); ok {
		return g.Pos, true
	}
	if g, ok := ws.Waves.ResolveGate(id); ok {
		return g.Pos, true
	}
	return geom.Vec2{}, false
}

func (s *MissionSystem) boss(sec float64) {
	ws := s.world
	m := &ws.Mission
	def := ws.Tables.Mission.Boss

	if !m.BossSpawned {
		if m.Elapsed < def.SpawnTime {
			return
		}
		pos, ok := s.gatePos(def.Gate)
		if !ok {
			b := ws.Tables.Map.Bounds
			pos = b.Min.Add(b.Max).Scale(0.5)
		}
		m.Boss = ws.SpawnEnemy(ws.Tables.Units.Enemy(def.Enemy), pos)
		m.BossSpawned = true
		m.SummonTimer = def.SummonInterval
		s.log.Info("boss spawned", zap.String("enemy", def.Enemy), zap.String("gate", def.Gate))
		return
	}

	boss, alive := ws.Enemies.Get(m.Boss)
	if !alive {
		m.BossDefeated = true
		ws.Decide(component.OutcomeVictory, "boss defeated")
		return
	}

	if !m.Enraged && def.EnrageTime > 0 && m.Elapsed-def.SpawnTime >= def.EnrageTime {
		m.Enraged = true
		mul := def.EnrageMul
		if mul <= 0 {
			mul = 1
		}
		boss.Speed *= mul
		boss.Dps *= mul
		boss.BaseDps *= mul
		s.log.Info("boss enraged", zap.Float64("mul", mul))
	}

	if def.SummonInterval > 0 && def.SummonCount > 0 {
		m.SummonTimer -= sec
		if m.SummonTimer <= 0 {
			m.SummonTimer += def.SummonInterval
			ws.Spawner.Enqueue(&spawn.Request{
				Gate:  def.Gate,
				Enemy: def.SummonEnemy,
				Count: def.SummonCount,
				Tag:   "mission:boss",
			})
		}
	}
}

// capture advances every uncaptured zone. A zone progresses while at least
// one friendly and no enemy stands inside, and decays otherwise.
func (s *MissionSystem) capture(sec float64) {
	ws := s.world
	m := &ws.Mission
	ws.RebuildGrid()
	c := &ws.Commander

	for i := 0; i < ws.Zones.Len(); i++ {
		_, z := ws.Zones.At(i)
		if z.Captured {
			continue
		}
		friendly := c.Alive && c.Pos.Dist(z.Pos) <= z.Radius
		if !friendly {
			s.buf = ws.Near(spatial.LayerUnits, z.Pos, z.Radius, s.buf[:0])
			for _, ui := range s.buf {
				_, u := ws.Units.At(int(ui))
				if u.Pos.Dist(z.Pos) <= z.Radius {
					friendly = true
					break
				}
			}
		}
		hostile := false
		s.buf = ws.Near(spatial.LayerEnemies, z.Pos, z.Radius, s.buf[:0])
		for _, ei := range s.buf {
			_, e := ws.Enemies.At(int(ei))
			if e.Pos.Dist(z.Pos) <= z.Radius {
				hostile = true
				break
			}
		}

		if friendly && !hostile {
			z.Progress += sec
		} else {
			z.Progress = max(0, z.Progress-sec)
		}
		if z.Progress < z.CaptureTime {
			continue
		}
		z.Progress = z.CaptureTime
		z.Captured = true
		m.Captured++
		if z.DisableGate != "" {
			if _, g, ok := ws.Gate(z.DisableGate); ok {
				g.Disabled = true
			}
		}
		s.log.Info("zone captured", zap.String("zone", z.ID), zap.String("disabled_gate", z.DisableGate))
	}

	if ws.Zones.Len() > 0 && m.Captured >= ws.Zones.Len() {
		ws.Decide(component.OutcomeVictory, "all zones captured")
	}
}

// survival queues a growing pacing batch at a random open gate every
// interval and wins once the duration has elapsed.
func (s *MissionSystem) survival(sec float64) {
	ws := s.world
	m := &ws.Mission
	def := ws.Tables.Mission.Survival

	if m.Elapsed >= def.Duration {
		ws.Decide(component.OutcomeVictory, "survived")
		return
	}
	if def.PacingInterval <= 0 || def.PacingEnemy == "" {
		return
	}
	m.PacingTimer -= sec
	if m.PacingTimer > 0 {
		return
	}
	m.PacingTimer += def.PacingInterval

	s.open = s.open[:0]
	for i := 0; i < ws.Gates.Len(); i++ {
		_, g := ws.Gates.At(i)
		if !g.Destroyed && !g.Disabled {
			s.open = append(s.open, g.ID)
		}
	}
	if len(s.open) == 0 {
		return
	}
	gate := s.open[ws.RNG.IntN(len(s.open))]
	ws.Spawner.Enqueue(&spawn.Request{
		Gate:     gate,
		Enemy:    def.PacingEnemy,
		Count:    def.PacingCount + m.PacingBatch*def.PacingGrowth,
		Interval: def.PacingSpacing,
		Tag:      fmt.Sprintf("mission:survival:%d", m.PacingBatch),
	})
	m.PacingBatch++
}
