package system

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/izknhyt/kusozako-game-sub000/internal/component"
	"github.com/izknhyt/kusozako-game-sub000/internal/core/event"
	coresys "github.com/izknhyt/kusozako-game-sub000/internal/core/system"
	"github.com/izknhyt/kusozako-game-sub000/internal/geom"
	"github.com/izknhyt/kusozako-game-sub000/internal/scripting"
	"github.com/izknhyt/kusozako-game-sub000/internal/spatial"
	"github.com/izknhyt/kusozako-game-sub000/internal/world"
)

// CombatSystem moves enemies, resolves contact and ranged damage against
// enemies, allies, the commander, walls, gates and the base, then removes
// the dead. Damage is accumulated during the pass and applied at the end;
// nothing is destroyed mid-iteration. Phase 4 (Combat).
type CombatSystem struct {
	world     *world.State
	log       *zap.Logger
	buf       []int32
	enemyDmg  []float64
	maxEnemyR float64
	maxUnitR  float64
	maxWallR  float64
}

func NewCombatSystem(ws *world.State, log *zap.Logger) *CombatSystem {
	return &CombatSystem{world: ws, log: log}
}

func (s *CombatSystem) Phase() coresys.Phase { return coresys.PhaseCombat }

func (s *CombatSystem) Update(dt time.Duration) {
	ws := s.world
	sec := dt.Seconds()

	s.prepare(sec)
	ws.RebuildGrid()
	s.advanceEnemies(sec)
	ws.RebuildGrid()

	s.meleeAndRanged(sec)
	s.commanderContact(sec)
	s.gateContact(sec)
	s.baseContact(sec)

	s.resolveEnemies()
	s.resolveUnits()
	s.resolveCommander()
	s.resolveWalls()
	ws.ECS.FlushDestroyQueue()
}

func (s *CombatSystem) prepare(sec float64) {
	ws := s.world
	s.maxEnemyR, s.maxUnitR, s.maxWallR = 0, 0, 0

	if cap(s.enemyDmg) < ws.Enemies.Len() {
		s.enemyDmg = make([]float64, ws.Enemies.Len())
	}
	s.enemyDmg = s.enemyDmg[:ws.Enemies.Len()]
	clear(s.enemyDmg)
	for i := 0; i < ws.Enemies.Len(); i++ {
		_, e := ws.Enemies.At(i)
		s.maxEnemyR = math.Max(s.maxEnemyR, e.Radius)
	}
	for i := 0; i < ws.Units.Len(); i++ {
		_, u := ws.Units.At(i)
		u.Cooldown = math.Max(0, u.Cooldown-sec)
		u.Endlag = math.Max(0, u.Endlag-sec)
		u.DamageTaken = 0
		s.maxUnitR = math.Max(s.maxUnitR, u.Radius)
	}
	for i := 0; i < ws.Walls.Len(); i++ {
		_, w := ws.Walls.At(i)
		w.Lifetime -= sec
		s.maxWallR = math.Max(s.maxWallR, w.Radius)
	}
	ws.Commander.DamageTaken = 0
}

// advanceEnemies walks enemies toward the base, or wallbreakers toward the
// nearest standing wall within their preference radius, then pushes them
// out of walls they overlap while chewing on them.
func (s *CombatSystem) advanceEnemies(sec float64) {
	ws := s.world
	base := &ws.Base
	bounds := ws.Tables.Map.Bounds
	for i := 0; i < ws.Enemies.Len(); i++ {
		_, e := ws.Enemies.At(i)

		target, contact := base.Pos, e.Radius+base.Radius
		if e.Archetype == component.ArchetypeWallbreaker && e.WallPreference > 0 {
			if w := s.nearestWall(e.Pos, e.WallPreference); w >= 0 {
				_, wall := ws.Walls.At(w)
				target, contact = wall.Pos, e.Radius+wall.Radius
			}
		}
		if d := e.Pos.Dist(target); d > contact {
			step := math.Min(e.Speed*sec, d-contact)
			e.Pos = e.Pos.Add(target.Sub(e.Pos).Scale(step / d))
		}

		s.buf = ws.Near(spatial.LayerWalls, e.Pos, e.Radius+s.maxWallR, s.buf[:0])
		for _, wi := range s.buf {
			_, w := ws.Walls.At(int(wi))
			if w.HP <= 0 || !geom.Overlaps(e.Pos, e.Radius, w.Pos, w.Radius) {
				continue
			}
			w.HP -= e.WallDps * sec
			if e.IgnoreKnockback {
				continue
			}
			dir := e.Pos.Sub(w.Pos).Norm()
			if dir.IsZero() {
				dir = base.Pos.Sub(w.Pos).Norm().Scale(-1)
			}
			if dir.IsZero() {
				dir = geom.V(1, 0)
			}
			e.Pos = w.Pos.Add(dir.Scale(e.Radius + w.Radius))
		}

		e.Pos = geom.ClampToWorld(e.Pos, e.Radius, bounds)
		e.AtBase = e.Pos.Dist(base.Pos) <= e.Radius+base.Radius+1e-6
	}
}

func (s *CombatSystem) nearestWall(pos geom.Vec2, radius float64) int {
	ws := s.world
	best, bestD := -1, 0.0
	s.buf = ws.Near(spatial.LayerWalls, pos, radius, s.buf[:0])
	for _, wi := range s.buf {
		_, w := ws.Walls.At(int(wi))
		if w.HP <= 0 {
			continue
		}
		d := w.Pos.DistSq(pos)
		if d > radius*radius {
			continue
		}
		if best < 0 || d < bestD {
			best, bestD = int(wi), d
		}
	}
	return best
}

// alignScale is the incoming damage scale for formation followers while
// the post-change alignment window runs.
func (s *CombatSystem) alignScale(follower bool) float64 {
	ws := s.world
	if follower && ws.Formation.AlignTimer > 0 {
		return ws.Tables.Formations.DamageTakenScale
	}
	return 1
}

func (s *CombatSystem) meleeAndRanged(sec float64) {
	ws := s.world
	for i := 0; i < ws.Units.Len(); i++ {
		_, u := ws.Units.At(i)
		jd := ws.Tables.Units.Job(u.Job)
		scale := s.alignScale(u.Follower) / u.DefenseMul

		s.buf = ws.Near(spatial.LayerEnemies, u.Pos, u.Radius+s.maxEnemyR, s.buf[:0])
		for _, ei := range s.buf {
			_, e := ws.Enemies.At(int(ei))
			if !geom.Overlaps(u.Pos, u.Radius, e.Pos, e.Radius) {
				continue
			}
			if jd.Range <= 0 {
				s.enemyDmg[ei] += jd.Dps * u.AccuracyMul * sec
			}
			u.DamageTaken += e.Dps * sec * scale
			u.LastHitFrom = e.Pos
		}

		if jd.Range > 0 && u.Cooldown <= 0 && u.AccuracyMul > 0 {
			if t := nearestEnemy(ws, u.Pos, jd.Range, &s.buf, nil); t >= 0 {
				s.enemyDmg[t] += jd.Damage * u.AccuracyMul
				u.Cooldown = jd.Cooldown
				u.Endlag = jd.Endlag
			}
		}
	}
}

func (s *CombatSystem) commanderContact(sec float64) {
	ws := s.world
	c := &ws.Commander
	if !c.Alive {
		return
	}
	scale := s.alignScale(true)
	s.buf = ws.Near(spatial.LayerEnemies, c.Pos, c.Radius+s.maxEnemyR, s.buf[:0])
	for _, ei := range s.buf {
		_, e := ws.Enemies.At(int(ei))
		if !geom.Overlaps(c.Pos, c.Radius, e.Pos, e.Radius) {
			continue
		}
		s.enemyDmg[ei] += c.Dps * sec
		c.DamageTaken += e.Dps * sec * scale
	}
}

// gateContact applies melee dps from the commander and melee allies to
// attackable gates. A gate at zero HP is destroyed for good.
func (s *CombatSystem) gateContact(sec float64) {
	ws := s.world
	c := &ws.Commander
	for i := 0; i < ws.Gates.Len(); i++ {
		_, g := ws.Gates.At(i)
		if g.Destroyed || g.Tile {
			continue
		}
		if c.Alive && geom.Overlaps(c.Pos, c.Radius, g.Pos, g.Radius) {
			g.HP -= c.Dps * sec
		}
		s.buf = ws.Near(spatial.LayerUnits, g.Pos, g.Radius+s.maxUnitR, s.buf[:0])
		for _, ui := range s.buf {
			_, u := ws.Units.At(int(ui))
			jd := ws.Tables.Units.Job(u.Job)
			if jd.Range > 0 || !geom.Overlaps(u.Pos, u.Radius, g.Pos, g.Radius) {
				continue
			}
			g.HP -= jd.Dps * u.AccuracyMul * sec
		}
		if g.HP <= 0 {
			g.HP = 0
			g.Destroyed = true
			ws.Counters.GatesDestroyed++
			event.Emit(ws.Bus, event.GateDestroyed{Tick: ws.Tick, GateID: g.ID})
			s.log.Info("gate destroyed", zap.String("gate", g.ID), zap.Uint64("tick", ws.Tick))
		}
	}
}

func (s *CombatSystem) baseContact(sec float64) {
	ws := s.world
	base := &ws.Base
	if base.HP <= 0 {
		return
	}
	for i := 0; i < ws.Enemies.Len(); i++ {
		_, e := ws.Enemies.At(i)
		if e.AtBase {
			base.HP -= e.BaseDps * sec
		}
	}
	if base.HP <= 0 {
		base.HP = 0
		if ws.FailsOnBase() {
			ws.Decide(component.OutcomeDefeat, "base destroyed")
		}
	}
}

func (s *CombatSystem) resolveEnemies() {
	ws := s.world
	for i := 0; i < ws.Enemies.Len(); i++ {
		id, e := ws.Enemies.At(i)
		e.HP -= s.enemyDmg[i]
		if e.HP <= 0 {
			ws.ECS.MarkForDestruction(id)
			ws.Counters.Kills++
		}
	}
}

// resolveUnits applies the tick's accumulated damage. A panic-on-hit unit
// panics on any hit and survives a hit that does not exceed its HP.
func (s *CombatSystem) resolveUnits() {
	ws := s.world
	for i := 0; i < ws.Units.Len(); i++ {
		id, u := ws.Units.At(i)
		dmg := u.DamageTaken
		if dmg <= 0 {
			continue
		}
		hp := u.HP
		if ts, ok := ws.Temperaments.Get(id); ok {
			def := ws.Tables.Temperaments.Get(ts.Def)
			if def.PanicOnHit {
				u.PanicTimer = math.Max(u.PanicTimer, def.PanicDuration)
				if dmg <= hp {
					u.HP = math.Max(hp-dmg, 1)
					continue
				}
			}
		}
		u.HP = hp - dmg
		if u.HP > 0 {
			continue
		}

		ratio := OverkillRatio(dmg, hp, u.MaxHP)
		delay := s.respawnDelay(u.Job, ratio)
		ws.Respawns = append(ws.Respawns, world.RespawnTicket{Timer: delay, Job: u.Job})
		ws.Counters.Deaths++
		ws.ECS.MarkForDestruction(id)
		event.Emit(ws.Bus, event.UnitDied{
			Tick: ws.Tick, Unit: id, Job: u.Job, OverkillRate: ratio, RespawnIn: delay,
		})
	}
}

// OverkillRatio is the damage beyond remaining HP, capped at three times
// max HP, as a fraction of max HP.
func OverkillRatio(damage, hp, maxHP float64) float64 {
	if maxHP <= 0 {
		return 0
	}
	over := math.Min(math.Max(damage-hp, 0), 3*maxHP)
	return over / maxHP
}

func (s *CombatSystem) respawnDelay(job component.Job, ratio float64) float64 {
	ws := s.world
	ally := ws.Tables.Units.Ally
	delay := ally.RespawnTime * (1 + ratio*ally.OverkillFactor)
	if ws.Script != nil {
		if d, ok := ws.Script.CalcRespawnDelay(scripting.RespawnContext{
			Base:           ally.RespawnTime,
			OverkillRatio:  ratio,
			OverkillFactor: ally.OverkillFactor,
			Job:            job.String(),
			Deaths:         int(ws.Counters.Deaths),
		}); ok {
			delay = d
		}
	}
	return delay
}

func (s *CombatSystem) resolveCommander() {
	ws := s.world
	c := &ws.Commander
	if !c.Alive || c.DamageTaken <= 0 {
		return
	}
	c.HP -= c.DamageTaken
	if c.HP > 0 {
		return
	}
	c.HP = 0
	c.Alive = false
	c.RespawnTimer = ws.Tables.Units.Commander.RespawnTime
	event.Emit(ws.Bus, event.CommanderDown{Tick: ws.Tick})
	s.log.Info("commander down", zap.Uint64("tick", ws.Tick), zap.Float64("respawn_in", c.RespawnTimer))
}

func (s *CombatSystem) resolveWalls() {
	ws := s.world
	for i := 0; i < ws.Walls.Len(); i++ {
		id, w := ws.Walls.At(i)
		if w.HP <= 0 || w.Lifetime <= 0 {
			ws.ECS.MarkForDestruction(id)
		}
	}
}
