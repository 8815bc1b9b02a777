package system

import (
	"time"

	coresys "github.com/izknhyt/kusozako-game-sub000/internal/core/system"
	"github.com/izknhyt/kusozako-game-sub000/internal/geom"
	"github.com/izknhyt/kusozako-game-sub000/internal/world"
)

// MovementSystem integrates the commander's intent and every ally's desired
// velocity, clamps into the world, and clears both. Phase 3 (Movement).
type MovementSystem struct {
	world *world.State
}

func NewMovementSystem(ws *world.State) *MovementSystem {
	return &MovementSystem{world: ws}
}

func (s *MovementSystem) Phase() coresys.Phase { return coresys.PhaseMovement }

func (s *MovementSystem) Update(dt time.Duration) {
	ws := s.world
	sec := dt.Seconds()
	bounds := ws.Tables.Map.Bounds

	c := &ws.Commander
	if c.Alive {
		c.Pos = geom.ClampToWorld(c.Pos.Add(c.MoveIntent.Scale(sec)), c.Radius, bounds)
	}
	c.MoveIntent = geom.Vec2{}

	for i := 0; i < ws.Units.Len(); i++ {
		_, u := ws.Units.At(i)
		u.Pos = geom.ClampToWorld(u.Pos.Add(u.DesiredVel.Scale(sec)), u.Radius, bounds)
		u.DesiredVel = geom.Vec2{}
	}
}
