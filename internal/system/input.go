package system

import (
	"time"

	coresys "github.com/izknhyt/kusozako-game-sub000/internal/core/system"
	"github.com/izknhyt/kusozako-game-sub000/internal/geom"
	"github.com/izknhyt/kusozako-game-sub000/internal/world"
)

// InputSystem turns the decoded move axis into the commander's move intent
// for this tick. Phase 0 (Input).
type InputSystem struct {
	world *world.State
}

func NewInputSystem(ws *world.State) *InputSystem {
	return &InputSystem{world: ws}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	c := &s.world.Commander
	if !c.Alive {
		c.MoveIntent = geom.Vec2{}
		return
	}
	move := s.world.Input.Move.ClampLen(1)
	c.MoveIntent = move.Scale(c.Speed * s.world.RushMul)
	if !move.IsZero() {
		c.Facing = move.Angle()
	}
}
