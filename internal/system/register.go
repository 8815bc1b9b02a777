package system

import (
	"go.uber.org/zap"

	coresys "github.com/izknhyt/kusozako-game-sub000/internal/core/system"
	"github.com/izknhyt/kusozako-game-sub000/internal/world"
)

// RegisterAll wires every simulation system into r. Order within a phase
// is registration order.
func RegisterAll(r *coresys.Runner, ws *world.State, log *zap.Logger) {
	r.Register(NewInputSystem(ws))

	r.Register(NewCommandSystem(ws, log))
	r.Register(NewMoraleSystem(ws))
	r.Register(NewFormationSystem(ws))

	r.Register(NewBehaviorSystem(ws, log))
	r.Register(NewMovementSystem(ws))
	r.Register(NewCombatSystem(ws, log))

	r.Register(NewMissionSystem(ws, log))
	r.Register(NewOutcomeSystem(ws))

	r.Register(NewWaveSystem(ws, log))
	r.Register(NewRespawnSystem(ws, log))

	r.Register(NewRenderPrepSystem(ws, log))
	r.Register(NewCleanupSystem(ws))
}
