package system

import (
	"time"

	coresys "github.com/izknhyt/kusozako-game-sub000/internal/core/system"
	"github.com/izknhyt/kusozako-game-sub000/internal/world"
)

// CleanupSystem delivers the tick's events, removes entities marked for
// destruction and rewinds the frame arena. Phase 8 (Cleanup), always last.
type CleanupSystem struct {
	world *world.State
}

func NewCleanupSystem(ws *world.State) *CleanupSystem {
	return &CleanupSystem{world: ws}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	ws := s.world
	ws.Bus.Flush()
	ws.ECS.FlushDestroyQueue()
	ws.Arena.Reset()
}
