package event

import (
	"github.com/izknhyt/kusozako-game-sub000/internal/component"
	"github.com/izknhyt/kusozako-game-sub000/internal/core/ecs"
)

// FormationChanged is emitted when the commander selects a new formation.
type FormationChanged struct {
	Tick      uint64
	Formation component.FormationKind
	Previous  component.FormationKind
}

// FormationProgress reports alignment state, progress and follower count.
type FormationProgress struct {
	Tick      uint64
	Formation component.FormationKind
	State     component.FormationState
	Progress  float64
	Followers int
}

// WaveStarted is emitted once per triggered wave.
type WaveStarted struct {
	Tick     uint64
	WaveID   string
	Gates    []string
	Requests int
	Skipped  int // unresolved gate references
}

// GateDestroyed is emitted when melee contact drops a gate to zero HP.
type GateDestroyed struct {
	Tick   uint64
	GateID string
}

// MoraleChanged reports one unit's morale transition.
type MoraleChanged struct {
	Tick uint64
	Unit ecs.EntityID
	From component.MoraleState
	To   component.MoraleState
}

// CommanderDown / CommanderRevived bracket the leader-down window.
type CommanderDown struct{ Tick uint64 }
type CommanderRevived struct{ Tick uint64 }

// UnitDied is emitted when an ally dies and a respawn is scheduled.
type UnitDied struct {
	Tick         uint64
	Unit         ecs.EntityID
	Job          component.Job
	OverkillRate float64
	RespawnIn    float64
}

// JobStatus is one HUD row.
type JobStatus struct {
	Job     component.Job
	Alive   int
	Dead    int
	HPRatio float64
	Cooling int
}

// HUDSummary is emitted when the per-job HUD rows change.
type HUDSummary struct {
	Tick uint64
	Jobs []JobStatus
}

// OrderChanged is emitted when a stance order is issued or expires.
type OrderChanged struct {
	Tick    uint64
	Order   component.Order
	Expired bool
}

// OutcomeDecided is emitted once when the scenario is won or lost.
type OutcomeDecided struct {
	Tick    uint64
	Outcome component.Outcome
	Reason  string
}
