package component

import "github.com/izknhyt/kusozako-game-sub000/internal/geom"

// ActionKind is a decoded discrete input event.
type ActionKind int

const (
	ActionUseSkill ActionKind = iota
	ActionIssueOrder
	ActionSetFormation
)

// Action is one discrete input event for this tick.
type Action struct {
	Kind      ActionKind
	Slot      int           // ActionUseSkill
	Order     Order         // ActionIssueOrder
	Formation FormationKind // ActionSetFormation
}

// Pointer is the pointer state in world coordinates.
type Pointer struct {
	Pos    geom.Vec2
	Active bool
}

// Input is the already-decoded per-tick input sample.
type Input struct {
	Move    geom.Vec2
	Actions []Action
	Pointer Pointer
}

// RuntimeSkill is a skill slot: its definition index plus live timers.
type RuntimeSkill struct {
	Def               int
	Kind              SkillKind
	CooldownRemaining float64
	ActiveTimer       float64
	Toggled           bool
}
