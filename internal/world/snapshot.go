package world

import (
	"github.com/izknhyt/kusozako-game-sub000/internal/component"
	"github.com/izknhyt/kusozako-game-sub000/internal/core/event"
	"github.com/izknhyt/kusozako-game-sub000/internal/geom"
)

// SpriteLayer orders sprites back to front.
type SpriteLayer int

const (
	LayerGround SpriteLayer = iota // gates, zones, base
	LayerWall
	LayerActor // units, enemies, commander
	LayerOverlay
)

// SpriteKind tells the presentation layer what to draw.
type SpriteKind int

const (
	SpriteBase SpriteKind = iota
	SpriteGate
	SpriteZone
	SpriteWall
	SpriteUnit
	SpriteEnemy
	SpriteCommander
)

// Sprite is one renderer-agnostic draw item.
type Sprite struct {
	Layer  SpriteLayer
	Kind   SpriteKind
	Pos    geom.Vec2
	Radius float64
	HP     float64 // ratio in [0,1]
	Tag    string  // enemy kind, gate id, job name
	Flags  uint8
}

// Sprite flags.
const (
	FlagFollower uint8 = 1 << iota
	FlagPanicked
	FlagAsleep
	FlagDestroyed
	FlagRallied
)

// Banner is a timed HUD message.
type Banner struct {
	Text    string
	Visible bool
}

// FormationBanner shows alignment state.
type FormationBanner struct {
	Formation component.FormationKind
	State     component.FormationState
	Progress  float64
	Followers int
	Text      string
}

// SnapshotCounters are the user-visible failure counters.
type SnapshotCounters struct {
	SpawnBacklog  int
	EventsLost    uint64
	ScratchAborts uint64
	Kills         uint64
	Deaths        uint64
}

// Snapshot is the read-only output of the render-prep phase. It owns all of
// its memory.
type Snapshot struct {
	Tick      uint64
	Time      float64
	Sprites   []Sprite
	Formation FormationBanner
	Telemetry Banner
	Result    Banner
	Jobs      []event.JobStatus
	LowDetail bool
	Outcome   component.Outcome
	Order     component.Order
	BaseHP    float64
	Counters  SnapshotCounters
}
