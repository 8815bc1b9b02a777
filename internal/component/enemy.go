package component

import "github.com/izknhyt/kusozako-game-sub000/internal/geom"

// Enemy stores a hostile unit spawned from a gate.
type Enemy struct {
	Pos             geom.Vec2
	Radius          float64
	HP              float64
	MaxHP           float64
	Archetype       Archetype
	Kind            string // enemy table id, e.g. "slime_small"
	Tags            []string
	Speed           float64
	Dps             float64 // contact damage per second against units
	WallDps         float64
	BaseDps         float64
	IgnoreKnockback bool
	WallPreference  float64 // wallbreakers retarget walls within this radius
	AtBase          bool
}

// Wall is a transient barrier created by the wall skill.
type Wall struct {
	Pos      geom.Vec2
	Radius   float64
	HP       float64
	MaxHP    float64
	Lifetime float64 // seconds left before it decays
}

// Gate is a map or script portal enemies spawn from.
type Gate struct {
	ID        string
	Pos       geom.Vec2
	Radius    float64
	HP        float64
	MaxHP     float64
	Destroyed bool
	Disabled  bool // temporarily closed, e.g. by a captured zone
	Tile      bool // script gate tile: a spawn point that cannot be attacked
}

// CaptureZone is a capture-mission objective area.
type CaptureZone struct {
	ID          string
	Pos         geom.Vec2
	Radius      float64
	CaptureTime float64
	Progress    float64 // seconds of uncontested presence, decays when empty
	Captured    bool
	DisableGate string
}
