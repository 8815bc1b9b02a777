package component

import "github.com/izknhyt/kusozako-game-sub000/internal/geom"

// Unit stores an allied soldier.
// Plain data; systems own every mutation.
type Unit struct {
	Pos    geom.Vec2
	Radius float64
	HP     float64
	MaxHP  float64
	Speed  float64 // base px/s before morale and dash/catch-up boosts

	Job      Job
	Cooldown float64 // job attack cooldown remaining (s)
	Endlag   float64 // post-attack recovery; velocity is zero while > 0

	Morale      MoraleState
	MoraleTimer float64 // time left in the current morale state; 0 = indefinite
	SpeedMul    float64
	AccuracyMul float64
	DefenseMul  float64

	Rallied    bool      // selected by the rally toggle skill
	Follower   bool      // holds a formation slot this tick
	SlotIndex  int       // slot index when Follower
	SlotTarget geom.Vec2 // world-space slot when Follower

	IgnoringOrders bool
	IgnoreTimer    float64 // time until the ignore-orders re-roll

	PanicTimer  float64
	LastHitFrom geom.Vec2 // attacker position of the last hit, used for blind panic flight

	// Scratch, recomputed every tick.
	DesiredVel  geom.Vec2
	DamageTaken float64
}

// Commander is the player-controlled leader. There is exactly one per
// simulation and it lives outside the component pools.
type Commander struct {
	Pos          geom.Vec2
	Radius       float64
	HP           float64
	MaxHP        float64
	Speed        float64
	Dps          float64
	Alive        bool
	RespawnTimer float64
	Facing       float64 // heading in radians, follows the last non-zero intent

	MoveIntent geom.Vec2 // single-tick validity, cleared by Movement

	DamageTaken float64
}

// Base is the defended objective.
type Base struct {
	Pos    geom.Vec2
	Radius float64
	HP     float64
	MaxHP  float64
}
