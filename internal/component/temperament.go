package component

import "github.com/izknhyt/kusozako-game-sub000/internal/geom"

// TemperamentState is the per-unit AI state machine. It is assigned at spawn
// from the temperament table and discarded when the unit dies.
type TemperamentState struct {
	Def      int      // index into the temperament table
	Behavior Behavior // selected behavior (Mimic for mimics)

	MimicBehavior Behavior // currently impersonated behavior
	MimicTimer    float64  // time until the impersonation rotates

	WanderDir   geom.Vec2
	WanderTimer float64

	Asleep     bool // doze window: true while sleeping
	DozeTimer  float64
	CryTimer   float64
	DashTimer  float64 // counts down the current dash/rest window
	Dashing    bool
	CatchUp    float64 // follow catch-up boost remaining
	GuardAngle float64 // patrol position on the guard ring

	RaidTarget int // index into the tick's raid target list, -1 for none
}
