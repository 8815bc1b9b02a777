package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput       Phase = iota // 0: sample decoded input into commander intent + action queue
	PhaseCommand                  // 1: skills, orders, morale transitions, formation assignment
	PhaseAI                       // 2: temperament behavior → desired velocities
	PhaseMovement                 // 3: integrate velocities, clamp to world
	PhaseCombat                   // 4: contact damage, kills, respawn scheduling
	PhaseStateUpdate              // 5: missions, banners, order expiry, victory/defeat
	PhaseSpawn                    // 6: waves, spawner budget, ally respawns
	PhaseRenderPrep               // 7: renderer-agnostic snapshot
	PhaseCleanup                  // 8: event flush, destroy queue, frame arena reset
)

var phaseNames = [...]string{"input", "command", "ai", "movement", "combat", "state", "spawn", "render", "cleanup"}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "unknown"
}

// System is the interface every simulation system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
