package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSystem struct {
	name  string
	phase Phase
	log   *[]string
	hook  func()
}

func (p *recordingSystem) Phase() Phase { return p.phase }
func (p *recordingSystem) Update(time.Duration) {
	*p.log = append(*p.log, p.name)
	if p.hook != nil {
		p.hook()
	}
}

func TestRunnerOrdersByPhaseThenRegistration(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(&recordingSystem{name: "spawn", phase: PhaseSpawn, log: &log})
	r.Register(&recordingSystem{name: "input", phase: PhaseInput, log: &log})
	r.Register(&recordingSystem{name: "morale", phase: PhaseCommand, log: &log})
	r.Register(&recordingSystem{name: "formation", phase: PhaseCommand, log: &log})
	r.Register(&recordingSystem{name: "cleanup", phase: PhaseCleanup, log: &log})

	require.NoError(t, r.Tick(time.Second/60))
	assert.Equal(t, []string{"input", "morale", "formation", "spawn", "cleanup"}, log)
	assert.Equal(t, uint64(1), r.Ticks())

	log = log[:0]
	require.NoError(t, r.TickPhase(PhaseCommand, 0))
	assert.Equal(t, []string{"morale", "formation"}, log)
}

func TestRunnerRejectsReentrantTick(t *testing.T) {
	var log []string
	r := NewRunner()
	var inner error
	r.Register(&recordingSystem{name: "ai", phase: PhaseAI, log: &log, hook: func() {
		inner = r.Tick(0)
	}})
	require.NoError(t, r.Tick(0))
	assert.ErrorIs(t, inner, ErrReentrant)
	assert.Equal(t, []string{"ai"}, log)
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "combat", PhaseCombat.String())
	assert.Equal(t, "unknown", Phase(42).String())
}
