package system

import (
	"errors"
	"sort"
	"time"
)

// ErrReentrant is returned when Tick is called from inside a running tick.
var ErrReentrant = errors.New("runner: re-entrant tick")

// Runner executes systems in phase order each tick. Systems sharing a phase
// run in registration order.
type Runner struct {
	systems []System
	sorted  bool
	running bool
	ticks   uint64
}

func NewRunner() *Runner {
	return &Runner{
		systems: make([]System, 0, 16),
	}
}

func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.sorted = false
}

// Tick runs every registered system once.
func (r *Runner) Tick(dt time.Duration) error {
	if r.running {
		return ErrReentrant
	}
	r.running = true
	defer func() { r.running = false }()

	r.ensureSorted()
	for _, s := range r.systems {
		s.Update(dt)
	}
	r.ticks++
	return nil
}

// TickPhase runs only the systems of one phase. Used by tests and tools
// that need a single stage in isolation.
func (r *Runner) TickPhase(phase Phase, dt time.Duration) error {
	if r.running {
		return ErrReentrant
	}
	r.running = true
	defer func() { r.running = false }()

	r.ensureSorted()
	for _, s := range r.systems {
		if s.Phase() == phase {
			s.Update(dt)
		}
	}
	return nil
}

// Ticks returns the number of completed full ticks.
func (r *Runner) Ticks() uint64 { return r.ticks }

// Len returns the number of registered systems.
func (r *Runner) Len() int { return len(r.systems) }

func (r *Runner) ensureSorted() {
	if !r.sorted {
		sort.SliceStable(r.systems, func(i, j int) bool {
			return r.systems[i].Phase() < r.systems[j].Phase()
		})
		r.sorted = true
	}
}
