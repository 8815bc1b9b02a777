// Package spawn schedules enemy waves and throttles how many enemies are
// instantiated per tick.
package spawn

import (
	"math"

	"github.com/izknhyt/kusozako-game-sub000/internal/data"
)

// GateState is what the spawner needs to know about a gate.
type GateState int

const (
	GateOpen      GateState = iota
	GateDisabled            // emission paused, counts kept
	GateDestroyed           // queue pruned
)

// Request is a pending batch of identical spawns at one gate.
type Request struct {
	Gate     string
	Enemy    string
	Variants []data.Variant
	Count    int     // spawns left
	Interval float64 // seconds between emissions
	Timer    float64 // time until the next emission; <= 0 means ready
	Tag      string  // origin, e.g. "wave:3" or "mission:boss"

	pity []float64 // accumulated extra weight per variant
}

// Float64er is the RNG surface the variant roulette draws from.
type Float64er interface {
	Float64() float64
}

// PickEnemy returns the enemy id for the next emission. Sets with variants
// use a weighted roulette; every variant that is not picked gains its pity
// weight, and the picked one resets.
func (r *Request) PickEnemy(rng Float64er) string {
	if len(r.Variants) == 0 {
		return r.Enemy
	}
	if len(r.pity) != len(r.Variants) {
		r.pity = make([]float64, len(r.Variants))
	}
	total := 0.0
	for i, v := range r.Variants {
		total += v.Weight + r.pity[i]
	}
	x := rng.Float64() * total
	picked := len(r.Variants) - 1
	for i, v := range r.Variants {
		w := v.Weight + r.pity[i]
		if x < w {
			picked = i
			break
		}
		x -= w
	}
	for i, v := range r.Variants {
		if i == picked {
			r.pity[i] = 0
		} else {
			r.pity[i] += v.Pity
		}
	}
	return r.Variants[picked].Enemy
}

func (r *Request) ready() bool { return r.Count > 0 && r.Timer <= 0 }

// due is how many spawns this request could emit right now if the budget
// allowed it.
func (r *Request) due() int {
	if !r.ready() {
		return 0
	}
	if r.Interval <= 0 {
		return r.Count
	}
	n := 1 + int(math.Floor(-r.Timer/r.Interval))
	return min(n, r.Count)
}

type gateQueue struct {
	gate string
	reqs []*Request
}

// EmitResult reports one Emit call.
type EmitResult struct {
	Emitted  int
	Deferred int // ready spawns held back by the budget
}

// Spawner emits queued requests under a per-tick budget. Gates are served
// round-robin in first-enqueue order, one spawn per gate per round.
type Spawner struct {
	maxPerFrame int
	queues      []*gateQueue
	status      func(gate string) GateState
	backlog     int
	emitted     uint64
}

// NewSpawner creates a spawner. maxPerFrame <= 0 disables the budget.
func NewSpawner(maxPerFrame int) *Spawner {
	return &Spawner{maxPerFrame: maxPerFrame}
}

// SetGateStatus installs the gate lookup. Without one every gate is open.
func (s *Spawner) SetGateStatus(fn func(gate string) GateState) { s.status = fn }

// Enqueue adds a request to its gate's queue.
func (s *Spawner) Enqueue(r *Request) {
	if r.Count <= 0 {
		return
	}
	for _, q := range s.queues {
		if q.gate == r.Gate {
			q.reqs = append(q.reqs, r)
			return
		}
	}
	s.queues = append(s.queues, &gateQueue{gate: r.Gate, reqs: []*Request{r}})
}

func (s *Spawner) gateState(gate string) GateState {
	if s.status == nil {
		return GateOpen
	}
	return s.status(gate)
}

// Emit advances request timers by dt and calls fn once per spawn, stopping
// when the budget is spent. Requests keep their remaining counts and timers
// for the next call.
func (s *Spawner) Emit(dt float64, fn func(r *Request)) EmitResult {
	var res EmitResult

	open := s.queues[:0]
	for _, q := range s.queues {
		if s.gateState(q.gate) == GateDestroyed {
			continue
		}
		open = append(open, q)
	}
	clear(s.queues[len(open):])
	s.queues = open

	for _, q := range s.queues {
		if s.gateState(q.gate) != GateOpen {
			continue
		}
		for _, r := range q.reqs {
			r.Timer -= dt
		}
	}

	for s.maxPerFrame <= 0 || res.Emitted < s.maxPerFrame {
		progress := false
		for _, q := range s.queues {
			if s.maxPerFrame > 0 && res.Emitted >= s.maxPerFrame {
				break
			}
			if s.gateState(q.gate) != GateOpen {
				continue
			}
			for _, r := range q.reqs {
				if !r.ready() {
					continue
				}
				fn(r)
				r.Count--
				r.Timer += r.Interval
				res.Emitted++
				progress = true
				break
			}
		}
		if !progress {
			break
		}
	}

	for _, q := range s.queues {
		if s.gateState(q.gate) != GateOpen {
			continue
		}
		for _, r := range q.reqs {
			res.Deferred += r.due()
		}
	}
	s.prune()

	s.backlog = res.Deferred
	s.emitted += uint64(res.Emitted)
	return res
}

func (s *Spawner) prune() {
	queues := s.queues[:0]
	for _, q := range s.queues {
		reqs := q.reqs[:0]
		for _, r := range q.reqs {
			if r.Count > 0 {
				reqs = append(reqs, r)
			}
		}
		clear(q.reqs[len(reqs):])
		q.reqs = reqs
		if len(q.reqs) > 0 {
			queues = append(queues, q)
		}
	}
	clear(s.queues[len(queues):])
	s.queues = queues
}

// Pending returns the number of spawns still queued, including those at
// disabled gates.
func (s *Spawner) Pending() int {
	n := 0
	for _, q := range s.queues {
		for _, r := range q.reqs {
			n += r.Count
		}
	}
	return n
}

// Empty reports whether nothing is queued.
func (s *Spawner) Empty() bool { return len(s.queues) == 0 }

// Backlog returns the deferred count of the last Emit.
func (s *Spawner) Backlog() int { return s.backlog }

// EmittedTotal returns the number of spawns emitted since the last Reset.
func (s *Spawner) EmittedTotal() uint64 { return s.emitted }

// Gates returns the gate ids with queued requests, in service order.
func (s *Spawner) Gates() []string {
	out := make([]string, len(s.queues))
	for i, q := range s.queues {
		out[i] = q.gate
	}
	return out
}

// Reset drops every queued request.
func (s *Spawner) Reset() {
	clear(s.queues)
	s.queues = s.queues[:0]
	s.backlog = 0
	s.emitted = 0
}
