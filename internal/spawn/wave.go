package spawn

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/izknhyt/kusozako-game-sub000/internal/data"
)

// Triggered describes one wave that Advance started.
type Triggered struct {
	Index    int
	Time     float64
	Gates    []string // resolved gate ids
	Requests int
	Skipped  int // unresolved gate references
}

// WaveController starts scheduled waves and feeds their requests into a
// Spawner.
type WaveController struct {
	waves    []data.WaveDef
	tiles    map[string]data.GateDef
	mapGates map[string]data.GateDef
	spawner  *Spawner
	next     int
	log      *zap.Logger
}

// NewWaveController sorts the schedule by time. Script tiles shadow map
// gates with the same id.
func NewWaveController(script *data.WaveScript, mapGates []data.GateDef, sp *Spawner, log *zap.Logger) *WaveController {
	w := &WaveController{
		tiles:    make(map[string]data.GateDef),
		mapGates: make(map[string]data.GateDef, len(mapGates)),
		spawner:  sp,
		log:      log,
	}
	if script != nil {
		w.waves = append(w.waves, script.Waves...)
		for id, g := range script.Tiles {
			w.tiles[id] = g
		}
	}
	sort.SliceStable(w.waves, func(i, j int) bool { return w.waves[i].Time < w.waves[j].Time })
	for _, g := range mapGates {
		w.mapGates[g.ID] = g
	}
	return w
}

// ResolveGate looks an id up in the script tiles first, then the map.
func (w *WaveController) ResolveGate(id string) (data.GateDef, bool) {
	if g, ok := w.tiles[id]; ok {
		return g, true
	}
	g, ok := w.mapGates[id]
	return g, ok
}

// Advance starts every wave whose time is <= now, catching up on overdue
// waves in schedule order.
func (w *WaveController) Advance(now float64, fn func(Triggered)) int {
	started := 0
	for w.next < len(w.waves) && w.waves[w.next].Time <= now {
		idx := w.next
		wave := &w.waves[idx]
		w.next++

		t := Triggered{Index: idx, Time: wave.Time}
		for _, id := range wave.Gates {
			if _, ok := w.ResolveGate(id); !ok {
				t.Skipped++
				w.log.Debug("wave gate not found, skipped",
					zap.Int("wave", idx), zap.String("gate", id))
				continue
			}
			t.Gates = append(t.Gates, id)
			for _, set := range wave.Sets {
				if set.Count <= 0 {
					continue
				}
				w.spawner.Enqueue(&Request{
					Gate:     id,
					Enemy:    set.Enemy,
					Variants: set.Variants,
					Count:    set.Count,
					Interval: set.Interval,
					Timer:    set.Delay,
					Tag:      fmt.Sprintf("wave:%d", idx+1),
				})
				t.Requests++
			}
		}
		started++
		if fn != nil {
			fn(t)
		}
	}
	return started
}

// Exhausted reports whether every scheduled wave has started.
func (w *WaveController) Exhausted() bool { return w.next >= len(w.waves) }

// Total returns the number of scheduled waves.
func (w *WaveController) Total() int { return len(w.waves) }

// Tiles returns the script gate tiles.
func (w *WaveController) Tiles() map[string]data.GateDef { return w.tiles }

// Reset rewinds the schedule.
func (w *WaveController) Reset() { w.next = 0 }
