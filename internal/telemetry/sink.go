// Package telemetry forwards simulation events to host-side sinks. Sinks
// never block the tick loop: when a queue is full the event is dropped and
// counted.
package telemetry

import "sync/atomic"

// Sink receives named telemetry events.
type Sink interface {
	// Dispatch forwards a structured payload, typically a bus event.
	Dispatch(name string, payload any)
	// RecordEvent forwards a flat event with string fields.
	RecordEvent(name string, fields map[string]string)
}

// Nop discards everything.
type Nop struct{}

func (Nop) Dispatch(string, any)                  {}
func (Nop) RecordEvent(string, map[string]string) {}

// OrNop returns s, or Nop when s is nil.
func OrNop(s Sink) Sink {
	if s == nil {
		return Nop{}
	}
	return s
}

// Fanout forwards every event to each sink in order.
type Fanout []Sink

func (f Fanout) Dispatch(name string, payload any) {
	for _, s := range f {
		s.Dispatch(name, payload)
	}
}

func (f Fanout) RecordEvent(name string, fields map[string]string) {
	for _, s := range f {
		s.RecordEvent(name, fields)
	}
}

// Dropped sums the drop counters of sinks that keep one.
func (f Fanout) Dropped() uint64 {
	var n uint64
	for _, s := range f {
		if d, ok := s.(interface{ Dropped() uint64 }); ok {
			n += d.Dropped()
		}
	}
	return n
}

type dropCounter struct{ n atomic.Uint64 }

func (d *dropCounter) drop()           { d.n.Add(1) }
func (d *dropCounter) Dropped() uint64 { return d.n.Load() }
