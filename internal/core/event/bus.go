package event

import (
	"reflect"
)

type queued struct {
	t  reflect.Type
	ev any
}

// Bus is a double-buffered event bus. Events emitted during a tick are
// delivered, in emission order, when Flush runs in the cleanup phase.
// Handlers that emit while being dispatched land in the next flush.
// Single goroutine only (the tick loop).
type Bus struct {
	front    []queued
	back     []queued
	handlers map[reflect.Type][]any
	emitted  uint64
}

func NewBus() *Bus {
	return &Bus{
		front:    make([]queued, 0, 64),
		back:     make([]queued, 0, 64),
		handlers: make(map[reflect.Type][]any),
	}
}

// Emit queues an event into the back buffer. A nil bus drops the event, so
// systems can run headless.
func Emit[T any](b *Bus, event T) {
	if b == nil {
		return
	}
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.back = append(b.back, queued{t: t, ev: event})
	b.emitted++
}

// Subscribe registers a typed handler for events of type T.
func Subscribe[T any](b *Bus, fn func(T)) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.handlers[t] = append(b.handlers[t], fn)
}

// Flush swaps buffers and delivers everything emitted since the last flush.
// It returns the number of events delivered.
func (b *Bus) Flush() int {
	b.front, b.back = b.back, b.front[:0]
	for _, q := range b.front {
		for _, h := range b.handlers[q.t] {
			callHandler(h, q.ev)
		}
	}
	n := len(b.front)
	clear(b.front)
	b.front = b.front[:0]
	return n
}

// Pending returns the number of events waiting for the next Flush.
func (b *Bus) Pending() int { return len(b.back) }

// Emitted returns the total number of events emitted since creation.
func (b *Bus) Emitted() uint64 { return b.emitted }

// Reset drops queued events but keeps subscriptions.
func (b *Bus) Reset() {
	clear(b.back)
	b.back = b.back[:0]
}

func callHandler(handler any, event any) {
	reflect.ValueOf(handler).Call([]reflect.Value{reflect.ValueOf(event)})
}
