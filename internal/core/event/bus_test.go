package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBusDeliversInEmissionOrderOnFlush(t *testing.T) {
	b := NewBus()
	var got []string
	Subscribe(b, func(e WaveStarted) { got = append(got, "wave:"+e.WaveID) })
	Subscribe(b, func(e GateDestroyed) { got = append(got, "gate:"+e.GateID) })

	Emit(b, WaveStarted{WaveID: "w1"})
	Emit(b, GateDestroyed{GateID: "A"})
	Emit(b, WaveStarted{WaveID: "w2"})
	assert.Empty(t, got, "nothing is delivered before Flush")
	assert.Equal(t, 3, b.Pending())

	assert.Equal(t, 3, b.Flush())
	assert.Equal(t, []string{"wave:w1", "gate:A", "wave:w2"}, got)
	assert.Equal(t, 0, b.Flush())
}

func TestBusHandlerEmitsIntoNextFlush(t *testing.T) {
	b := NewBus()
	var revived int
	Subscribe(b, func(CommanderDown) { Emit(b, CommanderRevived{}) })
	Subscribe(b, func(CommanderRevived) { revived++ })

	Emit(b, CommanderDown{})
	b.Flush()
	assert.Equal(t, 0, revived)
	b.Flush()
	assert.Equal(t, 1, revived)
}

func TestNilBusDropsEvents(t *testing.T) {
	var b *Bus
	assert.NotPanics(t, func() { Emit(b, CommanderDown{}) })
}

func TestBusResetDropsQueued(t *testing.T) {
	b := NewBus()
	n := 0
	Subscribe(b, func(CommanderDown) { n++ })
	Emit(b, CommanderDown{})
	b.Reset()
	b.Flush()
	assert.Equal(t, 0, n)
	assert.Equal(t, uint64(1), b.Emitted())
}
