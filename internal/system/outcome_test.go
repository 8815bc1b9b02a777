package system

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/izknhyt/kusozako-game-sub000/internal/component"
	"github.com/izknhyt/kusozako-game-sub000/internal/core/event"
	"github.com/izknhyt/kusozako-game-sub000/internal/data"
	"github.com/izknhyt/kusozako-game-sub000/internal/geom"
	"github.com/izknhyt/kusozako-game-sub000/internal/world"
)

func runOutcome(ws *world.State, out *OutcomeSystem, frames int) {
	for i := 0; i < frames; i++ {
		ws.Tick++
		ws.Time += frame.Seconds()
		out.Update(frame)
	}
}

func TestOrderExpiresToDefault(t *testing.T) {
	ws := newTestWorld(t, testTables())
	var orders []event.OrderChanged
	event.Subscribe(ws.Bus, func(e event.OrderChanged) { orders = append(orders, e) })
	ws.Order, ws.OrderTimer = component.OrderCharge, 0.05

	runOutcome(ws, NewOutcomeSystem(ws), 10)
	ws.Bus.Flush()

	assert.Equal(t, component.OrderNone, ws.Order)
	require.Len(t, orders, 1)
	assert.True(t, orders[0].Expired)
}

func TestStandardVictoryWaitsForGrace(t *testing.T) {
	ws := newTestWorld(t, testTables())
	out := NewOutcomeSystem(ws)

	runOutcome(ws, out, 30)
	assert.Equal(t, component.OutcomeNone, ws.Outcome, "grace not elapsed")

	runOutcome(ws, out, 40)
	assert.Equal(t, component.OutcomeVictory, ws.Outcome)
	assert.Greater(t, ws.ResultBanner, 0.0)
}

func TestNoVictoryWithLiveEnemies(t *testing.T) {
	ws := newTestWorld(t, testTables())
	ws.SpawnEnemy(ws.Tables.Units.Enemy("slime"), geom.V(800, 100))

	runOutcome(ws, NewOutcomeSystem(ws), 120)

	assert.Equal(t, component.OutcomeNone, ws.Outcome)
}

type dropCount uint64

func (d *dropCount) Dropped() uint64 { return uint64(*d) }

func TestTelemetryBannerOnLostEvents(t *testing.T) {
	ws := newTestWorld(t, testTables())
	var lost dropCount
	ws.Drops = &lost
	out := NewOutcomeSystem(ws)

	runOutcome(ws, out, 1)
	assert.Zero(t, ws.TelemetryBanner)

	lost = 3
	runOutcome(ws, out, 1)
	assert.Greater(t, ws.TelemetryBanner, 0.0)
	assert.Equal(t, "events lost", ws.TelemetryText)
}

func TestRespawnServesExpiredTicketsInOrder(t *testing.T) {
	ws := newTestWorld(t, testTables())
	ws.Respawns = append(ws.Respawns,
		world.RespawnTicket{Timer: 0.01, Job: component.JobWarrior},
		world.RespawnTicket{Timer: 5, Job: component.JobArcher},
	)
	ws.Commander.Alive = false
	ws.Commander.HP = 0
	ws.Commander.RespawnTimer = 0.01

	NewRespawnSystem(ws, zap.NewNop()).Update(frame)

	assert.Equal(t, 7, ws.Units.Len())
	require.Len(t, ws.Respawns, 1)
	assert.Equal(t, component.JobArcher, ws.Respawns[0].Job)
	assert.Equal(t, uint64(1), ws.Counters.Respawns)

	c := ws.Commander
	assert.True(t, c.Alive)
	assert.Equal(t, c.MaxHP, c.HP)
	assert.Equal(t, geom.V(100, 340), c.Pos)
}

func TestWaveSystemSpawnsAtResolvedGates(t *testing.T) {
	tables := testTables()
	tables.Waves = &data.WaveScript{Waves: []data.WaveDef{
		{Time: 0, Gates: []string{"east", "nowhere"}, Sets: []data.SpawnSet{{Enemy: "slime", Count: 2}}},
	}}
	ws := newTestWorld(t, tables)
	var started []event.WaveStarted
	event.Subscribe(ws.Bus, func(e event.WaveStarted) { started = append(started, e) })

	NewWaveSystem(ws, zap.NewNop()).Update(frame)
	ws.Bus.Flush()

	assert.Equal(t, 2, ws.Enemies.Len())
	for i := 0; i < ws.Enemies.Len(); i++ {
		_, e := ws.Enemies.At(i)
		assert.LessOrEqual(t, e.Pos.Dist(geom.V(900, 300)), 20.0+1e-9)
	}
	require.Len(t, started, 1)
	assert.Equal(t, []string{"east"}, started[0].Gates)
	assert.Equal(t, 1, started[0].Skipped)
	assert.True(t, ws.Waves.Exhausted())
}

func TestRenderPrepSortsAndEmitsHUDOnChange(t *testing.T) {
	tables := testTables()
	tables.Map.LODSpriteThreshold = 5
	ws := newTestWorld(t, tables)
	var huds []event.HUDSummary
	event.Subscribe(ws.Bus, func(e event.HUDSummary) { huds = append(huds, e) })
	rp := NewRenderPrepSystem(ws, zap.NewNop())

	ws.Tick = 1
	rp.Update(frame)
	ws.Tick = 2
	rp.Update(frame)
	ws.Bus.Flush()

	snap := ws.Snapshot
	// base, gate, zone, six allies, commander
	assert.Len(t, snap.Sprites, 10)
	assert.True(t, slices.IsSortedFunc(snap.Sprites, func(a, b world.Sprite) int {
		if a.Layer != b.Layer {
			return int(a.Layer) - int(b.Layer)
		}
		switch {
		case a.Pos.Y < b.Pos.Y:
			return -1
		case a.Pos.Y > b.Pos.Y:
			return 1
		}
		return 0
	}))
	assert.True(t, snap.LowDetail)
	require.Len(t, snap.Jobs, component.JobCount)
	assert.Equal(t, 6, snap.Jobs[component.JobWarrior].Alive)
	assert.Len(t, huds, 1, "unchanged rows are not re-sent")

	_, u := ws.Units.At(0)
	u.HP /= 2
	ws.Tick = 3
	rp.Update(frame)
	ws.Bus.Flush()
	assert.Len(t, huds, 2)
}

func TestRenderPrepWithoutArenaRoomSkipsRows(t *testing.T) {
	tables := testTables()
	require.NoError(t, tables.Validate())
	ws := world.New(tables, world.Options{SeedPhrase: "tiny", ArenaBytes: 8}, zap.NewNop())
	require.NoError(t, ws.Reset())

	ws.Tick = 1
	NewRenderPrepSystem(ws, zap.NewNop()).Update(frame)

	assert.Nil(t, ws.Snapshot.Jobs)
	assert.Equal(t, uint64(1), ws.Counters.ScratchAborts)
	assert.NotEmpty(t, ws.Snapshot.Sprites)
}
