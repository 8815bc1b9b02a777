package system

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/izknhyt/kusozako-game-sub000/internal/component"
	"github.com/izknhyt/kusozako-game-sub000/internal/core/event"
	"github.com/izknhyt/kusozako-game-sub000/internal/data"
	"github.com/izknhyt/kusozako-game-sub000/internal/geom"
	"github.com/izknhyt/kusozako-game-sub000/internal/scripting"
	"github.com/izknhyt/kusozako-game-sub000/internal/spawn"
)

type fixedDelay float64

func (f fixedDelay) CalcRespawnDelay(scripting.RespawnContext) (float64, bool) { return float64(f), true }

func TestOverkillRatio(t *testing.T) {
	cases := []struct {
		name             string
		dmg, hp, max, want float64
	}{
		{"no overkill", 10, 30, 50, 0},
		{"one max hp", 80, 30, 50, 1},
		{"clamped at three", 1000, 30, 50, 3},
		{"zero max hp", 10, 0, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, OverkillRatio(tc.dmg, tc.hp, tc.max), 1e-12)
		})
	}
}

func jumpyTables() *data.Tables {
	tables := testTables()
	tables.Temperaments = data.NewTemperamentTable([]data.TemperamentDef{
		{ID: "jumpy", Behavior: component.BehaviorFollowYuna, SpawnRate: 1, PanicOnHit: true, PanicDuration: 2},
	})
	return tables
}

func TestPanicOnHitSurvivesHitWithinHP(t *testing.T) {
	tables := jumpyTables()
	ws := newTestWorld(t, tables)
	parkUnits(ws)
	_, u := ws.Units.At(0)
	u.Pos = geom.V(600, 100)
	ws.SpawnEnemy(tables.Units.Enemy("anvil"), geom.V(605, 100))

	NewCombatSystem(ws, zap.NewNop()).Update(frame)

	require.Equal(t, 6, ws.Units.Len())
	assert.InDelta(t, 40, u.HP, 1e-3)
	assert.Equal(t, 2.0, u.PanicTimer)
	assert.Empty(t, ws.Respawns)
}

func TestUnitDeathSchedulesRespawnByOverkill(t *testing.T) {
	ws := newTestWorld(t, testTables())
	parkUnits(ws)
	id, u := ws.Units.At(0)
	u.Pos = geom.V(600, 100)
	u.HP = 5
	ws.SpawnEnemy(ws.Tables.Units.Enemy("anvil"), geom.V(605, 100))

	var died []event.UnitDied
	event.Subscribe(ws.Bus, func(e event.UnitDied) { died = append(died, e) })
	NewCombatSystem(ws, zap.NewNop()).Update(frame)
	ws.Bus.Flush()

	assert.Equal(t, 5, ws.Units.Len())
	assert.False(t, ws.Units.Has(id))
	require.Len(t, ws.Respawns, 1)
	// (10 - 5) / 50 = 0.1 overkill, 2s base, factor 1.
	assert.InDelta(t, 2.2, ws.Respawns[0].Timer, 1e-3)
	assert.Equal(t, uint64(1), ws.Counters.Deaths)
	require.Len(t, died, 1)
	assert.Equal(t, id, died[0].Unit)
	assert.InDelta(t, 0.1, died[0].OverkillRate, 1e-3)
}

func TestRespawnScriptOverridesDelay(t *testing.T) {
	ws := newTestWorld(t, testTables())
	ws.Script = fixedDelay(7)
	parkUnits(ws)
	_, u := ws.Units.At(0)
	u.Pos = geom.V(600, 100)
	u.HP = 1
	ws.SpawnEnemy(ws.Tables.Units.Enemy("anvil"), geom.V(600, 100))

	NewCombatSystem(ws, zap.NewNop()).Update(frame)

	require.Len(t, ws.Respawns, 1)
	assert.Equal(t, 7.0, ws.Respawns[0].Timer)
}

func TestEnemyWallContactPushesAndChews(t *testing.T) {
	ws := newTestWorld(t, testTables())
	parkUnits(ws)
	units := ws.Tables.Units
	ws.SpawnWall(geom.V(500, 300), 10, 50, 5)
	slimeID := ws.SpawnEnemy(units.Enemy("slime"), geom.V(505, 300))
	breakerID := ws.SpawnEnemy(units.Enemy("breaker"), geom.V(500, 450))
	pinnedID := ws.SpawnEnemy(units.Enemy("breaker"), geom.V(502, 300))

	NewCombatSystem(ws, zap.NewNop()).Update(frame)

	slime, ok := ws.Enemies.Get(slimeID)
	require.True(t, ok)
	_, wall := ws.Walls.At(0)
	assert.InDelta(t, 18, slime.Pos.Dist(wall.Pos), 1e-9, "knocked back to touching distance")

	breaker, _ := ws.Enemies.Get(breakerID)
	assert.InDelta(t, 500, breaker.Pos.X, 1e-9, "wallbreaker heads for the wall, not the base")
	assert.InDelta(t, 449, breaker.Pos.Y, 1e-9)

	pinned, _ := ws.Enemies.Get(pinnedID)
	assert.Equal(t, geom.V(502, 300), pinned.Pos, "ignores knockback")

	// slime 6 dps + pinned breaker 30 dps for one frame.
	assert.InDelta(t, 50-36.0/60, wall.HP, 1e-6)
}

func TestGateFallsToMeleeAndStopsSpawning(t *testing.T) {
	ws := newTestWorld(t, testTables())
	parkUnits(ws)
	_, g, ok := ws.Gate("east")
	require.True(t, ok)
	g.HP = 0.1
	ws.Commander.Pos = g.Pos

	var gone []event.GateDestroyed
	event.Subscribe(ws.Bus, func(e event.GateDestroyed) { gone = append(gone, e) })
	NewCombatSystem(ws, zap.NewNop()).Update(frame)
	ws.Bus.Flush()

	assert.True(t, g.Destroyed)
	assert.Equal(t, spawn.GateDestroyed, ws.GateStatus("east"))
	assert.Equal(t, 1, ws.Counters.GatesDestroyed)
	require.Len(t, gone, 1)
	assert.Equal(t, "east", gone[0].GateID)
}

func TestBaseDestructionDefeat(t *testing.T) {
	keep := false
	for _, tc := range []struct {
		name    string
		mission *data.MissionDef
		want    component.Outcome
	}{
		{"fails by default", &data.MissionDef{}, component.OutcomeDefeat},
		{"mission override", &data.MissionDef{FailOnBaseDestroyed: &keep}, component.OutcomeNone},
	} {
		t.Run(tc.name, func(t *testing.T) {
			tables := testTables()
			tables.Mission = tc.mission
			ws := newTestWorld(t, tables)
			parkUnits(ws)
			ws.Base.HP = 0.01
			ws.SpawnEnemy(tables.Units.Enemy("slime"), geom.V(138, 300))

			NewCombatSystem(ws, zap.NewNop()).Update(frame)

			assert.Zero(t, ws.Base.HP)
			assert.Equal(t, tc.want, ws.Outcome)
		})
	}
}

func TestCommanderDeathArmsRespawn(t *testing.T) {
	ws := newTestWorld(t, testTables())
	parkUnits(ws)
	ws.Commander.HP = 1
	ws.SpawnEnemy(ws.Tables.Units.Enemy("anvil"), ws.Commander.Pos)

	NewCombatSystem(ws, zap.NewNop()).Update(frame)

	assert.False(t, ws.Commander.Alive)
	assert.Equal(t, 3.0, ws.Commander.RespawnTimer)
}
