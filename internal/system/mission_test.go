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
	"github.com/izknhyt/kusozako-game-sub000/internal/spawn"
	"github.com/izknhyt/kusozako-game-sub000/internal/world"
)

func runMission(ws *world.State, ms *MissionSystem, frames int) {
	for i := 0; i < frames && ws.Outcome == component.OutcomeNone; i++ {
		ws.Tick++
		ws.Time += frame.Seconds()
		ms.Update(frame)
	}
}

func TestCaptureContestedZoneDoesNotProgress(t *testing.T) {
	tables := testTables()
	tables.Mission = &data.MissionDef{Kind: component.MissionCapture}
	ws := newTestWorld(t, tables)
	ws.SpawnEnemy(tables.Units.Enemy("slime"), geom.V(310, 300))

	runMission(ws, NewMissionSystem(ws, zap.NewNop()), 60)

	_, z := ws.Zones.At(0)
	assert.Zero(t, z.Progress)
	assert.False(t, z.Captured)
	assert.Equal(t, component.OutcomeNone, ws.Outcome)
}

func TestCaptureDisablesLinkedGateAndWins(t *testing.T) {
	tables := testTables()
	tables.Mission = &data.MissionDef{Kind: component.MissionCapture}
	ws := newTestWorld(t, tables)

	runMission(ws, NewMissionSystem(ws, zap.NewNop()), 120)

	_, z := ws.Zones.At(0)
	assert.True(t, z.Captured)
	assert.Equal(t, spawn.GateDisabled, ws.GateStatus("east"))
	assert.Equal(t, component.OutcomeVictory, ws.Outcome)
	assert.Equal(t, "all zones captured", ws.OutcomeReason)
}

func TestSurvivalPacesAndWins(t *testing.T) {
	tables := testTables()
	tables.Mission = &data.MissionDef{
		Kind: component.MissionSurvival,
		Survival: data.SurvivalDef{
			Duration:       1,
			PacingInterval: 0.25,
			PacingEnemy:    "slime",
			PacingCount:    2,
			PacingGrowth:   1,
		},
	}
	ws := newTestWorld(t, tables)
	ms := NewMissionSystem(ws, zap.NewNop())

	runMission(ws, ms, 20)
	assert.Equal(t, 1, ws.Mission.PacingBatch)
	assert.Equal(t, 2, ws.Spawner.Pending())
	assert.Equal(t, []string{"east"}, ws.Spawner.Gates())

	runMission(ws, ms, 60)
	assert.Equal(t, component.OutcomeVictory, ws.Outcome)
	assert.Greater(t, ws.Spawner.Pending(), 2)
}

func TestBossSpawnsEnragesSummonsAndFalls(t *testing.T) {
	tables := testTables()
	tables.Mission = &data.MissionDef{
		Kind: component.MissionBoss,
		Boss: data.BossDef{
			Enemy:          "breaker",
			Gate:           "east",
			SpawnTime:      0.1,
			EnrageTime:     0.1,
			EnrageMul:      2,
			SummonInterval: 0.1,
			SummonEnemy:    "slime",
			SummonCount:    3,
		},
	}
	ws := newTestWorld(t, tables)
	ms := NewMissionSystem(ws, zap.NewNop())
	var outcome []event.OutcomeDecided
	event.Subscribe(ws.Bus, func(e event.OutcomeDecided) { outcome = append(outcome, e) })

	runMission(ws, ms, 9)
	require.True(t, ws.Mission.BossSpawned)
	boss, ok := ws.Enemies.Get(ws.Mission.Boss)
	require.True(t, ok)
	assert.Equal(t, geom.V(900, 300), boss.Pos)

	runMission(ws, ms, 20)
	assert.True(t, ws.Mission.Enraged)
	assert.Equal(t, 120.0, boss.Speed)
	assert.GreaterOrEqual(t, ws.Spawner.Pending(), 3)

	ws.ECS.Destroy(ws.Mission.Boss)
	runMission(ws, ms, 1)
	ws.Bus.Flush()
	assert.True(t, ws.Mission.BossDefeated)
	require.Len(t, outcome, 1)
	assert.Equal(t, component.OutcomeVictory, outcome[0].Outcome)
}
