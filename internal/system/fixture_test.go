package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/izknhyt/kusozako-game-sub000/internal/component"
	"github.com/izknhyt/kusozako-game-sub000/internal/data"
	"github.com/izknhyt/kusozako-game-sub000/internal/geom"
	"github.com/izknhyt/kusozako-game-sub000/internal/world"
)

const frame = time.Second / 60

func testTables() *data.Tables {
	return &data.Tables{
		Units: data.NewUnitTable(
			data.CommanderDef{Radius: 10, HP: 100, Speed: 150, Dps: 20, RespawnTime: 3},
			data.AllyDef{Radius: 6, HP: 50, Speed: 120, StartCount: 6, RespawnTime: 2, OverkillFactor: 1, SpawnSpread: 20},
			[]data.JobDef{{Job: component.JobWarrior, Weight: 1, Dps: 10}},
			[]data.EnemyDef{
				{ID: "slime", Archetype: component.ArchetypeSlime, HP: 20, Radius: 8, Speed: 40, Dps: 5, WallDps: 6, BaseDps: 2},
				{ID: "breaker", Archetype: component.ArchetypeWallbreaker, HP: 40, Radius: 10, Speed: 60, Dps: 5, WallDps: 30, BaseDps: 2, WallPreference: 200, IgnoreKnockback: true},
				{ID: "anvil", Archetype: component.ArchetypeSlime, HP: 1000, Radius: 8, Dps: 600},
			}),
		Temperaments: data.NewTemperamentTable([]data.TemperamentDef{
			{ID: "loyal", Behavior: component.BehaviorFollowYuna, SpawnRate: 1, FollowDistance: 30},
		}),
		Morale: &data.MoraleTable{
			LeaderDownDuration:   1,
			PanicDuration:        1,
			MesomesoDuration:     1,
			RecoveringDuration:   1,
			IgnoreOrdersInterval: 1,
			PanicFleeRadius:      100,
			OrderDuration:        5,
			TelemetryBannerTime:  2,
			ResultBannerTime:     2,
			VictoryGrace:         1,
			States: []data.MoraleModifiers{
				{State: component.MoraleLeaderDown, Speed: 0.9, Accuracy: 0.8, Defense: 0.9},
			},
		},
		Formations: &data.FormationTable{
			MaxFollowers:      16,
			AlignTime:         1,
			DamageTakenScale:  0.5,
			NormalizeDistance: 80,
			Shapes:            []data.FormationShape{{Kind: component.FormationSwarm, Radius: 40}},
		},
		Skills: data.NewSkillTable([]data.SkillDef{
			{ID: "rally", Kind: component.SkillRally, Radius: 500, MaxTargets: 3},
			{ID: "wall", Kind: component.SkillWall, Count: 3, Radius: 10, HP: 50, Duration: 5, Distance: 40, Cooldown: 4},
		}),
		Map: &data.MapDef{
			Name:           "test",
			Bounds:         geom.Rect{Min: geom.V(0, 0), Max: geom.V(1000, 600)},
			Base:           data.BaseDef{Pos: geom.V(100, 300), Radius: 30, HP: 100},
			CommanderSpawn: geom.V(300, 300),
			AllySpawn:      geom.V(250, 300),
			Gates:          []data.GateDef{{ID: "east", Pos: geom.V(900, 300), Radius: 20, HP: 50}},
			Zones:          []data.ZoneDef{{ID: "hill", Pos: geom.V(300, 300), Radius: 50, CaptureTime: 0.5, DisableGate: "east"}},
		},
		Waves:   &data.WaveScript{},
		Mission: &data.MissionDef{},
	}
}

// newTestWorld validates tables, builds a world and resets it.
func newTestWorld(t *testing.T, tables *data.Tables) *world.State {
	t.Helper()
	require.NoError(t, tables.Validate())
	ws := world.New(tables, world.Options{SeedPhrase: "system-test", ArenaBytes: 16 << 10}, zap.NewNop())
	require.NoError(t, ws.Reset())
	return ws
}

// parkUnits moves every ally out of the way so a test can stage one.
func parkUnits(ws *world.State) {
	for i := 0; i < ws.Units.Len(); i++ {
		_, u := ws.Units.At(i)
		u.Pos = geom.V(20+float64(i)*15, 580)
	}
}
