package data

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/izknhyt/kusozako-game-sub000/internal/component"
)

const sampleDir = "../../data/yaml"

func TestLoadAllSampleData(t *testing.T) {
	tables, err := LoadAll(sampleDir)
	require.NoError(t, err)
	require.NoError(t, tables.Validate())

	assert.Equal(t, 24, tables.Units.Ally.StartCount)
	assert.Equal(t, 4, tables.Units.EnemyCount())
	assert.Equal(t, component.ArchetypeBoss, tables.Units.Enemy("king_slime").Archetype)
	assert.Equal(t, 160.0, tables.Units.Job(component.JobArcher).Range)

	i, ok := tables.Temperaments.Lookup("copycat")
	require.True(t, ok)
	assert.Equal(t, component.BehaviorMimic, tables.Temperaments.Get(i).Behavior)

	assert.Equal(t, 1.8, tables.Morale.Modifiers(component.MoraleShielded).Defense)
	assert.Equal(t, component.FormationSwarm, tables.Formations.Default)
	assert.Equal(t, 90.0, tables.Formations.Shape(component.FormationRing).Radius)
	assert.Equal(t, component.SkillWall, tables.Skills.Get(1).Kind)
	assert.Nil(t, tables.Skills.Get(99))
	assert.Len(t, tables.Map.Gates, 2)
	assert.Contains(t, tables.Waves.Tiles, "east_tile")
	assert.True(t, tables.Mission.FailsOnBase())
}

func TestTemperamentDrawFollowsWeights(t *testing.T) {
	tbl := NewTemperamentTable([]TemperamentDef{
		{ID: "a", SpawnRate: 1},
		{ID: "skip", SpawnRate: 0},
		{ID: "b", SpawnRate: 3},
	})
	assert.Equal(t, 0, tbl.Draw(0))
	assert.Equal(t, 0, tbl.Draw(0.24))
	assert.Equal(t, 2, tbl.Draw(0.25))
	assert.Equal(t, 2, tbl.Draw(0.999))
}

func TestTemperamentDefaults(t *testing.T) {
	tbl := NewTemperamentTable([]TemperamentDef{{ID: "x", SpawnRate: 1, LeaderLoss: component.MoraleShielded}})
	d := tbl.Get(0)
	assert.Equal(t, 1.0, d.DashMultiplier)
	assert.Equal(t, 1.0, d.Disobedience)
	assert.Equal(t, component.MoralePanic, d.LeaderLoss)
}

func TestDrawJob(t *testing.T) {
	units := NewUnitTable(CommanderDef{}, AllyDef{}, []JobDef{
		{Job: component.JobWarrior, Weight: 1},
		{Job: component.JobArcher, Weight: 1},
		{Job: component.JobShield, Weight: 2},
	}, nil)
	assert.Equal(t, component.JobWarrior, units.DrawJob(0.1))
	assert.Equal(t, component.JobArcher, units.DrawJob(0.3))
	assert.Equal(t, component.JobShield, units.DrawJob(0.9))
}

func TestValidationErrorsWrapErrInvalid(t *testing.T) {
	cases := map[string]func() error{
		"empty temperaments": func() error { return NewTemperamentTable(nil).Validate() },
		"mimic without pool": func() error {
			return NewTemperamentTable([]TemperamentDef{{ID: "m", SpawnRate: 1, Behavior: component.BehaviorMimic}}).Validate()
		},
		"wall skill without hp": func() error {
			return NewSkillTable([]SkillDef{{ID: "w", Kind: component.SkillWall, Count: 3, Radius: 5}}).Validate()
		},
		"unknown wave enemy": func() error {
			ws := &WaveScript{Waves: []WaveDef{{Sets: []SpawnSet{{Enemy: "ghost", Count: 1}}}}}
			return ws.Validate(NewUnitTable(CommanderDef{}, AllyDef{}, nil, nil))
		},
		"bad map": func() error { return (&MapDef{Name: "void"}).Validate() },
		"morale without timings": func() error { return (&MoraleTable{}).Validate() },
	}
	for name, fn := range cases {
		t.Run(name, func(t *testing.T) {
			err := fn()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid))
		})
	}
}

func TestLoadAllOptionalFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"units.yaml", "temperaments.yaml", "morale.yaml", "formations.yaml", "skills.yaml", "map.yaml"} {
		raw, err := os.ReadFile(filepath.Join(sampleDir, name))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), raw, 0o644))
	}
	tables, err := LoadAll(dir)
	require.NoError(t, err)
	assert.Empty(t, tables.Waves.Waves)
	assert.Equal(t, component.MissionNone, tables.Mission.Kind)
	require.NoError(t, tables.Validate())
}

func TestLoadAllMissingRequired(t *testing.T) {
	_, err := LoadAll(t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
