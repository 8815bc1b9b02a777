package data

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Tables is the full set of immutable scenario data handed to the simulation.
type Tables struct {
	Units        *UnitTable
	Temperaments *TemperamentTable
	Morale       *MoraleTable
	Formations   *FormationTable
	Skills       *SkillTable
	Map          *MapDef
	Waves        *WaveScript
	Mission      *MissionDef
}

// LoadAll loads every table from dir. waves.yaml and mission.yaml are
// optional; when the map names a wave script, Waves is left for the
// scripting engine to fill.
func LoadAll(dir string) (*Tables, error) {
	var (
		t   Tables
		err error
	)
	if t.Units, err = LoadUnitTable(filepath.Join(dir, "units.yaml")); err != nil {
		return nil, err
	}
	if t.Temperaments, err = LoadTemperamentTable(filepath.Join(dir, "temperaments.yaml")); err != nil {
		return nil, err
	}
	if t.Morale, err = LoadMoraleTable(filepath.Join(dir, "morale.yaml")); err != nil {
		return nil, err
	}
	if t.Formations, err = LoadFormationTable(filepath.Join(dir, "formations.yaml")); err != nil {
		return nil, err
	}
	if t.Skills, err = LoadSkillTable(filepath.Join(dir, "skills.yaml")); err != nil {
		return nil, err
	}
	if t.Map, err = LoadMap(filepath.Join(dir, "map.yaml")); err != nil {
		return nil, err
	}

	if t.Map.WaveScript == "" {
		t.Waves, err = LoadWaves(filepath.Join(dir, "waves.yaml"))
		if errors.Is(err, os.ErrNotExist) {
			t.Waves, err = &WaveScript{}, nil
		}
		if err != nil {
			return nil, err
		}
	}

	t.Mission, err = LoadMission(filepath.Join(dir, "mission.yaml"))
	if errors.Is(err, os.ErrNotExist) {
		t.Mission, err = &MissionDef{}, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Validate checks every table and the references between them.
func (t *Tables) Validate() error {
	if t.Units == nil || t.Temperaments == nil || t.Morale == nil || t.Formations == nil ||
		t.Skills == nil || t.Map == nil || t.Waves == nil || t.Mission == nil {
		return invalid("tables: missing table")
	}
	checks := []struct {
		name string
		fn   func() error
	}{
		{"units", t.Units.Validate},
		{"temperaments", t.Temperaments.Validate},
		{"morale", t.Morale.Validate},
		{"formations", t.Formations.Validate},
		{"skills", t.Skills.Validate},
		{"map", t.Map.Validate},
		{"waves", func() error { return t.Waves.Validate(t.Units) }},
		{"mission", func() error { return t.Mission.Validate(t.Units, t.Map) }},
	}
	for _, c := range checks {
		if err := c.fn(); err != nil {
			return fmt.Errorf("validate %s: %w", c.name, err)
		}
	}
	return nil
}
