package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/izknhyt/kusozako-game-sub000/internal/component"
)

// BossDef configures a boss mission.
type BossDef struct {
	Enemy          string  `yaml:"enemy"`
	Gate           string  `yaml:"gate"`
	SpawnTime      float64 `yaml:"spawn_time"`
	EnrageTime     float64 `yaml:"enrage_time"` // seconds after spawn
	EnrageMul      float64 `yaml:"enrage_mul"`
	SummonInterval float64 `yaml:"summon_interval"`
	SummonEnemy    string  `yaml:"summon_enemy"`
	SummonCount    int     `yaml:"summon_count"`
}

// SurvivalDef configures a survival mission.
type SurvivalDef struct {
	Duration       float64 `yaml:"duration"`
	PacingInterval float64 `yaml:"pacing_interval"`
	PacingEnemy    string  `yaml:"pacing_enemy"`
	PacingCount    int     `yaml:"pacing_count"` // first batch size
	PacingGrowth   int     `yaml:"pacing_growth"`
	PacingSpacing  float64 `yaml:"pacing_spacing"`
}

// MissionDef selects the scenario win/fail rules.
type MissionDef struct {
	Kind                component.MissionKind `yaml:"kind"`
	FailOnBaseDestroyed *bool                 `yaml:"fail_on_base_destroyed"`
	Boss                BossDef               `yaml:"boss"`
	Survival            SurvivalDef           `yaml:"survival"`
}

// LoadMission loads mission.yaml.
func LoadMission(path string) (*MissionDef, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mission: %w", err)
	}
	var m MissionDef
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse mission: %w", err)
	}
	return &m, nil
}

// FailsOnBase reports whether base destruction ends the scenario. Defaults to true.
func (m *MissionDef) FailsOnBase() bool {
	return m.FailOnBaseDestroyed == nil || *m.FailOnBaseDestroyed
}

func (m *MissionDef) Validate(units *UnitTable, mp *MapDef) error {
	switch m.Kind {
	case component.MissionBoss:
		b := m.Boss
		if units.Enemy(b.Enemy) == nil {
			return invalid("mission boss: unknown enemy %q", b.Enemy)
		}
		if _, ok := mp.Gate(b.Gate); !ok {
			return invalid("mission boss: unknown gate %q", b.Gate)
		}
		if b.SummonInterval > 0 && units.Enemy(b.SummonEnemy) == nil {
			return invalid("mission boss: unknown summon enemy %q", b.SummonEnemy)
		}
	case component.MissionCapture:
		if len(mp.Zones) == 0 {
			return invalid("mission capture: map %q has no zones", mp.Name)
		}
	case component.MissionSurvival:
		s := m.Survival
		if s.Duration <= 0 {
			return invalid("mission survival: duration must be positive")
		}
		if s.PacingInterval > 0 && units.Enemy(s.PacingEnemy) == nil {
			return invalid("mission survival: unknown pacing enemy %q", s.PacingEnemy)
		}
	}
	return nil
}
