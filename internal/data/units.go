package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/izknhyt/kusozako-game-sub000/internal/component"
)

// CommanderDef holds the commander's base stats.
type CommanderDef struct {
	Radius      float64 `yaml:"radius"`
	HP          float64 `yaml:"hp"`
	Speed       float64 `yaml:"speed"`
	Dps         float64 `yaml:"dps"`
	RespawnTime float64 `yaml:"respawn_time"`
}

// AllyDef holds stats shared by every allied soldier before job modifiers.
type AllyDef struct {
	Radius         float64 `yaml:"radius"`
	HP             float64 `yaml:"hp"`
	Speed          float64 `yaml:"speed"`
	StartCount     int     `yaml:"start_count"`
	RespawnTime    float64 `yaml:"respawn_time"`    // base delay before overkill scaling
	OverkillFactor float64 `yaml:"overkill_factor"` // extra delay per 1.0 overkill ratio
	SpawnSpread    float64 `yaml:"spawn_spread"`
}

// JobDef holds a job's combat parameters.
type JobDef struct {
	Job      component.Job `yaml:"job"`
	Weight   float64       `yaml:"weight"` // share of starting/respawned allies
	Dps      float64       `yaml:"dps"`    // contact damage per second
	Damage   float64       `yaml:"damage"` // burst damage for ranged jobs
	Range    float64       `yaml:"range"`  // > 0 marks a ranged job
	Cooldown float64       `yaml:"cooldown"`
	Endlag   float64       `yaml:"endlag"`
	HPMul    float64       `yaml:"hp_mul"`
	SpeedMul float64       `yaml:"speed_mul"`
}

// EnemyDef is an enemy template.
type EnemyDef struct {
	ID              string              `yaml:"id"`
	Archetype       component.Archetype `yaml:"archetype"`
	HP              float64             `yaml:"hp"`
	Radius          float64             `yaml:"radius"`
	Speed           float64             `yaml:"speed"`
	Dps             float64             `yaml:"dps"`
	WallDps         float64             `yaml:"wall_dps"`
	BaseDps         float64             `yaml:"base_dps"`
	IgnoreKnockback bool                `yaml:"ignore_knockback"`
	WallPreference  float64             `yaml:"wall_preference"`
	Tags            []string            `yaml:"tags"`
}

type unitFile struct {
	Commander CommanderDef `yaml:"commander"`
	Ally      AllyDef      `yaml:"ally"`
	Jobs      []JobDef     `yaml:"jobs"`
	Enemies   []EnemyDef   `yaml:"enemies"`
}

// UnitTable holds commander, ally, job and enemy definitions.
type UnitTable struct {
	Commander CommanderDef
	Ally      AllyDef
	jobs      [component.JobCount]JobDef
	enemies   map[string]*EnemyDef
	order     []string
}

// LoadUnitTable loads units.yaml.
func LoadUnitTable(path string) (*UnitTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read units: %w", err)
	}
	var f unitFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse units: %w", err)
	}
	return NewUnitTable(f.Commander, f.Ally, f.Jobs, f.Enemies), nil
}

// NewUnitTable builds a table from already-decoded definitions.
func NewUnitTable(cmd CommanderDef, ally AllyDef, jobs []JobDef, enemies []EnemyDef) *UnitTable {
	t := &UnitTable{
		Commander: cmd,
		Ally:      ally,
		enemies:   make(map[string]*EnemyDef, len(enemies)),
	}
	for _, j := range jobs {
		if int(j.Job) < component.JobCount {
			if j.HPMul == 0 {
				j.HPMul = 1
			}
			if j.SpeedMul == 0 {
				j.SpeedMul = 1
			}
			t.jobs[j.Job] = j
		}
	}
	for i := range enemies {
		e := enemies[i]
		if _, dup := t.enemies[e.ID]; !dup {
			t.order = append(t.order, e.ID)
		}
		t.enemies[e.ID] = &e
	}
	return t
}

// Job returns the definition for j.
func (t *UnitTable) Job(j component.Job) *JobDef { return &t.jobs[j] }

// Enemy returns an enemy template by id, or nil if not found.
func (t *UnitTable) Enemy(id string) *EnemyDef { return t.enemies[id] }

// EnemyCount returns the number of enemy templates.
func (t *UnitTable) EnemyCount() int { return len(t.enemies) }

// DrawJob picks a job by cumulative weight; r is uniform in [0,1).
func (t *UnitTable) DrawJob(r float64) component.Job {
	total := 0.0
	for i := range t.jobs {
		total += t.jobs[i].Weight
	}
	if total <= 0 {
		return component.JobWarrior
	}
	x := r * total
	for i := range t.jobs {
		x -= t.jobs[i].Weight
		if x < 0 {
			return component.Job(i)
		}
	}
	return component.Job(component.JobCount - 1)
}

// Validate checks ranges and references.
func (t *UnitTable) Validate() error {
	if t.Commander.HP <= 0 || t.Commander.Radius <= 0 || t.Commander.Speed <= 0 {
		return invalid("commander: hp, radius and speed must be positive")
	}
	if t.Ally.HP <= 0 || t.Ally.Radius <= 0 || t.Ally.Speed <= 0 {
		return invalid("ally: hp, radius and speed must be positive")
	}
	if t.Ally.StartCount < 0 || t.Ally.RespawnTime < 0 {
		return invalid("ally: start_count and respawn_time must not be negative")
	}
	for _, id := range t.order {
		e := t.enemies[id]
		if id == "" {
			return invalid("enemy with empty id")
		}
		if e.HP <= 0 || e.Radius <= 0 {
			return invalid("enemy %q: hp and radius must be positive", id)
		}
	}
	for i := range t.jobs {
		j := &t.jobs[i]
		if j.Range > 0 && j.Cooldown <= 0 {
			return invalid("job %s: ranged jobs need a cooldown", component.Job(i))
		}
	}
	return nil
}
