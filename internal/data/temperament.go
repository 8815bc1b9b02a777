package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/izknhyt/kusozako-game-sub000/internal/component"
)

// TemperamentDef is one AI personality archetype and its tunables.
// Radii and distances are px, durations are seconds.
type TemperamentDef struct {
	ID        string             `yaml:"id"`
	Behavior  component.Behavior `yaml:"behavior"`
	SpawnRate float64            `yaml:"spawn_rate"`

	DetectionRadius float64 `yaml:"detection_radius"` // 0 = unlimited
	FearRadius      float64 `yaml:"fear_radius"`

	FollowDistance  float64 `yaml:"follow_distance"`
	CatchupDistance float64 `yaml:"catchup_distance"`
	CatchupDuration float64 `yaml:"catchup_duration"`
	CatchupBoost    float64 `yaml:"catchup_boost"`

	HomeRadius  float64 `yaml:"home_radius"`
	AvoidRadius float64 `yaml:"avoid_radius"`

	WanderInterval float64 `yaml:"wander_interval"`
	WanderJitter   float64 `yaml:"wander_jitter"`
	WanderSpeed    float64 `yaml:"wander_speed"` // fraction of full speed

	DozeSleep  float64 `yaml:"doze_sleep"`
	DozeActive float64 `yaml:"doze_active"`

	GuardRadius float64 `yaml:"guard_radius"`
	GuardSpeed  float64 `yaml:"guard_speed"` // rad/s along the ring

	TargetTag string `yaml:"target_tag"`

	MimicPool        []component.Behavior `yaml:"mimic_pool"`
	MimicIntervalMin float64              `yaml:"mimic_interval_min"`
	MimicIntervalMax float64              `yaml:"mimic_interval_max"`

	DashInterval   float64 `yaml:"dash_interval"`
	DashDuration   float64 `yaml:"dash_duration"`
	DashMultiplier float64 `yaml:"dash_multiplier"`

	PanicOnHit    bool                  `yaml:"panic_on_hit"`
	PanicDuration float64               `yaml:"panic_duration"`
	LeaderLoss    component.MoraleState `yaml:"leader_loss"` // panic or mesomeso
	Disobedience  float64               `yaml:"disobedience"` // scales the morale ignore-orders chance
	MaxRaiders    int                   `yaml:"max_raiders"`  // raiders per target before it counts as claimed
}

type temperamentFile struct {
	Temperaments []TemperamentDef `yaml:"temperaments"`
}

// TemperamentTable holds temperament definitions in file order.
type TemperamentTable struct {
	defs  []TemperamentDef
	index map[string]int
	total float64
}

// LoadTemperamentTable loads temperaments.yaml.
func LoadTemperamentTable(path string) (*TemperamentTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read temperaments: %w", err)
	}
	var f temperamentFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse temperaments: %w", err)
	}
	return NewTemperamentTable(f.Temperaments), nil
}

// NewTemperamentTable builds a table, filling neutral defaults.
func NewTemperamentTable(defs []TemperamentDef) *TemperamentTable {
	t := &TemperamentTable{index: make(map[string]int, len(defs))}
	for _, d := range defs {
		if d.DashMultiplier == 0 {
			d.DashMultiplier = 1
		}
		if d.CatchupBoost == 0 {
			d.CatchupBoost = 1
		}
		if d.WanderSpeed == 0 {
			d.WanderSpeed = 0.5
		}
		if d.Disobedience == 0 {
			d.Disobedience = 1
		}
		if d.MaxRaiders == 0 {
			d.MaxRaiders = 1
		}
		if d.LeaderLoss != component.MoraleMesomeso {
			d.LeaderLoss = component.MoralePanic
		}
		t.index[d.ID] = len(t.defs)
		t.defs = append(t.defs, d)
		if d.SpawnRate > 0 {
			t.total += d.SpawnRate
		}
	}
	return t
}

func (t *TemperamentTable) Get(i int) *TemperamentDef { return &t.defs[i] }
func (t *TemperamentTable) Count() int                { return len(t.defs) }

// Lookup returns the index of a temperament id.
func (t *TemperamentTable) Lookup(id string) (int, bool) {
	i, ok := t.index[id]
	return i, ok
}

// Draw picks a temperament by cumulative-weight roulette over spawn rates.
// r is uniform in [0,1).
func (t *TemperamentTable) Draw(r float64) int {
	if t.total <= 0 {
		return 0
	}
	x := r * t.total
	last := 0
	for i := range t.defs {
		rate := t.defs[i].SpawnRate
		if rate <= 0 {
			continue
		}
		last = i
		if x < rate {
			return i
		}
		x -= rate
	}
	return last
}

// Validate checks that the roulette has weight and that mimic pools are usable.
func (t *TemperamentTable) Validate() error {
	if len(t.defs) == 0 {
		return invalid("temperaments: table is empty")
	}
	if t.total <= 0 {
		return invalid("temperaments: no positive spawn_rate")
	}
	for _, d := range t.defs {
		if d.Behavior == component.BehaviorMimic {
			if len(d.MimicPool) == 0 {
				return invalid("temperament %q: mimic needs a mimic_pool", d.ID)
			}
			for _, b := range d.MimicPool {
				if b == component.BehaviorMimic {
					return invalid("temperament %q: mimic_pool cannot contain mimic", d.ID)
				}
			}
			if d.MimicIntervalMax < d.MimicIntervalMin || d.MimicIntervalMin <= 0 {
				return invalid("temperament %q: bad mimic interval", d.ID)
			}
		}
		if d.Behavior == component.BehaviorTargetTag && d.TargetTag == "" {
			return invalid("temperament %q: target_tag behavior needs a tag", d.ID)
		}
		if d.Behavior == component.BehaviorDoze && (d.DozeSleep <= 0 || d.DozeActive <= 0) {
			return invalid("temperament %q: doze windows must be positive", d.ID)
		}
	}
	return nil
}
