package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/izknhyt/kusozako-game-sub000/internal/component"
)

// FormationShape parameterizes one formation kind.
type FormationShape struct {
	Kind    component.FormationKind `yaml:"kind"`
	Spacing float64                 `yaml:"spacing"` // wedge/line slot gap
	Radius  float64                 `yaml:"radius"`  // swarm/ring radius
}

// FormationTable holds formation-wide settings and shapes.
type FormationTable struct {
	MaxFollowers      int                     `yaml:"max_followers"`
	AlignTime         float64                 `yaml:"align_time"`          // defense window after a change
	DamageTakenScale  float64                 `yaml:"damage_taken_scale"`  // incoming damage scale while the window runs
	NormalizeDistance float64                 `yaml:"normalize_distance"`  // slot distance that counts as fully misaligned
	ProgressEpsilon   float64                 `yaml:"progress_epsilon"`
	LockThreshold     float64                 `yaml:"lock_threshold"`
	Default           component.FormationKind `yaml:"default"`
	Shapes            []FormationShape        `yaml:"shapes"`
}

// LoadFormationTable loads formations.yaml.
func LoadFormationTable(path string) (*FormationTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read formations: %w", err)
	}
	var t FormationTable
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("parse formations: %w", err)
	}
	t.applyDefaults()
	return &t, nil
}

func (t *FormationTable) applyDefaults() {
	if t.ProgressEpsilon == 0 {
		t.ProgressEpsilon = 0.01
	}
	if t.LockThreshold == 0 {
		t.LockThreshold = 0.99
	}
	if t.DamageTakenScale == 0 {
		t.DamageTakenScale = 1
	}
}

// Shape returns the shape for kind, or a zero shape when unconfigured.
func (t *FormationTable) Shape(kind component.FormationKind) FormationShape {
	for _, s := range t.Shapes {
		if s.Kind == kind {
			return s
		}
	}
	return FormationShape{Kind: kind}
}

func (t *FormationTable) Validate() error {
	t.applyDefaults()
	if t.MaxFollowers < 0 {
		return invalid("formations: max_followers must not be negative")
	}
	if t.NormalizeDistance <= 0 {
		return invalid("formations: normalize_distance must be positive")
	}
	if t.DamageTakenScale < 0 {
		return invalid("formations: damage_taken_scale must not be negative")
	}
	for _, s := range t.Shapes {
		if s.Spacing < 0 || s.Radius < 0 {
			return invalid("formation %s: negative geometry", s.Kind)
		}
	}
	return nil
}
