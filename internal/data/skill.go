package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/izknhyt/kusozako-game-sub000/internal/component"
)

// SkillDef is the static definition of a commander skill slot.
type SkillDef struct {
	ID         string              `yaml:"id"`
	Kind       component.SkillKind `yaml:"kind"`
	Cooldown   float64             `yaml:"cooldown"`
	Radius     float64             `yaml:"radius"`
	Duration   float64             `yaml:"duration"`
	Multiplier float64             `yaml:"multiplier"`
	Count      int                 `yaml:"count"`       // wall segments
	Distance   float64             `yaml:"distance"`    // wall arc distance ahead of the commander
	HP         float64             `yaml:"hp"`          // wall segment hp
	MaxTargets int                 `yaml:"max_targets"` // rally cap
	Order      component.Order     `yaml:"order"`
}

type skillFile struct {
	Skills []SkillDef `yaml:"skills"`
}

// SkillTable holds skill definitions; list order is slot order.
type SkillTable struct {
	skills []SkillDef
}

// LoadSkillTable loads skills.yaml.
func LoadSkillTable(path string) (*SkillTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read skills: %w", err)
	}
	var f skillFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse skills: %w", err)
	}
	return &SkillTable{skills: f.Skills}, nil
}

func NewSkillTable(defs []SkillDef) *SkillTable { return &SkillTable{skills: defs} }

// Get returns a skill by slot, or nil.
func (t *SkillTable) Get(slot int) *SkillDef {
	if slot < 0 || slot >= len(t.skills) {
		return nil
	}
	return &t.skills[slot]
}

// Count returns the number of loaded skills.
func (t *SkillTable) Count() int { return len(t.skills) }

func (t *SkillTable) Validate() error {
	for _, s := range t.skills {
		if s.Cooldown < 0 || s.Duration < 0 {
			return invalid("skill %q: negative timing", s.ID)
		}
		switch s.Kind {
		case component.SkillWall:
			if s.Count <= 0 || s.HP <= 0 || s.Radius <= 0 {
				return invalid("skill %q: wall needs count, hp and radius", s.ID)
			}
		case component.SkillOrder:
			if s.Order == component.OrderNone {
				return invalid("skill %q: order skill needs an order", s.ID)
			}
		case component.SkillRush, component.SkillShield:
			if s.Duration <= 0 {
				return invalid("skill %q: needs a duration", s.ID)
			}
		}
	}
	return nil
}
