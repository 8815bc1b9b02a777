package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/izknhyt/kusozako-game-sub000/internal/geom"
)

// GateDef is a map-defined spawn portal.
type GateDef struct {
	ID     string    `yaml:"id"`
	Pos    geom.Vec2 `yaml:"pos"`
	Radius float64   `yaml:"radius"`
	HP     float64   `yaml:"hp"`
}

// ZoneDef is a capture zone placed on the map.
type ZoneDef struct {
	ID          string    `yaml:"id"`
	Pos         geom.Vec2 `yaml:"pos"`
	Radius      float64   `yaml:"radius"`
	CaptureTime float64   `yaml:"capture_time"`
	DisableGate string    `yaml:"disable_gate"` // gate closed while the zone is captured
}

// BaseDef is the defended objective.
type BaseDef struct {
	Pos    geom.Vec2 `yaml:"pos"`
	Radius float64   `yaml:"radius"`
	HP     float64   `yaml:"hp"`
}

// MapDef holds the battlefield layout.
type MapDef struct {
	Name               string    `yaml:"name"`
	Bounds             geom.Rect `yaml:"bounds"`
	Base               BaseDef   `yaml:"base"`
	CommanderSpawn     geom.Vec2 `yaml:"commander_spawn"`
	AllySpawn          geom.Vec2 `yaml:"ally_spawn"`
	Gates              []GateDef `yaml:"gates"`
	Zones              []ZoneDef `yaml:"zones"`
	WaveScript         string    `yaml:"wave_script"` // Lua file under the scripts dir; empty = waves.yaml
	LODSpriteThreshold int       `yaml:"lod_sprite_threshold"`
}

// LoadMap loads map.yaml.
func LoadMap(path string) (*MapDef, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read map: %w", err)
	}
	var m MapDef
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse map: %w", err)
	}
	return &m, nil
}

// Gate returns a map gate by id.
func (m *MapDef) Gate(id string) (GateDef, bool) {
	for _, g := range m.Gates {
		if g.ID == id {
			return g, true
		}
	}
	return GateDef{}, false
}

func (m *MapDef) Validate() error {
	if m.Bounds.Width() <= 0 || m.Bounds.Height() <= 0 {
		return invalid("map %q: bounds must have positive size", m.Name)
	}
	if m.Base.HP <= 0 || m.Base.Radius <= 0 {
		return invalid("map %q: base needs hp and radius", m.Name)
	}
	seen := make(map[string]struct{}, len(m.Gates))
	for _, g := range m.Gates {
		if g.ID == "" {
			return invalid("map %q: gate with empty id", m.Name)
		}
		if _, dup := seen[g.ID]; dup {
			return invalid("map %q: duplicate gate %q", m.Name, g.ID)
		}
		seen[g.ID] = struct{}{}
		if g.HP <= 0 || g.Radius <= 0 {
			return invalid("gate %q: hp and radius must be positive", g.ID)
		}
	}
	for _, z := range m.Zones {
		if z.Radius <= 0 || z.CaptureTime <= 0 {
			return invalid("zone %q: radius and capture_time must be positive", z.ID)
		}
		if z.DisableGate != "" {
			if _, ok := seen[z.DisableGate]; !ok {
				return invalid("zone %q: unknown gate %q", z.ID, z.DisableGate)
			}
		}
	}
	return nil
}
