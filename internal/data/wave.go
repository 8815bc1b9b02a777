package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Variant is one weighted enemy choice inside a spawn set.
type Variant struct {
	Enemy  string  `yaml:"enemy"`
	Weight float64 `yaml:"weight"`
	Pity   float64 `yaml:"pity"` // weight added after each miss
}

// SpawnSet is one batch of enemies a wave queues at each of its gates.
type SpawnSet struct {
	Enemy    string    `yaml:"enemy"`
	Variants []Variant `yaml:"variants"` // overrides Enemy when non-empty
	Count    int       `yaml:"count"`
	Interval float64   `yaml:"interval"` // seconds between emissions
	Delay    float64   `yaml:"delay"`    // seconds before the first emission
}

// WaveDef is a timed group of spawn sets.
type WaveDef struct {
	Time  float64    `yaml:"time"`
	Gates []string   `yaml:"gates"`
	Sets  []SpawnSet `yaml:"sets"`
}

// WaveScript is a resolved wave schedule plus script-defined gate tiles.
// Tiles shadow map gates with the same id.
type WaveScript struct {
	Tiles map[string]GateDef
	Waves []WaveDef
}

type waveFile struct {
	Gates []GateDef `yaml:"gates"`
	Waves []WaveDef `yaml:"waves"`
}

// LoadWaves loads waves.yaml.
func LoadWaves(path string) (*WaveScript, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read waves: %w", err)
	}
	var f waveFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse waves: %w", err)
	}
	ws := &WaveScript{Waves: f.Waves, Tiles: make(map[string]GateDef, len(f.Gates))}
	for _, g := range f.Gates {
		ws.Tiles[g.ID] = g
	}
	return ws, nil
}

// Validate checks enemy references and counts against the unit table.
func (w *WaveScript) Validate(units *UnitTable) error {
	for i, wave := range w.Waves {
		if wave.Time < 0 {
			return invalid("wave %d: negative time", i)
		}
		for j, set := range wave.Sets {
			if set.Count < 0 || set.Interval < 0 || set.Delay < 0 {
				return invalid("wave %d set %d: negative count or timing", i, j)
			}
			if len(set.Variants) == 0 {
				if units.Enemy(set.Enemy) == nil {
					return invalid("wave %d set %d: unknown enemy %q", i, j, set.Enemy)
				}
				continue
			}
			total := 0.0
			for _, v := range set.Variants {
				if units.Enemy(v.Enemy) == nil {
					return invalid("wave %d set %d: unknown variant %q", i, j, v.Enemy)
				}
				if v.Weight < 0 || v.Pity < 0 {
					return invalid("wave %d set %d: negative variant weight", i, j)
				}
				total += v.Weight
			}
			if total <= 0 {
				return invalid("wave %d set %d: variants have no weight", i, j)
			}
		}
	}
	return nil
}
