package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/izknhyt/kusozako-game-sub000/internal/component"
)

// MoraleModifiers are the multipliers a morale state applies.
type MoraleModifiers struct {
	State        component.MoraleState `yaml:"state"`
	Speed        float64               `yaml:"speed"`
	Accuracy     float64               `yaml:"accuracy"`
	Defense      float64               `yaml:"defense"`
	IgnoreOrders float64               `yaml:"ignore_orders"` // chance per re-roll
}

// MoraleTable holds morale timings, order timing, banners and state multipliers.
type MoraleTable struct {
	LeaderDownDuration   float64               `yaml:"leader_down_duration"`
	PanicDuration        float64               `yaml:"panic_duration"`
	MesomesoDuration     float64               `yaml:"mesomeso_duration"`
	RecoveringDuration   float64               `yaml:"recovering_duration"`
	IgnoreOrdersInterval float64               `yaml:"ignore_orders_interval"`
	PanicFleeRadius      float64               `yaml:"panic_flee_radius"`
	OrderDuration        float64               `yaml:"order_duration"`
	DefaultOrder         component.Order       `yaml:"default_order"`
	TelemetryBannerTime  float64               `yaml:"telemetry_banner_time"`
	ResultBannerTime     float64               `yaml:"result_banner_time"`
	VictoryGrace         float64               `yaml:"victory_grace"`
	States               []MoraleModifiers     `yaml:"states"`
	byState              [component.MoraleStateCount]MoraleModifiers
}

// LoadMoraleTable loads morale.yaml.
func LoadMoraleTable(path string) (*MoraleTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read morale: %w", err)
	}
	var t MoraleTable
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("parse morale: %w", err)
	}
	t.Index()
	return &t, nil
}

// Index builds the per-state lookup. States missing from the file get
// neutral multipliers.
func (t *MoraleTable) Index() {
	for i := range t.byState {
		t.byState[i] = MoraleModifiers{State: component.MoraleState(i), Speed: 1, Accuracy: 1, Defense: 1}
	}
	for _, m := range t.States {
		if int(m.State) < len(t.byState) {
			t.byState[m.State] = m
		}
	}
}

// Modifiers returns the multipliers for state s.
func (t *MoraleTable) Modifiers(s component.MoraleState) MoraleModifiers {
	return t.byState[s]
}

func (t *MoraleTable) Validate() error {
	t.Index()
	if t.LeaderDownDuration <= 0 || t.RecoveringDuration <= 0 {
		return invalid("morale: leader_down_duration and recovering_duration must be positive")
	}
	if t.PanicDuration <= 0 || t.MesomesoDuration <= 0 {
		return invalid("morale: panic_duration and mesomeso_duration must be positive")
	}
	if t.IgnoreOrdersInterval <= 0 {
		return invalid("morale: ignore_orders_interval must be positive")
	}
	for _, m := range t.byState {
		if m.Defense <= 0 || m.Speed < 0 || m.Accuracy < 0 {
			return invalid("morale %s: defense must be positive, speed/accuracy not negative", m.State)
		}
		if m.IgnoreOrders < 0 || m.IgnoreOrders > 1 {
			return invalid("morale %s: ignore_orders must be in [0,1]", m.State)
		}
	}
	return nil
}
