package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "skirmish.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaultsUnderFile(t *testing.T) {
	path := writeConfig(t, `
[simulation]
seed = "from-file"
tick_rate = "20ms"

[telemetry]
driver = "sqlite"
path = "events.db"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.Simulation.Seed)
	assert.Equal(t, 20*time.Millisecond, cfg.Simulation.TickRate)
	assert.InDelta(t, 1.0/60, cfg.Simulation.FixedDt, 1e-12)
	assert.Equal(t, 5, cfg.Simulation.MaxStepsPerFrame)
	assert.Equal(t, 64.0, cfg.World.GridCellSize)
	assert.Equal(t, "sqlite", cfg.Telemetry.Driver)
	assert.Equal(t, "events.db", cfg.Telemetry.Path)
	assert.Equal(t, 128, cfg.Telemetry.FlushEvery)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "[simulation]\nseed = \"from-file\"\n")
	t.Setenv("SKIRMISH_SEED", "from-env")
	t.Setenv("SKIRMISH_SPAWN_MAX_PER_FRAME", "3")
	t.Setenv("SKIRMISH_LOG_FORMAT", "json")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Simulation.Seed)
	assert.Equal(t, 3, cfg.Spawner.MaxPerFrame)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "none", cfg.Telemetry.Driver)
	assert.Equal(t, "data/yaml", cfg.Simulation.DataDir)
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"fixed dt":     "[simulation]\nfixed_dt = -1.0\n",
		"steps":        "[simulation]\nmax_steps_per_frame = 0\n",
		"driver":       "[telemetry]\ndriver = \"kafka\"\n",
		"syntax error": "[simulation\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
