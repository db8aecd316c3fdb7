package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/pefman/w40k-volley/internal/config"
)

const scenarioYAML = `
name: bolters vs marines
trials: 5000
seed: 99
distance: 9
attackers:
  - unit: Intercessor Squad
    name: Intercessors in rapid fire
    extra_rules: ["+1 to Hit"]
    weapons:
      - name: Bolt rifle
        quantity: 4
      - name: Astartes grenade launcher
targets:
  - unit: Terminator Squad
    extra_rules: [Cover]
`

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(scenarioYAML), 0o644))

	s, err := config.LoadScenario(path)
	require.NoError(t, err)
	require.NoError(t, s.Validate())

	assert.Equal(t, 5000, s.Trials)
	assert.Equal(t, uint64(99), s.Seed)
	assert.Equal(t, 9, s.Distance)
	assert.Equal(t, "data", s.CatalogDir, "defaults survive")
	require.Len(t, s.Attackers, 1)
	a := s.Attackers[0]
	assert.Equal(t, "Intercessor Squad", a.Unit)
	assert.Equal(t, "Intercessors in rapid fire", a.Label())
	require.Len(t, a.Weapons, 2)
	assert.Equal(t, 4, a.Weapons[0].Quantity)
	assert.Equal(t, []string{"+1 to Hit"}, a.ExtraRules)
	assert.Equal(t, []string{"Cover"}, s.Targets[0].ExtraRules)
}

func TestLoadScenario_Missing(t *testing.T) {
	s, err := config.LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.DefaultScenario(), s)
	assert.ErrorIs(t, s.Validate(), config.ErrInvalid)
}

func TestLoadScenario_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("trials: [1, 2"), 0o644))
	_, err := config.LoadScenario(path)
	assert.Error(t, err)
}

func TestLoadScenario_StandardTargets(t *testing.T) {
	s, err := config.LoadScenario(filepath.Join("..", "..", "scenarios", "standard_targets.yaml"))
	require.NoError(t, err)
	require.NoError(t, s.Validate())

	require.Len(t, s.Targets, 16)
	assert.Equal(t, "Hormagaunts", s.Targets[0].Unit)
	assert.Equal(t, "Transcendant C'tan", s.Targets[14].Unit)
	assert.Equal(t, "Knight Paladin", s.Targets[15].Unit)
	assert.Equal(t, "Space Marines", s.Attackers[0].Faction)
	assert.Equal(t, 12, s.Distance)
}

func TestLoadServer(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SIM_MAX_TRIALS", "500")
	t.Setenv("SIM_DATA_API_TTL", "30s")

	cfg, err := config.LoadServer()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.DataAPITTL)
	assert.Equal(t, 500, cfg.DefaultTrials, "default clamps to the maximum")
	assert.Equal(t, 500, cfg.ClampTrials(10_000))
	assert.Equal(t, 20, cfg.ClampTrials(20))
	assert.Equal(t, 500, cfg.ClampTrials(0))

	t.Setenv("SIM_WORKERS", "many")
	_, err = config.LoadServer()
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	log, err := config.NewLogger("debug", true)
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))

	_, err = config.NewLogger("loud", false)
	assert.Error(t, err)
}
