package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/models"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/trades"
)

func env(vals map[string]string) func(string) string {
	return func(k string) string { return vals[k] }
}

func TestDefaults(t *testing.T) {
	cfg, err := FromEnv(env(nil))
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "50051", cfg.GRPCPort)
	assert.Equal(t, "memory", cfg.DBDriver)
	assert.Equal(t, "dynasty.events", cfg.NATSSubject)
	assert.Equal(t, time.Hour, cfg.SyncInterval)
	assert.Equal(t, 2026, cfg.CurrentSeason)
	assert.Equal(t, "value", cfg.PhasePolicy)
	assert.Equal(t, "commissioners", cfg.CommissionerGroup)
	assert.True(t, cfg.Development())
	assert.Equal(t, trades.DefaultParams(), cfg.Tuning.Trades)
}

func TestFromEnvErrors(t *testing.T) {
	cases := map[string]map[string]string{
		"bad interval":      {"SYNC_INTERVAL": "soon"},
		"negative interval": {"SYNC_INTERVAL": "-1m"},
		"bad season":        {"CURRENT_SEASON": "next"},
		"unknown driver":    {"DB_DRIVER": "mongo"},
		"postgres no url": {
			"DB_DRIVER":               "postgres",
			"ENVIRONMENT":             "production",
			"AUTHENTIK_BASE_URL":      "https://sso.example.com",
			"AUTHENTIK_CLIENT_ID":     "dynasty",
			"AUTHENTIK_CLIENT_SECRET": "s3cret",
		},
		"unknown policy":    {"PHASE_POLICY": "vibes"},
		"missing tuning":    {"TUNING_FILE": "/nonexistent/tuning.yaml"},
		"production no sso": {"ENVIRONMENT": "production"},
	}
	for name, vals := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := FromEnv(env(vals))
			assert.Error(t, err)
		})
	}
}

func TestProductionSettings(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{
		"ENVIRONMENT":             "production",
		"DB_DRIVER":               "postgres",
		"DATABASE_URL":            "postgres://dynasty@db/dynasty",
		"SYNC_INTERVAL":           "15m",
		"PHASE_POLICY":            "rank",
		"AUTHENTIK_BASE_URL":      "https://sso.example.com",
		"AUTHENTIK_CLIENT_ID":     "dynasty",
		"AUTHENTIK_CLIENT_SECRET": "s3cret",
	}))
	require.NoError(t, err)
	assert.False(t, cfg.Development())
	assert.Equal(t, "dynasty", cfg.AuthentikClientID)
	assert.Equal(t, 15*time.Minute, cfg.SyncInterval)
	assert.Equal(t, "rank", cfg.PhasePolicy)
}

func TestLoadTuningOverridesOnlyGivenFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
trades:
  maxProposals: 8
  sellAgeFloors:
    TE: 30
phase:
  highPickCapital: 15000
`), 0o644))

	cfg, err := FromEnv(env(map[string]string{"TUNING_FILE": path}))
	require.NoError(t, err)

	def := trades.DefaultParams()
	assert.Equal(t, 8, cfg.Tuning.Trades.MaxProposals)
	assert.Equal(t, 30.0, cfg.Tuning.Trades.SellAgeFloors[models.PositionTE])
	assert.Equal(t, def.SellAgeFloors[models.PositionRB], cfg.Tuning.Trades.SellAgeFloors[models.PositionRB])
	assert.Equal(t, def.SwapTolerance, cfg.Tuning.Trades.SwapTolerance)
	assert.Equal(t, 15000, cfg.Tuning.Phase.HighPickCapital)
	assert.Equal(t, 28.0, cfg.Tuning.Phase.ContendMaxAge)
}

func TestLoadTuningRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	require.NoError(t, os.WriteFile(path, []byte("trades:\n  swapTolerance: 1.5\n"), 0o644))
	_, err := LoadTuning(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("trades: [not, a, map]\n"), 0o644))
	_, err = LoadTuning(path)
	assert.Error(t, err)
}

func TestLoadReadsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("GRPC_PORT=6000\n"), 0o644))
	t.Setenv("GRPC_PORT", "")
	os.Unsetenv("GRPC_PORT")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "6000", cfg.GRPCPort)

	_, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}
