package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 500*time.Millisecond, cfg.ThinkTime())
}

func TestLoadOverridesAndBackfills(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
engine_path: /usr/bin/stockfish
think_time_ms: 1200
workers: 6
thresholds:
  min_centipawn_loss: 75
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/usr/bin/stockfish", cfg.EnginePath)
	assert.Equal(t, 1200*time.Millisecond, cfg.ThinkTime())
	assert.Equal(t, 6, cfg.Workers)
	assert.Equal(t, 75, cfg.Thresholds.MinCentipawnLoss)

	// Values the file never mentioned keep their defaults.
	assert.Equal(t, 4, cfg.BatchSize)
	assert.Equal(t, 300*time.Second, cfg.BatchTimeout())
	assert.Equal(t, 30*time.Second, cfg.AcquireTimeout())
	assert.Equal(t, 0.004, cfg.Thresholds.WinProbK)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workers: [not a number"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}
