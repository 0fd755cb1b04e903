package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/postgres")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "new_message", cfg.Channel)
	require.Equal(t, time.Minute, cfg.LockDuration())
	require.Equal(t, "worker", cfg.HandledBy)
	require.False(t, cfg.Debug)
}

func TestLoadMissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsNonPositiveLockDuration(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/postgres")
	t.Setenv("LOCK_DURATION_SEC", "0")
	_, err := Load()
	require.Error(t, err)
}

func TestLoadDebugToggle(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/postgres")
	t.Setenv("DEBUG", "1")

	cfg, err := Load()
	require.NoError(t, err)
	require.True(t, cfg.Debug)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/postgres")
	t.Setenv("QUEUE_CHANNEL", "other_channel")
	t.Setenv("LOCK_DURATION_SEC", "5")
	t.Setenv("HANDLED_BY", "batch-worker")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "other_channel", cfg.Channel)
	require.Equal(t, 5*time.Second, cfg.LockDuration())
	require.Equal(t, "batch-worker", cfg.HandledBy)
}
