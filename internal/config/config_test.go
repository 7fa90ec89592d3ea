package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8000", cfg.Addr())
	assert.Equal(t, "humble", cfg.ROSDistro)
	assert.False(t, cfg.Verbose)
	assert.Equal(t, 3*time.Second, cfg.MonitorInterval())
	assert.Equal(t, 5*time.Second, cfg.LaunchTimeout())
	assert.Equal(t, 5*time.Second, cfg.GraceTimeout())
	assert.Equal(t, 1024, cfg.EventQueueCapacity)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node-supervisor.yaml")
	data := `
listen_address: 127.0.0.1
port: "9000"
ros_distro: jazzy
verbose: true
monitor_interval_seconds: 1.5
grace_timeout_seconds: 2
event_queue_capacity: 64
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Addr())
	assert.Equal(t, "jazzy", cfg.ROSDistro)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, 1500*time.Millisecond, cfg.MonitorInterval())
	assert.Equal(t, 2*time.Second, cfg.GraceTimeout())
	assert.Equal(t, 64, cfg.EventQueueCapacity)

	// Unset fields still default.
	assert.Equal(t, 5*time.Second, cfg.LaunchTimeout())
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen_address: [oops"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}
