package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "127.0.0.1:50051", c.ServerEndpointAddr)
	assert.Equal(t, 10*time.Second, c.Timeout)
	assert.Empty(t, c.SessionToken)
}

func TestLoadConfig_Env(t *testing.T) {
	envFile = filepath.Join(t.TempDir(), "missing.env")
	t.Setenv("CUSTODYCTL_ADDR", "custody:6000")
	t.Setenv("CUSTODYCTL_SESSION", "sess-token")
	t.Setenv("CUSTODYCTL_OPERATOR_TOKEN", "op-token")
	t.Setenv("CUSTODYCTL_TIMEOUT", "3s")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "custody:6000", cfg.ServerEndpointAddr)
	assert.Equal(t, "sess-token", cfg.SessionToken)
	assert.Equal(t, "op-token", cfg.OperatorToken)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
}

func TestLoadConfig_BadTimeoutPanics(t *testing.T) {
	envFile = filepath.Join(t.TempDir(), "missing.env")
	t.Setenv("CUSTODYCTL_TIMEOUT", "soon")

	assert.Panics(t, func() { _, _ = LoadConfig("") })
}
