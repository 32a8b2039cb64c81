package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/longkeyy/go-datasource/common/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfiguration_PathAccess(t *testing.T) {
	cfg, err := FromJSON(`{
		"pool": {"idleTimeoutSeconds": 120, "name": "main"},
		"hosts": ["a", "b"],
		"params": {"url": "jdbc:mysql://h:3306", "port": 3306, "ssl": true, "extra": {"k": "v"}}
	}`)
	require.NoError(t, err)

	assert.Equal(t, 120, cfg.GetInt("pool.idleTimeoutSeconds"))
	assert.Equal(t, "main", cfg.GetString("pool.name"))
	assert.Equal(t, 7, cfg.GetIntWithDefault("pool.missing", 7))
	assert.Equal(t, []string{"a", "b"}, cfg.GetStringList("hosts"))
	assert.False(t, cfg.IsExists("pool.name.deeper"))

	assert.Equal(t, map[string]string{
		"url":   "jdbc:mysql://h:3306",
		"port":  "3306",
		"ssl":   "true",
		"extra": `{"k":"v"}`,
	}, cfg.GetStringMap("params"))

	cfg.Set("metrics.address", ":9100")
	assert.Equal(t, ":9100", cfg.GetConfiguration("metrics").GetString("address"))
}

func TestFromJSON_Invalid(t *testing.T) {
	_, err := FromJSON(`{"pool":`)
	assert.Error(t, err)
}

func TestLoadApplication(t *testing.T) {
	app, err := LoadApplication("")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, app.IdleTTL)
	assert.Equal(t, time.Minute, app.SweepInterval)
	assert.Equal(t, 2*time.Second, app.SlowLeaseThreshold)
	assert.Equal(t, logger.LevelInfo, app.Logger.Level)
	assert.Empty(t, app.MetricsAddress)

	file := filepath.Join(t.TempDir(), "application.json")
	require.NoError(t, os.WriteFile(file, []byte(`{
		"logger": {"level": "debug", "development": false},
		"pool": {"idleTimeoutSeconds": 60, "sweepIntervalSeconds": 5, "slowLeaseMillis": 500},
		"metrics": {"address": ":9100"}
	}`), 0o644))

	app, err = LoadApplication(file)
	require.NoError(t, err)
	assert.Equal(t, logger.LevelDebug, app.Logger.Level)
	assert.False(t, app.Logger.Development)
	assert.Equal(t, time.Minute, app.IdleTTL)
	assert.Equal(t, 5*time.Second, app.SweepInterval)
	assert.Equal(t, 500*time.Millisecond, app.SlowLeaseThreshold)
	assert.Equal(t, ":9100", app.MetricsAddress)
}

func TestParams(t *testing.T) {
	p := Params{"url": " jdbc:x ", "port": "9030", "ssl": "yes", "hosts": "a, b,,c"}

	assert.Equal(t, "jdbc:x", p.String("url"))
	assert.Equal(t, "root", p.StringOr("user", "root"))

	port, err := p.Int("port", 0)
	require.NoError(t, err)
	assert.Equal(t, 9030, port)

	_, err = p.Bool("ssl", false)
	assert.Error(t, err)

	assert.EqualError(t, p.Require("url", "user"), "parameter 'user' is required")
	assert.Equal(t, []string{"a", "b", "c"}, p.List("hosts"))
}
