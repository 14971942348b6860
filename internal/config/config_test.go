package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
session:
  ttl: 45m
dashboard:
  total_borrower_multiplier: 3
notify:
  email:
    receivers: [risk@example.com, ops@example.com]
logging:
  level: debug
  format: console
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.File)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 45*time.Minute, cfg.Session.TTL)
	assert.Equal(t, 3.0, cfg.Dashboard.TotalBorrowerMultiplier)
	assert.Equal(t, []string{"risk@example.com", "ops@example.com"}, cfg.Notify.Email.Receivers)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// untouched keys keep their defaults
	assert.Equal(t, 10, cfg.Dashboard.TopBorrowers)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "release", cfg.Server.Mode)
}

func TestLoad_WritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 2.5, cfg.Dashboard.TotalBorrowerMultiplier)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Server.Port, again.Server.Port)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0644))

	t.Setenv("LOANEYE_SERVER_PORT", "7070")
	t.Setenv("LOANEYE_AUTH_JWT_SECRET", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: loud\n"), 0644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "logging.level")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		path := filepath.Join(t.TempDir(), "config.yaml")
		cfg, err := Load(path)
		require.NoError(t, err)
		return cfg
	}

	tests := map[string]func(*Config){
		"port":       func(c *Config) { c.Server.Port = 0 },
		"mode":       func(c *Config) { c.Server.Mode = "prod" },
		"session":    func(c *Config) { c.Session.TTL = 0 },
		"token":      func(c *Config) { c.Auth.TokenTTL = -time.Second },
		"secret":     func(c *Config) { c.Auth.JWTSecret = "" },
		"multiplier": func(c *Config) { c.Dashboard.TotalBorrowerMultiplier = 0 },
		"top":        func(c *Config) { c.Dashboard.TopBorrowers = 0 },
		"interval":   func(c *Config) { c.Monitor.Interval = 0 },
		"format":     func(c *Config) { c.Logging.Format = "xml" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			require.NoError(t, cfg.Validate())
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDataPath(t *testing.T) {
	cfg := &Config{}
	cfg.Data.Dir = "data"
	assert.Equal(t, filepath.Join("data", "alerts.csv"), cfg.DataPath("alerts.csv"))
	assert.Equal(t, "/abs/alerts.csv", cfg.DataPath("/abs/alerts.csv"))
	assert.Equal(t, "", cfg.DataPath(""))
}
