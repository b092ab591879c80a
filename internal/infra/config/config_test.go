package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTP.Address)
	require.Equal(t, 10*time.Second, cfg.HTTP.ShutdownTimeout)
	require.Equal(t, "http://127.0.0.1:5000", cfg.Backend.BaseURL)
	require.Equal(t, 300*time.Millisecond, cfg.Places.Debounce)
	require.Equal(t, 1, cfg.Places.MinQueryLength)
	require.Equal(t, "5.5", cfg.Form.DefaultTimezone)
	require.Equal(t, "default", cfg.Chart.SignPolicy)
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte(`
http:
  address: ":9090"
backend:
  baseUrl: "http://astro:5000"
  timeout: 3s
chart:
  signPolicy: strict
session:
  redis:
    enabled: true
    addr: "valkey:6379"
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("BACKEND_TIMEOUT", "7s")
	t.Setenv("HTTP_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTP.Address)
	require.Equal(t, "http://astro:5000", cfg.Backend.BaseURL)
	require.Equal(t, 7*time.Second, cfg.Backend.Timeout)
	require.Equal(t, "strict", cfg.Chart.SignPolicy)
	require.True(t, cfg.Session.Redis.Enabled)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.AllowedOrigins)
	require.Equal(t, 24*time.Hour, cfg.Session.TTL)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"empty address":      func(c *Config) { c.HTTP.Address = "" },
		"no shutdown window": func(c *Config) { c.HTTP.ShutdownTimeout = 0 },
		"zero timeout":       func(c *Config) { c.Backend.Timeout = 0 },
		"short secret":       func(c *Config) { c.Session.Secret = "short" },
		"redis without addr": func(c *Config) { c.Session.Redis.Enabled = true },
		"bad sign policy":    func(c *Config) { c.Chart.SignPolicy = "lenient" },
		"bad timezone":       func(c *Config) { c.Form.DefaultTimezone = "IST" },
		"min query length":   func(c *Config) { c.Places.MinQueryLength = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := defaultConfig()
			mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
	require.NoError(t, defaultConfig().Validate())
}
