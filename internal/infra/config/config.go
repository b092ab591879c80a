package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yanqian/kundali-web/internal/domain/kundali"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Backend BackendConfig `yaml:"backend"`
	Places  PlacesConfig  `yaml:"places"`
	Session SessionConfig `yaml:"session"`
	Chart   ChartConfig   `yaml:"chart"`
	Form    FormConfig    `yaml:"form"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address         string          `yaml:"address"`
	ReadTimeout     time.Duration   `yaml:"readTimeout"`
	WriteTimeout    time.Duration   `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration   `yaml:"shutdownTimeout"`
	AllowedOrigins  []string        `yaml:"allowedOrigins"`
	RateLimit       RateLimitConfig `yaml:"rateLimit"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// BackendConfig points at the astrology backend.
type BackendConfig struct {
	BaseURL string        `yaml:"baseUrl"`
	Timeout time.Duration `yaml:"timeout"`
}

// PlacesConfig controls place autocomplete.
type PlacesConfig struct {
	Debounce       time.Duration `yaml:"debounce"`
	MinQueryLength int           `yaml:"minQueryLength"`
	CacheTTL       time.Duration `yaml:"cacheTtl"`
}

// SessionConfig controls the per-browser session and where it is kept.
// Postgres wins over Redis when both are configured.
type SessionConfig struct {
	CookieName string         `yaml:"cookieName"`
	Secret     string         `yaml:"secret"`
	TTL        time.Duration  `yaml:"ttl"`
	Secure     bool           `yaml:"secure"`
	Redis      RedisConfig    `yaml:"redis"`
	Postgres   PostgresConfig `yaml:"postgres"`
}

// RedisConfig contains connection information for Valkey/Redis storage.
type RedisConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Prefix  string `yaml:"prefix"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// ChartConfig tunes chart rendering.
type ChartConfig struct {
	SignPolicy string `yaml:"signPolicy"`
}

// FormConfig holds form defaults.
type FormConfig struct {
	DefaultTimezone string `yaml:"defaultTimezone"`
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_SHUTDOWN_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.HTTP.ShutdownTimeout = parsed
		}
	}
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
	if v := os.Getenv("BACKEND_BASE_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := os.Getenv("BACKEND_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Backend.Timeout = parsed
		}
	}
	if v := os.Getenv("PLACES_DEBOUNCE"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Places.Debounce = parsed
		}
	}
	if v := os.Getenv("PLACES_MIN_QUERY_LENGTH"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Places.MinQueryLength = parsed
		}
	}
	if v := os.Getenv("PLACES_CACHE_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Places.CacheTTL = parsed
		}
	}
	if v := os.Getenv("SESSION_COOKIE_NAME"); v != "" {
		cfg.Session.CookieName = v
	}
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		cfg.Session.Secret = v
	}
	if v := os.Getenv("SESSION_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Session.TTL = parsed
		}
	}
	if v := os.Getenv("SESSION_SECURE"); v != "" {
		cfg.Session.Secure = parseBool(v)
	}
	if v := os.Getenv("SESSION_REDIS_ENABLED"); v != "" {
		cfg.Session.Redis.Enabled = parseBool(v)
	}
	if v := os.Getenv("SESSION_REDIS_ADDR"); v != "" {
		cfg.Session.Redis.Addr = v
	}
	if v := os.Getenv("SESSION_POSTGRES_DSN"); v != "" {
		cfg.Session.Postgres.DSN = v
	}
	if v := os.Getenv("SESSION_POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Session.Postgres.MaxConns = int32(parsed)
		}
	}
	if v := os.Getenv("SESSION_POSTGRES_MIN_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Session.Postgres.MinConns = int32(parsed)
		}
	}
	if v := os.Getenv("CHART_SIGN_POLICY"); v != "" {
		cfg.Chart.SignPolicy = v
	}
	if v := os.Getenv("FORM_DEFAULT_TIMEZONE"); v != "" {
		cfg.Form.DefaultTimezone = v
	}
}

func parseBool(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:         ":8080",
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 600,
				Burst:             60,
			},
		},
		Backend: BackendConfig{
			BaseURL: "http://127.0.0.1:5000",
			Timeout: 20 * time.Second,
		},
		Places: PlacesConfig{
			Debounce:       300 * time.Millisecond,
			MinQueryLength: 1,
			CacheTTL:       10 * time.Minute,
		},
		Session: SessionConfig{
			CookieName: "kundali_session",
			Secret:     "dev-only-change-me",
			TTL:        24 * time.Hour,
			Redis: RedisConfig{
				Enabled: false,
				Prefix:  "kundali",
			},
			Postgres: PostgresConfig{
				MaxConns: 4,
			},
		},
		Chart: ChartConfig{
			SignPolicy: "default",
		},
		Form: FormConfig{
			DefaultTimezone: "5.5",
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		return errors.New("http.shutdownTimeout must be positive")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if strings.TrimSpace(c.Backend.BaseURL) == "" {
		return errors.New("backend.baseUrl cannot be empty")
	}
	if c.Backend.Timeout <= 0 {
		return errors.New("backend.timeout must be positive")
	}
	if c.Places.Debounce < 0 {
		return errors.New("places.debounce cannot be negative")
	}
	if c.Places.MinQueryLength < 1 {
		return errors.New("places.minQueryLength must be at least 1")
	}
	if c.Places.CacheTTL < 0 {
		return errors.New("places.cacheTtl cannot be negative")
	}
	if strings.TrimSpace(c.Session.CookieName) == "" {
		return errors.New("session.cookieName cannot be empty")
	}
	if len(c.Session.Secret) < 16 {
		return errors.New("session.secret must be at least 16 characters")
	}
	if c.Session.TTL <= 0 {
		return errors.New("session.ttl must be positive")
	}
	if c.Session.Redis.Enabled && strings.TrimSpace(c.Session.Redis.Addr) == "" {
		return errors.New("session.redis.addr cannot be empty when redis is enabled")
	}
	if _, err := kundali.ParseSignPolicy(c.Chart.SignPolicy); err != nil {
		return fmt.Errorf("chart.signPolicy: %w", err)
	}
	if _, err := strconv.ParseFloat(c.Form.DefaultTimezone, 64); err != nil {
		return errors.New("form.defaultTimezone must be a number of hours")
	}
	return nil
}
