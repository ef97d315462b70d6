package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	defaultProfileCacheTTL            = 10 * time.Minute
	defaultEmailChangeTTL             = 15 * time.Minute
	defaultEmailRequestsAllowedPerMin = 5
	defaultEmailConfirmsAllowedPerMin = 10
)

type Config struct {
	Environment string `toml:"environment"`
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`
	// prometheus
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`
	// postgres
	PostgresHost   string `toml:"postgres_host"`
	PostgresPort   string `toml:"postgres_port"`
	PostgresDBName string `toml:"postgres_db_name"`
	PostgresUser   string `toml:"postgres_user"`
	ApplySchema    bool   `toml:"apply_schema"`
	// redis
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`
	// profiles
	ProfileCacheTTL            Duration `toml:"profile_cache_ttl"`
	EmailChangeTTL             Duration `toml:"email_change_ttl"`
	EmailRequestsAllowedPerMin int      `toml:"email_requests_allowed_per_min"`
	EmailConfirmsAllowedPerMin int      `toml:"email_confirms_allowed_per_min"`
	AllowedOrigins             []string `toml:"allowed_origins"`
}

// Duration lets TOML values like "15m" decode into time.Duration.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parse duration [%s]: %w", text, err)
	}
	d.Duration = parsed
	return nil
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
	if cfg == nil {
		return nil, fmt.Errorf("no config section for env: %s", env)
	}
	return cfg, nil
}

// Load reads the TOML file at path and returns the section for the given env.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file [%s]: %w", path, err)
	}

	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg.Environment == "" {
		cfg.Environment = strings.ToLower(env)
	}
	cfg.applyDefaults()

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 9000
	}
	if c.PrometheusMetricsHost == "" {
		c.PrometheusMetricsHost = "localhost"
	}
	if c.PrometheusMetricsPort == "" {
		c.PrometheusMetricsPort = "2112"
	}
	if c.PostgresPort == "" {
		c.PostgresPort = "5432"
	}
	if c.RedisPort == "" {
		c.RedisPort = "6379"
	}
	if c.ProfileCacheTTL.Duration <= 0 {
		c.ProfileCacheTTL.Duration = defaultProfileCacheTTL
	}
	if c.EmailChangeTTL.Duration <= 0 {
		c.EmailChangeTTL.Duration = defaultEmailChangeTTL
	}
	if c.EmailRequestsAllowedPerMin <= 0 {
		c.EmailRequestsAllowedPerMin = defaultEmailRequestsAllowedPerMin
	}
	if c.EmailConfirmsAllowedPerMin <= 0 {
		c.EmailConfirmsAllowedPerMin = defaultEmailConfirmsAllowedPerMin
	}
}
