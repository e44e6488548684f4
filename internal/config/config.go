package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/2beens/teamcondition/pkg"

	"github.com/BurntSushi/toml"
	"github.com/sethvargo/go-envconfig"
	"go.uber.org/multierr"
)

const (
	StorePostgres  = "postgres"
	StorePostgREST = "postgrest"
	StoreSQLite    = "sqlite"
)

type Config struct {
	Environment string `toml:"environment"`
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	SentryEnabled bool   `toml:"sentry_enabled"`
	// metrics
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`
	// record store
	Store          string `toml:"store"`
	PostgresHost   string `toml:"postgres_host"`
	PostgresPort   string `toml:"postgres_port"`
	PostgresDBName string `toml:"postgres_db_name"`
	PostgresUser   string `toml:"postgres_user"`
	SQLitePath     string `toml:"sqlite_path"`
	Table          string `toml:"table"`
	// TenantField overrides the schema's team column
	TenantField string `toml:"tenant_field"`
	// deployment schema, empty means the embedded default
	SchemaPath          string `toml:"schema_path"`
	InjuryLocationField string `toml:"injury_location_field"`
	YearField           string `toml:"year_field"`
	SubPeriodField      string `toml:"sub_period_field"`
	// caching
	CacheTTL         Duration `toml:"cache_ttl"`
	ChartCacheSizeMB int      `toml:"chart_cache_size_mb"`
	RedisEnabled     bool     `toml:"redis_enabled"`
	RedisHost        string   `toml:"redis_host"`
	RedisPort        string   `toml:"redis_port"`
	RateLimitPerMin  int      `toml:"rate_limit_per_min"`
	AllowedOrigins   []string `toml:"allowed_origins"`
}

// Duration is a time.Duration read from a TOML string like "5m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", text, err)
	}
	d.Duration = parsed
	return nil
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return t.Development, nil
	case "prod", "production":
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

// Load reads the TOML file at path and returns the section for env.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}

	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("config for env [%s] not found in %s", env, path)
	}

	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) setDefaults() {
	if c.Store == "" {
		c.Store = StorePostgREST
	}
	if c.Table == "" {
		c.Table = "condition"
	}
	if c.CacheTTL.Duration <= 0 {
		c.CacheTTL.Duration = 5 * time.Minute
	}
	if c.ChartCacheSizeMB <= 0 {
		c.ChartCacheSizeMB = 32
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 {
		errs = append(errs, fmt.Errorf("invalid port: %d", c.Port))
	}
	switch c.Store {
	case StorePostgres:
		if c.PostgresHost == "" || c.PostgresDBName == "" {
			errs = append(errs, errors.New("postgres store needs postgres_host and postgres_db_name"))
		}
	case StoreSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("sqlite store needs sqlite_path"))
		} else if ok, _ := pkg.PathExists(filepath.Dir(c.SQLitePath), true); !ok {
			errs = append(errs, fmt.Errorf("sqlite dir not found: %s", filepath.Dir(c.SQLitePath)))
		}
	case StorePostgREST:
	default:
		errs = append(errs, fmt.Errorf("unknown store: %s", c.Store))
	}
	if c.SchemaPath != "" {
		if ok, _ := pkg.PathExists(c.SchemaPath, false); !ok {
			errs = append(errs, fmt.Errorf("schema file not found: %s", c.SchemaPath))
		}
	}
	if c.RedisEnabled && c.RedisHost == "" {
		errs = append(errs, errors.New("redis enabled without redis_host"))
	}
	return multierr.Combine(errs...)
}

// Secrets are read from the environment, never from the config file.
type Secrets struct {
	SupabaseURL     string `env:"SUPABASE_URL"`
	SupabaseKey     string `env:"SUPABASE_KEY"`
	SupabaseTable   string `env:"SUPABASE_TABLE"`
	FixedTeam       string `env:"FIXED_TEAM, default=kyosera"`
	RedisPassword   string `env:"TEAMCONDITION_REDIS_PASS"`
	PostgresPass    string `env:"TEAMCONDITION_POSTGRES_PASS"`
	ViewerTokenHash string `env:"TEAMCONDITION_VIEWER_TOKEN_HASH"`
	SentryDSN       string `env:"SENTRY_DSN"`
	HoneycombOn     bool   `env:"HONEYCOMB_ENABLED, default=false"`
}

func LoadSecrets(ctx context.Context) (*Secrets, error) {
	return loadSecrets(ctx, envconfig.OsLookuper())
}

func loadSecrets(ctx context.Context, lookuper envconfig.Lookuper) (*Secrets, error) {
	var s Secrets
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &s,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("process env secrets: %w", err)
	}
	return &s, nil
}

// MissingFor lists the secrets the configured store cannot run without.
func (s *Secrets) MissingFor(cfg *Config) []string {
	var missing []string
	if cfg.Store == StorePostgREST {
		if s.SupabaseURL == "" {
			missing = append(missing, "SUPABASE_URL")
		}
		if s.SupabaseKey == "" {
			missing = append(missing, "SUPABASE_KEY")
		}
	}
	return missing
}
