// Package config loads runtime configuration from defaults, an optional
// config file, and FINDATA_-prefixed environment variables.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type Config struct {
	Store    StoreConfig    `mapstructure:"store"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Verify   VerifyConfig   `mapstructure:"verify"`
	Source   SourceConfig   `mapstructure:"source"`
	Concepts ConceptsConfig `mapstructure:"concepts"`
	Serve    ServeConfig    `mapstructure:"serve"`
}

type StoreConfig struct {
	// Driver selects the cache backend: sqlite or postgres.
	Driver string `mapstructure:"driver"`
	// Path is the sqlite database file.
	Path string `mapstructure:"path"`
	// DSN is the postgres connection string.
	DSN string `mapstructure:"dsn"`
}

type CacheConfig struct {
	MaxAgeDays int `mapstructure:"max_age_days"`
	Periods    int `mapstructure:"periods"`
}

type VerifyConfig struct {
	TolerancePct float64 `mapstructure:"tolerance_pct"`
}

type SourceConfig struct {
	UserAgent   string  `mapstructure:"user_agent"`
	RatePerSec  float64 `mapstructure:"rate_per_sec"`
	Burst       int     `mapstructure:"burst"`
	MaxRetries  int     `mapstructure:"max_retries"`
	TimeoutSecs int     `mapstructure:"timeout_secs"`
	BaseURL     string  `mapstructure:"base_url"`
	FilesURL    string  `mapstructure:"files_url"`
}

type ConceptsConfig struct {
	// Overrides points at a YAML file of extra concept tag aliases.
	Overrides string `mapstructure:"overrides"`
}

type ServeConfig struct {
	Addr string `mapstructure:"addr"`
}

func (c CacheConfig) MaxAge() time.Duration {
	return time.Duration(c.MaxAgeDays) * 24 * time.Hour
}

func (c SourceConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// Load reads configuration. cfgFile may be empty, in which case only
// defaults and environment variables apply. Environment variables use
// the FINDATA prefix with underscores, e.g. FINDATA_STORE_DRIVER.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FINDATA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "findata.db")
	v.SetDefault("store.dsn", "")
	v.SetDefault("cache.max_age_days", 7)
	v.SetDefault("cache.periods", 4)
	v.SetDefault("verify.tolerance_pct", 0.1)
	v.SetDefault("source.user_agent", "findata-cli/1.0")
	v.SetDefault("source.rate_per_sec", 10.0)
	v.SetDefault("source.burst", 2)
	v.SetDefault("source.max_retries", 3)
	v.SetDefault("source.timeout_secs", 30)
	v.SetDefault("source.base_url", "https://data.sec.gov")
	v.SetDefault("source.files_url", "https://www.sec.gov")
	v.SetDefault("concepts.overrides", "")
	v.SetDefault("serve.addr", ":8080")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, eris.Wrapf(err, "reading config file %s", cfgFile)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "unmarshaling config")
	}
	if cfg.Store.Driver != "sqlite" && cfg.Store.Driver != "postgres" {
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if cfg.Store.Driver == "postgres" && cfg.Store.DSN == "" {
		return nil, eris.New("store.dsn is required for the postgres driver")
	}
	return &cfg, nil
}

// InitLogger installs the global zap logger. Debug mode switches to the
// development encoder with debug-level output.
func InitLogger(debug bool) error {
	var (
		logger *zap.Logger
		err    error
	)
	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return eris.Wrap(err, "building logger")
	}
	zap.ReplaceGlobals(logger)
	return nil
}
