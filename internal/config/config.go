package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port string `mapstructure:"PORT"`
	Env  string `mapstructure:"ENV"`

	// Search service
	ESURL               string  `mapstructure:"ES_URL"`
	ESIndex             string  `mapstructure:"ES_INDEX"`
	MatchFuzziness      string  `mapstructure:"MATCH_FUZZINESS"`
	MatchMinShouldMatch string  `mapstructure:"MATCH_MIN_SHOULD_MATCH"`
	MatchMinScore       float64 `mapstructure:"MATCH_MIN_SCORE"`
	MatchMaxCandidates  int     `mapstructure:"MATCH_MAX_CANDIDATES"`

	// Workflow service
	SearchURL       string `mapstructure:"SEARCH_URL"`
	FHIRStoreURL    string `mapstructure:"FHIR_STORE_URL"`
	SearchTimeoutMS int    `mapstructure:"SEARCH_TIMEOUT_MS"`

	// Name locales read from Patient resources
	PrimaryLocale   string `mapstructure:"PRIMARY_LOCALE"`
	SecondaryLocale string `mapstructure:"SECONDARY_LOCALE"`

	// Run log (in-memory when no database is configured)
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32  `mapstructure:"DB_MIN_CONNS"`

	// Replay cache (disabled when no Redis is configured)
	RedisURL         string `mapstructure:"REDIS_URL"`
	ReplayTTLSeconds int    `mapstructure:"REPLAY_TTL_SECONDS"`

	RateLimitRPS   float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `mapstructure:"RATE_LIMIT_BURST"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "7070")
	v.SetDefault("ENV", "development")
	v.SetDefault("ES_INDEX", "ocrvs")
	v.SetDefault("MATCH_FUZZINESS", "AUTO")
	v.SetDefault("MATCH_MIN_SHOULD_MATCH", "2")
	v.SetDefault("MATCH_MIN_SCORE", 1.0)
	v.SetDefault("MATCH_MAX_CANDIDATES", 5)
	v.SetDefault("SEARCH_TIMEOUT_MS", 10000)
	v.SetDefault("PRIMARY_LOCALE", "en")
	v.SetDefault("SECONDARY_LOCALE", "bn")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("REPLAY_TTL_SECONDS", 3600)
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("ES_URL")
	v.BindEnv("ES_INDEX")
	v.BindEnv("MATCH_FUZZINESS")
	v.BindEnv("MATCH_MIN_SHOULD_MATCH")
	v.BindEnv("MATCH_MIN_SCORE")
	v.BindEnv("MATCH_MAX_CANDIDATES")
	v.BindEnv("SEARCH_URL")
	v.BindEnv("FHIR_STORE_URL")
	v.BindEnv("SEARCH_TIMEOUT_MS")
	v.BindEnv("PRIMARY_LOCALE")
	v.BindEnv("SECONDARY_LOCALE")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("REDIS_URL")
	v.BindEnv("REPLAY_TTL_SECONDS")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// SearchTimeout returns the per-call timeout for the duplicate search.
func (c *Config) SearchTimeout() time.Duration {
	return time.Duration(c.SearchTimeoutMS) * time.Millisecond
}

// ReplayTTL returns how long a transaction's candidate list stays cached.
func (c *Config) ReplayTTL() time.Duration {
	return time.Duration(c.ReplayTTLSeconds) * time.Second
}

// ValidateSearch checks the configuration needed to run the search service.
func (c *Config) ValidateSearch() error {
	if c.ESURL == "" {
		return fmt.Errorf("ES_URL is required for the search service")
	}
	if c.ESIndex == "" {
		return fmt.Errorf("ES_INDEX must not be empty")
	}
	if c.MatchMaxCandidates <= 0 {
		return fmt.Errorf("MATCH_MAX_CANDIDATES must be positive, got %d", c.MatchMaxCandidates)
	}
	return nil
}

// ValidateWorkflow checks the configuration needed to run the workflow
// service.
func (c *Config) ValidateWorkflow() error {
	if c.SearchURL == "" {
		return fmt.Errorf("SEARCH_URL is required for the workflow service")
	}
	if c.FHIRStoreURL == "" {
		return fmt.Errorf("FHIR_STORE_URL is required for the workflow service")
	}
	if c.SearchTimeoutMS <= 0 {
		return fmt.Errorf("SEARCH_TIMEOUT_MS must be positive, got %d", c.SearchTimeoutMS)
	}
	return nil
}
