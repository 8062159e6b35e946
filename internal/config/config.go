// Package config loads the adaptive translation service's configuration
// using spf13/viper, the teacher's own configuration library (see
// cmd/root.go's initConfig). Unlike the teacher's global viper instance
// bound to CLI flags, this package owns a private viper.Viper so the
// HTTP service and tests can load independent configurations side by
// side.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

// BackendConfig declares one backend the registry should know about
// (spec §6 "backends: list of {id, family, artifact_ref, load_params}").
type BackendConfig struct {
	ID                 string   `mapstructure:"id"`
	Family             string   `mapstructure:"family"`   // "specialized" | "generative"
	Provider           string   `mapstructure:"provider"` // google|mymemory|ollama|openrouter|ibm|amazon|systran|doclingo
	ArtifactRef        string   `mapstructure:"artifact_ref"`
	NativeCodeScheme   string   `mapstructure:"native_code_scheme"`
	MemoryClass        string   `mapstructure:"memory_class"`
	ContextLimitTokens int      `mapstructure:"context_limit_tokens"`
	SupportedLanguages []string `mapstructure:"supported_languages"`

	Credentials string   `mapstructure:"credentials"`
	ProjectID   string   `mapstructure:"project_id"`
	APIKey      string   `mapstructure:"api_key"`
	BaseURL     string   `mapstructure:"base_url"`
	Email       string   `mapstructure:"email"`
	Models      []string `mapstructure:"models"`
}

// ConcurrencyConfig is spec §6's concurrency.* block.
type ConcurrencyConfig struct {
	MaxInflight int `mapstructure:"max_inflight"`
}

// RequestConfig is spec §6's request.* block.
type RequestConfig struct {
	OverallDeadlineS float64 `mapstructure:"overall_deadline_s"`
	HardTextCap      int     `mapstructure:"hard_text_cap"`
}

// ChunkerConfig is spec §6's chunker.* block. ContentClassRules is frozen
// per spec ("chunker.content_class_rules (frozen)") so it is not
// user-configurable; it is named here only so the key round-trips
// through a config file without an "unknown key" failure.
type ChunkerConfig struct {
	DefaultMaxChunkSize int                    `mapstructure:"default_max_chunk_size"`
	ContentClassRules   map[string]interface{} `mapstructure:"content_class_rules"`
}

// OptimizerConfig is spec §6's optimizer.* block.
type OptimizerConfig struct {
	MinSize          int     `mapstructure:"min_size"`
	MaxSize          int     `mapstructure:"max_size"`
	MaxIterations    int     `mapstructure:"max_iterations"`
	QualityThreshold float64 `mapstructure:"quality_threshold"`
	TimeBudgetS      float64 `mapstructure:"time_budget_s"`
}

// CacheConfig is spec §6's cache.* block.
type CacheConfig struct {
	SizeTTLDays   int     `mapstructure:"size_ttl_days"`
	ResultTTLS    float64 `mapstructure:"result_ttl_s"`
	ResultEnabled bool    `mapstructure:"result_enabled"`
	MaxEntries    int     `mapstructure:"max_entries"`
	DBPath        string  `mapstructure:"db_path"`
}

// RegistryLoadBackoffConfig is spec §6's registry.load_backoff block.
type RegistryLoadBackoffConfig struct {
	BaseS  float64 `mapstructure:"base_s"`
	Factor float64 `mapstructure:"factor"`
	MaxS   float64 `mapstructure:"max_s"`
}

// RegistryConfig is spec §6's registry.* block.
type RegistryConfig struct {
	LoadBackoff    RegistryLoadBackoffConfig `mapstructure:"load_backoff"`
	DrainGraceS    float64                   `mapstructure:"drain_grace_s"`
	MemoryBudgetMB int                       `mapstructure:"memory_budget_mb"`
}

// AuthConfig controls the HTTP boundary's opaque-identity and JWT
// handling (not part of the core per spec §6, consumed by internal/auth).
type AuthConfig struct {
	JWTSecret      string  `mapstructure:"jwt_secret"`
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// ServerConfig controls the gin HTTP listener.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// Config is the full configuration surface enumerated in spec.md §6.
type Config struct {
	Backends       []BackendConfig   `mapstructure:"backends"`
	DefaultBackend string            `mapstructure:"default_backend"`
	Concurrency    ConcurrencyConfig `mapstructure:"concurrency"`
	Request        RequestConfig     `mapstructure:"request"`
	Chunker        ChunkerConfig     `mapstructure:"chunker"`
	Optimizer      OptimizerConfig   `mapstructure:"optimizer"`
	Cache          CacheConfig       `mapstructure:"cache"`
	Registry       RegistryConfig    `mapstructure:"registry"`
	Auth           AuthConfig        `mapstructure:"auth"`
	Server         ServerConfig      `mapstructure:"server"`
}

// EnvPrefix matches the teacher's .peretran.yaml / PERETRAN_* convention
// (cmd/root.go uses ".peretran" as the config file base name).
const EnvPrefix = "PERETRAN"

// Load reads configuration from path (if non-empty), ".peretran.yaml" in
// the working directory and $HOME otherwise, and PERETRAN_*-prefixed
// environment variables, in viper's usual precedence order
// (defaults < config file < env). Defaults match spec.md §6.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(".peretran")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}

	if err := v.ReadInConfig(); err != nil {
		// A missing config file, searched or explicit, falls back to
		// defaults; any other read failure (unreadable, malformed YAML)
		// aborts startup.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("concurrency.max_inflight", 5)
	v.SetDefault("request.overall_deadline_s", 120)
	v.SetDefault("request.hard_text_cap", 10_000)
	v.SetDefault("chunker.default_max_chunk_size", 500)
	v.SetDefault("optimizer.min_size", 50)
	v.SetDefault("optimizer.max_size", 2000)
	v.SetDefault("optimizer.max_iterations", 8)
	v.SetDefault("optimizer.quality_threshold", 0.85)
	v.SetDefault("optimizer.time_budget_s", 5)
	v.SetDefault("cache.size_ttl_days", 7)
	v.SetDefault("cache.result_ttl_s", 0)
	v.SetDefault("cache.result_enabled", false)
	v.SetDefault("cache.max_entries", 100_000)
	v.SetDefault("cache.db_path", "./data/peretran.db")
	v.SetDefault("registry.load_backoff.base_s", 1)
	v.SetDefault("registry.load_backoff.factor", 2)
	v.SetDefault("registry.load_backoff.max_s", 300)
	v.SetDefault("registry.drain_grace_s", 30)
	v.SetDefault("registry.memory_budget_mb", 24576)
	v.SetDefault("auth.rate_limit_rps", 5)
	v.SetDefault("auth.rate_limit_burst", 10)
	v.SetDefault("server.addr", ":8080")
}
