package config

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"

	"github.com/ekaya-inc/ekaya-profiler/pkg/apperrors"
)

// DefaultRedaction is the replacement used by mask rules without an explicit replace.
const DefaultRedaction = "[REDACTED]"

// Config holds all configuration for a profiling run.
// Configuration comes from a YAML file (config.yaml by default) with environment
// variable overrides for connection details, LLM provider settings and logging.
// Secrets (API keys) must only come from environment variables.
//
// Defaults are set in Go before the file is read (see Default) rather than with
// env-default tags, so an explicit false or 0 in YAML is kept.
type Config struct {
	Version string `yaml:"-"` // Set at load time, not from config

	Connection ConnectionConfig `yaml:"connection"`
	Sampling   SamplingConfig   `yaml:"sampling"`
	Mask       MaskConfig       `yaml:"mask"`
	LLM        LLMConfig        `yaml:"llm"`
	Output     OutputConfig     `yaml:"output"`
	Profiling  ProfilingConfig  `yaml:"profiling"`

	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT"`
}

// ConnectionConfig identifies the database to profile.
type ConnectionConfig struct {
	// URL selects the adapter by scheme: postgres://, sqlserver://, sqlite:///file.db
	URL string `yaml:"url" env:"DATABASE_URL"`
	// Schema limits discovery to one schema. Empty means the adapter default
	// (public for PostgreSQL, dbo for SQL Server). Ignored by SQLite.
	Schema string `yaml:"schema" env:"DATABASE_SCHEMA"`
}

// SamplingConfig controls the per-column statistic battery.
// MaxDistinctForTopK and TopK have no defaults: a missing value is a configuration error.
type SamplingConfig struct {
	MaxRowsPerTable    int  `yaml:"max_rows_per_table"`
	MaxDistinctForTopK *int `yaml:"max_distinct_for_topk"`
	TopK               *int `yaml:"topk"`
	InferTextLengths   bool `yaml:"infer_text_lengths"`
}

// MaskConfig lists the columns to redact and the regex rules applied to everything else.
type MaskConfig struct {
	Columns []string   `yaml:"columns"`
	Rules   []MaskRule `yaml:"rules"`
}

// MaskRule is a regex substitution applied to every non-blocked value.
type MaskRule struct {
	Pattern string     `yaml:"pattern"`
	Flags   RegexFlags `yaml:"flags"`
	Replace *string    `yaml:"replace"`
}

// Replacement returns the configured replacement or DefaultRedaction.
func (r MaskRule) Replacement() string {
	if r.Replace == nil {
		return DefaultRedaction
	}
	return *r.Replace
}

// RegexFlags accepts either a single flag string ("IGNORECASE", "I|M")
// or a YAML list of flag names.
type RegexFlags []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (f *RegexFlags) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var raw string
		if err := node.Decode(&raw); err != nil {
			return err
		}
		*f = splitFlags(raw)
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		var out RegexFlags
		for _, item := range list {
			out = append(out, splitFlags(item)...)
		}
		*f = out
		return nil
	default:
		return fmt.Errorf("flags must be a string or a list of strings (line %d)", node.Line)
	}
}

func splitFlags(raw string) RegexFlags {
	var out RegexFlags
	for _, part := range strings.FieldsFunc(raw, func(r rune) bool { return r == '|' || r == ',' || r == ' ' }) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// LLMConfig configures the report generator.
type LLMConfig struct {
	Provider    string        `yaml:"provider" env:"LLM_PROVIDER"`
	Model       string        `yaml:"model" env:"LLM_MODEL"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	SendSamples bool          `yaml:"send_samples"`
	BaseURL     string        `yaml:"base_url" env:"OPENAI_BASE"`
	Timeout     time.Duration `yaml:"timeout"`

	OpenAIAPIKey    string `yaml:"-" env:"OPENAI_API_KEY"`    // Secret - not in YAML
	AnthropicAPIKey string `yaml:"-" env:"ANTHROPIC_API_KEY"` // Secret - not in YAML
}

// APIKey returns the key for the configured provider.
func (c *LLMConfig) APIKey() string {
	if c.Provider == ProviderAnthropic {
		return c.AnthropicAPIKey
	}
	return c.OpenAIAPIKey
}

// OutputConfig controls where run artifacts are written.
type OutputConfig struct {
	Dir         string `yaml:"dir" env:"OUTPUT_DIR"`
	MetricsFile string `yaml:"metrics_file"`
}

// ProfilingConfig controls execution of the profiling run.
type ProfilingConfig struct {
	QueryTimeout         time.Duration `yaml:"query_timeout"`
	Parallelism          int           `yaml:"parallelism"`
	IsolateTableFailures bool          `yaml:"isolate_table_failures"`
	ExcludeTables        []string      `yaml:"exclude_tables"`
}

// Supported LLM providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Default returns a Config populated with every default value.
func Default() *Config {
	return &Config{
		Sampling: SamplingConfig{
			MaxRowsPerTable:  100,
			InferTextLengths: true,
		},
		LLM: LLMConfig{
			Provider:    ProviderOpenAI,
			Model:       "gpt-4o-mini",
			Temperature: 0.2,
			MaxTokens:   2000,
			SendSamples: true,
			Timeout:     120 * time.Second,
		},
		Output: OutputConfig{
			Dir: "out",
		},
		Profiling: ProfilingConfig{
			QueryTimeout: 30 * time.Second,
			Parallelism:  1,
		},
		LogLevel:  "info",
		LogFormat: "console",
	}
}

// Option adjusts a loaded config before validation (command-line overrides).
type Option func(*Config)

// WithConnectionURL overrides connection.url when url is non-empty.
func WithConnectionURL(url string) Option {
	return func(c *Config) {
		if url != "" {
			c.Connection.URL = url
		}
	}
}

// Load reads configuration from path with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
// Options are applied after the file and environment, so they win over both.
// The returned config has been validated; failures are *apperrors.ConfigurationError.
func Load(path, version string, opts ...Option) (*Config, error) {
	cfg := Default()
	cfg.Version = version

	if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, apperrors.NewConfigurationError("file", fmt.Sprintf("failed to read %s", path), err)
	}

	for _, opt := range opts {
		opt(cfg)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// normalize cleans up values that may arrive with stray formatting.
func (c *Config) normalize() {
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	c.Connection.URL = strings.TrimSpace(c.Connection.URL)
}

// Validate checks every setting that must be correct before profiling begins.
// Mask rule patterns are compiled by the masking package, which reports its
// own ConfigurationError; here only the rule shape is checked.
func (c *Config) Validate() error {
	if c.Connection.URL == "" {
		return apperrors.NewConfigurationError("connection.url", "database connection target is required (config, DATABASE_URL or --url)", nil)
	}

	if c.Sampling.MaxRowsPerTable < 0 {
		return apperrors.NewConfigurationError("sampling.max_rows_per_table", "must not be negative", nil)
	}
	if c.Sampling.MaxDistinctForTopK == nil {
		return apperrors.NewConfigurationError("sampling.max_distinct_for_topk", "is required", nil)
	}
	if *c.Sampling.MaxDistinctForTopK < 0 {
		return apperrors.NewConfigurationError("sampling.max_distinct_for_topk", "must not be negative", nil)
	}
	if c.Sampling.TopK == nil {
		return apperrors.NewConfigurationError("sampling.topk", "is required", nil)
	}
	if *c.Sampling.TopK < 1 {
		return apperrors.NewConfigurationError("sampling.topk", "must be at least 1", nil)
	}

	for i, rule := range c.Mask.Rules {
		if rule.Pattern == "" {
			return apperrors.NewConfigurationError(fmt.Sprintf("mask.rules[%d].pattern", i), "is required", nil)
		}
	}

	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderAnthropic:
	default:
		return apperrors.NewConfigurationError("llm.provider", fmt.Sprintf("unsupported provider %q (expected %q or %q)", c.LLM.Provider, ProviderOpenAI, ProviderAnthropic), nil)
	}
	if c.LLM.MaxTokens < 1 {
		return apperrors.NewConfigurationError("llm.max_tokens", "must be at least 1", nil)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return apperrors.NewConfigurationError("llm.temperature", "must be between 0 and 2", nil)
	}

	if c.Profiling.QueryTimeout <= 0 {
		return apperrors.NewConfigurationError("profiling.query_timeout", "must be positive", nil)
	}
	if c.Profiling.Parallelism < 1 {
		return apperrors.NewConfigurationError("profiling.parallelism", "must be at least 1", nil)
	}
	for i, pattern := range c.Profiling.ExcludeTables {
		if _, err := path.Match(pattern, ""); err != nil {
			return apperrors.NewConfigurationError(fmt.Sprintf("profiling.exclude_tables[%d]", i), "malformed glob pattern", err)
		}
	}

	switch c.LogFormat {
	case "console", "json":
	default:
		return apperrors.NewConfigurationError("log_format", fmt.Sprintf("unsupported format %q (expected console or json)", c.LogFormat), nil)
	}

	return nil
}

// MaxDistinctForTopKValue returns the validated top-k ceiling.
func (s *SamplingConfig) MaxDistinctForTopKValue() int {
	if s.MaxDistinctForTopK == nil {
		return 0
	}
	return *s.MaxDistinctForTopK
}

// TopKValue returns the validated top-k row count.
func (s *SamplingConfig) TopKValue() int {
	if s.TopK == nil {
		return 0
	}
	return *s.TopK
}
