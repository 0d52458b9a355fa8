package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ekaya-inc/ekaya-profiler/pkg/apperrors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"DATABASE_URL", "DATABASE_SCHEMA", "LLM_PROVIDER", "LLM_MODEL", "OPENAI_BASE", "OUTPUT_DIR", "LOG_LEVEL", "LOG_FORMAT"} {
		if v, ok := os.LookupEnv(key); ok {
			os.Unsetenv(key)
			t.Cleanup(func() { os.Setenv(key, v) })
		}
	}
}

const minimalYAML = `
connection:
  url: "sqlite:///demo.sqlite"
sampling:
  max_distinct_for_topk: 50
  topk: 10
`

func TestLoad_Defaults(t *testing.T) {
	clearConfigEnv(t)
	cfg, err := Load(writeConfig(t, minimalYAML), "test-version")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Version != "test-version" {
		t.Errorf("expected Version=test-version, got %s", cfg.Version)
	}
	if cfg.Sampling.MaxRowsPerTable != 100 {
		t.Errorf("expected MaxRowsPerTable=100, got %d", cfg.Sampling.MaxRowsPerTable)
	}
	if !cfg.Sampling.InferTextLengths {
		t.Error("expected InferTextLengths to default to true")
	}
	if cfg.Sampling.MaxDistinctForTopKValue() != 50 || cfg.Sampling.TopKValue() != 10 {
		t.Errorf("unexpected top-k settings: %d / %d", cfg.Sampling.MaxDistinctForTopKValue(), cfg.Sampling.TopKValue())
	}
	if cfg.LLM.Provider != ProviderOpenAI || cfg.LLM.Model != "gpt-4o-mini" {
		t.Errorf("unexpected llm defaults: %s/%s", cfg.LLM.Provider, cfg.LLM.Model)
	}
	if cfg.LLM.Temperature != 0.2 || cfg.LLM.MaxTokens != 2000 || !cfg.LLM.SendSamples {
		t.Errorf("unexpected llm defaults: %+v", cfg.LLM)
	}
	if cfg.Profiling.QueryTimeout != 30*time.Second || cfg.Profiling.Parallelism != 1 {
		t.Errorf("unexpected profiling defaults: %+v", cfg.Profiling)
	}
	if cfg.Output.Dir != "out" {
		t.Errorf("expected Output.Dir=out, got %s", cfg.Output.Dir)
	}
}

func TestLoad_ExplicitFalseSurvivesDefaults(t *testing.T) {
	clearConfigEnv(t)
	cfg, err := Load(writeConfig(t, minimalYAML+`  infer_text_lengths: false
llm:
  send_samples: false
  temperature: 0
`), "dev")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Sampling.InferTextLengths {
		t.Error("expected infer_text_lengths=false from YAML to be kept")
	}
	if cfg.LLM.SendSamples {
		t.Error("expected send_samples=false from YAML to be kept")
	}
	if cfg.LLM.Temperature != 0 {
		t.Errorf("expected temperature=0 from YAML to be kept, got %v", cfg.LLM.Temperature)
	}
}

func TestLoad_EnvAndOptionOverrides(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("DATABASE_URL", "postgres://env@localhost/envdb")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("LLM_PROVIDER", "Anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "ak-test")

	path := writeConfig(t, minimalYAML)

	cfg, err := Load(path, "dev")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Connection.URL != "postgres://env@localhost/envdb" {
		t.Errorf("expected DATABASE_URL to override yaml, got %s", cfg.Connection.URL)
	}
	if cfg.LLM.Provider != ProviderAnthropic {
		t.Errorf("expected provider normalized to anthropic, got %s", cfg.LLM.Provider)
	}
	if cfg.LLM.APIKey() != "ak-test" {
		t.Errorf("expected anthropic key, got %s", cfg.LLM.APIKey())
	}

	cfg, err = Load(path, "dev", WithConnectionURL("sqlite:///cli.sqlite"))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Connection.URL != "sqlite:///cli.sqlite" {
		t.Errorf("expected --url to win over env, got %s", cfg.Connection.URL)
	}
}

func TestLoad_MaskRules(t *testing.T) {
	clearConfigEnv(t)
	cfg, err := Load(writeConfig(t, minimalYAML+`
mask:
  columns: [email, Phone]
  rules:
    - pattern: "\\d{3}-\\d{4}"
      flags: IGNORECASE
      replace: "[PHONE]"
    - pattern: "secret"
      flags: [I, M]
    - pattern: "x"
      flags: "I|S"
`), "dev")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if len(cfg.Mask.Columns) != 2 || cfg.Mask.Columns[1] != "Phone" {
		t.Errorf("unexpected mask columns: %v", cfg.Mask.Columns)
	}
	if len(cfg.Mask.Rules) != 3 {
		t.Fatalf("expected 3 rules, got %d", len(cfg.Mask.Rules))
	}
	if got := cfg.Mask.Rules[0].Replacement(); got != "[PHONE]" {
		t.Errorf("expected [PHONE], got %s", got)
	}
	if got := cfg.Mask.Rules[1].Replacement(); got != DefaultRedaction {
		t.Errorf("expected default replacement, got %s", got)
	}
	if len(cfg.Mask.Rules[1].Flags) != 2 || len(cfg.Mask.Rules[2].Flags) != 2 {
		t.Errorf("unexpected flags: %v / %v", cfg.Mask.Rules[1].Flags, cfg.Mask.Rules[2].Flags)
	}
}

func TestLoad_EmptyReplaceIsKept(t *testing.T) {
	clearConfigEnv(t)
	cfg, err := Load(writeConfig(t, minimalYAML+`
mask:
  rules:
    - pattern: "drop-me"
      replace: ""
`), "dev")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if got := cfg.Mask.Rules[0].Replacement(); got != "" {
		t.Errorf("expected explicit empty replacement, got %q", got)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), "dev")
	if !errors.Is(err, apperrors.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	intPtr := func(v int) *int { return &v }

	tests := []struct {
		name    string
		mutate  func(c *Config)
		setting string
	}{
		{"missing url", func(c *Config) { c.Connection.URL = "" }, "connection.url"},
		{"missing max distinct", func(c *Config) { c.Sampling.MaxDistinctForTopK = nil }, "sampling.max_distinct_for_topk"},
		{"negative max distinct", func(c *Config) { c.Sampling.MaxDistinctForTopK = intPtr(-1) }, "sampling.max_distinct_for_topk"},
		{"missing topk", func(c *Config) { c.Sampling.TopK = nil }, "sampling.topk"},
		{"zero topk", func(c *Config) { c.Sampling.TopK = intPtr(0) }, "sampling.topk"},
		{"negative max rows", func(c *Config) { c.Sampling.MaxRowsPerTable = -5 }, "sampling.max_rows_per_table"},
		{"empty rule pattern", func(c *Config) { c.Mask.Rules = []MaskRule{{Pattern: ""}} }, "mask.rules[0].pattern"},
		{"unknown provider", func(c *Config) { c.LLM.Provider = "cohere" }, "llm.provider"},
		{"zero max tokens", func(c *Config) { c.LLM.MaxTokens = 0 }, "llm.max_tokens"},
		{"temperature too high", func(c *Config) { c.LLM.Temperature = 3 }, "llm.temperature"},
		{"zero query timeout", func(c *Config) { c.Profiling.QueryTimeout = 0 }, "profiling.query_timeout"},
		{"zero parallelism", func(c *Config) { c.Profiling.Parallelism = 0 }, "profiling.parallelism"},
		{"bad exclude glob", func(c *Config) { c.Profiling.ExcludeTables = []string{"audit_*", "[x"} }, "profiling.exclude_tables[1]"},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, "log_format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Connection.URL = "sqlite:///demo.sqlite"
			cfg.Sampling.MaxDistinctForTopK = intPtr(50)
			cfg.Sampling.TopK = intPtr(10)
			if err := cfg.Validate(); err != nil {
				t.Fatalf("baseline config should be valid: %v", err)
			}

			tt.mutate(cfg)
			err := cfg.Validate()

			var cfgErr *apperrors.ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigurationError, got %v", err)
			}
			if cfgErr.Setting != tt.setting {
				t.Errorf("expected setting %s, got %s", tt.setting, cfgErr.Setting)
			}
		})
	}
}
