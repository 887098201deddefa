package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Solver.MaxAttempts != 2 {
		t.Errorf("MaxAttempts = %d, want 2", cfg.Solver.MaxAttempts)
	}
	if cfg.Solver.RecallK != 3 {
		t.Errorf("RecallK = %d, want 3", cfg.Solver.RecallK)
	}
	if cfg.Sandbox.Timeout != 15*time.Second {
		t.Errorf("Sandbox.Timeout = %v, want 15s", cfg.Sandbox.Timeout)
	}
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.Provider != "gemini" {
		t.Errorf("Provider = %s, want gemini", cfg.LLM.Provider)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	yml := `
llm:
  provider: openai
  model: gpt-4o-mini
solver:
  max_attempts: 5
sandbox:
  timeout: 3s
`
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.Provider != "openai" || cfg.LLM.Model != "gpt-4o-mini" {
		t.Errorf("LLM = %+v", cfg.LLM)
	}
	if cfg.Solver.MaxAttempts != 5 {
		t.Errorf("MaxAttempts = %d, want 5", cfg.Solver.MaxAttempts)
	}
	if cfg.Solver.RecallK != 3 {
		t.Errorf("RecallK = %d, want default 3 to survive", cfg.Solver.RecallK)
	}
	if cfg.Sandbox.Timeout != 3*time.Second {
		t.Errorf("Sandbox.Timeout = %v, want 3s", cfg.Sandbox.Timeout)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv(EnvPrefix+"MAX_ATTEMPTS", "4")
	t.Setenv(EnvPrefix+"NO_EXTERNAL", "true")
	t.Setenv(EnvPrefix+"LLM_API_KEY", "secret")
	t.Setenv(EnvPrefix+"SANDBOX_TIMEOUT", "2s")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Solver.MaxAttempts != 4 {
		t.Errorf("MaxAttempts = %d, want 4", cfg.Solver.MaxAttempts)
	}
	if !cfg.Solver.NoExternal {
		t.Error("NoExternal = false, want true")
	}
	if cfg.LLM.APIKey != "secret" {
		t.Errorf("APIKey = %q, want secret", cfg.LLM.APIKey)
	}
	if cfg.Sandbox.Timeout != 2*time.Second {
		t.Errorf("Sandbox.Timeout = %v", cfg.Sandbox.Timeout)
	}
}

func TestLoad_ProviderKeyFallback(t *testing.T) {
	t.Setenv(EnvPrefix+"LLM_PROVIDER", "openai")
	t.Setenv(EnvPrefix+"LLM_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.APIKey != "sk-test" {
		t.Errorf("APIKey = %q, want sk-test", cfg.LLM.APIKey)
	}
}

func TestLoad_BadEnvValue(t *testing.T) {
	t.Setenv(EnvPrefix+"MAX_ATTEMPTS", "many")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for non-numeric MAX_ATTEMPTS")
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown provider", func(c *Config) { c.LLM.Provider = "llama" }},
		{"zero attempts", func(c *Config) { c.Solver.MaxAttempts = 0 }},
		{"zero timeout", func(c *Config) { c.Sandbox.Timeout = 0 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
		{"bad base url", func(c *Config) { c.LLM.BaseURL = "not a url" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.HasPrefix(err.Error(), "config: invalid") {
				t.Errorf("error = %v", err)
			}
		})
	}
}

func TestSave_ThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)
	cfg := Default()
	cfg.Solver.MaxAttempts = 7
	cfg.Sandbox.Timeout = 9 * time.Second

	if err := Save(path, &cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Solver.MaxAttempts != 7 {
		t.Errorf("MaxAttempts = %d, want 7", loaded.Solver.MaxAttempts)
	}
	if loaded.Sandbox.Timeout != 9*time.Second {
		t.Errorf("Sandbox.Timeout = %v, want 9s", loaded.Sandbox.Timeout)
	}
}

func TestPath(t *testing.T) {
	if got := Path("/data"); got != filepath.Join("/data", FileName) {
		t.Errorf("Path = %s", got)
	}
}
