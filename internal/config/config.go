// Package config loads and validates solvy's runtime configuration.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// a .env file, then environment variables. The merged result is validated
// before anything else is constructed from it.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// FileName is the default config file name inside the data directory.
	FileName = "solvy.yaml"
	// EnvPrefix prefixes every solvy-specific environment override.
	EnvPrefix = "SOLVY_"
)

// Config is the root configuration.
type Config struct {
	LLM       LLMConfig       `yaml:"llm" validate:"required"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Memory    MemoryConfig    `yaml:"memory" validate:"required"`
	Solver    SolverConfig    `yaml:"solver" validate:"required"`
	Sandbox   SandboxConfig   `yaml:"sandbox"`
	Knowledge KnowledgeConfig `yaml:"knowledge"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// LLMConfig selects and tunes the generative model.
type LLMConfig struct {
	Provider    string  `yaml:"provider" validate:"required,oneof=gemini openai"`
	Model       string  `yaml:"model" validate:"required"`
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url" validate:"omitempty,url"`
	Temperature float32 `yaml:"temperature" validate:"gte=0,lte=2"`
	RPS         float64 `yaml:"rps" validate:"gte=0"`
	Burst       int     `yaml:"burst" validate:"gte=0"`
	Retries     int     `yaml:"retries" validate:"gte=1,lte=10"`
}

// EmbeddingConfig selects the embedder used to rerank memory candidates.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider" validate:"omitempty,oneof=none gemini openai"`
	Model     string `yaml:"model"`
	CacheSize int    `yaml:"cache_size" validate:"gte=0"`
}

// MemoryConfig mirrors memory.Config.
type MemoryConfig struct {
	DataDir          string `yaml:"data_dir" validate:"required"`
	MaxContentLength int    `yaml:"max_content_length" validate:"gt=0"`
	MaxSearchResults int    `yaml:"max_search_results" validate:"gt=0"`
	CandidatePool    int    `yaml:"candidate_pool" validate:"gt=0"`
}

// SolverConfig bounds the solving loop.
type SolverConfig struct {
	MaxAttempts     int  `yaml:"max_attempts" validate:"gte=1"`
	RecallK         int  `yaml:"recall_k" validate:"gte=1"`
	ResourceK       int  `yaml:"resource_k" validate:"gte=1"`
	ResourceWorkers int  `yaml:"resource_workers" validate:"gte=1"`
	NoExternal      bool `yaml:"no_external"`
}

// SandboxConfig bounds code-test execution.
type SandboxConfig struct {
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`
}

// KnowledgeConfig selects the external knowledge source.
type KnowledgeConfig struct {
	Provider string        `yaml:"provider" validate:"omitempty,oneof=wikipedia generative"`
	Endpoint string        `yaml:"endpoint" validate:"omitempty,url"`
	Timeout  time.Duration `yaml:"timeout" validate:"gte=0"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level    string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Encoding string `yaml:"encoding" validate:"omitempty,oneof=json console"`
	Output   string `yaml:"output"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		LLM: LLMConfig{
			Provider:    "gemini",
			Model:       "gemini-2.5-flash",
			Temperature: 0.2,
			Retries:     3,
		},
		Embedding: EmbeddingConfig{
			Provider:  "none",
			CacheSize: 512,
		},
		Memory: MemoryConfig{
			DataDir:          filepath.Join(home, ".solvy"),
			MaxContentLength: 20000,
			MaxSearchResults: 20,
			CandidatePool:    25,
		},
		Solver: SolverConfig{
			MaxAttempts:     2,
			RecallK:         3,
			ResourceK:       3,
			ResourceWorkers: 4,
		},
		Sandbox: SandboxConfig{Timeout: 15 * time.Second},
		Knowledge: KnowledgeConfig{
			Provider: "wikipedia",
			Endpoint: "https://en.wikipedia.org/w/api.php",
			Timeout:  20 * time.Second,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "console",
			Output:   "stderr",
		},
	}
}

// Path returns the default config file path under dataDir.
func Path(dataDir string) string {
	return filepath.Join(dataDir, FileName)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load builds the configuration. path may be empty, in which case only
// defaults, .env and the environment are consulted. A missing file at a
// non-empty path is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: loading .env: %w", err)
	}
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks struct constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: invalid: %w", err)
	}
	return nil
}

// Save writes c as YAML, creating parent directories.
func Save(path string, c *Config) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshaling: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: creating directory: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// applyEnv overlays environment variables. Provider API keys fall back to
// their conventional names when no solvy-specific key is set.
func applyEnv(c *Config) error {
	str := func(key string, dst *string) {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			*dst = v
		}
	}
	str("LLM_PROVIDER", &c.LLM.Provider)
	str("LLM_MODEL", &c.LLM.Model)
	str("LLM_API_KEY", &c.LLM.APIKey)
	str("LLM_BASE_URL", &c.LLM.BaseURL)
	str("EMBEDDING_PROVIDER", &c.Embedding.Provider)
	str("EMBEDDING_MODEL", &c.Embedding.Model)
	str("DATA_DIR", &c.Memory.DataDir)
	str("KNOWLEDGE_PROVIDER", &c.Knowledge.Provider)
	str("KNOWLEDGE_ENDPOINT", &c.Knowledge.Endpoint)
	str("LOG_LEVEL", &c.Logging.Level)
	str("LOG_ENCODING", &c.Logging.Encoding)
	str("METRICS_ADDR", &c.Metrics.Addr)

	if v := os.Getenv(EnvPrefix + "MAX_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %sMAX_ATTEMPTS: %w", EnvPrefix, err)
		}
		c.Solver.MaxAttempts = n
	}
	if v := os.Getenv(EnvPrefix + "LLM_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("config: %sLLM_RPS: %w", EnvPrefix, err)
		}
		c.LLM.RPS = f
	}
	if v := os.Getenv(EnvPrefix + "SANDBOX_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: %sSANDBOX_TIMEOUT: %w", EnvPrefix, err)
		}
		c.Sandbox.Timeout = d
	}
	if v := os.Getenv(EnvPrefix + "NO_EXTERNAL"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: %sNO_EXTERNAL: %w", EnvPrefix, err)
		}
		c.Solver.NoExternal = b
	}

	if c.LLM.APIKey == "" {
		switch c.LLM.Provider {
		case "gemini":
			c.LLM.APIKey = firstEnv("GEMINI_API_KEY", "GOOGLE_API_KEY")
		case "openai":
			c.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}
	return nil
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
