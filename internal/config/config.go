// Package config loads compass configuration from an optional YAML file and
// COMPASS_-prefixed environment variables, with environment taking
// precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"compass/internal/llm"
)

// LLMConfig selects and tunes the model backend.
type LLMConfig struct {
	Provider string `mapstructure:"provider"`
	Model    string `mapstructure:"model"`
	APIKey   string `mapstructure:"api_key"`
	BaseURL  string `mapstructure:"base_url"`

	// Azure only.
	Deployment string `mapstructure:"deployment"`
	APIVersion string `mapstructure:"api_version"`

	Timeout         time.Duration `mapstructure:"timeout"`
	ThinkingTimeout time.Duration `mapstructure:"thinking_timeout"`
	Thinking        bool          `mapstructure:"thinking"`
	CharsPerToken   float64       `mapstructure:"chars_per_token"`

	// Retries wrap the client when MaxAttempts > 1.
	MaxAttempts int `mapstructure:"max_attempts"`
}

// KnowledgeConfig locates the reference document base and its index.
type KnowledgeConfig struct {
	BaseDir     string `mapstructure:"base_dir"`
	PersistPath string `mapstructure:"persist_path"`
	Collection  string `mapstructure:"collection"`

	WindowTokens  int `mapstructure:"window_tokens"`
	OverlapTokens int `mapstructure:"overlap_tokens"`

	TopK           int `mapstructure:"top_k"`
	MaturityExtras int `mapstructure:"maturity_extras"`

	// Embedding backend; with no API key the deterministic local embedder
	// is used instead.
	EmbeddingModel   string `mapstructure:"embedding_model"`
	EmbeddingAPIKey  string `mapstructure:"embedding_api_key"`
	EmbeddingBaseURL string `mapstructure:"embedding_base_url"`
}

// ChunkingConfig sizes the batched generation calls.
type ChunkingConfig struct {
	TokenBudget  int     `mapstructure:"token_budget"`
	SafetyMargin float64 `mapstructure:"safety_margin"`
	MaxTokens    int     `mapstructure:"max_tokens"`
	FanOut       int     `mapstructure:"fan_out"`
}

// WorkflowConfig controls orchestration behavior.
type WorkflowConfig struct {
	EnableFormatting bool    `mapstructure:"enable_formatting"`
	EnableRevision   bool    `mapstructure:"enable_revision"`
	MaxRevisions     int     `mapstructure:"max_revisions"`
	QualityThreshold float64 `mapstructure:"quality_threshold"`

	OutputDir      string `mapstructure:"output_dir"`
	FrameworksFile string `mapstructure:"frameworks_file"`
}

// Config is the full application configuration.
type Config struct {
	LLM       LLMConfig       `mapstructure:"llm"`
	Knowledge KnowledgeConfig `mapstructure:"knowledge"`
	Chunking  ChunkingConfig  `mapstructure:"chunking"`
	Workflow  WorkflowConfig  `mapstructure:"workflow"`
}

// Load reads configuration. path may be empty, in which case only defaults
// and environment variables apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("COMPASS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.provider", string(llm.ProviderOpenAI))
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.timeout", 2*time.Minute)
	v.SetDefault("llm.thinking_timeout", 10*time.Minute)
	v.SetDefault("llm.max_attempts", 3)

	v.SetDefault("knowledge.base_dir", "knowledge_base")
	v.SetDefault("knowledge.persist_path", ".compass/index")
	v.SetDefault("knowledge.collection", "knowledge")
	v.SetDefault("knowledge.window_tokens", 512)
	v.SetDefault("knowledge.overlap_tokens", 64)
	v.SetDefault("knowledge.top_k", 5)
	v.SetDefault("knowledge.maturity_extras", 2)

	v.SetDefault("chunking.token_budget", 8192)
	v.SetDefault("chunking.safety_margin", 0.25)
	v.SetDefault("chunking.max_tokens", 4096)
	v.SetDefault("chunking.fan_out", 1)

	v.SetDefault("workflow.enable_revision", true)
	v.SetDefault("workflow.max_revisions", 1)
	v.SetDefault("workflow.quality_threshold", 8.0)
	v.SetDefault("workflow.output_dir", "reports")
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	switch llm.ProviderKind(c.LLM.Provider) {
	case llm.ProviderOpenAI, llm.ProviderAnthropic, llm.ProviderAzure:
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model must be set")
	}
	if c.Chunking.TokenBudget <= 0 {
		return fmt.Errorf("chunking.token_budget must be positive")
	}
	if c.Chunking.SafetyMargin < 0 || c.Chunking.SafetyMargin >= 1 {
		return fmt.Errorf("chunking.safety_margin must be in [0, 1)")
	}
	if c.Knowledge.OverlapTokens >= c.Knowledge.WindowTokens {
		return fmt.Errorf("knowledge.overlap_tokens must be smaller than knowledge.window_tokens")
	}
	if c.Workflow.MaxRevisions < 0 {
		return fmt.Errorf("workflow.max_revisions must not be negative")
	}
	if c.Workflow.QualityThreshold < 1 || c.Workflow.QualityThreshold > 10 {
		return fmt.Errorf("workflow.quality_threshold must be in [1, 10]")
	}
	return nil
}
