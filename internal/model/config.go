package model

import "time"

// Config is the process-wide configuration. It is assembled once at
// startup (defaults, config file, env, flags) and treated as immutable
// afterwards; every run receives the same shared instance.
type Config struct {
	Semantic    SemanticConfig    `yaml:"semantic" json:"semantic"`
	Policy      PolicyConfig      `yaml:"policy" json:"policy"`
	Schemas     SchemaConfig      `yaml:"schemas" json:"schemas"`
	Cache       CacheConfig       `yaml:"cache" json:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" json:"concurrency"`
	Output      OutputConfig      `yaml:"output" json:"output"`
}

// SemanticConfig configures the independent judgement model call
type SemanticConfig struct {
	Enabled     bool          `yaml:"enabled" json:"enabled"`
	Provider    string        `yaml:"provider" json:"provider"` // openai, mistral, ollama
	Model       string        `yaml:"model" json:"model"`
	APIKey      string        `yaml:"-" json:"-"` // From env only, never persisted
	BaseURL     string        `yaml:"base_url,omitempty" json:"base_url,omitempty"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
	MaxTokens   int           `yaml:"max_tokens" json:"max_tokens"`
	Temperature float32       `yaml:"temperature" json:"temperature"`
	RetryParse  int           `yaml:"retry_on_parse_error" json:"retry_on_parse_error"`

	HTTPProxy  string `yaml:"http_proxy,omitempty" json:"http_proxy,omitempty"`
	HTTPSProxy string `yaml:"https_proxy,omitempty" json:"https_proxy,omitempty"`
	NoProxy    string `yaml:"no_proxy,omitempty" json:"no_proxy,omitempty"`
}

// PolicyConfig maps semantic disagreements to severities. The exact
// escalation thresholds are a policy choice, so they live in config
// rather than code.
type PolicyConfig struct {
	// MismatchSeverity maps a schema field type (string, number,
	// integer, date, bool, object, list) to the severity of a semantic
	// disagreement on a field of that type.
	MismatchSeverity map[string]string `yaml:"mismatch_severity" json:"mismatch_severity"`

	// UnparseableSeverity is the severity of the fallback finding when
	// the judgement cannot be parsed. Warning by default.
	UnparseableSeverity string `yaml:"unparseable_severity" json:"unparseable_severity"`
}

// SchemaConfig controls where document schemas come from
type SchemaConfig struct {
	// Dir holds optional YAML schema definitions merged over the
	// built-in document types at startup. Malformed files are fatal.
	Dir string `yaml:"dir,omitempty" json:"dir,omitempty"`

	// AllowUnknownFields downgrades unexpected_field handling; the
	// finding is still emitted as a warning either way.
	AllowUnknownFields bool `yaml:"allow_unknown_fields" json:"allow_unknown_fields"`
}

// CacheConfig configures judgement caching keyed by document content
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" json:"enabled"`
	Dir       string        `yaml:"dir" json:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" json:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" json:"disk_ttl"`
}

// ConcurrencyConfig bounds batch processing and outbound model calls
type ConcurrencyConfig struct {
	BatchWorkers      int     `yaml:"batch_workers" json:"batch_workers"`
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`
	Burst             int     `yaml:"burst" json:"burst"`
}

// OutputConfig controls result persistence and reporting
type OutputConfig struct {
	ResultsDir  string `yaml:"results_dir" json:"results_dir"`
	Verbose     bool   `yaml:"verbose" json:"verbose"`
	MetricsAddr string `yaml:"metrics_addr,omitempty" json:"metrics_addr,omitempty"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Semantic: SemanticConfig{
			Enabled:     false,
			Provider:    "openai",
			Model:       "gpt-4o",
			Timeout:     60 * time.Second,
			MaxTokens:   1200,
			Temperature: 0,
			RetryParse:  1,
		},
		Policy: PolicyConfig{
			MismatchSeverity: map[string]string{
				"number":  "error",
				"integer": "error",
				"date":    "error",
				"bool":    "error",
				"string":  "warning",
				"object":  "warning",
				"list":    "warning",
			},
			UnparseableSeverity: "warning",
		},
		Schemas: SchemaConfig{
			AllowUnknownFields: true,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       defaultCacheDir(),
			MemoryTTL: 15 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			BatchWorkers:      4,
			RequestsPerSecond: 2,
			Burst:             4,
		},
		Output: OutputConfig{
			ResultsDir: "results",
		},
	}
}
