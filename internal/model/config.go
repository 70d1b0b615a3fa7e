package model

import "time"

// Config is the complete TruthGuard configuration.
// Loaded from defaults, then ~/.truthguard/config.yaml, then TRUTHGUARD_* env vars, then flags.
type Config struct {
	HTTP         HTTPConfig        `yaml:"http" mapstructure:"http"`
	Crawl        CrawlConfig       `yaml:"crawl" mapstructure:"crawl"`
	Scoring      ScoringConfig     `yaml:"scoring" mapstructure:"scoring"`
	Storage      StorageConfig     `yaml:"storage" mapstructure:"storage"`
	Cache        CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Concurrency  ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitConfig   `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Server       ServerConfig      `yaml:"server" mapstructure:"server"`
	Logging      LoggingConfig     `yaml:"logging" mapstructure:"logging"`
	LLM          LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Output       OutputConfig      `yaml:"output" mapstructure:"output"`
}

type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	MaxRetries    int           `yaml:"max_retries" mapstructure:"max_retries"`
	InsecureTLS   bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	HTTPProxy     string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

type CrawlConfig struct {
	MaxDepth int `yaml:"max_depth" mapstructure:"max_depth"`
	MaxPages int `yaml:"max_pages" mapstructure:"max_pages"`
}

type ScoringConfig struct {
	Profile        string `yaml:"profile" mapstructure:"profile"` // high-fidelity, ratio
	VocabularyFile string `yaml:"vocabulary_file,omitempty" mapstructure:"vocabulary_file"`
}

type StorageConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"` // sqlite, mysql, none
	Path   string `yaml:"path,omitempty" mapstructure:"path"`
	DSN    string `yaml:"dsn,omitempty" mapstructure:"dsn"`
}

type CacheConfig struct {
	Enabled  bool          `yaml:"enabled" mapstructure:"enabled"`
	Backend  string        `yaml:"backend" mapstructure:"backend"` // memory, layered, redis
	TTL      time.Duration `yaml:"ttl" mapstructure:"ttl"`
	Dir      string        `yaml:"dir,omitempty" mapstructure:"dir"`
	RedisURL string        `yaml:"redis_url,omitempty" mapstructure:"redis_url"`
}

type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`

	// Domains overrides the default rate for individual hosts. A list
	// rather than a map: viper splits map keys such as "example.com" on dots.
	Domains []DomainRate `yaml:"domains,omitempty" mapstructure:"domains"`
}

// DomainRate is a per-host rate override
type DomainRate struct {
	Host              string  `yaml:"host" mapstructure:"host"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

type ServerConfig struct {
	Addr              string        `yaml:"addr" mapstructure:"addr"`
	AllowedOrigins    []string      `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	MaxUploadBytes    int64         `yaml:"max_upload_bytes" mapstructure:"max_upload_bytes"`
	MaxCrawlPages     int           `yaml:"max_crawl_pages" mapstructure:"max_crawl_pages"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"` // per client IP, 0 disables
	BurstSize         int           `yaml:"burst_size" mapstructure:"burst_size"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // text, json
	File   string `yaml:"file,omitempty" mapstructure:"file"`
}

type LLMConfig struct {
	Provider       string `yaml:"provider,omitempty" mapstructure:"provider"` // openai, ollama
	Model          string `yaml:"model,omitempty" mapstructure:"model"`
	APIKey         string `yaml:"-" mapstructure:"api_key"`
	BaseURL        string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout        int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	StrictEvidence bool   `yaml:"strict_evidence" mapstructure:"strict_evidence"`
	MaxTokens      int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

type OutputConfig struct {
	Verbose       bool   `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool   `yaml:"include_footer" mapstructure:"include_footer"`
	Dir           string `yaml:"dir" mapstructure:"dir"`
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:       15 * time.Second,
			UserAgent:     "TruthGuard/0.1 (+https://github.com/ppiankov/truthguard)",
			MaxBodyBytes:  2_000_000,
			MaxRetries:    3,
			RespectRobots: true,
		},
		Crawl: CrawlConfig{
			MaxDepth: 1,
			MaxPages: 5,
		},
		Scoring: ScoringConfig{
			Profile: string(ProfileHighFidelity),
		},
		Storage: StorageConfig{
			Driver: "sqlite",
		},
		Cache: CacheConfig{
			Enabled: true,
			Backend: "memory",
			TTL:     time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimiting: RateLimitConfig{
			RequestsPerSecond: 2,
			BurstSize:         5,
		},
		Server: ServerConfig{
			Addr:              ":3000",
			AllowedOrigins:    []string{"*"},
			MaxUploadBytes:    10 << 20,
			MaxCrawlPages:     50,
			RequestsPerSecond: 5,
			BurstSize:         10,
			ShutdownTimeout:   10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		LLM: LLMConfig{
			Timeout:        30,
			StrictEvidence: true,
			MaxTokens:      1000,
		},
		Output: OutputConfig{
			IncludeFooter: true,
			Dir:           "./truthguard-reports",
		},
	}
}
