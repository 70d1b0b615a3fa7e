package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/truthguard/internal/model"
)

func newTestViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	v.SetEnvPrefix("TRUTHGUARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	registerDefaults(v, model.DefaultConfig())
	return v
}

func TestDecodeConfig_Defaults(t *testing.T) {
	cfg, err := decodeConfig(newTestViper(t))
	if err != nil {
		t.Fatalf("decodeConfig failed: %v", err)
	}

	want := model.DefaultConfig()
	if cfg.HTTP.Timeout != want.HTTP.Timeout || cfg.Crawl.MaxPages != want.Crawl.MaxPages {
		t.Errorf("Expected defaults, got timeout %v pages %d", cfg.HTTP.Timeout, cfg.Crawl.MaxPages)
	}
	if len(cfg.Server.AllowedOrigins) != 1 || cfg.Server.AllowedOrigins[0] != "*" {
		t.Errorf("Expected default origins, got %v", cfg.Server.AllowedOrigins)
	}
}

func TestDecodeConfig_Env(t *testing.T) {
	t.Setenv("TRUTHGUARD_HTTP_TIMEOUT", "42s")
	t.Setenv("TRUTHGUARD_CRAWL_MAX_PAGES", "12")
	t.Setenv("TRUTHGUARD_SCORING_PROFILE", "ratio")

	cfg, err := decodeConfig(newTestViper(t))
	if err != nil {
		t.Fatalf("decodeConfig failed: %v", err)
	}

	if cfg.HTTP.Timeout != 42*time.Second {
		t.Errorf("Expected 42s timeout, got %v", cfg.HTTP.Timeout)
	}
	if cfg.Crawl.MaxPages != 12 {
		t.Errorf("Expected 12 pages, got %d", cfg.Crawl.MaxPages)
	}
	if cfg.Scoring.Profile != "ratio" {
		t.Errorf("Expected ratio profile, got %q", cfg.Scoring.Profile)
	}
}

func TestDecodeConfig_EnvForEmptyDefault(t *testing.T) {
	t.Setenv("TRUTHGUARD_STORAGE_DSN", "user:pass@tcp(db:3306)/truthguard")

	cfg, err := decodeConfig(newTestViper(t))
	if err != nil {
		t.Fatalf("decodeConfig failed: %v", err)
	}
	if cfg.Storage.DSN != "user:pass@tcp(db:3306)/truthguard" {
		t.Errorf("Expected DSN from env, got %q", cfg.Storage.DSN)
	}
}

func TestDecodeConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "crawl:\n  max_depth: 3\nstorage:\n  driver: none\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	v := newTestViper(t)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig failed: %v", err)
	}

	cfg, err := decodeConfig(v)
	if err != nil {
		t.Fatalf("decodeConfig failed: %v", err)
	}
	if cfg.Crawl.MaxDepth != 3 || cfg.Storage.Driver != "none" {
		t.Errorf("Expected file values, got depth %d driver %q", cfg.Crawl.MaxDepth, cfg.Storage.Driver)
	}
	if cfg.Crawl.MaxPages != 5 {
		t.Errorf("Expected unset keys to keep defaults, got %d pages", cfg.Crawl.MaxPages)
	}
}

func TestDecodeConfig_DomainRates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `rate_limiting:
  requests_per_second: 4
  domains:
    - host: slow.example.com
      requests_per_second: 0.5
      burst_size: 1
    - host: api.example.org
      requests_per_second: 10
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	v := newTestViper(t)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig failed: %v", err)
	}

	cfg, err := decodeConfig(v)
	if err != nil {
		t.Fatalf("decodeConfig failed: %v", err)
	}
	if cfg.RateLimiting.RequestsPerSecond != 4 {
		t.Errorf("Expected 4 rps, got %v", cfg.RateLimiting.RequestsPerSecond)
	}

	want := []model.DomainRate{
		{Host: "slow.example.com", RequestsPerSecond: 0.5, BurstSize: 1},
		{Host: "api.example.org", RequestsPerSecond: 10},
	}
	if len(cfg.RateLimiting.Domains) != len(want) {
		t.Fatalf("Expected %d domain rates, got %+v", len(want), cfg.RateLimiting.Domains)
	}
	for i, w := range want {
		if cfg.RateLimiting.Domains[i] != w {
			t.Errorf("domain %d = %+v, want %+v", i, cfg.RateLimiting.Domains[i], w)
		}
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	if err := writeDefaultConfig(path); err != nil {
		t.Fatalf("writeDefaultConfig failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var cfg model.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("Written config is not valid YAML: %v", err)
	}
	if cfg.Server.Addr != ":3000" {
		t.Errorf("Expected default addr, got %q", cfg.Server.Addr)
	}

	if err := writeDefaultConfig(path); err == nil {
		t.Error("Expected error when config already exists")
	}
}

func TestReadTextArgs(t *testing.T) {
	got, err := readTextArgs([]string{"Hello", "world"}, strings.NewReader("ignored"))
	if err != nil || got != "Hello world" {
		t.Errorf("Expected joined args, got %q, %v", got, err)
	}

	for _, args := range [][]string{nil, {"-"}} {
		got, err := readTextArgs(args, strings.NewReader("from stdin"))
		if err != nil || got != "from stdin" {
			t.Errorf("readTextArgs(%v): expected stdin, got %q, %v", args, got, err)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		subject  string
		fallback string
		want     string
	}{
		{"Exercise Study", "", "Exercise-Study"},
		{"a/b: c?", "", "a_b_-c"},
		{"", "https://example.com/news/1", "example.com_news_1"},
		{"...", "", "report"},
		{strings.Repeat("x", 150), "", strings.Repeat("x", 100)},
	}

	for _, tt := range tests {
		if got := sanitizeFilename(tt.subject, tt.fallback); got != tt.want {
			t.Errorf("sanitizeFilename(%q, %q) = %q, want %q", tt.subject, tt.fallback, got, tt.want)
		}
	}
}

func TestUniqueSlug(t *testing.T) {
	used := make(map[string]int)
	got := []string{uniqueSlug(used, "a"), uniqueSlug(used, "a"), uniqueSlug(used, "b"), uniqueSlug(used, "a")}
	want := []string{"a", "a-2", "b", "a-3"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected %v, got %v", want, got)
			break
		}
	}
}

func TestSelectLLMKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("ANTHROPIC_API_KEY", "")

	tests := []struct {
		name      string
		provider  string
		configKey string
		anthropic string
		wantVar   string
		wantKey   string
	}{
		{"openai keeps bound key", "openai", "sk-openai", "", "OPENAI_API_KEY", "sk-openai"},
		{"anthropic env wins", "anthropic", "sk-openai", "sk-ant", "ANTHROPIC_API_KEY", "sk-ant"},
		{"anthropic ignores openai key", "claude", "sk-openai", "", "ANTHROPIC_API_KEY", ""},
		{"anthropic keeps configured key", "anthropic", "sk-configured", "", "ANTHROPIC_API_KEY", "sk-configured"},
		{"ollama needs no key", "ollama", "", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ANTHROPIC_API_KEY", tt.anthropic)
			cfg := model.DefaultConfig()
			cfg.LLM.Provider = tt.provider
			cfg.LLM.APIKey = tt.configKey

			if got := selectLLMKey(cfg); got != tt.wantVar {
				t.Errorf("selectLLMKey() = %q, want %q", got, tt.wantVar)
			}
			if cfg.LLM.APIKey != tt.wantKey {
				t.Errorf("Expected key %q, got %q", tt.wantKey, cfg.LLM.APIKey)
			}
		})
	}
}
