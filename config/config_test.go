package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vinayprograms/toolrouter/credentials"
	"github.com/vinayprograms/toolrouter/errors"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"provider", cfg.LLM.Provider, "google"},
		{"model", cfg.LLM.Model, "gemini-2.0-flash"},
		{"web tokens", cfg.Lookup.WebMaxTokens, 800},
		{"news tokens", cfg.Lookup.NewsMaxTokens, 1000},
		{"lookup timeout", cfg.Lookup.Timeout, 30 * time.Second},
		{"cache capacity", cfg.Lookup.CacheCapacity, 256},
		{"cache ttl", cfg.Lookup.CacheTTL, time.Duration(0)},
		{"compose tokens", cfg.Compose.MaxTokens, 600},
		{"local context", cfg.Compose.LocalContext, 2},
		{"web snippet", cfg.Compose.WebSnippet, 300},
		{"news snippet", cfg.Compose.NewsSnippet, 400},
		{"product", cfg.Persona.Product, "InOneBox"},
		{"landing", cfg.Navigation.LandingCategory, "Dashboard"},
		{"log level", cfg.Log.Level, "info"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestParse(t *testing.T) {
	cfg, err := Parse(`
[llm]
model = "claude-3-5-haiku-latest"
max_retries = 2
init_backoff = "500ms"

[profiles.fast]
model = "gpt-4o-mini"

[lookup]
profile = "fast"
timeout = "5s"
cache_ttl = "10m"

[compose]
local_context = 3

[persona]
product = "Toolbox"

[strategy]
extra_local_terms = ["toolbox"]

[retrieval]
name_contains_query = 100

[catalog]
path = "tools.yaml"
`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.LLM.Provider != "anthropic" {
		t.Errorf("provider should be inferred from model, got %q", cfg.LLM.Provider)
	}
	if cfg.LLM.InitBackoff != 500*time.Millisecond || cfg.LLM.MaxRetries != 2 {
		t.Errorf("retry settings = %+v", cfg.LLM)
	}
	if cfg.Lookup.Timeout != 5*time.Second || cfg.Lookup.CacheTTL != 10*time.Minute {
		t.Errorf("lookup = %+v", cfg.Lookup)
	}
	if cfg.Lookup.WebMaxTokens != 800 {
		t.Error("unset lookup fields should take defaults")
	}
	if cfg.Persona.Product != "Toolbox" || cfg.Persona.Creator != "" {
		t.Errorf("a configured persona should not be merged with defaults: %+v", cfg.Persona)
	}
	if cfg.Retrieval.NameContainsQuery != 100 || cfg.Catalog.Path != "tools.yaml" {
		t.Errorf("retrieval/catalog = %+v %+v", cfg.Retrieval, cfg.Catalog)
	}
	if len(cfg.Strategy.ExtraLocalTerms) != 1 {
		t.Errorf("strategy = %+v", cfg.Strategy)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		message string
	}{
		{"syntax", "[llm\nmodel=", "parsing config"},
		{"unknown key", "[lookup]\ncache_size = 3\n", "lookup.cache_size"},
		{"bad duration", "[lookup]\ntimeout = \"soon\"\n", "parsing config"},
		{"local context", "[compose]\nlocal_context = 5\n", "local_context must be at most 3"},
		{"missing profile", "[compose]\nprofile = \"nope\"\n", `compose.profile "nope"`},
		{"profile without provider", "[profiles.x]\nmodel = \"mystery\"\n", "profiles.x"},
		{"sample ratio", "[telemetry]\nsample_ratio = 1.5\n", "sample_ratio must be between 0 and 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("code = %s, want INVALID_CONFIG", errors.Code(err))
			}
			if !strings.Contains(err.Error(), tt.message) {
				t.Errorf("error %q should mention %q", err, tt.message)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultPath)
	if err := os.WriteFile(path, []byte("[log]\nlevel = \"debug\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("level = %q", cfg.Log.Level)
	}

	_, err = Load(filepath.Join(dir, "missing.toml"))
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("missing file: %v", err)
	}
}

func TestProviderConfig(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "env-google")
	cfg := Default()
	cfg.LLM.MaxRetries = 3
	cfg.Profiles = map[string]LLMConfig{"fast": {Model: "gpt-4o-mini"}}

	pc := cfg.ProviderConfig(nil)
	if pc.Provider != "google" || pc.APIKey != "env-google" || pc.RetryConfig.MaxRetries != 3 {
		t.Errorf("ProviderConfig = %+v", pc)
	}
	if err := pc.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}

	dir := t.TempDir()
	credPath := filepath.Join(dir, "credentials.toml")
	if err := os.WriteFile(credPath, []byte("[openai]\napi_key = \"sk-test\"\n"), 0400); err != nil {
		t.Fatal(err)
	}
	creds, err := credentials.LoadFile(credPath)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	profiles := cfg.ProfileConfigs(creds)
	fast := profiles["fast"]
	if fast.Provider != "openai" || fast.APIKey != "sk-test" || fast.MaxTokens != cfg.LLM.MaxTokens {
		t.Errorf("fast profile = %+v", fast)
	}
}
