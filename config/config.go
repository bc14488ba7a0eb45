// Package config loads router.toml, the engine configuration file.
//
// Every section is optional. Durations are written as strings such as
// "30s" or "2m".
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/vinayprograms/toolrouter/credentials"
	"github.com/vinayprograms/toolrouter/errors"
	"github.com/vinayprograms/toolrouter/llm"
)

// DefaultPath is the config file name looked up in the working directory.
const DefaultPath = "router.toml"

// Config is the full engine configuration.
type Config struct {
	LLM        LLMConfig            `toml:"llm"`
	Profiles   map[string]LLMConfig `toml:"profiles"`
	Lookup     LookupConfig         `toml:"lookup"`
	Compose    ComposeConfig        `toml:"compose"`
	Persona    PersonaConfig        `toml:"persona"`
	Strategy   StrategyConfig       `toml:"strategy"`
	Retrieval  RetrievalConfig      `toml:"retrieval"`
	Navigation NavigationConfig     `toml:"navigation"`
	Catalog    CatalogConfig        `toml:"catalog"`
	Log        LogConfig            `toml:"log"`
	Telemetry  TelemetryConfig      `toml:"telemetry"`
}

// LLMConfig selects and tunes a generative provider.
type LLMConfig struct {
	Provider    string        `toml:"provider"`
	Model       string        `toml:"model"`
	MaxTokens   int           `toml:"max_tokens"`
	BaseURL     string        `toml:"base_url"`
	MaxRetries  int           `toml:"max_retries"`
	InitBackoff time.Duration `toml:"init_backoff"`
	MaxBackoff  time.Duration `toml:"max_backoff"`
}

// LookupConfig tunes external lookups and their cache.
type LookupConfig struct {
	Profile       string        `toml:"profile"` // LLM profile; empty uses [llm]
	WebMaxTokens  int           `toml:"web_max_tokens"`
	NewsMaxTokens int           `toml:"news_max_tokens"`
	Timeout       time.Duration `toml:"timeout"`
	CacheCapacity int           `toml:"cache_capacity"`
	CacheTTL      time.Duration `toml:"cache_ttl"` // 0 keeps entries until evicted
}

// ComposeConfig tunes answer composition.
type ComposeConfig struct {
	Profile      string        `toml:"profile"`
	MaxTokens    int           `toml:"max_tokens"`
	LocalContext int           `toml:"local_context"`
	WebSnippet   int           `toml:"web_snippet"`
	NewsSnippet  int           `toml:"news_snippet"`
	Timeout      time.Duration `toml:"timeout"`
}

// PersonaConfig names the product and its creator.
type PersonaConfig struct {
	Product      string `toml:"product"`
	Creator      string `toml:"creator"`
	AboutSection string `toml:"about_section"`
}

// StrategyConfig overrides classifier term sets. Empty lists keep the
// built-in sets.
type StrategyConfig struct {
	NewsTerms       []string `toml:"news_terms"`
	WebTerms        []string `toml:"web_terms"`
	LocalTerms      []string `toml:"local_terms"`
	ExtraLocalTerms []string `toml:"extra_local_terms"`
}

// RetrievalConfig overrides scoring weights. Zero keeps the default.
type RetrievalConfig struct {
	NameContainsQuery int `toml:"name_contains_query"`
	TermInKeyword     int `toml:"term_in_keyword"`
	KeywordInQuery    int `toml:"keyword_in_query"`
	DescriptionToken  int `toml:"description_token"`
	ShortDescription  int `toml:"short_description"`
	Category          int `toml:"category"`
}

// NavigationConfig configures target resolution.
type NavigationConfig struct {
	LandingCategory string `toml:"landing_category"`
}

// CatalogConfig points at a catalog file. Empty uses the built-in catalog.
type CatalogConfig struct {
	Path         string `toml:"path"`
	SuggestLimit int    `toml:"suggest_limit"`
}

// LogConfig sets the log level.
type LogConfig struct {
	Level string `toml:"level"`
}

// TelemetryConfig enables OTLP trace export.
type TelemetryConfig struct {
	Tracing     bool    `toml:"tracing"`
	Endpoint    string  `toml:"endpoint"`
	ServiceName string  `toml:"service_name"`
	Insecure    bool    `toml:"insecure"`
	Debug       bool    `toml:"debug"`
	SampleRatio float64 `toml:"sample_ratio"` // 0 keeps every trace
}

// Default returns a config with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.LLM.Provider == "" {
		c.LLM.Provider = llm.InferProviderFromModel(c.LLM.Model)
		if c.LLM.Provider == "" {
			c.LLM.Provider = "google"
		}
	}
	if c.LLM.Model == "" {
		c.LLM.Model = defaultModel(c.LLM.Provider)
	}
	if c.LLM.MaxTokens <= 0 {
		c.LLM.MaxTokens = 1024
	}

	if c.Lookup.WebMaxTokens <= 0 {
		c.Lookup.WebMaxTokens = 800
	}
	if c.Lookup.NewsMaxTokens <= 0 {
		c.Lookup.NewsMaxTokens = 1000
	}
	if c.Lookup.Timeout <= 0 {
		c.Lookup.Timeout = 30 * time.Second
	}
	if c.Lookup.CacheCapacity <= 0 {
		c.Lookup.CacheCapacity = 256
	}

	if c.Compose.MaxTokens <= 0 {
		c.Compose.MaxTokens = 600
	}
	if c.Compose.LocalContext <= 0 {
		c.Compose.LocalContext = 2
	}
	if c.Compose.WebSnippet <= 0 {
		c.Compose.WebSnippet = 300
	}
	if c.Compose.NewsSnippet <= 0 {
		c.Compose.NewsSnippet = 400
	}
	if c.Compose.Timeout <= 0 {
		c.Compose.Timeout = 30 * time.Second
	}

	if c.Persona == (PersonaConfig{}) {
		c.Persona = PersonaConfig{Product: "InOneBox", Creator: "Vatsal Varshney", AboutSection: "Portfolio"}
	}
	if c.Navigation.LandingCategory == "" {
		c.Navigation.LandingCategory = "Dashboard"
	}
	if c.Catalog.SuggestLimit <= 0 {
		c.Catalog.SuggestLimit = 3
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = "toolrouter"
	}
}

func defaultModel(provider string) string {
	switch provider {
	case "google":
		return "gemini-2.0-flash"
	case "anthropic":
		return "claude-3-5-haiku-latest"
	case "openai":
		return "gpt-4o-mini"
	default:
		return ""
	}
}

// Load reads path, applies defaults and validates. Unknown keys are
// rejected so typos do not silently fall back to defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound("config file not found", errors.WithMetadata("path", path), errors.WithCause(err))
		}
		return nil, errors.Wrap(err, "reading config")
	}
	return Parse(string(data))
}

// Parse decodes TOML text, applies defaults and validates.
func Parse(data string) (*Config, error) {
	cfg := &Config{}
	md, err := toml.Decode(data, cfg)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrCodeInvalidConfig, "parsing config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.InvalidConfig("unknown config keys: " + strings.Join(keys, ", "))
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var problems []string
	check := func(ok bool, format string, args ...interface{}) {
		if !ok {
			problems = append(problems, fmt.Sprintf(format, args...))
		}
	}

	check(c.LLM.MaxRetries >= 0, "llm.max_retries must not be negative")
	check(c.Lookup.CacheTTL >= 0, "lookup.cache_ttl must not be negative")
	check(c.Telemetry.SampleRatio >= 0 && c.Telemetry.SampleRatio <= 1,
		"telemetry.sample_ratio must be between 0 and 1 (got %g)", c.Telemetry.SampleRatio)
	check(c.Compose.LocalContext <= 3, "compose.local_context must be at most 3 (got %d)", c.Compose.LocalContext)
	for name, p := range c.Profiles {
		check(p.Provider != "" || llm.InferProviderFromModel(p.Model) != "",
			"profiles.%s needs a provider or a recognizable model", name)
	}
	for _, ref := range []struct{ section, profile string }{
		{"lookup", c.Lookup.Profile},
		{"compose", c.Compose.Profile},
	} {
		if ref.profile == "" {
			continue
		}
		_, ok := c.Profiles[ref.profile]
		check(ok, "%s.profile %q is not defined under [profiles]", ref.section, ref.profile)
	}

	if len(problems) > 0 {
		return errors.InvalidConfig(strings.Join(problems, "; "))
	}
	return nil
}

// ProviderConfig builds the default provider config with its API key
// resolved from creds.
func (c *Config) ProviderConfig(creds *credentials.Credentials) llm.ProviderConfig {
	return toProviderConfig(c.LLM, creds)
}

// ProfileConfigs builds provider configs for every named profile.
func (c *Config) ProfileConfigs(creds *credentials.Credentials) map[string]llm.ProviderConfig {
	out := make(map[string]llm.ProviderConfig, len(c.Profiles))
	for name, p := range c.Profiles {
		if p.Provider == "" {
			p.Provider = llm.InferProviderFromModel(p.Model)
		}
		if p.MaxTokens <= 0 {
			p.MaxTokens = c.LLM.MaxTokens
		}
		out[name] = toProviderConfig(p, creds)
	}
	return out
}

func toProviderConfig(l LLMConfig, creds *credentials.Credentials) llm.ProviderConfig {
	return llm.ProviderConfig{
		Provider:  l.Provider,
		Model:     l.Model,
		APIKey:    creds.GetAPIKey(l.Provider),
		MaxTokens: l.MaxTokens,
		BaseURL:   l.BaseURL,
		RetryConfig: llm.RetryConfig{
			MaxRetries:  l.MaxRetries,
			InitBackoff: l.InitBackoff,
			MaxBackoff:  l.MaxBackoff,
		},
	}
}
