// Package credentials loads generative-service API keys from
// credentials.toml, falling back to environment variables.
package credentials

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/vinayprograms/toolrouter/errors"
)

// ErrInsecurePermissions is returned when the credentials file is readable
// or writable by anyone but its owner.
var ErrInsecurePermissions = stderrors.New("credentials file has insecure permissions")

// Credentials holds API keys by provider. A generic [llm] section applies
// to any provider without its own section.
type Credentials struct {
	LLM *ProviderCreds

	providers map[string]*ProviderCreds
}

// ProviderCreds holds credentials for a single provider.
type ProviderCreds struct {
	APIKey string `toml:"api_key"`
}

// StandardPaths returns credential file locations in priority order.
func StandardPaths() []string {
	paths := []string{"credentials.toml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "toolrouter", "credentials.toml"),
			filepath.Join(home, ".toolrouter", "credentials.toml"),
		)
	}
	return paths
}

// Load reads the first credentials file found in StandardPaths. A missing
// file is not an error: the returned Credentials is nil and lookups fall
// through to the environment.
func Load() (*Credentials, string, error) {
	for _, path := range StandardPaths() {
		if _, err := os.Stat(path); err == nil {
			creds, err := LoadFile(path)
			if err != nil {
				return nil, path, err
			}
			return creds, path, nil
		}
	}
	return nil, "", nil
}

// LoadFile reads credentials from path. On Unix the file must be mode 0400.
func LoadFile(path string) (*Credentials, error) {
	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		if err != nil {
			return nil, errors.WrapWithCode(err, errors.ErrCodeNotFound, "credentials file")
		}
		if mode := info.Mode().Perm(); mode != 0400 {
			return nil, errors.WrapWithCode(
				fmt.Errorf("%w: %s has mode %04o (must be 0400)", ErrInsecurePermissions, path, mode),
				errors.ErrCodeUnauthorized, "credentials file rejected")
		}
	}

	var sections map[string]ProviderCreds
	if _, err := toml.DecodeFile(path, &sections); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrCodeInvalidConfig, "parsing "+path)
	}

	creds := &Credentials{providers: make(map[string]*ProviderCreds)}
	for name, section := range sections {
		if section.APIKey == "" {
			continue
		}
		section := section
		if name == "llm" {
			creds.LLM = &section
		} else {
			creds.providers[name] = &section
		}
	}
	return creds, nil
}

// GetAPIKey returns the key for provider.
// Priority: [provider] section > [llm] section > environment variable.
func (c *Credentials) GetAPIKey(provider string) string {
	if c != nil {
		if creds, ok := c.providers[provider]; ok {
			return creds.APIKey
		}
		normalized := strings.ToLower(strings.ReplaceAll(provider, "-", ""))
		if creds, ok := c.providers[normalized]; ok {
			return creds.APIKey
		}
		if c.LLM != nil {
			return c.LLM.APIKey
		}
	}
	return os.Getenv(EnvVar(provider))
}

// EnvVar returns the environment variable consulted for provider.
func EnvVar(provider string) string {
	switch provider {
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	case "openai", "openai-compat":
		return "OPENAI_API_KEY"
	case "google", "gemini":
		return "GOOGLE_API_KEY"
	case "mistral":
		return "MISTRAL_API_KEY"
	case "groq":
		return "GROQ_API_KEY"
	case "xai":
		return "XAI_API_KEY"
	case "openrouter":
		return "OPENROUTER_API_KEY"
	default:
		return strings.ToUpper(strings.ReplaceAll(provider, "-", "_")) + "_API_KEY"
	}
}
