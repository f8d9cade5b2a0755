package authkit

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Options is the client-wide configuration, read from the environment.
// Per-provider secrets are resolved separately by the ProviderRegistry.
type Options struct {
	// APIBaseURL is the backend origin all auth endpoints hang off.
	APIBaseURL string `env:"AUTH_API_BASE_URL" envDefault:"https://api.wearagain.com"`
	// HTTPTimeoutSeconds bounds each backend round trip.
	HTTPTimeoutSeconds int `env:"AUTH_HTTP_TIMEOUT_SECONDS" envDefault:"10"`
	// LogLevel is one of debug, info, error, none.
	LogLevel string `env:"AUTH_LOG_LEVEL" envDefault:"info"`
	// ProvidersFile optionally points at a YAML file with provider
	// definition overrides.
	ProvidersFile string `env:"AUTH_PROVIDERS_FILE"`
	// ExchangeRateLimit is the sustained exchange/refresh requests per
	// second allowed against the backend; zero disables limiting.
	ExchangeRateLimit float64 `env:"AUTH_EXCHANGE_RATE_LIMIT" envDefault:"0"`
}

// LoadOptions parses Options from the process environment.
func LoadOptions() (Options, error) {
	var opts Options
	if err := env.Parse(&opts); err != nil {
		return Options{}, fmt.Errorf("failed to parse auth options: %w", err)
	}
	return opts, nil
}

// LoadDotEnv loads a .env file into the process environment when one
// exists. A missing file is not an error; development setups carry one,
// production does not.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// providersFile is the YAML shape of a provider override file.
type providersFile struct {
	Providers []ProviderDefinition `yaml:"providers"`
}

// LoadProviderOverrides reads provider definitions from a YAML file and
// applies them to the registry. Definitions replace built-ins with the same
// id and add new ones.
func LoadProviderOverrides(registry *ProviderRegistry, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read providers file: %w", err)
	}

	var file providersFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse providers file: %w", err)
	}

	for _, def := range file.Providers {
		if def.ID == "" {
			return fmt.Errorf("providers file contains a definition without an id")
		}
		registry.OverrideDefinition(def)
	}
	return nil
}

// osEnvLookup is the default EnvLookup, reading the process environment.
func osEnvLookup(key string) string {
	return os.Getenv(key)
}
