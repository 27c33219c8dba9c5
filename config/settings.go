// Package config provides application settings.
//
// Settings are created via Load() which handles:
// - Defaults, an optional tripsense.yaml and environment overrides (viper)
// - Provider-specific API key and model lookup
// - Validation of generation parameters

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/richinex/tripsense/llm"
	"github.com/spf13/viper"
)

// ErrInvalidSetting is wrapped by every validation failure.
var ErrInvalidSetting = errors.New("invalid setting")

// Storage drivers.
const (
	DriverSqlite = "sqlite"
	DriverMemory = "memory"
)

// Settings holds all application configuration.
type Settings struct {
	LLM          LLMConfig        `mapstructure:"llm"`
	Maps         MapsConfig       `mapstructure:"maps"`
	Booking      BookingConfig    `mapstructure:"booking"`
	Pricing      PricingConfig    `mapstructure:"pricing"`
	Generation   GenerationConfig `mapstructure:"generation"`
	Storage      StorageConfig    `mapstructure:"storage"`
	Server       ServerConfig     `mapstructure:"server"`
	SystemPrompt string           `mapstructure:"system_prompt"`
	UserID       string           `mapstructure:"user_id"`
}

// LLMConfig selects the model backend.
type LLMConfig struct {
	Provider string `mapstructure:"provider"`
	Model    string `mapstructure:"model"`
	APIKey   string `mapstructure:"api_key"`
}

// MapsConfig configures the Google Maps Platform tools.
type MapsConfig struct {
	APIKey   string        `mapstructure:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// BookingConfig configures the SerpAPI flight, hotel and event searches.
// An empty APIKey serves demo results.
type BookingConfig struct {
	APIKey   string        `mapstructure:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
	Currency string        `mapstructure:"currency"`
}

// PricingConfig holds the per-million-token rates used for cost estimates.
type PricingConfig struct {
	InputPerMillion  float64 `mapstructure:"input_per_million"`
	OutputPerMillion float64 `mapstructure:"output_per_million"`
}

// GenerationConfig holds the parameters sent with every model call.
type GenerationConfig struct {
	Temperature     float64       `mapstructure:"temperature"`
	MaxOutputTokens int           `mapstructure:"max_output_tokens"`
	TopP            float64       `mapstructure:"top_p"`
	ThinkingBudget  int           `mapstructure:"thinking_budget"`
	MaxHistory      int           `mapstructure:"max_history"`
	ModelTimeout    time.Duration `mapstructure:"model_timeout"`
}

// StorageConfig selects the trip store.
type StorageConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// explicit environment names that do not follow the TRIPSENSE_ prefix
var envBindings = map[string]string{
	"llm.provider":    "LLM_PROVIDER",
	"maps.api_key":    "GOOGLE_MAPS_API_KEY",
	"booking.api_key": "SERPAPI_API_KEY",
	"storage.path":    "TRIPSENSE_DB",
	"server.addr":     "TRIPSENSE_ADDR",
	"system_prompt":   "TRIPSENSE_SYSTEM_PROMPT",
}

// Load reads settings. An empty path searches for tripsense.yaml in the
// current directory and $HOME/.tripsense; a missing file there is not an error.
func Load(path string) (Settings, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("tripsense")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.tripsense")
	}

	setDefaults(v)

	v.SetEnvPrefix("TRIPSENSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return Settings{}, fmt.Errorf("binding %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("reading config: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("parsing config: %w", err)
	}

	s.LLM.APIKey = expandEnv(s.LLM.APIKey)
	s.Maps.APIKey = expandEnv(s.Maps.APIKey)
	s.Booking.APIKey = expandEnv(s.Booking.APIKey)
	if err := s.resolveProvider(); err != nil {
		return Settings{}, err
	}

	return s, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.provider", llm.ProviderGemini.String())
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("maps.timeout", 20*time.Second)
	v.SetDefault("maps.cache_ttl", 10*time.Minute)
	v.SetDefault("booking.timeout", 30*time.Second)
	v.SetDefault("booking.cache_ttl", 30*time.Minute)
	v.SetDefault("booking.currency", "USD")
	v.SetDefault("pricing.input_per_million", 0.15)
	v.SetDefault("pricing.output_per_million", 0.60)
	v.SetDefault("generation.temperature", 0.2)
	v.SetDefault("generation.max_output_tokens", 2048)
	v.SetDefault("generation.top_p", 0.8)
	v.SetDefault("generation.thinking_budget", 0)
	v.SetDefault("generation.max_history", 3)
	v.SetDefault("generation.model_timeout", 60*time.Second)
	v.SetDefault("storage.driver", DriverSqlite)
	v.SetDefault("storage.path", defaultDBPath())
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("user_id", "default")
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".tripsense", "trips.db")
	}
	return filepath.Join(home, ".tripsense", "trips.db")
}

// resolveProvider normalises the provider name and fills the key and model
// from provider-specific environment variables when not set explicitly.
func (s *Settings) resolveProvider() error {
	pt, err := llm.ParseProviderType(s.LLM.Provider)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSetting, err)
	}
	s.LLM.Provider = pt.String()

	if s.LLM.APIKey == "" {
		s.LLM.APIKey = os.Getenv(pt.EnvVar())
	}
	if s.LLM.Model == "" {
		s.LLM.Model = ModelFor(pt)
	}
	return nil
}

// ProviderType returns the parsed provider.
func (s Settings) ProviderType() llm.ProviderType {
	pt, _ := llm.ParseProviderType(s.LLM.Provider)
	return pt
}

// ModelFor returns the model for a provider, checking <PROVIDER>_MODEL first.
func ModelFor(pt llm.ProviderType) string {
	if val := os.Getenv(strings.ToUpper(pt.String()) + "_MODEL"); val != "" {
		return val
	}
	return pt.DefaultModel()
}

// SupportedProviders returns the canonical provider names.
func SupportedProviders() []string {
	return []string{
		llm.ProviderGemini.String(),
		llm.ProviderOpenAI.String(),
		llm.ProviderAnthropic.String(),
		llm.ProviderDeepSeek.String(),
	}
}

// Validate rejects out-of-range values.
func (s Settings) Validate() error {
	g := s.Generation
	switch {
	case g.Temperature < 0 || g.Temperature > 2:
		return fmt.Errorf("%w: temperature %v outside [0, 2]", ErrInvalidSetting, g.Temperature)
	case g.TopP <= 0 || g.TopP > 1:
		return fmt.Errorf("%w: top_p %v outside (0, 1]", ErrInvalidSetting, g.TopP)
	case g.MaxOutputTokens <= 0:
		return fmt.Errorf("%w: max_output_tokens must be positive", ErrInvalidSetting)
	case g.ThinkingBudget < 0:
		return fmt.Errorf("%w: thinking_budget must not be negative", ErrInvalidSetting)
	case g.MaxHistory < 0:
		return fmt.Errorf("%w: max_history must not be negative", ErrInvalidSetting)
	case g.ModelTimeout < 0:
		return fmt.Errorf("%w: model_timeout must not be negative", ErrInvalidSetting)
	case s.Pricing.InputPerMillion < 0 || s.Pricing.OutputPerMillion < 0:
		return fmt.Errorf("%w: pricing rates must not be negative", ErrInvalidSetting)
	}

	switch s.Storage.Driver {
	case DriverSqlite:
		if s.Storage.Path == "" {
			return fmt.Errorf("%w: storage.path is required for sqlite", ErrInvalidSetting)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("%w: unknown storage driver %q", ErrInvalidSetting, s.Storage.Driver)
	}
	return nil
}

// expandEnv resolves values written as ${VAR} in the config file.
func expandEnv(val string) string {
	if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
		return os.Getenv(val[2 : len(val)-1])
	}
	return val
}
