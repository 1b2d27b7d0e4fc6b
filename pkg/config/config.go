package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/zen-systems/markerart/pkg/provider"
	"gopkg.in/yaml.v3"
)

// Config holds the process-wide configuration. It is built once at startup
// and handed to the adapters; nothing reads the environment after Load.
type Config struct {
	OpenAIAPIKey    string `yaml:"-"`
	AnthropicAPIKey string `yaml:"-"`
	GoogleAPIKey    string `yaml:"-"`
	DeepSeekAPIKey  string `yaml:"-"`
	StabilityAPIKey string `yaml:"-"`

	Ideas    IdeasConfig   `yaml:"ideas"`
	Image    ImageConfig   `yaml:"image"`
	Server   ServerConfig  `yaml:"server"`
	Envelope string        `yaml:"envelope" validate:"oneof=wrapped bare"`
	Timeout  time.Duration `yaml:"timeout" validate:"gt=0"`
	Log      LogConfig     `yaml:"log"`

	// Aliases maps short names to canonical model ids, merged over
	// DefaultAliases. AliasesFile entries are merged first.
	Aliases     map[string]string `yaml:"aliases"`
	AliasesFile string            `yaml:"aliases_file"`
	// ProviderModels adds models to the built-in per-provider lists used
	// to validate the configured model.
	ProviderModels map[string][]string `yaml:"provider_models"`

	ConfigDir string `yaml:"-"`
}

// IdeasConfig configures the idea generation adapter.
type IdeasConfig struct {
	Provider    string  `yaml:"provider" validate:"oneof=openai anthropic google deepseek mock"`
	Model       string  `yaml:"model" validate:"required,modelid"`
	Temperature float64 `yaml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int     `yaml:"max_tokens" validate:"gte=0"`
	BaseURL     string  `yaml:"base_url" validate:"omitempty,url"`
}

// ImageConfig configures the image generation adapter.
type ImageConfig struct {
	Endpoint     string  `yaml:"endpoint" validate:"required,url"`
	StylePreset  string  `yaml:"style_preset"`
	CfgScale     float64 `yaml:"cfg_scale" validate:"gte=0,lte=35"`
	Width        int     `yaml:"width" validate:"gt=0"`
	Height       int     `yaml:"height" validate:"gt=0"`
	Samples      int     `yaml:"samples" validate:"gte=1,lte=10"`
	Steps        int     `yaml:"steps" validate:"gte=10,lte=50"`
	Seed         int64   `yaml:"seed" validate:"gte=0"`
	PromptWeight float64 `yaml:"prompt_weight" validate:"gt=0"`
}

// ServerConfig configures the HTTP front.
type ServerConfig struct {
	Addr string `yaml:"addr" validate:"required"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// Default returns the configuration used when no file overrides it.
func Default() *Config {
	return &Config{
		Ideas: IdeasConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			Temperature: 0.7,
		},
		Image: ImageConfig{
			Endpoint:     provider.StabilityEndpoint,
			StylePreset:  "digital-art",
			CfgScale:     7,
			Width:        1024,
			Height:       1024,
			Samples:      1,
			Steps:        30,
			PromptWeight: 1.0,
		},
		Server:   ServerConfig{Addr: ":8080"},
		Envelope: "wrapped",
		Timeout:  60 * time.Second,
		Log:      LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads configuration from the config file and environment variables.
// path may be empty, in which case ~/.markerart/config.yaml is used when it
// exists. API keys are only ever taken from the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	configDir, err := getConfigDir()
	if err == nil {
		cfg.ConfigDir = configDir
	}

	if path == "" && configDir != "" {
		path = filepath.Join(configDir, "config.yaml")
		if _, err := os.Stat(path); err != nil {
			path = ""
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if cfg.AliasesFile != "" {
		fileAliases, err := LoadAliases(cfg.AliasesFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load aliases: %w", err)
		}
		merged := fileAliases.Aliases
		for k, v := range cfg.Aliases {
			merged[k] = v
		}
		cfg.Aliases = merged

		models := fileAliases.Providers
		for name, list := range cfg.ProviderModels {
			models[name] = appendMissing(models[name], list...)
		}
		cfg.ProviderModels = models
	}

	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.AnthropicAPIKey = os.Getenv("ANTHROPIC_API_KEY")
	cfg.GoogleAPIKey = os.Getenv("GOOGLE_API_KEY")
	cfg.DeepSeekAPIKey = os.Getenv("DEEPSEEK_API_KEY")
	cfg.StabilityAPIKey = os.Getenv("STABILITY_API_KEY")

	cfg.Envelope = getEnvOrDefault("MARKERART_ENVELOPE", cfg.Envelope)
	cfg.Log.Level = getEnvOrDefault("MARKERART_LOG_LEVEL", cfg.Log.Level)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the adapters cannot use.
func (c *Config) Validate() error {
	err := newValidator().Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("invalid config: %w", err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// APIKey returns the key configured for the named provider.
func (c *Config) APIKey(name string) string {
	switch name {
	case "openai":
		return c.OpenAIAPIKey
	case "anthropic":
		return c.AnthropicAPIKey
	case "google":
		return c.GoogleAPIKey
	case "deepseek":
		return c.DeepSeekAPIKey
	case "stability":
		return c.StabilityAPIKey
	default:
		return ""
	}
}

// HasKey returns true if the API key for the given provider is configured.
func (c *Config) HasKey(name string) bool {
	return c.APIKey(name) != ""
}

// ModelAliases returns the default aliases with configured overrides and
// the built-in provider model lists extended by ProviderModels.
func (c *Config) ModelAliases() *ModelAliases {
	aliases := DefaultAliases()
	for k, v := range c.Aliases {
		aliases.Aliases[k] = v
	}
	for name, list := range c.ProviderModels {
		aliases.Providers[name] = appendMissing(aliases.Providers[name], list...)
	}
	return aliases
}

func appendMissing(list []string, models ...string) []string {
	for _, m := range models {
		if !slices.Contains(list, m) {
			list = append(list, m)
		}
	}
	return list
}

func newValidator() *validator.Validate {
	v := validator.New()
	// A model id must start with a letter: a bare version suffix such as
	// "4o-mini" is not a model.
	_ = v.RegisterValidation("modelid", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" {
			return false
		}
		return unicode.IsLetter([]rune(s)[0]) && !strings.ContainsAny(s, " \t\n")
	})
	return v
}

// getEnvOrDefault returns the environment variable value if set,
// otherwise returns the default value.
func getEnvOrDefault(envVar, defaultValue string) string {
	if val := os.Getenv(envVar); val != "" {
		return val
	}
	return defaultValue
}

func getConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".markerart"), nil
}
