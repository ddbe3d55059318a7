// Package config loads runtime configuration from defaults, an optional YAML
// file, .env and the environment, in that order of precedence (last wins).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kamilpajak/nutrilens/internal/logging"
	"github.com/kamilpajak/nutrilens/internal/vision"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// Config holds the whole service configuration.
type Config struct {
	Env      string         `yaml:"env"`
	HTTP     HTTPConfig     `yaml:"http"`
	Provider ProviderConfig `yaml:"provider"`
	Fallback FallbackConfig `yaml:"fallback"`
	Image    ImageConfig    `yaml:"image"`
	Log      LogConfig      `yaml:"log"`
}

type HTTPConfig struct {
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
}

type ProviderConfig struct {
	Kind              string        `yaml:"kind"`
	APIKey            string        `yaml:"api_key"`
	Model             string        `yaml:"model"`
	BaseURL           string        `yaml:"base_url"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
}

type FallbackConfig struct {
	Enabled bool `yaml:"enabled"`
}

type ImageConfig struct {
	MaxDimension int `yaml:"max_dimension"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Env: EnvDevelopment,
		HTTP: HTTPConfig{
			Port:           8080,
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   90 * time.Second,
			MaxUploadBytes: 10 << 20,
		},
		Provider: ProviderConfig{
			Kind:    string(vision.KindMock),
			Timeout: 60 * time.Second,
		},
		Fallback: FallbackConfig{Enabled: true},
		Image:    ImageConfig{MaxDimension: 1568},
		Log:      LogConfig{Level: "info", Format: "text"},
	}
}

// Load builds the configuration. path may be empty to skip the YAML file.
func Load(path string) (*Config, error) {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Env = getEnv("NUTRILENS_ENV", c.Env)
	c.Provider.Kind = getEnv("NUTRILENS_PROVIDER", c.Provider.Kind)
	c.Provider.APIKey = getEnv("NUTRILENS_API_KEY", c.Provider.APIKey)
	c.Provider.Model = getEnv("NUTRILENS_MODEL", c.Provider.Model)
	c.Provider.BaseURL = getEnv("NUTRILENS_BASE_URL", c.Provider.BaseURL)
	c.Log.Level = getEnv("NUTRILENS_LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("NUTRILENS_LOG_FORMAT", c.Log.Format)

	if c.Provider.APIKey == "" {
		c.Provider.APIKey = os.Getenv(providerKeyVar(c.Provider.Kind))
	}

	var err error
	if c.HTTP.Port, err = getEnvInt("NUTRILENS_PORT", c.HTTP.Port); err != nil {
		return err
	}
	if c.Provider.RequestsPerMinute, err = getEnvInt("NUTRILENS_REQUESTS_PER_MINUTE", c.Provider.RequestsPerMinute); err != nil {
		return err
	}
	if c.Image.MaxDimension, err = getEnvInt("NUTRILENS_MAX_IMAGE_DIMENSION", c.Image.MaxDimension); err != nil {
		return err
	}
	if c.Provider.Timeout, err = getEnvDuration("NUTRILENS_PROVIDER_TIMEOUT", c.Provider.Timeout); err != nil {
		return err
	}
	if c.Fallback.Enabled, err = getEnvBool("NUTRILENS_FALLBACK", c.Fallback.Enabled); err != nil {
		return err
	}
	if v := os.Getenv("NUTRILENS_MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid NUTRILENS_MAX_UPLOAD_BYTES %q: %w", v, err)
		}
		c.HTTP.MaxUploadBytes = n
	}
	return nil
}

// providerKeyVar is the conventional API key variable for a provider kind.
func providerKeyVar(kind string) string {
	switch vision.Kind(kind) {
	case vision.KindGoogle:
		return "GOOGLE_API_KEY"
	case vision.KindOpenAI:
		return "OPENAI_API_KEY"
	case vision.KindAnthropic:
		return "ANTHROPIC_API_KEY"
	default:
		return ""
	}
}

// Validate checks that the configuration can start a service.
func (c *Config) Validate() error {
	switch c.Env {
	case EnvDevelopment, EnvProduction, EnvTest:
	default:
		return fmt.Errorf("invalid env %q (expected development, production or test)", c.Env)
	}

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.HTTP.Port)
	}
	if c.HTTP.MaxUploadBytes <= 0 {
		return errors.New("max upload size must be positive")
	}
	if c.Image.MaxDimension < 0 {
		return errors.New("max image dimension must not be negative")
	}
	if c.Provider.Timeout <= 0 {
		return errors.New("provider timeout must be positive")
	}
	if c.Provider.RequestsPerMinute < 0 {
		return errors.New("requests per minute must not be negative")
	}

	switch vision.Kind(c.Provider.Kind) {
	case vision.KindMock:
	case vision.KindGoogle, vision.KindOpenAI, vision.KindAnthropic:
		if c.IsProduction() && c.Provider.APIKey == "" {
			return fmt.Errorf("provider %q requires an API key in production (set NUTRILENS_API_KEY or %s)",
				c.Provider.Kind, providerKeyVar(c.Provider.Kind))
		}
	default:
		return fmt.Errorf("unknown provider %q", c.Provider.Kind)
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q (expected text or json)", c.Log.Format)
	}
	return nil
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// VisionOptions returns the provider factory options. Outside production a
// real provider without a key degrades to the mock estimator.
func (c *Config) VisionOptions() vision.Options {
	return vision.Options{
		Kind:                vision.Kind(c.Provider.Kind),
		APIKey:              c.Provider.APIKey,
		Model:               c.Provider.Model,
		BaseURL:             c.Provider.BaseURL,
		Timeout:             c.Provider.Timeout,
		RequestsPerMinute:   c.Provider.RequestsPerMinute,
		AllowMockWithoutKey: !c.IsProduction(),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return d, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return b, nil
}
