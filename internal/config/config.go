package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig              `mapstructure:"server"`
	Log         LogConfig                 `mapstructure:"log"`
	RateLimit   RateLimitConfig           `mapstructure:"rate_limit"`
	Tracing     TracingConfig             `mapstructure:"tracing"`
	UpdateCheck UpdateCheckConfig         `mapstructure:"update_check"`
	Providers   map[string]ProviderConfig `mapstructure:"providers" validate:"dive"`

	// ServerEnv holds the variables read from the env file. It is one of the
	// credential sources handed to providers and is never written back to
	// the process environment.
	ServerEnv map[string]string `mapstructure:"-" json:"-"`

	v *viper.Viper
}

type ServerConfig struct {
	Port    string   `mapstructure:"port"`
	Env     string   `mapstructure:"env" validate:"oneof=development production test"`
	APIKeys []string `mapstructure:"api_keys" json:"-"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error fatal"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"gt=0"`
	Burst             int     `mapstructure:"burst" validate:"gt=0"`
}

type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
}

type UpdateCheckConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Repository string `mapstructure:"repository"`
}

// ProviderConfig holds per-deployment overrides for a registered provider.
type ProviderConfig struct {
	Enabled   bool          `mapstructure:"enabled" json:"enabled"`
	BaseURL   string        `mapstructure:"base_url" json:"base_url,omitempty" validate:"omitempty,url"`
	StatusURL string        `mapstructure:"status_url" json:"status_url,omitempty" validate:"omitempty,url"`
	APIURL    string        `mapstructure:"api_url" json:"api_url,omitempty" validate:"omitempty,url"`
	Timeout   time.Duration `mapstructure:"timeout" json:"timeout" validate:"gte=0"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig() (*Config, error) {
	v := viper.New()

	if file := os.Getenv("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Default Values
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.env", "development")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 10.0)
	v.SetDefault("rate_limit.burst", 20)
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "provider-hub")
	v.SetDefault("update_check.enabled", false)
	v.SetDefault("update_check.repository", "nulzo/provider-hub")
	v.SetDefault("providers.chutes.enabled", true)
	v.SetDefault("providers.chutes.timeout", "10s")

	// Environment Variables
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	cfg.v = v

	serverEnv, err := readEnvFile(v.GetString("env_file"))
	if err != nil {
		return nil, err
	}
	cfg.ServerEnv = serverEnv

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the decoded configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Lookup returns a raw value from the process environment or config file, by
// its upper-case environment name (e.g. CHUTES_API_KEY).
func (c *Config) Lookup(key string) string {
	if c.v == nil {
		return os.Getenv(key)
	}
	return c.v.GetString(key)
}

func readEnvFile(path string) (map[string]string, error) {
	if path == "" {
		path = ".env"
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("error reading env file %s: %w", path, err)
	}
	return values, nil
}
