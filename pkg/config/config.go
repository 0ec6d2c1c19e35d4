// pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	defaultEnvFile   = ".env"
	defaultEnvPrefix = "TENDER"
)

// Config holds all configuration for the application
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	API     APIConfig     `mapstructure:"api"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Kafka   KafkaConfig   `mapstructure:"kafka"`
	Batch   BatchConfig   `mapstructure:"batch"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Format      string `mapstructure:"format"`
	Environment string `mapstructure:"environment"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Namespace string `mapstructure:"namespace"`
}

// APIConfig holds API-related configuration
type APIConfig struct {
	Port               string        `mapstructure:"port"`
	CORSAllowedOrigins []string      `mapstructure:"cors_allowed_origins"`
	RateLimit          int           `mapstructure:"rate_limit"`
	RateWindow         time.Duration `mapstructure:"rate_window"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout"`
}

// AuthConfig holds authentication-related configuration
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

// KafkaConfig holds outcome publishing configuration. An empty broker list
// disables publishing.
type KafkaConfig struct {
	Brokers     string `mapstructure:"brokers"`
	TopicPrefix string `mapstructure:"topic_prefix"`
}

// BatchConfig holds batch driver configuration
type BatchConfig struct {
	File string `mapstructure:"file"`
}

// LoadOptions controls where configuration is read from
type LoadOptions struct {
	// ConfigFile is an optional YAML/JSON/TOML file
	ConfigFile string
	// EnvFile is a dotenv file loaded into the environment. The default
	// file may be absent; an explicitly named one may not.
	EnvFile string
	// EnvPrefix prefixes every environment variable, e.g. TENDER_LOG_LEVEL
	EnvPrefix string
	// Flags are bound over every other source when set on the command line
	Flags *pflag.FlagSet
	// Defaults replace built-in defaults, e.g. a daemon logging JSON
	Defaults map[string]interface{}
}

// DefaultLoadOptions returns the options used by Load
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		EnvFile:   defaultEnvFile,
		EnvPrefix: defaultEnvPrefix,
	}
}

// flagKeys maps command-line flag names onto configuration keys
var flagKeys = map[string]string{
	"log-level":     "log.level",
	"log-format":    "log.format",
	"port":          "api.port",
	"kafka-brokers": "kafka.brokers",
	"batch":         "batch.file",
}

// Load loads configuration from defaults, .env and environment variables
func Load() (*Config, error) {
	return LoadWithOptions(DefaultLoadOptions())
}

// LoadWithOptions loads configuration. Precedence, highest first: changed
// flags, environment, config file, defaults.
func LoadWithOptions(opts LoadOptions) (*Config, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil {
			if !(errors.Is(err, fs.ErrNotExist) && opts.EnvFile == defaultEnvFile) {
				return nil, fmt.Errorf("failed to load env file %s: %w", opts.EnvFile, err)
			}
		}
	}

	v := viper.New()
	setDefaults(v)
	for key, value := range opts.Defaults {
		v.SetDefault(key, value)
	}

	if opts.EnvPrefix != "" {
		v.SetEnvPrefix(opts.EnvPrefix)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", opts.ConfigFile, err)
		}
	}

	if opts.Flags != nil {
		for name, key := range flagKeys {
			if flag := opts.Flags.Lookup(name); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.environment", "development")

	v.SetDefault("metrics.namespace", "tender")

	v.SetDefault("api.port", "8080")
	v.SetDefault("api.cors_allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("api.rate_limit", 100)
	v.SetDefault("api.rate_window", time.Minute)
	v.SetDefault("api.shutdown_timeout", 10*time.Second)

	v.SetDefault("auth.jwt_secret", "")

	v.SetDefault("kafka.brokers", "")
	v.SetDefault("kafka.topic_prefix", "payments")

	v.SetDefault("batch.file", "")
}

// Validate checks values that would otherwise fail later at runtime
func (c *Config) Validate() error {
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q: want text or json", c.Log.Format)
	}

	if c.API.RateLimit <= 0 {
		return fmt.Errorf("api.rate_limit must be positive, got %d", c.API.RateLimit)
	}
	if c.API.RateWindow <= 0 {
		return fmt.Errorf("api.rate_window must be positive, got %s", c.API.RateWindow)
	}

	return nil
}
