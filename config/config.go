// Package config loads Vigil's runtime configuration from config.yaml plus
// VIGIL_-prefixed environment variables, and the alert rule set from a
// separate rules file.
package config

import (
	"fmt"
	"strings"
	"time"

	"vigil/notify"

	"github.com/spf13/viper"
)

// Config holds all configuration for the Vigil service.
type Config struct {
	API struct {
		Host string `mapstructure:"host"`
		Port int    `mapstructure:"port"`
		// Per-client request rate limiting
		RateLimit struct {
			RequestsPerSecond int `mapstructure:"requests_per_second"`
			Burst             int `mapstructure:"burst"`
		} `mapstructure:"rate_limit"`
	} `mapstructure:"api"`

	Engine struct {
		// RulesFile is the YAML rule set path (VIGIL_RULES_FILE)
		RulesFile string `mapstructure:"rules_file"`
		// Dispatch worker pool sizing
		DispatchWorkers int `mapstructure:"dispatch_workers"`
		DispatchQueue   int `mapstructure:"dispatch_queue"`
	} `mapstructure:"engine"`

	Storage struct {
		// Backend selects the alert store: "memory" or "sqlite"
		Backend string `mapstructure:"backend"`
		// SQLitePath is the database file path when backend is sqlite
		SQLitePath string `mapstructure:"sqlite_path"`
	} `mapstructure:"storage"`

	SMTP    notify.EmailConfig   `mapstructure:"smtp"`
	Webhook notify.WebhookConfig `mapstructure:"webhook"`
}

func setDefaults() {
	viper.SetDefault("api.host", "0.0.0.0")
	viper.SetDefault("api.port", 8080)
	viper.SetDefault("api.rate_limit.requests_per_second", 50)
	viper.SetDefault("api.rate_limit.burst", 100)

	viper.SetDefault("engine.rules_file", "rules.yaml")
	viper.SetDefault("engine.dispatch_workers", 4)
	viper.SetDefault("engine.dispatch_queue", 256)

	viper.SetDefault("storage.backend", "memory")
	viper.SetDefault("storage.sqlite_path", "./data/vigil.db")

	viper.SetDefault("smtp.host", "localhost")
	viper.SetDefault("smtp.port", 587)
	viper.SetDefault("smtp.from", "vigil@localhost")

	viper.SetDefault("webhook.timeout", notify.DefaultWebhookTimeout)
}

func loadFromEnv() {
	viper.SetEnvPrefix("VIGIL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Shorter names for the settings most often set in deployment
	_ = viper.BindEnv("engine.rules_file", "VIGIL_RULES_FILE")
	_ = viper.BindEnv("storage.sqlite_path", "VIGIL_SQLITE_PATH")
	_ = viper.BindEnv("smtp.password", "VIGIL_SMTP_PASSWORD")
}

// LoadConfig loads configuration from file and environment variables.
// A missing config file is not an error; defaults and env vars apply.
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	setDefaults()
	loadFromEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("unable to read config: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func validate(config *Config) error {
	if config.API.Port < 1 || config.API.Port > 65535 {
		return fmt.Errorf("api.port must be between 1 and 65535, got %d", config.API.Port)
	}
	switch config.Storage.Backend {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("storage.backend must be memory or sqlite, got %q", config.Storage.Backend)
	}
	if config.Engine.DispatchWorkers < 1 {
		return fmt.Errorf("engine.dispatch_workers must be positive, got %d", config.Engine.DispatchWorkers)
	}
	if config.Engine.DispatchQueue < 1 {
		return fmt.Errorf("engine.dispatch_queue must be positive, got %d", config.Engine.DispatchQueue)
	}
	if config.Webhook.Timeout <= 0 {
		config.Webhook.Timeout = notify.DefaultWebhookTimeout
	}
	return nil
}

// Address returns the host:port the API server binds.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.API.Host, c.API.Port)
}

// ShutdownTimeout is how long in-flight requests and queued dispatches get
// to finish before the process exits.
const ShutdownTimeout = 15 * time.Second
