package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string            `yaml:"environment" default:"development" validate:"required,oneof=development staging production test"`
	Server      ServerConfig      `yaml:"server"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Backend     BackendConfig     `yaml:"backend"`
	Feeds       FeedsConfig       `yaml:"feeds"`
	Session     SessionConfig     `yaml:"session"`
	Logging     LoggingConfig     `yaml:"logging"`
	LogShipping LogShippingConfig `yaml:"log_shipping"`
}

type ServerConfig struct {
	Port            int           `yaml:"port" default:"8080" validate:"gt=0,lte=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s" validate:"gt=0"`
	AllowOrigins    []string      `yaml:"allow_origins" default:"[\"*\"]"`
	// LoginRate is the sustained login attempts per second per client.
	LoginRate  float64 `yaml:"login_rate" default:"0.2" validate:"gt=0"`
	LoginBurst int     `yaml:"login_burst" default:"5" validate:"gt=0"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" default:"true"`
	Path    string `yaml:"path" default:"/metrics" validate:"startswith=/"`
}

type BackendConfig struct {
	BaseURL   string        `yaml:"base_url" default:"http://localhost:8000" validate:"required,url"`
	Timeout   time.Duration `yaml:"timeout" default:"10s" validate:"gt=0"`
	UserAgent string        `yaml:"user_agent" default:"dashsync/1.0"`
}

type FeedsConfig struct {
	PriceInterval      time.Duration `yaml:"price_interval" default:"1s" validate:"gt=0"`
	NewsInterval       time.Duration `yaml:"news_interval" default:"300s" validate:"gt=0"`
	PredictionInterval time.Duration `yaml:"prediction_interval" default:"300s" validate:"gt=0"`
	HistoryInterval    time.Duration `yaml:"history_interval" default:"60s" validate:"gt=0"`
	NewsTTL            time.Duration `yaml:"news_ttl" default:"300s" validate:"gt=0"`
	NewsLimit          int           `yaml:"news_limit" default:"10" validate:"gt=0,lte=100"`
	HistoryRange       string        `yaml:"history_range" default:"7d" validate:"oneof=1d 7d 30d"`
}

type SessionConfig struct {
	Store    string      `yaml:"store" default:"file" validate:"oneof=file redis memory"`
	FilePath string      `yaml:"file_path" default:".dashsync/session.yaml"`
	Redis    RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" default:"localhost:6379"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db" validate:"gte=0"`
	Prefix   string `yaml:"prefix" default:"dashsync"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" default:"json" validate:"oneof=json console"`
	Output string `yaml:"output" default:"stdout"`
}

type LogShippingConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Brokers   []string      `yaml:"brokers" validate:"required_if=Enabled true"`
	Topic     string        `yaml:"topic" default:"dashsync.logs"`
	Interval  time.Duration `yaml:"interval" default:"30s" validate:"gt=0"`
	Threshold int           `yaml:"threshold" default:"100" validate:"gt=0"`
}

var validate = validator.New()

// Default returns a configuration with every default applied.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	return &c, nil
}

// Load reads and parses a YAML configuration file on top of the defaults.
func Load(path string) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML and overrides it with environment
// variables. A missing file is not an error; defaults are used instead.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}

	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(b, c); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	c.applyEnv()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("DASHSYNC_ENV"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("DASHSYNC_BACKEND_URL"); v != "" {
		c.Backend.BaseURL = v
	}
	if v := os.Getenv("DASHSYNC_TOKEN_STORE"); v != "" {
		c.Session.Store = v
	}
	if v := os.Getenv("DASHSYNC_TOKEN_FILE"); v != "" {
		c.Session.FilePath = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Session.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Session.Redis.Password = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.LogShipping.Brokers = strings.Split(v, ",")
		c.LogShipping.Enabled = true
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%s failed %q (value %v)", strings.ToLower(fe.Namespace()), fe.Tag(), fe.Value())
		}
		return err
	}
	if c.Session.Store == "file" && c.Session.FilePath == "" {
		return fmt.Errorf("session.file_path is required for the file store")
	}
	return nil
}
