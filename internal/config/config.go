// Package config loads the explorer proxy settings from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"

	"github.com/Sternrassler/flare-explorer-client/pkg/client"
	"github.com/Sternrassler/flare-explorer-client/pkg/logging"
)

// Config captures the runtime settings of the proxy.
type Config struct {
	ListenAddress string         `yaml:"listen"`
	Explorer      ExplorerConfig `yaml:"explorer"`
	Redis         RedisConfig    `yaml:"redis"`
	Log           LogConfig      `yaml:"log"`
	Walk          WalkConfig     `yaml:"walk"`
}

// ExplorerConfig describes how the upstream explorer is reached.
type ExplorerConfig struct {
	Endpoint       string        `yaml:"endpoint"`
	UserAgent      string        `yaml:"user_agent"`
	Timeout        time.Duration `yaml:"timeout"`
	MaxRetries     int           `yaml:"max_retries"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
}

// RedisConfig enables the rate limit tracker and walk checkpoints when URL is set.
// URL is either host:port or a redis:// URL.
type RedisConfig struct {
	URL           string        `yaml:"url"`
	CheckpointTTL time.Duration `yaml:"checkpoint_ttl"`
}

// LogConfig selects the log level and format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// WalkConfig bounds the collection endpoints that drain several pages.
type WalkConfig struct {
	MaxPages    int           `yaml:"max_pages"`
	PageTimeout time.Duration `yaml:"page_timeout"`
}

// Default returns the configuration used when neither file nor environment set a value.
func Default() Config {
	cc := client.DefaultConfig()
	return Config{
		ListenAddress: ":8080",
		Explorer: ExplorerConfig{
			Endpoint:       cc.Endpoint,
			UserAgent:      cc.UserAgent,
			Timeout:        cc.Timeout,
			MaxRetries:     cc.MaxRetries,
			InitialBackoff: cc.InitialBackoff,
			MaxBackoff:     cc.MaxBackoff,
		},
		Log: LogConfig{
			Level: "info",
		},
		Walk: WalkConfig{
			MaxPages:    10,
			PageTimeout: 15 * time.Second,
		},
	}
}

// Load reads the YAML configuration at path, if any, and applies environment
// overrides on top of it. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return cfg, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := yaml.NewDecoder(file)
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("decode config: %w", err)
		}
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup("EXPLORER_ENDPOINT"); ok && v != "" {
		cfg.Explorer.Endpoint = v
	}
	if v, ok := lookup("USER_AGENT"); ok && v != "" {
		cfg.Explorer.UserAgent = v
	}
	if v, ok := lookup("REDIS_URL"); ok {
		cfg.Redis.URL = v
	}
	if v, ok := lookup("PORT"); ok && v != "" {
		cfg.ListenAddress = ":" + strings.TrimPrefix(v, ":")
	}
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		cfg.Log.Level = v
	}
	if v, ok := lookup("LOG_PRETTY"); ok && v != "" {
		pretty, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("LOG_PRETTY: %w", err)
		}
		cfg.Log.Pretty = pretty
	}
	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.ListenAddress == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.Explorer.Endpoint == "" {
		return fmt.Errorf("explorer.endpoint is required")
	}
	if c.Explorer.MaxRetries < 0 {
		return fmt.Errorf("explorer.max_retries must be >= 0 (got %d)", c.Explorer.MaxRetries)
	}
	if c.Explorer.Timeout <= 0 {
		return fmt.Errorf("explorer.timeout must be positive (got %s)", c.Explorer.Timeout)
	}
	if c.Walk.MaxPages < 1 {
		return fmt.Errorf("walk.max_pages must be >= 1 (got %d)", c.Walk.MaxPages)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error: %w", c.Log.Level, err)
	}
	return nil
}

// ClientConfig returns the explorer client configuration. Logger, HTTP client
// and rate limiter are left for the caller to wire.
func (c Config) ClientConfig() client.Config {
	cc := client.DefaultConfig()
	cc.Endpoint = c.Explorer.Endpoint
	cc.UserAgent = c.Explorer.UserAgent
	cc.Timeout = c.Explorer.Timeout
	cc.MaxRetries = c.Explorer.MaxRetries
	if c.Explorer.InitialBackoff > 0 {
		cc.InitialBackoff = c.Explorer.InitialBackoff
	}
	if c.Explorer.MaxBackoff > 0 {
		cc.MaxBackoff = c.Explorer.MaxBackoff
	}
	return cc
}

// LoggingConfig returns the logger configuration.
func (c Config) LoggingConfig() logging.Config {
	return logging.Config{Level: c.Log.Level, Pretty: c.Log.Pretty}
}

// RedisEnabled reports whether a Redis URL is configured.
func (c Config) RedisEnabled() bool {
	return c.Redis.URL != ""
}

// RedisOptions parses the Redis URL. Plain host:port values are accepted.
func (c Config) RedisOptions() (*redis.Options, error) {
	if !c.RedisEnabled() {
		return nil, fmt.Errorf("redis url not configured")
	}
	if strings.Contains(c.Redis.URL, "://") {
		opts, err := redis.ParseURL(c.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return opts, nil
	}
	return &redis.Options{Addr: c.Redis.URL}, nil
}
