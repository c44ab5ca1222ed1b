package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Storage engines
const (
	EnginePebble = "pebble"
	EngineBolt   = "bolt"
)

// Config represents the application configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Chain   ChainConfig   `yaml:"chain"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig represents the HTTP server configuration
type ServerConfig struct {
	Port      int             `yaml:"port"`
	Host      string          `yaml:"host"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig limits how often clients may request mining
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"` // 0 disables the limiter
	Burst int     `yaml:"burst"`
}

// StorageConfig represents the database configuration
type StorageConfig struct {
	Engine string `yaml:"engine"` // pebble|bolt
	Path   string `yaml:"path"`
	NoSync bool   `yaml:"no_sync"` // skip fsync per write, flushed on shutdown
}

// ChainConfig represents the ledger parameters
type ChainConfig struct {
	Difficulty  int  `yaml:"difficulty"`
	AllowTamper bool `yaml:"allow_tamper"` // exposes the tamper debug endpoint
}

// LogConfig represents the logger configuration
type LogConfig struct {
	Level  string `yaml:"level"`  // debug|info|warn|error
	Format string `yaml:"format"` // json|text
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
			Host: "0.0.0.0",
			RateLimit: RateLimitConfig{
				RPS:   2,
				Burst: 4,
			},
		},
		Storage: StorageConfig{
			Engine: EnginePebble,
			Path:   "./data/ledger",
		},
		Chain: ChainConfig{
			Difficulty: 2,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load loads configuration from a YAML file and environment variables
func Load(path string) (*Config, error) {
	cfg := Default()

	// Load from YAML file if it exists
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	// Override with environment variables
	cfg.loadEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the ledger cannot run with
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.RateLimit.RPS < 0 {
		return fmt.Errorf("invalid rate limit: %v", c.Server.RateLimit.RPS)
	}
	switch c.Storage.Engine {
	case EnginePebble, EngineBolt:
	default:
		return fmt.Errorf("unknown storage engine: %q", c.Storage.Engine)
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("storage path is required")
	}
	if c.Chain.Difficulty < 0 || c.Chain.Difficulty > 64 {
		return fmt.Errorf("invalid chain difficulty: %d", c.Chain.Difficulty)
	}
	return nil
}

func (c *Config) loadEnv() {
	// Server config
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		c.Server.Host = host
	}
	if rps := os.Getenv("RATE_LIMIT_RPS"); rps != "" {
		if r, err := strconv.ParseFloat(rps, 64); err == nil {
			c.Server.RateLimit.RPS = r
		}
	}
	if burst := os.Getenv("RATE_LIMIT_BURST"); burst != "" {
		if b, err := strconv.Atoi(burst); err == nil {
			c.Server.RateLimit.Burst = b
		}
	}

	// Storage config
	if engine := os.Getenv("STORAGE_ENGINE"); engine != "" {
		c.Storage.Engine = strings.ToLower(engine)
	}
	if path := os.Getenv("STORAGE_PATH"); path != "" {
		c.Storage.Path = path
	}
	if noSync := os.Getenv("STORAGE_NO_SYNC"); noSync != "" {
		c.Storage.NoSync = noSync == "true" || noSync == "1"
	}

	// Chain config
	if difficulty := os.Getenv("CHAIN_DIFFICULTY"); difficulty != "" {
		if d, err := strconv.Atoi(difficulty); err == nil {
			c.Chain.Difficulty = d
		}
	}
	if allow := os.Getenv("CHAIN_ALLOW_TAMPER"); allow != "" {
		c.Chain.AllowTamper = allow == "true" || allow == "1"
	}

	// Log config
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if format := os.Getenv("LOG_FORMAT"); format != "" {
		c.Log.Format = format
	}
}
