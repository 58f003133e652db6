package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/user/crawler-panel/pkg/utils"
)

const (
	DefaultAPIURL      = "http://localhost:8000"
	defaultSessionTTL  = 720
	defaultInFlightTTL = 120
	defaultMemoryMax   = 10000
)

// Config holds the panel configuration.
type Config struct {
	ServerPort string `mapstructure:"SERVER_PORT"`
	LogLevel   string `mapstructure:"LOG_LEVEL"`
	LogFormat  string `mapstructure:"LOG_FORMAT"`

	// APIURL is the base URL of the crawler API the panel drives.
	APIURL   string `mapstructure:"API_URL"`
	ProxyURL string `mapstructure:"PROXY_URL"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	// MemoryMaxEntries caps the in-memory page state store used without Redis.
	MemoryMaxEntries int `mapstructure:"MEMORY_MAX_ENTRIES"`

	SessionSecret      string `mapstructure:"SESSION_SECRET"`
	SessionTTLMinutes  int    `mapstructure:"SESSION_TTL_MINUTES"`
	InFlightTTLMinutes int    `mapstructure:"INFLIGHT_TTL_MINUTES"`
}

// SessionTTL is how long a browser session and its page state live.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

// InFlightTTL bounds how long a submission lock may be held.
func (c *Config) InFlightTTL() time.Duration {
	return time.Duration(c.InFlightTTLMinutes) * time.Minute
}

// Load reads configuration from environment variables and, optionally, a file.
// With an empty path a .env file in the working directory is used if present.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
		if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext == "" {
			v.SetConfigType("env")
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigFile(".env")
		v.SetConfigType("env")
		// Not present in most deployments; environment variables are enough.
		_ = v.ReadInConfig()
	}

	v.AutomaticEnv()
	_ = v.BindEnv("API_URL", "API_URL", "NEXT_PUBLIC_API_URL")

	v.SetDefault("SERVER_PORT", "3000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("API_URL", DefaultAPIURL)
	v.SetDefault("PROXY_URL", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("MEMORY_MAX_ENTRIES", defaultMemoryMax)
	v.SetDefault("SESSION_SECRET", "")
	v.SetDefault("SESSION_TTL_MINUTES", defaultSessionTTL)
	v.SetDefault("INFLIGHT_TTL_MINUTES", defaultInFlightTTL)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	apiURL, err := utils.NormalizeBaseURL(c.APIURL)
	if err != nil {
		return fmt.Errorf("invalid API_URL %q: %w", c.APIURL, err)
	}
	c.APIURL = apiURL

	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))

	if c.SessionTTLMinutes <= 0 {
		c.SessionTTLMinutes = defaultSessionTTL
	}
	if c.InFlightTTLMinutes <= 0 {
		c.InFlightTTLMinutes = defaultInFlightTTL
	}
	if c.MemoryMaxEntries <= 0 {
		c.MemoryMaxEntries = defaultMemoryMax
	}

	if c.SessionSecret == "" {
		secret, err := randomSecret()
		if err != nil {
			return fmt.Errorf("generate session secret: %w", err)
		}
		c.SessionSecret = secret
	}
	return nil
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
