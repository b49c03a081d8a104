package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Address         string        `yaml:"address"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Sync struct {
		Address         string        `yaml:"address"`
		PingInterval    time.Duration `yaml:"ping_interval"`
		PongTimeout     time.Duration `yaml:"pong_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"sync"`

	LiveKit struct {
		APIKey    string        `yaml:"api_key"`
		APISecret string        `yaml:"api_secret"`
		URL       string        `yaml:"url"`
		TokenTTL  time.Duration `yaml:"token_ttl"`
	} `yaml:"livekit"`

	Rooms struct {
		SuffixLength        int           `yaml:"suffix_length"`
		QuickSuffixLength   int           `yaml:"quick_suffix_length"`
		MessageHistoryLimit int           `yaml:"message_history_limit"`
		PublicListCacheTTL  time.Duration `yaml:"public_list_cache_ttl"`
	} `yaml:"rooms"`

	Reconnect struct {
		MaxAttempts  int           `yaml:"max_attempts"`
		InitialDelay time.Duration `yaml:"initial_delay"`
		MaxDelay     time.Duration `yaml:"max_delay"`
		Multiplier   float64       `yaml:"multiplier"`
	} `yaml:"reconnect"`

	Monitoring struct {
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Tracing struct {
		Enabled     bool    `yaml:"enabled"`
		JaegerURL   string  `yaml:"jaeger_url"`
		Environment string  `yaml:"environment"`
		SampleRate  float64 `yaml:"sample_rate"`
	} `yaml:"tracing"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		PoolSize int    `yaml:"pool_size"`
	} `yaml:"redis"`

	RateLimiting struct {
		Enabled bool `yaml:"enabled"`

		HTTP struct {
			RequestsPerSecond float64 `yaml:"requests_per_second"`
			Burst             int     `yaml:"burst"`
		} `yaml:"http"`
	} `yaml:"rate_limiting"`
}

// HasLiveKitCredentials reports whether all three LiveKit values are present.
// Deliberately not part of Validate: the token endpoint checks this per
// request and fails closed, so the process can still start (and report
// hasConfig=false on its health check) without credentials.
func (c *Config) HasLiveKitCredentials() bool {
	return c.LiveKit.APIKey != "" && c.LiveKit.APISecret != "" && c.LiveKit.URL != ""
}

// Validate checks that configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	// Server
	if c.Server.Address == "" {
		return fmt.Errorf("server.address must not be empty")
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be > 0")
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be > 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be > 0")
	}

	// Sync
	if c.Sync.Address == "" {
		return fmt.Errorf("sync.address must not be empty")
	}
	if c.Sync.PingInterval <= 0 {
		return fmt.Errorf("sync.ping_interval must be > 0")
	}
	if c.Sync.PongTimeout <= 0 {
		return fmt.Errorf("sync.pong_timeout must be > 0")
	}
	if c.Sync.ShutdownTimeout <= 0 {
		return fmt.Errorf("sync.shutdown_timeout must be > 0")
	}

	// LiveKit: URL scheme is checked when set, presence is not required here
	if c.LiveKit.URL != "" {
		u, err := url.Parse(c.LiveKit.URL)
		if err != nil {
			return fmt.Errorf("livekit.url is not a valid URL: %w", err)
		}
		if u.Scheme != "ws" && u.Scheme != "wss" {
			return fmt.Errorf("livekit.url must use ws or wss scheme")
		}
	}
	if c.LiveKit.TokenTTL <= 0 {
		return fmt.Errorf("livekit.token_ttl must be > 0")
	}

	// Rooms
	if c.Rooms.SuffixLength <= 0 {
		return fmt.Errorf("rooms.suffix_length must be > 0")
	}
	if c.Rooms.QuickSuffixLength <= 0 {
		return fmt.Errorf("rooms.quick_suffix_length must be > 0")
	}
	if c.Rooms.MessageHistoryLimit <= 0 {
		return fmt.Errorf("rooms.message_history_limit must be > 0")
	}

	// Reconnect
	if c.Reconnect.MaxAttempts < 0 {
		return fmt.Errorf("reconnect.max_attempts must be >= 0")
	}
	if c.Reconnect.InitialDelay <= 0 {
		return fmt.Errorf("reconnect.initial_delay must be > 0")
	}
	if c.Reconnect.MaxDelay < c.Reconnect.InitialDelay {
		return fmt.Errorf("reconnect.max_delay must be >= initial_delay")
	}
	if c.Reconnect.Multiplier < 1 {
		return fmt.Errorf("reconnect.multiplier must be >= 1")
	}

	// Monitoring
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort <= 0 {
		return fmt.Errorf("monitoring.prometheus_port must be > 0 when prometheus_enabled=true")
	}

	// Logging
	if c.Logging.Level == "" {
		return fmt.Errorf("logging.level must not be empty")
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Address == "" {
			return fmt.Errorf("redis.address must not be empty when redis.enabled=true")
		}
		if c.Redis.PoolSize <= 0 {
			return fmt.Errorf("redis.pool_size must be > 0 when redis.enabled=true")
		}
	}

	// Rate limiting
	if c.RateLimiting.Enabled {
		if c.RateLimiting.HTTP.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate_limiting.http.requests_per_second must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.HTTP.Burst <= 0 {
			return fmt.Errorf("rate_limiting.http.burst must be > 0 when rate limiting is enabled")
		}
	}

	return nil
}

// Load reads configuration from YAML file, applies defaults and env overrides.
func Load(configPath string) (*Config, error) {
	// If file does not exist, fall back to defaults
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config yaml: %w", err)
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns configuration with sane defaults.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Server.Address = ":8080"
	cfg.Server.ReadTimeout = 30 * time.Second
	cfg.Server.WriteTimeout = 30 * time.Second
	cfg.Server.ShutdownTimeout = 30 * time.Second

	cfg.Sync.Address = ":8081"
	cfg.Sync.PingInterval = 30 * time.Second
	cfg.Sync.PongTimeout = 60 * time.Second
	cfg.Sync.ShutdownTimeout = 30 * time.Second

	cfg.LiveKit.TokenTTL = 24 * time.Hour

	cfg.Rooms.SuffixLength = 5
	cfg.Rooms.QuickSuffixLength = 7
	cfg.Rooms.MessageHistoryLimit = 500
	cfg.Rooms.PublicListCacheTTL = 5 * time.Second

	cfg.Reconnect.MaxAttempts = 3
	cfg.Reconnect.InitialDelay = 500 * time.Millisecond
	cfg.Reconnect.MaxDelay = 10 * time.Second
	cfg.Reconnect.Multiplier = 2.0

	cfg.Monitoring.PrometheusEnabled = true
	cfg.Monitoring.PrometheusPort = 9090

	cfg.Tracing.Enabled = false
	cfg.Tracing.JaegerURL = "http://localhost:14268/api/traces"
	cfg.Tracing.Environment = "development"
	cfg.Tracing.SampleRate = 1.0

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "json"

	cfg.Redis.Enabled = false
	cfg.Redis.Address = "localhost:6379"
	cfg.Redis.DB = 0
	cfg.Redis.PoolSize = 10

	cfg.RateLimiting.Enabled = false
	cfg.RateLimiting.HTTP.RequestsPerSecond = 50
	cfg.RateLimiting.HTTP.Burst = 100

	return cfg
}

func (c *Config) applyEnvOverrides() {
	// Apply environment variable overrides
	if addr := os.Getenv("OURSCREEN_SERVER_ADDRESS"); addr != "" {
		c.Server.Address = addr
	}
	if addr := os.Getenv("OURSCREEN_SYNC_ADDRESS"); addr != "" {
		c.Sync.Address = addr
	}
	if level := os.Getenv("OURSCREEN_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if addr := os.Getenv("OURSCREEN_REDIS_ADDRESS"); addr != "" {
		c.Redis.Enabled = true
		c.Redis.Address = addr
	}

	// LiveKit credentials use the vendor's conventional variable names
	if key := os.Getenv("LIVEKIT_API_KEY"); key != "" {
		c.LiveKit.APIKey = key
	}
	if secret := os.Getenv("LIVEKIT_API_SECRET"); secret != "" {
		c.LiveKit.APISecret = secret
	}
	if url := os.Getenv("LIVEKIT_URL"); url != "" {
		c.LiveKit.URL = url
	}
}
