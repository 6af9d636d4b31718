package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Gatekeeper GatekeeperConfig `mapstructure:"gatekeeper"`
	Geo        GeoConfig        `mapstructure:"geo"`
	Audit      AuditConfig      `mapstructure:"audit"`
}

type ServerConfig struct {
	AdminPort   int    `mapstructure:"admin_port"`
	ProxyPort   int    `mapstructure:"proxy_port"`
	MetricsPort int    `mapstructure:"metrics_port"`
	SecretKey   string `mapstructure:"secret_key"`
	UpstreamURL string `mapstructure:"upstream_url"`
	SupportMail string `mapstructure:"support_mail"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TLS      bool   `mapstructure:"tls"`
}

type RateLimitConfig struct {
	PerMinute int `mapstructure:"per_minute"`
	PerHour   int `mapstructure:"per_hour"`
}

type BehaviorConfig struct {
	Window               time.Duration `mapstructure:"window"`
	BurstWindow          time.Duration `mapstructure:"burst_window"`
	BurstThreshold       int           `mapstructure:"burst_threshold"`
	UniquePathsThreshold int           `mapstructure:"unique_paths_threshold"`
	SweepInterval        time.Duration `mapstructure:"sweep_interval"`
}

type GatekeeperConfig struct {
	MaintenanceMode    bool            `mapstructure:"maintenance_mode"`
	BlockDuration      time.Duration   `mapstructure:"block_duration"`
	BlockThreshold     float64         `mapstructure:"block_threshold"`
	Store              string          `mapstructure:"store"`
	RateLimits         RateLimitConfig `mapstructure:"rate_limits"`
	Behavior           BehaviorConfig  `mapstructure:"behavior"`
	AllowedCountries   []string        `mapstructure:"allowed_countries"`
	SuspiciousPatterns []string        `mapstructure:"suspicious_patterns"`
	HoneypotPaths      []string        `mapstructure:"honeypot_paths"`
	BotUserAgents      []string        `mapstructure:"bot_user_agents"`
	MaxInspectLength   int             `mapstructure:"max_inspect_length"`
	BypassPaths        []string        `mapstructure:"bypass_paths"`
}

type BreakerConfig struct {
	MaxFailures uint32        `mapstructure:"max_failures"`
	OpenTimeout time.Duration `mapstructure:"open_timeout"`
}

type GeoConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	URLTemplate string        `mapstructure:"url_template"`
	Timeout     time.Duration `mapstructure:"timeout"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
	Breaker     BreakerConfig `mapstructure:"breaker"`
}

type AuditSinkConfig struct {
	Type     string                 `mapstructure:"type"`
	Settings map[string]interface{} `mapstructure:"settings"`
}

type AuditConfig struct {
	QueueSize    int               `mapstructure:"queue_size"`
	Workers      int               `mapstructure:"workers"`
	MemoryEvents int               `mapstructure:"memory_events"`
	Sinks        []AuditSinkConfig `mapstructure:"sinks"`
}

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

var globalConfig Config

func Load(configPath string) error {
	v := viper.New()
	setDefaultValues(v)

	if err := loadConfigFile(v, configPath, "config"); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	globalConfig = cfg
	return nil
}

func loadConfigFile(v *viper.Viper, configPath, fileName string) error {
	v.SetConfigName(fileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return err
		}
		return fmt.Errorf("error reading config file %s.yaml: %w", fileName, err)
	}
	return nil
}

func setDefaultValues(v *viper.Viper) {
	v.SetDefault("server.admin_port", 8080)
	v.SetDefault("server.proxy_port", 8081)
	v.SetDefault("server.metrics_port", 9090)
	v.SetDefault("server.secret_key", "")
	v.SetDefault("server.upstream_url", "")
	v.SetDefault("server.support_mail", "support@rimareum.com")

	v.SetDefault("metrics.enabled", true)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "gatekeeper")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.tls", false)

	v.SetDefault("gatekeeper.maintenance_mode", false)
	v.SetDefault("gatekeeper.block_duration", 24*time.Hour)
	v.SetDefault("gatekeeper.block_threshold", 0.7)
	v.SetDefault("gatekeeper.store", StoreMemory)
	v.SetDefault("gatekeeper.rate_limits.per_minute", 5)
	v.SetDefault("gatekeeper.rate_limits.per_hour", 100)
	v.SetDefault("gatekeeper.behavior.window", time.Hour)
	v.SetDefault("gatekeeper.behavior.burst_window", time.Minute)
	v.SetDefault("gatekeeper.behavior.burst_threshold", 50)
	v.SetDefault("gatekeeper.behavior.unique_paths_threshold", 20)
	v.SetDefault("gatekeeper.behavior.sweep_interval", 5*time.Minute)
	v.SetDefault("gatekeeper.allowed_countries", []string{"FR", "DZ", "AE"})
	v.SetDefault("gatekeeper.suspicious_patterns", []string{})
	v.SetDefault("gatekeeper.honeypot_paths", []string{})
	v.SetDefault("gatekeeper.bot_user_agents", []string{})
	v.SetDefault("gatekeeper.max_inspect_length", 4096)
	v.SetDefault("gatekeeper.bypass_paths", []string{"/_health", "/health", "/metrics", "/favicon.ico", "/__/ping"})

	v.SetDefault("geo.enabled", true)
	v.SetDefault("geo.url_template", "https://ipapi.co/%s/country/")
	v.SetDefault("geo.timeout", 5*time.Second)
	v.SetDefault("geo.cache_ttl", time.Hour)
	v.SetDefault("geo.breaker.max_failures", 5)
	v.SetDefault("geo.breaker.open_timeout", 30*time.Second)

	v.SetDefault("audit.queue_size", 1000)
	v.SetDefault("audit.workers", 2)
	v.SetDefault("audit.memory_events", 1000)
	v.SetDefault("audit.sinks", []map[string]interface{}{
		{"type": "log"},
		{"type": "memory"},
	})
}

func (c *Config) Validate() error {
	g := c.Gatekeeper
	if g.BlockDuration <= 0 {
		return errors.New("gatekeeper.block_duration must be positive")
	}
	if g.BlockThreshold <= 0 || g.BlockThreshold > 1 {
		return errors.New("gatekeeper.block_threshold must be in (0, 1]")
	}
	if g.RateLimits.PerMinute <= 0 || g.RateLimits.PerHour <= 0 {
		return errors.New("gatekeeper.rate_limits must be positive")
	}
	if g.Store != StoreMemory && g.Store != StoreRedis {
		return fmt.Errorf("gatekeeper.store must be %q or %q", StoreMemory, StoreRedis)
	}
	if g.Store == StoreRedis && !c.Redis.Enabled {
		return errors.New("gatekeeper.store is redis but redis is disabled")
	}
	if c.Geo.Enabled && !strings.Contains(c.Geo.URLTemplate, "%s") {
		return errors.New("geo.url_template must contain %s")
	}
	return nil
}

func GetConfig() *Config {
	return &globalConfig
}
