package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the application configuration.
type Config struct {
	App         AppConfig       `mapstructure:"app"`
	Server      ServerConfig    `mapstructure:"server"`
	Generator   GeneratorConfig `mapstructure:"generator"`
	Plan        PlanConfig      `mapstructure:"plan"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Cache       CacheConfig     `mapstructure:"cache"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
	Image       ImageConfig     `mapstructure:"image"`
	DedupWindow time.Duration   `mapstructure:"dedup_window"`
	LogLevel    string          `mapstructure:"log_level"`
}

// AppConfig holds application identity settings.
type AppConfig struct {
	Env      string `mapstructure:"env"`
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
	Version  string `mapstructure:"version"`
	Name     string `mapstructure:"name"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// GeneratorConfig holds settings for the external recipe generator.
type GeneratorConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	APIKey     string        `mapstructure:"api_key"`
	Model      string        `mapstructure:"model"`
	MaxTokens  int           `mapstructure:"max_tokens"`
	MaxRetries int           `mapstructure:"max_retries"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// PlanConfig holds settings for the batch generation pipeline.
type PlanConfig struct {
	Workers   int           `mapstructure:"workers"`
	MaxDays   int           `mapstructure:"max_days"`
	Retention time.Duration `mapstructure:"retention"`
}

// DatabaseConfig holds recipe store settings.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // sqlite or postgres
	DSN    string `mapstructure:"dsn"`
}

// CacheConfig holds history seed cache settings.
type CacheConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	RedisAddr string        `mapstructure:"redis_addr"`
	TTL       time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limit settings.
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// ImageConfig holds durable image storage settings.
type ImageConfig struct {
	Dir          string        `mapstructure:"dir"`
	BaseURL      string        `mapstructure:"base_url"`
	MaxSizeBytes int64         `mapstructure:"max_size_bytes"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// LoadConfig loads configuration from .env and the environment.
func LoadConfig() (*Config, error) {
	// missing .env is fine, environment variables still apply
	_ = godotenv.Load()

	setDefaults()

	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.BindEnv("generator.base_url", "GENERATOR_BASE_URL")
	viper.BindEnv("generator.api_key", "GENERATOR_API_KEY")
	viper.BindEnv("generator.model", "GENERATOR_MODEL")
	viper.BindEnv("generator.max_tokens", "GENERATOR_MAX_TOKENS")
	viper.BindEnv("generator.max_retries", "GENERATOR_MAX_RETRIES")
	viper.BindEnv("database.driver", "DATABASE_DRIVER")
	viper.BindEnv("database.dsn", "DATABASE_DSN")
	viper.BindEnv("cache.enabled", "CACHE_ENABLED")
	viper.BindEnv("cache.redis_addr", "REDIS_ADDR")
	viper.BindEnv("plan.workers", "PLAN_WORKERS")
	viper.BindEnv("rate_limit.enabled", "RATE_LIMIT_ENABLED")
	viper.BindEnv("rate_limit.requests", "RATE_LIMIT_REQUESTS")
	viper.BindEnv("rate_limit.window", "RATE_LIMIT_WINDOW")
	viper.BindEnv("image.dir", "IMAGE_DIR")
	viper.BindEnv("image.base_url", "IMAGE_BASE_URL")
	viper.BindEnv("dedup_window", "DEDUP_WINDOW")
	viper.BindEnv("log_level", "LOG_LEVEL")

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// logger is not up yet, plain print is intentional
	fmt.Println("Loading configuration",
		"generator_api_key:", maskAPIKey(viper.GetString("generator.api_key")),
		"generator_model:", viper.GetString("generator.model"),
		"database_driver:", viper.GetString("database.driver"),
	)

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// maskAPIKey keeps only the first and last 4 characters of a key.
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func setDefaults() {
	// application
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.debug", true)
	viper.SetDefault("app.log_level", "info")
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.name", "mealplan-generator")

	// server
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")

	// generator
	viper.SetDefault("generator.base_url", "https://openrouter.ai/api/v1")
	viper.SetDefault("generator.model", "qwen/qwen2.5-vl-72b-instruct:free")
	viper.SetDefault("generator.max_tokens", 2000)
	viper.SetDefault("generator.max_retries", 2)
	viper.SetDefault("generator.timeout", "60s")

	// plan pipeline
	viper.SetDefault("plan.workers", 5)
	viper.SetDefault("plan.max_days", 14)
	viper.SetDefault("plan.retention", "720h") // 30 days

	// database
	viper.SetDefault("database.driver", "sqlite")
	viper.SetDefault("database.dsn", "data/mealplan.db")

	// cache
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.redis_addr", "localhost:6379")
	viper.SetDefault("cache.ttl", "24h")

	// rate limit
	viper.SetDefault("rate_limit.enabled", true)
	viper.SetDefault("rate_limit.requests", 100)
	viper.SetDefault("rate_limit.window", "1m")

	// image storage
	viper.SetDefault("image.dir", "data/images")
	viper.SetDefault("image.base_url", "/images")
	viper.SetDefault("image.max_size_bytes", 10*1024*1024) // 10MB
	viper.SetDefault("image.timeout", "30s")

	viper.SetDefault("dedup_window", "1s")
	viper.SetDefault("log_level", "info")
}

func validateConfig(config *Config) error {
	if config.Server.Port == 0 {
		return fmt.Errorf("server port is required")
	}

	switch config.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver: %s", config.Database.Driver)
	}
	if config.Database.DSN == "" {
		return fmt.Errorf("database dsn is required")
	}

	if config.Plan.Workers <= 0 {
		return fmt.Errorf("invalid plan workers")
	}
	if config.Plan.MaxDays <= 0 {
		return fmt.Errorf("invalid plan max days")
	}
	if config.Plan.Retention <= 0 {
		return fmt.Errorf("invalid plan retention")
	}

	if config.Cache.Enabled {
		if config.Cache.RedisAddr == "" {
			return fmt.Errorf("redis addr is required when cache is enabled")
		}
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
	}

	if config.Generator.MaxRetries < 0 {
		return fmt.Errorf("invalid generator max retries")
	}

	return nil
}
