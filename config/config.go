package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Spoonacular SpoonacularConfig `mapstructure:"spoonacular"`
	Search      SearchConfig      `mapstructure:"search"`
	Store       StoreConfig       `mapstructure:"store"`
	Images      ImagesConfig      `mapstructure:"images"`
	RateLimit   RateLimitConfig   `mapstructure:"ratelimit"`
	Log         LogConfig         `mapstructure:"log"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	// UploadDir receives uploaded images before they are relocated.
	UploadDir      string `mapstructure:"upload_dir"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes"`
}

// SpoonacularConfig holds recipe API configuration
type SpoonacularConfig struct {
	APIKey            string        `mapstructure:"api_key"`
	BaseURL           string        `mapstructure:"base_url"`
	SearchLimit       int           `mapstructure:"search_limit"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	Debug             bool          `mapstructure:"debug"`
}

// SearchConfig holds search orchestration configuration
type SearchConfig struct {
	EnrichConcurrency int `mapstructure:"enrich_concurrency"`
}

// StoreConfig selects the key-value store backing favorites and user recipes
type StoreConfig struct {
	Type         string `mapstructure:"type"` // "memory", "file", "sqlite" or "redis"
	Path         string `mapstructure:"path"`
	RedisURL     string `mapstructure:"redis_url"`
	KeyPrefix    string `mapstructure:"key_prefix"`
	FavoritesKey string `mapstructure:"favorites_key"`
	RecipesKey   string `mapstructure:"recipes_key"`
}

// ImagesConfig selects where user recipe images are kept
type ImagesConfig struct {
	Type            string `mapstructure:"type"` // "local" or "s3"
	Dir             string `mapstructure:"dir"`
	S3Bucket        string `mapstructure:"s3_bucket"`
	S3Region        string `mapstructure:"s3_region"`
	S3PublicBaseURL string `mapstructure:"s3_public_base_url"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"`
}

// LogConfig holds logger configuration. Empty values follow the environment.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/ready2cook/")

	// READY2COOK_SPOONACULAR_API_KEY -> spoonacular.api_key
	v.SetEnvPrefix("READY2COOK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults registers every key so AutomaticEnv can override it
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.upload_dir", filepath.Join(os.TempDir(), "ready2cook-uploads"))
	v.SetDefault("server.max_upload_bytes", 10<<20)

	v.SetDefault("spoonacular.api_key", "")
	v.SetDefault("spoonacular.base_url", "https://api.spoonacular.com")
	v.SetDefault("spoonacular.search_limit", 5)
	v.SetDefault("spoonacular.timeout", "30s")
	v.SetDefault("spoonacular.requests_per_second", 1.0)
	v.SetDefault("spoonacular.burst", 5)
	v.SetDefault("spoonacular.debug", false)

	v.SetDefault("search.enrich_concurrency", 5)

	v.SetDefault("store.type", "file")
	v.SetDefault("store.path", "./data/store")
	v.SetDefault("store.redis_url", "")
	v.SetDefault("store.key_prefix", "ready2cook:")
	v.SetDefault("store.favorites_key", "likedRecipes")
	v.SetDefault("store.recipes_key", "recipes")

	v.SetDefault("images.type", "local")
	v.SetDefault("images.dir", "./data/images")
	v.SetDefault("images.s3_bucket", "")
	v.SetDefault("images.s3_region", "")
	v.SetDefault("images.s3_public_base_url", "")

	v.SetDefault("ratelimit.per_ip", 100)

	v.SetDefault("log.level", "")
	v.SetDefault("log.format", "")
}

// validate validates the configuration
func validate(config *Config) error {
	if strings.TrimSpace(config.Spoonacular.APIKey) == "" {
		return fmt.Errorf("spoonacular API key is required (set READY2COOK_SPOONACULAR_API_KEY)")
	}

	return validation.Errors{
		"server":      config.Server.Validate(),
		"spoonacular": config.Spoonacular.Validate(),
		"store":       config.Store.Validate(),
		"images":      config.Images.Validate(),
		"ratelimit":   config.RateLimit.Validate(),
		"log":         config.Log.Validate(),
	}.Filter()
}

// Validate checks the server section
func (c ServerConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Port, validation.Required),
		validation.Field(&c.UploadDir, validation.Required),
		validation.Field(&c.MaxUploadBytes, validation.Required, validation.Min(int64(1))),
	)
}

// Validate checks the spoonacular section
func (c SpoonacularConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.BaseURL, validation.Required),
		validation.Field(&c.SearchLimit, validation.Required, validation.Min(1), validation.Max(100)),
	)
}

// Validate checks the store section
func (c StoreConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Type, validation.Required, validation.In("memory", "file", "sqlite", "redis")),
		validation.Field(&c.Path, validation.When(c.Type == "file" || c.Type == "sqlite", validation.Required)),
		validation.Field(&c.RedisURL, validation.When(c.Type == "redis", validation.Required)),
		validation.Field(&c.FavoritesKey, validation.Required),
		validation.Field(&c.RecipesKey, validation.Required, validation.NotIn(c.FavoritesKey)),
	)
}

// Validate checks the images section
func (c ImagesConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Type, validation.Required, validation.In("local", "s3")),
		validation.Field(&c.Dir, validation.When(c.Type == "local", validation.Required)),
		validation.Field(&c.S3Bucket, validation.When(c.Type == "s3", validation.Required)),
	)
}

// Validate checks the rate limit section
func (c RateLimitConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.PerIP, validation.Required, validation.Min(1)),
	)
}

// Validate checks the log section
func (c LogConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Level, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.Format, validation.In("json", "console")),
	)
}
