// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port            string  `mapstructure:"PORT"`
	JWTSecret       string  `mapstructure:"JWT_SECRET"`
	DBHost          string  `mapstructure:"DB_HOST"`
	DBPort          string  `mapstructure:"DB_PORT"`
	DBUser          string  `mapstructure:"DB_USER"`
	DBPassword      string  `mapstructure:"DB_PASSWORD"`
	DBName          string  `mapstructure:"DB_NAME"`
	DBSSLMode       string  `mapstructure:"DB_SSLMODE"`
	RedisURL        string  `mapstructure:"REDIS_URL"`
	AllowedOrigins  string  `mapstructure:"ALLOWED_ORIGINS"`
	Env             string  `mapstructure:"APP_ENV"`
	PostsCollection string  `mapstructure:"POSTS_COLLECTION"`
	FeedWindow      int     `mapstructure:"FEED_WINDOW"`
	TracingEnabled  bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint    string  `mapstructure:"TRACING_OTLP_ENDPOINT"`
	SamplerRatio    float64 `mapstructure:"TRACING_SAMPLER_RATIO"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The config file is optional; environment variables and defaults cover
	// everything it could set.
	_ = viper.ReadInConfig()

	viper.SetDefault("PORT", "8480")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "ripple")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("JWT_SECRET", "your-secret-key-change-in-production")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("POSTS_COLLECTION", "posts")
	viper.SetDefault("FEED_WINDOW", 50)
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("TRACING_OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("TRACING_SAMPLER_RATIO", 1.0)

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.FeedWindow <= 0 {
		return errors.New("FEED_WINDOW must be positive")
	}

	isProduction := c.Env == "production" || c.Env == "prod"
	if isProduction {
		if c.JWTSecret == "your-secret-key-change-in-production" {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.DBPassword == "password" || c.DBPassword == "" {
			return errors.New("DB_PASSWORD must be set to a non-default value in production")
		}
	}

	return nil
}
