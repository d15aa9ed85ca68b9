package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Port              string `mapstructure:"PORT" validate:"required"`
	RedisUrl          string `mapstructure:"REDIS_URL"`
	RedisChannel      string `mapstructure:"REDIS_CHANNEL" validate:"required"`
	LogLevel          string `mapstructure:"LOG_LEVEL" validate:"oneof=debug info warn warning error"`
	LogFormat         string `mapstructure:"LOG_FORMAT" validate:"oneof=text json"`
	LogFile           string `mapstructure:"LOG_FILE"`
	RequireMapSurface bool   `mapstructure:"REQUIRE_MAP_SURFACE"`
	PlannerConfig     string `mapstructure:"PLANNER_CONFIG"` // optional YAML file with planner tunables
}

var validate = validator.New()

func LoadConfig() (c Config, err error) {
	// Get environment type from ENV variable or use development as default
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Set default values. Every key needs one so AutomaticEnv can see it on Unmarshal
	viper.SetDefault("PORT", ":8080")
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("REDIS_CHANNEL", "guardplan:events")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "text")
	viper.SetDefault("LOG_FILE", "")
	viper.SetDefault("REQUIRE_MAP_SURFACE", false)
	viper.SetDefault("PLANNER_CONFIG", "")

	// Load environment file
	viper.SetConfigName(fmt.Sprintf(".env.%s", env))
	viper.SetConfigType("env")
	viper.AddConfigPath(".") // Look in the project root directory

	// Environment variables take precedence over config file
	viper.AutomaticEnv()

	// Try to read config file
	if err := viper.ReadInConfig(); err != nil {
		// Continue even if file is not found
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return c, err
		}
	}

	// Map the values to the Config struct
	if err = viper.Unmarshal(&c); err != nil {
		return
	}
	if err = validate.Struct(c); err != nil {
		return c, fmt.Errorf("invalid configuration: %w", err)
	}
	return
}
