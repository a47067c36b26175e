package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/calmora/calmora_backend/pkg/constants"
)

var GlobalConf *Config

func ReadConfig(configPath string) (*Config, error) {
	viper.SetConfigName(constants.ConfigName)
	viper.SetConfigType(constants.ConfigFormat)
	viper.AddConfigPath(configPath)

	// Defaults for the gating knobs live here rather than in Validate so an
	// explicit zero in the config file (say evening_hour: 0 to allow the
	// second prompt at any hour) stays distinguishable from an absent key.
	viper.SetDefault("session.grace_before_minutes", 5)
	viper.SetDefault("session.grace_after_minutes", 15)
	viper.SetDefault("session.sweep_interval_seconds", 60)
	viper.SetDefault("engagement.daily_cap", 2)
	viper.SetDefault("engagement.evening_hour", 18)

	// Allow env vars to override config values.
	// e.g. CALMORA_REDIS_ADDR overrides redis.addr
	viper.SetEnvPrefix("CALMORA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read the config file (optional in Docker environments)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Only fail if it's not a "file not found" error
			if os.Getenv("CALMORA_REDIS_ADDR") == "" {
				return nil, fmt.Errorf("error reading config file: %v", err)
			}
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %v", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func MustReadConfig(path string) *Config {
	config, err := ReadConfig(path)
	if err != nil {
		panic(err)
	}

	GlobalConf = config

	return config
}
