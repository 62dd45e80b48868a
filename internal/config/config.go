// Package config loads the ambient configuration of the updater. Pipeline
// behavior (timeouts, retry ceiling, pacing, thresholds) is fixed at build
// time; only the operational surface is configurable.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds the runtime-configurable settings.
//
// Environment variables (all optional):
//
//	DATA_DIR     output directory for artifacts (default "data")
//	LOG_LEVEL    debug|info|warn|error (default "info")
//	LOG_PRETTY   console output instead of JSON (default false)
//	METRICS_ADDR listen address for /metrics, empty disables (default "")
type Config struct {
	DataDir     string
	LogLevel    string
	LogPretty   bool
	MetricsAddr string
}

// Load reads configuration from the environment, with an optional .env
// file for local runs.
func Load() (Config, error) {
	viper.SetDefault("DATA_DIR", "data")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_PRETTY", false)
	viper.SetDefault("METRICS_ADDR", "")

	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig() // no .env is fine

	viper.AutomaticEnv()

	cfg := Config{
		DataDir:     viper.GetString("DATA_DIR"),
		LogLevel:    viper.GetString("LOG_LEVEL"),
		LogPretty:   viper.GetBool("LOG_PRETTY"),
		MetricsAddr: viper.GetString("METRICS_ADDR"),
	}

	if cfg.DataDir == "" {
		return Config{}, fmt.Errorf("DATA_DIR must not be empty")
	}

	return cfg, nil
}
