// Package config loads the serve-mode configuration from screenflow.yaml
// via viper, with sensible defaults for every field.
package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"

	"github.com/hnakai/screenflow/internal/action"
)

// ServerConfig selects the serve transport.
type ServerConfig struct {
	Transport string `mapstructure:"transport"`
	Port      int    `mapstructure:"port"`
}

// PathsConfig locates the persisted collaborators.
type PathsConfig struct {
	Images  string `mapstructure:"images"`
	Texts   string `mapstructure:"texts"`
	Flows   string `mapstructure:"flows"`
	Outputs string `mapstructure:"outputs"`
}

// LoggerConfig configures zap and the rotating log file.
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// Config is the full serve configuration.
type Config struct {
	Server ServerConfig     `mapstructure:"server"`
	Paths  PathsConfig      `mapstructure:"paths"`
	Logger LoggerConfig     `mapstructure:"logger"`
	Run    action.RunConfig `mapstructure:"run"`
}

// Load reads screenflow.yaml from the working directory (or the explicit
// file when given). A missing config file is fine; defaults apply.
func Load(file string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("screenflow")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.screenflow")
	}

	v.SetDefault("server.transport", "stdio")
	v.SetDefault("server.port", 8080)
	v.SetDefault("paths.images", "images")
	v.SetDefault("paths.texts", "texts.json")
	v.SetDefault("paths.flows", "flows.json")
	v.SetDefault("paths.outputs", "outputs")
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.max_size_mb", 20)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age_days", 14)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Run.ApplyDefaults()
	return &cfg, nil
}
