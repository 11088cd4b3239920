// Package config loads runtime configuration from file, environment and
// defaults, in that ascending precedence, using viper. It covers process
// concerns only; workspace-level analysis configuration lives in the
// override store.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config is the process configuration.
type Config struct {
	// Token is the addon JWT presented as X-Addon-Token.
	Token string `mapstructure:"token"`
	// DatabasePath overrides the default override-store location.
	DatabasePath string `mapstructure:"database_path"`
	// LogLevel is a logrus level name (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`
	// LogFormat is "text" or "json".
	LogFormat string `mapstructure:"log_format"`
	// HTTPTimeout bounds individual fetch requests.
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
}

const envPrefix = "WORKLENS"

// Load reads configuration. path may be empty, in which case only
// defaults, an optional ./worklens.yaml and WORKLENS_* environment
// variables apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	// empty defaults register the keys so AutomaticEnv can fill them
	v.SetDefault("token", "")
	v.SetDefault("database_path", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("http_timeout", 30*time.Second)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("worklens")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.worklens")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &cfg, nil
}

// NewLogger builds a logrus logger per the configured level and format.
// Unknown values fall back to info/text.
func (c *Config) NewLogger() *logrus.Logger {
	log := logrus.New()
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	if c.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return log
}
