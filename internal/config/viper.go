// Package config loads settings from sunny.yaml and SUNNY_* environment
// variables and builds the shared logger.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// SUNNY_LOG_LEVEL for log.level.
const EnvPrefix = "SUNNY"

// NewViper returns a viper instance with defaults, environment overrides
// and, when present, a config file. An explicit path must exist; otherwise
// sunny.yaml is looked up in the working directory and the user config dir.
func NewViper(path string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		return v, nil
	}

	v.SetConfigName("sunny")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if dir := userConfigDir(); dir != "" {
		v.AddConfigPath(dir)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":3001")
	v.SetDefault("server.cors_origins", "*")
	v.SetDefault("server.body_limit_mb", 10)

	v.SetDefault("proxy.model", "claude-sonnet-4-20250514")
	v.SetDefault("proxy.max_tokens", 800)
	v.SetDefault("proxy.api_key", "")
	v.SetDefault("proxy.base_url", "")

	v.SetDefault("llm.provider", "")
	v.SetDefault("llm.timeout", 20*time.Second)
	v.SetDefault("llm.anthropic.api_key", "")
	v.SetDefault("llm.anthropic.model", "")
	v.SetDefault("llm.anthropic.base_url", "")
	v.SetDefault("llm.openai.api_key", "")
	v.SetDefault("llm.openai.model", "")
	v.SetDefault("llm.openai.base_url", "")
	v.SetDefault("llm.gemini.api_key", "")
	v.SetDefault("llm.gemini.model", "")
	v.SetDefault("llm.openrouter.api_key", "")
	v.SetDefault("llm.openrouter.model", "")
	v.SetDefault("llm.retry.max_attempts", 3)
	v.SetDefault("llm.retry.initial_wait", 500*time.Millisecond)
	v.SetDefault("llm.retry.max_wait", 4*time.Second)
	v.SetDefault("llm.retry.multiplier", 2.0)

	v.SetDefault("store.db", "")
	v.SetDefault("store.remote_dsn", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("tutor.structured_output", false)
	v.SetDefault("tutor.max_tokens", 1000)
	v.SetDefault("tutor.voice", "")
}

func userConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "sunny")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "sunny")
}
