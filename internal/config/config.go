package config

import (
	"os"

	"github.com/spf13/viper"

	"github.com/abhisek/sunny/internal/llm"
)

// Config is the resolved application configuration.
type Config struct {
	Server ServerConfig
	Proxy  ProxyConfig
	LLM    llm.Config
	Store  StoreConfig
	Log    LogConfig
	Tutor  TutorConfig
}

type ServerConfig struct {
	Addr        string
	CORSOrigins string
	BodyLimitMB int
}

// ProxyConfig configures the /api/chat pass-through.
type ProxyConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
}

type StoreConfig struct {
	DB        string // SQLite path for the local tier and event log
	RemoteDSN string // Postgres DSN for the primary tier, optional
}

type LogConfig struct {
	Level  string
	Format string // text or json
}

type TutorConfig struct {
	StructuredOutput bool
	MaxTokens        int
	Voice            string // speech command, e.g. "espeak -s 140"
}

// Load resolves a Config from v. When no LLM provider is configured, the
// standard provider API key variables are probed.
func Load(v *viper.Viper) Config {
	cfg := Config{
		Server: ServerConfig{
			Addr:        v.GetString("server.addr"),
			CORSOrigins: v.GetString("server.cors_origins"),
			BodyLimitMB: v.GetInt("server.body_limit_mb"),
		},
		Proxy: ProxyConfig{
			APIKey:    v.GetString("proxy.api_key"),
			BaseURL:   v.GetString("proxy.base_url"),
			Model:     v.GetString("proxy.model"),
			MaxTokens: v.GetInt("proxy.max_tokens"),
		},
		LLM: loadLLM(v),
		Store: StoreConfig{
			DB:        v.GetString("store.db"),
			RemoteDSN: v.GetString("store.remote_dsn"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Tutor: TutorConfig{
			StructuredOutput: v.GetBool("tutor.structured_output"),
			MaxTokens:        v.GetInt("tutor.max_tokens"),
			Voice:            v.GetString("tutor.voice"),
		},
	}

	if cfg.Proxy.APIKey == "" {
		cfg.Proxy.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	return cfg
}

func loadLLM(v *viper.Viper) llm.Config {
	if v.GetString("llm.provider") == "" {
		if discovered, ok := llm.DiscoverConfig(); ok {
			discovered.Timeout = v.GetDuration("llm.timeout")
			discovered.Retry = loadRetry(v)
			return discovered
		}
	}

	cfg := llm.DefaultConfig()
	if p := v.GetString("llm.provider"); p != "" {
		cfg.Provider = p
	}
	cfg.Timeout = v.GetDuration("llm.timeout")
	cfg.Retry = loadRetry(v)

	cfg.Anthropic.APIKey = v.GetString("llm.anthropic.api_key")
	cfg.Anthropic.BaseURL = v.GetString("llm.anthropic.base_url")
	cfg.OpenAI.APIKey = v.GetString("llm.openai.api_key")
	cfg.OpenAI.BaseURL = v.GetString("llm.openai.base_url")
	cfg.Gemini.APIKey = v.GetString("llm.gemini.api_key")
	cfg.OpenRouter.APIKey = v.GetString("llm.openrouter.api_key")

	overrideModel(&cfg.Anthropic.Model, v.GetString("llm.anthropic.model"))
	overrideModel(&cfg.OpenAI.Model, v.GetString("llm.openai.model"))
	overrideModel(&cfg.Gemini.Model, v.GetString("llm.gemini.model"))
	overrideModel(&cfg.OpenRouter.Model, v.GetString("llm.openrouter.model"))
	return cfg
}

func loadRetry(v *viper.Viper) llm.RetryConfig {
	return llm.RetryConfig{
		MaxAttempts: v.GetInt("llm.retry.max_attempts"),
		InitialWait: v.GetDuration("llm.retry.initial_wait"),
		MaxWait:     v.GetDuration("llm.retry.max_wait"),
		Multiplier:  v.GetFloat64("llm.retry.multiplier"),
	}
}

func overrideModel(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
