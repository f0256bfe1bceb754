package tutor

import "time"

// Config holds tutor session settings.
type Config struct {
	// MaxTokens caps each model reply. Default: 1000.
	MaxTokens int

	// StructuredOutput asks providers for schema-conforming JSON. Replies
	// are parsed defensively either way.
	StructuredOutput bool

	// Timeout bounds a single model call. Zero means no extra deadline.
	Timeout time.Duration

	// HistoryLimit is the number of past messages sent with each turn.
	// Default: 20.
	HistoryLimit int
}

// DefaultConfig returns the default tutor configuration.
func DefaultConfig() Config {
	return Config{
		MaxTokens:    1000,
		Timeout:      30 * time.Second,
		HistoryLimit: 20,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxTokens <= 0 {
		c.MaxTokens = d.MaxTokens
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = d.HistoryLimit
	}
	return c
}
