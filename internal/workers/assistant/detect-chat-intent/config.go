package detectchatintent

import (
	"fmt"
	"time"

	"assistant-workers/internal/common/config"
)

// DefaultCompletionReserve is the part of the job budget kept back from
// classification for the pending lookup and the job completion call.
const DefaultCompletionReserve = 5 * time.Second

type Config struct {
	Timeout           time.Duration
	CompletionReserve time.Duration
}

func DefaultConfig() *Config {
	return &Config{Timeout: 30 * time.Second, CompletionReserve: DefaultCompletionReserve}
}

// ConfigFromApp reads the worker's entry under workers.detect-chat-intent.
func ConfigFromApp(cfg *config.Config) *Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	if w := config.GetWorkerConfig(cfg, TaskType); w.Timeout > 0 {
		c.Timeout = config.GetDuration(w.Timeout)
	}
	if c.CompletionReserve >= c.Timeout {
		c.CompletionReserve = c.Timeout / 5
	}
	return c
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.CompletionReserve < 0 || c.CompletionReserve >= c.Timeout {
		return fmt.Errorf("completion reserve must be between 0 and the timeout")
	}
	return nil
}
