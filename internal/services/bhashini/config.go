// File: internal/services/bhashini/config.go
package bhashini

import (
	"fmt"
	"time"
)

type Config struct {
	APIKey  string
	BaseURL string

	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration

	// DefaultVoice is used when TTS callers do not pick one.
	DefaultVoice string
}

func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("bhashini base URL is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("max_retries must be at least 1")
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		Timeout:      30 * time.Second,
		MaxRetries:   3,
		RetryDelay:   500 * time.Millisecond,
		DefaultVoice: "female",
	}
}
