// File: internal/services/pinecone/config.go
package pinecone

import (
	"fmt"
	"time"
)

type Config struct {
	APIKey    string
	IndexHost string
	Namespace string

	TopK       int
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("PINECONE_API_KEY is required")
	}
	if c.IndexHost == "" {
		return fmt.Errorf("PINECONE_INDEX_HOST is required")
	}
	if c.TopK <= 0 || c.TopK > 20 {
		return fmt.Errorf("top_k must be between 1 and 20")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		Namespace:  "agronomy",
		TopK:       5,
		Timeout:    30 * time.Second,
		MaxRetries: 3,
		RetryDelay: 500 * time.Millisecond,
	}
}
