// internal/workers/conversation/resolve-query/config.go
package resolvequery

import "time"

type Config struct {
	Timeout    time.Duration
	MaxRetries int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:    60 * time.Second,
		MaxRetries: 3,
	}
}
