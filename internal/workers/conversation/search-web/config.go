// internal/workers/conversation/search-web/config.go
package searchweb

import "time"

type Config struct {
	Timeout      time.Duration
	DefaultCount int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      20 * time.Second,
		DefaultCount: 5,
	}
}
