// internal/workers/retrieval/curate-evidence/config.go
package curateevidence

import "time"

type Config struct {
	Timeout       time.Duration
	MaxCandidates int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       30 * time.Second,
		MaxCandidates: 10,
	}
}
