package generateflashcards

import "time"

type Config struct {
	Timeout      time.Duration
	DefaultCount int
	MaxCount     int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      60 * time.Second,
		DefaultCount: 5,
		MaxCount:     20,
	}
}
