// internal/workers/payout/check-payout/config.go
package checkpayout

import "time"

type Config struct {
	Timeout          time.Duration
	TopK             int
	QueryLogDisabled bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
		TopK:    5,
	}
}
