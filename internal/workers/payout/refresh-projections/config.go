// internal/workers/payout/refresh-projections/config.go
package refreshprojections

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}
