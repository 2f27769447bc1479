// internal/workers/kpi/estimate-value/config.go
package estimatevalue

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
