// internal/workers/kpi/aggregate-portfolio/config.go
package aggregateportfolio

import "time"

type Config struct {
	Timeout      time.Duration
	SummaryIndex string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      30 * time.Second,
		SummaryIndex: "portfolio-value-summaries",
	}
}
