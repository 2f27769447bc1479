// internal/workers/governance/notify-activation/config.go
package notifyactivation

import "time"

type Config struct {
	Timeout      time.Duration
	EmailEnabled bool
	SMSEnabled   bool
	FromEmail    string
	SenderID     string
	AWSRegion    string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      15 * time.Second,
		EmailEnabled: true,
		SMSEnabled:   false,
		FromEmail:    "portfolio@example.com",
		SenderID:     "PORTFOLIO",
		AWSRegion:    "eu-west-1",
	}
}
