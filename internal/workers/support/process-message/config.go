// internal/workers/support/process-message/config.go
package processmessage

import (
	"time"

	"support-chatbot/internal/common/config"
)

const ConfigKey = "support-message-process"

type Config struct {
	Timeout time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	wc := config.GetWorkerConfig(cfg, ConfigKey)
	return &Config{Timeout: config.GetDuration(wc.Timeout)}
}
