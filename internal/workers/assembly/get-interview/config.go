// internal/workers/assembly/get-interview/config.go
package getinterview

import (
	"time"

	"docassembly-workers/internal/common/observability"
)

type Config struct {
	Timeout     time.Duration
	InputSchema map[string]interface{}
	Observer    *observability.Observability
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}
