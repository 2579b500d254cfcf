// internal/workers/assembly/overlay-answers/config.go
package overlayanswers

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
		Timeout: 10 * time.Second,
	}
}
