// internal/workers/assembly/assemble-document/config.go
package assembledocument

import (
	"time"

	"docassembly-workers/internal/common/observability"
)

type Config struct {
	Timeout time.Duration
	// RequireDocument turns an empty engine response into a job error.
	RequireDocument bool
	InputSchema     map[string]interface{}
	Observer        *observability.Observability
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 90 * time.Second,
	}
}
