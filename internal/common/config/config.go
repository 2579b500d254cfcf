// internal/common/config/config.go
package config

import "time"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Engine        EngineConfig            `mapstructure:"engine"`
	TemplateStore TemplateStoreConfig     `mapstructure:"template_store"`
	Interview     InterviewConfig         `mapstructure:"interview"`
	Cache         CacheConfig             `mapstructure:"cache"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Metrics       MetricsConfig           `mapstructure:"metrics"`
	RegistryPath  string                  `mapstructure:"registry_path"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

// EngineConfig points at the remote assembly engine.
type EngineConfig struct {
	BaseURL      string `mapstructure:"base_url"`
	SubscriberID string `mapstructure:"subscriber_id"`
	SigningKey   string `mapstructure:"signing_key"`
	Timeout      int    `mapstructure:"timeout"` // milliseconds
	BillingRef   string `mapstructure:"billing_ref"`
}

type TemplateStoreConfig struct {
	BasePath string `mapstructure:"base_path"`
}

// InterviewConfig holds the host URLs handed to interviews.
type InterviewConfig struct {
	ImageURL      string `mapstructure:"image_url"`
	RuntimeURL    string `mapstructure:"runtime_url"`
	StylesheetURL string `mapstructure:"stylesheet_url"`
}

type CacheConfig struct {
	ComponentInfoTTL int `mapstructure:"component_info_ttl"` // seconds, 0 disables caching
}

// ComponentInfoTTLDuration converts the TTL to a duration.
func (c CacheConfig) ComponentInfoTTLDuration() time.Duration {
	return time.Duration(c.ComponentInfoTTL) * time.Second
}

type DatabaseConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling

	// RequireDocument fails assemble jobs whose response carries no document.
	RequireDocument bool `mapstructure:"require_document"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type MetricsConfig struct {
	Address string `mapstructure:"address"`
}
