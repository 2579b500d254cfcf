package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const minimalConfig = `
camunda:
  broker_address: localhost:26500
engine:
  base_url: https://engine.example.com
  subscriber_id: acme
template_store:
  base_path: /srv/templates
workers:
  assemble-document:
    enabled: true
`

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "docassembly-workers", cfg.App.Name)
	assert.Equal(t, 10, cfg.Camunda.MaxJobsActive)
	assert.Equal(t, 60000, cfg.Engine.Timeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, ":9090", cfg.Metrics.Address)
	assert.Equal(t, "configs/activity-registry.json", cfg.RegistryPath)

	w := cfg.Workers["assemble-document"]
	assert.True(t, w.Enabled)
	assert.Equal(t, 5, w.MaxJobsActive)
	assert.Equal(t, 3, w.MaxRetries)
}

func TestLoadFromFile_OptionalSections(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, minimalConfig+`
interview:
  image_url: https://host/images
cache:
  component_info_ttl: 300
database:
  redis:
    address: localhost:6379
`))
	require.NoError(t, err)

	assert.Equal(t, 5*time.Minute, cfg.Cache.ComponentInfoTTLDuration())
	assert.Equal(t, "https://host/images", cfg.Interview.ImageURL)
	assert.Equal(t, "localhost:6379", cfg.Database.Redis.Address)
}

func TestLoadFromFile_ExpandsEnvPlaceholders(t *testing.T) {
	t.Setenv("TEST_ENGINE_KEY", "s3cret")

	cfg, err := LoadFromFile(writeConfig(t, `
camunda:
  broker_address: localhost:26500
engine:
  base_url: https://engine.example.com
  subscriber_id: acme
  signing_key: ${TEST_ENGINE_KEY}
template_store:
  base_path: /srv/templates
`))
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Engine.SigningKey)
}

func TestLoadFromFile_MissingRequired(t *testing.T) {
	_, err := LoadFromFile(writeConfig(t, `
camunda:
  broker_address: localhost:26500
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "engine.base_url")
}

func TestLoadFromFile_SigningKeyFromEnvironment(t *testing.T) {
	t.Setenv("ENGINE_SIGNING_KEY", "from-env")

	cfg, err := LoadFromFile(writeConfig(t, minimalConfig))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Engine.SigningKey)
}

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Camunda:       CamundaConfig{BrokerAddress: "localhost:26500"},
			Engine:        EngineConfig{BaseURL: "https://engine", SubscriberID: "acme"},
			TemplateStore: TemplateStoreConfig{BasePath: "/srv/templates"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing broker", func(c *Config) { c.Camunda.BrokerAddress = "" }, "camunda.broker_address"},
		{"missing engine url", func(c *Config) { c.Engine.BaseURL = "" }, "engine.base_url"},
		{"missing subscriber", func(c *Config) { c.Engine.SubscriberID = "" }, "engine.subscriber_id"},
		{"missing template base", func(c *Config) { c.TemplateStore.BasePath = "" }, "template_store.base_path"},
		{"negative ttl", func(c *Config) { c.Cache.ComponentInfoTTL = -1 }, "component_info_ttl"},
		{"cache without redis", func(c *Config) { c.Cache.ComponentInfoTTL = 60 }, "database.redis.address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := validateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetWorkerConfig_FallsBackToDefaults(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{"overlay-answers": {Enabled: false}}}

	assert.False(t, IsWorkerEnabled(cfg, "overlay-answers"))
	assert.True(t, IsWorkerEnabled(cfg, "get-interview"))
	assert.Equal(t, 30000, GetWorkerConfig(cfg, "get-interview").Timeout)
	assert.Equal(t, 30*time.Second, GetDuration(30000))
}
