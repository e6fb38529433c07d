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

func TestLoadFromFile_Defaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("SHOPIFY_ACCESS_TOKEN", "")

	cfg, err := LoadFromFile(writeConfig(t, "app:\n  name: widget-bot\n"))
	require.NoError(t, err)

	assert.Equal(t, "widget-bot", cfg.App.Name)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, DefaultContextTTL, GetDuration(cfg.Pipeline.ContextTTL))
	assert.Equal(t, CRMProviderKustomer, cfg.Integrations.CRMProvider)
	assert.Equal(t, ProductSourceShopify, cfg.Integrations.ProductSource)
	assert.Equal(t, "2024-01", cfg.Integrations.Shopify.APIVersion)
	assert.Equal(t, 0.5, cfg.Pipeline.AIReply.ConfidenceThreshold)
	assert.Equal(t, "support_interactions", cfg.Interactions.Postgres.Table)
	assert.Equal(t, "urgent", cfg.Alerts.MinPriority)
	assert.False(t, cfg.AI.Configured())
	assert.False(t, cfg.Integrations.Shopify.Configured())
}

func TestLoadFromFile_EnvExpansionAndOverrides(t *testing.T) {
	t.Setenv("TEST_SHOP_DOMAIN", "acme.myshopify.com")
	t.Setenv("SHOPIFY_ACCESS_TOKEN", "shpat_env")
	t.Setenv("KUSTOMER_API_KEY", "kus_env")

	path := writeConfig(t, `
integrations:
  shopify:
    store_domain: ${TEST_SHOP_DOMAIN}
  kustomer:
    api_key: kus_file
pipeline:
  context_ttl: 60000
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "acme.myshopify.com", cfg.Integrations.Shopify.StoreDomain)
	assert.Equal(t, "shpat_env", cfg.Integrations.Shopify.AccessToken)
	assert.Equal(t, "kus_file", cfg.Integrations.Kustomer.APIKey, "file values win over env fallbacks")
	assert.True(t, cfg.Integrations.Shopify.Configured())
	assert.Equal(t, time.Minute, GetDuration(cfg.Pipeline.ContextTTL))
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		errMsg string
	}{
		{
			name:   "unknown crm provider",
			body:   "integrations:\n  crm_provider: salesforce\n",
			errMsg: "crm_provider",
		},
		{
			name:   "elasticsearch source without addresses",
			body:   "integrations:\n  product_source: elasticsearch\n",
			errMsg: "database.elasticsearch",
		},
		{
			name:   "threshold out of range",
			body:   "pipeline:\n  ai_reply:\n    confidence_threshold: 1.5\n",
			errMsg: "confidence_threshold",
		},
		{
			name:   "kafka interactions without brokers",
			body:   "interactions:\n  kafka:\n    enabled: true\n",
			errMsg: "kafka.brokers",
		},
		{
			name:   "ses alerts without recipients",
			body:   "alerts:\n  ses:\n    enabled: true\n    from_email: bot@example.com\n",
			errMsg: "alerts.ses",
		},
		{
			name:   "enabled worker without broker",
			body:   "workers:\n  support-message-process:\n    enabled: true\n",
			errMsg: "camunda.broker_address",
		},
		{
			name:   "unknown tracing exporter",
			body:   "tracing:\n  enabled: true\n  exporter: zipkin\n",
			errMsg: "tracing.exporter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestGetWorkerConfig(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{
		"support-message-process": {Enabled: true, MaxJobsActive: 7},
	}}

	assert.Equal(t, 7, GetWorkerConfig(cfg, "support-message-process").MaxJobsActive)
	assert.True(t, IsWorkerEnabled(cfg, "support-message-process"))
	assert.False(t, IsWorkerEnabled(cfg, "other"))
	assert.Equal(t, 5, GetWorkerConfig(cfg, "other").MaxJobsActive)
}

func TestElasticsearchConfig_GetAddresses(t *testing.T) {
	assert.Equal(t, []string{"http://es:9200"}, ElasticsearchConfig{URL: "http://es:9200"}.GetAddresses())
	assert.Equal(t, []string{"a", "b"}, ElasticsearchConfig{Addresses: []string{"a", "b"}, URL: "c"}.GetAddresses())
	assert.Nil(t, ElasticsearchConfig{}.GetAddresses())
}
