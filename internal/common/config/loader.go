// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultContextTTL = 8 * time.Minute

	CRMProviderKustomer = "kustomer"
	CRMProviderZoho     = "zoho"

	ProductSourceShopify       = "shopify"
	ProductSourceElasticsearch = "elasticsearch"
)

// Load reads configs/config.yaml, merges configs/config.<APP_ENVIRONMENT>.yaml
// on top and applies environment overrides.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional

	return build(v)
}

// LoadFromFile reads a single YAML file.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return build(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

func build(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{".env", "../.env", "../../.env"}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// expandEnvVars resolves ${VAR} placeholders left in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			if expanded := os.ExpandEnv(strVal); expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

func overrideEmptyConfig(cfg *Config) {
	setIfEmpty(&cfg.AI.APIKey, "OPENAI_API_KEY")
	setIfEmpty(&cfg.Integrations.Shopify.StoreDomain, "SHOPIFY_STORE_DOMAIN")
	setIfEmpty(&cfg.Integrations.Shopify.AccessToken, "SHOPIFY_ACCESS_TOKEN")
	setIfEmpty(&cfg.Integrations.Kustomer.APIKey, "KUSTOMER_API_KEY")
	setIfEmpty(&cfg.Integrations.Zoho.APIKey, "ZOHO_CRM_API_KEY")
	setIfEmpty(&cfg.Integrations.Zoho.AuthToken, "ZOHO_CRM_OAUTH_TOKEN")
	setIfEmpty(&cfg.Database.Postgres.User, "DB_USER")
	setIfEmpty(&cfg.Database.Postgres.Password, "DB_PASSWORD")
	setIfEmpty(&cfg.Database.Redis.Password, "REDIS_PASSWORD")
	setIfEmpty(&cfg.Alerts.SNS.TopicARN, "ALERTS_SNS_TOPIC_ARN")
}

func setIfEmpty(field *string, envKey string) {
	if *field != "" {
		return
	}
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "support-chatbot"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30000
	}

	if cfg.Pipeline.ContextTTL == 0 {
		cfg.Pipeline.ContextTTL = int(DefaultContextTTL / time.Millisecond)
	}
	if cfg.Pipeline.LookupTimeout == 0 {
		cfg.Pipeline.LookupTimeout = 10000
	}
	if cfg.Pipeline.AIClassification.Timeout == 0 {
		cfg.Pipeline.AIClassification.Timeout = 3000
	}
	if cfg.Pipeline.AIReply.Timeout == 0 {
		cfg.Pipeline.AIReply.Timeout = 5000
	}
	if cfg.Pipeline.AIReply.ConfidenceThreshold == 0 {
		cfg.Pipeline.AIReply.ConfidenceThreshold = 0.5
	}

	if cfg.AI.Model == "" {
		cfg.AI.Model = "gpt-4o-mini"
	}

	if cfg.Integrations.CRMProvider == "" {
		cfg.Integrations.CRMProvider = CRMProviderKustomer
	}
	if cfg.Integrations.ProductSource == "" {
		cfg.Integrations.ProductSource = ProductSourceShopify
	}
	if cfg.Integrations.Shopify.APIVersion == "" {
		cfg.Integrations.Shopify.APIVersion = "2024-01"
	}
	if cfg.Integrations.Shopify.Timeout == 0 {
		cfg.Integrations.Shopify.Timeout = 10000
	}
	if cfg.Integrations.Shopify.MaxRetries == 0 {
		cfg.Integrations.Shopify.MaxRetries = 2
	}
	if cfg.Integrations.Kustomer.BaseURL == "" {
		cfg.Integrations.Kustomer.BaseURL = "https://api.kustomerapp.com"
	}
	if cfg.Integrations.Kustomer.Timeout == 0 {
		cfg.Integrations.Kustomer.Timeout = 10000
	}
	if cfg.Integrations.Zoho.BaseURL == "" {
		cfg.Integrations.Zoho.BaseURL = "https://www.zohoapis.com/crm/v3"
	}
	if cfg.Integrations.Catalog.Index == "" {
		cfg.Integrations.Catalog.Index = "products"
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Redis.PoolSize == 0 {
		cfg.Database.Redis.PoolSize = 10
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}
	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}

	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = "support.interactions"
	}
	if cfg.Interactions.Postgres.Table == "" {
		cfg.Interactions.Postgres.Table = "support_interactions"
	}

	if cfg.Alerts.AWSRegion == "" {
		cfg.Alerts.AWSRegion = "us-east-1"
	}
	if cfg.Alerts.MinPriority == "" {
		cfg.Alerts.MinPriority = "urgent"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Tracing.Exporter == "" {
		cfg.Tracing.Exporter = "jaeger"
	}
	if cfg.Tracing.SampleRatio == 0 {
		cfg.Tracing.SampleRatio = 1.0
	}
}

func validateConfig(cfg *Config) error {
	switch cfg.Integrations.CRMProvider {
	case CRMProviderKustomer, CRMProviderZoho:
	default:
		return fmt.Errorf("integrations.crm_provider must be %q or %q, got %q",
			CRMProviderKustomer, CRMProviderZoho, cfg.Integrations.CRMProvider)
	}

	switch cfg.Integrations.ProductSource {
	case ProductSourceShopify:
	case ProductSourceElasticsearch:
		if len(cfg.Database.Elasticsearch.GetAddresses()) == 0 {
			return fmt.Errorf("database.elasticsearch.addresses or url is required when product_source is elasticsearch")
		}
	default:
		return fmt.Errorf("integrations.product_source must be %q or %q, got %q",
			ProductSourceShopify, ProductSourceElasticsearch, cfg.Integrations.ProductSource)
	}

	if t := cfg.Pipeline.AIReply.ConfidenceThreshold; t < 0 || t > 1 {
		return fmt.Errorf("pipeline.ai_reply.confidence_threshold must be within [0,1], got %v", t)
	}

	if cfg.Interactions.Postgres.Enabled && !cfg.Database.Postgres.Configured() {
		return fmt.Errorf("database.postgres.host and database are required when interactions.postgres is enabled")
	}
	if cfg.Interactions.Kafka.Enabled && len(cfg.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when interactions.kafka is enabled")
	}

	if cfg.Alerts.SES.Enabled && (cfg.Alerts.SES.FromEmail == "" || len(cfg.Alerts.SES.ToEmails) == 0) {
		return fmt.Errorf("alerts.ses.from_email and to_emails are required when ses alerts are enabled")
	}
	if cfg.Alerts.SNS.Enabled && cfg.Alerts.SNS.TopicARN == "" {
		return fmt.Errorf("alerts.sns.topic_arn is required when sns alerts are enabled")
	}
	switch cfg.Alerts.MinPriority {
	case "high", "urgent":
	default:
		return fmt.Errorf("alerts.min_priority must be high or urgent, got %q", cfg.Alerts.MinPriority)
	}

	if cfg.Tracing.Enabled {
		switch cfg.Tracing.Exporter {
		case "jaeger", "otlp":
		default:
			return fmt.Errorf("tracing.exporter must be jaeger or otlp, got %q", cfg.Tracing.Exporter)
		}
	}

	for name, w := range cfg.Workers {
		if w.Enabled && cfg.Camunda.BrokerAddress == "" {
			return fmt.Errorf("camunda.broker_address is required when worker %s is enabled", name)
		}
	}

	return nil
}

func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig returns the named worker's settings or the defaults.
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}
	return WorkerConfig{
		Enabled:       false,
		MaxJobsActive: 5,
		Timeout:       30000,
		MaxRetries:    3,
	}
}

func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return false
}
