// Package app is the composition root: it turns configuration into a wired
// orchestrator plus the infrastructure it owns.
package app

import (
	"context"
	"fmt"
	"time"

	"support-chatbot/internal/alerts"
	awsclients "support-chatbot/internal/common/aws"
	"support-chatbot/internal/common/config"
	"support-chatbot/internal/common/database"
	"support-chatbot/internal/common/logger"
	"support-chatbot/internal/common/observability"
	"support-chatbot/internal/common/zoho"
	"support-chatbot/internal/conversation"
	"support-chatbot/internal/conversation/memory"
	"support-chatbot/internal/conversation/orchestrator"
	"support-chatbot/internal/integrations/catalog"
	"support-chatbot/internal/integrations/kustomer"
	"support-chatbot/internal/integrations/llm"
	"support-chatbot/internal/integrations/productcache"
	"support-chatbot/internal/integrations/shopify"
	"support-chatbot/internal/interactions"
	"support-chatbot/internal/models"
)

// App owns the orchestrator and every connection opened for it.
type App struct {
	Orchestrator  *orchestrator.Orchestrator
	Observability *observability.Observability
	Readiness     map[string]func(ctx context.Context) error

	closers []namedCloser
	logger  logger.Logger
}

type namedCloser struct {
	name  string
	close func() error
}

// Build connects the configured backends and wires the pipeline. Optional
// capabilities that are not configured are left nil.
func Build(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	a := &App{
		Readiness: map[string]func(ctx context.Context) error{},
		logger:    logger.ForComponent(log, "app"),
	}

	obs, err := observability.New(ctx, cfg.App.Name, cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("observability: %w", err)
	}
	a.Observability = obs

	caps, err := a.buildCapabilities(ctx, cfg, log)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	store := memory.NewStore(config.GetDuration(cfg.Pipeline.ContextTTL))

	opts := []orchestrator.Option{
		orchestrator.WithObservability(obs),
		orchestrator.WithLookupTimeout(config.GetDuration(cfg.Pipeline.LookupTimeout)),
	}
	if caps.Labeler != nil {
		opts = append(opts, orchestrator.WithAIClassification(config.GetDuration(cfg.Pipeline.AIClassification.Timeout)))
	}
	if caps.Replies != nil {
		opts = append(opts, orchestrator.WithAIReply(
			cfg.Pipeline.AIReply.ConfidenceThreshold,
			config.GetDuration(cfg.Pipeline.AIReply.Timeout),
		))
	}

	a.Orchestrator = orchestrator.New(store, caps, log, opts...)
	a.logger.Info("Pipeline wired", map[string]interface{}{
		"labeler":  caps.Labeler != nil,
		"orders":   caps.Orders != nil,
		"products": caps.Products != nil,
		"support":  caps.Support != nil,
		"replies":  caps.Replies != nil,
		"recorder": caps.Recorder != nil,
	})
	return a, nil
}

func (a *App) buildCapabilities(ctx context.Context, cfg *config.Config, log logger.Logger) (conversation.Capabilities, error) {
	var caps conversation.Capabilities

	if cfg.AI.Configured() {
		client := llm.NewClient(cfg.AI, log)
		if cfg.Pipeline.AIClassification.Enabled {
			caps.Labeler = llm.NewLabeler(client)
		}
		if cfg.Pipeline.AIReply.Enabled {
			caps.Replies = llm.NewReplier(client)
		}
	}

	var shop *shopify.Client
	if cfg.Integrations.Shopify.Configured() {
		shop = shopify.New(cfg.Integrations.Shopify, log)
		caps.Orders = shop
		caps.Carts = shop
	}

	products, err := a.buildProducts(ctx, cfg, shop, log)
	if err != nil {
		return caps, err
	}
	if products != nil {
		caps.Products = products
	}

	support, err := a.buildSupport(ctx, cfg, log)
	if err != nil {
		return caps, err
	}
	if support != nil {
		caps.Support = support
	}

	recorder, err := a.buildRecorder(ctx, cfg, log)
	if err != nil {
		return caps, err
	}
	if recorder != nil {
		caps.Recorder = recorder
	}

	return caps, nil
}

func (a *App) buildProducts(ctx context.Context, cfg *config.Config, shop *shopify.Client, log logger.Logger) (conversation.ProductSearcher, error) {
	var source conversation.ProductSearcher
	switch cfg.Integrations.ProductSource {
	case config.ProductSourceElasticsearch:
		es, err := database.NewElasticsearch(ctx, cfg.Database.Elasticsearch)
		if err != nil {
			return nil, fmt.Errorf("elasticsearch: %w", err)
		}
		a.Readiness["elasticsearch"] = es.Ping
		source = catalog.New(es.Client, cfg.Integrations.Catalog.Index, log)
	default:
		if shop == nil {
			return nil, nil
		}
		source = shop
	}

	if cfg.Integrations.Catalog.CacheTTL <= 0 || cfg.Database.Redis.Address == "" {
		return source, nil
	}

	rdb, err := database.NewRedis(ctx, cfg.Database.Redis)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	a.Readiness["redis"] = rdb.Ping
	a.closers = append(a.closers, namedCloser{"redis", rdb.Close})

	ttl := time.Duration(cfg.Integrations.Catalog.CacheTTL) * time.Second
	return productcache.New(source, rdb.Client, ttl, log), nil
}

func (a *App) buildSupport(ctx context.Context, cfg *config.Config, log logger.Logger) (conversation.CustomerSupport, error) {
	var crm conversation.CustomerSupport
	switch cfg.Integrations.CRMProvider {
	case config.CRMProviderZoho:
		if cfg.Integrations.Zoho.Configured() {
			crm = zoho.NewCRMClient(cfg.Integrations.Zoho, log)
		}
	default:
		if cfg.Integrations.Kustomer.Configured() {
			crm = kustomer.New(cfg.Integrations.Kustomer, log)
		}
	}
	if crm == nil || !cfg.Alerts.Enabled() {
		return crm, nil
	}

	var opts []alerts.Option
	if cfg.Alerts.SES.Enabled {
		ses, err := awsclients.NewSESClient(ctx, cfg.Alerts.AWSRegion)
		if err != nil {
			return nil, fmt.Errorf("ses: %w", err)
		}
		opts = append(opts, alerts.WithEmail(ses))
	}
	if cfg.Alerts.SNS.Enabled {
		sns, err := awsclients.NewSNSClient(ctx, cfg.Alerts.AWSRegion)
		if err != nil {
			return nil, fmt.Errorf("sns: %w", err)
		}
		opts = append(opts, alerts.WithTopic(sns))
	}

	return alerts.New(crm, alerts.Config{
		MinPriority: models.Priority(cfg.Alerts.MinPriority),
		FromEmail:   cfg.Alerts.SES.FromEmail,
		ToEmails:    cfg.Alerts.SES.ToEmails,
		TopicARN:    cfg.Alerts.SNS.TopicARN,
	}, log, opts...), nil
}

func (a *App) buildRecorder(ctx context.Context, cfg *config.Config, log logger.Logger) (conversation.Recorder, error) {
	multi := interactions.NewMulti(log)

	if cfg.Interactions.Postgres.Enabled {
		pg, err := database.NewPostgres(ctx, cfg.Database.Postgres)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		a.Readiness["postgres"] = pg.Ping
		a.closers = append(a.closers, namedCloser{"postgres", pg.Close})

		recorder := interactions.NewPostgresRecorder(pg.DB, cfg.Interactions.Postgres.Table)
		if err := recorder.EnsureTable(ctx); err != nil {
			return nil, err
		}
		multi.Add(interactions.SinkPostgres, recorder)
	}

	if cfg.Interactions.Kafka.Enabled {
		recorder := interactions.NewKafkaRecorder(interactions.NewKafkaWriter(cfg.Kafka))
		a.closers = append(a.closers, namedCloser{"kafka", recorder.Close})
		multi.Add(interactions.SinkKafka, recorder)
	}

	if multi.Len() == 0 {
		return nil, nil
	}
	return multi, nil
}

// Close releases connections in reverse order of opening.
func (a *App) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.close(); err != nil {
			a.logger.Warn("Failed to close", map[string]interface{}{"resource": c.name, "error": err.Error()})
		}
	}
	a.closers = nil
	if err := a.Observability.Shutdown(ctx); err != nil {
		a.logger.Warn("Failed to shut down observability", map[string]interface{}{"error": err.Error()})
	}
}
