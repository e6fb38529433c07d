// Package productcache puts a Redis read-through cache in front of a
// ProductSearcher.
package productcache

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"support-chatbot/internal/common/errors"
	"support-chatbot/internal/common/logger"
	"support-chatbot/internal/conversation"
	"support-chatbot/internal/models"
)

const keyPrefix = "support:products:"

// Cache is itself a ProductSearcher. Redis failures are logged and the
// request goes straight to the wrapped searcher.
type Cache struct {
	inner  conversation.ProductSearcher
	redis  redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func New(inner conversation.ProductSearcher, rdb redis.Cmdable, ttl time.Duration, log logger.Logger) *Cache {
	return &Cache{
		inner:  inner,
		redis:  rdb,
		ttl:    ttl,
		logger: logger.ForComponent(log, "product-cache"),
	}
}

func (c *Cache) Name() string { return c.inner.Name() }

func (c *Cache) SearchProducts(ctx context.Context, query string, limit int) ([]models.Product, error) {
	key := fmt.Sprintf("%ssearch:%d:%s", keyPrefix, limit, strings.ToLower(strings.TrimSpace(query)))
	return c.through(ctx, key, func() ([]models.Product, error) {
		return c.inner.SearchProducts(ctx, query, limit)
	})
}

func (c *Cache) ListProducts(ctx context.Context, limit int) ([]models.Product, error) {
	key := fmt.Sprintf("%slist:%d", keyPrefix, limit)
	return c.through(ctx, key, func() ([]models.Product, error) {
		return c.inner.ListProducts(ctx, limit)
	})
}

func (c *Cache) through(ctx context.Context, key string, load func() ([]models.Product, error)) ([]models.Product, error) {
	if products, ok := c.get(ctx, key); ok {
		return products, nil
	}

	products, err := load()
	if err != nil {
		return nil, err
	}
	// Empty results are not cached so new stock shows up immediately.
	if len(products) > 0 {
		c.set(ctx, key, products)
	}
	return products, nil
}

func (c *Cache) get(ctx context.Context, key string) ([]models.Product, bool) {
	raw, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !stderrors.Is(err, redis.Nil) {
			c.warn("get", key, err)
		}
		return nil, false
	}

	var products []models.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		c.warn("decode", key, err)
		return nil, false
	}
	return products, true
}

func (c *Cache) set(ctx context.Context, key string, products []models.Product) {
	raw, err := json.Marshal(products)
	if err != nil {
		c.warn("encode", key, err)
		return
	}
	if err := c.redis.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.warn("set", key, err)
	}
}

func (c *Cache) warn(op, key string, err error) {
	cacheErr := errors.NewCacheFailedError(op, err)
	c.logger.Warn("Product cache unavailable, using backend", map[string]interface{}{
		"key":   key,
		"code":  cacheErr.Code,
		"error": cacheErr.Error(),
	})
}

// Ping reports the wrapped searcher's health; the cache is optional.
func (c *Cache) Ping(ctx context.Context) error {
	if p, ok := c.inner.(conversation.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
