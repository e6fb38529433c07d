// Package catalog serves product searches from an Elasticsearch index whose
// documents are models.Product.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"support-chatbot/internal/common/errors"
	"support-chatbot/internal/common/logger"
	"support-chatbot/internal/models"
)

const Name = "elasticsearch"

type Catalog struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func New(client *elasticsearch.Client, index string, log logger.Logger) *Catalog {
	return &Catalog{
		client: client,
		index:  index,
		logger: logger.ForComponent(log, "catalog"),
	}
}

func (c *Catalog) Name() string { return Name }

type searchResponse struct {
	Took int `json:"took"`
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID     string         `json:"_id"`
			Source models.Product `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (c *Catalog) SearchProducts(ctx context.Context, query string, limit int) ([]models.Product, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"title^3", "tags^2", "productType^2", "vendor", "description"},
				"type":      "best_fields",
				"fuzziness": "AUTO",
			},
		},
	}
	products, err := c.search(ctx, body, limit)
	if err != nil {
		return nil, errors.NewLookupFailedError(Name, "search_products", err)
	}
	return products, nil
}

func (c *Catalog) ListProducts(ctx context.Context, limit int) ([]models.Product, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{"match_all": map[string]interface{}{}},
	}
	products, err := c.search(ctx, body, limit)
	if err != nil {
		return nil, errors.NewLookupFailedError(Name, "list_products", err)
	}
	return products, nil
}

func (c *Catalog) search(ctx context.Context, query map[string]interface{}, limit int) ([]models.Product, error) {
	payload, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{c.index},
		Body:  bytes.NewReader(payload),
	}
	if limit > 0 {
		req.Size = &limit
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search error: %s", res.Status())
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	products := make([]models.Product, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		p := hit.Source
		if p.ID == "" {
			p.ID = hit.ID
		}
		products = append(products, p)
	}

	c.logger.Debug("Catalog searched", map[string]interface{}{
		"index":  c.index,
		"hits":   parsed.Hits.Total.Value,
		"tookMs": parsed.Took,
	})
	return products, nil
}

func (c *Catalog) Ping(ctx context.Context) error {
	res, err := c.client.Ping(c.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping failed: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch ping error: %s", res.Status())
	}
	return nil
}
