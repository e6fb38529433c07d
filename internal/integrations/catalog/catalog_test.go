package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"support-chatbot/internal/common/errors"
	"support-chatbot/internal/common/logger"
)

func newTestCatalog(t *testing.T, handler http.HandlerFunc) *Catalog {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{server.URL}})
	require.NoError(t, err)
	return New(client, "products", logger.NewTestLogger(t))
}

const hitsJSON = `{"took":3,"hits":{"total":{"value":2},"hits":[
  {"_id":"p1","_source":{"title":"Studio Headphones","vendor":"Acme","variants":[{"price":"99.00","inventoryQuantity":2}]}},
  {"_id":"p2","_source":{"id":"custom-2","title":"Earbuds","tags":["audio"]}}
]}}`

func TestSearchProducts(t *testing.T) {
	var body map[string]interface{}
	c := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/_search", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("size"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(hitsJSON))
	})

	products, err := c.SearchProducts(context.Background(), "headphones", 5)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "p1", products[0].ID)
	assert.Equal(t, "Studio Headphones", products[0].Title)
	assert.True(t, products[0].InStock())
	assert.Equal(t, "custom-2", products[1].ID)

	mm := body["query"].(map[string]interface{})["multi_match"].(map[string]interface{})
	assert.Equal(t, "headphones", mm["query"])
	assert.Contains(t, mm["fields"], "title^3")
}

func TestListProducts(t *testing.T) {
	var body map[string]interface{}
	c := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(hitsJSON))
	})

	products, err := c.ListProducts(context.Background(), 3)
	require.NoError(t, err)
	assert.Len(t, products, 2)
	assert.Contains(t, body["query"], "match_all")
}

func TestSearchProducts_IndexMissing(t *testing.T) {
	c := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"type":"index_not_found_exception"},"status":404}`))
	})

	_, err := c.SearchProducts(context.Background(), "mug", 5)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeLookupFailed))
}

func TestPing(t *testing.T) {
	c := newTestCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
	})
	assert.NoError(t, c.Ping(context.Background()))
	assert.Equal(t, Name, c.Name())
}
