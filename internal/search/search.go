// Package search keeps an Elasticsearch index of products and answers
// full-text queries with product ids. Callers load the rows from the
// database so price and stock always come from the source of truth.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/storefront/internal/models"
)

const indexMapping = `{
  "mappings": {
    "properties": {
      "name":        {"type": "text"},
      "description": {"type": "text"},
      "brand":       {"type": "text"},
      "category":    {"type": "keyword"},
      "price":       {"type": "scaled_float", "scaling_factor": 100}
    }
  }
}`

type doc struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Brand       string `json:"brand"`
	Category    string `json:"category"`
	Price       string `json:"price"`
}

type Index struct {
	es   *elasticsearch.Client
	name string
}

func NewClient(url, user, password string) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
		Username:  user,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("es: new client: %w", err)
	}
	return client, nil
}

func New(es *elasticsearch.Client, name string) *Index {
	return &Index{es: es, name: name}
}

// EnsureIndex creates the index with its mapping if it does not exist yet.
func (ix *Index) EnsureIndex(ctx context.Context) error {
	res, err := ix.es.Indices.Exists([]string{ix.name}, ix.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("es: exists %s: %w", ix.name, err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = ix.es.Indices.Create(ix.name,
		ix.es.Indices.Create.WithContext(ctx),
		ix.es.Indices.Create.WithBody(bytes.NewReader([]byte(indexMapping))),
	)
	if err != nil {
		return fmt.Errorf("es: create %s: %w", ix.name, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("create index", res.StatusCode, res.Body)
	}
	return nil
}

func (ix *Index) Index(ctx context.Context, p models.Product) error {
	body, err := json.Marshal(doc{
		Name:        p.Name,
		Description: p.Description,
		Brand:       p.Brand,
		Category:    p.Category,
		Price:       p.Price.StringFixed(2),
	})
	if err != nil {
		return err
	}

	res, err := ix.es.Index(ix.name, bytes.NewReader(body),
		ix.es.Index.WithContext(ctx),
		ix.es.Index.WithDocumentID(strconv.FormatUint(uint64(p.ID), 10)),
	)
	if err != nil {
		return fmt.Errorf("es: index product %d: %w", p.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("index", res.StatusCode, res.Body)
	}
	return nil
}

func (ix *Index) Delete(ctx context.Context, id uint) error {
	res, err := ix.es.Delete(ix.name, strconv.FormatUint(uint64(id), 10), ix.es.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("es: delete product %d: %w", id, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("delete", res.StatusCode, res.Body)
	}
	return nil
}

// Search returns the total hit count and the ids of the requested page.
func (ix *Index) Search(ctx context.Context, query string, from, size int) (int64, []uint, error) {
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"name^2", "description", "brand"},
				"fuzziness": "AUTO",
			},
		},
		"from":    from,
		"size":    size,
		"_source": false,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, err
	}

	res, err := ix.es.Search(
		ix.es.Search.WithContext(ctx),
		ix.es.Search.WithIndex(ix.name),
		ix.es.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("es: search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, responseError("search", res.StatusCode, res.Body)
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("es: decode search: %w", err)
	}

	ids := make([]uint, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		id, err := strconv.ParseUint(h.ID, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, uint(id))
	}
	return r.Hits.Total.Value, ids, nil
}

func responseError(op string, status int, body io.Reader) error {
	b, _ := io.ReadAll(io.LimitReader(body, 512))
	return fmt.Errorf("es: %s: status %d: %s", op, status, bytes.TrimSpace(b))
}
