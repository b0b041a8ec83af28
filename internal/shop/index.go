package shop

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"assistant-workers/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

var ErrSearchFailed = errors.New("SEARCH_QUERY_FAILED")

// ProductIndex is the fuzzy lookup tier over the product search index.
type ProductIndex struct {
	client *elasticsearch.Client
	index  string
}

func NewProductIndex(client *elasticsearch.Client, index string) *ProductIndex {
	if index == "" {
		index = "products"
	}
	return &ProductIndex{client: client, index: index}
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string         `json:"_id"`
			Source models.Product `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search returns the best fuzzy match for term, or nil.
func (x *ProductIndex) Search(ctx context.Context, term string) (*models.Product, error) {
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"match": map[string]interface{}{
				"name": map[string]interface{}{
					"query":     term,
					"fuzziness": "AUTO",
					"operator":  "and",
				},
			},
		},
		"size": 1,
	}
	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("%w: encode query: %v", ErrSearchFailed, err)
	}

	req := esapi.SearchRequest{
		Index: []string{x.index},
		Body:  strings.NewReader(string(body)),
	}
	res, err := req.Do(ctx, x.client)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("%w: %s", ErrSearchFailed, res.String())
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrSearchFailed, err)
	}
	if len(r.Hits.Hits) == 0 {
		return nil, nil
	}

	hit := r.Hits.Hits[0]
	p := hit.Source
	if p.ID == "" {
		p.ID = hit.ID
	}
	return &p, nil
}
