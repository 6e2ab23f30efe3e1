package es

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/kickylau/DOPE/internal/models"
)

// CafeIndex mirrors cafe rows into Elasticsearch for full-text search.
// A nil index is valid and makes every operation a no-op, so the API works
// without a search cluster.
type CafeIndex struct {
	Client *elasticsearch.Client
	Name   string
}

func NewCafeIndex(client *elasticsearch.Client) *CafeIndex {
	return &CafeIndex{Client: client, Name: "cafe"}
}

func (i *CafeIndex) Index(ctx context.Context, cafe *models.Cafe) error {
	if i == nil || i.Client == nil {
		return nil
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(cafe); err != nil {
		return fmt.Errorf("es: encode cafe: %w", err)
	}

	res, err := i.Client.Index(
		i.Name,
		&buf,
		i.Client.Index.WithDocumentID(strconv.FormatUint(uint64(cafe.ID), 10)),
		i.Client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("es: index cafe %d: %w", cafe.ID, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("es: index cafe %d: %s", cafe.ID, res.Status())
	}
	return nil
}

func (i *CafeIndex) Delete(ctx context.Context, id uint) error {
	if i == nil || i.Client == nil {
		return nil
	}

	res, err := i.Client.Delete(
		i.Name,
		strconv.FormatUint(uint64(id), 10),
		i.Client.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("es: delete cafe %d: %w", id, err)
	}
	defer res.Body.Close()

	// 404 just means the document was never indexed.
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("es: delete cafe %d: %s", id, res.Status())
	}
	return nil
}

// Search runs a fuzzy multi_match over title, description and city.
func (i *CafeIndex) Search(ctx context.Context, query string, from, size int) (int64, []models.Cafe, error) {
	if i == nil || i.Client == nil {
		return 0, nil, fmt.Errorf("es: search is not configured")
	}

	body := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"title^2", "description", "city"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("es: encode query: %w", err)
	}

	res, err := i.Client.Search(
		i.Client.Search.WithContext(ctx),
		i.Client.Search.WithIndex(i.Name),
		i.Client.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("es: search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, nil, fmt.Errorf("es: search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.Cafe `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, err
	}

	cafes := make([]models.Cafe, len(r.Hits.Hits))
	for idx, hit := range r.Hits.Hits {
		cafes[idx] = hit.Source
	}
	return r.Hits.Total.Value, cafes, nil
}
