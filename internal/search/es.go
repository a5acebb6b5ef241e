package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"
)

// Hit is one scored document returned by the search backend.
type Hit struct {
	ID         string
	TrackingID string
	Score      float64
}

// Backend abstracts the full-text search backend. The production
// implementation is ESClient; tests substitute a fake.
type Backend interface {
	Search(ctx context.Context, query map[string]interface{}, size int, minScore float64) ([]Hit, error)
	Index(ctx context.Context, id string, doc map[string]interface{}) error
}

// ESClient talks to an Elasticsearch-compatible backend over HTTP. The
// matching itself (edit distance, field weighting, minimum-should-match)
// happens entirely in the backend; this client only ships payloads.
type ESClient struct {
	baseURL string
	index   string
	client  *http.Client
	logger  zerolog.Logger
}

// NewESClient creates a client for the given base URL and index name.
func NewESClient(baseURL, index string, client *http.Client, logger zerolog.Logger) *ESClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &ESClient{baseURL: baseURL, index: index, client: client, logger: logger}
}

type esSearchRequest struct {
	Query    map[string]interface{} `json:"query"`
	Size     int                    `json:"size"`
	MinScore float64                `json:"min_score,omitempty"`
}

type esSearchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string  `json:"_id"`
			Score  float64 `json:"_score"`
			Source struct {
				CompositionID string `json:"compositionId"`
				TrackingID    string `json:"trackingId"`
			} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search executes the query and unwraps hits into {id, trackingId, score}
// triples, backend relevance order preserved.
func (c *ESClient) Search(ctx context.Context, query map[string]interface{}, size int, minScore float64) ([]Hit, error) {
	body, err := json.Marshal(esSearchRequest{Query: query, Size: size, MinScore: minScore})
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/_search", c.baseURL, c.index)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("search backend returned %d: %s", resp.StatusCode, payload)
	}

	var parsed esSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	hits := make([]Hit, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		id := h.Source.CompositionID
		if id == "" {
			id = h.ID
		}
		hits = append(hits, Hit{ID: id, TrackingID: h.Source.TrackingID, Score: h.Score})
	}
	return hits, nil
}

// Index writes one identity document under the given ID, replacing any
// previous version. Declarations are re-indexed on every update.
func (c *ESClient) Index(ctx context.Context, id string, doc map[string]interface{}) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal index document: %w", err)
	}

	url := fmt.Sprintf("%s/%s/_doc/%s", c.baseURL, c.index, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build index request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("index document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("index backend returned %d: %s", resp.StatusCode, payload)
	}

	c.logger.Debug().Str("composition_id", id).Msg("indexed declaration")
	return nil
}
