// Package workflow implements the duplicate-annotation side of
// deduplication: on every declaration create/update it asks the search
// service for probable duplicates and persists the duplicate relationship on
// both records.
package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/opencrvs/dedup/internal/dedup"
)

// SearchUnavailableError wraps any failure to get an answer from the search
// service: network errors, timeouts, and non-200 responses. Duplicate
// checking degrades to "no duplicates found this time"; the declaration
// update itself proceeds.
type SearchUnavailableError struct {
	Cause error
}

func (e *SearchUnavailableError) Error() string {
	return fmt.Sprintf("duplicate search unavailable: %v", e.Cause)
}

func (e *SearchUnavailableError) Unwrap() error {
	return e.Cause
}

// DuplicateSearcher is the orchestrator's view of the search service.
type DuplicateSearcher interface {
	FindBirthDuplicates(ctx context.Context, authHeader string, criteria *dedup.BirthCriteria, transactionID string) ([]dedup.Candidate, error)
	FindDeathDuplicates(ctx context.Context, authHeader string, criteria *dedup.DeathCriteria, transactionID string) ([]dedup.Candidate, error)
}

// SearchClient calls the deduplication search service over HTTP, forwarding
// the caller's bearer token.
type SearchClient struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
}

// NewSearchClient creates a client for the search service at baseURL. Every
// call carries the given per-request timeout.
func NewSearchClient(baseURL string, client *http.Client, timeout time.Duration) *SearchClient {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SearchClient{baseURL: baseURL, client: client, timeout: timeout}
}

type searchRequest struct {
	Criteria      interface{} `json:"criteria"`
	TransactionID string      `json:"transactionId"`
}

func (c *SearchClient) FindBirthDuplicates(ctx context.Context, authHeader string, criteria *dedup.BirthCriteria, transactionID string) ([]dedup.Candidate, error) {
	return c.post(ctx, authHeader, c.baseURL+"/search/duplicates/birth", criteria, transactionID)
}

func (c *SearchClient) FindDeathDuplicates(ctx context.Context, authHeader string, criteria *dedup.DeathCriteria, transactionID string) ([]dedup.Candidate, error) {
	return c.post(ctx, authHeader, c.baseURL+"/search/duplicates/death", criteria, transactionID)
}

func (c *SearchClient) post(ctx context.Context, authHeader, url string, criteria interface{}, transactionID string) ([]dedup.Candidate, error) {
	body, err := json.Marshal(searchRequest{Criteria: criteria, TransactionID: transactionID})
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &SearchUnavailableError{Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, &SearchUnavailableError{Cause: fmt.Errorf("search service returned %d: %s", resp.StatusCode, payload)}
	}

	var candidates []dedup.Candidate
	if err := json.NewDecoder(resp.Body).Decode(&candidates); err != nil {
		return nil, &SearchUnavailableError{Cause: fmt.Errorf("decode search response: %w", err)}
	}
	return candidates, nil
}
