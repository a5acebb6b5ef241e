package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/opencrvs/dedup/internal/platform/fhir"
)

// RecordStore is the orchestrator's view of the FHIR record store. Each
// write is a single versioned PUT; there is no cross-resource transaction.
type RecordStore interface {
	GetComposition(ctx context.Context, authHeader, id string) (*fhir.Composition, error)
	GetTaskByFocus(ctx context.Context, authHeader, compositionID string) (*fhir.Task, error)
	UpdateComposition(ctx context.Context, authHeader string, composition *fhir.Composition) error
	UpdateTask(ctx context.Context, authHeader string, task *fhir.Task) error
}

// HTTPRecordStore talks to the FHIR record store over its resource-oriented
// HTTP API, forwarding the caller's bearer token.
type HTTPRecordStore struct {
	baseURL string
	client  *http.Client
}

func NewHTTPRecordStore(baseURL string, client *http.Client) *HTTPRecordStore {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPRecordStore{baseURL: baseURL, client: client}
}

func (s *HTTPRecordStore) GetComposition(ctx context.Context, authHeader, id string) (*fhir.Composition, error) {
	var composition fhir.Composition
	url := fmt.Sprintf("%s/Composition/%s", s.baseURL, id)
	if err := s.getJSON(ctx, authHeader, url, &composition); err != nil {
		return nil, fmt.Errorf("get Composition/%s: %w", id, err)
	}
	return &composition, nil
}

// GetTaskByFocus finds the Task whose focus references the given
// Composition. The store answers with a searchset bundle; the first entry is
// the current Task.
func (s *HTTPRecordStore) GetTaskByFocus(ctx context.Context, authHeader, compositionID string) (*fhir.Task, error) {
	var bundle fhir.Bundle
	url := fmt.Sprintf("%s/Task?focus=Composition/%s", s.baseURL, compositionID)
	if err := s.getJSON(ctx, authHeader, url, &bundle); err != nil {
		return nil, fmt.Errorf("get Task for Composition/%s: %w", compositionID, err)
	}
	if len(bundle.Entry) == 0 {
		return nil, fmt.Errorf("no Task found for Composition/%s", compositionID)
	}
	typed, err := fhir.DecodeEntry(bundle.Entry[0])
	if err != nil {
		return nil, err
	}
	if typed.Kind != fhir.KindTask {
		return nil, fmt.Errorf("Task search for Composition/%s returned %q", compositionID, typed.Kind)
	}
	return typed.Task, nil
}

func (s *HTTPRecordStore) UpdateComposition(ctx context.Context, authHeader string, composition *fhir.Composition) error {
	url := fmt.Sprintf("%s/Composition/%s", s.baseURL, composition.ID)
	if err := s.putJSON(ctx, authHeader, url, composition); err != nil {
		return fmt.Errorf("update Composition/%s: %w", composition.ID, err)
	}
	return nil
}

func (s *HTTPRecordStore) UpdateTask(ctx context.Context, authHeader string, task *fhir.Task) error {
	url := fmt.Sprintf("%s/Task/%s", s.baseURL, task.ID)
	if err := s.putJSON(ctx, authHeader, url, task); err != nil {
		return fmt.Errorf("update Task/%s: %w", task.ID, err)
	}
	return nil
}

func (s *HTTPRecordStore) getJSON(ctx context.Context, authHeader, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("record store returned %d: %s", resp.StatusCode, payload)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (s *HTTPRecordStore) putJSON(ctx context.Context, authHeader, url string, body interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("record store returned %d: %s", resp.StatusCode, raw)
	}
	return nil
}
