package fhir

import (
	"encoding/json"
	"fmt"
	"time"
)

// Bundle represents a FHIR Bundle resource. Declarations travel between
// services as document bundles whose first entry is the Composition.
type Bundle struct {
	ResourceType string        `json:"resourceType"`
	ID           string        `json:"id,omitempty"`
	Type         string        `json:"type"`
	Meta         *Meta         `json:"meta,omitempty"`
	Timestamp    *time.Time    `json:"timestamp,omitempty"`
	Entry        []BundleEntry `json:"entry,omitempty"`
}

type BundleEntry struct {
	FullURL  string          `json:"fullUrl,omitempty"`
	Resource json.RawMessage `json:"resource,omitempty"`
}

// ResourceKind discriminates the resource kinds this module reads out of a
// declaration bundle.
type ResourceKind string

const (
	KindComposition   ResourceKind = "Composition"
	KindPatient       ResourceKind = "Patient"
	KindRelatedPerson ResourceKind = "RelatedPerson"
	KindTask          ResourceKind = "Task"
	KindEncounter     ResourceKind = "Encounter"
	KindObservation   ResourceKind = "Observation"
	KindUnknown       ResourceKind = ""
)

// TypedResource is the decoded form of a bundle entry. Exactly one of the
// pointer fields is set, matching Kind. Resources the deduplication core never
// touches (Encounter, Observation) decode to their kind with no payload so
// that callers can still switch exhaustively.
type TypedResource struct {
	Kind          ResourceKind
	Composition   *Composition
	Patient       *Patient
	RelatedPerson *RelatedPerson
	Task          *Task
}

type resourceTypePeek struct {
	ResourceType string `json:"resourceType"`
}

// DecodeEntry projects an untyped bundle entry onto the typed variant. An
// entry whose resourceType is not one this module models decodes to
// KindUnknown rather than an error; a payload that fails to parse as its
// declared type is an error.
func DecodeEntry(e BundleEntry) (TypedResource, error) {
	if len(e.Resource) == 0 {
		return TypedResource{}, fmt.Errorf("bundle entry %q has no resource", e.FullURL)
	}

	var peek resourceTypePeek
	if err := json.Unmarshal(e.Resource, &peek); err != nil {
		return TypedResource{}, fmt.Errorf("decode bundle entry %q: %w", e.FullURL, err)
	}

	switch ResourceKind(peek.ResourceType) {
	case KindComposition:
		var c Composition
		if err := json.Unmarshal(e.Resource, &c); err != nil {
			return TypedResource{}, fmt.Errorf("decode Composition %q: %w", e.FullURL, err)
		}
		return TypedResource{Kind: KindComposition, Composition: &c}, nil
	case KindPatient:
		var p Patient
		if err := json.Unmarshal(e.Resource, &p); err != nil {
			return TypedResource{}, fmt.Errorf("decode Patient %q: %w", e.FullURL, err)
		}
		return TypedResource{Kind: KindPatient, Patient: &p}, nil
	case KindRelatedPerson:
		var rp RelatedPerson
		if err := json.Unmarshal(e.Resource, &rp); err != nil {
			return TypedResource{}, fmt.Errorf("decode RelatedPerson %q: %w", e.FullURL, err)
		}
		return TypedResource{Kind: KindRelatedPerson, RelatedPerson: &rp}, nil
	case KindTask:
		var t Task
		if err := json.Unmarshal(e.Resource, &t); err != nil {
			return TypedResource{}, fmt.Errorf("decode Task %q: %w", e.FullURL, err)
		}
		return TypedResource{Kind: KindTask, Task: &t}, nil
	case KindEncounter:
		return TypedResource{Kind: KindEncounter}, nil
	case KindObservation:
		return TypedResource{Kind: KindObservation}, nil
	default:
		return TypedResource{Kind: KindUnknown}, nil
	}
}

// Composition returns the bundle's Composition, which a document bundle must
// carry as its first entry.
func (b *Bundle) Composition() (*Composition, error) {
	if len(b.Entry) == 0 {
		return nil, fmt.Errorf("bundle has no entries")
	}
	typed, err := DecodeEntry(b.Entry[0])
	if err != nil {
		return nil, err
	}
	if typed.Kind != KindComposition {
		return nil, fmt.Errorf("bundle entry[0] is %q, expected Composition", typed.Kind)
	}
	return typed.Composition, nil
}

// FindEntry resolves a reference against the bundle's entries by fullUrl.
func (b *Bundle) FindEntry(reference string) (BundleEntry, bool) {
	for _, e := range b.Entry {
		if e.FullURL == reference && e.FullURL != "" {
			return e, true
		}
	}
	return BundleEntry{}, false
}

// Task returns the bundle's Task entry, if present.
func (b *Bundle) Task() (*Task, bool) {
	for _, e := range b.Entry {
		typed, err := DecodeEntry(e)
		if err != nil {
			continue
		}
		if typed.Kind == KindTask {
			return typed.Task, true
		}
	}
	return nil, false
}
