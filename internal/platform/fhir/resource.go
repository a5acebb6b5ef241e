package fhir

import "time"

// Meta holds FHIR resource metadata.
type Meta struct {
	VersionID   string     `json:"versionId,omitempty"`
	LastUpdated *time.Time `json:"lastUpdated,omitempty"`
}

type Coding struct {
	System  string `json:"system,omitempty"`
	Code    string `json:"code,omitempty"`
	Display string `json:"display,omitempty"`
}

type CodeableConcept struct {
	Coding []Coding `json:"coding,omitempty"`
	Text   string   `json:"text,omitempty"`
}

type Reference struct {
	Reference string `json:"reference,omitempty"`
	Display   string `json:"display,omitempty"`
}

type Identifier struct {
	Use    string           `json:"use,omitempty"`
	Type   *CodeableConcept `json:"type,omitempty"`
	System string           `json:"system,omitempty"`
	Value  string           `json:"value,omitempty"`
}

// HumanName is a person's name in one locale. OpenCRVS records one HumanName
// per locale, discriminated by Use ("en", "bn", ...), and stores the family
// name as an array.
type HumanName struct {
	Use    string   `json:"use,omitempty"`
	Given  []string `json:"given,omitempty"`
	Family []string `json:"family,omitempty"`
}

type Extension struct {
	URL          string `json:"url"`
	ValueString  string `json:"valueString,omitempty"`
	ValueBoolean *bool  `json:"valueBoolean,omitempty"`
	ValueInteger *int   `json:"valueInteger,omitempty"`
}

// FormatReference creates a FHIR relative reference string.
func FormatReference(resourceType, id string) string {
	return resourceType + "/" + id
}

// HasCoding reports whether the concept carries the given code in any coding
// entry or as its text.
func (c CodeableConcept) HasCoding(code string) bool {
	for _, coding := range c.Coding {
		if coding.Code == code {
			return true
		}
	}
	return c.Text == code
}
