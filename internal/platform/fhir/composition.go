package fhir

// Composition is the root resource of a declaration, tying together the
// person sections (child, mother, father, deceased) and registration data.
type Composition struct {
	ResourceType string               `json:"resourceType"`
	ID           string               `json:"id,omitempty"`
	Meta         *Meta                `json:"meta,omitempty"`
	Identifier   *Identifier          `json:"identifier,omitempty"`
	Status       string               `json:"status,omitempty"`
	Type         *CodeableConcept     `json:"type,omitempty"`
	Title        string               `json:"title,omitempty"`
	Date         string               `json:"date,omitempty"`
	Section      []CompositionSection `json:"section,omitempty"`
	RelatesTo    []RelatesTo          `json:"relatesTo,omitempty"`
}

type CompositionSection struct {
	Title string          `json:"title,omitempty"`
	Code  CodeableConcept `json:"code,omitempty"`
	Entry []Reference     `json:"entry,omitempty"`
}

// RelatesTo links a Composition to another one, e.g. a probable duplicate.
type RelatesTo struct {
	Code            string    `json:"code"`
	TargetReference Reference `json:"targetReference"`
}

// SectionByCode returns the section whose coding carries the given code.
func (c *Composition) SectionByCode(code string) (CompositionSection, bool) {
	for _, s := range c.Section {
		if s.Code.HasCoding(code) {
			return s, true
		}
	}
	return CompositionSection{}, false
}

// RelatesToDuplicateOf reports whether the Composition already carries a
// duplicate link to the given Composition ID.
func (c *Composition) RelatesToDuplicateOf(compositionID string) bool {
	target := FormatReference(string(KindComposition), compositionID)
	for _, r := range c.RelatesTo {
		if r.Code == RelatesToDuplicate && r.TargetReference.Reference == target {
			return true
		}
	}
	return false
}
