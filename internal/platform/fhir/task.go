package fhir

// Task tracks a Composition's workflow status (declared, validated,
// registered) and carries business extensions, including the duplicate flag.
type Task struct {
	ResourceType string           `json:"resourceType"`
	ID           string           `json:"id,omitempty"`
	Meta         *Meta            `json:"meta,omitempty"`
	Status       string           `json:"status,omitempty"`
	Code         *CodeableConcept `json:"code,omitempty"`
	Focus        *Reference       `json:"focus,omitempty"`
	Identifier   []Identifier     `json:"identifier,omitempty"`
	Extension    []Extension      `json:"extension,omitempty"`
	LastModified string           `json:"lastModified,omitempty"`
}

// FindExtension returns the first extension with the given URL.
func (t *Task) FindExtension(url string) (Extension, bool) {
	for _, ext := range t.Extension {
		if ext.URL == url {
			return ext, true
		}
	}
	return Extension{}, false
}

// TrackingID returns the declaration's human-facing tracking identifier,
// whichever event's identifier system carries it.
func (t *Task) TrackingID() string {
	for _, id := range t.Identifier {
		if id.System == BirthTrackingIDSystem || id.System == DeathTrackingIDSystem {
			return id.Value
		}
	}
	return ""
}
