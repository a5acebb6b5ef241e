package fhir

// Patient carries the identity fields of one person in a declaration. The
// same shape serves child, mother, father, and deceased roles.
type Patient struct {
	ResourceType     string       `json:"resourceType"`
	ID               string       `json:"id,omitempty"`
	Meta             *Meta        `json:"meta,omitempty"`
	Identifier       []Identifier `json:"identifier,omitempty"`
	Name             []HumanName  `json:"name,omitempty"`
	Gender           string       `json:"gender,omitempty"`
	BirthDate        string       `json:"birthDate,omitempty"`
	DeceasedDateTime string       `json:"deceasedDateTime,omitempty"`
}

// NameForLocale returns the patient's name variant for the given locale.
func (p *Patient) NameForLocale(locale string) (HumanName, bool) {
	for _, n := range p.Name {
		if n.Use == locale {
			return n, true
		}
	}
	return HumanName{}, false
}

// IdentifierOfType returns the value of the identifier whose type carries the
// given code, e.g. NATIONAL_ID.
func (p *Patient) IdentifierOfType(code string) (string, bool) {
	for _, id := range p.Identifier {
		if id.Type != nil && id.Type.HasCoding(code) {
			return id.Value, true
		}
	}
	return "", false
}

// RelatedPerson links a declaration role (e.g. the informant) to a Patient.
type RelatedPerson struct {
	ResourceType string           `json:"resourceType"`
	ID           string           `json:"id,omitempty"`
	Relationship *CodeableConcept `json:"relationship,omitempty"`
	Patient      *Reference       `json:"patient,omitempty"`
}
