package fhir

// Event is the vital event a declaration records.
type Event string

const (
	EventBirth Event = "BIRTH"
	EventDeath Event = "DEATH"
)

// Valid reports whether e is a known event type.
func (e Event) Valid() bool {
	return e == EventBirth || e == EventDeath
}

// ExtensionBaseURL is the OpenCRVS extension namespace. Extension URLs built
// from it are shared with every other service on the platform and must match
// byte for byte.
const ExtensionBaseURL = "http://opencrvs.org/specs/extension/"

// FlaggedAsPotentialDuplicate marks a Task whose declaration matched one or
// more pre-existing records. Its valueString is the comma-joined list of
// duplicate tracking IDs.
const FlaggedAsPotentialDuplicate = ExtensionBaseURL + "flagged-as-potential-duplicate"

// Composition section codes identifying the person a section describes.
const (
	SectionChild    = "child-details"
	SectionMother   = "mother-details"
	SectionFather   = "father-details"
	SectionDeceased = "deceased-details"
)

// Identifier systems for declaration tracking IDs, one per event type.
const (
	BirthTrackingIDSystem = "http://opencrvs.org/specs/id/birth-tracking-id"
	DeathTrackingIDSystem = "http://opencrvs.org/specs/id/death-tracking-id"
)

// RelatesToDuplicate is the Composition.relatesTo code linking a Composition
// to a probable duplicate of itself.
const RelatesToDuplicate = "duplicate"

// NationalIDType is the identifier type code for a person's national ID.
const NationalIDType = "NATIONAL_ID"
