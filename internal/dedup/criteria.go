package dedup

import "github.com/opencrvs/dedup/internal/platform/fhir"

// Candidate identifies a pre-existing record judged a probable duplicate.
type Candidate struct {
	ID         string `json:"id"`
	TrackingID string `json:"trackingId"`
}

// BirthCriteria is the field set a birth duplicate search matches against.
// The composition ID excludes the record's own index document from the
// result. Empty fields are omitted from the search request.
type BirthCriteria struct {
	CompositionID         string `json:"compositionId"`
	ChildFirstNames       string `json:"childFirstNames,omitempty"`
	ChildFamilyName       string `json:"childFamilyName,omitempty"`
	ChildFirstNamesLocal  string `json:"childFirstNamesLocal,omitempty"`
	ChildFamilyNameLocal  string `json:"childFamilyNameLocal,omitempty"`
	ChildDoB              string `json:"childDoB,omitempty"`
	MotherFirstNames      string `json:"motherFirstNames,omitempty"`
	MotherFamilyName      string `json:"motherFamilyName,omitempty"`
	MotherFirstNamesLocal string `json:"motherFirstNamesLocal,omitempty"`
	MotherFamilyNameLocal string `json:"motherFamilyNameLocal,omitempty"`
	MotherDoB             string `json:"motherDoB,omitempty"`
	MotherIdentifier      string `json:"motherIdentifier,omitempty"`
}

// DeathCriteria is the field set a death duplicate search matches against.
type DeathCriteria struct {
	CompositionID           string `json:"compositionId"`
	DeceasedFirstNames      string `json:"deceasedFirstNames,omitempty"`
	DeceasedFamilyName      string `json:"deceasedFamilyName,omitempty"`
	DeceasedFirstNamesLocal string `json:"deceasedFirstNamesLocal,omitempty"`
	DeceasedFamilyNameLocal string `json:"deceasedFamilyNameLocal,omitempty"`
	DeceasedDoB             string `json:"deceasedDoB,omitempty"`
	DeceasedIdentifier      string `json:"deceasedIdentifier,omitempty"`
	DeathDate               string `json:"deathDate,omitempty"`
}

// BirthCriteriaFromBundle extracts birth duplicate-search criteria from a
// declaration bundle. The child section is the anchor: a missing or dangling
// child section is an error. The mother section is optional; when absent the
// mother fields stay empty.
func BirthCriteriaFromBundle(b *fhir.Bundle, compositionID string, locales Locales) (*BirthCriteria, error) {
	child, err := ExtractProjection(b, fhir.SectionChild, locales)
	if err != nil {
		return nil, err
	}

	criteria := &BirthCriteria{
		CompositionID:        compositionID,
		ChildFirstNames:      child.FirstNames,
		ChildFamilyName:      child.FamilyName,
		ChildFirstNamesLocal: child.FirstNamesLocal,
		ChildFamilyNameLocal: child.FamilyNameLocal,
		ChildDoB:             child.BirthDate,
	}

	mother, err := ExtractProjection(b, fhir.SectionMother, locales)
	if err == nil {
		criteria.MotherFirstNames = mother.FirstNames
		criteria.MotherFamilyName = mother.FamilyName
		criteria.MotherFirstNamesLocal = mother.FirstNamesLocal
		criteria.MotherFamilyNameLocal = mother.FamilyNameLocal
		criteria.MotherDoB = mother.BirthDate
		criteria.MotherIdentifier = mother.Identifier
	}

	return criteria, nil
}

// DeathCriteriaFromBundle extracts death duplicate-search criteria from a
// declaration bundle. The deceased section is the anchor.
func DeathCriteriaFromBundle(b *fhir.Bundle, compositionID string, locales Locales) (*DeathCriteria, error) {
	deceased, err := ExtractProjection(b, fhir.SectionDeceased, locales)
	if err != nil {
		return nil, err
	}

	return &DeathCriteria{
		CompositionID:           compositionID,
		DeceasedFirstNames:      deceased.FirstNames,
		DeceasedFamilyName:      deceased.FamilyName,
		DeceasedFirstNamesLocal: deceased.FirstNamesLocal,
		DeceasedFamilyNameLocal: deceased.FamilyNameLocal,
		DeceasedDoB:             deceased.BirthDate,
		DeceasedIdentifier:      deceased.Identifier,
		DeathDate:               deceased.DeathDate,
	}, nil
}

// Anchored reports whether the criteria carry any identity signal for the
// child. A near-empty criteria set would match half the index, so the search
// is skipped without it.
func (c *BirthCriteria) Anchored() bool {
	return c.ChildFirstNames != "" || c.ChildFamilyName != "" ||
		c.ChildFirstNamesLocal != "" || c.ChildFamilyNameLocal != "" ||
		c.ChildDoB != ""
}

// Anchored reports whether the criteria carry any identity signal for the
// deceased.
func (c *DeathCriteria) Anchored() bool {
	return c.DeceasedFirstNames != "" || c.DeceasedFamilyName != "" ||
		c.DeceasedFirstNamesLocal != "" || c.DeceasedFamilyNameLocal != "" ||
		c.DeceasedDoB != "" || c.DeceasedIdentifier != ""
}
