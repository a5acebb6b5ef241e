// Package dedup holds the identity-field types and bundle extraction shared
// by the search service (indexing and matching) and the workflow service
// (duplicate checking).
package dedup

import (
	"fmt"
	"strings"

	"github.com/opencrvs/dedup/internal/platform/fhir"
)

// Locales names the two name locales read out of a Patient resource. The
// secondary locale is optional on every record.
type Locales struct {
	Primary   string
	Secondary string
}

// DefaultLocales returns the locales OpenCRVS country configurations ship
// with by default.
func DefaultLocales() Locales {
	return Locales{Primary: "en", Secondary: "bn"}
}

// IdentityProjection is the flattened identity of one declaration role. It is
// derived fresh on every extraction and never persisted. Fields the source
// Patient does not carry stay empty; callers treat the projection as partial.
type IdentityProjection struct {
	FirstNames      string
	FamilyName      string
	FirstNamesLocal string
	FamilyNameLocal string
	BirthDate       string
	DeathDate       string
	Identifier      string
}

// MissingSectionError signals that the bundle's Composition has no section
// with the requested code. Non-retryable: the declaration is structurally
// incomplete for this check.
type MissingSectionError struct {
	SectionCode string
}

func (e *MissingSectionError) Error() string {
	return fmt.Sprintf("composition has no section with code %q", e.SectionCode)
}

// DanglingReferenceError signals a section entry reference that resolves to
// no entry within the bundle. Non-retryable input-structure failure.
type DanglingReferenceError struct {
	Reference string
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("section reference %q not found in bundle", e.Reference)
}

// ExtractProjection locates the Patient behind the Composition section with
// the given code and flattens it into an IdentityProjection.
//
// Given names are joined with a single space; the family name is the first
// element of the family array. No further normalization happens here so that
// extraction stays a pure, idempotent read; matching-time normalization is
// the search backend's concern.
func ExtractProjection(b *fhir.Bundle, sectionCode string, locales Locales) (*IdentityProjection, error) {
	composition, err := b.Composition()
	if err != nil {
		return nil, err
	}

	section, ok := composition.SectionByCode(sectionCode)
	if !ok {
		return nil, &MissingSectionError{SectionCode: sectionCode}
	}
	if len(section.Entry) == 0 {
		return nil, &MissingSectionError{SectionCode: sectionCode}
	}

	ref := section.Entry[0].Reference
	entry, ok := b.FindEntry(ref)
	if !ok {
		return nil, &DanglingReferenceError{Reference: ref}
	}

	typed, err := fhir.DecodeEntry(entry)
	if err != nil {
		return nil, err
	}
	if typed.Kind != fhir.KindPatient {
		return nil, &DanglingReferenceError{Reference: ref}
	}
	patient := typed.Patient

	proj := &IdentityProjection{
		BirthDate: patient.BirthDate,
		DeathDate: patient.DeceasedDateTime,
	}

	if name, ok := patient.NameForLocale(locales.Primary); ok {
		proj.FirstNames = strings.Join(name.Given, " ")
		if len(name.Family) > 0 {
			proj.FamilyName = name.Family[0]
		}
	}
	if name, ok := patient.NameForLocale(locales.Secondary); ok {
		proj.FirstNamesLocal = strings.Join(name.Given, " ")
		if len(name.Family) > 0 {
			proj.FamilyNameLocal = name.Family[0]
		}
	}

	if id, ok := patient.IdentifierOfType(fhir.NationalIDType); ok {
		proj.Identifier = id
	} else if len(patient.Identifier) > 0 {
		proj.Identifier = patient.Identifier[0].Value
	}

	return proj, nil
}

// Empty reports whether the projection carries no identity signal at all.
func (p *IdentityProjection) Empty() bool {
	if p == nil {
		return true
	}
	return p.FirstNames == "" && p.FamilyName == "" &&
		p.FirstNamesLocal == "" && p.FamilyNameLocal == "" &&
		p.BirthDate == "" && p.DeathDate == "" && p.Identifier == ""
}
