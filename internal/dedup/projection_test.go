package dedup

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/opencrvs/dedup/internal/platform/fhir"
)

// =========== Fixtures ===========

func mustEntry(t *testing.T, fullURL string, resource any) fhir.BundleEntry {
	t.Helper()
	raw, err := json.Marshal(resource)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	return fhir.BundleEntry{FullURL: fullURL, Resource: raw}
}

func sectionFor(code, title, ref string) fhir.CompositionSection {
	return fhir.CompositionSection{
		Title: title,
		Code:  fhir.CodeableConcept{Coding: []fhir.Coding{{System: "http://opencrvs.org/doc-sections", Code: code}}},
		Entry: []fhir.Reference{{Reference: ref}},
	}
}

func childPatient() fhir.Patient {
	return fhir.Patient{
		ResourceType: "Patient",
		Name: []fhir.HumanName{
			{Use: "en", Given: []string{"Jane", "Marie"}, Family: []string{"Doe"}},
			{Use: "bn", Given: []string{"জেন"}, Family: []string{"ডো"}},
		},
		BirthDate: "2024-01-15",
	}
}

func motherPatient() fhir.Patient {
	return fhir.Patient{
		ResourceType: "Patient",
		Name: []fhir.HumanName{
			{Use: "en", Given: []string{"Mary"}, Family: []string{"Doe"}},
		},
		BirthDate: "1990-06-01",
		Identifier: []fhir.Identifier{
			{Value: "NID-MOTHER", Type: &fhir.CodeableConcept{Coding: []fhir.Coding{{Code: fhir.NationalIDType}}}},
		},
	}
}

func birthBundle(t *testing.T) *fhir.Bundle {
	t.Helper()
	comp := fhir.Composition{
		ResourceType: "Composition",
		ID:           "comp-birth-1",
		Section: []fhir.CompositionSection{
			sectionFor(fhir.SectionChild, "Child details", "urn:uuid:child-1"),
			sectionFor(fhir.SectionMother, "Mother details", "urn:uuid:mother-1"),
		},
	}
	return &fhir.Bundle{
		ResourceType: "Bundle",
		Type:         "document",
		Entry: []fhir.BundleEntry{
			mustEntry(t, "urn:uuid:comp-1", comp),
			mustEntry(t, "urn:uuid:child-1", childPatient()),
			mustEntry(t, "urn:uuid:mother-1", motherPatient()),
			mustEntry(t, "urn:uuid:task-1", fhir.Task{
				ResourceType: "Task",
				Identifier: []fhir.Identifier{
					{System: fhir.BirthTrackingIDSystem, Value: "B999999"},
				},
			}),
		},
	}
}

func deathBundle(t *testing.T) *fhir.Bundle {
	t.Helper()
	deceased := fhir.Patient{
		ResourceType: "Patient",
		Name: []fhir.HumanName{
			{Use: "en", Given: []string{"John"}, Family: []string{"Smith"}},
		},
		BirthDate:        "1950-03-20",
		DeceasedDateTime: "2025-11-02",
		Identifier: []fhir.Identifier{
			{Value: "NID-DEC", Type: &fhir.CodeableConcept{Coding: []fhir.Coding{{Code: fhir.NationalIDType}}}},
		},
	}
	comp := fhir.Composition{
		ResourceType: "Composition",
		ID:           "comp-death-1",
		Section: []fhir.CompositionSection{
			sectionFor(fhir.SectionDeceased, "Deceased details", "urn:uuid:deceased-1"),
		},
	}
	return &fhir.Bundle{
		ResourceType: "Bundle",
		Type:         "document",
		Entry: []fhir.BundleEntry{
			mustEntry(t, "urn:uuid:comp-1", comp),
			mustEntry(t, "urn:uuid:deceased-1", deceased),
		},
	}
}

// =========== Extraction ===========

func TestExtractProjection(t *testing.T) {
	t.Run("ChildBothLocales", func(t *testing.T) {
		proj, err := ExtractProjection(birthBundle(t), fhir.SectionChild, DefaultLocales())
		if err != nil {
			t.Fatalf("ExtractProjection: %v", err)
		}
		if proj.FirstNames != "Jane Marie" {
			t.Fatalf("expected given names joined with a space, got %q", proj.FirstNames)
		}
		if proj.FamilyName != "Doe" {
			t.Fatalf("expected family name Doe, got %q", proj.FamilyName)
		}
		if proj.FirstNamesLocal != "জেন" || proj.FamilyNameLocal != "ডো" {
			t.Fatalf("unexpected local names: %q %q", proj.FirstNamesLocal, proj.FamilyNameLocal)
		}
		if proj.BirthDate != "2024-01-15" {
			t.Fatalf("expected birth date 2024-01-15, got %q", proj.BirthDate)
		}
	})

	t.Run("SecondaryLocaleAbsent", func(t *testing.T) {
		proj, err := ExtractProjection(birthBundle(t), fhir.SectionMother, DefaultLocales())
		if err != nil {
			t.Fatalf("ExtractProjection: %v", err)
		}
		if proj.FirstNames != "Mary" || proj.FamilyName != "Doe" {
			t.Fatalf("unexpected primary names: %q %q", proj.FirstNames, proj.FamilyName)
		}
		if proj.FirstNamesLocal != "" || proj.FamilyNameLocal != "" {
			t.Fatal("expected empty local names when the locale variant is absent")
		}
		if proj.Identifier != "NID-MOTHER" {
			t.Fatalf("expected national ID, got %q", proj.Identifier)
		}
	})

	t.Run("MissingSection", func(t *testing.T) {
		_, err := ExtractProjection(birthBundle(t), fhir.SectionDeceased, DefaultLocales())
		var missing *MissingSectionError
		if !errors.As(err, &missing) {
			t.Fatalf("expected MissingSectionError, got %v", err)
		}
		if missing.SectionCode != fhir.SectionDeceased {
			t.Fatalf("expected section code in error, got %q", missing.SectionCode)
		}
	})

	t.Run("SectionWithNoEntries", func(t *testing.T) {
		b := birthBundle(t)
		comp := fhir.Composition{
			ResourceType: "Composition",
			Section: []fhir.CompositionSection{
				{Code: fhir.CodeableConcept{Coding: []fhir.Coding{{Code: fhir.SectionChild}}}},
			},
		}
		b.Entry[0] = mustEntry(t, "urn:uuid:comp-1", comp)
		_, err := ExtractProjection(b, fhir.SectionChild, DefaultLocales())
		var missing *MissingSectionError
		if !errors.As(err, &missing) {
			t.Fatalf("expected MissingSectionError for empty section, got %v", err)
		}
	})

	t.Run("DanglingReference", func(t *testing.T) {
		b := birthBundle(t)
		// Drop the child Patient entry; the section still points at it.
		b.Entry = []fhir.BundleEntry{b.Entry[0], b.Entry[2], b.Entry[3]}
		_, err := ExtractProjection(b, fhir.SectionChild, DefaultLocales())
		var dangling *DanglingReferenceError
		if !errors.As(err, &dangling) {
			t.Fatalf("expected DanglingReferenceError, got %v", err)
		}
		if dangling.Reference != "urn:uuid:child-1" {
			t.Fatalf("expected dangling reference in error, got %q", dangling.Reference)
		}
	})

	t.Run("ReferenceToNonPatient", func(t *testing.T) {
		b := birthBundle(t)
		comp := fhir.Composition{
			ResourceType: "Composition",
			Section: []fhir.CompositionSection{
				sectionFor(fhir.SectionChild, "Child details", "urn:uuid:task-1"),
			},
		}
		b.Entry[0] = mustEntry(t, "urn:uuid:comp-1", comp)
		_, err := ExtractProjection(b, fhir.SectionChild, DefaultLocales())
		var dangling *DanglingReferenceError
		if !errors.As(err, &dangling) {
			t.Fatalf("expected DanglingReferenceError for non-Patient target, got %v", err)
		}
	})
}

func TestProjectionEmpty(t *testing.T) {
	var nilProj *IdentityProjection
	if !nilProj.Empty() {
		t.Fatal("nil projection should be empty")
	}
	if !(&IdentityProjection{}).Empty() {
		t.Fatal("zero projection should be empty")
	}
	if (&IdentityProjection{BirthDate: "2024-01-15"}).Empty() {
		t.Fatal("projection with a date should not be empty")
	}
}
