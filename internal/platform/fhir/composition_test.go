package fhir

import "testing"

func TestSectionByCode(t *testing.T) {
	comp := &Composition{
		Section: []CompositionSection{
			{
				Title: "Child details",
				Code:  CodeableConcept{Coding: []Coding{{System: "http://opencrvs.org/specs/sections", Code: SectionChild}}},
				Entry: []Reference{{Reference: "urn:uuid:child-1"}},
			},
			{
				Title: "Mother details",
				Code:  CodeableConcept{Coding: []Coding{{Code: SectionMother}}},
			},
		},
	}

	section, ok := comp.SectionByCode(SectionChild)
	if !ok {
		t.Fatal("expected to find child section")
	}
	if len(section.Entry) != 1 || section.Entry[0].Reference != "urn:uuid:child-1" {
		t.Fatalf("unexpected section entries: %+v", section.Entry)
	}

	if _, ok := comp.SectionByCode(SectionDeceased); ok {
		t.Fatal("expected no deceased section in a birth composition")
	}
}

func TestRelatesToDuplicateOf(t *testing.T) {
	comp := &Composition{
		RelatesTo: []RelatesTo{
			{Code: RelatesToDuplicate, TargetReference: Reference{Reference: "Composition/dup-1"}},
			{Code: "replaces", TargetReference: Reference{Reference: "Composition/old-1"}},
		},
	}

	if !comp.RelatesToDuplicateOf("dup-1") {
		t.Fatal("expected duplicate link to dup-1")
	}
	if comp.RelatesToDuplicateOf("dup-2") {
		t.Fatal("expected no duplicate link to dup-2")
	}
	// A non-duplicate relatesTo code must not count even when the target matches.
	if comp.RelatesToDuplicateOf("old-1") {
		t.Fatal("expected replaces link to not count as duplicate")
	}
}

func TestTaskHelpers(t *testing.T) {
	task := &Task{
		Identifier: []Identifier{
			{System: "http://opencrvs.org/specs/id/draft-id", Value: "draft-abc"},
			{System: BirthTrackingIDSystem, Value: "B123456"},
		},
		Extension: []Extension{
			{URL: ExtensionBaseURL + "regLastUser", ValueString: "Practitioner/p1"},
			{URL: FlaggedAsPotentialDuplicate, ValueString: "B111,B222"},
		},
	}

	if got := task.TrackingID(); got != "B123456" {
		t.Fatalf("expected tracking ID B123456, got %q", got)
	}

	ext, ok := task.FindExtension(FlaggedAsPotentialDuplicate)
	if !ok {
		t.Fatal("expected to find duplicate flag extension")
	}
	if ext.ValueString != "B111,B222" {
		t.Fatalf("expected B111,B222, got %q", ext.ValueString)
	}

	if _, ok := task.FindExtension(ExtensionBaseURL + "missing"); ok {
		t.Fatal("expected miss for unknown extension URL")
	}

	bare := &Task{}
	if got := bare.TrackingID(); got != "" {
		t.Fatalf("expected empty tracking ID, got %q", got)
	}
}

func TestPatientHelpers(t *testing.T) {
	patient := &Patient{
		Identifier: []Identifier{
			{Value: "PASSPORT-1", Type: &CodeableConcept{Coding: []Coding{{Code: "PASSPORT"}}}},
			{Value: "NID-42", Type: &CodeableConcept{Coding: []Coding{{Code: NationalIDType}}}},
		},
		Name: []HumanName{
			{Use: "en", Given: []string{"Jane", "Marie"}, Family: []string{"Doe"}},
			{Use: "bn", Given: []string{"জেন"}, Family: []string{"ডো"}},
		},
	}

	name, ok := patient.NameForLocale("en")
	if !ok {
		t.Fatal("expected en name")
	}
	if len(name.Given) != 2 || name.Family[0] != "Doe" {
		t.Fatalf("unexpected en name: %+v", name)
	}
	if _, ok := patient.NameForLocale("fr"); ok {
		t.Fatal("expected no fr name")
	}

	id, ok := patient.IdentifierOfType(NationalIDType)
	if !ok || id != "NID-42" {
		t.Fatalf("expected NID-42, got %q (found=%v)", id, ok)
	}
	if _, ok := patient.IdentifierOfType("DRIVING_LICENSE"); ok {
		t.Fatal("expected no driving license identifier")
	}
}

func TestHasCoding(t *testing.T) {
	concept := CodeableConcept{
		Coding: []Coding{{Code: "a"}, {Code: "b"}},
		Text:   "fallback",
	}
	if !concept.HasCoding("b") {
		t.Fatal("expected to match coding b")
	}
	if !concept.HasCoding("fallback") {
		t.Fatal("expected to match text fallback")
	}
	if concept.HasCoding("c") {
		t.Fatal("expected no match for c")
	}
}
