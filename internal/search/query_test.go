package search

import (
	"testing"

	"github.com/opencrvs/dedup/internal/dedup"
)

func boolPart(t *testing.T, query map[string]interface{}) map[string]interface{} {
	t.Helper()
	b, ok := query["bool"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected bool query, got %v", query)
	}
	return b
}

func shouldClauses(t *testing.T, query map[string]interface{}) []interface{} {
	t.Helper()
	should, ok := boolPart(t, query)["should"].([]interface{})
	if !ok {
		t.Fatal("expected should clauses")
	}
	return should
}

func clauseFields(t *testing.T, clauses []interface{}) map[string]map[string]interface{} {
	t.Helper()
	fields := make(map[string]map[string]interface{})
	for _, raw := range clauses {
		clause := raw.(map[string]interface{})
		for kind, body := range clause {
			for field, params := range body.(map[string]interface{}) {
				p := params.(map[string]interface{})
				p["_kind"] = kind
				fields[field] = p
			}
		}
	}
	return fields
}

func TestBuildBirthQuery(t *testing.T) {
	criteria := &dedup.BirthCriteria{
		CompositionID:    "comp-1",
		ChildFirstNames:  "Jane Marie",
		ChildFamilyName:  "Doe",
		ChildDoB:         "2024-01-15",
		MotherFirstNames: "Mary",
		MotherIdentifier: "NID-1",
	}
	settings := DefaultMatchSettings()
	query := BuildBirthQuery(criteria, settings)

	fields := clauseFields(t, shouldClauses(t, query))

	// Empty criteria fields must not produce clauses.
	if len(fields) != 5 {
		t.Fatalf("expected 5 clauses, got %d: %v", len(fields), fields)
	}
	if _, ok := fields["childFirstNamesLocal"]; ok {
		t.Fatal("empty local name should produce no clause")
	}

	name := fields["childFirstNames"]
	if name["_kind"] != "match" {
		t.Fatal("name clause should be a fuzzy match")
	}
	if name["query"] != "Jane Marie" || name["fuzziness"] != "AUTO" {
		t.Fatalf("unexpected name clause: %v", name)
	}

	dob := fields["childDoB"]
	if dob["_kind"] != "term" {
		t.Fatal("date clause should be an exact term")
	}
	if dob["boost"] != boostDate {
		t.Fatalf("expected date boost %v, got %v", boostDate, dob["boost"])
	}

	ident := fields["motherIdentifier"]
	if ident["_kind"] != "term" || ident["boost"] != boostIdent {
		t.Fatalf("unexpected identifier clause: %v", ident)
	}

	b := boolPart(t, query)
	if b["minimum_should_match"] != "2" {
		t.Fatalf("expected minimum_should_match 2, got %v", b["minimum_should_match"])
	}

	mustNot, ok := b["must_not"].([]interface{})
	if !ok || len(mustNot) != 1 {
		t.Fatal("expected a single must_not clause")
	}
	term := mustNot[0].(map[string]interface{})["term"].(map[string]interface{})
	if term["compositionId"] != "comp-1" {
		t.Fatalf("expected self-exclusion on comp-1, got %v", term)
	}
}

func TestBuildBirthQueryWithoutCompositionID(t *testing.T) {
	query := BuildBirthQuery(&dedup.BirthCriteria{ChildFamilyName: "Doe"}, DefaultMatchSettings())
	if _, ok := boolPart(t, query)["must_not"]; ok {
		t.Fatal("expected no must_not without a composition ID")
	}
}

func TestBuildDeathQuery(t *testing.T) {
	criteria := &dedup.DeathCriteria{
		CompositionID:      "comp-d1",
		DeceasedFirstNames: "John",
		DeceasedFamilyName: "Smith",
		DeceasedIdentifier: "NID-DEC",
		DeathDate:          "2025-11-02",
	}
	query := BuildDeathQuery(criteria, DefaultMatchSettings())
	fields := clauseFields(t, shouldClauses(t, query))

	if len(fields) != 4 {
		t.Fatalf("expected 4 clauses, got %d", len(fields))
	}
	if fields["deathDate"]["_kind"] != "term" {
		t.Fatal("death date should be an exact term clause")
	}
	if fields["deceasedIdentifier"]["boost"] != boostIdent {
		t.Fatalf("unexpected identifier boost: %v", fields["deceasedIdentifier"]["boost"])
	}

	mustNot := boolPart(t, query)["must_not"].([]interface{})
	term := mustNot[0].(map[string]interface{})["term"].(map[string]interface{})
	if term["compositionId"] != "comp-d1" {
		t.Fatalf("expected self-exclusion, got %v", term)
	}
}
