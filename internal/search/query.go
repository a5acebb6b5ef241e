// Package search implements the deduplication search service: it indexes
// declaration identity fields into Elasticsearch and answers duplicate
// queries with ranked candidate records.
package search

import "github.com/opencrvs/dedup/internal/dedup"

// MatchSettings tunes the fuzzy query the builder emits. The similarity
// threshold lives here, in the request shape, not in code: what counts as a
// match is deployment policy.
type MatchSettings struct {
	// Fuzziness is the Elasticsearch fuzziness parameter for name clauses
	// ("AUTO", "0", "1", "2").
	Fuzziness string
	// MinimumShouldMatch is applied to the outer bool query, e.g. "2" or
	// "60%".
	MinimumShouldMatch string
	// MinScore drops hits below this relevance score.
	MinScore float64
	// MaxCandidates caps the result size.
	MaxCandidates int
}

// DefaultMatchSettings returns the settings used when configuration leaves
// them unset.
func DefaultMatchSettings() MatchSettings {
	return MatchSettings{
		Fuzziness:          "AUTO",
		MinimumShouldMatch: "2",
		MinScore:           1.0,
		MaxCandidates:      5,
	}
}

// Relative clause weights. Dates and identifiers are strong signals; local
// locale names are weaker because they are optional and less consistently
// spelled.
const (
	boostName      = 1.0
	boostNameLocal = 0.5
	boostDate      = 2.0
	boostIdent     = 3.0
)

func fuzzyClause(field, value, fuzziness string, boost float64) map[string]interface{} {
	return map[string]interface{}{
		"match": map[string]interface{}{
			field: map[string]interface{}{
				"query":     value,
				"fuzziness": fuzziness,
				"boost":     boost,
			},
		},
	}
}

func termClause(field, value string, boost float64) map[string]interface{} {
	return map[string]interface{}{
		"term": map[string]interface{}{
			field: map[string]interface{}{
				"value": value,
				"boost": boost,
			},
		},
	}
}

func appendFuzzy(clauses []interface{}, field, value, fuzziness string, boost float64) []interface{} {
	if value == "" {
		return clauses
	}
	return append(clauses, fuzzyClause(field, value, fuzziness, boost))
}

func appendTerm(clauses []interface{}, field, value string, boost float64) []interface{} {
	if value == "" {
		return clauses
	}
	return append(clauses, termClause(field, value, boost))
}

func boolQuery(should []interface{}, excludeID string, s MatchSettings) map[string]interface{} {
	b := map[string]interface{}{
		"should":               should,
		"minimum_should_match": s.MinimumShouldMatch,
	}
	if excludeID != "" {
		b["must_not"] = []interface{}{
			map[string]interface{}{
				"term": map[string]interface{}{
					"compositionId": excludeID,
				},
			},
		}
	}
	return map[string]interface{}{"bool": b}
}

// BuildBirthQuery turns birth criteria into an Elasticsearch bool query.
// Empty criteria fields contribute no clause.
func BuildBirthQuery(c *dedup.BirthCriteria, s MatchSettings) map[string]interface{} {
	var should []interface{}
	should = appendFuzzy(should, "childFirstNames", c.ChildFirstNames, s.Fuzziness, boostName)
	should = appendFuzzy(should, "childFamilyName", c.ChildFamilyName, s.Fuzziness, boostName)
	should = appendFuzzy(should, "childFirstNamesLocal", c.ChildFirstNamesLocal, s.Fuzziness, boostNameLocal)
	should = appendFuzzy(should, "childFamilyNameLocal", c.ChildFamilyNameLocal, s.Fuzziness, boostNameLocal)
	should = appendTerm(should, "childDoB", c.ChildDoB, boostDate)
	should = appendFuzzy(should, "motherFirstNames", c.MotherFirstNames, s.Fuzziness, boostName)
	should = appendFuzzy(should, "motherFamilyName", c.MotherFamilyName, s.Fuzziness, boostName)
	should = appendFuzzy(should, "motherFirstNamesLocal", c.MotherFirstNamesLocal, s.Fuzziness, boostNameLocal)
	should = appendFuzzy(should, "motherFamilyNameLocal", c.MotherFamilyNameLocal, s.Fuzziness, boostNameLocal)
	should = appendTerm(should, "motherDoB", c.MotherDoB, boostDate)
	should = appendTerm(should, "motherIdentifier", c.MotherIdentifier, boostIdent)
	return boolQuery(should, c.CompositionID, s)
}

// BuildDeathQuery turns death criteria into an Elasticsearch bool query.
func BuildDeathQuery(c *dedup.DeathCriteria, s MatchSettings) map[string]interface{} {
	var should []interface{}
	should = appendFuzzy(should, "deceasedFirstNames", c.DeceasedFirstNames, s.Fuzziness, boostName)
	should = appendFuzzy(should, "deceasedFamilyName", c.DeceasedFamilyName, s.Fuzziness, boostName)
	should = appendFuzzy(should, "deceasedFirstNamesLocal", c.DeceasedFirstNamesLocal, s.Fuzziness, boostNameLocal)
	should = appendFuzzy(should, "deceasedFamilyNameLocal", c.DeceasedFamilyNameLocal, s.Fuzziness, boostNameLocal)
	should = appendTerm(should, "deceasedDoB", c.DeceasedDoB, boostDate)
	should = appendTerm(should, "deceasedIdentifier", c.DeceasedIdentifier, boostIdent)
	should = appendTerm(should, "deathDate", c.DeathDate, boostDate)
	return boolQuery(should, c.CompositionID, s)
}
