package match

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/JakeFAU/contact-harvester/internal/profile"
)

// Score evaluates q against p in memory. It returns the summed boost of matching clauses
// (fuzzy clauses contribute in proportion to the query tokens they matched) and the
// number of clauses that matched.
func Score(p profile.Profile, q Query) (float64, int) {
	var (
		total   float64
		matched int
	)
	for _, c := range q.Clauses {
		weight := clauseWeight(p, c)
		if weight <= 0 {
			continue
		}
		total += c.Boost * weight
		matched++
	}
	return total, matched
}

// Qualifies reports whether a score result satisfies the query's minimum_should_match.
func (q Query) Qualifies(matched int) bool {
	return matched > 0 && matched >= q.MinimumShouldMatch
}

func fieldValue(p profile.Profile, f Field) string {
	switch f {
	case FieldDomain:
		return p.Domain
	case FieldPhoneNumbers:
		return profile.Value(p.PhoneNumbers)
	case FieldSocialLinks:
		return profile.Value(p.SocialLinks)
	case FieldCommercialName:
		return profile.Value(p.CompanyCommercialName)
	case FieldAllNames:
		return profile.Value(p.CompanyAllAvailableNames)
	default:
		return ""
	}
}

// clauseWeight is in [0,1]; zero means the clause did not match.
func clauseWeight(p profile.Profile, c Clause) float64 {
	switch c.Kind {
	case KindTerm:
		if strings.EqualFold(strings.TrimSpace(fieldValue(p, c.Field)), c.Value) {
			return 1
		}
	case KindContains:
		if strings.Contains(strings.ToLower(fieldValue(p, c.Field)), strings.ToLower(c.Value)) {
			return 1
		}
	case KindDigits:
		var entries []string
		switch c.Field {
		case FieldPhoneNumbers:
			entries = p.Phones()
		default:
			entries = []string{fieldValue(p, c.Field)}
		}
		for _, e := range entries {
			if Digits(e) == c.Value {
				return 1
			}
		}
	case KindFuzzy:
		return fuzzyWeight(tokens(c.Value), tokens(fieldValue(p, c.Field)))
	}
	return 0
}

// fuzzyWeight is the share of query tokens that have a field token within the automatic
// edit distance.
func fuzzyWeight(query, field []string) float64 {
	if len(query) == 0 || len(field) == 0 {
		return 0
	}
	hits := 0
	for _, qt := range query {
		limit := autoFuzziness(qt)
		for _, ft := range field {
			if levenshtein.ComputeDistance(qt, ft) <= limit {
				hits++
				break
			}
		}
	}
	return float64(hits) / float64(len(query))
}

// autoFuzziness allows no edits for 1-2 rune terms, one edit for 3-5, two beyond.
func autoFuzziness(term string) int {
	switch n := len([]rune(term)); {
	case n <= 2:
		return 0
	case n <= 5:
		return 1
	default:
		return 2
	}
}
