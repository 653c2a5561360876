// Package match turns a partial company descriptor into a weighted query and resolves it
// against an indexed profile store.
package match

import (
	"strings"
	"unicode"
)

// Field names a profile attribute a clause targets.
type Field string

// Indexed fields.
const (
	FieldDomain         Field = "domain"
	FieldPhoneNumbers   Field = "phone_numbers"
	FieldSocialLinks    Field = "social_links"
	FieldCommercialName Field = "company_commercial_name"
	FieldAllNames       Field = "company_all_available_names"
)

// Kind selects how a clause compares its value with the field.
type Kind string

const (
	// KindFuzzy matches query tokens against field tokens within an edit distance.
	KindFuzzy Kind = "fuzzy"
	// KindTerm is a case-insensitive exact match.
	KindTerm Kind = "term"
	// KindDigits compares the digits of each stored list entry.
	KindDigits Kind = "digits"
	// KindContains is a case-insensitive substring match.
	KindContains Kind = "contains"
)

// Boosts per descriptor field.
const (
	NameBoost     = 3
	WebsiteBoost  = 4
	PhoneBoost    = 5
	FacebookBoost = 2
)

// Descriptor is the partial identity a caller wants matched. Every field is optional.
type Descriptor struct {
	Name     string `json:"name,omitempty"`
	Website  string `json:"website,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Facebook string `json:"facebook,omitempty"`
}

// Clause is one "should" condition.
type Clause struct {
	Field Field
	Value string
	Boost float64
	Kind  Kind
}

// Query is a disjunction of clauses; a document qualifies when at least
// MinimumShouldMatch clauses match.
type Query struct {
	Clauses            []Clause
	MinimumShouldMatch int
	Size               int
}

// Empty reports whether the query has nothing to match on.
func (q Query) Empty() bool { return len(q.Clauses) == 0 }

// BuildQuery converts a descriptor into a query. Blank fields contribute no clause.
func BuildQuery(d Descriptor) Query {
	q := Query{MinimumShouldMatch: 1, Size: 1}
	if name := strings.TrimSpace(d.Name); name != "" {
		q.Clauses = append(q.Clauses,
			Clause{Field: FieldCommercialName, Value: name, Boost: NameBoost, Kind: KindFuzzy},
			Clause{Field: FieldAllNames, Value: name, Boost: NameBoost, Kind: KindFuzzy},
		)
	}
	if site := NormalizeWebsite(d.Website); site != "" {
		q.Clauses = append(q.Clauses, Clause{Field: FieldDomain, Value: site, Boost: WebsiteBoost, Kind: KindTerm})
	}
	if phone := Digits(d.Phone); phone != "" {
		q.Clauses = append(q.Clauses, Clause{Field: FieldPhoneNumbers, Value: phone, Boost: PhoneBoost, Kind: KindDigits})
	}
	if fb := strings.TrimSpace(d.Facebook); fb != "" {
		q.Clauses = append(q.Clauses, Clause{Field: FieldSocialLinks, Value: fb, Boost: FacebookBoost, Kind: KindContains})
	}
	return q
}

// NormalizeWebsite strips the scheme and a leading "www.".
func NormalizeWebsite(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimPrefix(s, "www.")
	return s
}

// Digits keeps only the decimal digits of s.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// tokens lowercases s and splits it on anything that is not a letter or digit.
func tokens(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
