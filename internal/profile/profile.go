// Package profile defines the merged company document that is indexed and matched.
package profile

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/JakeFAU/contact-harvester/internal/tabular"
)

// Profile is one company: crawled contact signals joined with known names. Absent
// values serialize as JSON null.
type Profile struct {
	Domain                   string  `json:"domain"`
	PhoneNumbers             *string `json:"phone_numbers"`
	SocialLinks              *string `json:"social_links"`
	Address                  *string `json:"address"`
	CompanyCommercialName    *string `json:"company_commercial_name"`
	CompanyLegalName         *string `json:"company_legal_name"`
	CompanyAllAvailableNames *string `json:"company_all_available_names"`
}

// Phones splits the joined phone_numbers field.
func (p Profile) Phones() []string {
	return tabular.SplitList(Value(p.PhoneNumbers))
}

// Socials splits the joined social_links field.
func (p Profile) Socials() []string {
	return tabular.SplitList(Value(p.SocialLinks))
}

// Optional returns nil for a blank cell, else a pointer to the value.
func Optional(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

// Value dereferences p, treating nil as "".
func Value(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// NormalizeDomain reduces a resolved URL to its host without a leading "www.".
// Input without a scheme is treated as a bare host.
func NormalizeDomain(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Host, "www.")
}

// WriteJSONL writes one JSON object per line.
func WriteJSONL(w io.Writer, profiles []Profile) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for i, p := range profiles {
		if err := enc.Encode(p); err != nil {
			return fmt.Errorf("encode profile %d: %w", i, err)
		}
	}
	return nil
}

// maxLine bounds a single JSONL record.
const maxLine = 4 << 20

// ReadJSONL reads profiles written by WriteJSONL, calling fn for each. Blank lines are
// skipped. Iteration stops at the first error from fn.
func ReadJSONL(r io.Reader, fn func(line int, p Profile) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxLine)
	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}
		var p Profile
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if err := fn(line, p); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return fmt.Errorf("line %d exceeds %d bytes: %w", line+1, maxLine, err)
		}
		return fmt.Errorf("scan jsonl: %w", err)
	}
	return nil
}
