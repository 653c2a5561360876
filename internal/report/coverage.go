// Package report summarizes how much contact data a crawl recovered.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/JakeFAU/contact-harvester/internal/tabular"
)

// Fill counts the non-blank cells of one column.
type Fill struct {
	Count int     `json:"count"`
	Rate  float64 `json:"rate_pct"`
}

// Coverage is the crawl summary printed by the stats command.
type Coverage struct {
	TotalDomains int     `json:"total_domains"`
	Scraped      int     `json:"scraped"`
	CoveragePct  float64 `json:"coverage_pct"`
	Phone        Fill    `json:"phone"`
	Social       Fill    `json:"social"`
	Address      Fill    `json:"address"`
}

// Compute derives coverage from the number of input domains and the success rows.
func Compute(totalDomains int, rows []tabular.SuccessRow) Coverage {
	c := Coverage{
		TotalDomains: totalDomains,
		Scraped:      len(rows),
		CoveragePct:  percent(len(rows), totalDomains),
	}
	var phone, social, address int
	for _, r := range rows {
		phone += filled(r.PhoneNumbers)
		social += filled(r.SocialLinks)
		address += filled(r.Address)
	}
	c.Phone = Fill{Count: phone, Rate: percent(phone, c.Scraped)}
	c.Social = Fill{Count: social, Rate: percent(social, c.Scraped)}
	c.Address = Fill{Count: address, Rate: percent(address, c.Scraped)}
	return c
}

// Write renders c as an aligned text block.
func (c Coverage) Write(w io.Writer) error {
	lines := []string{
		"Scrape analysis:",
		fmt.Sprintf("Total domains:        %d", c.TotalDomains),
		fmt.Sprintf("Successfully scraped: %d (%.2f%% coverage)", c.Scraped, c.CoveragePct),
		fmt.Sprintf("Phone fill rate:      %d / %d (%.2f%%)", c.Phone.Count, c.Scraped, c.Phone.Rate),
		fmt.Sprintf("Social link rate:     %d / %d (%.2f%%)", c.Social.Count, c.Scraped, c.Social.Rate),
		fmt.Sprintf("Address fill rate:    %d / %d (%.2f%%)", c.Address.Count, c.Scraped, c.Address.Rate),
	}
	if _, err := io.WriteString(w, strings.Join(lines, "\n")+"\n"); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func filled(cell string) int {
	if strings.TrimSpace(cell) == "" {
		return 0
	}
	return 1
}

func percent(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d) * 100
}
