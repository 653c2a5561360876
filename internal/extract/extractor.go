// Package extract pulls contact signals (phones, social links, postal address) out of HTML.
package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/JakeFAU/contact-harvester/internal/crawler"
)

// phonePatterns are applied in order; every unique match is kept.
var phonePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\+\d{1,3} \d{3} \d{3} \d{4}`),
	regexp.MustCompile(`\d{3}-\d{3}-\d{4}`),
	regexp.MustCompile(`\(\d{3}\) \d{3}-\d{4}`),
	regexp.MustCompile(`\d{5}-\d{6}`),
	regexp.MustCompile(`\d{2,5} \d{2,5} \d{2,5} \d{2,5}`),
	regexp.MustCompile(`\d{3} \d{3} \d{4}`),
	regexp.MustCompile(`\(\d{2}\) \d{4,5}-\d{4}`),
	regexp.MustCompile(`\d{10}`),
	regexp.MustCompile(`1-800-\d{3}-\d{4}`),
}

// SocialDomains are the platform substrings that mark an anchor as a social link.
var SocialDomains = []string{
	"facebook.com",
	"linkedin.com",
	"twitter.com",
	"instagram.com",
	"youtube.com",
}

var (
	addressPattern = regexp.MustCompile(`\d{1,5}\s+\w+(\s\w+)*,\s*[A-Z]{2}\s*\d{5}`)
	emailPattern   = regexp.MustCompile(`[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9.-]+`)
)

// Extractor implements crawler.Extractor on top of goquery.
type Extractor struct {
	logger *zap.Logger
}

var _ crawler.Extractor = (*Extractor)(nil)

// New returns an Extractor.
func New(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{logger: logger}
}

// Extract parses markup once and runs the three sub-extractions. A document that cannot
// be parsed yields empty signals.
func (e *Extractor) Extract(markup string) crawler.Signals {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		e.logger.Warn("html parse failed", zap.Error(err))
		return crawler.Signals{}
	}

	var signals crawler.Signals
	signals.SocialLinks = socialLinks(doc)
	signals.Address, signals.HasAddress = structuredAddress(doc)

	doc.Find("script, style").Remove()
	text := visibleText(doc.Selection)
	signals.PhoneNumbers = phoneNumbers(text)
	if !signals.HasAddress {
		if m := addressPattern.FindString(text); m != "" {
			signals.Address, signals.HasAddress = m, true
		}
	}
	return signals
}

func phoneNumbers(text string) []string {
	seen := make(map[string]struct{})
	for _, re := range phonePatterns {
		for _, m := range re.FindAllString(text, -1) {
			seen[m] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

func socialLinks(doc *goquery.Document) []string {
	seen := make(map[string]struct{})
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		for _, d := range SocialDomains {
			if strings.Contains(href, d) {
				seen[href] = struct{}{}
				return
			}
		}
	})
	return sortedKeys(seen)
}

// structuredAddress covers the first two tiers: <address> elements, then div/span
// elements carrying an address-like class.
func structuredAddress(doc *goquery.Document) (string, bool) {
	var found string
	doc.Find("address").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		found = usableAddress(s)
		return found == ""
	})
	if found != "" {
		return found, true
	}

	doc.Find("div[class], span[class]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !hasAddressClass(s) {
			return true
		}
		found = usableAddress(s)
		return found == ""
	})
	return found, found != ""
}

func usableAddress(s *goquery.Selection) string {
	text := visibleText(s)
	if text == "" || emailPattern.MatchString(text) {
		return ""
	}
	return text
}

func hasAddressClass(s *goquery.Selection) bool {
	class, _ := s.Attr("class")
	for _, c := range strings.Fields(class) {
		if strings.Contains(strings.ToLower(c), "address") {
			return true
		}
	}
	return false
}

// visibleText joins the trimmed, non-empty text nodes under s with single spaces.
func visibleText(s *goquery.Selection) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return strings.Join(parts, " ")
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
