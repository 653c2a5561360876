// Package merge joins crawled contact records with known company names into profiles.
package merge

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/contact-harvester/internal/profile"
	"github.com/JakeFAU/contact-harvester/internal/storage"
	"github.com/JakeFAU/contact-harvester/internal/tabular"
)

// NameRow is one row of the company-names table.
type NameRow struct {
	Domain                   string
	CompanyCommercialName    string
	CompanyLegalName         string
	CompanyAllAvailableNames string
}

// ReadNames parses the company-names CSV. Only the domain column is required.
func ReadNames(r io.Reader) ([]NameRow, error) {
	t, err := tabular.ReadTable(r)
	if err != nil {
		return nil, err
	}
	if err := t.Require("domain"); err != nil {
		return nil, err
	}
	out := make([]NameRow, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, NameRow{
			Domain:                   strings.TrimSpace(t.Cell(row, "domain")),
			CompanyCommercialName:    t.Cell(row, "company_commercial_name"),
			CompanyLegalName:         t.Cell(row, "company_legal_name"),
			CompanyAllAvailableNames: t.Cell(row, "company_all_available_names"),
		})
	}
	return out, nil
}

// Join performs a full outer join of records and names on the normalized domain. Keys
// present several times on both sides produce every pairing. Output is sorted by domain;
// rows sharing a domain keep input order.
func Join(records []tabular.SuccessRow, names []NameRow) []profile.Profile {
	byDomain := make(map[string][]NameRow, len(names))
	for _, n := range names {
		byDomain[n.Domain] = append(byDomain[n.Domain], n)
	}

	out := make([]profile.Profile, 0, len(records)+len(names))
	matched := make(map[string]bool)
	for _, rec := range records {
		key := profile.NormalizeDomain(rec.Domain)
		left := profile.Profile{
			Domain:       key,
			PhoneNumbers: profile.Optional(rec.PhoneNumbers),
			SocialLinks:  profile.Optional(rec.SocialLinks),
			Address:      profile.Optional(rec.Address),
		}
		partners := byDomain[key]
		if len(partners) == 0 {
			out = append(out, left)
			continue
		}
		matched[key] = true
		for _, n := range partners {
			out = append(out, withNames(left, n))
		}
	}
	for _, n := range names {
		if matched[n.Domain] {
			continue
		}
		out = append(out, withNames(profile.Profile{Domain: n.Domain}, n))
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Domain < out[j].Domain })
	return out
}

func withNames(p profile.Profile, n NameRow) profile.Profile {
	p.CompanyCommercialName = profile.Optional(n.CompanyCommercialName)
	p.CompanyLegalName = profile.Optional(n.CompanyLegalName)
	p.CompanyAllAvailableNames = profile.Optional(n.CompanyAllAvailableNames)
	return p
}

// Result describes a finished merge.
type Result struct {
	Records  int
	Names    int
	Profiles int
	URI      string
}

// Merger reads crawl output from a blob store and writes merged profiles back to it.
type Merger struct {
	store  storage.BlobStore
	logger *zap.Logger
}

// NewMerger returns a Merger.
func NewMerger(store storage.BlobStore, logger *zap.Logger) *Merger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Merger{store: store, logger: logger}
}

// Run joins the success CSV at recordsPath with the names table and writes JSONL to outPath.
func (m *Merger) Run(ctx context.Context, recordsPath string, names io.Reader, outPath string) (Result, error) {
	var (
		records  []tabular.SuccessRow
		nameRows []NameRow
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rc, err := m.store.GetObject(gctx, recordsPath)
		if err != nil {
			return fmt.Errorf("open records: %w", err)
		}
		defer rc.Close()
		records, err = tabular.ReadRecords(rc)
		if err != nil {
			return fmt.Errorf("read records: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		nameRows, err = ReadNames(names)
		if err != nil {
			return fmt.Errorf("read names: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	profiles := Join(records, nameRows)
	var buf bytes.Buffer
	if err := profile.WriteJSONL(&buf, profiles); err != nil {
		return Result{}, err
	}
	uri, err := m.store.PutObject(ctx, outPath, "application/x-ndjson", &buf)
	if err != nil {
		return Result{}, fmt.Errorf("write merged profiles: %w", err)
	}

	res := Result{Records: len(records), Names: len(nameRows), Profiles: len(profiles), URI: uri}
	m.logger.Info("merged data saved",
		zap.String("uri", uri),
		zap.Int("records", res.Records),
		zap.Int("names", res.Names),
		zap.Int("profiles", res.Profiles),
	)
	return res, nil
}
