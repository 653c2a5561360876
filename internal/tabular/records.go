package tabular

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/JakeFAU/contact-harvester/internal/crawler"
	"github.com/JakeFAU/contact-harvester/internal/storage"
)

// Artifact names written under the configured prefix.
const (
	RecordsFile  = "scraped_data.csv"
	FailuresFile = "failed_domains.csv"
)

var (
	recordsHeader  = []string{"domain", "phone_numbers", "social_links", "address"}
	failuresHeader = []string{"domain", "http_status"}
)

// SuccessRow is one row of the success CSV as read back by downstream steps.
type SuccessRow struct {
	Domain       string
	PhoneNumbers string
	SocialLinks  string
	Address      string
}

// Sink writes crawl results as CSV artifacts into a blob store.
type Sink struct {
	store  storage.BlobStore
	prefix string
}

var _ crawler.ResultSink = (*Sink)(nil)

// NewSink returns a Sink writing under prefix.
func NewSink(store storage.BlobStore, prefix string) *Sink {
	return &Sink{store: store, prefix: prefix}
}

// WriteRecords writes the success CSV and returns its URI.
func (s *Sink) WriteRecords(ctx context.Context, records []crawler.Record) (string, error) {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.ResolvedURL,
			strings.Join(r.PhoneNumbers, ListSeparator),
			strings.Join(r.SocialLinks, ListSeparator),
			r.Address,
		})
	}
	return s.put(ctx, RecordsFile, recordsHeader, rows)
}

// WriteFailures writes the failure ledger and returns its URI.
func (s *Sink) WriteFailures(ctx context.Context, failures []crawler.FailureEntry) (string, error) {
	rows := make([][]string, 0, len(failures))
	for _, f := range failures {
		rows = append(rows, []string{f.Domain.String(), f.Status.String()})
	}
	return s.put(ctx, FailuresFile, failuresHeader, rows)
}

func (s *Sink) put(ctx context.Context, name string, header []string, rows [][]string) (string, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, header, rows); err != nil {
		return "", err
	}
	uri, err := s.store.PutObject(ctx, storage.JoinPath(s.prefix, name), "text/csv", &buf)
	if err != nil {
		return "", fmt.Errorf("put %s: %w", name, err)
	}
	return uri, nil
}

// WriteCSV writes a header and rows.
func WriteCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}

// ReadRecords parses a success CSV.
func ReadRecords(r io.Reader) ([]SuccessRow, error) {
	t, err := ReadTable(r)
	if err != nil {
		return nil, err
	}
	if err := t.Require("domain"); err != nil {
		return nil, err
	}
	out := make([]SuccessRow, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, SuccessRow{
			Domain:       t.Cell(row, "domain"),
			PhoneNumbers: t.Cell(row, "phone_numbers"),
			SocialLinks:  t.Cell(row, "social_links"),
			Address:      t.Cell(row, "address"),
		})
	}
	return out, nil
}
