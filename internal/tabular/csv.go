// Package tabular reads and writes the CSV files exchanged at the crawler boundary.
package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ListSeparator joins multi-valued cells such as phone_numbers. The cells are
// ";"-separated with a trailing space, and SplitList trims either form.
const ListSeparator = "; "

// Table is a CSV file with a header row. Cells are addressed by column name.
type Table struct {
	Header []string
	Rows   [][]string
	index  map[string]int
}

// ReadTable reads a CSV with a header row. Column names are matched case-insensitively
// after trimming. Short rows are padded with empty cells.
func ReadTable(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read header: empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	t := &Table{Header: header, index: make(map[string]int, len(header))}
	for i, col := range header {
		key := strings.ToLower(strings.TrimSpace(col))
		if _, dup := t.index[key]; !dup {
			t.index[key] = i
		}
	}

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		for len(rec) < len(header) {
			rec = append(rec, "")
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

// Has reports whether the table carries column.
func (t *Table) Has(column string) bool {
	_, ok := t.index[strings.ToLower(column)]
	return ok
}

// Require returns an error naming the first missing column.
func (t *Table) Require(columns ...string) error {
	for _, c := range columns {
		if !t.Has(c) {
			return fmt.Errorf("missing required column %q", c)
		}
	}
	return nil
}

// Cell returns the value of column in row, or "" when the column is absent.
func (t *Table) Cell(row []string, column string) string {
	i, ok := t.index[strings.ToLower(column)]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// ReadDomains returns the trimmed, non-blank values of the "domain" column.
func ReadDomains(r io.Reader) ([]string, error) {
	t, err := ReadTable(r)
	if err != nil {
		return nil, err
	}
	if err := t.Require("domain"); err != nil {
		return nil, err
	}
	var domains []string
	for _, row := range t.Rows {
		if d := strings.TrimSpace(t.Cell(row, "domain")); d != "" {
			domains = append(domains, d)
		}
	}
	return domains, nil
}

// SplitList splits a joined multi-valued cell, dropping blanks.
func SplitList(cell string) []string {
	var out []string
	for _, part := range strings.Split(cell, ";") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
