// Package dataset loads diagnostics tables and keeps the current one in
// memory for concurrent readers.
package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/okian/transformdiag/internal/domain/record"
)

// Dataset is a loaded table: its column order and its rows.
type Dataset struct {
	Header  []string
	Records []record.Record
}

// LoadCSV reads a header row followed by data rows. Every cell is kept as
// a string value; numeric parsing belongs to the consumers.
func LoadCSV(ctx context.Context, r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyDataset
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrLoad, err)
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if header[i] == "" {
			return nil, fmt.Errorf("%w: column %d has no name", ErrMalformedHeader, i+1)
		}
	}

	ds := &Dataset{Header: header}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoad, err)
		}
		if len(row) != len(header) {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("%w: line %d has %d fields, header has %d", ErrMalformedRow, line, len(row), len(header))
		}
		rec := make(record.Record, len(header))
		for i, name := range header {
			rec[name] = record.String(row[i])
		}
		ds.Records = append(ds.Records, rec)
	}
	return ds, nil
}

// WriteCSV writes records under header. Fields missing from a record are
// written as empty cells.
func WriteCSV(w io.Writer, header []string, records []record.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	row := make([]string, len(header))
	for _, r := range records {
		for i, h := range header {
			if v, ok := r[h]; ok {
				row[i] = v.String()
			} else {
				row[i] = ""
			}
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// HeaderOf returns base followed by any extra field found in records, in
// first-seen order with the extras of each record sorted by name.
func HeaderOf(base []string, records []record.Record) []string {
	seen := make(map[string]bool, len(base))
	out := append([]string(nil), base...)
	for _, h := range base {
		seen[h] = true
	}
	for _, r := range records {
		var extra []string
		for k := range r {
			if !seen[k] {
				seen[k] = true
				extra = append(extra, k)
			}
		}
		slices.Sort(extra)
		out = append(out, extra...)
	}
	return out
}
