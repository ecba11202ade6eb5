// Package table parses and serializes tab-separated string tables used by
// game-localization pipelines. The table must have a header row with a
// "source" column and a "translation" (or "translated") column; every other
// column is carried through untouched, in its original position.
package table

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/valpere/tabtran/internal/apperrors"
)

const (
	// SourceColumn is the required column holding the text to translate.
	SourceColumn = "source"
)

// targetColumns lists the accepted names for the translation column, in
// preference order.
var targetColumns = []string{"translation", "translated"}

// Row is one data row: its field values in header order plus its original
// zero-based position in the table.
type Row struct {
	Index  int
	Fields []string
}

// Table is a parsed string table. Rows keep their input order; Serialize
// emits them back in the same order with the same columns.
type Table struct {
	Header []string
	Rows   []Row

	sourceIdx int
	targetIdx int
}

// Parse reads a UTF-8 tab-separated table. It fails with a format error when
// the header is missing, a data row's field count differs from the header,
// or the required source/translation columns are absent.
func Parse(data []byte) (*Table, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = '\t'
	// Game text routinely contains stray double quotes mid-field.
	r.LazyQuotes = true
	// Field count consistency is checked against the header below so the
	// error can name the offending row.
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, apperrors.New(apperrors.KindFormat, fmt.Sprintf("failed to parse table: %v", err), err)
	}
	if len(records) == 0 {
		return nil, apperrors.Format("table has no header row")
	}

	header := records[0]
	t := &Table{
		Header:    header,
		sourceIdx: -1,
		targetIdx: -1,
	}

	for i, name := range header {
		if name == SourceColumn && t.sourceIdx == -1 {
			t.sourceIdx = i
		}
	}
	if t.sourceIdx == -1 {
		return nil, apperrors.Format(fmt.Sprintf("missing required column %q", SourceColumn))
	}
	for _, want := range targetColumns {
		for i, name := range header {
			if name == want {
				t.targetIdx = i
				break
			}
		}
		if t.targetIdx != -1 {
			break
		}
	}
	if t.targetIdx == -1 {
		return nil, apperrors.Format(fmt.Sprintf("missing required column %q or %q", targetColumns[0], targetColumns[1]))
	}

	for i, rec := range records[1:] {
		if len(rec) != len(header) {
			return nil, apperrors.Format(fmt.Sprintf("row %d has %d fields, header has %d", i+1, len(rec), len(header)))
		}
		t.Rows = append(t.Rows, Row{Index: i, Fields: rec})
	}

	return t, nil
}

// Serialize emits the header and rows in original order as tab-separated
// values. Fields containing tabs, newlines, or quotes are quoted so the
// output round-trips losslessly.
func (t *Table) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = '\t'

	if err := w.Write(t.Header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	for _, row := range t.Rows {
		if err := w.Write(row.Fields); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", row.Index, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush table: %w", err)
	}
	return buf.Bytes(), nil
}

// TargetColumn returns the name of the translation column found in the header.
func (t *Table) TargetColumn() string {
	return t.Header[t.targetIdx]
}

// Source returns the source text of row i.
func (t *Table) Source(i int) string {
	return t.Rows[i].Fields[t.sourceIdx]
}

// Target returns the current translation of row i.
func (t *Table) Target(i int) string {
	return t.Rows[i].Fields[t.targetIdx]
}

// SetTarget writes text into the translation column of row i. All other
// fields are never touched.
func (t *Table) SetTarget(i int, text string) {
	t.Rows[i].Fields[t.targetIdx] = text
}

// HasTranslation reports whether row i already carries a non-empty
// translation (whitespace-only counts as empty).
func (t *Table) HasTranslation(i int) bool {
	return strings.TrimSpace(t.Target(i)) != ""
}
