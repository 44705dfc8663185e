// Package matrix implements the survey scoring engine: loading the scoring
// matrix and result template workbooks, extracting the ordered question list,
// and computing weighted totals from a user's selected answers.
package matrix

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrFileNotFound reports that a workbook path does not exist. Checked
	// eagerly before any read attempt.
	ErrFileNotFound = errors.New("spreadsheet file not found")
	// ErrMalformedSpreadsheet reports a structural defect: a missing
	// expected column or an unparseable score interval.
	ErrMalformedSpreadsheet = errors.New("malformed spreadsheet")
)

// Schema names the reserved columns of the scoring matrix. Every other
// column is treated as a pairwise correction column keyed by answer label,
// so reordering columns in the workbook does not change scoring.
type Schema struct {
	IDHeader    string // row identifier column
	LabelHeader string // answer-option label / question text column
	BaseHeader  string // base score column
	MultiMarker string // substring in a question marking multiple choice
}

// DefaultSchema matches the column layout of the stock scenario workbook.
func DefaultSchema() Schema {
	return Schema{
		IDHeader:    "id",
		LabelHeader: "answer",
		BaseHeader:  "base_score",
		MultiMarker: "multiple answers",
	}
}

func (s Schema) reserved(header string) bool {
	return header == s.IDHeader || header == s.LabelHeader || header == s.BaseHeader
}

// Table is a normalized in-memory view of one worksheet: trimmed, unique
// headers and rows padded to header width. Immutable once loaded; safe for
// concurrent reads.
type Table struct {
	Headers []string
	Rows    [][]string

	labelCol int
}

// Empty reports whether the table holds no data rows. The loader returns an
// empty table as its degraded sentinel when the label column is missing.
func (t *Table) Empty() bool { return t == nil || len(t.Rows) == 0 }

// Column returns the index of the named header.
func (t *Table) Column(name string) (int, bool) {
	for i, h := range t.Headers {
		if h == name {
			return i, true
		}
	}
	return 0, false
}

// Label returns the trimmed label cell of row i.
func (t *Table) Label(i int) string {
	if i < 0 || i >= len(t.Rows) || t.labelCol >= len(t.Rows[i]) {
		return ""
	}
	return t.Rows[i][t.labelCol]
}

// cell returns the raw value at (row, col); empty string when the sheet row
// is shorter than the header row.
func (t *Table) cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][col]
}

// LoadTable reads the first worksheet of the xlsx workbook at path into a
// Table. headerRow is the number of sheet rows to skip before the header
// row. Header names and every value in labelHeader are whitespace-trimmed.
//
// A missing file fails with ErrFileNotFound. A missing label column fails
// with ErrMalformedSpreadsheet, but the returned table is a usable empty
// sentinel so extraction and scoring degrade to "no questions / no scores"
// instead of crashing a session. Each call re-reads the file; callers on a
// hot path must cache the result themselves.
func LoadTable(path string, headerRow int, labelHeader string) (*Table, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return &Table{}, fmt.Errorf("%w: %s has no sheets", ErrMalformedSpreadsheet, path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if headerRow < 0 {
		headerRow = 0
	}
	if len(rows) <= headerRow {
		return &Table{}, fmt.Errorf("%w: %s has no header row", ErrMalformedSpreadsheet, path)
	}

	return NewTable(rows[headerRow], rows[headerRow+1:], labelHeader)
}

// NewTable builds a normalized table from raw header and data rows. Exposed
// so tests and importers can construct tables without a workbook on disk.
func NewTable(header []string, data [][]string, labelHeader string) (*Table, error) {
	t := &Table{Headers: make([]string, len(header))}
	for i, h := range header {
		t.Headers[i] = strings.TrimSpace(h)
	}

	labelCol, ok := t.Column(labelHeader)
	if !ok {
		return &Table{}, fmt.Errorf("%w: missing column %q", ErrMalformedSpreadsheet, labelHeader)
	}
	t.labelCol = labelCol

	t.Rows = make([][]string, 0, len(data))
	for _, src := range data {
		row := make([]string, len(t.Headers))
		copy(row, src)
		row[labelCol] = strings.TrimSpace(row[labelCol])
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}
