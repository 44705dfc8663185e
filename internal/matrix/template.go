package matrix

import (
	"fmt"
	"strconv"
	"strings"
)

// ResultBand maps a score interval to the result text shown to the user.
// The interval is open on both ends: a score equal to Start or End matches
// neither this band nor an adjacent one sharing the boundary. That mirrors
// the source template semantics and is pinned by tests; fixing it would
// silently change published results.
type ResultBand struct {
	Start       int
	End         int
	Description string
}

// TemplateSchema names the two columns of the result template table.
type TemplateSchema struct {
	ScoreHeader  string // interval column, values like "10-20"
	ResultHeader string // description column
}

// DefaultTemplateSchema matches the stock result template workbook.
func DefaultTemplateSchema() TemplateSchema {
	return TemplateSchema{ScoreHeader: "scores", ResultHeader: "result"}
}

// LoadBands reads the result template workbook into an ordered band list.
// Interval cells must parse as "<start>-<end>" after stripping internal
// whitespace; one malformed interval invalidates the whole template with
// ErrMalformedSpreadsheet. There is no per-row recovery: a partially loaded
// template would resolve scores against the wrong bands.
func LoadBands(path string, schema TemplateSchema) ([]ResultBand, error) {
	t, err := LoadTable(path, 0, schema.ScoreHeader)
	if err != nil {
		return nil, err
	}
	return BandsFromTable(t, schema)
}

// BandsFromTable converts a normalized template table into bands.
func BandsFromTable(t *Table, schema TemplateSchema) ([]ResultBand, error) {
	resultCol, ok := t.Column(schema.ResultHeader)
	if !ok {
		return nil, fmt.Errorf("%w: missing column %q", ErrMalformedSpreadsheet, schema.ResultHeader)
	}

	bands := make([]ResultBand, 0, len(t.Rows))
	for i := range t.Rows {
		interval := t.Label(i)
		if interval == "" || interval == "nan" {
			continue
		}
		start, end, err := parseInterval(interval)
		if err != nil {
			return nil, err
		}
		bands = append(bands, ResultBand{
			Start:       start,
			End:         end,
			Description: strings.TrimSpace(t.cell(i, resultCol)),
		})
	}
	return bands, nil
}

func parseInterval(s string) (int, int, error) {
	compact := strings.ReplaceAll(s, " ", "")
	parts := strings.SplitN(compact, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: score interval %q", ErrMalformedSpreadsheet, s)
	}
	start, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: score interval %q", ErrMalformedSpreadsheet, s)
	}
	end, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: score interval %q", ErrMalformedSpreadsheet, s)
	}
	return start, end, nil
}

// ResolveBand scans bands in table order and returns the description of the
// first band with Start < score < End. The second return is false when no
// band matches; callers display their own fallback text instead of erroring.
func ResolveBand(bands []ResultBand, score float64) (string, bool) {
	for _, b := range bands {
		if float64(b.Start) < score && score < float64(b.End) {
			return b.Description, true
		}
	}
	return "", false
}
