package matrix

import (
	"strconv"
	"strings"
)

// Score is the outcome of one scoring pass. Unmatched carries the selected
// labels that had no matrix row; they contribute zero and are surfaced for
// data-quality logging rather than failing the run.
type Score struct {
	Total     float64
	Unmatched []string
}

// CalculateScore sums the base score of every selected answer plus the
// pairwise corrections between selected answers.
//
// Each answer is trimmed and matched against the label column exactly and
// case-sensitively; the first matching row wins. The row contributes its
// base score, then one correction per non-reserved column whose header is
// another selected label and whose cell parses as a number. Non-numeric or
// empty correction cells contribute zero.
//
// The sum is strictly additive over the selected list: duplicates are not
// deduplicated and double-count both base score and corrections. Callers
// wanting per-question idempotence must dedupe before calling.
func CalculateScore(t *Table, schema Schema, selected []string) Score {
	var score Score
	if t.Empty() {
		score.Unmatched = trimAll(selected)
		return score
	}

	chosen := trimAll(selected)
	inSelection := make(map[string]bool, len(chosen))
	for _, s := range chosen {
		inSelection[s] = true
	}

	baseCol, hasBase := t.Column(schema.BaseHeader)

	for _, answer := range chosen {
		row, ok := t.findLabelRow(answer)
		if !ok {
			score.Unmatched = append(score.Unmatched, answer)
			continue
		}
		if hasBase {
			if base, ok := parseNumber(t.cell(row, baseCol)); ok {
				score.Total += base
			}
		}
		for col, header := range t.Headers {
			if schema.reserved(header) || header == answer || !inSelection[header] {
				continue
			}
			if corr, ok := parseNumber(t.cell(row, col)); ok {
				score.Total += corr
			}
		}
	}
	return score
}

// findLabelRow returns the first row whose label equals the trimmed answer.
// Duplicate labels are a data-quality defect; first match wins.
func (t *Table) findLabelRow(label string) (int, bool) {
	for i := range t.Rows {
		if t.Label(i) == label {
			return i, true
		}
	}
	return 0, false
}

func parseNumber(cell string) (float64, bool) {
	cell = strings.TrimSpace(cell)
	if cell == "" || cell == "nan" {
		return 0, false
	}
	// Workbooks edited by hand sometimes carry decimal commas.
	v, err := strconv.ParseFloat(strings.ReplaceAll(cell, ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func trimAll(ss []string) []string {
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		out = append(out, strings.TrimSpace(s))
	}
	return out
}
