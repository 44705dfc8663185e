package services

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"quizflow/internal/store"
)

// writeWorkbook writes rows into the first sheet of a fresh xlsx file under
// t.TempDir and returns its path.
func writeWorkbook(t *testing.T, name string, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	path := filepath.Join(t.TempDir(), name)
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return path
}

// matrixFixture is a two-question matrix: one single-choice, one
// multiple-choice, with a pairwise correction between "Buying a home" and
// "Married".
func matrixFixture(t *testing.T) string {
	t.Helper()
	return writeWorkbook(t, "matrix.xlsx", [][]interface{}{
		{"id", "answer", "base_score", "Buying a home", "Married"},
		{1, "What are your goals?", "", "", ""},
		{2, "Buying a home", 10, "", 2},
		{3, "Retirement savings", 5, "", ""},
		{4, "Which apply? (multiple answers)", "", "", ""},
		{5, "Married", 3, "", ""},
		{6, "Children under 18", 1, "", ""},
	})
}

func templateFixture(t *testing.T) string {
	t.Helper()
	return writeWorkbook(t, "template.xlsx", [][]interface{}{
		{"scores", "result"},
		{"0-10", "Conservative plan"},
		{"10-30", "Growth plan"},
	})
}

func seededStore(t *testing.T) *store.MemoryStore {
	t.Helper()
	st := store.NewMemoryStore()
	svc := NewQuestionService(st)
	if _, err := svc.ImportMatrix(matrixFixture(t)); err != nil {
		t.Fatalf("import matrix: %v", err)
	}
	return st
}
