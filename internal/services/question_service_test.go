package services

import (
	"path/filepath"
	"testing"

	"quizflow/internal/matrix"
	"quizflow/internal/store"
)

func TestImportMatrixSeedsQuestions(t *testing.T) {
	st := store.NewMemoryStore()
	svc := NewQuestionService(st)

	n, err := svc.ImportMatrix(matrixFixture(t))
	if err != nil {
		t.Fatalf("ImportMatrix: %v", err)
	}
	if n != 2 {
		t.Fatalf("imported %d questions, want 2", n)
	}

	views, err := svc.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("listed %d questions, want 2", len(views))
	}
	if views[0].Text != "What are your goals?" || views[0].Type != matrix.SingleChoice {
		t.Fatalf("first question = %+v", views[0])
	}
	if len(views[0].Options) != 2 || views[0].Options[1].Text != "Retirement savings" {
		t.Fatalf("first question options = %+v", views[0].Options)
	}
	if views[1].Type != matrix.MultipleChoice {
		t.Fatalf("second question type = %v", views[1].Type)
	}
}

func TestImportMatrixReplacesPreviousSet(t *testing.T) {
	st := store.NewMemoryStore()
	svc := NewQuestionService(st)
	if _, err := svc.ImportMatrix(matrixFixture(t)); err != nil {
		t.Fatalf("first import: %v", err)
	}

	small := writeWorkbook(t, "small.xlsx", [][]interface{}{
		{"id", "answer", "base_score"},
		{1, "Only question?", ""},
		{2, "Yes", 1},
	})
	if _, err := svc.ImportMatrix(small); err != nil {
		t.Fatalf("second import: %v", err)
	}
	views, _ := svc.List()
	if len(views) != 1 || views[0].Text != "Only question?" {
		t.Fatalf("questions after reimport = %+v", views)
	}
}

func TestImportMatrixErrors(t *testing.T) {
	st := store.NewMemoryStore()
	svc := NewQuestionService(st)

	_, err := svc.ImportMatrix(filepath.Join(t.TempDir(), "missing.xlsx"))
	if se, ok := AsServiceError(err); !ok || se.Code != ErrorNotFound {
		t.Fatalf("missing file error = %v", err)
	}

	noQuestions := writeWorkbook(t, "flat.xlsx", [][]interface{}{
		{"id", "answer", "base_score"},
		{1, "statement without a question mark", 1},
	})
	_, err = svc.ImportMatrix(noQuestions)
	if se, ok := AsServiceError(err); !ok || se.Code != ErrorInvalid {
		t.Fatalf("no-questions error = %v", err)
	}

	noLabel := writeWorkbook(t, "nolabel.xlsx", [][]interface{}{
		{"id", "base_score"},
		{1, 2},
	})
	_, err = svc.ImportMatrix(noLabel)
	if se, ok := AsServiceError(err); !ok || se.Code != ErrorInvalid {
		t.Fatalf("malformed workbook error = %v", err)
	}
}

func TestCleanupValidatesTableNames(t *testing.T) {
	st := seededStore(t)
	svc := NewQuestionService(st)

	if err := svc.Cleanup(nil); err == nil {
		t.Fatalf("empty table list accepted")
	}
	err := svc.Cleanup([]string{"questions", "bogus"})
	if se, ok := AsServiceError(err); !ok || se.Code != ErrorInvalid {
		t.Fatalf("unknown table error = %v", err)
	}
	// Rejected as a whole, nothing truncated.
	if views, _ := svc.List(); len(views) != 2 {
		t.Fatalf("questions truncated by rejected cleanup")
	}

	if err := svc.Cleanup([]string{"options", "questions"}); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if views, _ := svc.List(); len(views) != 0 {
		t.Fatalf("questions survived cleanup")
	}
}
