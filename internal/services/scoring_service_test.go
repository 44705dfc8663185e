package services

import (
	"math"
	"path/filepath"
	"testing"

	"quizflow/internal/store"
)

func completedSurvey(t *testing.T, st *store.MemoryStore, chatID int64, optionPicks [][]int) {
	t.Helper()
	svc := NewSurveyService(st)
	step, err := svc.Start(chatID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	for _, picks := range optionPicks {
		ids := make([]int64, 0, len(picks))
		for _, i := range picks {
			ids = append(ids, step.Question.Options[i].ID)
		}
		step, err = svc.Answer(chatID, step.Question.ID, ids)
		if err != nil {
			t.Fatalf("Answer: %v", err)
		}
	}
}

func TestFinalizeComputesScoreAndBand(t *testing.T) {
	st := seededStore(t)
	svc := NewScoringService(st)
	if err := svc.LoadMatrix(matrixFixture(t)); err != nil {
		t.Fatalf("LoadMatrix: %v", err)
	}
	if err := svc.LoadTemplate(templateFixture(t)); err != nil {
		t.Fatalf("LoadTemplate: %v", err)
	}
	if !svc.Ready() {
		t.Fatalf("service not ready after both loads")
	}

	// Buying a home (10) + Married (3) + pairwise correction (2) = 15.
	completedSurvey(t, st, 50, [][]int{{0}, {0}})

	res, err := svc.Finalize(50)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if math.Abs(res.Score-15) > 1e-9 || res.Rounded != 15 {
		t.Fatalf("score = %+v, want 15", res)
	}
	if !res.Matched || res.Band != "Growth plan" {
		t.Fatalf("band = %+v, want Growth plan", res)
	}
	if len(res.Unmatched) != 0 {
		t.Fatalf("unexpected unmatched answers: %v", res.Unmatched)
	}

	stored, err := svc.StoredScore(50)
	if err != nil {
		t.Fatalf("StoredScore: %v", err)
	}
	if stored.Value != 15 {
		t.Fatalf("persisted score = %d, want 15", stored.Value)
	}
}

func TestFinalizeNoBandMatch(t *testing.T) {
	st := seededStore(t)
	svc := NewScoringService(st)
	if err := svc.LoadMatrix(matrixFixture(t)); err != nil {
		t.Fatalf("LoadMatrix: %v", err)
	}
	narrow := writeWorkbook(t, "narrow.xlsx", [][]interface{}{
		{"scores", "result"},
		{"100-200", "Out of reach"},
	})
	if err := svc.LoadTemplate(narrow); err != nil {
		t.Fatalf("LoadTemplate: %v", err)
	}

	completedSurvey(t, st, 51, [][]int{{1}, {1}})

	res, err := svc.Finalize(51)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if res.Matched || res.Band != "" {
		t.Fatalf("expected no band match, got %+v", res)
	}
	// Retirement savings (5) + Children under 18 (1), no correction.
	if res.Rounded != 6 {
		t.Fatalf("score = %+v, want 6", res)
	}
}

func TestFinalizeGuards(t *testing.T) {
	st := seededStore(t)
	svc := NewScoringService(st)

	if _, err := svc.Finalize(50); err == nil {
		t.Fatalf("finalize without a matrix accepted")
	}

	if err := svc.LoadMatrix(matrixFixture(t)); err != nil {
		t.Fatalf("LoadMatrix: %v", err)
	}
	if _, err := svc.Finalize(404); err == nil {
		t.Fatalf("finalize for unknown respondent accepted")
	}

	// Started but answered nothing.
	survey := NewSurveyService(st)
	if _, err := survey.Start(52); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := svc.Finalize(52); err == nil {
		t.Fatalf("finalize with no answers accepted")
	}
}

func TestLoadMatrixErrors(t *testing.T) {
	svc := NewScoringService(store.NewMemoryStore())

	err := svc.LoadMatrix(filepath.Join(t.TempDir(), "gone.xlsx"))
	if se, ok := AsServiceError(err); !ok || se.Code != ErrorNotFound {
		t.Fatalf("missing matrix error = %v", err)
	}

	badTemplate := writeWorkbook(t, "bad.xlsx", [][]interface{}{
		{"scores", "result"},
		{"ten-20", "Broken"},
	})
	err = svc.LoadTemplate(badTemplate)
	if se, ok := AsServiceError(err); !ok || se.Code != ErrorInvalid {
		t.Fatalf("malformed template error = %v", err)
	}
}
