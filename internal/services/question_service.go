package services

import (
	"errors"
	"fmt"
	"log"

	"quizflow/internal/matrix"
	"quizflow/internal/models"
	"quizflow/internal/store"
)

type QuestionStore interface {
	ReplaceQuestions(qs []store.SeedQuestion) error
	ListQuestions() ([]*models.Question, error)
	ListOptions(questionID int64) ([]*models.Option, error)
	CleanTables(names []string) error
}

// QuestionService turns a scoring matrix workbook into the question set
// served to respondents.
type QuestionService struct {
	store     QuestionStore
	schema    matrix.Schema
	headerRow int
}

type QuestionView struct {
	ID      int64               `json:"id"`
	Text    string              `json:"text"`
	Type    matrix.QuestionType `json:"type"`
	Options []OptionView        `json:"options"`
}

type OptionView struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

func NewQuestionService(st QuestionStore) *QuestionService {
	return &QuestionService{store: st, schema: matrix.DefaultSchema(), headerRow: 0}
}

// ImportMatrix loads the workbook at path, extracts its questions and
// replaces the stored question set. Returns the number of questions imported.
func (s *QuestionService) ImportMatrix(path string) (int, error) {
	t, err := matrix.LoadTable(path, s.headerRow, s.schema.LabelHeader)
	if err != nil {
		if errors.Is(err, matrix.ErrFileNotFound) {
			return 0, NewNotFoundError(fmt.Sprintf("matrix file %s not found", path))
		}
		return 0, NewInvalidError(err.Error())
	}
	questions := matrix.ExtractQuestions(t, s.schema)
	if len(questions) == 0 {
		return 0, NewInvalidError("no questions found in matrix")
	}
	seeds := make([]store.SeedQuestion, 0, len(questions))
	for _, q := range questions {
		seeds = append(seeds, store.SeedQuestion{Text: q.Text, Type: q.Type, Options: q.Options})
	}
	if err := s.store.ReplaceQuestions(seeds); err != nil {
		return 0, err
	}
	log.Printf("imported %d questions from %s", len(seeds), path)
	return len(seeds), nil
}

// List returns the stored questions with their options, in survey order.
func (s *QuestionService) List() ([]*QuestionView, error) {
	qs, err := s.store.ListQuestions()
	if err != nil {
		return nil, err
	}
	views := make([]*QuestionView, 0, len(qs))
	for _, q := range qs {
		opts, err := s.store.ListOptions(q.ID)
		if err != nil {
			return nil, err
		}
		v := &QuestionView{ID: q.ID, Text: q.Text, Type: q.Type}
		for _, o := range opts {
			v.Options = append(v.Options, OptionView{ID: o.ID, Text: o.Text})
		}
		views = append(views, v)
	}
	return views, nil
}

// Cleanup truncates the named tables. Unknown names reject the whole request.
func (s *QuestionService) Cleanup(tables []string) error {
	if len(tables) == 0 {
		return NewInvalidError("no tables named")
	}
	if err := s.store.CleanTables(tables); err != nil {
		if errors.Is(err, store.ErrUnknownTable) {
			return NewInvalidError(err.Error())
		}
		return err
	}
	log.Printf("cleaned tables: %v", tables)
	return nil
}
