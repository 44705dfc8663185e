package services

import (
	"fmt"

	"quizflow/internal/matrix"
	"quizflow/internal/models"
)

type SurveyStore interface {
	EnsureUser(chatID int64) (*models.User, error)
	GetUserByChatID(chatID int64) (*models.User, error)
	ListQuestions() ([]*models.Question, error)
	ListOptions(questionID int64) ([]*models.Option, error)
	SaveAnswers(userID, questionID int64, optionIDs []int64) error
	ClearAnswers(userID int64) (int, error)
}

// SurveyService walks a respondent through the question set one question at
// a time. Restarting a survey drops any answers from the previous run.
type SurveyService struct {
	store SurveyStore
}

type SurveyStep struct {
	Question *QuestionView `json:"question,omitempty"`
	Position int           `json:"position"`
	Total    int           `json:"total"`
	Done     bool          `json:"done"`
}

func NewSurveyService(st SurveyStore) *SurveyService {
	return &SurveyService{store: st}
}

// Start registers the respondent if needed, clears any previous answers and
// returns the first question.
func (s *SurveyService) Start(chatID int64) (*SurveyStep, error) {
	u, err := s.store.EnsureUser(chatID)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.ClearAnswers(u.ID); err != nil {
		return nil, err
	}
	qs, err := s.store.ListQuestions()
	if err != nil {
		return nil, err
	}
	if len(qs) == 0 {
		return nil, NewNotFoundError("no questions loaded")
	}
	return s.step(qs, 0)
}

// Answer records the respondent's choice for questionID and returns the next
// question, or a done step after the last one.
func (s *SurveyService) Answer(chatID, questionID int64, optionIDs []int64) (*SurveyStep, error) {
	u, err := s.store.GetUserByChatID(chatID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, NewNotFoundError("survey not started")
	}
	qs, err := s.store.ListQuestions()
	if err != nil {
		return nil, err
	}
	idx := -1
	for i, q := range qs {
		if q.ID == questionID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, NewNotFoundError("unknown question")
	}
	q := qs[idx]
	if len(optionIDs) == 0 {
		return nil, NewInvalidError("at least one option required")
	}
	if q.Type == matrix.SingleChoice && len(optionIDs) != 1 {
		return nil, NewInvalidError("question accepts exactly one option")
	}
	opts, err := s.store.ListOptions(q.ID)
	if err != nil {
		return nil, err
	}
	valid := make(map[int64]bool, len(opts))
	for _, o := range opts {
		valid[o.ID] = true
	}
	seen := make(map[int64]bool, len(optionIDs))
	for _, id := range optionIDs {
		if !valid[id] {
			return nil, NewInvalidError(fmt.Sprintf("option %d does not belong to question %d", id, q.ID))
		}
		if seen[id] {
			return nil, NewInvalidError("duplicate option in answer")
		}
		seen[id] = true
	}
	if err := s.store.SaveAnswers(u.ID, q.ID, optionIDs); err != nil {
		return nil, err
	}
	if idx+1 >= len(qs) {
		return &SurveyStep{Position: len(qs), Total: len(qs), Done: true}, nil
	}
	return s.step(qs, idx+1)
}

func (s *SurveyService) step(qs []*models.Question, idx int) (*SurveyStep, error) {
	q := qs[idx]
	opts, err := s.store.ListOptions(q.ID)
	if err != nil {
		return nil, err
	}
	view := &QuestionView{ID: q.ID, Text: q.Text, Type: q.Type}
	for _, o := range opts {
		view.Options = append(view.Options, OptionView{ID: o.ID, Text: o.Text})
	}
	return &SurveyStep{Question: view, Position: idx + 1, Total: len(qs)}, nil
}
