package services

import (
	"errors"
	"log"
	"math"
	"sync"

	"quizflow/internal/matrix"
	"quizflow/internal/models"
)

type ScoringStore interface {
	GetUserByChatID(chatID int64) (*models.User, error)
	ListAnswerTexts(userID int64) ([]string, error)
	UpsertScore(userID int64, value int) error
	GetScore(userID int64) (*models.Score, error)
}

// ScoringService computes a respondent's total from the loaded matrix and
// maps it onto a result band. The matrix and template can be swapped at
// runtime by an admin upload.
type ScoringService struct {
	mu         sync.RWMutex
	store      ScoringStore
	schema     matrix.Schema
	tmplSchema matrix.TemplateSchema
	table      *matrix.Table
	bands      []matrix.ResultBand
}

type ScoreResult struct {
	Score     float64  `json:"score"`
	Rounded   int      `json:"rounded"`
	Band      string   `json:"band,omitempty"`
	Matched   bool     `json:"matched"`
	Unmatched []string `json:"unmatched,omitempty"`
}

func NewScoringService(st ScoringStore) *ScoringService {
	return &ScoringService{
		store:      st,
		schema:     matrix.DefaultSchema(),
		tmplSchema: matrix.DefaultTemplateSchema(),
	}
}

// LoadMatrix replaces the scoring table from the workbook at path.
func (s *ScoringService) LoadMatrix(path string) error {
	t, err := matrix.LoadTable(path, 0, s.schema.LabelHeader)
	if err != nil {
		if errors.Is(err, matrix.ErrFileNotFound) {
			return NewNotFoundError("matrix file not found")
		}
		return NewInvalidError(err.Error())
	}
	s.mu.Lock()
	s.table = t
	s.mu.Unlock()
	return nil
}

// LoadTemplate replaces the result bands from the workbook at path.
func (s *ScoringService) LoadTemplate(path string) error {
	bands, err := matrix.LoadBands(path, s.tmplSchema)
	if err != nil {
		if errors.Is(err, matrix.ErrFileNotFound) {
			return NewNotFoundError("template file not found")
		}
		return NewInvalidError(err.Error())
	}
	s.mu.Lock()
	s.bands = bands
	s.mu.Unlock()
	return nil
}

// Ready reports whether both the matrix and the result template are loaded.
func (s *ScoringService) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table != nil && len(s.bands) > 0
}

// Finalize sums the respondent's answers, persists the rounded total and
// resolves the matching result band. Band resolution uses the raw total.
func (s *ScoringService) Finalize(chatID int64) (*ScoreResult, error) {
	s.mu.RLock()
	table, bands := s.table, s.bands
	s.mu.RUnlock()
	if table == nil {
		return nil, NewInvalidError("scoring matrix not loaded")
	}
	u, err := s.store.GetUserByChatID(chatID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, NewNotFoundError("survey not started")
	}
	answers, err := s.store.ListAnswerTexts(u.ID)
	if err != nil {
		return nil, err
	}
	if len(answers) == 0 {
		return nil, NewInvalidError("no answers to score")
	}
	sc := matrix.CalculateScore(table, s.schema, answers)
	for _, miss := range sc.Unmatched {
		log.Printf("answer %q not present in matrix, skipped for chat %d", miss, chatID)
	}
	rounded := int(math.Round(sc.Total))
	if err := s.store.UpsertScore(u.ID, rounded); err != nil {
		return nil, err
	}
	res := &ScoreResult{Score: sc.Total, Rounded: rounded, Unmatched: sc.Unmatched}
	if desc, ok := matrix.ResolveBand(bands, sc.Total); ok {
		res.Band = desc
		res.Matched = true
	} else {
		log.Printf("score %.2f matched no result band for chat %d", sc.Total, chatID)
	}
	return res, nil
}

// StoredScore returns the previously persisted score for a respondent.
func (s *ScoringService) StoredScore(chatID int64) (*models.Score, error) {
	u, err := s.store.GetUserByChatID(chatID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, NewNotFoundError("unknown respondent")
	}
	sc, err := s.store.GetScore(u.ID)
	if err != nil {
		return nil, err
	}
	if sc == nil {
		return nil, NewNotFoundError("no score recorded")
	}
	return sc, nil
}
