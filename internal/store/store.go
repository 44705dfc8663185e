// Package store persists users, questions, answers, profiles and scores.
// Two implementations exist: an in-memory store for tests and small
// deployments, and a SQLite store for everything else.
package store

import (
	"errors"
	"time"

	"quizflow/internal/matrix"
	"quizflow/internal/models"
)

// ErrUnknownTable is returned by CleanTables for a table name outside the
// cleanable set.
var ErrUnknownTable = errors.New("unknown table")

// CleanableTables is the closed set of table names admins may wipe.
var CleanableTables = []string{"users", "profiles", "questions", "options", "answers", "scores"}

// SeedQuestion is one question with its options, as produced by the matrix
// import. ReplaceQuestions assigns IDs and positions.
type SeedQuestion struct {
	Text    string
	Type    matrix.QuestionType
	Options []string
}

type Store interface {
	// EnsureUser returns the user for chatID, creating it on first contact.
	EnsureUser(chatID int64) (*models.User, error)
	// GetUserByChatID returns nil without error when the user is unknown.
	GetUserByChatID(chatID int64) (*models.User, error)

	UpsertProfile(p *models.Profile) error
	GetProfile(userID int64) (*models.Profile, error)

	// ReplaceQuestions wipes the questionnaire and installs qs in order.
	ReplaceQuestions(qs []SeedQuestion) error
	ListQuestions() ([]*models.Question, error)
	ListOptions(questionID int64) ([]*models.Option, error)

	SaveAnswers(userID int64, questionID int64, optionIDs []int64) error
	// ClearAnswers removes the user's recorded answers, returning how many
	// rows were dropped. Called when a survey run restarts.
	ClearAnswers(userID int64) (int, error)
	// ListAnswerTexts returns the option texts the user selected, in
	// selection order across the whole run.
	ListAnswerTexts(userID int64) ([]string, error)

	UpsertScore(userID int64, value int) error
	GetScore(userID int64) (*models.Score, error)

	CountAnswers(from, to time.Time) (int, error)
	AnswerRows(from, to time.Time) ([]*models.AnswerReportRow, error)
	ProfileRows(from, to time.Time) ([]*models.ProfileReportRow, error)

	// CleanTables wipes the named tables; every name must be in
	// CleanableTables.
	CleanTables(names []string) error
	// DeleteUserData erases a user's answers, profile and score. The user
	// row itself is kept unless hard is set.
	DeleteUserData(chatID int64, hard bool) (bool, error)

	AddAdminAccount(a *models.AdminAccount) error
	FindAdminByEmail(email string) (*models.AdminAccount, error)
}

func cleanable(name string) bool {
	for _, t := range CleanableTables {
		if t == name {
			return true
		}
	}
	return false
}
