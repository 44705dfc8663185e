package models

import (
	"time"

	"quizflow/internal/matrix"
)

// User is one survey respondent, keyed by the chat ID the conversation
// driver supplies.
type User struct {
	ID        int64
	ChatID    int64
	IsAdmin   bool
	CreatedAt time.Time
}

// Profile holds the respondent's contact data collected after the survey.
// FullName, Email and PhoneNumber are stored encrypted; City and
// ResidenceStatus are not considered sensitive.
type Profile struct {
	UserID          int64
	FullName        string
	Email           string
	PhoneNumber     string
	City            string
	ResidenceStatus string
	ConsentAt       time.Time
	UpdatedAt       time.Time
}

// Question is a persisted survey question, seeded from the scoring matrix
// workbook by the admin import.
type Question struct {
	ID       int64
	Text     string
	Type     matrix.QuestionType
	Position int
}

// Option is one answer option of a question, in workbook order.
type Option struct {
	ID         int64
	QuestionID int64
	Text       string
	Position   int
}

// Answer records one selected option for one user. Multiple-choice
// questions produce one row per selected option.
type Answer struct {
	ID         int64
	UserID     int64
	QuestionID int64
	OptionID   int64
	CreatedAt  time.Time
}

// Score is the user's latest total, upserted after each completed run.
type Score struct {
	UserID    int64
	Value     int
	UpdatedAt time.Time
}

// AdminAccount can call the administrative API (uploads, reports, cleanup).
type AdminAccount struct {
	ID        string
	Email     string
	PassHash  []byte
	CreatedAt time.Time
}

// AnswerReportRow is one line of the answers report export.
type AnswerReportRow struct {
	ChatID       int64
	QuestionText string
	OptionText   string
	AnsweredAt   time.Time
	Score        int
}

// ProfileReportRow is one line of the profiles report export. PII fields
// are decrypted by the report service before rendering.
type ProfileReportRow struct {
	UserID          int64
	ChatID          int64
	FullName        string
	Email           string
	PhoneNumber     string
	City            string
	ResidenceStatus string
	RegisteredAt    time.Time
}
