package services

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"time"
)

// AnswerExportRow is one decrypt-free line of the answers export.
type AnswerExportRow struct {
	ChatID       int64
	QuestionText string
	OptionText   string
	AnsweredAt   time.Time
	Score        int
}

// ProfileExportRow is one line of the profiles export with PII already
// decrypted by the caller.
type ProfileExportRow struct {
	ChatID          int64
	FullName        string
	Email           string
	PhoneNumber     string
	City            string
	ResidenceStatus string
	RegisteredAt    time.Time
}

// ExportAnswersCSV renders answer rows into a long-format CSV.
func ExportAnswersCSV(rows []AnswerExportRow) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"chat_id", "question", "answer", "answered_at", "score"})
	for _, r := range rows {
		rec := []string{
			strconv.FormatInt(r.ChatID, 10),
			r.QuestionText,
			r.OptionText,
			r.AnsweredAt.UTC().Format(time.RFC3339),
			strconv.Itoa(r.Score),
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// ExportProfilesCSV renders profile rows into a CSV, one respondent per line.
func ExportProfilesCSV(rows []ProfileExportRow) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"chat_id", "full_name", "email", "phone_number", "city", "residence_status", "registered_at"})
	for _, r := range rows {
		rec := []string{
			strconv.FormatInt(r.ChatID, 10),
			r.FullName,
			r.Email,
			r.PhoneNumber,
			r.City,
			r.ResidenceStatus,
			r.RegisteredAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
