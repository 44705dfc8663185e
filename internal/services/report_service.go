package services

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"quizflow/internal/models"
)

type ReportStore interface {
	CountAnswers(from, to time.Time) (int, error)
	AnswerRows(from, to time.Time) ([]*models.AnswerReportRow, error)
	ProfileRows(from, to time.Time) ([]*models.ProfileReportRow, error)
}

// ReportService renders admin exports. Profile reports decrypt the PII
// fields before rendering; in-store data stays encrypted.
type ReportService struct {
	store  ReportStore
	cipher *FieldCipher
	now    func() time.Time
}

type ReportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	csvContentType  = "text/csv; charset=utf-8"
)

func NewReportService(st ReportStore, cipher *FieldCipher) *ReportService {
	return &ReportService{
		store:  st,
		cipher: cipher,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *ReportService) window(from, to time.Time) (time.Time, time.Time, error) {
	if to.IsZero() {
		to = s.now()
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, NewInvalidError("report range start is after its end")
	}
	return from, to, nil
}

// CountAnswers returns how many answers fall in the window. Used by the
// admin dashboard before a full export.
func (s *ReportService) CountAnswers(from, to time.Time) (int, error) {
	from, to, err := s.window(from, to)
	if err != nil {
		return 0, err
	}
	return s.store.CountAnswers(from, to)
}

// AnswersReport renders every answer in the window, one row per selected
// option, in the requested format ("xlsx" or "csv").
func (s *ReportService) AnswersReport(from, to time.Time, format string) (*ReportResult, error) {
	from, to, err := s.window(from, to)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.AnswerRows(from, to)
	if err != nil {
		return nil, err
	}
	export := make([]AnswerExportRow, 0, len(rows))
	for _, r := range rows {
		export = append(export, AnswerExportRow{
			ChatID:       r.ChatID,
			QuestionText: r.QuestionText,
			OptionText:   r.OptionText,
			AnsweredAt:   r.AnsweredAt,
			Score:        r.Score,
		})
	}
	stamp := s.now().Format("2006-01-02")
	switch format {
	case "", "xlsx":
		data, err := answersWorkbook(export)
		if err != nil {
			return nil, err
		}
		return &ReportResult{
			Filename:    fmt.Sprintf("answers_%s.xlsx", stamp),
			ContentType: xlsxContentType,
			Data:        data,
		}, nil
	case "csv":
		data, err := ExportAnswersCSV(export)
		if err != nil {
			return nil, err
		}
		return &ReportResult{
			Filename:    fmt.Sprintf("answers_%s.csv", stamp),
			ContentType: csvContentType,
			Data:        data,
		}, nil
	default:
		return nil, NewInvalidError(fmt.Sprintf("unknown report format %q", format))
	}
}

// ProfilesReport renders every respondent registered in the window with
// decrypted contact fields.
func (s *ReportService) ProfilesReport(from, to time.Time, format string) (*ReportResult, error) {
	from, to, err := s.window(from, to)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.ProfileRows(from, to)
	if err != nil {
		return nil, err
	}
	export := make([]ProfileExportRow, 0, len(rows))
	for _, r := range rows {
		name, err := s.cipher.Decrypt(r.FullName)
		if err != nil {
			return nil, fmt.Errorf("decrypt profile for chat %d: %w", r.ChatID, err)
		}
		email, err := s.cipher.Decrypt(r.Email)
		if err != nil {
			return nil, fmt.Errorf("decrypt profile for chat %d: %w", r.ChatID, err)
		}
		phone, err := s.cipher.Decrypt(r.PhoneNumber)
		if err != nil {
			return nil, fmt.Errorf("decrypt profile for chat %d: %w", r.ChatID, err)
		}
		export = append(export, ProfileExportRow{
			ChatID:          r.ChatID,
			FullName:        name,
			Email:           email,
			PhoneNumber:     phone,
			City:            r.City,
			ResidenceStatus: r.ResidenceStatus,
			RegisteredAt:    r.RegisteredAt,
		})
	}
	stamp := s.now().Format("2006-01-02")
	switch format {
	case "", "xlsx":
		data, err := profilesWorkbook(export)
		if err != nil {
			return nil, err
		}
		return &ReportResult{
			Filename:    fmt.Sprintf("profiles_%s.xlsx", stamp),
			ContentType: xlsxContentType,
			Data:        data,
		}, nil
	case "csv":
		data, err := ExportProfilesCSV(export)
		if err != nil {
			return nil, err
		}
		return &ReportResult{
			Filename:    fmt.Sprintf("profiles_%s.csv", stamp),
			ContentType: csvContentType,
			Data:        data,
		}, nil
	default:
		return nil, NewInvalidError(fmt.Sprintf("unknown report format %q", format))
	}
}

func answersWorkbook(rows []AnswerExportRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	header := []interface{}{"chat_id", "question", "answer", "answered_at", "score"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []interface{}{
			r.ChatID,
			r.QuestionText,
			r.OptionText,
			r.AnsweredAt.UTC().Format(time.RFC3339),
			r.Score,
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, err
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func profilesWorkbook(rows []ProfileExportRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	header := []interface{}{"chat_id", "full_name", "email", "phone_number", "city", "residence_status", "registered_at"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []interface{}{
			r.ChatID,
			r.FullName,
			r.Email,
			r.PhoneNumber,
			r.City,
			r.ResidenceStatus,
			r.RegisteredAt.UTC().Format(time.RFC3339),
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, err
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
