package matrix

import "strings"

// QuestionType tags how a question collects answers.
type QuestionType string

const (
	SingleChoice   QuestionType = "single_choice"
	MultipleChoice QuestionType = "multiple_choice"
)

// Question is one survey question with its ordered answer options.
// Immutable after extraction.
type Question struct {
	Text    string       `json:"text"`
	Type    QuestionType `json:"type"`
	Options []string     `json:"options"`
}

// ExtractQuestions walks the label column of the matrix table and rebuilds
// the ordered question list. A row whose label contains '?' starts a new
// question; the question is multiple choice when its text contains
// schema.MultiMarker. Every other non-empty row becomes an option of the
// current question, in encounter order. Rows before the first question
// marker are dropped, so a table without markers yields no questions:
// the workbook is assumed well-formed and extraction does not repair it.
func ExtractQuestions(t *Table, schema Schema) []Question {
	if t.Empty() {
		return nil
	}

	var (
		questions []Question
		current   Question
		open      bool
	)
	flush := func() {
		if open {
			questions = append(questions, current)
		}
	}

	for i := range t.Rows {
		label := t.Label(i)
		if label == "" || label == "nan" {
			continue
		}
		if strings.Contains(label, "?") {
			flush()
			current = Question{Text: label, Type: SingleChoice}
			if schema.MultiMarker != "" && strings.Contains(label, schema.MultiMarker) {
				current.Type = MultipleChoice
			}
			open = true
			continue
		}
		if open {
			current.Options = append(current.Options, label)
		}
	}
	flush()
	return questions
}
