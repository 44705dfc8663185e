package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"quizflow/internal/matrix"
	"quizflow/internal/models"
)

// SQLiteStore persists everything in a single SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore applies the usual pragmas and wraps db. Migrations must
// already have run (RunMigrations).
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

var _ Store = (*SQLiteStore)(nil)

func (s *SQLiteStore) EnsureUser(chatID int64) (*models.User, error) {
	if u, err := s.GetUserByChatID(chatID); err != nil || u != nil {
		return u, err
	}
	now := s.now()
	res, err := s.db.Exec(
		"INSERT INTO users (chat_id, is_admin, created_at) VALUES (?, 0, ?)",
		chatID, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &models.User{ID: id, ChatID: chatID, CreatedAt: now}, nil
}

func (s *SQLiteStore) GetUserByChatID(chatID int64) (*models.User, error) {
	row := s.db.QueryRow("SELECT id, chat_id, is_admin, created_at FROM users WHERE chat_id = ?", chatID)
	var u models.User
	var admin int64
	if err := row.Scan(&u.ID, &u.ChatID, &admin, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	u.IsAdmin = admin != 0
	return &u, nil
}

func (s *SQLiteStore) UpsertProfile(p *models.Profile) error {
	_, err := s.db.Exec(`
		INSERT INTO profiles (user_id, full_name, email, phone_number, city, residence_status, consent_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			full_name = excluded.full_name,
			email = excluded.email,
			phone_number = excluded.phone_number,
			city = excluded.city,
			residence_status = excluded.residence_status,
			consent_at = excluded.consent_at,
			updated_at = excluded.updated_at`,
		p.UserID, p.FullName, p.Email, p.PhoneNumber, p.City, p.ResidenceStatus, p.ConsentAt, s.now(),
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetProfile(userID int64) (*models.Profile, error) {
	row := s.db.QueryRow(`
		SELECT user_id, full_name, email, phone_number, city, residence_status, consent_at, updated_at
		FROM profiles WHERE user_id = ?`, userID)
	var p models.Profile
	if err := row.Scan(&p.UserID, &p.FullName, &p.Email, &p.PhoneNumber, &p.City, &p.ResidenceStatus, &p.ConsentAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select profile: %w", err)
	}
	return &p, nil
}

func (s *SQLiteStore) ReplaceQuestions(qs []SeedQuestion) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM options"); err != nil {
		return fmt.Errorf("clear options: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM questions"); err != nil {
		return fmt.Errorf("clear questions: %w", err)
	}
	for pos, q := range qs {
		res, err := tx.Exec("INSERT INTO questions (text, qtype, position) VALUES (?, ?, ?)", q.Text, string(q.Type), pos)
		if err != nil {
			return fmt.Errorf("insert question: %w", err)
		}
		qid, err := res.LastInsertId()
		if err != nil {
			return err
		}
		for opos, text := range q.Options {
			if _, err := tx.Exec("INSERT INTO options (question_id, text, position) VALUES (?, ?, ?)", qid, text, opos); err != nil {
				return fmt.Errorf("insert option: %w", err)
			}
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) ListQuestions() ([]*models.Question, error) {
	rows, err := s.db.Query("SELECT id, text, qtype, position FROM questions ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("select questions: %w", err)
	}
	defer rows.Close()
	var out []*models.Question
	for rows.Next() {
		var q models.Question
		var qtype string
		if err := rows.Scan(&q.ID, &q.Text, &qtype, &q.Position); err != nil {
			return nil, err
		}
		q.Type = matrix.QuestionType(qtype)
		out = append(out, &q)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListOptions(questionID int64) ([]*models.Option, error) {
	rows, err := s.db.Query(
		"SELECT id, question_id, text, position FROM options WHERE question_id = ? ORDER BY position", questionID)
	if err != nil {
		return nil, fmt.Errorf("select options: %w", err)
	}
	defer rows.Close()
	var out []*models.Option
	for rows.Next() {
		var o models.Option
		if err := rows.Scan(&o.ID, &o.QuestionID, &o.Text, &o.Position); err != nil {
			return nil, err
		}
		out = append(out, &o)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SaveAnswers(userID, questionID int64, optionIDs []int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, oid := range optionIDs {
		var belongs int
		if err := tx.QueryRow(
			"SELECT COUNT(1) FROM options WHERE id = ? AND question_id = ?", oid, questionID,
		).Scan(&belongs); err != nil {
			return err
		}
		if belongs == 0 {
			return fmt.Errorf("option %d does not belong to question %d", oid, questionID)
		}
		if _, err := tx.Exec(
			"INSERT INTO answers (user_id, question_id, option_id, created_at) VALUES (?, ?, ?, ?)",
			userID, questionID, oid, s.now(),
		); err != nil {
			return fmt.Errorf("insert answer: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) ClearAnswers(userID int64) (int, error) {
	res, err := s.db.Exec("DELETE FROM answers WHERE user_id = ?", userID)
	if err != nil {
		return 0, fmt.Errorf("clear answers: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (s *SQLiteStore) ListAnswerTexts(userID int64) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT o.text
		FROM answers a
		JOIN options o ON o.id = a.option_id
		WHERE a.user_id = ?
		ORDER BY a.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("select answer texts: %w", err)
	}
	defer rows.Close()
	var texts []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		texts = append(texts, t)
	}
	return texts, rows.Err()
}

func (s *SQLiteStore) UpsertScore(userID int64, value int) error {
	_, err := s.db.Exec(`
		INSERT INTO scores (user_id, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		userID, value, s.now(),
	)
	if err != nil {
		return fmt.Errorf("upsert score: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetScore(userID int64) (*models.Score, error) {
	row := s.db.QueryRow("SELECT user_id, value, updated_at FROM scores WHERE user_id = ?", userID)
	var sc models.Score
	if err := row.Scan(&sc.UserID, &sc.Value, &sc.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select score: %w", err)
	}
	return &sc, nil
}

func (s *SQLiteStore) CountAnswers(from, to time.Time) (int, error) {
	var n int
	err := s.db.QueryRow(
		"SELECT COUNT(1) FROM answers WHERE created_at >= ? AND created_at < ?", from, to,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count answers: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) AnswerRows(from, to time.Time) ([]*models.AnswerReportRow, error) {
	rows, err := s.db.Query(`
		SELECT u.chat_id, q.text, o.text, a.created_at, COALESCE(sc.value, 0)
		FROM answers a
		JOIN users u ON u.id = a.user_id
		JOIN questions q ON q.id = a.question_id
		JOIN options o ON o.id = a.option_id
		LEFT JOIN scores sc ON sc.user_id = a.user_id
		WHERE a.created_at >= ? AND a.created_at < ?
		ORDER BY a.id`, from, to)
	if err != nil {
		return nil, fmt.Errorf("select answer report: %w", err)
	}
	defer rows.Close()
	var out []*models.AnswerReportRow
	for rows.Next() {
		var r models.AnswerReportRow
		if err := rows.Scan(&r.ChatID, &r.QuestionText, &r.OptionText, &r.AnsweredAt, &r.Score); err != nil {
			return nil, err
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ProfileRows(from, to time.Time) ([]*models.ProfileReportRow, error) {
	rows, err := s.db.Query(`
		SELECT u.id, u.chat_id, u.created_at,
			COALESCE(p.full_name, ''), COALESCE(p.email, ''), COALESCE(p.phone_number, ''),
			COALESCE(p.city, ''), COALESCE(p.residence_status, '')
		FROM users u
		LEFT JOIN profiles p ON p.user_id = u.id
		WHERE u.created_at >= ? AND u.created_at < ?
		ORDER BY u.id`, from, to)
	if err != nil {
		return nil, fmt.Errorf("select profile report: %w", err)
	}
	defer rows.Close()
	var out []*models.ProfileReportRow
	for rows.Next() {
		var r models.ProfileReportRow
		if err := rows.Scan(&r.UserID, &r.ChatID, &r.RegisteredAt,
			&r.FullName, &r.Email, &r.PhoneNumber, &r.City, &r.ResidenceStatus); err != nil {
			return nil, err
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CleanTables(names []string) error {
	for _, name := range names {
		if !cleanable(name) {
			return fmt.Errorf("%w: %s", ErrUnknownTable, name)
		}
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, name := range names {
		// name is validated against CleanableTables above.
		if _, err := tx.Exec("DELETE FROM " + name); err != nil {
			return fmt.Errorf("clean %s: %w", name, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) DeleteUserData(chatID int64, hard bool) (bool, error) {
	u, err := s.GetUserByChatID(chatID)
	if err != nil || u == nil {
		return false, err
	}
	tx, err := s.db.Begin()
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()
	for _, stmt := range []string{
		"DELETE FROM answers WHERE user_id = ?",
		"DELETE FROM profiles WHERE user_id = ?",
		"DELETE FROM scores WHERE user_id = ?",
	} {
		if _, err := tx.Exec(stmt, u.ID); err != nil {
			return false, fmt.Errorf("erase user data: %w", err)
		}
	}
	if hard {
		if _, err := tx.Exec("DELETE FROM users WHERE id = ?", u.ID); err != nil {
			return false, fmt.Errorf("erase user: %w", err)
		}
	}
	return true, tx.Commit()
}

func (s *SQLiteStore) AddAdminAccount(a *models.AdminAccount) error {
	_, err := s.db.Exec(
		"INSERT INTO admin_accounts (id, email, pass_hash, created_at) VALUES (?, ?, ?, ?)",
		a.ID, strings.TrimSpace(a.Email), a.PassHash, s.now(),
	)
	if err != nil {
		return fmt.Errorf("insert admin account: %w", err)
	}
	return nil
}

func (s *SQLiteStore) FindAdminByEmail(email string) (*models.AdminAccount, error) {
	row := s.db.QueryRow(
		"SELECT id, email, pass_hash, created_at FROM admin_accounts WHERE email = ? COLLATE NOCASE",
		strings.TrimSpace(email))
	var a models.AdminAccount
	if err := row.Scan(&a.ID, &a.Email, &a.PassHash, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select admin account: %w", err)
	}
	return &a, nil
}
