package store

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"quizflow/internal/models"
)

// MemoryStore keeps everything in maps guarded by one RWMutex. Used by unit
// tests and by deployments that do not need durability.
type MemoryStore struct {
	mu        sync.RWMutex
	nextID    int64
	users     map[int64]*models.User // keyed by chat ID
	profiles  map[int64]*models.Profile
	questions []*models.Question
	options   map[int64][]*models.Option // keyed by question ID
	answers   []*models.Answer
	scores    map[int64]*models.Score
	admins    map[string]*models.AdminAccount // keyed by lowercased email
	now       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    map[int64]*models.User{},
		profiles: map[int64]*models.Profile{},
		options:  map[int64][]*models.Option{},
		scores:   map[int64]*models.Score{},
		admins:   map[string]*models.AdminAccount{},
		now:      func() time.Time { return time.Now().UTC() },
	}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *MemoryStore) EnsureUser(chatID int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[chatID]; ok {
		return u, nil
	}
	u := &models.User{ID: s.id(), ChatID: chatID, CreatedAt: s.now()}
	s.users[chatID] = u
	return u, nil
}

func (s *MemoryStore) GetUserByChatID(chatID int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.users[chatID], nil
}

func (s *MemoryStore) UpsertProfile(p *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	cp.UpdatedAt = s.now()
	s.profiles[p.UserID] = &cp
	return nil
}

func (s *MemoryStore) GetProfile(userID int64) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profiles[userID], nil
}

func (s *MemoryStore) ReplaceQuestions(qs []SeedQuestion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions = nil
	s.options = map[int64][]*models.Option{}
	for pos, q := range qs {
		mq := &models.Question{ID: s.id(), Text: q.Text, Type: q.Type, Position: pos}
		s.questions = append(s.questions, mq)
		for opos, text := range q.Options {
			s.options[mq.ID] = append(s.options[mq.ID], &models.Option{
				ID: s.id(), QuestionID: mq.ID, Text: text, Position: opos,
			})
		}
	}
	return nil
}

func (s *MemoryStore) ListQuestions() ([]*models.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Question, len(s.questions))
	copy(out, s.questions)
	return out, nil
}

func (s *MemoryStore) ListOptions(questionID int64) ([]*models.Option, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*models.Option(nil), s.options[questionID]...), nil
}

func (s *MemoryStore) SaveAnswers(userID, questionID int64, optionIDs []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	valid := map[int64]bool{}
	for _, o := range s.options[questionID] {
		valid[o.ID] = true
	}
	for _, oid := range optionIDs {
		if !valid[oid] {
			return fmt.Errorf("option %d does not belong to question %d", oid, questionID)
		}
		s.answers = append(s.answers, &models.Answer{
			ID: s.id(), UserID: userID, QuestionID: questionID, OptionID: oid, CreatedAt: s.now(),
		})
	}
	return nil
}

func (s *MemoryStore) ClearAnswers(userID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearAnswersLocked(userID), nil
}

func (s *MemoryStore) clearAnswersLocked(userID int64) int {
	removed := 0
	kept := make([]*models.Answer, 0, len(s.answers))
	for _, a := range s.answers {
		if a.UserID == userID {
			removed++
			continue
		}
		kept = append(kept, a)
	}
	s.answers = kept
	return removed
}

func (s *MemoryStore) ListAnswerTexts(userID int64) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var texts []string
	for _, a := range s.answers {
		if a.UserID != userID {
			continue
		}
		for _, o := range s.options[a.QuestionID] {
			if o.ID == a.OptionID {
				texts = append(texts, o.Text)
				break
			}
		}
	}
	return texts, nil
}

func (s *MemoryStore) UpsertScore(userID int64, value int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scores[userID] = &models.Score{UserID: userID, Value: value, UpdatedAt: s.now()}
	return nil
}

func (s *MemoryStore) GetScore(userID int64) (*models.Score, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scores[userID], nil
}

func (s *MemoryStore) CountAnswers(from, to time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, a := range s.answers {
		if inRange(a.CreatedAt, from, to) {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) AnswerRows(from, to time.Time) ([]*models.AnswerReportRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	usersByID := map[int64]*models.User{}
	for _, u := range s.users {
		usersByID[u.ID] = u
	}
	var rows []*models.AnswerReportRow
	for _, a := range s.answers {
		if !inRange(a.CreatedAt, from, to) {
			continue
		}
		row := &models.AnswerReportRow{AnsweredAt: a.CreatedAt}
		if u := usersByID[a.UserID]; u != nil {
			row.ChatID = u.ChatID
		}
		for _, q := range s.questions {
			if q.ID == a.QuestionID {
				row.QuestionText = q.Text
				break
			}
		}
		for _, o := range s.options[a.QuestionID] {
			if o.ID == a.OptionID {
				row.OptionText = o.Text
				break
			}
		}
		if sc := s.scores[a.UserID]; sc != nil {
			row.Score = sc.Value
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *MemoryStore) ProfileRows(from, to time.Time) ([]*models.ProfileReportRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var rows []*models.ProfileReportRow
	for _, u := range s.users {
		if !inRange(u.CreatedAt, from, to) {
			continue
		}
		row := &models.ProfileReportRow{UserID: u.ID, ChatID: u.ChatID, RegisteredAt: u.CreatedAt}
		if p := s.profiles[u.ID]; p != nil {
			row.FullName = p.FullName
			row.Email = p.Email
			row.PhoneNumber = p.PhoneNumber
			row.City = p.City
			row.ResidenceStatus = p.ResidenceStatus
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].UserID < rows[j].UserID })
	return rows, nil
}

func (s *MemoryStore) CleanTables(names []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, name := range names {
		if !cleanable(name) {
			return fmt.Errorf("%w: %s", ErrUnknownTable, name)
		}
	}
	for _, name := range names {
		switch name {
		case "users":
			s.users = map[int64]*models.User{}
		case "profiles":
			s.profiles = map[int64]*models.Profile{}
		case "questions":
			s.questions = nil
		case "options":
			s.options = map[int64][]*models.Option{}
		case "answers":
			s.answers = nil
		case "scores":
			s.scores = map[int64]*models.Score{}
		}
	}
	return nil
}

func (s *MemoryStore) DeleteUserData(chatID int64, hard bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[chatID]
	if !ok {
		return false, nil
	}
	s.clearAnswersLocked(u.ID)
	delete(s.profiles, u.ID)
	delete(s.scores, u.ID)
	if hard {
		delete(s.users, chatID)
	}
	return true, nil
}

func (s *MemoryStore) AddAdminAccount(a *models.AdminAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(a.Email)
	if _, exists := s.admins[key]; exists {
		return fmt.Errorf("admin %s already exists", a.Email)
	}
	cp := *a
	s.admins[key] = &cp
	return nil
}

func (s *MemoryStore) FindAdminByEmail(email string) (*models.AdminAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.admins[strings.ToLower(email)], nil
}

func inRange(ts, from, to time.Time) bool {
	return !ts.Before(from) && ts.Before(to)
}
