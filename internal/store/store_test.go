package store

import (
	"database/sql"
	"errors"
	"reflect"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"quizflow/internal/matrix"
	"quizflow/internal/models"
)

func openStores(t *testing.T) map[string]Store {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := RunMigrations(db, ""); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	sq, err := NewSQLiteStore(db)
	if err != nil {
		t.Fatalf("sqlite store: %v", err)
	}
	return map[string]Store{"memory": NewMemoryStore(), "sqlite": sq}
}

func seedQuestions(t *testing.T, s Store) {
	t.Helper()
	err := s.ReplaceQuestions([]SeedQuestion{
		{Text: "What are your goals?", Type: matrix.SingleChoice, Options: []string{"Buying a home", "Retirement savings"}},
		{Text: "Which apply? (multiple answers)", Type: matrix.MultipleChoice, Options: []string{"Married", "Children under 18"}},
	})
	if err != nil {
		t.Fatalf("replace questions: %v", err)
	}
}

func TestStoreUserLifecycle(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			u1, err := s.EnsureUser(42)
			if err != nil {
				t.Fatalf("ensure: %v", err)
			}
			u2, err := s.EnsureUser(42)
			if err != nil {
				t.Fatalf("ensure again: %v", err)
			}
			if u1.ID != u2.ID {
				t.Fatalf("EnsureUser not idempotent: %d vs %d", u1.ID, u2.ID)
			}
			if got, _ := s.GetUserByChatID(99); got != nil {
				t.Fatalf("unknown chat returned user %+v", got)
			}
		})
	}
}

func TestStoreQuestionsAndAnswers(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			seedQuestions(t, s)
			qs, err := s.ListQuestions()
			if err != nil {
				t.Fatalf("list questions: %v", err)
			}
			if len(qs) != 2 || qs[0].Text != "What are your goals?" {
				t.Fatalf("questions = %+v", qs)
			}
			opts, err := s.ListOptions(qs[0].ID)
			if err != nil {
				t.Fatalf("list options: %v", err)
			}
			if len(opts) != 2 || opts[1].Text != "Retirement savings" {
				t.Fatalf("options = %+v", opts)
			}

			u, _ := s.EnsureUser(7)
			if err := s.SaveAnswers(u.ID, qs[0].ID, []int64{opts[0].ID}); err != nil {
				t.Fatalf("save answer: %v", err)
			}
			multiOpts, _ := s.ListOptions(qs[1].ID)
			if err := s.SaveAnswers(u.ID, qs[1].ID, []int64{multiOpts[0].ID, multiOpts[1].ID}); err != nil {
				t.Fatalf("save multi answers: %v", err)
			}

			texts, err := s.ListAnswerTexts(u.ID)
			if err != nil {
				t.Fatalf("list answer texts: %v", err)
			}
			want := []string{"Buying a home", "Married", "Children under 18"}
			if !reflect.DeepEqual(texts, want) {
				t.Fatalf("texts = %v, want %v", texts, want)
			}

			// Option from the wrong question must be rejected.
			if err := s.SaveAnswers(u.ID, qs[0].ID, []int64{multiOpts[0].ID}); err == nil {
				t.Fatalf("cross-question option accepted")
			}

			n, err := s.ClearAnswers(u.ID)
			if err != nil || n != 3 {
				t.Fatalf("clear answers = %d,%v want 3", n, err)
			}
		})
	}
}

func TestStoreReplaceQuestionsWipesOldSet(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			seedQuestions(t, s)
			if err := s.ReplaceQuestions([]SeedQuestion{
				{Text: "Only question?", Type: matrix.SingleChoice, Options: []string{"Yes"}},
			}); err != nil {
				t.Fatalf("replace: %v", err)
			}
			qs, _ := s.ListQuestions()
			if len(qs) != 1 || qs[0].Text != "Only question?" {
				t.Fatalf("questions after replace = %+v", qs)
			}
		})
	}
}

func TestStoreScoreUpsert(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			u, _ := s.EnsureUser(1)
			if err := s.UpsertScore(u.ID, 10); err != nil {
				t.Fatalf("upsert: %v", err)
			}
			if err := s.UpsertScore(u.ID, 25); err != nil {
				t.Fatalf("upsert again: %v", err)
			}
			sc, err := s.GetScore(u.ID)
			if err != nil || sc == nil || sc.Value != 25 {
				t.Fatalf("score = %+v, %v", sc, err)
			}
		})
	}
}

func TestStoreProfileUpsertAndErasure(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			u, _ := s.EnsureUser(5)
			p := &models.Profile{UserID: u.ID, FullName: "enc:name", Email: "enc:mail", City: "Berlin"}
			if err := s.UpsertProfile(p); err != nil {
				t.Fatalf("upsert profile: %v", err)
			}
			p.City = "Hamburg"
			if err := s.UpsertProfile(p); err != nil {
				t.Fatalf("upsert profile again: %v", err)
			}
			got, err := s.GetProfile(u.ID)
			if err != nil || got == nil || got.City != "Hamburg" {
				t.Fatalf("profile = %+v, %v", got, err)
			}

			ok, err := s.DeleteUserData(5, false)
			if err != nil || !ok {
				t.Fatalf("delete user data = %v,%v", ok, err)
			}
			if got, _ := s.GetProfile(u.ID); got != nil {
				t.Fatalf("profile survived erasure: %+v", got)
			}
			if u2, _ := s.GetUserByChatID(5); u2 == nil {
				t.Fatalf("soft erasure removed the user row")
			}
			if ok, _ := s.DeleteUserData(404, false); ok {
				t.Fatalf("erasure of unknown user reported success")
			}
		})
	}
}

func TestStoreReportRowsFilterByRange(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			seedQuestions(t, s)
			u, _ := s.EnsureUser(11)
			qs, _ := s.ListQuestions()
			opts, _ := s.ListOptions(qs[0].ID)
			if err := s.SaveAnswers(u.ID, qs[0].ID, []int64{opts[0].ID}); err != nil {
				t.Fatalf("save: %v", err)
			}
			_ = s.UpsertScore(u.ID, 17)

			from := time.Now().UTC().Add(-time.Hour)
			to := time.Now().UTC().Add(time.Hour)
			rows, err := s.AnswerRows(from, to)
			if err != nil {
				t.Fatalf("answer rows: %v", err)
			}
			if len(rows) != 1 || rows[0].ChatID != 11 || rows[0].Score != 17 {
				t.Fatalf("rows = %+v", rows)
			}
			if n, _ := s.CountAnswers(from, to); n != 1 {
				t.Fatalf("count = %d, want 1", n)
			}
			if n, _ := s.CountAnswers(to, to.Add(time.Hour)); n != 0 {
				t.Fatalf("outside range count = %d, want 0", n)
			}

			profiles, err := s.ProfileRows(from, to)
			if err != nil || len(profiles) != 1 {
				t.Fatalf("profile rows = %+v, %v", profiles, err)
			}
		})
	}
}

func TestStoreCleanTables(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			seedQuestions(t, s)
			if err := s.CleanTables([]string{"nope"}); !errors.Is(err, ErrUnknownTable) {
				t.Fatalf("want ErrUnknownTable, got %v", err)
			}
			if err := s.CleanTables([]string{"options", "questions"}); err != nil {
				t.Fatalf("clean: %v", err)
			}
			if qs, _ := s.ListQuestions(); len(qs) != 0 {
				t.Fatalf("questions not cleaned: %+v", qs)
			}
		})
	}
}

func TestStoreAdminAccounts(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			a := &models.AdminAccount{ID: "a1", Email: "Admin@Example.com", PassHash: []byte("hash")}
			if err := s.AddAdminAccount(a); err != nil {
				t.Fatalf("add admin: %v", err)
			}
			got, err := s.FindAdminByEmail("admin@example.com")
			if err != nil || got == nil || got.ID != "a1" {
				t.Fatalf("find admin = %+v, %v", got, err)
			}
			if got, _ := s.FindAdminByEmail("other@example.com"); got != nil {
				t.Fatalf("unexpected admin %+v", got)
			}
		})
	}
}
