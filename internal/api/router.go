package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"quizflow/internal/middleware"
	"quizflow/internal/services"
	"quizflow/internal/store"
	"quizflow/internal/utils"
)

// Router wires the HTTP surface: the public survey flow and the
// token-protected admin endpoints (uploads, reports, cleanup, erasure).
type Router struct {
	questions *services.QuestionService
	survey    *services.SurveyService
	scoring   *services.ScoringService
	profiles  *services.ProfileService
	reports   *services.ReportService
	auth      *services.AuthService
	uploadDir string
	version   string
}

func NewRouter(st store.Store, cipher *services.FieldCipher, uploadDir, version string) *Router {
	return &Router{
		questions: services.NewQuestionService(st),
		survey:    services.NewSurveyService(st),
		scoring:   services.NewScoringService(st),
		profiles:  services.NewProfileService(st, cipher),
		reports:   services.NewReportService(st, cipher),
		auth:      services.NewAuthService(st, middleware.SignToken),
		uploadDir: uploadDir,
		version:   version,
	}
}

// Scoring exposes the scoring service so startup code can preload the
// matrix and template from configured paths.
func (rt *Router) Scoring() *services.ScoringService { return rt.scoring }

func (rt *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/health", rt.handleHealth)               // GET
	mux.HandleFunc("/api/version", rt.handleVersion)             // GET
	mux.HandleFunc("/api/questions", rt.handleQuestions)         // GET
	mux.HandleFunc("/api/survey/start", rt.handleSurveyStart)    // POST
	mux.HandleFunc("/api/survey/answer", rt.handleSurveyAnswer)  // POST
	mux.HandleFunc("/api/survey/finish", rt.handleSurveyFinish)  // POST
	mux.HandleFunc("/api/profile", rt.handleProfile)             // POST
	mux.HandleFunc("/api/admin/register", rt.handleAdminRegister) // POST
	mux.HandleFunc("/api/admin/login", rt.handleAdminLogin)       // POST
	mux.HandleFunc("/api/admin/upload/matrix", rt.admin(rt.handleUploadMatrix))     // POST multipart
	mux.HandleFunc("/api/admin/upload/template", rt.admin(rt.handleUploadTemplate)) // POST multipart
	mux.HandleFunc("/api/admin/reports/answers", rt.admin(rt.handleAnswersReport))  // GET
	mux.HandleFunc("/api/admin/reports/profiles", rt.admin(rt.handleProfilesReport)) // GET
	mux.HandleFunc("/api/admin/answers/count", rt.admin(rt.handleAnswersCount))     // GET
	mux.HandleFunc("/api/admin/cleanup", rt.admin(rt.handleCleanup))                // POST
	mux.HandleFunc("/api/admin/erase", rt.admin(rt.handleErase))                    // POST
	mux.HandleFunc("/api/admin/profile", rt.admin(rt.handleAdminProfile))           // GET
}

func (rt *Router) admin(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.AdminIDFromContext(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		h(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, err error) {
	if se, ok := services.AsServiceError(err); ok {
		status := http.StatusInternalServerError
		switch se.Code {
		case services.ErrorInvalid:
			status = http.StatusBadRequest
		case services.ErrorNotFound:
			status = http.StatusNotFound
		case services.ErrorConflict:
			status = http.StatusConflict
		case services.ErrorForbidden:
			status = http.StatusForbidden
		case services.ErrorUnauthorized:
			status = http.StatusUnauthorized
		}
		writeJSON(w, status, map[string]string{"error": se.Message})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

// GET /api/health
func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	locale := middleware.LocaleFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"status": utils.T(locale, "health.ok")})
}

// GET /api/version
func (rt *Router) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": rt.version})
}

// GET /api/questions
func (rt *Router) handleQuestions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	views, err := rt.questions.List()
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"questions": views})
}

// POST /api/survey/start {chat_id}
func (rt *Router) handleSurveyStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		ChatID int64 `json:"chat_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.ChatID == 0 {
		writeErr(w, services.NewInvalidError("chat_id required"))
		return
	}
	step, err := rt.survey.Start(req.ChatID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, step)
}

// POST /api/survey/answer {chat_id, question_id, option_ids}
func (rt *Router) handleSurveyAnswer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		ChatID     int64   `json:"chat_id"`
		QuestionID int64   `json:"question_id"`
		OptionIDs  []int64 `json:"option_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	step, err := rt.survey.Answer(req.ChatID, req.QuestionID, req.OptionIDs)
	if err != nil {
		writeErr(w, err)
		return
	}
	if step.Done {
		locale := middleware.LocaleFromContext(r.Context())
		writeJSON(w, http.StatusOK, map[string]any{
			"done":    true,
			"message": utils.T(locale, "survey.completed"),
		})
		return
	}
	writeJSON(w, http.StatusOK, step)
}

// POST /api/survey/finish {chat_id}
func (rt *Router) handleSurveyFinish(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		ChatID int64 `json:"chat_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := rt.scoring.Finalize(req.ChatID)
	if err != nil {
		writeErr(w, err)
		return
	}
	result := res.Band
	if !res.Matched {
		locale := middleware.LocaleFromContext(r.Context())
		result = utils.T(locale, "result.no_band")
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"score":   res.Rounded,
		"matched": res.Matched,
		"result":  result,
	})
}

// POST /api/profile {chat_id, full_name, email, phone_number, city, residence_status, consent}
func (rt *Router) handleProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		ChatID int64 `json:"chat_id"`
		services.ProfileInput
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := rt.profiles.Save(req.ChatID, req.ProfileInput); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// POST /api/admin/register {email, password}
func (rt *Router) handleAdminRegister(w http.ResponseWriter, r *http.Request) {
	rt.handleAdminCred(w, r, rt.auth.Register)
}

// POST /api/admin/login {email, password}
func (rt *Router) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	rt.handleAdminCred(w, r, rt.auth.Login)
}

func (rt *Router) handleAdminCred(w http.ResponseWriter, r *http.Request, fn func(email, password string) (*services.AuthResult, error)) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := fn(req.Email, req.Password)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": res.Token, "admin_id": res.AdminID})
}

// saveUpload copies the multipart "file" part into the upload directory and
// returns its path.
func (rt *Router) saveUpload(r *http.Request, name string) (string, error) {
	if err := r.ParseMultipartForm(16 << 20); err != nil {
		return "", services.NewInvalidError("multipart form required")
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		return "", services.NewInvalidError("file field required")
	}
	defer file.Close()
	if err := os.MkdirAll(rt.uploadDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(rt.uploadDir, name)
	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer dst.Close()
	if _, err := io.Copy(dst, file); err != nil {
		return "", err
	}
	return path, nil
}

// POST /api/admin/upload/matrix
func (rt *Router) handleUploadMatrix(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	path, err := rt.saveUpload(r, "matrix.xlsx")
	if err != nil {
		writeErr(w, err)
		return
	}
	n, err := rt.questions.ImportMatrix(path)
	if err != nil {
		writeErr(w, err)
		return
	}
	if err := rt.scoring.LoadMatrix(path); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "questions": n})
}

// POST /api/admin/upload/template
func (rt *Router) handleUploadTemplate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	path, err := rt.saveUpload(r, "template.xlsx")
	if err != nil {
		writeErr(w, err)
		return
	}
	if err := rt.scoring.LoadTemplate(path); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// parseWindow reads optional from/to query params in RFC3339 or date-only
// form. A missing from means the zero time; a missing to means now.
func parseWindow(r *http.Request) (time.Time, time.Time, error) {
	parse := func(s string) (time.Time, error) {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t, nil
		}
		return time.Parse("2006-01-02", s)
	}
	var from, to time.Time
	if s := r.URL.Query().Get("from"); s != "" {
		t, err := parse(s)
		if err != nil {
			return from, to, services.NewInvalidError("invalid from date")
		}
		from = t
	}
	if s := r.URL.Query().Get("to"); s != "" {
		t, err := parse(s)
		if err != nil {
			return from, to, services.NewInvalidError("invalid to date")
		}
		to = t
	}
	return from, to, nil
}

func (rt *Router) serveReport(w http.ResponseWriter, r *http.Request, fn func(from, to time.Time, format string) (*services.ReportResult, error)) {
	from, to, err := parseWindow(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	res, err := fn(from, to, r.URL.Query().Get("format"))
	if err != nil {
		writeErr(w, err)
		return
	}
	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+res.Filename)
	_, _ = w.Write(res.Data)
}

// GET /api/admin/reports/answers?from=&to=&format=xlsx|csv
func (rt *Router) handleAnswersReport(w http.ResponseWriter, r *http.Request) {
	rt.serveReport(w, r, rt.reports.AnswersReport)
}

// GET /api/admin/reports/profiles?from=&to=&format=xlsx|csv
func (rt *Router) handleProfilesReport(w http.ResponseWriter, r *http.Request) {
	rt.serveReport(w, r, rt.reports.ProfilesReport)
}

// GET /api/admin/answers/count?from=&to=
func (rt *Router) handleAnswersCount(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseWindow(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	n, err := rt.reports.CountAnswers(from, to)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": n})
}

// POST /api/admin/cleanup {tables: [...]}
func (rt *Router) handleCleanup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Tables []string `json:"tables"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := rt.questions.Cleanup(req.Tables); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// POST /api/admin/erase {chat_id, hard}
func (rt *Router) handleErase(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		ChatID int64 `json:"chat_id"`
		Hard   bool  `json:"hard"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := rt.profiles.Erase(req.ChatID, req.Hard); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// GET /api/admin/profile?chat_id=
func (rt *Router) handleAdminProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	chatID, err := parseChatID(r)
	if err != nil {
		writeErr(w, services.NewInvalidError(err.Error()))
		return
	}
	view, err := rt.profiles.Get(chatID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func parseChatID(r *http.Request) (int64, error) {
	s := strings.TrimSpace(r.URL.Query().Get("chat_id"))
	if s == "" {
		return 0, errors.New("chat_id required")
	}
	return strconv.ParseInt(s, 10, 64)
}
