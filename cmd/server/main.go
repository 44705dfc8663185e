package main

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"

	"quizflow/internal/api"
	"quizflow/internal/middleware"
	"quizflow/internal/services"
	"quizflow/internal/store"
	"quizflow/internal/utils"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("load .env: %v", err)
	}

	addr := utils.SafeEnv("QUIZFLOW_ADDR", ":8080")
	version := utils.SafeEnv("QUIZFLOW_VERSION", "dev")
	uploadDir := utils.SafeEnv("QUIZFLOW_UPLOAD_DIR", "data/uploads")
	secret := utils.SafeEnv("QUIZFLOW_FIELD_SECRET", "")
	if secret == "" {
		log.Fatal("QUIZFLOW_FIELD_SECRET is required")
	}

	st, err := openStore()
	if err != nil {
		log.Fatalf("init store: %v", err)
	}

	cipher, err := services.NewFieldCipher(secret)
	if err != nil {
		log.Fatalf("init field cipher: %v", err)
	}

	mux := http.NewServeMux()
	router := api.NewRouter(st, cipher, uploadDir, version)
	router.Register(mux)

	// Preload matrix and template so scoring works from the first request
	// when the workbooks ship with the deployment.
	if p := utils.SafeEnv("QUIZFLOW_MATRIX_PATH", ""); p != "" {
		if err := router.Scoring().LoadMatrix(p); err != nil {
			log.Fatalf("load matrix %s: %v", p, err)
		}
	}
	if p := utils.SafeEnv("QUIZFLOW_TEMPLATE_PATH", ""); p != "" {
		if err := router.Scoring().LoadTemplate(p); err != nil {
			log.Fatalf("load template %s: %v", p, err)
		}
	}

	handler := middleware.SecureHeaders(
		middleware.CORS(
			middleware.NoStore(
				middleware.LocaleMiddleware(
					middleware.WithAuth(mux)))))

	log.Printf("quizflow server listening on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// openStore returns the SQLite-backed store when QUIZFLOW_SQLITE_PATH is
// set, otherwise an in-memory store for local runs.
func openStore() (store.Store, error) {
	path := utils.SafeEnv("QUIZFLOW_SQLITE_PATH", "")
	if path == "" {
		log.Printf("QUIZFLOW_SQLITE_PATH not set, using in-memory store")
		return store.NewMemoryStore(), nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?cache=shared&_busy_timeout=5000", filepath.ToSlash(path))
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := store.RunMigrations(db, utils.SafeEnv("QUIZFLOW_MIGRATIONS_DIR", "")); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store.NewSQLiteStore(db)
}
