// Package storage persists document metadata and generation results in
// SQLite. Conversation ledgers stay in memory; only terminal results are
// written here.
package storage

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a SQLite database with methods for documents, reports, and
// answers.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database in dataDir and runs pending
// migrations. Pass ":memory:" as dataDir for an in-memory database (used
// by tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "finsight.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate applies any embedded SQL migration files that haven't run yet.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

// --- Documents ---

func (s *Store) SaveDocument(d Document) error {
	_, err := s.db.Exec(`
		INSERT INTO documents (id, company, title, chunk_count, uploaded_at)
		VALUES (?, ?, ?, ?, ?)`,
		d.ID, d.Company, d.Title, d.ChunkCount, d.UploadedAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) GetDocument(id string) (Document, error) {
	var d Document
	var uploadedAt string
	err := s.db.QueryRow(`
		SELECT id, company, title, chunk_count, uploaded_at
		FROM documents WHERE id = ?`, id,
	).Scan(&d.ID, &d.Company, &d.Title, &d.ChunkCount, &uploadedAt)
	if err == sql.ErrNoRows {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, err
	}
	return d, parseTimeInto(&d.UploadedAt, uploadedAt)
}

func (s *Store) ListDocuments(limit int) ([]Document, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT id, company, title, chunk_count, uploaded_at
		FROM documents ORDER BY uploaded_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		var uploadedAt string
		if err := rows.Scan(&d.ID, &d.Company, &d.Title, &d.ChunkCount, &uploadedAt); err != nil {
			return nil, err
		}
		if err := parseTimeInto(&d.UploadedAt, uploadedAt); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// --- Reports ---

func (s *Store) SaveReport(r Report) error {
	_, err := s.db.Exec(`
		INSERT INTO reports (id, document_id, company, mode, strategy_name, fallback, original_mode, fallback_reason, sections_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.DocumentID, r.Company, r.Mode, r.StrategyName,
		boolToInt(r.Fallback), r.OriginalMode, r.FallbackReason, r.SectionsJSON,
		r.CreatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) GetReport(id string) (Report, error) {
	var r Report
	var fallback int
	var createdAt string
	err := s.db.QueryRow(`
		SELECT id, document_id, company, mode, strategy_name, fallback, original_mode, fallback_reason, sections_json, created_at
		FROM reports WHERE id = ?`, id,
	).Scan(&r.ID, &r.DocumentID, &r.Company, &r.Mode, &r.StrategyName, &fallback, &r.OriginalMode, &r.FallbackReason, &r.SectionsJSON, &createdAt)
	if err == sql.ErrNoRows {
		return Report{}, ErrNotFound
	}
	if err != nil {
		return Report{}, err
	}
	r.Fallback = fallback != 0
	return r, parseTimeInto(&r.CreatedAt, createdAt)
}

func (s *Store) ListReports(limit int) ([]Report, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT id, document_id, company, mode, strategy_name, fallback, original_mode, fallback_reason, sections_json, created_at
		FROM reports ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []Report
	for rows.Next() {
		var r Report
		var fallback int
		var createdAt string
		if err := rows.Scan(&r.ID, &r.DocumentID, &r.Company, &r.Mode, &r.StrategyName, &fallback, &r.OriginalMode, &r.FallbackReason, &r.SectionsJSON, &createdAt); err != nil {
			return nil, err
		}
		r.Fallback = fallback != 0
		if err := parseTimeInto(&r.CreatedAt, createdAt); err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// --- Answers ---

func (s *Store) SaveAnswer(a Answer) error {
	_, err := s.db.Exec(`
		INSERT INTO answers (id, document_id, company, mode, question, answer, fallback, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.DocumentID, a.Company, a.Mode, a.Question, a.Answer,
		boolToInt(a.Fallback), a.CreatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) ListAnswers(documentID string, limit int) ([]Answer, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT id, document_id, company, mode, question, answer, fallback, created_at
		FROM answers WHERE document_id = ? ORDER BY created_at DESC LIMIT ?`, documentID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []Answer
	for rows.Next() {
		var a Answer
		var fallback int
		var createdAt string
		if err := rows.Scan(&a.ID, &a.DocumentID, &a.Company, &a.Mode, &a.Question, &a.Answer, &fallback, &createdAt); err != nil {
			return nil, err
		}
		a.Fallback = fallback != 0
		if err := parseTimeInto(&a.CreatedAt, createdAt); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

func parseTimeInto(dst *time.Time, raw string) error {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return fmt.Errorf("parsing timestamp %q: %w", raw, err)
	}
	*dst = t
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
