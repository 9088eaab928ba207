package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/astrali/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		name TEXT,
		source_id TEXT,
		tickers TEXT,
		period_months INTEGER,
		state TEXT NOT NULL,
		error TEXT,
		pages INTEGER,
		chunks INTEGER,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_created_at ON sessions(created_at);
	CREATE INDEX IF NOT EXISTS idx_sessions_source_id ON sessions(source_id);

	CREATE TABLE IF NOT EXISTS history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		question TEXT NOT NULL,
		response TEXT NOT NULL,
		context TEXT NOT NULL DEFAULT '',
		sources TEXT,
		tickers TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_history_session_id ON history(session_id, id);
	`
	if _, err := db.Exec(schema); err != nil {
		return err
	}
	// Databases created before history kept the answer context.
	return addColumnIfMissing(db, "history", "context", "TEXT NOT NULL DEFAULT ''")
}

func addColumnIfMissing(db *sql.DB, table, column, decl string) error {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return err
		}
		if name == column {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	_, err = db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, decl))
	return err
}

// SaveSession inserts or replaces a session. CreatedAt is kept from the first save.
func (s *SQLiteStorage) SaveSession(ctx context.Context, sess *models.Session) error {
	tickersJSON, err := json.Marshal(sess.Tickers)
	if err != nil {
		return fmt.Errorf("failed to marshal tickers: %w", err)
	}

	now := time.Now()
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = now
	}
	sess.UpdatedAt = now

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, kind, name, source_id, tickers, period_months, state, error, pages, chunks, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, source_id = excluded.source_id, tickers = excluded.tickers,
			period_months = excluded.period_months, state = excluded.state, error = excluded.error,
			pages = excluded.pages, chunks = excluded.chunks, updated_at = excluded.updated_at`,
		sess.ID, string(sess.Kind), sess.Name, sess.SourceID, string(tickersJSON), sess.PeriodMonths,
		sess.State, sess.Error, sess.Pages, sess.Chunks, sess.CreatedAt, sess.UpdatedAt,
	)
	return err
}

const sessionColumns = `id, kind, name, source_id, tickers, period_months, state, error, pages, chunks, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*models.Session, error) {
	var sess models.Session
	var kind, tickersJSON string
	if err := row.Scan(&sess.ID, &kind, &sess.Name, &sess.SourceID, &tickersJSON, &sess.PeriodMonths,
		&sess.State, &sess.Error, &sess.Pages, &sess.Chunks, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
		return nil, err
	}
	sess.Kind = models.SessionKind(kind)
	if tickersJSON != "" && tickersJSON != "null" {
		if err := json.Unmarshal([]byte(tickersJSON), &sess.Tickers); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tickers: %w", err)
		}
	}
	return &sess, nil
}

// GetSession returns a session by ID.
func (s *SQLiteStorage) GetSession(ctx context.Context, id string) (*models.Session, error) {
	sess, err := scanSession(s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// ListSessions returns sessions newest first with offset and limit.
func (s *SQLiteStorage) ListSessions(ctx context.Context, offset, limit int) ([]*models.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions ORDER BY created_at DESC, id LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

// DeleteSession removes a session and its history.
func (s *SQLiteStorage) DeleteSession(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return nil
}

// AppendHistory records one answer. The session must exist.
func (s *SQLiteStorage) AppendHistory(ctx context.Context, e *models.HistoryEntry) error {
	sourcesJSON, err := json.Marshal(e.Sources)
	if err != nil {
		return fmt.Errorf("failed to marshal sources: %w", err)
	}
	tickersJSON, err := json.Marshal(e.Tickers)
	if err != nil {
		return fmt.Errorf("failed to marshal tickers: %w", err)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO history (session_id, question, response, context, sources, tickers, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.SessionID, e.Question, e.Response, e.Context, string(sourcesJSON), string(tickersJSON), e.CreatedAt,
	)
	if err != nil {
		return err
	}
	e.ID, _ = result.LastInsertId()
	return nil
}

// ListHistory returns a session's entries oldest first.
func (s *SQLiteStorage) ListHistory(ctx context.Context, sessionID string) ([]*models.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, question, response, context, sources, tickers, created_at
		 FROM history WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.HistoryEntry
	for rows.Next() {
		var e models.HistoryEntry
		var sourcesJSON, tickersJSON string
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Question, &e.Response, &e.Context, &sourcesJSON, &tickersJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		if sourcesJSON != "" {
			_ = json.Unmarshal([]byte(sourcesJSON), &e.Sources)
		}
		if tickersJSON != "" {
			_ = json.Unmarshal([]byte(tickersJSON), &e.Tickers)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

// CountSessions returns the total number of sessions.
func (s *SQLiteStorage) CountSessions(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&count)
	return count, err
}

// CountHistory returns the total number of history entries.
func (s *SQLiteStorage) CountHistory(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM history`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
