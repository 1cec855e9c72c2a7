// Package store persists extraction results and the per-user ID cache in
// an embedded SQLite database. Caching extracted IDs avoids re-running
// OCR and vision calls for users the portal has already seen.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"docportal/internal/common"
	"docportal/internal/extract"
)

// Store wraps the embedded database.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// storeErr tags a database failure with the store sentinel so the
// boundary layer can classify it without knowing the driver.
func storeErr(code, message string, err error) error {
	return common.NewAppError(code, message, fmt.Errorf("%w: %w", common.ErrStore, err))
}

// Open opens or creates the database at dbPath and initializes the
// schema. Parent directories are created if they do not exist.
func Open(dbPath string, logger *slog.Logger) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, common.WrapError(err, "create database directory")
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, common.WrapError(err, "open database")
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, common.WrapError(err, "enable WAL")
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, common.WrapError(err, "initialize schema")
	}
	return &Store{db: db, logger: logger}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS user_cache (
		user_id TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS results (
		id TEXT PRIMARY KEY,
		filename TEXT NOT NULL,
		method TEXT NOT NULL,
		confidence INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		payload TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_results_created_at ON results(created_at);
	CREATE INDEX IF NOT EXISTS idx_results_filename ON results(filename);
	`
	_, err := db.Exec(schema)
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveUserRecord caches the extracted ID record for a user, replacing
// any previous entry.
func (s *Store) SaveUserRecord(ctx context.Context, userID string, rec extract.IDRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal ID record: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO user_cache (user_id, payload, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		userID, string(payload), time.Now().UTC(),
	)
	if err != nil {
		return storeErr("STORE_WRITE", "save user record", err)
	}
	s.logger.Debug("user cache updated", slog.String("user_id", userID))
	return nil
}

// GetUserRecord returns the cached ID record for a user, or
// common.ErrNotFound when the user has never been seen.
func (s *Store) GetUserRecord(ctx context.Context, userID string) (*extract.IDRecord, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM user_cache WHERE user_id = ?`, userID,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", userID, common.ErrNotFound)
	}
	if err != nil {
		return nil, storeErr("STORE_READ", "load user record", err)
	}

	var rec extract.IDRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return nil, fmt.Errorf("decode cached record: %w", err)
	}
	return &rec, nil
}

// DeleteUserRecord removes a user's cached record. Deleting an unknown
// user is not an error.
func (s *Store) DeleteUserRecord(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM user_cache WHERE user_id = ?`, userID)
	if err != nil {
		return storeErr("STORE_WRITE", "delete user record", err)
	}
	return nil
}

// ResultEntry is one logged extraction outcome.
type ResultEntry struct {
	ID         string          `json:"id"`
	Filename   string          `json:"filename"`
	Method     string          `json:"method"`
	Confidence int             `json:"confidence"`
	Duration   time.Duration   `json:"duration"`
	Payload    json.RawMessage `json:"payload"`
	CreatedAt  time.Time       `json:"created_at"`
}

// LogResult appends one extraction outcome to the result log. A zero ID
// gets a fresh UUID; CreatedAt is always stamped here.
func (s *Store) LogResult(ctx context.Context, entry ResultEntry) (string, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.CreatedAt = time.Now().UTC()
	if entry.Payload == nil {
		entry.Payload = json.RawMessage("{}")
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO results (id, filename, method, confidence, duration_ms, payload, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Filename, entry.Method, entry.Confidence,
		entry.Duration.Milliseconds(), string(entry.Payload), entry.CreatedAt,
	)
	if err != nil {
		return "", storeErr("STORE_WRITE", "log result", err)
	}
	return entry.ID, nil
}

// ListResults returns the most recent results, newest first.
func (s *Store) ListResults(ctx context.Context, limit, offset int) ([]ResultEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, filename, method, confidence, duration_ms, payload, created_at
		 FROM results ORDER BY created_at DESC, id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, storeErr("STORE_READ", "list results", err)
	}
	defer rows.Close()

	var out []ResultEntry
	for rows.Next() {
		var e ResultEntry
		var payload string
		var durationMS int64
		if err := rows.Scan(&e.ID, &e.Filename, &e.Method, &e.Confidence, &durationMS, &payload, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Duration = time.Duration(durationMS) * time.Millisecond
		e.Payload = json.RawMessage(payload)
		out = append(out, e)
	}
	return out, rows.Err()
}
