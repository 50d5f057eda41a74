package sessionstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"typequiz/internal/responses"
	"typequiz/internal/session"
)

// ErrNotFound is returned when no session has the requested id.
var ErrNotFound = errors.New("session not found")

// KeyLastSession holds the id of the most recently started session.
const KeyLastSession = "last_session"

// timeLayout is fixed-width so updated_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store persists in-progress sessions in SQLite.
type Store struct {
	DBPath string
	db     *sql.DB
}

// Summary is a listing row.
type Summary struct {
	ID          string
	Name        string
	CurrentPage int
	Finished    bool
	UpdatedAt   time.Time
}

// Open opens or creates the session database.
func Open(path string) (*Store, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve session db path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return nil, fmt.Errorf("ensure session db dir: %w", err)
	}

	db, err := sql.Open("sqlite", absPath)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}

	store := &Store{
		DBPath: absPath,
		db:     db,
	}
	if err := store.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) ensureSchema() error {
	schema := `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	gender TEXT NOT NULL DEFAULT '',
	page_size INTEGER NOT NULL,
	current_page INTEGER NOT NULL,
	finished INTEGER NOT NULL DEFAULT 0,
	answers_json TEXT NOT NULL,
	catalog_fingerprint TEXT NOT NULL,
	catalog_yaml TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at);

CREATE TABLE IF NOT EXISTS session_kv (
	key TEXT PRIMARY KEY,
	value TEXT
);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create session schema: %w", err)
	}
	return nil
}

// Save writes snap, replacing any previous state for the same id.
// Concurrent writers to one session resolve as last write wins.
func (s *Store) Save(snap session.Snapshot) error {
	answersJSON, err := json.Marshal(snap.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	finished := 0
	if snap.Finished {
		finished = 1
	}

	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO sessions (
			id, name, gender, page_size, current_page, finished,
			answers_json, catalog_fingerprint, catalog_yaml, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		snap.ID, snap.Name, snap.Gender, snap.PageSize, snap.CurrentPage, finished,
		string(answersJSON), snap.CatalogFingerprint, snap.CatalogYAML,
		formatTime(snap.CreatedAt), formatTime(snap.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("save session %s: %w", snap.ID, err)
	}
	return nil
}

// Load returns the stored snapshot for id.
func (s *Store) Load(id string) (session.Snapshot, error) {
	var snap session.Snapshot
	var finished int
	var answersJSON, createdAt, updatedAt string

	err := s.db.QueryRow(`
		SELECT id, name, gender, page_size, current_page, finished,
		       answers_json, catalog_fingerprint, catalog_yaml, created_at, updated_at
		FROM sessions
		WHERE id = ?
	`, id).Scan(
		&snap.ID, &snap.Name, &snap.Gender, &snap.PageSize, &snap.CurrentPage, &finished,
		&answersJSON, &snap.CatalogFingerprint, &snap.CatalogYAML, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return session.Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return session.Snapshot{}, fmt.Errorf("load session: %w", err)
	}

	snap.Finished = finished != 0
	snap.Answers = decodeAnswers(answersJSON)
	snap.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	snap.UpdatedAt, _ = time.Parse(timeLayout, updatedAt)
	return snap, nil
}

// decodeAnswers accepts any JSON object. Values that are not integers in range
// decode as neutral; non-numeric keys are dropped.
func decodeAnswers(raw string) map[int]int {
	var values map[string]any
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return map[int]int{}
	}
	out := make(map[int]int, len(values))
	for key, v := range values {
		id, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		switch typed := v.(type) {
		case float64:
			if typed != float64(int(typed)) {
				out[id] = responses.Neutral
				continue
			}
			out[id] = responses.Normalize(int(typed))
		case string:
			out[id] = responses.NormalizeString(typed)
		default:
			out[id] = responses.Neutral
		}
	}
	return out
}

// Delete removes a session. Deleting an unknown id is not an error.
func (s *Store) Delete(id string) error {
	if _, err := s.db.Exec("DELETE FROM sessions WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// List returns up to limit sessions, most recently updated first.
func (s *Store) List(limit int) ([]Summary, error) {
	rows, err := s.db.Query(`
		SELECT id, name, current_page, finished, updated_at
		FROM sessions
		ORDER BY updated_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		var finished int
		var updatedAt string
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.CurrentPage, &finished, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sum.Finished = finished != 0
		sum.UpdatedAt, _ = time.Parse(timeLayout, updatedAt)
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return out, nil
}

// GetKV retrieves a value from the key-value table.
func (s *Store) GetKV(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM session_kv WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get kv: %w", err)
	}
	return value, nil
}

// SetKV sets a value in the key-value table.
func (s *Store) SetKV(key, value string) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO session_kv (key, value)
		VALUES (?, ?)
	`, key, value)
	if err != nil {
		return fmt.Errorf("set kv: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(timeLayout)
}
