package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Scope separates the two persistence areas the platform exposes: a
// device-local store and a cross-device synced store.
type Scope string

const (
	ScopeLocal  Scope = "local"
	ScopeSynced Scope = "synced"
)

// Entry is one stored key-value pair, as returned by List.
type Entry struct {
	Key   string
	Value string
}

// Repository is the durable key-value store backing read markers and
// local preferences.
type Repository struct {
	db *sql.DB
}

func NewRepository(path string) (*Repository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *Repository) Init(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS kv (
  scope TEXT NOT NULL,
  key TEXT NOT NULL,
  value TEXT NOT NULL,
  updated_at TEXT NOT NULL,
  PRIMARY KEY (scope, key)
);
`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (r *Repository) CheckWritable(ctx context.Context) error {
	if err := r.Set(ctx, ScopeLocal, "write-check", "ok"); err != nil {
		return err
	}
	if err := r.Delete(ctx, ScopeLocal, "write-check"); err != nil {
		return err
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, scope Scope, key string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `
SELECT value FROM kv WHERE scope = ? AND key = ?
`, string(scope), key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query key %q: %w", key, err)
	}
	return value, true, nil
}

func (r *Repository) Set(ctx context.Context, scope Scope, key, value string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := r.db.ExecContext(ctx, `
INSERT INTO kv (scope, key, value, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(scope, key) DO UPDATE SET
  value=excluded.value,
  updated_at=excluded.updated_at
`, string(scope), key, value, now)
	if err != nil {
		return fmt.Errorf("save key %q: %w", key, err)
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, scope Scope, key string) error {
	_, err := r.db.ExecContext(ctx, `
DELETE FROM kv WHERE scope = ? AND key = ?
`, string(scope), key)
	if err != nil {
		return fmt.Errorf("delete key %q: %w", key, err)
	}
	return nil
}

// List returns all entries in a scope whose key starts with prefix, key-sorted.
func (r *Repository) List(ctx context.Context, scope Scope, prefix string) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT key, value FROM kv
WHERE scope = ? AND key LIKE ? ESCAPE '\'
ORDER BY key
`, string(scope), escapeLike(prefix)+"%")
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Key, &e.Value); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return entries, nil
}

// Clear removes every entry in one scope.
func (r *Repository) Clear(ctx context.Context, scope Scope) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM kv WHERE scope = ?`, string(scope))
	if err != nil {
		return fmt.Errorf("clear scope %q: %w", scope, err)
	}
	return nil
}

// ClearAll clears both scopes, mirroring the settings surface's
// clear-everything action.
func (r *Repository) ClearAll(ctx context.Context) error {
	if err := r.Clear(ctx, ScopeLocal); err != nil {
		return err
	}
	return r.Clear(ctx, ScopeSynced)
}

// Scoped narrows the repository to one scope, satisfying consumers that
// take a flat key-value interface.
func (r *Repository) Scoped(scope Scope) *ScopedKV {
	return &ScopedKV{repo: r, scope: scope}
}

type ScopedKV struct {
	repo  *Repository
	scope Scope
}

func (s *ScopedKV) Get(ctx context.Context, key string) (string, bool, error) {
	return s.repo.Get(ctx, s.scope, key)
}

func (s *ScopedKV) Set(ctx context.Context, key, value string) error {
	return s.repo.Set(ctx, s.scope, key, value)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
