// Package counter holds the counter domain model and its durable store.
//
// Counters are the shared non-negative tallies door-staff devices mutate
// concurrently. Every mutation is a single SQL statement so that concurrent
// increments serialize inside SQLite; the Go layer never does its own
// read-modify-write on value.
package counter

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "modernc.org/sqlite"

	"github.com/doorstaff/gatecount/internal/auth"
)

// Counter is one shared tally, owned by an edition.
type Counter struct {
	ID        int64     `json:"id"`
	EditionID int64     `json:"editionId"`
	Name      string    `json:"name"`
	Value     int64     `json:"value"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

const schema = `
CREATE TABLE IF NOT EXISTS counter (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    edition_id INTEGER NOT NULL,
    name TEXT NOT NULL,
    value INTEGER NOT NULL DEFAULT 0 CHECK (value >= 0),
    token TEXT NOT NULL UNIQUE,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_counter_edition_id ON counter(edition_id);
CREATE INDEX IF NOT EXISTS idx_counter_token ON counter(token);
`

const counterCols = "id, edition_id, name, value, token, created_at, updated_at"

// Store is the durable source of truth for counter values.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the SQLite database at path and ensures
// the schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, newError(CodeStoreFailure, "open database", err)
	}
	// One connection: SQLite serializes writers anyway, and a single-conn
	// pool avoids SQLITE_BUSY under concurrent mutations.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, newError(CodeStoreFailure, "create schema", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Create inserts a new counter at value 0 with a fresh token.
func (s *Store) Create(ctx context.Context, editionID int64, name string) (Counter, error) {
	if name == "" {
		return Counter{}, newError(CodeValidation, "name is required", nil)
	}
	token, err := auth.NewCounterToken()
	if err != nil {
		return Counter{}, newError(CodeStoreFailure, "generate token", err)
	}
	now := time.Now().UTC()
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO counter (edition_id, name, value, token, created_at, updated_at)
		VALUES (?, ?, 0, ?, ?, ?)
		RETURNING `+counterCols,
		editionID, name, token, now, now)
	return scanCounter(row)
}

// Get returns one counter scoped to its edition.
func (s *Store) Get(ctx context.Context, editionID, id int64) (Counter, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+counterCols+" FROM counter WHERE id = ? AND edition_id = ?", id, editionID)
	return scanCounter(row)
}

// GetByToken resolves a shared-link token to its counter.
func (s *Store) GetByToken(ctx context.Context, token string) (Counter, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+counterCols+" FROM counter WHERE token = ?", token)
	return scanCounter(row)
}

// List returns all counters of an edition, oldest first.
func (s *Store) List(ctx context.Context, editionID int64) ([]Counter, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+counterCols+" FROM counter WHERE edition_id = ? ORDER BY id", editionID)
	if err != nil {
		return nil, newError(CodeStoreFailure, "list counters", err)
	}
	defer rows.Close()

	counters := []Counter{}
	for rows.Next() {
		var c Counter
		if err := rows.Scan(&c.ID, &c.EditionID, &c.Name, &c.Value, &c.Token, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, newError(CodeStoreFailure, "scan counter", err)
		}
		counters = append(counters, c)
	}
	if err := rows.Err(); err != nil {
		return nil, newError(CodeStoreFailure, "list counters", err)
	}
	return counters, nil
}

// Increment adds step atomically and returns the committed row. The
// returned row is the only legal broadcast payload for this mutation.
func (s *Store) Increment(ctx context.Context, editionID, id, step int64) (Counter, error) {
	if step <= 0 {
		return Counter{}, newError(CodeValidation, "step must be positive", nil)
	}
	row := s.db.QueryRowContext(ctx, `
		UPDATE counter SET value = value + ?, updated_at = ?
		WHERE id = ? AND edition_id = ?
		RETURNING `+counterCols,
		step, time.Now().UTC(), id, editionID)
	return scanCounter(row)
}

// Decrement subtracts step atomically, clamping at zero inside the
// statement so the value invariant can never be violated.
func (s *Store) Decrement(ctx context.Context, editionID, id, step int64) (Counter, error) {
	if step <= 0 {
		return Counter{}, newError(CodeValidation, "step must be positive", nil)
	}
	row := s.db.QueryRowContext(ctx, `
		UPDATE counter SET value = MAX(0, value - ?), updated_at = ?
		WHERE id = ? AND edition_id = ?
		RETURNING `+counterCols,
		step, time.Now().UTC(), id, editionID)
	return scanCounter(row)
}

// Reset sets the value to exactly zero.
func (s *Store) Reset(ctx context.Context, editionID, id int64) (Counter, error) {
	return s.SetValue(ctx, editionID, id, 0)
}

// SetValue writes an absolute value. Negative values are rejected.
func (s *Store) SetValue(ctx context.Context, editionID, id, value int64) (Counter, error) {
	if value < 0 {
		return Counter{}, newError(CodeValidation, "value must be non-negative", nil)
	}
	row := s.db.QueryRowContext(ctx, `
		UPDATE counter SET value = ?, updated_at = ?
		WHERE id = ? AND edition_id = ?
		RETURNING `+counterCols,
		value, time.Now().UTC(), id, editionID)
	return scanCounter(row)
}

// RegenerateToken replaces the counter's shareable token, invalidating the
// old one. Not a value change: callers must not broadcast it.
func (s *Store) RegenerateToken(ctx context.Context, editionID, id int64) (Counter, error) {
	token, err := auth.NewCounterToken()
	if err != nil {
		return Counter{}, newError(CodeStoreFailure, "generate token", err)
	}
	row := s.db.QueryRowContext(ctx, `
		UPDATE counter SET token = ?, updated_at = ?
		WHERE id = ? AND edition_id = ?
		RETURNING `+counterCols,
		token, time.Now().UTC(), id, editionID)
	return scanCounter(row)
}

// Delete removes a counter. The caller is responsible for evicting the
// counter's live channels from the registry afterwards.
func (s *Store) Delete(ctx context.Context, editionID, id int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM counter WHERE id = ? AND edition_id = ?", id, editionID)
	if err != nil {
		return newError(CodeStoreFailure, "delete counter", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return newError(CodeStoreFailure, "delete counter", err)
	}
	if n == 0 {
		return newError(CodeNotFound, "counter not found", nil)
	}
	return nil
}

func scanCounter(row *sql.Row) (Counter, error) {
	var c Counter
	err := row.Scan(&c.ID, &c.EditionID, &c.Name, &c.Value, &c.Token, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Counter{}, newError(CodeNotFound, "counter not found", nil)
	}
	if err != nil {
		return Counter{}, newError(CodeStoreFailure, "scan counter", err)
	}
	return c, nil
}
