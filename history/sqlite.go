package unitconvhistory

import (
	"context"
	"database/sql"
	"errors"
	"time"
	"unitconv"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Entry is one recorded conversion.
type Entry struct {
	ID        uuid.UUID
	Category  string
	Value     float64
	FromUnit  string
	ToUnit    string
	Result    unitconv.Decimal
	CreatedAt time.Time
}

// Store keeps a log of conversions in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens or creates the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS conversions (
			id TEXT PRIMARY KEY,
			category TEXT NOT NULL,
			value REAL NOT NULL,
			from_unit TEXT NOT NULL,
			to_unit TEXT NOT NULL,
			result REAL NOT NULL,
			created_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS conversions_created_at ON conversions (created_at);`,
	}
	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// Record stores e, assigning an ID and timestamp when they are zero.
func (s *Store) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversions (id, category, value, from_unit, to_unit, result, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID.String(), e.Category, e.Value, e.FromUnit, e.ToUnit, e.Result, e.CreatedAt.UnixNano())
	if err != nil {
		return Entry{}, err
	}
	return e, nil
}

// List returns up to limit entries, newest first. limit <= 0 lists all.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	q := `SELECT id, category, value, from_unit, to_unit, result, created_at FROM conversions ORDER BY created_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			id      string
			created int64
		)
		if err := rows.Scan(&id, &e.Category, &e.Value, &e.FromUnit, &e.ToUnit, &e.Result, &created); err != nil {
			return nil, err
		}
		if e.ID, err = uuid.Parse(id); err != nil {
			return nil, err
		}
		e.CreatedAt = time.Unix(0, created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Get returns the entry with the given id.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (Entry, error) {
	var (
		e       Entry
		created int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT category, value, from_unit, to_unit, result, created_at FROM conversions WHERE id = ?`, id.String()).
		Scan(&e.Category, &e.Value, &e.FromUnit, &e.ToUnit, &e.Result, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, err
	}
	e.ID = id
	e.CreatedAt = time.Unix(0, created)
	return e, nil
}

// Clear deletes every entry.
func (s *Store) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM conversions`)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

var ErrNotFound = errors.New("unitconvhistory: entry not found")
