package sqlite

import (
	"context"
	"database/sql"
	"time"

	"lp-funding-alert/internal/state"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func initSchema(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS journal (
		id TEXT PRIMARY KEY,
		ts INTEGER NOT NULL,
		kind TEXT NOT NULL,
		subject TEXT NOT NULL,
		payload TEXT NOT NULL
	)`); err != nil {
		return err
	}
	_, err := db.Exec(`CREATE INDEX IF NOT EXISTS journal_kind_ts ON journal (kind, ts)`)
	return err
}

func (s *Store) Append(ctx context.Context, entry state.Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Time.IsZero() {
		entry.Time = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO journal (id, ts, kind, subject, payload) VALUES (?, ?, ?, ?, ?)`,
		entry.ID, entry.Time.UnixNano(), entry.Kind, entry.Subject, entry.Payload,
	)
	return err
}

// Recent returns up to limit entries of kind, newest first.
func (s *Store) Recent(ctx context.Context, kind string, limit int) ([]state.Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ts, kind, subject, payload FROM journal WHERE kind = ? ORDER BY ts DESC LIMIT ?`,
		kind, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []state.Entry
	for rows.Next() {
		var entry state.Entry
		var ts int64
		if err := rows.Scan(&entry.ID, &ts, &entry.Kind, &entry.Subject, &entry.Payload); err != nil {
			return nil, err
		}
		entry.Time = time.Unix(0, ts).UTC()
		out = append(out, entry)
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}

var _ state.Journal = (*Store)(nil)
