package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"
	"github.com/tartampluch/go-eventtracker/internal/config"
	"github.com/tartampluch/go-eventtracker/internal/engine"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT    NOT NULL,
	date       TEXT    NOT NULL,
	type       TEXT    NOT NULL,
	year_known INTEGER NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_events_name_date ON events(name, date);
`

// SQLite stores events in a single SQLite table.
// Dates are ISO text and categories are stored by name.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (and creates if needed) the database at path.
// Use config.MemoryDSN for a throwaway database.
func NewSQLite(path string) (*SQLite, error) {
	dsn := path + config.SQLiteDSNOpts
	db, err := sql.Open(config.SQLiteDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrStoreOpen, err)
	}
	if path == config.MemoryDSN {
		// Each connection would get its own private in-memory database.
		db.SetMaxOpenConns(1)
	}

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", config.ErrStoreMigrate, err)
	}

	slog.Debug(config.MsgStoreOpened,
		config.LogKeyComponent, config.CompStore,
		config.LogKeyPath, path)
	return s, nil
}

func (s *SQLite) migrate() error {
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) List(ctx context.Context) ([]engine.Event, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, date, type, year_known FROM events ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrStoreQuery, err)
	}
	defer func() { _ = rows.Close() }()

	var events []engine.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrStoreQuery, err)
	}
	return events, nil
}

func (s *SQLite) Get(ctx context.Context, id int64) (engine.Event, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name, date, type, year_known FROM events WHERE id = ?`, id)
	ev, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return engine.Event{}, ErrNotFound
	}
	return ev, err
}

func (s *SQLite) Insert(ctx context.Context, ev engine.Event) (engine.Event, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO events (name, date, type, year_known) VALUES (?, ?, ?, ?)`,
		ev.Name, ev.Date.String(), string(ev.Category), ev.YearKnown)
	if err != nil {
		return engine.Event{}, fmt.Errorf("%s: %w", config.ErrStoreQuery, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return engine.Event{}, fmt.Errorf("%s: %w", config.ErrStoreQuery, err)
	}
	ev.ID = id
	return ev, nil
}

func (s *SQLite) Update(ctx context.Context, ev engine.Event) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE events SET name = ?, date = ?, type = ?, year_known = ? WHERE id = ?`,
		ev.Name, ev.Date.String(), string(ev.Category), ev.YearKnown, ev.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrStoreQuery, err)
	}
	return expectOneRow(res)
}

func (s *SQLite) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrStoreQuery, err)
	}
	return expectOneRow(res)
}

func (s *SQLite) DeleteAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM events`); err != nil {
		return fmt.Errorf("%s: %w", config.ErrStoreQuery, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(sc scanner) (engine.Event, error) {
	var (
		ev       engine.Event
		date     string
		category string
	)
	if err := sc.Scan(&ev.ID, &ev.Name, &date, &category, &ev.YearKnown); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return engine.Event{}, err
		}
		return engine.Event{}, fmt.Errorf("%s: %w", config.ErrStoreQuery, err)
	}

	d, err := engine.ParseDate(date)
	if err != nil {
		return engine.Event{}, fmt.Errorf("%s: %w", config.ErrStoreQuery, err)
	}
	ev.Date = d
	ev.Category, _ = engine.ParseCategory(category)
	return ev, nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrStoreQuery, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
