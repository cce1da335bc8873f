// Package catalogue implements the backup.Repository contract (C5) over
// SQLite: write-ahead logging plus a busy-wait timeout for concurrent
// access, and a dedicated *sql.Conn per worker identity so each worker's
// statements never contend with another's connection.
package catalogue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"snapkeep/internal/backup"
	"snapkeep/internal/catalogue/migrations"
)

const busyTimeoutMs = 5000

// SQLiteRepository is the SQLite-backed backup.Repository. It also exposes
// the supplemented run-history table, which sits outside the core
// contract and is used only by the app layer.
type SQLiteRepository struct {
	db *sql.DB

	mu      sync.Mutex
	workers map[int]*sql.Conn
}

// Open opens (creating if absent) the SQLite catalogue at path. path may
// be ":memory:" for an in-memory catalogue, as testutil does. A bare
// ":memory:" DSN gives each connection its own private database, which
// breaks ForWorker's dedicated connections against ListAll/MarkDeleted on
// the shared pool; it is rewritten to a shared-cache URI DSN so every
// connection opened against path sees the same database.
func Open(path string) (*SQLiteRepository, error) {
	dsn := path
	if path == ":memory:" {
		dsn = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite catalogue: %w", err)
	}

	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeoutMs),
		"PRAGMA journal_mode = WAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting %q: %w", p, err)
		}
	}

	return &SQLiteRepository{db: db, workers: make(map[int]*sql.Conn)}, nil
}

func (r *SQLiteRepository) InitializeSchema() error {
	if err := migrations.Up(r.db); err != nil {
		return fmt.Errorf("initializing catalogue schema: %w", err)
	}
	return nil
}

// ForWorker returns the WorkerRepository backed by workerID's dedicated
// connection, creating it on first use. The mapping itself is
// mutex-guarded; the connection it returns needs no further locking.
func (r *SQLiteRepository) ForWorker(workerID int) (backup.WorkerRepository, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if conn, ok := r.workers[workerID]; ok {
		return &workerRepository{conn: conn}, nil
	}

	conn, err := r.db.Conn(context.Background())
	if err != nil {
		return nil, fmt.Errorf("acquiring connection for worker %d: %w", workerID, err)
	}
	if _, err := conn.ExecContext(context.Background(), fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeoutMs)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("configuring worker %d connection: %w", workerID, err)
	}

	r.workers[workerID] = conn
	return &workerRepository{conn: conn}, nil
}

func (r *SQLiteRepository) ListAll() ([]backup.Entry, error) {
	rows, err := r.db.Query("SELECT path, hash, last_updated, status FROM files")
	if err != nil {
		return nil, fmt.Errorf("listing catalogue entries: %w", err)
	}
	defer rows.Close()

	var entries []backup.Entry
	for rows.Next() {
		var e backup.Entry
		var status string
		if err := rows.Scan(&e.Path, &e.Hash, &e.LastUpdated, &status); err != nil {
			return nil, fmt.Errorf("scanning catalogue entry: %w", err)
		}
		e.Status = backup.ParseChangeStatus(status)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating catalogue entries: %w", err)
	}
	return entries, nil
}

func (r *SQLiteRepository) MarkDeleted(path, timestamp string) error {
	_, err := r.db.Exec(
		"UPDATE files SET status = ?, last_updated = ? WHERE path = ?",
		backup.Deleted.String(), timestamp, path,
	)
	if err != nil {
		return fmt.Errorf("marking %s deleted: %w", path, err)
	}
	return nil
}

func (r *SQLiteRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for id, conn := range r.workers {
		if err := conn.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing worker %d connection: %w", id, err)
		}
	}
	if err := r.db.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing catalogue: %w", err)
	}
	return firstErr
}

type workerRepository struct {
	conn *sql.Conn
}

func (w *workerRepository) Get(path string) (*backup.Entry, error) {
	row := w.conn.QueryRowContext(context.Background(),
		"SELECT path, hash, last_updated, status FROM files WHERE path = ?", path)

	var e backup.Entry
	var status string
	if err := row.Scan(&e.Path, &e.Hash, &e.LastUpdated, &status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading entry for %s: %w", path, err)
	}
	e.Status = backup.ParseChangeStatus(status)
	return &e, nil
}

func (w *workerRepository) Upsert(e backup.Entry) error {
	_, err := w.conn.ExecContext(context.Background(), `
		INSERT INTO files (path, hash, last_updated, status)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			hash = excluded.hash,
			last_updated = excluded.last_updated,
			status = excluded.status
	`, e.Path, e.Hash, e.LastUpdated, e.Status.String())
	if err != nil {
		return fmt.Errorf("upserting entry for %s: %w", e.Path, err)
	}
	return nil
}

var (
	_ backup.Repository       = (*SQLiteRepository)(nil)
	_ backup.WorkerRepository = (*workerRepository)(nil)
)
