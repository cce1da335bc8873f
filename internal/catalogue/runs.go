package catalogue

import (
	"database/sql"
	"fmt"
	"time"
)

// Run is one row of the supplemented run-history table: bookkeeping for a
// single RunBackup invocation, independent of the core catalogue.
type Run struct {
	ID         int64
	StartedAt  time.Time
	FinishedAt sql.NullTime
	Success    sql.NullBool
	Source     string
	BackupRoot string
}

// StartRun records the beginning of a run and returns its ID.
func (r *SQLiteRepository) StartRun(source, backupRoot string) (int64, error) {
	res, err := r.db.Exec(
		"INSERT INTO runs (started_at, source, backup_root) VALUES (?, ?, ?)",
		time.Now().UTC().Format(time.RFC3339), source, backupRoot,
	)
	if err != nil {
		return 0, fmt.Errorf("starting run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}
	return id, nil
}

// FinishRun records the outcome of a previously started run.
func (r *SQLiteRepository) FinishRun(id int64, success bool) error {
	_, err := r.db.Exec(
		"UPDATE runs SET finished_at = ?, success = ? WHERE id = ?",
		time.Now().UTC().Format(time.RFC3339), success, id,
	)
	if err != nil {
		return fmt.Errorf("finishing run %d: %w", id, err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first, capped at limit.
func (r *SQLiteRepository) ListRuns(limit int) ([]Run, error) {
	rows, err := r.db.Query(
		"SELECT id, started_at, finished_at, success, source, backup_root FROM runs ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var startedAt string
		var finishedAt sql.NullString
		if err := rows.Scan(&run.ID, &startedAt, &finishedAt, &run.Success, &run.Source, &run.BackupRoot); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		run.StartedAt, err = time.Parse(time.RFC3339, startedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing run start time: %w", err)
		}
		if finishedAt.Valid {
			t, err := time.Parse(time.RFC3339, finishedAt.String)
			if err != nil {
				return nil, fmt.Errorf("parsing run finish time: %w", err)
			}
			run.FinishedAt = sql.NullTime{Time: t, Valid: true}
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}
